package schema

import "fmt"

func errOutOfRange(v any) error {
	return fmt.Errorf("value %v out of range", v)
}

func errNotInteger(v float64) error {
	return fmt.Errorf("value %v is not an integer", v)
}

func errWrongType(want string, v any) error {
	return fmt.Errorf("want %s, have %T", want, v)
}
