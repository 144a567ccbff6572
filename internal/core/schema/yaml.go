package schema

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// A types file declares named object types and the root state type:
//
//	state: Pong
//	types:
//	  Player:
//	    paddle: int
//	    score: int
//	  Pong:
//	    playerA: Player
//	    playerB: Player
//	    winner: string?
//	    history: int[]
//
// Field order is the order written in the file. A type expression is a
// primitive (boolean, int, uint, float, string, bytes) or a declared type
// name, followed by any number of "?" (optional) and "[]" (sequence)
// suffixes applied left to right.
type document struct {
	State string    `yaml:"state"`
	Types yaml.Node `yaml:"types"`
}

var primitives = map[string]*Type{
	"boolean": boolType,
	"bool":    boolType,
	"int":     intType,
	"uint":    uintType,
	"float":   floatType,
	"string":  stringType,
	"bytes":   bytesType,
}

// LoadFile reads a YAML types file and returns its state type.
func LoadFile(path string) (*Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ErrSchemaInvalid.Detailf("read %s", path).WithCause(err)
	}
	return LoadYAML(data)
}

// LoadYAML parses a YAML types document and returns its state type.
func LoadYAML(data []byte) (*Type, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, domain.ErrSchemaInvalid.WithDetails("yaml").WithCause(err)
	}
	if doc.State == "" {
		return nil, domain.ErrSchemaInvalid.WithDetails("state type name is required")
	}
	if doc.Types.Kind != yaml.MappingNode {
		return nil, domain.ErrSchemaInvalid.WithDetails("types must be a mapping")
	}

	r := &resolver{
		decls:    make(map[string]*yaml.Node),
		done:     make(map[string]*Type),
		visiting: make(map[string]bool),
	}
	for i := 0; i+1 < len(doc.Types.Content); i += 2 {
		name := doc.Types.Content[i].Value
		if _, dup := r.decls[name]; dup {
			return nil, domain.ErrSchemaInvalid.Detailf("type %s declared twice", name)
		}
		if _, clash := primitives[name]; clash {
			return nil, domain.ErrSchemaInvalid.Detailf("type %s shadows a primitive", name)
		}
		r.decls[name] = doc.Types.Content[i+1]
	}

	return r.named(doc.State)
}

type resolver struct {
	decls    map[string]*yaml.Node
	done     map[string]*Type
	visiting map[string]bool
}

func (r *resolver) named(name string) (*Type, error) {
	if t, ok := r.done[name]; ok {
		return t, nil
	}
	decl, ok := r.decls[name]
	if !ok {
		return nil, domain.ErrSchemaInvalid.Detailf("unknown type %q", name)
	}
	if r.visiting[name] {
		return nil, domain.ErrSchemaInvalid.Detailf("type %s refers to itself", name)
	}
	if decl.Kind != yaml.MappingNode {
		return nil, domain.ErrSchemaInvalid.Detailf("type %s must be a mapping of fields", name)
	}

	r.visiting[name] = true
	defer delete(r.visiting, name)

	fields := make([]Field, 0, len(decl.Content)/2)
	for i := 0; i+1 < len(decl.Content); i += 2 {
		key, val := decl.Content[i], decl.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, domain.ErrSchemaInvalid.Detailf("%s.%s: type must be a string (line %d)", name, key.Value, val.Line)
		}
		ft, err := r.expr(val.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, F(key.Value, ft))
	}

	t, err := NewObjectType(name, fields...)
	if err != nil {
		return nil, err
	}
	r.done[name] = t
	return t, nil
}

func (r *resolver) expr(s string) (*Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasSuffix(s, "?"):
		elem, err := r.expr(strings.TrimSuffix(s, "?"))
		if err != nil {
			return nil, err
		}
		return NewOptionalType(elem)
	case strings.HasSuffix(s, "[]"):
		elem, err := r.expr(strings.TrimSuffix(s, "[]"))
		if err != nil {
			return nil, err
		}
		return NewSequenceType(elem)
	}
	if t, ok := primitives[s]; ok {
		return t, nil
	}
	return r.named(s)
}
