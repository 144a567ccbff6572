package output

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

type tabularSample []sample

func (s tabularSample) Table() *Table {
	t := NewTable("NAME", "COUNT")
	for _, v := range s {
		t.AddRow(v.Name, v.Count)
	}
	return t
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "table": FormatTable, "json": FormatJSON, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("json formatter type")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("yaml formatter type")
	}
	if _, ok := NewFormatter(FormatTable).(*TableFormatter); !ok {
		t.Error("table formatter type")
	}
}

func TestTableFormatter_Tabular(t *testing.T) {
	var buf bytes.Buffer
	data := tabularSample{{Name: "alice", Count: 3}, {Name: "bob"}}
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	want := "NAME   COUNT\nalice  3\nbob    0\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "NAME") {
		t.Errorf("headers printed with NoHeaders: %q", buf.String())
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, NewTable("A")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "(none)\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestTableFormatter_FallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, sample{Name: "x"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"name\": \"x\"\n}\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestYAMLFormatter_UsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, []sample{{Name: "a", Count: 2}, {Name: "b"}}); err != nil {
		t.Fatal(err)
	}
	want := "- count: 2\n  name: a\n- name: b\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
