package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a JSON Schema the model output must satisfy. Vendors receive
// Definition through their native structured output option; the compiled
// form checks what comes back.
type Schema struct {
	// Name is kebab-case, e.g. "constitution-advice".
	Name        string
	Description string
	Definition  map[string]any

	compiled *jsonschema.Schema
}

// NewSchema compiles def.
func NewSchema(name, description string, def map[string]any) (*Schema, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode schema %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", name, err)
	}
	url := "schema://" + name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{Name: name, Description: description, Definition: def, compiled: compiled}, nil
}

// MustSchema is NewSchema for package-level schemas. It panics on error.
func MustSchema(name, description string, def map[string]any) *Schema {
	s, err := NewSchema(name, description, def)
	if err != nil {
		panic(err)
	}
	return s
}

// check validates content. A nil schema accepts anything.
func (s *Schema) check(vendor string, content []byte) error {
	if s == nil {
		return nil
	}
	invalid := func(err error) error {
		return &Error{Kind: KindInvalidOutput, Vendor: vendor, Content: content, Err: err}
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(content))
	if err != nil {
		return invalid(fmt.Errorf("not JSON: %w", err))
	}
	if s.compiled == nil {
		return invalid(fmt.Errorf("schema %s was not built with NewSchema", s.Name))
	}
	if err := s.compiled.Validate(v); err != nil {
		return invalid(err)
	}
	return nil
}
