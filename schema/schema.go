package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrShape indicates a decoded value does not match its descriptor.
var ErrShape = errors.New("schema: value does not match schema")

// Type is a JSON primitive, array or object type.
type Type int

const (
	TypeString Type = iota
	TypeArray
	TypeObject
)

// String returns the string representation of the type.
func (t Type) String() string {
	switch t {
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "string"
	}
}

// Field describes one node of a response shape.
type Field struct {
	Name        string
	Type        Type
	Description string
	Items       *Field   // element shape for arrays
	Properties  []*Field // ordered members for objects
	Required    bool
}

// RequiredNames returns the names of required properties in declaration order.
func (f *Field) RequiredNames() []string {
	var names []string
	for _, p := range f.Properties {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Descriptor is a named, versioned response shape.
type Descriptor struct {
	Name    string
	Version string
	Root    *Field

	once     sync.Once
	resolved *jsonschema.Resolved
	err      error
}

// JSONSchema converts the descriptor to a JSON Schema document. Optional
// properties also accept null; array items never do.
func (d *Descriptor) JSONSchema() *jsonschema.Schema {
	return toJSONSchema(d.Root, false)
}

func toJSONSchema(f *Field, nullable bool) *jsonschema.Schema {
	s := &jsonschema.Schema{Description: f.Description}
	if nullable {
		s.Types = []string{"null", f.Type.String()}
	} else {
		s.Type = f.Type.String()
	}
	switch f.Type {
	case TypeArray:
		if f.Items != nil {
			s.Items = toJSONSchema(f.Items, false)
		}
	case TypeObject:
		s.Properties = make(map[string]*jsonschema.Schema, len(f.Properties))
		for _, p := range f.Properties {
			s.Properties[p.Name] = toJSONSchema(p, !p.Required)
		}
		s.Required = f.RequiredNames()
	}
	return s
}

// Validate checks a value produced by encoding/json decoding into any
// against the descriptor's JSON Schema. The schema is resolved once.
func (d *Descriptor) Validate(v any) error {
	if d == nil || d.Root == nil {
		return errors.New("schema: descriptor is nil")
	}
	d.once.Do(func() {
		d.resolved, d.err = d.JSONSchema().Resolve(nil)
	})
	if d.err != nil {
		return fmt.Errorf("%s: resolving schema: %w", d.Name, d.err)
	}
	if err := d.resolved.Validate(v); err != nil {
		return fmt.Errorf("%s: %w: %w", d.Name, ErrShape, err)
	}
	return nil
}

// Describe renders the descriptor as an indented outline. The outline is
// embedded in prompts for generators that cannot take a native schema.
func (d *Descriptor) Describe() string {
	var b strings.Builder
	describe(&b, d.Root, 0)
	return b.String()
}

func describe(b *strings.Builder, f *Field, depth int) {
	indent := strings.Repeat("  ", depth)
	name := f.Name
	switch {
	case name == "" && depth == 0:
		name = "(root)"
	case name == "":
		name = "(item)"
	}
	fmt.Fprintf(b, "%s- %s (%s", indent, name, f.Type)
	if f.Required {
		b.WriteString(", required")
	}
	b.WriteString(")")
	if f.Description != "" {
		b.WriteString(": ")
		b.WriteString(f.Description)
	}
	b.WriteString("\n")

	if f.Items != nil && f.Items.Type == TypeObject {
		describe(b, f.Items, depth+1)
	}
	for _, p := range f.Properties {
		describe(b, p, depth+1)
	}
}

func str(name, desc string) *Field {
	return &Field{Name: name, Type: TypeString, Description: desc, Required: true}
}

func strList(name, desc string) *Field {
	return &Field{Name: name, Type: TypeArray, Description: desc, Items: &Field{Type: TypeString}, Required: true}
}

func object(name, desc string, props ...*Field) *Field {
	return &Field{Name: name, Type: TypeObject, Description: desc, Properties: props, Required: true}
}
