package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Type is the declared type of a document field.
type Type string

// Field type constants.
const (
	Text    Type = "text"
	Date    Type = "date"
	Boolean Type = "boolean"
	Object  Type = "object"
	// Enum fields carry a closed list of allowed values with display labels.
	Enum Type = "enum"
)

func (t Type) valid() bool {
	switch t {
	case Text, Date, Boolean, Object, Enum:
		return true
	}
	return false
}

// AllowedValue is one declared value of an enum field with its display label.
type AllowedValue struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// FieldDefinition describes one declared document field.
type FieldDefinition struct {
	name          string
	fieldType     Type
	allowedValues []AllowedValue
}

// NewField validates and creates a FieldDefinition.
func NewField(name string, ft Type, allowed []AllowedValue) (FieldDefinition, error) {
	if name == "" {
		return FieldDefinition{}, fmt.Errorf("field name is required")
	}
	if !ft.valid() {
		return FieldDefinition{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	if len(allowed) > 0 && ft != Enum {
		return FieldDefinition{}, fmt.Errorf("allowed values declared on non-enum field %q", name)
	}
	return FieldDefinition{name: name, fieldType: ft, allowedValues: allowed}, nil
}

// Name returns the field name.
func (f FieldDefinition) Name() string { return f.name }

// FieldType returns the declared type.
func (f FieldDefinition) FieldType() Type { return f.fieldType }

// AllowedValues returns the declared values of an enum field.
func (f FieldDefinition) AllowedValues() []AllowedValue { return f.allowedValues }

// Label resolves a raw stored value to its declared display label.
// The second return is false when the value is not declared.
func (f FieldDefinition) Label(value string) (string, bool) {
	for _, av := range f.allowedValues {
		if av.Value == value {
			return av.Label, true
		}
	}
	return "", false
}

// DocumentType is a named set of field definitions.
type DocumentType struct {
	name   string
	fields map[string]FieldDefinition
}

// NewDocumentType creates a DocumentType from its field definitions.
func NewDocumentType(name string, fields []FieldDefinition) (DocumentType, error) {
	if name == "" {
		return DocumentType{}, fmt.Errorf("document type name is required")
	}
	m := make(map[string]FieldDefinition, len(fields))
	for _, f := range fields {
		if _, dup := m[f.Name()]; dup {
			return DocumentType{}, fmt.Errorf("duplicate field %q in document type %q", f.Name(), name)
		}
		m[f.Name()] = f
	}
	return DocumentType{name: name, fields: m}, nil
}

// Name returns the document type name.
func (t DocumentType) Name() string { return t.name }

// Field looks up a field definition by name.
func (t DocumentType) Field(name string) (FieldDefinition, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// FieldNames returns the declared field names in unspecified order.
func (t DocumentType) FieldNames() []string {
	names := make([]string, 0, len(t.fields))
	for name := range t.fields {
		names = append(names, name)
	}
	return names
}

// ExpandableFields returns the names of enum fields, whose stored values
// are mapped to display labels at presentation time.
func (t DocumentType) ExpandableFields() []string {
	var names []string
	for name, f := range t.fields {
		if f.FieldType() == Enum && len(f.AllowedValues()) > 0 {
			names = append(names, name)
		}
	}
	return names
}

// Schema is the immutable process-wide field definition table.
// It is loaded once at startup and passed into each request's handling context.
type Schema struct {
	types map[string]DocumentType
}

// New creates a Schema from its document types.
func New(types []DocumentType) (*Schema, error) {
	m := make(map[string]DocumentType, len(types))
	for _, t := range types {
		if _, dup := m[t.Name()]; dup {
			return nil, fmt.Errorf("duplicate document type %q", t.Name())
		}
		m[t.Name()] = t
	}
	return &Schema{types: m}, nil
}

// DocumentType looks up a document type by name.
func (s *Schema) DocumentType(name string) (DocumentType, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Field resolves a field name across all document types.
// The first declaration found wins; definitions are expected to agree.
func (s *Schema) Field(name string) (FieldDefinition, bool) {
	for _, t := range s.types {
		if f, ok := t.fields[name]; ok {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// HasField reports whether any document type declares the field.
func (s *Schema) HasField(name string) bool {
	_, ok := s.Field(name)
	return ok
}

type fileField struct {
	Type          Type           `yaml:"type"`
	AllowedValues []AllowedValue `yaml:"allowed_values"`
}

type fileDocType struct {
	Fields map[string]fileField `yaml:"fields"`
}

type schemaFile struct {
	DocumentTypes map[string]fileDocType `yaml:"document_types"`
}

// Load reads a schema definition from a YAML file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}

	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}

	types := make([]DocumentType, 0, len(sf.DocumentTypes))
	for typeName, ft := range sf.DocumentTypes {
		fields := make([]FieldDefinition, 0, len(ft.Fields))
		for fieldName, ff := range ft.Fields {
			f, err := NewField(fieldName, ff.Type, ff.AllowedValues)
			if err != nil {
				return nil, fmt.Errorf("document type %q: %w", typeName, err)
			}
			fields = append(fields, f)
		}
		t, err := NewDocumentType(typeName, fields)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return New(types)
}
