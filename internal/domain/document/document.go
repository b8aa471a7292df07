package document

import (
	"fmt"

	"github.com/kailas-cloud/unisearch/internal/domain/schema"
)

// DefaultType is the document type assumed when a hit carries none.
const DefaultType = "edition"

// Document is a schema-bound key/value record read back from the engine.
// It never holds a field its document type does not declare.
type Document struct {
	docType schema.DocumentType
	id      string
	fields  map[string]any
	score   *float64
}

// New creates an empty Document bound to a document type.
func New(docType schema.DocumentType) *Document {
	return &Document{docType: docType, fields: map[string]any{}}
}

// FromFields builds a Document from a raw field map, as stored in the
// full-index export. The "_type" and "_id" keys are lifted out of the map;
// undeclared fields are dropped.
func FromFields(s *schema.Schema, raw map[string]any, score *float64) (*Document, error) {
	typeName := DefaultType
	if t, ok := raw["_type"].(string); ok && t != "" {
		typeName = t
	}
	docType, ok := s.DocumentType(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected document type %q", errUnknownType, typeName)
	}

	doc := &Document{docType: docType, fields: map[string]any{}, score: score}
	if id, ok := raw["_id"].(string); ok {
		doc.id = id
	}
	for key, value := range raw {
		doc.Set(key, value)
	}
	return doc, nil
}

var errUnknownType = fmt.Errorf("document types must be configured")

// Type returns the document type name.
func (d *Document) Type() string { return d.docType.Name() }

// ID returns the document identifier, if any.
func (d *Document) ID() string { return d.id }

// Score returns the relevance score, or nil when the document was not scored.
func (d *Document) Score() *float64 { return d.score }

// Has reports whether the document type declares the field.
func (d *Document) Has(name string) bool {
	_, ok := d.docType.Field(name)
	return ok
}

// Get returns a field value, or nil when unset or undeclared.
func (d *Document) Get(name string) any { return d.fields[name] }

// Set assigns a field value. Assignment to an undeclared field is dropped.
func (d *Document) Set(name string, value any) {
	if !d.Has(name) {
		return
	}
	d.fields[name] = value
}

// Weighted returns a copy with the score multiplied by factor, used when
// blending per-index cascade weights. An unscored document stays unscored.
func (d *Document) Weighted(factor float64) *Document {
	var score *float64
	if d.score != nil {
		s := *d.score * factor
		score = &s
	}
	copied := make(map[string]any, len(d.fields))
	for k, v := range d.fields {
		copied[k] = v
	}
	return &Document{docType: d.docType, id: d.id, fields: copied, score: score}
}

// IndexExport renders the document for the full-index write shape: every
// declared, non-empty field plus the type discriminator and identifier.
func (d *Document) IndexExport() map[string]any {
	out := map[string]any{}
	for _, name := range d.docType.FieldNames() {
		if value, ok := d.fields[name]; ok && !isEmpty(value) {
			out[name] = value
		}
	}
	out["_type"] = d.docType.Name()
	if d.id != "" {
		out["_id"] = d.id
	}
	return out
}

// APIExport renders the document for the public API: declared non-empty
// fields only, with the score under "es_score" when present.
func (d *Document) APIExport() map[string]any {
	out := map[string]any{}
	for _, name := range d.docType.FieldNames() {
		if value, ok := d.fields[name]; ok && !isEmpty(value) {
			out[name] = value
		}
	}
	if d.score != nil {
		out["es_score"] = *d.score
	}
	return out
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}
