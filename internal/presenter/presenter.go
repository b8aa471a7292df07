// Package presenter turns ranked hits and raw facet buckets into the
// public response shape: reference slugs expanded through registries,
// enumerated values mapped to display labels, engine metadata normalized.
package presenter

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/unisearch/internal/domain/schema"
	"github.com/kailas-cloud/unisearch/internal/domain/search/result"
)

// RegistryLookup resolves a reference slug to its display document. A miss
// returns nil with no error.
type RegistryLookup interface {
	Lookup(ctx context.Context, slug string) (map[string]any, error)
}

// Presenter assembles the public payload.
type Presenter struct {
	schema *schema.Schema
	// registries maps a reference field name to its registry.
	registries map[string]RegistryLookup
	// shortIndexNames are the logical index names; a hit's concrete index
	// name starts with one of them.
	shortIndexNames []string
}

// New creates a Presenter.
func New(sch *schema.Schema, registries map[string]RegistryLookup, shortIndexNames []string) *Presenter {
	return &Presenter{schema: sch, registries: registries, shortIndexNames: shortIndexNames}
}

// PresentResults renders each hit: public fields with reference and enum
// expansion, the short index name, and the score under stable keys.
func (p *Presenter) PresentResults(ctx context.Context, rs *result.ResultSet) ([]map[string]any, error) {
	presented := make([]map[string]any, 0, len(rs.Hits()))
	for _, hit := range rs.Hits() {
		fields := hit.Document.APIExport()

		if err := p.expandReferences(ctx, fields); err != nil {
			return nil, err
		}
		p.expandEnums(hit.Document.Type(), fields)

		fields["index"] = p.shortIndexName(hit.Index)
		fields["_id"] = hit.Document.ID()
		if hit.Explanation != nil {
			fields["_explanation"] = hit.Explanation
		}
		presented = append(presented, fields)
	}
	return presented, nil
}

// ExpandValue resolves one field value for display: registry fields become
// display documents (an unresolved slug degrades to just the slug), enum
// fields become label/value pairs, anything else passes through.
func (p *Presenter) ExpandValue(ctx context.Context, field, value string) (any, error) {
	if reg, ok := p.registries[field]; ok {
		doc, err := reg.Lookup(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("registry %s: %w", field, err)
		}
		expanded := map[string]any{"slug": value}
		for k, v := range doc {
			expanded[k] = v
		}
		return expanded, nil
	}
	if def, ok := p.schema.Field(field); ok && def.FieldType() == schema.Enum {
		if label, ok := def.Label(value); ok {
			return map[string]any{"label": label, "value": value}, nil
		}
	}
	return value, nil
}

func (p *Presenter) expandReferences(ctx context.Context, fields map[string]any) error {
	for field := range p.registries {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		slugs := stringValues(raw)
		if slugs == nil {
			continue
		}
		expanded := make([]any, 0, len(slugs))
		for _, slug := range slugs {
			value, err := p.ExpandValue(ctx, field, slug)
			if err != nil {
				return err
			}
			expanded = append(expanded, value)
		}
		fields[field] = expanded
	}
	return nil
}

// expandEnums maps raw stored values of enum fields to their declared
// display labels. Undeclared values pass through unchanged.
func (p *Presenter) expandEnums(docType string, fields map[string]any) {
	dt, ok := p.schema.DocumentType(docType)
	if !ok {
		return
	}
	for _, field := range dt.ExpandableFields() {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		def, _ := dt.Field(field)
		switch value := raw.(type) {
		case string:
			if label, ok := def.Label(value); ok {
				fields[field] = map[string]any{"label": label, "value": value}
			}
		case []any:
			expanded := make([]any, len(value))
			for i, v := range value {
				expanded[i] = v
				if s, ok := v.(string); ok {
					if label, ok := def.Label(s); ok {
						expanded[i] = map[string]any{"label": label, "value": s}
					}
				}
			}
			fields[field] = expanded
		}
	}
}

// shortIndexName maps a concrete index name (with its timestamped suffix)
// to its logical alias.
func (p *Presenter) shortIndexName(concrete string) string {
	for _, short := range p.shortIndexNames {
		if strings.HasPrefix(concrete, short) {
			return short
		}
	}
	return concrete
}

func stringValues(raw any) []string {
	switch value := raw.(type) {
	case string:
		return []string{value}
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, v := range value {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
