package request

import (
	"testing"

	"github.com/kailas-cloud/unisearch/internal/domain/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()

	mk := func(name string, ft schema.Type) schema.FieldDefinition {
		f, err := schema.NewField(name, ft, nil)
		if err != nil {
			t.Fatalf("new field %s: %v", name, err)
		}
		return f
	}

	state, err := schema.NewField("organisation_state", schema.Enum, []schema.AllowedValue{
		{Label: "Open", Value: "open"},
		{Label: "Closed", Value: "closed"},
	})
	if err != nil {
		t.Fatalf("new enum field: %v", err)
	}

	dt, err := schema.NewDocumentType("edition", []schema.FieldDefinition{
		mk("title", schema.Text),
		mk("description", schema.Text),
		mk("link", schema.Text),
		mk("format", schema.Text),
		mk("organisations", schema.Text),
		mk("specialist_sectors", schema.Text),
		mk("public_timestamp", schema.Date),
		mk("is_historic", schema.Boolean),
		state,
	})
	if err != nil {
		t.Fatalf("new document type: %v", err)
	}

	sch, err := schema.New([]schema.DocumentType{dt})
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	return sch
}

func testOptions(t *testing.T) ParserOptions {
	t.Helper()
	return ParserOptions{
		Schema:              testSchema(t),
		FacetFields:         []string{"format", "organisations", "specialist_sectors"},
		SortFields:          []string{"public_timestamp"},
		DefaultReturnFields: []string{"title", "link", "format"},
		MaxCount:            1000,
	}
}
