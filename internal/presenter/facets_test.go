package presenter

import (
	"context"
	"testing"

	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	"github.com/kailas-cloud/unisearch/internal/engine"
	searchuc "github.com/kailas-cloud/unisearch/internal/usecase/search"
)

func facetRequest(t *testing.T, facets map[string]request.FacetParams, filters ...filter.Filter) *request.Request {
	t.Helper()
	return request.New(0, 10, "cheese", filters, nil, nil, facets, request.Debug{})
}

func formatBuckets(terms ...engine.TermBucket) map[string]engine.FacetBuckets {
	return map[string]engine.FacetBuckets{
		"format": {Missing: 4, Terms: terms},
	}
}

func TestPresentFacets(t *testing.T) {
	p := New(testSchema(t), nil, nil)

	req := facetRequest(t, map[string]request.FacetParams{
		"format": {Requested: 2, Order: request.OrderCount, Scope: request.ScopeQuery},
	})
	buckets := formatBuckets(
		engine.TermBucket{Term: "transaction", Count: 12},
		engine.TermBucket{Term: "guide", Count: 7},
		engine.TermBucket{Term: "news_article", Count: 3},
	)

	out, err := p.PresentFacets(context.Background(), buckets, req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	facet := out["format"].(map[string]any)
	if facet["documents_with_no_value"] != 4 {
		t.Errorf("unexpected documents_with_no_value: %v", facet["documents_with_no_value"])
	}
	if facet["total_options"] != 3 {
		t.Errorf("unexpected total_options: %v", facet["total_options"])
	}
	// One more bucket value exists than the two requested options.
	if facet["missing_options"] != 1 {
		t.Errorf("unexpected missing_options: %v", facet["missing_options"])
	}
	if facet["scope"] != "query" {
		t.Errorf("unexpected scope: %v", facet["scope"])
	}

	options := facet["options"].([]map[string]any)
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	if options[0]["value"] != "transaction" || options[0]["documents"] != 12 {
		t.Errorf("unexpected first option: %v", options[0])
	}
}

func TestPresentFacets_MissingOptionsNeverNegative(t *testing.T) {
	p := New(testSchema(t), nil, nil)

	req := facetRequest(t, map[string]request.FacetParams{
		"format": {Requested: 10, Order: request.OrderCount, Scope: request.ScopeQuery},
	})
	buckets := formatBuckets(engine.TermBucket{Term: "transaction", Count: 12})

	out, err := p.PresentFacets(context.Background(), buckets, req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	facet := out["format"].(map[string]any)
	if facet["missing_options"] != 0 {
		t.Errorf("expected 0 missing options, got %v", facet["missing_options"])
	}
}

func TestPresentFacets_AppliedValuesComeFirst(t *testing.T) {
	p := New(testSchema(t), nil, nil)

	applied, err := filter.NewText("format", []string{"news_article"}, false)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	req := facetRequest(t, map[string]request.FacetParams{
		"format": {Requested: 2, Order: request.OrderCount, Scope: request.ScopeQuery},
	}, applied)
	buckets := formatBuckets(
		engine.TermBucket{Term: "transaction", Count: 12},
		engine.TermBucket{Term: "guide", Count: 7},
		engine.TermBucket{Term: "news_article", Count: 3},
	)

	out, err := p.PresentFacets(context.Background(), buckets, req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	options := out["format"].(map[string]any)["options"].([]map[string]any)
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	// The filtered value leads with its real count, then the top bucket.
	if options[0]["value"] != "news_article" || options[0]["documents"] != 3 {
		t.Errorf("unexpected first option: %v", options[0])
	}
	if options[1]["value"] != "transaction" {
		t.Errorf("unexpected second option: %v", options[1])
	}
}

func TestPresentFacets_AppliedValueAbsentFromBuckets(t *testing.T) {
	p := New(testSchema(t), nil, nil)

	applied, err := filter.NewText("format", []string{"statistics"}, false)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	req := facetRequest(t, map[string]request.FacetParams{
		"format": {Requested: 1, Order: request.OrderCount, Scope: request.ScopeQuery},
	}, applied)
	buckets := formatBuckets(engine.TermBucket{Term: "transaction", Count: 12})

	out, err := p.PresentFacets(context.Background(), buckets, req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	options := out["format"].(map[string]any)["options"].([]map[string]any)
	// The applied value shows with zero documents even though no bucket
	// carries it.
	if options[0]["value"] != "statistics" || options[0]["documents"] != 0 {
		t.Errorf("unexpected option for absent applied value: %v", options[0])
	}
}

func TestPresentFacets_AttachesExamples(t *testing.T) {
	p := New(testSchema(t), nil, nil)

	req := facetRequest(t, map[string]request.FacetParams{
		"format": {Requested: 1, Order: request.OrderCount, Scope: request.ScopeQuery, Examples: 1},
	})
	buckets := formatBuckets(engine.TermBucket{Term: "transaction", Count: 12})
	examples := map[string]map[string]searchuc.FacetExamples{
		"format": {
			"transaction": {
				Total:    12,
				Examples: []map[string]any{{"title": "Register to vote"}},
			},
		},
	}

	out, err := p.PresentFacets(context.Background(), buckets, req, examples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	options := out["format"].(map[string]any)["options"].([]map[string]any)
	ex := options[0]["examples"].(map[string]any)
	if ex["total"] != 12 {
		t.Errorf("unexpected example total: %v", ex["total"])
	}
	docs := ex["examples"].([]map[string]any)
	if len(docs) != 1 || docs[0]["title"] != "Register to vote" {
		t.Errorf("unexpected example docs: %v", docs)
	}
}

func TestPresentFacets_UnrequestedFieldSkipped(t *testing.T) {
	p := New(testSchema(t), nil, nil)

	// Buckets for a field the request did not facet on are dropped.
	req := facetRequest(t, nil)
	out, err := p.PresentFacets(context.Background(), formatBuckets(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty facets, got %v", out)
	}
}
