package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/unisearch/internal/domain/search/query"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	"github.com/kailas-cloud/unisearch/internal/engine"
)

// FacetExamples holds the example documents for one facet value.
type FacetExamples struct {
	Total    int
	Examples []map[string]any
}

// fetchFacetExamples issues one batched round trip per facet field with
// examples requested, fetching example documents per bucket value. A facet
// with no bucket values yields an empty map for its field.
func (s *Service) fetchFacetExamples(
	ctx context.Context,
	q *query.Query,
	req *request.Request,
	buckets map[string]engine.FacetBuckets,
) (map[string]map[string]FacetExamples, error) {
	if len(req.Facets()) == 0 || buckets == nil {
		return nil, nil
	}

	out := map[string]map[string]FacetExamples{}
	for field, fp := range req.Facets() {
		if fp.Examples <= 0 {
			continue
		}
		examples, err := s.fetchExamplesForField(ctx, q, field, fp, req.FiltersOn(field), buckets[field])
		if err != nil {
			return nil, fmt.Errorf("facet examples for %q: %w", field, err)
		}
		out[field] = examples
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (s *Service) fetchExamplesForField(
	ctx context.Context,
	q *query.Query,
	field string,
	fp request.FacetParams,
	applied []string,
	fieldBuckets engine.FacetBuckets,
) (map[string]FacetExamples, error) {
	terms := displayedTerms(fieldBuckets, fp, applied)
	if len(terms) == 0 {
		return map[string]FacetExamples{}, nil
	}

	reqs := make([]*engine.Request, len(terms))
	for i, term := range terms {
		req, err := s.exampleRequest(q, field, fp, term)
		if err != nil {
			return nil, err
		}
		reqs[i] = req
	}

	responses, err := s.eng.MultiSearch(ctx, reqs)
	if err != nil {
		return nil, err
	}

	examples := make(map[string]FacetExamples, len(terms))
	for i, term := range terms {
		resp := responses[i]
		docs := make([]map[string]any, 0, len(resp.Hits))
		for _, hit := range resp.Hits {
			doc, err := s.toDocument(hit)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc.APIExport())
		}
		examples[term] = FacetExamples{Total: resp.Total, Examples: docs}
	}
	return examples, nil
}

// displayedTerms selects the facet values the presenter will show: the
// applied filter values first, then top bucket terms until the requested
// option count is filled. Selection here must stay in step with the
// presenter's option loop so every displayed option can carry examples.
func displayedTerms(fieldBuckets engine.FacetBuckets, fp request.FacetParams, applied []string) []string {
	terms := make([]string, 0, fp.Requested)
	seen := make(map[string]bool, fp.Requested)
	for _, term := range applied {
		if term != "" && !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	for _, bucket := range fieldBuckets.Terms {
		if len(terms) >= fp.Requested && len(terms) >= len(applied) {
			break
		}
		if bucket.Term != "" && !seen[bucket.Term] {
			seen[bucket.Term] = true
			terms = append(terms, bucket.Term)
		}
	}
	return terms
}

// exampleRequest builds one example sub-query: the facet value's own term
// filter, optionally narrowed by the main query, ordered by descending
// popularity.
func (s *Service) exampleRequest(
	q *query.Query, field string, fp request.FacetParams, value string,
) (*engine.Request, error) {
	if value == "" {
		// A terms filter on "" is rejected by the engine.
		return nil, fmt.Errorf("empty facet value for %q", field)
	}
	termFilter, err := filter.NewText(field, []string{value}, false)
	if err != nil {
		return nil, fmt.Errorf("example filter on %q: %w", field, err)
	}
	filters := []filter.Filter{termFilter}

	req := &engine.Request{
		Indices:      primaryIndices(q),
		Size:         fp.Examples,
		ReturnFields: fp.ExampleFields,
		Sort:         &request.Sort{Field: popularityField, Descending: true},
	}

	switch fp.Scope {
	case request.ScopeQuery:
		req.Relevance = q.Relevance
		filters = append(filters, q.Filters...)
	case request.ScopeExcludeFieldFilter:
		req.Relevance = q.Relevance
		for _, f := range q.Filters {
			if f.Field() != field {
				filters = append(filters, f)
			}
		}
	}
	req.Filters = filters
	return req, nil
}

func primaryIndices(q *query.Query) []string {
	if len(q.Cascade) > 0 {
		return q.Cascade[0].Indices
	}
	return nil
}
