package presenter

import (
	"context"

	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	"github.com/kailas-cloud/unisearch/internal/engine"
	searchuc "github.com/kailas-cloud/unisearch/internal/usecase/search"
)

// PresentFacets assembles the public facet shape. Values the requester
// already filtered on are always displayed, looked up for their real
// bucket count (0 when absent), with remaining slots filled from the top
// unfiltered options without duplication.
func (p *Presenter) PresentFacets(
	ctx context.Context,
	buckets map[string]engine.FacetBuckets,
	req *request.Request,
	examples map[string]map[string]searchuc.FacetExamples,
) (map[string]any, error) {
	if len(buckets) == 0 {
		return map[string]any{}, nil
	}

	out := make(map[string]any, len(buckets))
	for field, fieldBuckets := range buckets {
		fp, requested := req.Facets()[field]
		if !requested {
			continue
		}

		options, err := p.facetOptions(ctx, field, fieldBuckets, fp, req.FiltersOn(field), examples[field])
		if err != nil {
			return nil, err
		}

		missingOptions := len(fieldBuckets.Terms) - fp.Requested
		if missingOptions < 0 {
			missingOptions = 0
		}
		out[field] = map[string]any{
			"options":                 options,
			"documents_with_no_value": fieldBuckets.Missing,
			"total_options":           len(fieldBuckets.Terms),
			"missing_options":         missingOptions,
			"scope":                   string(fp.Scope),
		}
	}
	return out, nil
}

func (p *Presenter) facetOptions(
	ctx context.Context,
	field string,
	fieldBuckets engine.FacetBuckets,
	fp request.FacetParams,
	applied []string,
	fieldExamples map[string]searchuc.FacetExamples,
) ([]map[string]any, error) {
	counts := make(map[string]int, len(fieldBuckets.Terms))
	for _, bucket := range fieldBuckets.Terms {
		counts[bucket.Term] = bucket.Count
	}

	// Applied filter values first, regardless of bucket rank.
	terms := make([]string, 0, fp.Requested)
	seen := make(map[string]bool, fp.Requested)
	for _, term := range applied {
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	for _, bucket := range fieldBuckets.Terms {
		if len(terms) >= fp.Requested && len(terms) >= len(applied) {
			break
		}
		if !seen[bucket.Term] {
			seen[bucket.Term] = true
			terms = append(terms, bucket.Term)
		}
	}

	options := make([]map[string]any, 0, len(terms))
	for _, term := range terms {
		value, err := p.ExpandValue(ctx, field, term)
		if err != nil {
			return nil, err
		}
		option := map[string]any{
			"value":     value,
			"documents": counts[term],
		}
		if ex, ok := fieldExamples[term]; ok {
			option["examples"] = map[string]any{
				"total":    ex.Total,
				"examples": ex.Examples,
			}
		}
		options = append(options, option)
	}
	return options, nil
}
