package elastic

import (
	"fmt"

	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/unisearch/internal/domain/search/query"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	"github.com/kailas-cloud/unisearch/internal/engine"
)

// renderBody builds the engine's JSON search body from a Request.
func renderBody(req *engine.Request) map[string]any {
	body := map[string]any{
		"from":  req.From,
		"size":  req.Size,
		"query": renderQuery(req),
	}
	if len(req.ReturnFields) > 0 {
		body["fields"] = req.ReturnFields
	}
	if f := renderFilters(req.Filters); f != nil {
		body["filter"] = f
	}
	if req.Sort != nil {
		body["sort"] = renderSort(req.Sort)
	}
	if len(req.Facets) > 0 {
		body["facets"] = renderFacets(req.Facets)
	}
	if req.Explain {
		body["explain"] = true
	}
	return body
}

// renderQuery wraps the relevance clause in boost and popularity layers:
//
//	function_score(popularity) -> function_score(boosts) -> relevance
func renderQuery(req *engine.Request) map[string]any {
	q := renderRelevance(req.Relevance)

	if len(req.Boosts) > 0 {
		functions := make([]map[string]any, len(req.Boosts))
		for i, b := range req.Boosts {
			functions[i] = renderBoost(b)
		}
		q = map[string]any{
			"function_score": map[string]any{
				"boost_mode": "multiply",
				"query":      q,
				"functions":  functions,
				"score_mode": "multiply",
			},
		}
	}

	if req.Popularity != nil {
		q = map[string]any{
			"function_score": map[string]any{
				"boost_mode": "multiply",
				"query":      q,
				"script_score": map[string]any{
					"script": fmt.Sprintf(
						"doc['%s'].value + %v",
						req.Popularity.Field, req.Popularity.Offset,
					),
				},
			},
		}
	}

	return q
}

// renderRelevance builds the free-text clause: an exact-phrase match per
// searchable field, an all-terms multi-field match, and a loose
// phrase-aware match, combined as a disjunction. Without free text the
// clause degenerates to match_all.
func renderRelevance(rel query.Relevance) map[string]any {
	if rel.IsMatchAll() {
		return map[string]any{"match_all": map[string]any{}}
	}

	should := make([]map[string]any, 0, len(rel.Fields)+2)
	for _, field := range rel.Fields {
		should = append(should, map[string]any{
			"match_phrase": map[string]any{
				field: map[string]any{
					"query":    rel.Text,
					"analyzer": rel.Analyzer,
				},
			},
		})
	}
	should = append(should,
		map[string]any{
			"multi_match": map[string]any{
				"query":    rel.Text,
				"operator": "and",
				"fields":   rel.Fields,
				"analyzer": rel.Analyzer,
			},
		},
		map[string]any{
			"multi_match": map[string]any{
				"query":    rel.Text,
				"operator": "or",
				"fields":   rel.Fields,
				"analyzer": rel.ShingledAnalyzer,
			},
		},
	)

	return map[string]any{
		"bool": map[string]any{
			"should": []map[string]any{{
				"bool": map[string]any{
					"must": []map[string]any{{
						"match": map[string]any{
							"_all": map[string]any{
								"query":                rel.Text,
								"analyzer":             rel.Analyzer,
								"minimum_should_match": rel.MinimumShouldMatch,
							},
						},
					}},
					"should": should,
				},
			}},
		},
	}
}

func renderBoost(b query.Boost) map[string]any {
	out := map[string]any{
		"filter": map[string]any{
			"term": map[string]any{b.Condition.Field: b.Condition.Value},
		},
	}
	if b.Decay != nil {
		out["script_score"] = renderDecay(b.Decay)
	} else {
		out["boost_factor"] = b.Factor
	}
	return out
}

// renderDecay renders the reciprocal time-decay curve, evaluated at query
// time against a millisecond "now" truncated to the minute so identical
// queries within a minute stay cacheable.
func renderDecay(d *query.TimeDecay) map[string]any {
	script := fmt.Sprintf(
		"((%v / ((%v) * abs(now - doc['%s'].date.getMillis()) + %v)) + %v)",
		d.Decay, d.Rate, d.TimestampField, d.Decay, d.Floor,
	)
	nowMillis := (d.Now.Unix() / 60) * 60000
	return map[string]any{
		"script": script,
		"params": map[string]any{"now": nowMillis},
	}
}

// renderFilters combines declared filters with logical AND, negating
// reject filters.
func renderFilters(filters []filter.Filter) map[string]any {
	if len(filters) == 0 {
		return nil
	}
	rendered := make([]map[string]any, len(filters))
	for i, f := range filters {
		rendered[i] = renderFilter(f)
	}
	if len(rendered) == 1 {
		return rendered[0]
	}
	return map[string]any{"and": rendered}
}

func renderFilter(f filter.Filter) map[string]any {
	var clause map[string]any
	switch f.FilterKind() {
	case filter.Date:
		bounds := map[string]any{}
		if after := f.Dates().After; after != nil {
			bounds["from"] = after.Format("2006-01-02")
		}
		if before := f.Dates().Before; before != nil {
			bounds["to"] = before.Format("2006-01-02")
		}
		clause = map[string]any{
			"range": map[string]any{f.Field(): bounds},
		}
	default:
		clause = map[string]any{
			"terms": map[string]any{f.Field(): f.Values()},
		}
	}
	if f.Reject() {
		return map[string]any{"not": clause}
	}
	return clause
}

func renderSort(s *request.Sort) []map[string]any {
	order := "asc"
	if s.Descending {
		order = "desc"
	}
	return []map[string]any{{
		s.Field: map[string]any{"order": order, "missing": "_last"},
	}}
}

func renderFacets(facets map[string]engine.FacetRequest) map[string]any {
	out := make(map[string]any, len(facets))
	for field, fr := range facets {
		order := "count"
		if fr.Order == request.OrderValue {
			order = "term"
		}
		out[field] = map[string]any{
			"terms": map[string]any{
				"field": field,
				"order": order,
				"size":  fr.Size,
			},
		}
	}
	return out
}
