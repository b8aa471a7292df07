package search

import (
	"time"

	"github.com/kailas-cloud/unisearch/internal/domain/search/query"
)

// Relevance clause settings.
const (
	// queryAnalyzer is the standard query-time analysis chain.
	queryAnalyzer = "query_default"
	// shingledQueryAnalyzer is phrase-aware: it expands the query into
	// overlapping word shingles for the loose match.
	shingledQueryAnalyzer = "shingled_query_analyzer"
	// minimumShouldMatch requires all terms of short queries and half of
	// long ones: all of 2, all of 3, then 50% past 7 terms.
	minimumShouldMatch = "2<2 3<3 7<50%"
)

// searchableFields are matched independently by the relevance clause.
var searchableFields = []string{"title", "acronym", "description", "indexable_content"}

// Popularity boost settings. The offset keeps zero-popularity content from
// zeroing out relevance.
const (
	popularityField  = "popularity"
	popularityOffset = 0.001
)

// Announcement decay settings: reciprocal decay over the announcement's
// timestamp, evaluated at query time, floored so old announcements never
// fully vanish.
const (
	decayTimestampField = "public_timestamp"
	decayRate           = 3.16e-11 // per millisecond; roughly a year to half
	decayValue          = 0.05
	decayFloor          = 0.12
)

// formatBoosts multiply relevance per document format.
var formatBoosts = []struct {
	format string
	factor float64
}{
	{"smart-answer", 1.5},
	{"transaction", 1.5},
	{"topical_event", 1.5},
	{"minister", 1.7},
	{"organisation", 2.5},
	{"topic", 1.5},
	{"document_series", 1.3},
	{"document_collection", 1.3},
	{"operational_field", 1.5},
	{"contact", 0.3},
}

// boostTable builds the fixed boost rules plus the time decay anchored at now.
func boostTable(now time.Time) []query.Boost {
	boosts := make([]query.Boost, 0, len(formatBoosts)+4)
	for _, fb := range formatBoosts {
		boosts = append(boosts, query.Boost{
			Condition: query.Condition{Field: "format", Value: fb.format},
			Factor:    fb.factor,
		})
	}
	boosts = append(boosts,
		query.Boost{
			Condition: query.Condition{Field: "search_format_types", Value: "announcement"},
			Decay: &query.TimeDecay{
				TimestampField: decayTimestampField,
				Rate:           decayRate,
				Decay:          decayValue,
				Floor:          decayFloor,
				Now:            now,
			},
		},
		query.Boost{
			Condition: query.Condition{Field: "organisation_state", Value: "closed"},
			Factor:    0.3,
		},
		query.Boost{
			Condition: query.Condition{Field: "organisation_state", Value: "devolved"},
			Factor:    0.3,
		},
		query.Boost{
			Condition: query.Condition{Field: "is_historic", Value: true},
			Factor:    0.5,
		},
	)
	return boosts
}
