// Package query holds the engine-agnostic search expression built from a
// request. The engine transport renders it into the backing engine's own
// query language.
package query

import (
	"time"

	"github.com/kailas-cloud/unisearch/internal/domain/bestbet"
	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
)

// Query is the full intermediate search expression: a relevance clause, a
// set of weighted boost rules, an optional popularity layer, the filter
// clause, an optional best-bet override, and the ordered index cascade.
type Query struct {
	Relevance  Relevance
	Boosts     []Boost
	Popularity *PopularityBoost
	Filters    []filter.Filter
	BestBet    *bestbet.BestBet
	Cascade    []Step
}

// Relevance describes the free-text clause. An empty Text degenerates to
// "match everything".
type Relevance struct {
	Text               string
	Fields             []string
	MinimumShouldMatch string
	Analyzer           string
	ShingledAnalyzer   string
}

// IsMatchAll reports whether no free text was given.
func (r Relevance) IsMatchAll() bool { return r.Text == "" }

// Condition is a predicate on a single field value.
type Condition struct {
	Field string
	Value any
}

// Boost is one weighted boost rule: a multiplicative factor or a time-decay
// function applied to documents matching the condition.
type Boost struct {
	Condition Condition
	Factor    float64
	Decay     *TimeDecay
}

// TimeDecay is a reciprocal decay curve evaluated at query time:
//
//	(decay / (rate * |now - timestamp|ms + decay)) + floor
//
// The additive floor keeps old content from vanishing entirely.
type TimeDecay struct {
	TimestampField string
	Rate           float64
	Decay          float64
	Floor          float64
	Now            time.Time
}

// PopularityBoost layers an additive popularity term over the whole
// expression so relevance and popularity combine monotonically.
type PopularityBoost struct {
	Field  string
	Offset float64
}

// Step is one stage of the index cascade: query these indices with this
// weight, and stop cascading if any of them matched.
type Step struct {
	Indices       []string
	Weight        float64
	StopIfMatched bool
}
