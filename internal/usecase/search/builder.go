package search

import (
	"time"

	"github.com/kailas-cloud/unisearch/internal/domain/bestbet"
	"github.com/kailas-cloud/unisearch/internal/domain/search/query"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
)

// fallbackWeight reduces fallback-corpus scores so primary content wins on
// ties, without ever returning nothing when only secondary content matches.
const fallbackWeight = 0.4

// Builder turns a validated request plus editorial overrides into the
// engine-agnostic query expression.
type Builder struct {
	primaryIndices []string
	fallbackIndex  string
}

// NewBuilder creates a query builder over the configured index layout.
func NewBuilder(primaryIndices []string, fallbackIndex string) *Builder {
	return &Builder{primaryIndices: primaryIndices, fallbackIndex: fallbackIndex}
}

// Build assembles the full query expression. The decay boost is anchored at
// now, so identical backing-engine responses reproduce identical output.
func (b *Builder) Build(req *request.Request, bet *bestbet.BestBet, now time.Time) *query.Query {
	q := &query.Query{
		Relevance: query.Relevance{
			Text:               req.Query(),
			Fields:             searchableFields,
			MinimumShouldMatch: minimumShouldMatch,
			Analyzer:           queryAnalyzer,
			ShingledAnalyzer:   shingledQueryAnalyzer,
		},
		Filters: req.Filters(),
		BestBet: bet,
		Cascade: b.cascade(),
	}

	// Boosts only shape relevance ordering; an explicit sort or a bare
	// match-all gets the plain expression.
	if !q.Relevance.IsMatchAll() && req.Order() == nil {
		q.Boosts = boostTable(now)
		if !req.DebugFlags().DisablePopularity {
			q.Popularity = &query.PopularityBoost{
				Field:  popularityField,
				Offset: popularityOffset,
			}
		}
	}
	return q
}

// cascade prefers primary content, then the fallback corpus at reduced
// weight, then the fallback corpus unreduced, stopping at the first step
// that matches.
func (b *Builder) cascade() []query.Step {
	steps := []query.Step{
		{Indices: b.primaryIndices, Weight: 1.0, StopIfMatched: true},
	}
	if b.fallbackIndex != "" {
		steps = append(steps,
			query.Step{Indices: []string{b.fallbackIndex}, Weight: fallbackWeight, StopIfMatched: true},
			query.Step{Indices: []string{b.fallbackIndex}, Weight: 1.0, StopIfMatched: true},
		)
	}
	return steps
}
