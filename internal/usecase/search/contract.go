package search

import (
	"context"

	"github.com/kailas-cloud/unisearch/internal/domain/bestbet"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	"github.com/kailas-cloud/unisearch/internal/domain/search/result"
	"github.com/kailas-cloud/unisearch/internal/engine"
)

// Engine is the slice of the engine contract the searcher needs.
type Engine interface {
	Search(ctx context.Context, req *engine.Request) (*engine.Response, error)
	MultiSearch(ctx context.Context, reqs []*engine.Request) ([]*engine.Response, error)
}

// BestBetFinder resolves editorial overrides for a query string.
type BestBetFinder interface {
	Lookup(ctx context.Context, queryText string) (*bestbet.BestBet, error)
}

// Suggester proposes alternative spellings for a query.
type Suggester interface {
	Suggestions(ctx context.Context, queryText string) ([]string, error)
}

// Presenter assembles the public payload from ranked hits and raw facets.
type Presenter interface {
	PresentResults(ctx context.Context, rs *result.ResultSet) ([]map[string]any, error)
	PresentFacets(
		ctx context.Context,
		buckets map[string]engine.FacetBuckets,
		req *request.Request,
		examples map[string]map[string]FacetExamples,
	) (map[string]any, error)
}

// Grouper reshapes presented results into synthetic group entries.
type Grouper interface {
	Group(ctx context.Context, presented []map[string]any) ([]map[string]any, error)
}
