// Package engine defines the contract with the backing document-search
// engine. Implementations live in subpackages.
package engine

import (
	"context"

	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/unisearch/internal/domain/search/query"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
)

// Request is one search round trip: a rendered query expression against a
// set of indices with pagination, field selection, sorting and facets.
type Request struct {
	Indices      []string
	From         int
	Size         int
	Relevance    query.Relevance
	Boosts       []query.Boost
	Popularity   *query.PopularityBoost
	Filters      []filter.Filter
	Sort         *request.Sort
	ReturnFields []string
	Facets       map[string]FacetRequest
	Explain      bool
}

// FacetRequest asks for term buckets on one field.
type FacetRequest struct {
	// Size is the number of buckets to return. Facet presentation needs
	// the full distinct option count, so callers request far more buckets
	// than they display.
	Size  int
	Order request.FacetOrder
}

// Hit is one raw document hit.
type Hit struct {
	Index       string
	Type        string
	ID          string
	Score       *float64
	Fields      map[string]any
	Explanation any
}

// TermBucket is one facet bucket value with its document count.
type TermBucket struct {
	Term  string
	Count int
}

// FacetBuckets is the raw facet response for one field.
type FacetBuckets struct {
	Missing int
	Terms   []TermBucket
}

// Response is the engine's answer to one Request.
type Response struct {
	Total  int
	Hits   []Hit
	Facets map[string]FacetBuckets
}

// BestBetDoc is a raw best-bet document from the auxiliary index. Exactly
// one of ExactQuery and StemmedQuery is set.
type BestBetDoc struct {
	ExactQuery         string
	StemmedQuery       string
	StemmedQueryAsTerm string
	// Details is a JSON payload holding the promote and demote lists.
	Details string
}

// Searcher is the read-side contract with the backing engine. All calls
// honor the caller's context deadline; failures surface as typed domain
// errors (upstream, query-rejected, index-not-found).
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
	// MultiSearch batches several sub-queries into one round trip and
	// returns one response per request, in order.
	MultiSearch(ctx context.Context, reqs []*Request) ([]*Response, error)
	// LookupBestBets returns best-bet documents of the auxiliary index
	// whose exact or stemmed trigger query matches the query text.
	LookupBestBets(ctx context.Context, index, queryText string) ([]BestBetDoc, error)
	// Analyze runs text through a named analyzer of an index and returns
	// its tokens.
	Analyze(ctx context.Context, index, analyzer, text string) ([]string, error)
	// Suggest returns spelling suggestions for the query text.
	Suggest(ctx context.Context, indices []string, text string) ([]string, error)
	Ping(ctx context.Context) error
}
