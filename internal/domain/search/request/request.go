package request

import (
	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
)

// Paging bounds.
const (
	DefaultCount = 10
	MaxCount     = 1000
)

// FacetScope controls which part of the query scopes facet example lookups.
type FacetScope string

// Recognized facet example scopes.
const (
	// ScopeQuery scopes examples to the whole query, including the facet
	// field's own applied filter.
	ScopeQuery FacetScope = "query"
	// ScopeExcludeFieldFilter scopes examples to the query with the facet
	// field's own filter left out, so example counts are not narrowed by
	// the value the user already picked.
	ScopeExcludeFieldFilter FacetScope = "exclude_field_filter"
)

// FacetOrder controls facet option ordering.
type FacetOrder string

// Recognized facet orderings.
const (
	// OrderCount orders options by descending document count.
	OrderCount FacetOrder = "count"
	// OrderValue orders options alphabetically by value.
	OrderValue FacetOrder = "value"
)

// FacetParams holds the per-field facet request.
type FacetParams struct {
	Requested     int
	Order         FacetOrder
	Examples      int
	ExampleFields []string
	Scope         FacetScope
}

// Sort is an explicit result ordering on one field.
type Sort struct {
	Field      string
	Descending bool
}

// Debug holds per-request debug flags.
type Debug struct {
	Explain           bool
	DisablePopularity bool
	DisableBestBets   bool
}

// Request is the normalized, validated search request.
type Request struct {
	start        int
	count        int
	query        string
	filters      []filter.Filter
	order        *Sort
	returnFields []string
	facets       map[string]FacetParams
	debug        Debug
}

// New assembles a Request from already-validated parts. Use Parse for raw
// query parameters.
func New(
	start, count int,
	query string,
	filters []filter.Filter,
	order *Sort,
	returnFields []string,
	facets map[string]FacetParams,
	debug Debug,
) *Request {
	return &Request{
		start:        start,
		count:        count,
		query:        query,
		filters:      filters,
		order:        order,
		returnFields: returnFields,
		facets:       facets,
		debug:        debug,
	}
}

// Start returns the zero-based result offset.
func (r *Request) Start() int { return r.start }

// Count returns the page size.
func (r *Request) Count() int { return r.count }

// Query returns the free-text query, empty when none was given.
func (r *Request) Query() string { return r.query }

// Filters returns the ordered field filters.
func (r *Request) Filters() []filter.Filter { return r.filters }

// FiltersOn returns the applied (non-reject) text filter values for a field.
func (r *Request) FiltersOn(field string) []string {
	var values []string
	for _, f := range r.filters {
		if f.Field() == field && f.FilterKind() == filter.Text && !f.Reject() {
			values = append(values, f.Values()...)
		}
	}
	return values
}

// Order returns the explicit sort, or nil for relevance order.
func (r *Request) Order() *Sort { return r.order }

// ReturnFields returns the fields to include on each result.
func (r *Request) ReturnFields() []string { return r.returnFields }

// Facets returns the facet request per field.
func (r *Request) Facets() map[string]FacetParams { return r.facets }

// DebugFlags returns the per-request debug flags.
func (r *Request) DebugFlags() Debug { return r.debug }
