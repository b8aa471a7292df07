// Package search orchestrates the unified search: build query, execute the
// index cascade, apply editorial overrides, fetch facet examples, group and
// present.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/unisearch/internal/domain/bestbet"
	"github.com/kailas-cloud/unisearch/internal/domain/document"
	"github.com/kailas-cloud/unisearch/internal/domain/schema"
	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/unisearch/internal/domain/search/query"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	"github.com/kailas-cloud/unisearch/internal/domain/search/result"
	"github.com/kailas-cloud/unisearch/internal/engine"
)

// facetBucketSize is how many buckets each facet requests. Presentation
// needs the full distinct option count, so this is effectively "all".
const facetBucketSize = 100000

// Service is the unified searcher.
type Service struct {
	eng       Engine
	builder   *Builder
	bets      BestBetFinder
	suggester Suggester
	grouper   Grouper
	presenter Presenter
	schema    *schema.Schema
	logger    *zap.Logger
	now       func() time.Time
}

// New creates the unified searcher.
func New(
	eng Engine,
	builder *Builder,
	bets BestBetFinder,
	suggester Suggester,
	grouper Grouper,
	presenter Presenter,
	sch *schema.Schema,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		eng:       eng,
		builder:   builder,
		bets:      bets,
		suggester: suggester,
		grouper:   grouper,
		presenter: presenter,
		schema:    sch,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the clock, pinning the decay boost in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Search runs one unified search request end to end and returns the public
// payload.
func (s *Service) Search(ctx context.Context, req *request.Request) (map[string]any, error) {
	// The best-bet lookup and the primary search are independent network
	// calls; issue the lookup concurrently and collect it at merge time.
	type betResult struct {
		bet *bestbet.BestBet
		err error
	}
	betCh := make(chan betResult, 1)
	go func() {
		if req.DebugFlags().DisableBestBets || req.Query() == "" {
			betCh <- betResult{}
			return
		}
		bet, err := s.bets.Lookup(ctx, req.Query())
		betCh <- betResult{bet: bet, err: err}
	}()

	q := s.builder.Build(req, nil, s.now())

	rs, buckets, err := s.runCascade(ctx, q, req)
	if err != nil {
		return nil, err
	}

	br := <-betCh
	if br.err != nil {
		return nil, fmt.Errorf("best bet lookup: %w", br.err)
	}
	q.BestBet = br.bet

	if q.BestBet != nil {
		rs, err = s.applyBestBet(ctx, q, req, rs)
		if err != nil {
			return nil, err
		}
	}

	// Facet examples need the primary search's buckets, so this stage is
	// strictly later.
	examples, err := s.fetchFacetExamples(ctx, q, req, buckets)
	if err != nil {
		return nil, err
	}

	suggestions := s.suggest(ctx, req.Query())

	presented, err := s.presenter.PresentResults(ctx, rs)
	if err != nil {
		return nil, fmt.Errorf("present results: %w", err)
	}
	if s.grouper != nil {
		presented, err = s.grouper.Group(ctx, presented)
		if err != nil {
			return nil, fmt.Errorf("group results: %w", err)
		}
	}

	facets, err := s.presenter.PresentFacets(ctx, buckets, req, examples)
	if err != nil {
		return nil, fmt.Errorf("present facets: %w", err)
	}

	return map[string]any{
		"results":           presented,
		"total":             rs.Total(),
		"start":             req.Start(),
		"facets":            facets,
		"suggested_queries": suggestions,
	}, nil
}

// runCascade evaluates the ordered index steps in sequence, stopping at
// the first step that matched, and weights the winning step's scores.
func (s *Service) runCascade(
	ctx context.Context, q *query.Query, req *request.Request,
) (*result.ResultSet, map[string]engine.FacetBuckets, error) {
	facets := facetRequests(req)

	var last *engine.Response
	var lastStep query.Step
	for _, step := range q.Cascade {
		resp, err := s.eng.Search(ctx, &engine.Request{
			Indices:      step.Indices,
			From:         req.Start(),
			Size:         req.Count(),
			Relevance:    q.Relevance,
			Boosts:       q.Boosts,
			Popularity:   q.Popularity,
			Filters:      q.Filters,
			Sort:         req.Order(),
			ReturnFields: req.ReturnFields(),
			Facets:       facets,
			Explain:      req.DebugFlags().Explain,
		})
		if err != nil {
			return nil, nil, err
		}
		last, lastStep = resp, step
		if resp.Total > 0 && step.StopIfMatched {
			break
		}
	}
	if last == nil {
		return result.NewResultSet(0, nil), nil, nil
	}

	rs, err := s.toResultSet(last)
	if err != nil {
		return nil, nil, err
	}
	return rs.Weighted(lastStep.Weight), last.Facets, nil
}

func (s *Service) toResultSet(resp *engine.Response) (*result.ResultSet, error) {
	hits := make([]result.Hit, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		doc, err := s.toDocument(h)
		if err != nil {
			return nil, err
		}
		hits = append(hits, result.Hit{
			Document:    doc,
			Index:       h.Index,
			Explanation: h.Explanation,
		})
	}
	return result.NewResultSet(resp.Total, hits), nil
}

func (s *Service) toDocument(h engine.Hit) (*document.Document, error) {
	raw := make(map[string]any, len(h.Fields)+2)
	for name, value := range h.Fields {
		// The engine returns single-valued fields as one-element arrays.
		if list, ok := value.([]any); ok && len(list) == 1 {
			if _, multi := multiValuedFields[name]; !multi {
				value = list[0]
			}
		}
		raw[name] = value
	}
	raw["_type"] = h.Type
	raw["_id"] = h.ID

	doc, err := document.FromFields(s.schema, raw, h.Score)
	if err != nil {
		return nil, fmt.Errorf("read hit %s: %w", h.ID, err)
	}
	return doc, nil
}

// multiValuedFields stay arrays even when a hit holds a single value.
var multiValuedFields = map[string]struct{}{
	"organisations":        {},
	"topics":               {},
	"document_series":      {},
	"document_collections": {},
	"world_locations":      {},
	"specialist_sectors":   {},
}

// applyBestBet applies editorial overrides after cascade resolution:
// demoted links leave the result set entirely and promoted links are
// forced to their configured positions, ties broken by original relevance.
// Reapplying the same best bet is a no-op.
func (s *Service) applyBestBet(
	ctx context.Context, q *query.Query, req *request.Request, rs *result.ResultSet,
) (*result.ResultSet, error) {
	bet := q.BestBet
	total := rs.Total()

	hits := make([]result.Hit, 0, len(rs.Hits()))
	for _, h := range rs.Hits() {
		if bet.Demoted(h.Link()) {
			total--
			continue
		}
		hits = append(hits, h)
	}

	for _, promote := range bet.Promotes() {
		// Configured positions are absolute ranking positions. A position
		// landing before this page's window was already served on an
		// earlier page; re-inserting it here would duplicate the document
		// atop every page.
		pos := promote.Position - 1
		if pos < 0 {
			pos = 0
		}
		pos -= req.Start()
		if pos < 0 {
			continue
		}

		idx := -1
		for i, h := range hits {
			if h.Link() == promote.Link {
				idx = i
				break
			}
		}
		var hit result.Hit
		if idx >= 0 {
			hit = hits[idx]
			hits = append(hits[:idx], hits[idx+1:]...)
		} else {
			fetched, err := s.fetchByLink(ctx, q, req, promote.Link)
			if err != nil {
				return nil, err
			}
			if fetched == nil {
				continue
			}
			hit = *fetched
			// The fetched document grows the result set once; later
			// pages report the same total as the first.
			if req.Start() == 0 {
				total++
			}
		}

		if pos > len(hits) {
			pos = len(hits)
		}
		hits = append(hits[:pos], append([]result.Hit{hit}, hits[pos:]...)...)
	}

	if total < len(hits) {
		total = len(hits)
	}
	return result.NewResultSet(total, hits), nil
}

// fetchByLink retrieves a promoted document that the organic results did
// not include.
func (s *Service) fetchByLink(
	ctx context.Context, q *query.Query, req *request.Request, link string,
) (*result.Hit, error) {
	linkFilter, err := filter.NewText("link", []string{link}, false)
	if err != nil {
		return nil, err
	}

	var indices []string
	for _, step := range q.Cascade {
		indices = append(indices, step.Indices...)
	}

	resp, err := s.eng.Search(ctx, &engine.Request{
		Indices:      indices,
		Size:         1,
		Relevance:    query.Relevance{},
		Filters:      []filter.Filter{linkFilter},
		ReturnFields: req.ReturnFields(),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch promoted link %s: %w", link, err)
	}
	if len(resp.Hits) == 0 {
		s.logger.Warn("promoted link not indexed", zap.String("link", link))
		return nil, nil
	}

	doc, err := s.toDocument(resp.Hits[0])
	if err != nil {
		return nil, err
	}
	return &result.Hit{Document: doc, Index: resp.Hits[0].Index}, nil
}

func facetRequests(req *request.Request) map[string]engine.FacetRequest {
	if len(req.Facets()) == 0 {
		return nil
	}
	facets := make(map[string]engine.FacetRequest, len(req.Facets()))
	for field, fp := range req.Facets() {
		facets[field] = engine.FacetRequest{Size: facetBucketSize, Order: fp.Order}
	}
	return facets
}

// suggest is best effort: an empty suggestion list is an acceptable
// degradation, a failed search is not, so the error stops here.
func (s *Service) suggest(ctx context.Context, queryText string) []string {
	if s.suggester == nil || queryText == "" {
		return []string{}
	}
	suggestions, err := s.suggester.Suggestions(ctx, queryText)
	if err != nil {
		s.logger.Warn("suggester failed", zap.Error(err))
		return []string{}
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return suggestions
}
