package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/unisearch/internal/domain/bestbet"
	"github.com/kailas-cloud/unisearch/internal/domain/schema"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	"github.com/kailas-cloud/unisearch/internal/domain/search/result"
	"github.com/kailas-cloud/unisearch/internal/engine"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()

	mk := func(name string) schema.FieldDefinition {
		f, err := schema.NewField(name, schema.Text, nil)
		if err != nil {
			t.Fatalf("new field %s: %v", name, err)
		}
		return f
	}

	dt, err := schema.NewDocumentType("edition", []schema.FieldDefinition{
		mk("title"),
		mk("link"),
		mk("format"),
		mk("organisations"),
		mk("specialist_sectors"),
		mk("popularity"),
	})
	if err != nil {
		t.Fatalf("new document type: %v", err)
	}

	sch, err := schema.New([]schema.DocumentType{dt})
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	return sch
}

// fakeEngine serves scripted responses and records the requests it saw.
type fakeEngine struct {
	responses []*engine.Response
	searches  []*engine.Request

	multiResponses []*engine.Response
	multiRequests  [][]*engine.Request

	err error
}

func (f *fakeEngine) Search(_ context.Context, req *engine.Request) (*engine.Response, error) {
	f.searches = append(f.searches, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &engine.Response{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeEngine) MultiSearch(_ context.Context, reqs []*engine.Request) ([]*engine.Response, error) {
	f.multiRequests = append(f.multiRequests, reqs)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*engine.Response, len(reqs))
	for i := range reqs {
		if i < len(f.multiResponses) {
			out[i] = f.multiResponses[i]
		} else {
			out[i] = &engine.Response{}
		}
	}
	return out, nil
}

func hitResponse(total int, hits ...engine.Hit) *engine.Response {
	return &engine.Response{Total: total, Hits: hits}
}

func editionHit(link string, score float64) engine.Hit {
	s := score
	return engine.Hit{
		Index: "mainstream",
		Type:  "edition",
		ID:    link,
		Score: &s,
		Fields: map[string]any{
			"title": []any{"Title of " + link},
			"link":  []any{link},
		},
	}
}

type fakeBets struct {
	bet    *bestbet.BestBet
	err    error
	called bool
}

func (f *fakeBets) Lookup(_ context.Context, _ string) (*bestbet.BestBet, error) {
	f.called = true
	return f.bet, f.err
}

type fakeSuggester struct {
	suggestions []string
	err         error
}

func (f *fakeSuggester) Suggestions(_ context.Context, _ string) ([]string, error) {
	return f.suggestions, f.err
}

// passPresenter renders hits to their API export and facets to the raw
// bucket counts, leaving registry expansion to the presenter's own tests.
type passPresenter struct{}

func (passPresenter) PresentResults(_ context.Context, rs *result.ResultSet) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rs.Hits()))
	for _, h := range rs.Hits() {
		out = append(out, h.Document.APIExport())
	}
	return out, nil
}

func (passPresenter) PresentFacets(
	_ context.Context,
	buckets map[string]engine.FacetBuckets,
	req *request.Request,
	_ map[string]map[string]FacetExamples,
) (map[string]any, error) {
	out := map[string]any{}
	for field := range req.Facets() {
		out[field] = len(buckets[field].Terms)
	}
	return out, nil
}

func newTestService(t *testing.T, eng *fakeEngine, bets BestBetFinder, suggester Suggester) *Service {
	t.Helper()
	builder := NewBuilder([]string{"mainstream", "detailed"}, "government")
	return New(eng, builder, bets, suggester, nil, passPresenter{}, testSchema(t), nil)
}
