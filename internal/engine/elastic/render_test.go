package elastic

import (
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/unisearch/internal/domain/search/query"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	"github.com/kailas-cloud/unisearch/internal/engine"
)

func TestRenderRelevance_MatchAll(t *testing.T) {
	q := renderRelevance(query.Relevance{})
	if _, ok := q["match_all"]; !ok {
		t.Errorf("expected match_all, got %v", q)
	}
}

func TestRenderRelevance_FreeText(t *testing.T) {
	rel := query.Relevance{
		Text:               "cheese making",
		Fields:             []string{"title", "description"},
		MinimumShouldMatch: "2<2 3<3 7<50%",
		Analyzer:           "query_default",
		ShingledAnalyzer:   "shingled_query_analyzer",
	}

	rendered := renderRelevance(rel)

	outer, ok := rendered["bool"].(map[string]any)
	if !ok {
		t.Fatalf("expected bool clause, got %v", rendered)
	}
	inner := outer["should"].([]map[string]any)[0]["bool"].(map[string]any)

	must := inner["must"].([]map[string]any)
	all := must[0]["match"].(map[string]any)["_all"].(map[string]any)
	if all["query"] != "cheese making" {
		t.Errorf("unexpected _all query: %v", all["query"])
	}
	if all["minimum_should_match"] != "2<2 3<3 7<50%" {
		t.Errorf("unexpected minimum_should_match: %v", all["minimum_should_match"])
	}

	// Per-field phrase matches plus the two multi_match clauses.
	should := inner["should"].([]map[string]any)
	if len(should) != 4 {
		t.Fatalf("expected 4 should clauses, got %d", len(should))
	}
	phrase := should[0]["match_phrase"].(map[string]any)
	if _, ok := phrase["title"]; !ok {
		t.Errorf("expected first phrase clause on title, got %v", phrase)
	}
	loose := should[3]["multi_match"].(map[string]any)
	if loose["operator"] != "or" || loose["analyzer"] != "shingled_query_analyzer" {
		t.Errorf("unexpected loose clause: %v", loose)
	}
}

func TestRenderQuery_BoostLayers(t *testing.T) {
	req := &engine.Request{
		Relevance: query.Relevance{
			Text:     "cheese",
			Fields:   []string{"title"},
			Analyzer: "query_default",
		},
		Boosts: []query.Boost{
			{Condition: query.Condition{Field: "format", Value: "organisation"}, Factor: 2.5},
		},
		Popularity: &query.PopularityBoost{Field: "popularity", Offset: 0.001},
	}

	q := renderQuery(req)

	// Outermost layer is the popularity script score.
	pop := q["function_score"].(map[string]any)
	script := pop["script_score"].(map[string]any)["script"].(string)
	if script != "doc['popularity'].value + 0.001" {
		t.Errorf("unexpected popularity script: %q", script)
	}

	// Next layer in holds the boost functions.
	boosted := pop["query"].(map[string]any)["function_score"].(map[string]any)
	if boosted["boost_mode"] != "multiply" || boosted["score_mode"] != "multiply" {
		t.Errorf("unexpected boost modes: %v", boosted)
	}
	functions := boosted["functions"].([]map[string]any)
	if len(functions) != 1 {
		t.Fatalf("expected 1 boost function, got %d", len(functions))
	}
	if functions[0]["boost_factor"] != 2.5 {
		t.Errorf("unexpected boost factor: %v", functions[0]["boost_factor"])
	}
	term := functions[0]["filter"].(map[string]any)["term"].(map[string]any)
	if term["format"] != "organisation" {
		t.Errorf("unexpected term filter: %v", term)
	}
}

func TestRenderDecay(t *testing.T) {
	now := time.Date(2014, 6, 1, 12, 0, 30, 0, time.UTC)
	d := &query.TimeDecay{
		TimestampField: "public_timestamp",
		Rate:           3.16e-11,
		Decay:          0.05,
		Floor:          0.12,
		Now:            now,
	}

	rendered := renderDecay(d)

	script := rendered["script"].(string)
	if !strings.Contains(script, "doc['public_timestamp'].date.getMillis()") {
		t.Errorf("unexpected decay script: %q", script)
	}
	if !strings.Contains(script, "3.16e-11") {
		t.Errorf("expected decay rate in script: %q", script)
	}

	// now is truncated to the minute and expressed in milliseconds.
	params := rendered["params"].(map[string]any)
	wantNow := (now.Unix() / 60) * 60000
	if params["now"] != wantNow {
		t.Errorf("expected now=%d, got %v", wantNow, params["now"])
	}
	if wantNow%60000 != 0 {
		t.Errorf("expected minute-truncated now, got %d", wantNow)
	}
}

func TestRenderFilters(t *testing.T) {
	orgs, err := filter.NewText("organisations", []string{"hm-revenue-customs"}, false)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}

	single := renderFilters([]filter.Filter{orgs})
	terms := single["terms"].(map[string]any)
	if got := terms["organisations"].([]string); len(got) != 1 || got[0] != "hm-revenue-customs" {
		t.Errorf("unexpected terms filter: %v", terms)
	}

	reject, err := filter.NewText("format", []string{"news_article"}, true)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}

	combined := renderFilters([]filter.Filter{orgs, reject})
	and := combined["and"].([]map[string]any)
	if len(and) != 2 {
		t.Fatalf("expected 2 AND clauses, got %d", len(and))
	}
	if _, ok := and[1]["not"]; !ok {
		t.Errorf("expected reject filter to be negated, got %v", and[1])
	}
}

func TestRenderFilters_DateRange(t *testing.T) {
	after := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC)
	f, err := filter.NewDate("public_timestamp", filter.DateRange{After: &after, Before: &before}, false)
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}

	rendered := renderFilters([]filter.Filter{f})
	bounds := rendered["range"].(map[string]any)["public_timestamp"].(map[string]any)
	if bounds["from"] != "2014-01-01" || bounds["to"] != "2014-06-01" {
		t.Errorf("unexpected range bounds: %v", bounds)
	}
}

func TestRenderSort(t *testing.T) {
	rendered := renderSort(&request.Sort{Field: "public_timestamp", Descending: true})
	clause := rendered[0]["public_timestamp"].(map[string]any)
	if clause["order"] != "desc" || clause["missing"] != "_last" {
		t.Errorf("unexpected sort clause: %v", clause)
	}
}

func TestRenderFacets(t *testing.T) {
	rendered := renderFacets(map[string]engine.FacetRequest{
		"format":        {Size: 100000, Order: request.OrderCount},
		"organisations": {Size: 100000, Order: request.OrderValue},
	})

	format := rendered["format"].(map[string]any)["terms"].(map[string]any)
	if format["order"] != "count" || format["size"] != 100000 || format["field"] != "format" {
		t.Errorf("unexpected format facet: %v", format)
	}
	orgs := rendered["organisations"].(map[string]any)["terms"].(map[string]any)
	if orgs["order"] != "term" {
		t.Errorf("expected value ordering rendered as term, got %v", orgs["order"])
	}
}

func TestRenderBody(t *testing.T) {
	req := &engine.Request{
		From:         10,
		Size:         20,
		Relevance:    query.Relevance{},
		ReturnFields: []string{"title", "link"},
		Explain:      true,
	}

	body := renderBody(req)

	if body["from"] != 10 || body["size"] != 20 {
		t.Errorf("unexpected paging: from=%v size=%v", body["from"], body["size"])
	}
	if body["explain"] != true {
		t.Error("expected explain flag")
	}
	if _, ok := body["filter"]; ok {
		t.Error("expected no filter clause without filters")
	}
	if got := body["fields"].([]string); len(got) != 2 {
		t.Errorf("unexpected fields: %v", got)
	}
}
