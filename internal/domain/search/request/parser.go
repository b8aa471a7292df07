package request

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/unisearch/internal/domain"
	"github.com/kailas-cloud/unisearch/internal/domain/schema"
	"github.com/kailas-cloud/unisearch/internal/domain/search/filter"
)

// ParserOptions configure which fields a request may filter, facet, sort and
// return. They come from process configuration and the index schema.
type ParserOptions struct {
	Schema              *schema.Schema
	FacetFields         []string
	SortFields          []string
	DefaultReturnFields []string
	MaxCount            int
}

const (
	filterPrefix = "filter_"
	rejectPrefix = "reject_"
	facetPrefix  = "facet_"
)

// Parse validates and normalizes raw query parameters, as produced by URL
// query-string decoding, into a Request. On failure it returns a
// *domain.ValidationError listing every offending parameter. Parsing is
// pure: it never contacts the backing engine.
func Parse(values map[string][]string, opts ParserOptions) (*Request, error) {
	p := &parser{values: values, opts: opts}
	return p.parse()
}

type parser struct {
	values map[string][]string
	opts   ParserOptions
	errs   []string
}

func (p *parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, fmt.Sprintf(format, args...))
}

func (p *parser) parse() (*Request, error) {
	maxCount := p.opts.MaxCount
	if maxCount <= 0 {
		maxCount = MaxCount
	}

	start := p.parseBoundedInt("start", 0, maxCount, 0)
	count := p.parseBoundedInt("count", 1, maxCount, DefaultCount)
	query := strings.TrimSpace(p.single("q"))
	order := p.parseOrder()
	returnFields := p.parseReturnFields()
	filters := p.parseFilters()
	facets := p.parseFacets()
	debug := p.parseDebug()
	p.rejectUnknown()

	if len(p.errs) > 0 {
		return nil, domain.NewValidationError(p.errs)
	}

	return New(start, count, query, filters, order, returnFields, facets, debug), nil
}

func (p *parser) single(key string) string {
	if vs := p.values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (p *parser) parseBoundedInt(key string, min, max, fallback int) int {
	raw := p.single(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		p.errorf("Invalid value %q for parameter %q (expected positive integer)", raw, key)
		return fallback
	}
	if n < min || n > max {
		p.errorf("Value %d for parameter %q outside of range %d..%d", n, key, min, max)
		return fallback
	}
	return n
}

func (p *parser) parseOrder() *Sort {
	raw := p.single("order")
	if raw == "" {
		return nil
	}
	descending := strings.HasPrefix(raw, "-")
	field := strings.TrimPrefix(raw, "-")
	if !contains(p.opts.SortFields, field) {
		p.errorf("%q is not a valid sort ordering", raw)
		return nil
	}
	return &Sort{Field: field, Descending: descending}
}

func (p *parser) parseReturnFields() []string {
	raw, ok := p.values["fields"]
	if !ok {
		return p.opts.DefaultReturnFields
	}
	var fields []string
	for _, v := range raw {
		for _, name := range strings.Split(v, ",") {
			if name == "" {
				continue
			}
			if !p.opts.Schema.HasField(name) {
				p.errorf("Some requested fields are not valid return fields: [%q]", name)
				continue
			}
			fields = append(fields, name)
		}
	}
	return fields
}

func (p *parser) parseFilters() []filter.Filter {
	var filters []filter.Filter
	for _, key := range p.sortedKeys() {
		var field string
		var reject bool
		switch {
		case strings.HasPrefix(key, filterPrefix):
			field = strings.TrimPrefix(key, filterPrefix)
		case strings.HasPrefix(key, rejectPrefix):
			field = strings.TrimPrefix(key, rejectPrefix)
			reject = true
		default:
			continue
		}

		def, ok := p.opts.Schema.Field(field)
		if !ok {
			p.errorf("%q is not a valid filter field", field)
			continue
		}

		f, err := p.buildFilter(field, def, p.values[key], reject)
		if err != nil {
			p.errorf("%s", err)
			continue
		}
		filters = append(filters, f)
	}
	return filters
}

func (p *parser) buildFilter(
	field string, def schema.FieldDefinition, values []string, reject bool,
) (filter.Filter, error) {
	switch def.FieldType() {
	case schema.Date:
		dates, err := parseDateRange(field, values)
		if err != nil {
			return filter.Filter{}, err
		}
		return filter.NewDate(field, dates, reject)
	case schema.Text, schema.Boolean, schema.Enum:
		return filter.NewText(field, values, reject)
	default:
		return filter.Filter{}, fmt.Errorf("%q is not a filterable field type for %q", def.FieldType(), field)
	}
}

// parseDateRange parses "before:<iso-date>" / "after:<iso-date>" sub-keys.
func parseDateRange(field string, values []string) (filter.DateRange, error) {
	var r filter.DateRange
	for _, v := range values {
		subKey, raw, found := strings.Cut(v, ":")
		if !found {
			return r, fmt.Errorf("Invalid value %q for date filter on %q", v, field)
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return r, fmt.Errorf("Invalid date %q for date filter on %q", raw, field)
		}
		switch subKey {
		case "before":
			r.Before = &t
		case "after":
			r.After = &t
		default:
			return r, fmt.Errorf("Invalid date subfield %q for date filter on %q", subKey, field)
		}
	}
	return r, nil
}

func (p *parser) parseFacets() map[string]FacetParams {
	facets := map[string]FacetParams{}
	for _, key := range p.sortedKeys() {
		if !strings.HasPrefix(key, facetPrefix) {
			continue
		}
		field := strings.TrimPrefix(key, facetPrefix)
		if !contains(p.opts.FacetFields, field) {
			p.errorf("%q is not a valid facet field", field)
			continue
		}
		fp, err := p.parseFacetParams(field, p.single(key))
		if err != nil {
			p.errorf("%s", err)
			continue
		}
		facets[field] = fp
	}
	if len(facets) == 0 {
		return nil
	}
	return facets
}

// parseFacetParams parses a facet value of the form
// "<count>[,examples:<n>][,example_fields:<f1>:<f2>][,example_scope:<scope>][,order:<order>]".
func (p *parser) parseFacetParams(field, raw string) (FacetParams, error) {
	fp := FacetParams{Order: OrderCount, Scope: ScopeQuery}

	parts := strings.Split(raw, ",")
	requested, err := strconv.Atoi(parts[0])
	if err != nil || requested <= 0 {
		return fp, fmt.Errorf("Invalid number of requested options %q for facet %q", parts[0], field)
	}
	fp.Requested = requested

	for _, part := range parts[1:] {
		key, value, found := strings.Cut(part, ":")
		if !found {
			return fp, fmt.Errorf("Invalid facet option %q for facet %q", part, field)
		}
		switch key {
		case "examples":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return fp, fmt.Errorf("Invalid number of examples %q for facet %q", value, field)
			}
			fp.Examples = n
		case "example_fields":
			for _, name := range strings.Split(value, ":") {
				if !p.opts.Schema.HasField(name) {
					return fp, fmt.Errorf("Invalid example field %q for facet %q", name, field)
				}
				fp.ExampleFields = append(fp.ExampleFields, name)
			}
		case "example_scope":
			switch FacetScope(value) {
			case ScopeQuery, ScopeExcludeFieldFilter:
				fp.Scope = FacetScope(value)
			default:
				return fp, fmt.Errorf("Invalid example scope %q for facet %q", value, field)
			}
		case "order":
			switch FacetOrder(value) {
			case OrderCount, OrderValue:
				fp.Order = FacetOrder(value)
			default:
				return fp, fmt.Errorf("Invalid order %q for facet %q", value, field)
			}
		default:
			return fp, fmt.Errorf("Invalid facet option %q for facet %q", key, field)
		}
	}
	return fp, nil
}

func (p *parser) parseDebug() Debug {
	var d Debug
	for _, v := range p.values["debug"] {
		for _, flag := range strings.Split(v, ",") {
			switch flag {
			case "":
			case "explain":
				d.Explain = true
			case "disable_popularity":
				d.DisablePopularity = true
			case "disable_best_bets":
				d.DisableBestBets = true
			}
			// Unknown debug flags are ignored so that new frontends can be
			// deployed ahead of the API.
		}
	}
	return d
}

func (p *parser) rejectUnknown() {
	known := map[string]bool{
		"q": true, "start": true, "count": true,
		"order": true, "fields": true, "debug": true,
	}
	var unknown []string
	for _, key := range p.sortedKeys() {
		if known[key] ||
			strings.HasPrefix(key, filterPrefix) ||
			strings.HasPrefix(key, rejectPrefix) ||
			strings.HasPrefix(key, facetPrefix) {
			continue
		}
		unknown = append(unknown, key)
	}
	if len(unknown) > 0 {
		p.errorf("Unexpected parameters: %s", strings.Join(unknown, ", "))
	}
}

func (p *parser) sortedKeys() []string {
	keys := make([]string, 0, len(p.values))
	for key := range p.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
