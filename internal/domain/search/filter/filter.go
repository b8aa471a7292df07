package filter

import (
	"fmt"
	"time"
)

// Kind distinguishes text and date filters.
type Kind string

// Filter kinds.
const (
	Text Kind = "text"
	Date Kind = "date"
)

// Filter is one field filter from the request: a set of accepted values or
// a date range, optionally rejected ("exclude these values") instead of
// required. Filters combine with logical AND.
type Filter struct {
	field  string
	kind   Kind
	values []string
	dates  DateRange
	reject bool
}

// DateRange bounds a date field. Either side may be open.
type DateRange struct {
	After  *time.Time
	Before *time.Time
}

// IsEmpty reports whether both bounds are open.
func (r DateRange) IsEmpty() bool { return r.After == nil && r.Before == nil }

// NewText creates a text filter requiring (or rejecting) a set of values.
func NewText(field string, values []string, reject bool) (Filter, error) {
	if field == "" {
		return Filter{}, fmt.Errorf("filter field is required")
	}
	if len(values) == 0 {
		return Filter{}, fmt.Errorf("filter on %q needs at least one value", field)
	}
	return Filter{field: field, kind: Text, values: values, reject: reject}, nil
}

// NewDate creates a date range filter.
func NewDate(field string, dates DateRange, reject bool) (Filter, error) {
	if field == "" {
		return Filter{}, fmt.Errorf("filter field is required")
	}
	if dates.IsEmpty() {
		return Filter{}, fmt.Errorf("date filter on %q needs a bound", field)
	}
	return Filter{field: field, kind: Date, dates: dates, reject: reject}, nil
}

// Field returns the filtered field name.
func (f Filter) Field() string { return f.field }

// FilterKind returns whether this is a text or date filter.
func (f Filter) FilterKind() Kind { return f.kind }

// Values returns the accepted (or rejected) values of a text filter.
func (f Filter) Values() []string { return f.values }

// Dates returns the range of a date filter.
func (f Filter) Dates() DateRange { return f.dates }

// Reject reports whether the filter excludes its values instead of
// requiring them.
func (f Filter) Reject() bool { return f.reject }
