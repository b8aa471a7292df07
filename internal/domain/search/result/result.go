package result

import "github.com/kailas-cloud/unisearch/internal/domain/document"

// Hit is a single ranked result with its origin index. The relevance score
// lives on the document itself.
type Hit struct {
	Document    *document.Document
	Index       string
	Explanation any
}

// Link returns the hit document's link, or empty when unset.
func (h Hit) Link() string {
	if link, ok := h.Document.Get("link").(string); ok {
		return link
	}
	return ""
}

// ResultSet is an ordered page of hits with the full match count.
type ResultSet struct {
	total int
	hits  []Hit
}

// NewResultSet creates a ResultSet.
func NewResultSet(total int, hits []Hit) *ResultSet {
	return &ResultSet{total: total, hits: hits}
}

// Total returns the full match count, which may exceed len(Hits).
func (rs *ResultSet) Total() int { return rs.total }

// Hits returns the ordered hits of this page.
func (rs *ResultSet) Hits() []Hit { return rs.hits }

// Weighted returns a copy with every hit's score multiplied by factor,
// used to blend cascade step weights.
func (rs *ResultSet) Weighted(factor float64) *ResultSet {
	if factor == 1.0 {
		return rs
	}
	hits := make([]Hit, len(rs.hits))
	for i, h := range rs.hits {
		hits[i] = Hit{
			Document:    h.Document.Weighted(factor),
			Index:       h.Index,
			Explanation: h.Explanation,
		}
	}
	return &ResultSet{total: rs.total, hits: hits}
}
