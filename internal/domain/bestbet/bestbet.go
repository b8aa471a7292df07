// Package bestbet models editorially curated overrides for a query:
// promoted links forced to a position and demoted links removed.
package bestbet

import "strings"

// Kind is how a best bet's trigger query is matched against user queries.
type Kind string

// Match kinds.
const (
	// Exact matches the literal query text byte for byte.
	Exact Kind = "exact"
	// Stemmed matches on normalized root tokens, word order preserved.
	Stemmed Kind = "stemmed"
)

// Promote forces a link to a 1-based position in the results.
type Promote struct {
	Link     string
	Position int
}

// BestBet is the resolved override for one trigger query.
type BestBet struct {
	query    string
	kind     Kind
	promotes []Promote
	demotes  []string
}

// New creates a BestBet.
func New(query string, kind Kind, promotes []Promote, demotes []string) *BestBet {
	return &BestBet{query: query, kind: kind, promotes: promotes, demotes: demotes}
}

// Query returns the trigger query.
func (b *BestBet) Query() string { return b.query }

// MatchKind returns how the trigger is matched.
func (b *BestBet) MatchKind() Kind { return b.kind }

// Promotes returns the ordered promote list.
func (b *BestBet) Promotes() []Promote { return b.promotes }

// Demotes returns the links to remove from the result set.
func (b *BestBet) Demotes() []string { return b.demotes }

// Demoted reports whether a link is on the demote list.
func (b *BestBet) Demoted(link string) bool {
	for _, l := range b.demotes {
		if l == link {
			return true
		}
	}
	return false
}

// Merge combines overrides when both an exact and a stemmed bet trigger.
// Promotes keep their first-seen position; demote lists are unioned.
func Merge(bets ...*BestBet) *BestBet {
	var merged *BestBet
	seen := map[string]bool{}
	for _, b := range bets {
		if b == nil {
			continue
		}
		if merged == nil {
			merged = &BestBet{query: b.query, kind: b.kind}
		}
		for _, p := range b.promotes {
			if !seen["p:"+p.Link] {
				seen["p:"+p.Link] = true
				merged.promotes = append(merged.promotes, p)
			}
		}
		for _, l := range b.demotes {
			if !seen["d:"+l] {
				seen["d:"+l] = true
				merged.demotes = append(merged.demotes, l)
			}
		}
	}
	return merged
}

// StemmedMatch reports whether a stemmed trigger term string matches an
// analyzed user query. Both are space-joined stemmed token strings. The
// trigger matches when its tokens appear contiguously and in order in the
// query, so "best bet" matches "best bet and such" but not "bet best".
func StemmedMatch(triggerTerms, analyzedQuery string) bool {
	if triggerTerms == "" || analyzedQuery == "" {
		return false
	}
	return strings.Contains(pad(analyzedQuery), pad(triggerTerms))
}

func pad(s string) string {
	return " " + strings.TrimSpace(s) + " "
}
