// Package grouper clusters ranked results that share a sector value into
// synthetic group entries.
package grouper

import (
	"context"
	"fmt"
	"sort"
)

// Grouping thresholds.
const (
	// window is how many top-ranked results are considered for grouping.
	window = 50
	// maxGroups caps the groups per response.
	maxGroups = 3
	// minMembers and minScore are the bar a candidate group must clear.
	minMembers = 3
	minScore   = 0.25
	// maxExamples caps the member documents shown inside a group.
	maxExamples = 5
	// rankOffset dampens the reciprocal-rank weight: member at rank r
	// contributes 1/(r+rankOffset).
	rankOffset = 3
)

// FieldExpander resolves a clustering-field value to its display document.
type FieldExpander interface {
	ExpandValue(ctx context.Context, field, slug string) (any, error)
}

// Grouper reshapes presented results around one clustering field.
type Grouper struct {
	field    string
	expander FieldExpander
}

// New creates a Grouper clustering on the given multi-valued field.
func New(field string, expander FieldExpander) *Grouper {
	return &Grouper{field: field, expander: expander}
}

type candidate struct {
	slug  string
	count int
	score float64
	links []string
}

// Group replaces clusters of results sharing a sector value with one
// synthetic group entry at the position of the cluster's best-ranked
// member. Ungrouped results pass through in their original order.
func (g *Grouper) Group(ctx context.Context, presented []map[string]any) ([]map[string]any, error) {
	selected, err := g.selectGroups(ctx, presented)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return presented, nil
	}

	groupOf := map[string]int{} // member link -> group index
	groupLinks := map[string]bool{}
	for i, grp := range selected {
		for _, link := range grp.links {
			if _, claimed := groupOf[link]; !claimed {
				groupOf[link] = i
			}
		}
		if grp.link != "" {
			groupLinks[grp.link] = true
		}
	}

	emitted := make([]bool, len(selected))
	out := make([]map[string]any, 0, len(presented))
	for _, res := range presented {
		link, _ := res["link"].(string)

		// The sector's own page is redundant next to its group entry.
		if format, _ := res["format"].(string); format == "specialist_sector" && groupLinks[link] {
			continue
		}

		idx, grouped := groupOf[link]
		if !grouped {
			out = append(out, res)
			continue
		}
		if !emitted[idx] {
			emitted[idx] = true
			out = append(out, selected[idx].entry(g.field, presented))
		}
	}
	return out, nil
}

type group struct {
	candidate
	title string
	link  string
}

// selectGroups scores candidate clusters over the top-ranked window and
// keeps the best few that clear the membership and weight bars.
func (g *Grouper) selectGroups(ctx context.Context, presented []map[string]any) ([]group, error) {
	scope := presented
	if len(scope) > window {
		scope = scope[:window]
	}

	bySlug := map[string]*candidate{}
	var order []string
	for rank, res := range scope {
		link, _ := res["link"].(string)
		for _, slug := range clusterValues(res[g.field]) {
			c, ok := bySlug[slug]
			if !ok {
				c = &candidate{slug: slug}
				bySlug[slug] = c
				order = append(order, slug)
			}
			c.count++
			c.score += 1.0 / float64(rank+rankOffset)
			c.links = append(c.links, link)
		}
	}

	candidates := make([]candidate, 0, len(order))
	for _, slug := range order {
		candidates = append(candidates, *bySlug[slug])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxGroups {
		candidates = candidates[:maxGroups]
	}

	var selected []group
	for _, c := range candidates {
		if c.count < minMembers || c.score <= minScore {
			continue
		}
		expanded, err := g.expander.ExpandValue(ctx, g.field, c.slug)
		if err != nil {
			return nil, fmt.Errorf("expand group %q: %w", c.slug, err)
		}
		details, _ := expanded.(map[string]any)
		grp := group{candidate: c}
		grp.title, _ = details["title"].(string)
		grp.link, _ = details["link"].(string)
		if grp.title == "" {
			grp.title = c.slug
		}
		selected = append(selected, grp)
	}
	return selected, nil
}

// entry builds the synthetic group result.
func (grp *group) entry(field string, presented []map[string]any) map[string]any {
	byLink := map[string]map[string]any{}
	for _, res := range presented {
		if link, ok := res["link"].(string); ok {
			byLink[link] = res
		}
	}

	examples := make([]map[string]any, 0, maxExamples)
	for _, link := range grp.links {
		if len(examples) == maxExamples {
			break
		}
		if res, ok := byLink[link]; ok {
			examples = append(examples, res)
		}
	}

	entry := map[string]any{
		"title":      grp.title,
		"link":       grp.link,
		"format":     "group",
		"examples":   examples,
		"grouped_by": []string{field, grp.slug},
	}
	if grp.count > maxExamples {
		entry["suggested_filter"] = map[string]any{
			"name":  grp.title,
			"field": field,
			"value": []string{grp.slug},
		}
	}
	return entry
}

// clusterValues extracts the slug strings of a multi-valued field, which
// presentation may already have expanded into display documents.
func clusterValues(value any) []string {
	list, ok := value.([]any)
	if !ok {
		if strs, ok := value.([]string); ok {
			return strs
		}
		return nil
	}
	var slugs []string
	for _, v := range list {
		switch item := v.(type) {
		case string:
			slugs = append(slugs, item)
		case map[string]any:
			if slug, ok := item["slug"].(string); ok {
				slugs = append(slugs, slug)
			}
		}
	}
	return slugs
}
