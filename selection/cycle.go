package selection

import (
	"sort"

	"github.com/wudi/pdfview/source"
)

// Picker steps through highlights stacked at one point. Repeated clicks on
// the same stack advance through it one highlight at a time; a click that
// produces a different stack starts over at its first entry.
type Picker struct {
	lastIDs []string // sorted
	index   int
}

// Pick hit-tests the given highlights at the normalized point (x, y) and
// returns the selected highlight plus its cycle index, or nil when nothing
// is hit.
func (p *Picker) Pick(items []source.HighlightItem, x, y float64) (*source.HighlightItem, int) {
	hits := HitTest(items, x, y)
	if len(hits) == 0 {
		p.lastIDs = nil
		p.index = 0
		return nil, 0
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	sort.Strings(ids)

	if sameIDs(ids, p.lastIDs) && len(hits) > 1 {
		p.index = (p.index + 1) % len(hits)
	} else {
		p.index = 0
	}
	p.lastIDs = ids
	return &hits[p.index], p.index
}

// Reset clears the cycle state, e.g. when the document or page changes.
func (p *Picker) Reset() {
	p.lastIDs = nil
	p.index = 0
}

// HitTest returns, in input order, the highlights with a rectangle
// containing the normalized point (x, y).
func HitTest(items []source.HighlightItem, x, y float64) []source.HighlightItem {
	var hits []source.HighlightItem
	for _, item := range items {
		for _, r := range item.Rects {
			if r.Contains(x, y) {
				hits = append(hits, item)
				break
			}
		}
	}
	return hits
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
