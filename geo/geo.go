package geo

import "sort"

// Size is a page size in document user-space units.
type Size struct {
	Width  float64
	Height float64
}

// Layout positions the pages of one document in a vertical strip. Pages are
// numbered 1..N. All returned coordinates are viewer-space pixels with the
// origin at the top-left, grown downward, with Padding pixels above page 1
// and Gap pixels between consecutive pages. Padding and Gap do not scale.
//
// A layout is immutable once built; a new document load replaces it wholesale.
type Layout struct {
	sizes   []Size
	cum     []float64 // cum[i] = sum of heights of pages 1..i, user-space units
	count   int
	uniform bool

	Padding float64
	Gap     float64
}

// NewUniformLayout builds a layout for a document whose pages all share one
// size. Lookups on it are O(1).
func NewUniformLayout(size Size, count int, padding, gap float64) *Layout {
	return &Layout{
		sizes:   []Size{size},
		count:   count,
		uniform: true,
		Padding: padding,
		Gap:     gap,
	}
}

// NewLayout builds a layout for a document with per-page sizes. The
// cumulative-height table makes PageTop O(1) and PageAtOffset O(log N).
func NewLayout(sizes []Size, padding, gap float64) *Layout {
	cum := make([]float64, len(sizes)+1)
	for i, s := range sizes {
		cum[i+1] = cum[i] + s.Height
	}
	return &Layout{
		sizes:   append([]Size(nil), sizes...),
		cum:     cum,
		count:   len(sizes),
		Padding: padding,
		Gap:     gap,
	}
}

// PageCount returns the number of pages in the layout.
func (l *Layout) PageCount() int { return l.count }

// Uniform reports whether all pages share a single size.
func (l *Layout) Uniform() bool { return l.uniform }

// PageSize returns the user-space size of a page. Out-of-range pages are
// clamped to [1, N].
func (l *Layout) PageSize(page int) Size {
	if l.count == 0 {
		return Size{}
	}
	page = clampPage(page, l.count)
	if l.uniform {
		return l.sizes[0]
	}
	return l.sizes[page-1]
}

// PageTop returns the pixel offset of the top edge of a page at the given
// scale. Out-of-range pages are clamped to [1, N].
func (l *Layout) PageTop(page int, scale float64) float64 {
	if l.count == 0 {
		return l.Padding
	}
	page = clampPage(page, l.count)
	if l.uniform {
		return l.Padding + float64(page-1)*(l.sizes[0].Height*scale+l.Gap)
	}
	return l.Padding + l.cum[page-1]*scale + float64(page-1)*l.Gap
}

// PageBottom returns the pixel offset of the bottom edge of a page at the
// given scale, excluding the trailing gap.
func (l *Layout) PageBottom(page int, scale float64) float64 {
	return l.PageTop(page, scale) + l.PageSize(page).Height*scale
}

// TotalHeight returns the pixel height of the whole strip at the given scale.
func (l *Layout) TotalHeight(scale float64) float64 {
	if l.count == 0 {
		return l.Padding
	}
	return l.PageBottom(l.count, scale) + l.Padding
}

// PageAtOffset returns the page whose vertical band contains the pixel offset
// y at the given scale. A page's band runs from its top edge up to, but not
// including, the next page's top edge, so gap pixels belong to the page above
// them. The result saturates to [1, N] for out-of-range input.
func (l *Layout) PageAtOffset(y, scale float64) int {
	if l.count == 0 {
		return 1
	}
	if y < l.Padding {
		return 1
	}
	if l.uniform {
		stride := l.sizes[0].Height*scale + l.Gap
		if stride <= 0 {
			return 1
		}
		page := int((y-l.Padding)/stride) + 1
		return clampPage(page, l.count)
	}
	// Largest page whose top edge is at or above y.
	n := sort.Search(l.count, func(i int) bool {
		return l.PageTop(i+1, scale) > y
	})
	return clampPage(n, l.count)
}

func clampPage(page, count int) int {
	if page < 1 {
		return 1
	}
	if page > count {
		return count
	}
	return page
}
