package source

import "github.com/wudi/pdfview/geo"

// HighlightItem is a persisted highlight, owned by the host's highlight
// store. Rects are normalized (0..1) relative to the page's rendered box in
// top-left-origin space. The viewer reads these to paint the highlight
// overlay and emits new ones on highlight creation; it never mutates them.
type HighlightItem struct {
	ID    string
	Page  int
	Rects []geo.Rect
	Text  string
	Color string
}

// HighlightSource feeds previously-saved highlights back to the viewer.
type HighlightSource interface {
	HighlightsForPage(page int) []HighlightItem
}

// ContentBlock is a logical text unit (e.g. a paragraph) supplied by the
// content-indexing collaborator. BBox is normalized to the page box in
// top-left-origin space. Blocks for one page arrive ordered by vertical
// position and are assumed non-overlapping.
type ContentBlock struct {
	ID   string
	Page int
	BBox geo.Rect
	Text string
}

// ContentIndex exposes per-page content blocks.
type ContentIndex interface {
	BlocksForPage(page int) []ContentBlock
}
