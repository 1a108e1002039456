package selection

import (
	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/source"
)

// NewHighlight builds the normalized highlight record emitted when the user
// creates a highlight from a selection. Rects must already be normalized to
// the page box (see Extract); the ID is left empty for the persistence
// collaborator to assign.
func NewHighlight(page int, rects []geo.Rect, text, color string) source.HighlightItem {
	return source.HighlightItem{
		Page:  page,
		Rects: append([]geo.Rect(nil), rects...),
		Text:  text,
		Color: color,
	}
}
