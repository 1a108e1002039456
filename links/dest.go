// Package links resolves document-internal link destinations and decides how
// a click on them is dispatched. Resolution is deferred until interaction:
// it needs extra page lookups and must never block first paint.
package links

import (
	"fmt"

	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/source"
)

// FitType is the fit mode of a resolved destination.
type FitType string

const (
	FitXYZ  FitType = "XYZ"  // exact point with optional zoom
	FitPage FitType = "Fit"  // whole page, no coordinates
	FitH    FitType = "FitH" // fit width, explicit top
	FitV    FitType = "FitV" // fit height, explicit left
	FitR    FitType = "FitR" // fit rectangle
	FitBH   FitType = "FitBH"
	FitBV   FitType = "FitBV"
)

// DestinationCoords is the resolved target of an internal link. X and Y are
// nil when the fit mode carries no such coordinate. Y is already converted
// to top-left-origin space. Zoom is 0 when the destination leaves the scale
// unchanged.
type DestinationCoords struct {
	Page int
	X    *float64
	Y    *float64
	Zoom float64
	Type FitType
}

// resolveEntries turns a raw destination array into coordinates. The page
// height is fetched to flip any y from bottom-origin to top-origin here,
// exactly once, at this boundary.
func resolveEntries(doc source.Document, entries []source.DestEntry) (DestinationCoords, error) {
	if len(entries) == 0 {
		return DestinationCoords{}, fmt.Errorf("%w: empty destination", source.ErrDestination)
	}

	page, err := destPage(doc, entries[0])
	if err != nil {
		return DestinationCoords{}, err
	}
	pg, err := doc.Page(page)
	if err != nil {
		return DestinationCoords{}, fmt.Errorf("%w: page %d: %v", source.ErrDestination, page, err)
	}
	height := pg.Size(1).Height

	out := DestinationCoords{Page: page, Type: FitPage}
	if len(entries) < 2 || entries[1].Kind != source.EntryName {
		return out, nil
	}

	num := func(i int) (float64, bool) {
		if i < len(entries) && entries[i].Kind == source.EntryNumber {
			return entries[i].Num, true
		}
		return 0, false
	}

	switch FitType(entries[1].Name) {
	case FitXYZ:
		out.Type = FitXYZ
		if x, ok := num(2); ok {
			out.X = &x
		}
		if y, ok := num(3); ok {
			top := geo.FlipY(y, height)
			out.Y = &top
		}
		if z, ok := num(4); ok {
			out.Zoom = z
		}
	case FitH, FitBH:
		out.Type = FitType(entries[1].Name)
		if y, ok := num(2); ok {
			top := geo.FlipY(y, height)
			out.Y = &top
		}
	case FitV, FitBV:
		out.Type = FitType(entries[1].Name)
		if x, ok := num(2); ok {
			out.X = &x
		}
	case FitR:
		left, okL := num(2)
		top, okT := num(5)
		if okL && okT {
			out.Type = FitR
			out.X = &left
			flipped := geo.FlipY(top, height)
			out.Y = &flipped
		}
		// A malformed rectangle degrades to a bare page fit.
	default:
		// Unknown fit names degrade to a bare page fit: scroll-to-page is
		// the only safe action.
	}
	return out, nil
}

func destPage(doc source.Document, entry source.DestEntry) (int, error) {
	switch entry.Kind {
	case source.EntryPageRef:
		page, err := doc.PageIndexForRef(entry.Page)
		if err != nil {
			return 0, fmt.Errorf("%w: unknown page ref %d/%d", source.ErrDestination, entry.Page.Num, entry.Page.Gen)
		}
		return page, nil
	case source.EntryNumber:
		// Raw arrays may carry a zero-based page index instead of a ref.
		page := int(entry.Num) + 1
		if page < 1 || page > doc.PageCount() {
			return 0, fmt.Errorf("%w: page index %d out of range", source.ErrDestination, int(entry.Num))
		}
		return page, nil
	default:
		return 0, fmt.Errorf("%w: destination does not start with a page", source.ErrDestination)
	}
}
