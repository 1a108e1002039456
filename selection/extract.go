package selection

import "github.com/wudi/pdfview/geo"

// DedupIoU is the overlap ratio at or above which a later selection
// rectangle is considered a duplicate of an earlier one. Text-selection APIs
// double-report fragments at line wraps; dropping high-overlap rects removes
// them.
const DedupIoU = 0.3

// Normalize maps selection rectangles from viewer pixels into the 0..1 space
// of the page box they fall in. Zero-area rectangles are discarded.
func Normalize(rects []geo.Rect, pageBox geo.Rect) []geo.Rect {
	w, h := pageBox.Width(), pageBox.Height()
	if w <= 0 || h <= 0 {
		return nil
	}
	out := make([]geo.Rect, 0, len(rects))
	for _, r := range rects {
		if r.Area() == 0 {
			continue
		}
		out = append(out, geo.Rect{
			X0: (r.X0 - pageBox.X0) / w,
			Y0: (r.Y0 - pageBox.Y0) / h,
			X1: (r.X1 - pageBox.X0) / w,
			Y1: (r.Y1 - pageBox.Y0) / h,
		})
	}
	return out
}

// Dedup drops every rectangle whose IoU with any previously kept rectangle,
// in iteration order, reaches DedupIoU.
func Dedup(rects []geo.Rect) []geo.Rect {
	kept := make([]geo.Rect, 0, len(rects))
	for _, r := range rects {
		dup := false
		for _, k := range kept {
			if geo.IoU(r, k) >= DedupIoU {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, r)
		}
	}
	return kept
}

// Extract normalizes and deduplicates the client rectangles of an active
// text selection against the enclosing page's text-overlay box.
func Extract(clientRects []geo.Rect, pageBox geo.Rect) []geo.Rect {
	return Dedup(Normalize(clientRects, pageBox))
}
