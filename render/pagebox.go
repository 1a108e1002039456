package render

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/source"
)

// TextSpan is one selectable text run laid over the bitmap. Box is in CSS
// pixels relative to the page box, top-left origin. ScaleX is the horizontal
// correction applied when the measured glyph width drifted from the
// source-reported width; 1 means none.
type TextSpan struct {
	Text   string
	Box    geo.Rect
	ScaleX float64
}

// LinkRegion is one clickable link area in CSS pixels relative to the page
// box. Internal destinations stay unresolved until clicked.
type LinkRegion struct {
	Box  geo.Rect
	URI  string
	Dest *source.Destination
}

// HighlightRect is one painted highlight rectangle in CSS pixels relative to
// the page box.
type HighlightRect struct {
	ID    string
	Box   geo.Rect
	Color color.NRGBA
}

// PageBox is the set of layered surfaces owned by one mounted page: the
// raster bitmap, the transparent text overlay, the link overlay, and the
// highlight overlay. Exactly one PageBox exists per mounted page; it is
// recycled when the page scrolls out of the buffer. A PageBox is written
// only by the single render task that produced it and is read-only
// afterwards.
type PageBox struct {
	Page int

	// Raster holds backing pixels at RenderedScale * device pixel ratio;
	// CSSSize is the box it is displayed in.
	Raster  *image.RGBA
	CSSSize geo.Size

	Text       []TextSpan
	Links      []LinkRegion
	Highlights []HighlightRect

	// HighlightSurface is the highlight rectangles composited into a
	// transparent layer matching CSSSize.
	HighlightSurface *image.RGBA

	RenderedScale float64

	// Interim is the stretch factor applied uniformly to the bitmap and all
	// overlays between a zoom step and the next full re-raster; 1 when the
	// raster matches the current scale.
	Interim float64

	// NeedsRefresh marks the box for re-raster once zoom interaction has
	// settled.
	NeedsRefresh bool
}

// SetInterim records the stretch factor for a new target scale.
func (b *PageBox) SetInterim(targetScale float64) {
	if b.RenderedScale > 0 {
		b.Interim = targetScale / b.RenderedScale
	}
	b.NeedsRefresh = b.Interim != 1
}

// InterimImage returns the raster stretched by the current interim factor,
// the pixel equivalent of the CSS transform hosts apply during a zoom
// gesture. With no stretch pending it returns the raster itself.
func (b *PageBox) InterimImage() *image.RGBA {
	if b.Raster == nil || b.Interim == 0 || b.Interim == 1 {
		return b.Raster
	}
	src := b.Raster.Bounds()
	w := int(math.Round(float64(src.Dx()) * b.Interim))
	h := int(math.Round(float64(src.Dy()) * b.Interim))
	if w < 1 || h < 1 {
		return b.Raster
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), b.Raster, src, xdraw.Src, nil)
	return dst
}

// LinkAt returns the topmost link region containing the CSS-pixel point
// (x, y) relative to the page box, or nil.
func (b *PageBox) LinkAt(x, y float64) *LinkRegion {
	for i := len(b.Links) - 1; i >= 0; i-- {
		if b.Links[i].Box.Contains(x, y) {
			return &b.Links[i]
		}
	}
	return nil
}
