package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/source"
	"github.com/wudi/pdfview/textshape"
)

// HighlightAlpha is the opacity highlights are painted with.
const HighlightAlpha = 0x59

// Options controls one render task.
type Options struct {
	// PreserveContent marks a refresh of a page that is already showing
	// content: the old surfaces stay mounted until the new ones are ready,
	// so the swap never shows a blank frame.
	PreserveContent bool
}

// Renderer runs the per-page pipeline: raster at device-pixel-ratio-correct
// resolution, then the text, link, and highlight overlays aligned to the
// bitmap. A task whose scale is superseded mid-render discards its work.
type Renderer struct {
	doc        source.Document
	st         *State
	highlights source.HighlightSource
	measurer   *textshape.Measurer
	log        observability.Logger
	tracer     observability.Tracer
}

// RendererConfig wires a renderer. Highlights and Measurer are optional.
type RendererConfig struct {
	Highlights source.HighlightSource
	Measurer   *textshape.Measurer
	Logger     observability.Logger
	Tracer     observability.Tracer
}

// NewRenderer builds a renderer over a loaded document and shared state.
func NewRenderer(doc source.Document, st *State, cfg RendererConfig) *Renderer {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NopTracer()
	}
	return &Renderer{
		doc:        doc,
		st:         st,
		highlights: cfg.Highlights,
		measurer:   cfg.Measurer,
		log:        cfg.Logger,
		tracer:     cfg.Tracer,
	}
}

// RenderPage produces a fully populated, detached PageBox for the page at
// the scale in effect when the call starts. It returns an error wrapping
// source.ErrRenderCancelled on cancellation, source.ErrRenderStale when a
// newer scale arrived mid-render, and source.ErrRenderFailure otherwise.
// The caller (scheduler) owns mounting the result.
func (r *Renderer) RenderPage(ctx context.Context, page int, opts Options) (*PageBox, error) {
	ctx, span := r.tracer.StartSpan(ctx, "viewer.render")
	defer span.Finish()
	span.SetTag("page", page)
	start := time.Now()

	// Snapshot the scale: the whole task is pinned to it, and the commit at
	// the end re-checks it.
	scale := r.st.Scale()
	dpr := r.st.DPR()

	pg, err := r.doc.Page(page)
	if err != nil {
		return nil, r.fail(span, page, fmt.Errorf("%w: page %d: %v", source.ErrRenderFailure, page, err))
	}

	img, err := pg.Render(ctx, scale*dpr)
	if err != nil {
		if isCancel(ctx, err) {
			return nil, fmt.Errorf("%w: page %d", source.ErrRenderCancelled, page)
		}
		return nil, r.fail(span, page, fmt.Errorf("%w: raster page %d: %v", source.ErrRenderFailure, page, err))
	}

	box := &PageBox{
		Page:          page,
		Raster:        toRGBA(img),
		CSSSize:       pg.Size(scale),
		RenderedScale: scale,
		Interim:       1,
	}

	if err := r.renderTextOverlay(pg, box, scale); err != nil {
		if isCancel(ctx, err) {
			return nil, fmt.Errorf("%w: page %d", source.ErrRenderCancelled, page)
		}
		return nil, r.fail(span, page, err)
	}
	if err := r.renderLinkOverlay(pg, box, scale); err != nil {
		return nil, r.fail(span, page, err)
	}
	r.renderHighlightOverlay(box)

	// Commit gate: a cancelled task is silent, and a task whose scale was
	// superseded must not overwrite surfaces sized for the newer scale.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: page %d", source.ErrRenderCancelled, page)
	}
	if r.st.Scale() != scale {
		return nil, fmt.Errorf("%w: page %d", source.ErrRenderStale, page)
	}

	r.log.Debug("page rendered",
		observability.Int("page", page),
		observability.Float64("scale", scale),
		observability.Float64("ms", float64(time.Since(start).Milliseconds())),
	)
	return box, nil
}

// renderTextOverlay lays the source text fragments over the bitmap. Fragment
// boxes arrive in bottom-origin user space and are flipped and scaled here.
func (r *Renderer) renderTextOverlay(pg source.Page, box *PageBox, scale float64) error {
	frags, err := pg.TextFragments()
	if err != nil {
		return fmt.Errorf("%w: text overlay page %d: %v", source.ErrRenderFailure, box.Page, err)
	}
	if len(frags) == 0 {
		return nil
	}
	pageHeight := pg.Size(1).Height
	box.Text = make([]TextSpan, 0, len(frags))
	for _, frag := range frags {
		viewRect := scaleRect(geo.FlipRect(frag.Box.Canon(), pageHeight), scale)
		box.Text = append(box.Text, TextSpan{
			Text:   frag.Text,
			Box:    viewRect,
			ScaleX: r.spanScaleX(frag),
		})
	}
	return nil
}

// spanScaleX measures the fragment with the overlay face and returns the
// horizontal correction keeping hit-testing aligned with the bitmap.
func (r *Renderer) spanScaleX(frag source.TextFragment) float64 {
	if r.measurer == nil || frag.Text == "" {
		return 1
	}
	_, fontSize := frag.Transform.ScaleFactors()
	if fontSize <= 0 {
		fontSize = frag.Box.Height()
	}
	if fontSize <= 0 {
		return 1
	}
	measured, err := r.measurer.Width(frag.Text, fontSize)
	if err != nil || measured <= 0 {
		return 1
	}
	return textshape.Correction(frag.Box.Width(), measured)
}

// renderLinkOverlay attaches link regions. Internal destinations are carried
// unresolved; resolving them needs extra page lookups and must not block
// first paint.
func (r *Renderer) renderLinkOverlay(pg source.Page, box *PageBox, scale float64) error {
	anns, err := pg.Annotations()
	if err != nil {
		return fmt.Errorf("%w: link overlay page %d: %v", source.ErrRenderFailure, box.Page, err)
	}
	if len(anns) == 0 {
		return nil
	}
	pageHeight := pg.Size(1).Height
	box.Links = make([]LinkRegion, 0, len(anns))
	for _, ann := range anns {
		if ann.URI == "" && ann.Dest == nil {
			continue
		}
		box.Links = append(box.Links, LinkRegion{
			Box:  scaleRect(geo.FlipRect(ann.Rect.Canon(), pageHeight), scale),
			URI:  ann.URI,
			Dest: ann.Dest,
		})
	}
	return nil
}

// renderHighlightOverlay paints the page's saved highlights into a
// transparent surface matching the bitmap's CSS box.
func (r *Renderer) renderHighlightOverlay(box *PageBox) {
	if r.highlights == nil {
		return
	}
	items := r.highlights.HighlightsForPage(box.Page)
	if len(items) == 0 {
		return
	}
	w, h := box.CSSSize.Width, box.CSSSize.Height
	surface := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for _, item := range items {
		c := parseHighlightColor(item.Color)
		for _, nr := range item.Rects {
			px := geo.Rect{X0: nr.X0 * w, Y0: nr.Y0 * h, X1: nr.X1 * w, Y1: nr.Y1 * h}
			box.Highlights = append(box.Highlights, HighlightRect{ID: item.ID, Box: px, Color: c})
			draw.Draw(surface,
				image.Rect(int(px.X0), int(px.Y0), int(px.X1), int(px.Y1)),
				&image.Uniform{C: c}, image.Point{}, draw.Over)
		}
	}
	box.HighlightSurface = surface
}

func (r *Renderer) fail(span observability.Span, page int, err error) error {
	span.SetError(err)
	r.log.Error("render failed", observability.Int("page", page), observability.Error("err", err))
	return err
}

func isCancel(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		source.IsCancelled(err)
}

func scaleRect(r geo.Rect, scale float64) geo.Rect {
	return geo.Rect{X0: r.X0 * scale, Y0: r.Y0 * scale, X1: r.X1 * scale, Y1: r.Y1 * scale}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func parseHighlightColor(s string) color.NRGBA {
	// Default marker yellow.
	c := color.NRGBA{R: 0xff, G: 0xeb, B: 0x3b, A: HighlightAlpha}
	if len(s) == 7 && s[0] == '#' {
		var r, g, b uint8
		if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err == nil {
			c.R, c.G, c.B = r, g, b
		}
	}
	return c
}
