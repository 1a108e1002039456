package render

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/source"
)

type fixedHighlights map[int][]source.HighlightItem

func (h fixedHighlights) HighlightsForPage(page int) []source.HighlightItem { return h[page] }

func TestRenderPageSurfaces(t *testing.T) {
	doc := newTestDoc(1, geo.Size{Width: 612, Height: 792})
	doc.pages[0].frags = []source.TextFragment{
		// Bottom-origin box 72..700; on a 792pt page the top edge lands at 92.
		{Text: "hello", Box: geo.Rect{X0: 72, Y0: 690, X1: 172, Y1: 700}},
	}
	doc.pages[0].anns = []source.Annotation{
		{Rect: geo.Rect{X0: 100, Y0: 100, X1: 200, Y1: 120}, URI: "https://example.com"},
		{Rect: geo.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}}, // neither URI nor dest: dropped
	}

	st := NewState(2) // dpr 2
	st.SetScale(1.5)
	r := NewRenderer(doc, st, RendererConfig{})

	box, err := r.RenderPage(context.Background(), 1, Options{})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if box.Page != 1 || box.RenderedScale != 1.5 || box.Interim != 1 {
		t.Fatalf("box header = %d/%v/%v", box.Page, box.RenderedScale, box.Interim)
	}

	// Raster is scale*dpr, CSS box is scale only.
	if w := box.Raster.Bounds().Dx(); w != int(612*1.5*2) {
		t.Fatalf("raster width = %d, want %d", w, int(612*1.5*2))
	}
	if box.CSSSize.Width != 612*1.5 {
		t.Fatalf("css width = %v", box.CSSSize.Width)
	}

	if len(box.Text) != 1 {
		t.Fatalf("text spans = %d", len(box.Text))
	}
	span := box.Text[0]
	if span.ScaleX != 1 {
		t.Fatalf("scaleX without measurer = %v", span.ScaleX)
	}
	if span.Box.Y0 != (792-700)*1.5 || span.Box.X0 != 72*1.5 {
		t.Fatalf("span box = %+v", span.Box)
	}

	if len(box.Links) != 1 {
		t.Fatalf("links = %d, want the empty annotation dropped", len(box.Links))
	}
	if box.Links[0].Box.Y0 != (792-120)*1.5 {
		t.Fatalf("link box = %+v", box.Links[0].Box)
	}
}

func TestRenderPageHighlightOverlay(t *testing.T) {
	doc := newTestDoc(1, geo.Size{Width: 100, Height: 200})
	hs := fixedHighlights{1: {
		{ID: "h1", Page: 1, Color: "#ff0000",
			Rects: []geo.Rect{{X0: 0.1, Y0: 0.1, X1: 0.5, Y1: 0.2}}},
		{ID: "h2", Page: 1, // malformed color falls back to marker yellow
			Rects: []geo.Rect{{X0: 0, Y0: 0.5, X1: 1, Y1: 0.6}}},
	}}
	st := NewState(1)
	r := NewRenderer(doc, st, RendererConfig{Highlights: hs})

	box, err := r.RenderPage(context.Background(), 1, Options{})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if box.HighlightSurface == nil {
		t.Fatalf("no highlight surface")
	}
	if got := box.HighlightSurface.Bounds().Dy(); got != 200 {
		t.Fatalf("surface height = %d", got)
	}
	if len(box.Highlights) != 2 {
		t.Fatalf("highlight rects = %d", len(box.Highlights))
	}
	h1 := box.Highlights[0]
	if h1.ID != "h1" || h1.Box.X0 != 10 || h1.Box.Y0 != 20 || h1.Box.X1 != 50 {
		t.Fatalf("h1 = %+v", h1)
	}
	if h1.Color.R != 0xff || h1.Color.G != 0 || h1.Color.A != HighlightAlpha {
		t.Fatalf("h1 color = %+v", h1.Color)
	}
	if c := box.Highlights[1].Color; c.R != 0xff || c.G != 0xeb || c.B != 0x3b {
		t.Fatalf("fallback color = %+v", c)
	}
}

func TestRenderPageCancelled(t *testing.T) {
	doc := newTestDoc(1, geo.Size{Width: 100, Height: 100})
	st := NewState(1)
	r := NewRenderer(doc, st, RendererConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.RenderPage(ctx, 1, Options{})
	if !errors.Is(err, source.ErrRenderCancelled) {
		t.Fatalf("err = %v, want ErrRenderCancelled", err)
	}
	if !source.IsCancelled(err) {
		t.Fatalf("IsCancelled(%v) = false", err)
	}
}

func TestRenderPageStale(t *testing.T) {
	doc := newTestDoc(1, geo.Size{Width: 100, Height: 100})
	st := NewState(1)
	// The raster hook bumps the shared scale mid-task, so the commit gate
	// must reject the finished surfaces.
	doc.pages[0].afterRaster = func() { st.SetScale(2) }
	r := NewRenderer(doc, st, RendererConfig{})

	_, err := r.RenderPage(context.Background(), 1, Options{})
	if !errors.Is(err, source.ErrRenderStale) {
		t.Fatalf("err = %v, want ErrRenderStale", err)
	}
	if !source.IsCancelled(err) {
		t.Fatalf("stale task should classify as cancelled work")
	}
}

func TestRenderPageFailure(t *testing.T) {
	doc := newTestDoc(1, geo.Size{Width: 100, Height: 100})
	doc.pages[0].renderErr = fmt.Errorf("codec exploded")
	st := NewState(1)
	r := NewRenderer(doc, st, RendererConfig{})

	_, err := r.RenderPage(context.Background(), 1, Options{})
	if !errors.Is(err, source.ErrRenderFailure) {
		t.Fatalf("err = %v, want ErrRenderFailure", err)
	}
	if source.IsCancelled(err) {
		t.Fatalf("failure classified as cancellation")
	}
}

func TestRenderPageOutOfRange(t *testing.T) {
	doc := newTestDoc(1, geo.Size{Width: 100, Height: 100})
	st := NewState(1)
	r := NewRenderer(doc, st, RendererConfig{})
	if _, err := r.RenderPage(context.Background(), 7, Options{}); !errors.Is(err, source.ErrRenderFailure) {
		t.Fatalf("err = %v, want ErrRenderFailure", err)
	}
}
