// Package zoom keeps a content point fixed on screen across scale changes.
// Before a zoom step the host captures an anchor (the page and fractional
// position under the pointer or viewport center); after the target page has
// surfaces at the new scale the anchor is restored by adjusting scroll so
// the same content lands back under the same screen pixel.
package zoom

import (
	"sync"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/render"
)

// Anchor is a content point pinned to a screen pixel. RatioX/RatioY are the
// fractional position inside the page's rendered box (0..1). ScreenX/ScreenY
// is the viewport pixel the point must return to; Pinned distinguishes a
// pointer-driven anchor from the viewport-center default.
type Anchor struct {
	Page    int
	RatioX  float64
	RatioY  float64
	ScreenX float64
	ScreenY float64
	Pinned  bool
}

// Config wires an Anchorer. MountedFn reports whether a page has surfaces at
// the current scale; nil means restore immediately without the check.
type Config struct {
	MountedFn func(page int) bool
	Logger    observability.Logger
}

// Anchorer captures and restores anchors against the shared render state.
// When the target page is not mounted yet, the restore is parked and retried
// from PageRendered, which the host wires to the scheduler's page-rendered
// callback.
type Anchorer struct {
	layout  *geo.Layout
	st      *render.State
	mounted func(int) bool
	log     observability.Logger

	mu      sync.Mutex
	pending *Anchor
}

// New builds an anchorer over a layout and shared state.
func New(layout *geo.Layout, st *render.State, cfg Config) *Anchorer {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	return &Anchorer{
		layout:  layout,
		st:      st,
		mounted: cfg.MountedFn,
		log:     cfg.Logger,
	}
}

// Capture resolves the anchor for the current scroll position and scale.
// pointer is the viewport-space pointer position for pointer-driven zoom;
// nil anchors the viewport center.
func (z *Anchorer) Capture(pointer *coords.Point) Anchor {
	vw, vh := z.st.Viewport()
	a := Anchor{ScreenX: vw / 2, ScreenY: vh / 2}
	if pointer != nil {
		a.ScreenX, a.ScreenY = pointer.X, pointer.Y
		a.Pinned = true
	}

	scale := z.st.Scale()
	absY := z.st.ScrollY() + a.ScreenY
	a.Page = z.layout.PageAtOffset(absY, scale)

	size := z.layout.PageSize(a.Page)
	if h := size.Height * scale; h > 0 {
		a.RatioY = clamp01((absY - z.layout.PageTop(a.Page, scale)) / h)
	}
	if w := size.Width * scale; w > 0 {
		a.RatioX = clamp01(a.ScreenX / w)
	}
	return a
}

// Restore scrolls so the anchored content point lands back under its screen
// pixel, using the scale in effect now. When the target page has no surfaces
// yet it parks the anchor and reports false; PageRendered completes it.
func (z *Anchorer) Restore(a Anchor) bool {
	if z.mounted != nil && !z.mounted(a.Page) {
		z.mu.Lock()
		z.pending = &a
		z.mu.Unlock()
		z.log.Debug("anchor parked", observability.Int("page", a.Page))
		return false
	}
	z.apply(a)
	return true
}

// PageRendered completes a parked restore once its page has surfaces. Hosts
// wire this to the scheduler's page-rendered callback.
func (z *Anchorer) PageRendered(page int) {
	z.mu.Lock()
	a := z.pending
	if a == nil || a.Page != page {
		z.mu.Unlock()
		return
	}
	z.pending = nil
	z.mu.Unlock()
	z.apply(*a)
}

// Pending reports whether a restore is parked waiting for its page.
func (z *Anchorer) Pending() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.pending != nil
}

// Cancel drops any parked restore, for document change or teardown.
func (z *Anchorer) Cancel() {
	z.mu.Lock()
	z.pending = nil
	z.mu.Unlock()
}

func (z *Anchorer) apply(a Anchor) {
	scale := z.st.Scale()
	pageH := z.layout.PageSize(a.Page).Height * scale
	absY := z.layout.PageTop(a.Page, scale) + a.RatioY*pageH
	z.st.SetScrollY(absY - a.ScreenY)
	z.log.Debug("anchor restored",
		observability.Int("page", a.Page),
		observability.Float64("scrollY", z.st.ScrollY()),
	)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
