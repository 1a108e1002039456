// Package loader opens a document source and prepares the page-size model
// the rest of the viewer depends on. Every page's intrinsic size is read up
// front (content is not); documents whose pages all match page 1 within an
// epsilon get the O(1) uniform layout, the rest get the cumulative table.
package loader

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/source"
)

// SizeEpsilon is the tolerance, in user-space units, within which two page
// sizes are considered equal for uniform-layout classification.
const SizeEpsilon = 1.0

// Config controls document loading. Zero values select the defaults.
type Config struct {
	// Padding is the pixel space above the first and below the last page.
	Padding float64
	// Gap is the pixel space between consecutive pages.
	Gap    float64
	Logger observability.Logger
	Tracer observability.Tracer
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	if c.Tracer == nil {
		c.Tracer = observability.NopTracer()
	}
}

// Handle is a loaded document plus its immutable layout. A new document load
// produces a new handle; handles are never mutated.
type Handle struct {
	Doc    source.Document
	Layout *geo.Layout

	title  string
	labels map[int]string
}

// MetadataProvider is an optional interface a document source can implement
// to surface a title and per-page labels.
type MetadataProvider interface {
	Title() string
	PageLabels() map[int]string
}

// Title returns the document title, empty when the source has none.
func (h *Handle) Title() string { return h.title }

// PageLabel returns the display label for a page, falling back to its
// number.
func (h *Handle) PageLabel(page int) string {
	if label, ok := h.labels[page]; ok {
		return label
	}
	return fmt.Sprintf("%d", page)
}

// Load opens a document and builds its page-size model. It fails with an
// error wrapping source.ErrLoad when the source cannot be opened or reports
// zero pages.
func Load(ctx context.Context, opener source.Opener, ref string, cfg Config) (*Handle, error) {
	cfg.defaults()
	ctx, span := cfg.Tracer.StartSpan(ctx, "viewer.load")
	defer span.Finish()
	start := time.Now()

	doc, err := opener.Open(ctx, ref)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("%w: open %q: %v", source.ErrLoad, ref, err)
	}
	count := doc.PageCount()
	if count == 0 {
		span.SetError(source.ErrLoad)
		return nil, fmt.Errorf("%w: %q has no pages", source.ErrLoad, ref)
	}

	sizes := make([]geo.Size, count)
	uniform := true
	for i := 0; i < count; i++ {
		pg, err := doc.Page(i + 1)
		if err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("%w: page %d: %v", source.ErrLoad, i+1, err)
		}
		sizes[i] = pg.Size(1)
		if uniform && i > 0 && !sameSize(sizes[i], sizes[0]) {
			uniform = false
		}
	}

	var layout *geo.Layout
	if uniform {
		layout = geo.NewUniformLayout(sizes[0], count, cfg.Padding, cfg.Gap)
	} else {
		layout = geo.NewLayout(sizes, cfg.Padding, cfg.Gap)
	}

	h := &Handle{Doc: doc, Layout: layout}
	if meta, ok := doc.(MetadataProvider); ok {
		h.title = meta.Title()
		h.labels = meta.PageLabels()
	}

	cfg.Logger.Info("document loaded",
		observability.String("ref", ref),
		observability.Int("pages", count),
		observability.String("layout", layoutKind(uniform)),
		observability.Float64("ms", float64(time.Since(start).Milliseconds())),
	)
	return h, nil
}

func sameSize(a, b geo.Size) bool {
	return math.Abs(a.Width-b.Width) <= SizeEpsilon && math.Abs(a.Height-b.Height) <= SizeEpsilon
}

func layoutKind(uniform bool) string {
	if uniform {
		return "uniform"
	}
	return "variable"
}
