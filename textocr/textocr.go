// Package textocr synthesizes selectable text fragments for pages whose
// source reports no text layer (scanned documents). The page bitmap is
// rendered, handed to an OCR engine, and the recognized word boxes are
// mapped back into bottom-left-origin user space so the rest of the viewer
// treats them like source-reported fragments. The engine contract is small
// and provider-agnostic; local binaries or remote services plug in equally.
package textocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"sync"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/source"
)

// Region is a rectangle in pixel coordinates, origin at the upper-left of
// the recognized image.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Word is one recognized token with its pixel bounds.
type Word struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// Input is one encoded image submitted for recognition.
type Input struct {
	// Image is a PNG payload.
	Image []byte
	// DPI carries the effective dots-per-inch; zero means unknown.
	DPI int
	// Languages holds trained-data hints (e.g. "eng").
	Languages []string
}

// Result is the recognition output for one input.
type Result struct {
	PlainText string
	Words     []Word
}

// Engine is the provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// DefaultScale is the render scale used for recognition bitmaps. Recognition
// quality degrades below roughly 150 DPI, so pages are rastered at twice
// their intrinsic size.
const DefaultScale = 2.0

// Config tunes a fragment provider.
type Config struct {
	// Scale is the render scale for recognition; zero selects DefaultScale.
	Scale float64
	// MinConfidence drops words below this confidence (0..1).
	MinConfidence float64
	Languages     []string
	Logger        observability.Logger
}

// FragmentProvider turns recognized word boxes into source text fragments.
type FragmentProvider struct {
	eng Engine
	cfg Config
}

// NewFragmentProvider wires an engine. A nil engine disables the fallback:
// Wrap returns pages unchanged and Fragments fails.
func NewFragmentProvider(eng Engine, cfg Config) *FragmentProvider {
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	return &FragmentProvider{eng: eng, cfg: cfg}
}

// Fragments renders the page, runs recognition, and converts the word boxes
// to bottom-left-origin user space.
func (p *FragmentProvider) Fragments(ctx context.Context, pg source.Page) ([]source.TextFragment, error) {
	if p.eng == nil {
		return nil, fmt.Errorf("textocr: no engine configured")
	}
	scale := p.cfg.Scale
	img, err := pg.Render(ctx, scale)
	if err != nil {
		return nil, fmt.Errorf("textocr: render: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("textocr: encode: %w", err)
	}

	res, err := p.eng.Recognize(ctx, Input{
		Image:     buf.Bytes(),
		DPI:       int(72 * scale),
		Languages: p.cfg.Languages,
	})
	if err != nil {
		return nil, fmt.Errorf("textocr: %s: %w", p.eng.Name(), err)
	}

	pageH := pg.Size(1).Height
	frags := make([]source.TextFragment, 0, len(res.Words))
	for _, w := range res.Words {
		if w.Text == "" || w.Bounds.IsEmpty() || w.Confidence < p.cfg.MinConfidence {
			continue
		}
		frags = append(frags, p.toFragment(w, pageH, scale))
	}
	p.cfg.Logger.Debug("ocr text layer",
		observability.String("engine", p.eng.Name()),
		observability.Int("words", len(frags)),
	)
	return frags, nil
}

// toFragment flips the pixel box (top-origin, scaled) into user space.
func (p *FragmentProvider) toFragment(w Word, pageH, scale float64) source.TextFragment {
	x0 := w.Bounds.X / scale
	x1 := (w.Bounds.X + w.Bounds.Width) / scale
	y1 := geo.FlipY(w.Bounds.Y/scale, pageH)
	y0 := geo.FlipY((w.Bounds.Y+w.Bounds.Height)/scale, pageH)
	h := y1 - y0
	return source.TextFragment{
		Text:      w.Text,
		Box:       geo.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1},
		Transform: coords.Matrix{h, 0, 0, h, x0, y0},
	}
}

// Wrap returns a page whose empty text layer is filled by recognition on
// first access. Pages that already report fragments pass through untouched,
// as do all pages when no engine is configured.
func (p *FragmentProvider) Wrap(pg source.Page) source.Page {
	if p.eng == nil {
		return pg
	}
	return &ocrPage{Page: pg, provider: p}
}

// WrapDocument applies Wrap to every page of a document.
func (p *FragmentProvider) WrapDocument(doc source.Document) source.Document {
	if p.eng == nil {
		return doc
	}
	return &ocrDocument{Document: doc, provider: p}
}

type ocrDocument struct {
	source.Document
	provider *FragmentProvider
}

func (d *ocrDocument) Page(n int) (source.Page, error) {
	pg, err := d.Document.Page(n)
	if err != nil {
		return nil, err
	}
	return d.provider.Wrap(pg), nil
}

type ocrPage struct {
	source.Page
	provider *FragmentProvider

	once  sync.Once
	frags []source.TextFragment
	err   error
}

func (o *ocrPage) TextFragments() ([]source.TextFragment, error) {
	frags, err := o.Page.TextFragments()
	if err != nil || len(frags) > 0 {
		return frags, err
	}
	o.once.Do(func() {
		o.frags, o.err = o.provider.Fragments(context.Background(), o.Page)
	})
	return o.frags, o.err
}
