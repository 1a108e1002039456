// Package canvassource is a synthetic vector document source backed by
// tdewolff/canvas. It generates pages of real drawn text with matching text
// fragments, link annotations, and named destinations, so the viewer can be
// demoed and exercised end to end without a parsed document behind it.
// Units are millimeters, matching the canvas coordinate space, with the
// origin at the bottom-left as the source contract requires.
package canvassource

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/source"
)

// Layout constants, in mm. Font sizes are in points for the canvas face.
const (
	marginMM    = 20.0
	leadingMM   = 8.0
	bodyFontPt  = 11.0
	titleFontPt = 16.0

	// 1mm = 2.83465pt; canvas faces take point sizes while geometry is mm.
	ptPerMM = 2.83465
)

// Config shapes the generated document. Zero values select an 8-page A4
// document.
type Config struct {
	Pages  int
	Size   geo.Size // page box in mm; default 210x297
	Title  string
	Lines  int // body lines per page; default 10
	Labels map[int]string
}

// Opener builds synthetic documents. The open ref becomes the title when
// Config.Title is empty.
type Opener struct {
	Config Config
}

// Open implements source.Opener. It never fails except on cancellation;
// the canvas content itself is built lazily per page.
func (o Opener) Open(ctx context.Context, ref string) (source.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := o.Config
	if cfg.Pages <= 0 {
		cfg.Pages = 8
	}
	if cfg.Size.Width <= 0 || cfg.Size.Height <= 0 {
		cfg.Size = geo.Size{Width: 210, Height: 297}
	}
	if cfg.Lines <= 0 {
		cfg.Lines = 10
	}
	if cfg.Title == "" {
		cfg.Title = ref
	}
	return New(cfg)
}

// Document is a generated document. Safe for concurrent page access.
type Document struct {
	cfg    Config
	family *canvas.FontFamily
	pages  []*Page
	named  map[string][]source.DestEntry
}

// New builds a document from the given config. It fails only when the
// embedded face cannot be loaded.
func New(cfg Config) (*Document, error) {
	family := canvas.NewFontFamily("latin-modern")
	if err := family.LoadFont(lmroman10regular.TTF, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("canvassource: load face: %w", err)
	}
	d := &Document{
		cfg:    cfg,
		family: family,
		named:  make(map[string][]source.DestEntry),
	}
	for n := 1; n <= cfg.Pages; n++ {
		d.pages = append(d.pages, &Page{doc: d, num: n})
		ref := source.PageRef{Num: n}
		// Page anchors land just under the title line.
		top := cfg.Size.Height - marginMM
		d.named[fmt.Sprintf("page-%d", n)] = []source.DestEntry{
			source.PageEntry(ref),
			source.NameEntry("XYZ"),
			source.NumberEntry(marginMM),
			source.NumberEntry(top),
			source.NullEntry(),
		}
		d.named[fmt.Sprintf("cite.note-%d", n)] = []source.DestEntry{
			source.PageEntry(ref),
			source.NameEntry("FitH"),
			source.NumberEntry(top),
		}
	}
	return d, nil
}

// PageCount implements source.Document.
func (d *Document) PageCount() int { return len(d.pages) }

// Page implements source.Document.
func (d *Document) Page(n int) (source.Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("canvassource: page %d out of range [1,%d]", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// ResolveNamedDestination implements source.Document.
func (d *Document) ResolveNamedDestination(name string) ([]source.DestEntry, error) {
	return d.named[name], nil
}

// PageIndexForRef implements source.Document. Generated page refs carry the
// 1-based page number directly.
func (d *Document) PageIndexForRef(ref source.PageRef) (int, error) {
	if ref.Num < 1 || ref.Num > len(d.pages) {
		return 0, fmt.Errorf("canvassource: unknown page ref %d", ref.Num)
	}
	return ref.Num, nil
}

// Title implements loader.MetadataProvider.
func (d *Document) Title() string { return d.cfg.Title }

// PageLabels implements loader.MetadataProvider.
func (d *Document) PageLabels() map[int]string { return d.cfg.Labels }

// Page is one generated page. Content is drawn once, on first use, and the
// finished canvas is shared by subsequent renders.
type Page struct {
	doc *Document
	num int

	once  sync.Once
	c     *canvas.Canvas
	frags []source.TextFragment
	anns  []source.Annotation
}

// Size implements source.Page.
func (p *Page) Size(scale float64) geo.Size {
	s := p.doc.cfg.Size
	return geo.Size{Width: s.Width * scale, Height: s.Height * scale}
}

// Render implements source.Page. The raster is scale pixels per mm, so the
// bitmap dimensions are the page box times scale.
func (p *Page) Render(ctx context.Context, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("canvassource: page %d: %w", p.num, source.ErrRenderCancelled)
	}
	p.build()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("canvassource: page %d: %w", p.num, source.ErrRenderCancelled)
	}
	return rasterizer.Draw(p.c, canvas.DPMM(scale), canvas.DefaultColorSpace), nil
}

// TextFragments implements source.Page.
func (p *Page) TextFragments() ([]source.TextFragment, error) {
	p.build()
	return p.frags, nil
}

// Annotations implements source.Page.
func (p *Page) Annotations() ([]source.Annotation, error) {
	p.build()
	return p.anns, nil
}

func (p *Page) build() {
	p.once.Do(func() {
		size := p.doc.cfg.Size
		c := canvas.New(size.Width, size.Height)
		ctx := canvas.NewContext(c)
		ctx.SetFillColor(canvas.White)
		ctx.DrawPath(0, 0, canvas.Rectangle(size.Width, size.Height))

		titleFace := p.doc.family.Face(titleFontPt, canvas.Black, canvas.FontRegular, canvas.FontNormal)
		bodyFace := p.doc.family.Face(bodyFontPt, canvas.Black, canvas.FontRegular, canvas.FontNormal)
		linkFace := p.doc.family.Face(bodyFontPt, canvas.Blue, canvas.FontRegular, canvas.FontNormal)

		y := size.Height - marginMM
		p.drawLine(ctx, titleFace, fmt.Sprintf("%s — page %d", p.doc.cfg.Title, p.num),
			marginMM, y, titleFontPt/ptPerMM)

		y -= 2 * leadingMM
		for i := 1; i <= p.doc.cfg.Lines; i++ {
			p.drawLine(ctx, bodyFace,
				fmt.Sprintf("Body line %d of page %d.", i, p.num),
				marginMM, y, bodyFontPt/ptPerMM)
			y -= leadingMM
		}

		// Footer links: an external URL, a jump to the next page, and a
		// citation-style reference back to page 1.
		y = marginMM + 2*leadingMM
		p.drawAnnotatedLine(ctx, linkFace, "See the project site", marginMM, y,
			source.Annotation{URI: fmt.Sprintf("https://example.org/doc/%d", p.num)})
		y -= leadingMM
		if p.num < p.doc.cfg.Pages {
			p.drawAnnotatedLine(ctx, linkFace,
				fmt.Sprintf("Continue on page %d", p.num+1), marginMM, y,
				source.Annotation{Dest: &source.Destination{
					Named: fmt.Sprintf("page-%d", p.num+1),
				}})
			y -= leadingMM
		}
		p.drawAnnotatedLine(ctx, linkFace, "[1] reference", marginMM, y,
			source.Annotation{Dest: &source.Destination{Named: "cite.note-1"}})

		p.c = c
	})
}

// drawLine draws one text line with its baseline at y and records the
// matching fragment. heightMM is the face size in mm.
func (p *Page) drawLine(ctx *canvas.Context, face *canvas.FontFace, text string, x, y, heightMM float64) geo.Rect {
	ctx.DrawText(x, y, canvas.NewTextLine(face, text, canvas.Left))
	box := geo.Rect{X0: x, Y0: y, X1: x + face.TextWidth(text), Y1: y + heightMM}
	p.frags = append(p.frags, source.TextFragment{
		Text:      text,
		Box:       box,
		Transform: coords.Matrix{heightMM, 0, 0, heightMM, x, y},
	})
	return box
}

func (p *Page) drawAnnotatedLine(ctx *canvas.Context, face *canvas.FontFace, text string, x, y float64, ann source.Annotation) {
	ann.Rect = p.drawLine(ctx, face, text, x, y, bodyFontPt/ptPerMM)
	p.anns = append(p.anns, ann)
}
