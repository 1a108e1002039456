package render

// Shared fixtures: an in-memory document whose pages raster instantly (or
// block on demand) and count how often they were asked to.

import (
	"context"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/source"
)

type testPage struct {
	doc  *testDoc
	num  int
	size geo.Size

	frags []source.TextFragment
	anns  []source.Annotation

	renderErr   error
	block       chan struct{} // if non-nil, Render waits on it
	afterRaster func()        // if non-nil, runs after a successful raster
}

func (p *testPage) Size(scale float64) geo.Size {
	return geo.Size{Width: p.size.Width * scale, Height: p.size.Height * scale}
}

func (p *testPage) Render(ctx context.Context, scale float64) (image.Image, error) {
	p.doc.recordRender(p.num)
	if p.block != nil {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("raster: %w", source.ErrRenderCancelled)
		case <-p.block:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("raster: %w", source.ErrRenderCancelled)
	}
	if p.renderErr != nil {
		return nil, p.renderErr
	}
	w := int(p.size.Width * scale)
	h := int(p.size.Height * scale)
	if p.afterRaster != nil {
		p.afterRaster()
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func (p *testPage) TextFragments() ([]source.TextFragment, error) { return p.frags, nil }
func (p *testPage) Annotations() ([]source.Annotation, error)     { return p.anns, nil }

type testDoc struct {
	pages []*testPage

	mu      sync.Mutex
	renders map[int]int
}

func newTestDoc(count int, size geo.Size) *testDoc {
	d := &testDoc{renders: make(map[int]int)}
	for i := 1; i <= count; i++ {
		d.pages = append(d.pages, &testPage{doc: d, num: i, size: size})
	}
	return d
}

func (d *testDoc) recordRender(page int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renders[page]++
}

func (d *testDoc) renderCount(page int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.renders[page]
}

func (d *testDoc) PageCount() int { return len(d.pages) }

func (d *testDoc) Page(n int) (source.Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	return d.pages[n-1], nil
}

func (d *testDoc) ResolveNamedDestination(string) ([]source.DestEntry, error) { return nil, nil }
func (d *testDoc) PageIndexForRef(ref source.PageRef) (int, error)            { return ref.Num, nil }

type fakeTimer struct {
	clock *fakeClock
	f     func()
	live  bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.live
	t.live = false
	return was
}

func (t *fakeTimer) Reset(time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.live
	t.live = true
	return was
}

// fakeClock lets tests step the debounce machine by firing pending timers
// explicitly.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, f: f, live: true}
	c.timers = append(c.timers, t)
	return t
}

// advance fires every live timer once, synchronously.
func (c *fakeClock) advance() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if t.live {
			t.live = false
			due = append(due, t)
		}
	}
	c.timers = c.timers[:0]
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.InFlight() == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("render tasks did not drain")
}
