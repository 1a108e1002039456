package render

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/wudi/pdfview/geo"
)

type schedEnv struct {
	doc   *testDoc
	st    *State
	clock *fakeClock
	sched *Scheduler

	mu       sync.Mutex
	reported []int
}

// newSchedEnv builds a 5-page, 300x300 document with a 300px viewport and a
// 150px buffer, so exactly three pages fit the buffered range at scale 1.
func newSchedEnv(t *testing.T) *schedEnv {
	t.Helper()
	env := &schedEnv{
		doc:   newTestDoc(5, geo.Size{Width: 300, Height: 300}),
		st:    NewState(1),
		clock: &fakeClock{},
	}
	env.st.SetViewport(300, 300)
	layout := geo.NewUniformLayout(geo.Size{Width: 300, Height: 300}, 5, 0, 0)
	r := NewRenderer(env.doc, env.st, RendererConfig{})
	env.sched = NewScheduler(layout, env.st, r, SchedulerConfig{
		BufferPx: 150,
		Debounce: 50 * time.Millisecond,
		Clock:    env.clock,
		OnPageRendered: func(page int) {
			env.mu.Lock()
			env.reported = append(env.reported, page)
			env.mu.Unlock()
		},
	})
	t.Cleanup(env.sched.Close)
	return env
}

func (e *schedEnv) pass(t *testing.T) {
	t.Helper()
	e.sched.Kick()
	e.clock.advance()
	waitIdle(t, e.sched)
}

func TestSchedulerVisiblePass(t *testing.T) {
	env := newSchedEnv(t)

	// Page 3 tops out at 600; the buffered range covers [450, 1050].
	env.st.SetScrollY(600)
	env.pass(t)

	for _, p := range []int{2, 3, 4} {
		if n := env.doc.renderCount(p); n != 1 {
			t.Fatalf("page %d rendered %d times, want 1", p, n)
		}
		if env.sched.Mounted(p) == nil {
			t.Fatalf("page %d not mounted", p)
		}
		if !env.sched.Rendered(p) {
			t.Fatalf("page %d missing from rendered ledger", p)
		}
	}
	for _, p := range []int{1, 5} {
		if n := env.doc.renderCount(p); n != 0 {
			t.Fatalf("page %d rendered %d times, want 0", p, n)
		}
	}
	if got := env.sched.MountedCount(); got != 3 {
		t.Fatalf("mounted = %d, want 3", got)
	}
}

func TestSchedulerDebounceStates(t *testing.T) {
	env := newSchedEnv(t)

	if env.sched.State() != SchedulerIdle {
		t.Fatalf("initial state = %v", env.sched.State())
	}
	env.sched.Kick()
	if env.sched.State() != SchedulerScheduled {
		t.Fatalf("state after kick = %v", env.sched.State())
	}
	// Further kicks while scheduled only push the deadline; one pass runs.
	env.sched.Kick()
	env.sched.Kick()
	env.clock.advance()
	waitIdle(t, env.sched)

	if env.sched.State() != SchedulerIdle {
		t.Fatalf("state after pass = %v", env.sched.State())
	}
	if n := env.doc.renderCount(1); n != 1 {
		t.Fatalf("page 1 rendered %d times under coalesced kicks", n)
	}
}

func TestSchedulerPassIsIdempotent(t *testing.T) {
	env := newSchedEnv(t)
	env.pass(t)
	env.pass(t)
	env.pass(t)

	for p := 1; p <= 2; p++ {
		if n := env.doc.renderCount(p); n != 1 {
			t.Fatalf("page %d rendered %d times across repeat passes", p, n)
		}
	}
}

func TestSchedulerOneTaskPerPage(t *testing.T) {
	env := newSchedEnv(t)
	release := make(chan struct{})
	for _, p := range env.doc.pages {
		p.block = release
	}

	env.sched.Kick()
	env.clock.advance()
	if got := env.sched.InFlight(); got != 2 {
		t.Fatalf("in flight = %d, want 2 (pages 1-2)", got)
	}

	// A second pass while those tasks are blocked must not double-dispatch.
	env.sched.Kick()
	env.clock.advance()
	if got := env.sched.InFlight(); got != 2 {
		t.Fatalf("in flight after repeat pass = %d", got)
	}

	close(release)
	waitIdle(t, env.sched)
	for p := 1; p <= 2; p++ {
		if n := env.doc.renderCount(p); n != 1 {
			t.Fatalf("page %d dispatched %d times", p, n)
		}
	}
}

func TestSchedulerUnmountsOutOfRange(t *testing.T) {
	env := newSchedEnv(t)
	env.st.SetScrollY(600)
	env.pass(t) // mounts 2-4

	env.st.SetScrollY(0)
	env.pass(t) // range is now 1-2

	if env.sched.Mounted(3) != nil || env.sched.Mounted(4) != nil {
		t.Fatalf("out-of-range pages still mounted")
	}
	if env.sched.Mounted(1) == nil || env.sched.Mounted(2) == nil {
		t.Fatalf("in-range pages not mounted")
	}
	if got := env.sched.MountedCount(); got != 2 {
		t.Fatalf("mounted = %d, want 2", got)
	}
	// The recycled slots stay in the ledger: scrolling back re-mounts from
	// a fresh render but the preloader would still consider them warmed.
	if !env.sched.Rendered(3) {
		t.Fatalf("rendered ledger lost page 3")
	}
}

func TestSchedulerZoomInterimAndSettle(t *testing.T) {
	env := newSchedEnv(t)
	env.pass(t) // mounts 1-2 at scale 1

	env.sched.ApplyZoom(1.2)
	for p := 1; p <= 2; p++ {
		box := env.sched.Mounted(p)
		if box == nil {
			t.Fatalf("page %d unmounted by zoom", p)
		}
		if box.Interim != 1.2 || !box.NeedsRefresh {
			t.Fatalf("page %d interim = %v refresh = %v", p, box.Interim, box.NeedsRefresh)
		}
	}

	// Mid-gesture passes leave the stretched boxes alone.
	env.clock.advance()
	waitIdle(t, env.sched)
	for p := 1; p <= 2; p++ {
		if n := env.doc.renderCount(p); n != 1 {
			t.Fatalf("page %d re-rendered mid-gesture (%d renders)", p, n)
		}
	}

	env.sched.ZoomSettled()
	env.clock.advance()
	waitIdle(t, env.sched)
	for p := 1; p <= 2; p++ {
		box := env.sched.Mounted(p)
		if box == nil || box.RenderedScale != 1.2 {
			t.Fatalf("page %d not refreshed at new scale: %+v", p, box)
		}
		if box.Interim != 1 || box.NeedsRefresh {
			t.Fatalf("page %d refresh left interim = %v", p, box.Interim)
		}
		if n := env.doc.renderCount(p); n != 2 {
			t.Fatalf("page %d renders = %d, want 2", p, n)
		}
	}
}

func TestSchedulerPreservesContentDuringRefresh(t *testing.T) {
	env := newSchedEnv(t)
	env.pass(t) // mounts 1-2 at scale 1

	release := make(chan struct{})
	for _, p := range env.doc.pages {
		p.block = release
	}
	env.sched.ApplyZoom(1.2)
	env.sched.ZoomSettled()
	env.clock.advance()

	// Refresh tasks are in flight; the stretched old surfaces stay up.
	if env.sched.InFlight() == 0 {
		t.Fatalf("no refresh dispatched")
	}
	box := env.sched.Mounted(1)
	if box == nil || box.RenderedScale != 1 || box.Interim != 1.2 {
		t.Fatalf("old surfaces gone mid-refresh: %+v", box)
	}

	close(release)
	waitIdle(t, env.sched)
	if box := env.sched.Mounted(1); box == nil || box.RenderedScale != 1.2 {
		t.Fatalf("refresh did not swap in: %+v", box)
	}
}

func TestSchedulerStaleScaleDiscarded(t *testing.T) {
	env := newSchedEnv(t)
	// The first raster bumps the scale, so the initial pass's surfaces are
	// stale on arrival and must not mount.
	once := sync.Once{}
	env.doc.pages[0].afterRaster = func() {
		once.Do(func() { env.st.SetScale(2) })
	}
	env.pass(t)

	if box := env.sched.Mounted(1); box != nil && box.RenderedScale != 2 {
		t.Fatalf("stale surfaces mounted: %+v", box)
	}
	if env.sched.Rendered(1) {
		t.Fatalf("stale render entered the ledger")
	}
}

func TestSchedulerRenderNow(t *testing.T) {
	env := newSchedEnv(t)
	ctx := context.Background()

	// Page 5 is far outside the buffer: warmed, not mounted.
	if err := env.sched.RenderNow(ctx, 5); err != nil {
		t.Fatalf("RenderNow: %v", err)
	}
	if env.sched.Mounted(5) != nil {
		t.Fatalf("out-of-range preload mounted the page")
	}
	if !env.sched.Rendered(5) {
		t.Fatalf("preload missing from rendered ledger")
	}

	// Already-warmed pages are skipped without touching the source.
	if err := env.sched.RenderNow(ctx, 5); err != nil {
		t.Fatalf("repeat RenderNow: %v", err)
	}
	if n := env.doc.renderCount(5); n != 1 {
		t.Fatalf("page 5 rendered %d times", n)
	}

	// In-range pages mount directly.
	if err := env.sched.RenderNow(ctx, 1); err != nil {
		t.Fatalf("RenderNow in range: %v", err)
	}
	if env.sched.Mounted(1) == nil {
		t.Fatalf("in-range preload did not mount")
	}

	env.mu.Lock()
	reported := append([]int(nil), env.reported...)
	env.mu.Unlock()
	if len(reported) != 2 || reported[0] != 5 || reported[1] != 1 {
		t.Fatalf("reported pages = %v", reported)
	}
}

func TestSchedulerClose(t *testing.T) {
	env := newSchedEnv(t)
	release := make(chan struct{})
	for _, p := range env.doc.pages {
		p.block = release
	}
	env.sched.Kick()
	env.clock.advance()
	if env.sched.InFlight() == 0 {
		t.Fatalf("nothing dispatched")
	}

	// Close cancels the blocked tasks and drains without the release.
	env.sched.Close()
	if env.sched.InFlight() != 0 || env.sched.MountedCount() != 0 {
		t.Fatalf("close left state behind: inflight=%d mounted=%d",
			env.sched.InFlight(), env.sched.MountedCount())
	}

	// A closed scheduler ignores kicks.
	env.sched.Kick()
	if env.sched.State() != SchedulerIdle {
		t.Fatalf("closed scheduler accepted a kick")
	}
}
