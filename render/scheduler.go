package render

import (
	"context"
	"sync"
	"time"

	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/observability"
)

// Defaults for the visibility pass.
const (
	DefaultBufferPx = 500
	DefaultDebounce = 100 * time.Millisecond
)

// SchedulerState is the phase of the debounce state machine.
type SchedulerState int

const (
	SchedulerIdle SchedulerState = iota
	SchedulerScheduled
	SchedulerComputing
)

// SchedulerConfig wires a scheduler. Zero values select the defaults.
type SchedulerConfig struct {
	// BufferPx extends the visible viewport by this many pixels on both
	// ends when computing the page range to keep mounted.
	BufferPx float64
	// Debounce is how long scroll/resize activity must settle before a
	// visibility pass runs.
	Debounce time.Duration
	Clock    Clock
	Logger   observability.Logger
	// OnPageRendered is invoked after a page's surfaces are committed; the
	// preload progress display hangs off this.
	OnPageRendered func(page int)
}

// Scheduler runs debounced visibility passes and dispatches per-page render
// tasks. Its invariant: at most one active render task per page at any time;
// a page requesting a render while one is in flight is coalesced, not
// queued, and picked up by a later pass.
//
// The debounce is an explicit Idle -> Scheduled -> Computing -> Idle machine
// so tests can step it with a fake clock.
type Scheduler struct {
	layout   *geo.Layout
	st       *State
	renderer *Renderer
	cfg      SchedulerConfig

	mu       sync.Mutex
	state    SchedulerState
	pending  bool
	timer    Timer
	mounted  map[int]*PageBox
	inflight map[int]context.CancelFunc
	rendered map[int]float64 // page -> scale of last successful render
	closed   bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewScheduler builds a scheduler over a layout, shared state, and renderer.
func NewScheduler(layout *geo.Layout, st *State, renderer *Renderer, cfg SchedulerConfig) *Scheduler {
	if cfg.BufferPx <= 0 {
		cfg.BufferPx = DefaultBufferPx
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		layout:     layout,
		st:         st,
		renderer:   renderer,
		cfg:        cfg,
		mounted:    make(map[int]*PageBox),
		inflight:   make(map[int]context.CancelFunc),
		rendered:   make(map[int]float64),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Kick notes scroll or resize activity. The visibility pass runs once
// activity has settled for the debounce interval; kicks during the wait
// push the deadline out, kicks during a pass queue exactly one follow-up.
func (s *Scheduler) Kick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	switch s.state {
	case SchedulerIdle:
		s.state = SchedulerScheduled
		s.timer = s.cfg.Clock.AfterFunc(s.cfg.Debounce, s.fire)
	case SchedulerScheduled:
		s.timer.Reset(s.cfg.Debounce)
	case SchedulerComputing:
		s.pending = true
	}
}

// State returns the current phase of the debounce machine.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// VisibleRange returns the buffered page range for the current scroll
// position and scale.
func (s *Scheduler) VisibleRange() (startPage, endPage int) {
	scrollY := s.st.ScrollY()
	_, vh := s.st.Viewport()
	scale := s.st.Scale()
	startPage = s.layout.PageAtOffset(scrollY-s.cfg.BufferPx, scale)
	endPage = s.layout.PageAtOffset(scrollY+vh+s.cfg.BufferPx, scale)
	return startPage, endPage
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = SchedulerComputing
	s.mu.Unlock()

	startPage, endPage := s.VisibleRange()
	scale := s.st.Scale()
	zooming := s.st.Zooming()

	s.mu.Lock()
	// Recycle page slots that scrolled out of the buffer; their in-flight
	// work is cancelled, not awaited.
	for p := range s.mounted {
		if p < startPage || p > endPage {
			delete(s.mounted, p)
		}
	}
	for p, cancel := range s.inflight {
		if p < startPage || p > endPage {
			cancel()
		}
	}

	for p := startPage; p <= endPage; p++ {
		if _, busy := s.inflight[p]; busy {
			continue
		}
		box := s.mounted[p]
		if box != nil && !box.NeedsRefresh && box.RenderedScale == scale {
			continue
		}
		// A page marked for refresh waits for the gesture to settle; its
		// interim transform keeps it presentable meanwhile.
		if box != nil && zooming {
			continue
		}
		s.dispatchLocked(p, box != nil)
	}

	if s.pending {
		s.pending = false
		s.state = SchedulerScheduled
		s.timer = s.cfg.Clock.AfterFunc(s.cfg.Debounce, s.fire)
	} else {
		s.state = SchedulerIdle
	}
	s.mu.Unlock()

	s.cfg.Logger.Debug("visibility pass",
		observability.Int("start", startPage),
		observability.Int("end", endPage),
		observability.Float64("scale", scale),
	)
}

// dispatchLocked starts the render task for a page. Caller holds s.mu.
func (s *Scheduler) dispatchLocked(page int, preserve bool) {
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.inflight[page] = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		box, err := s.renderer.RenderPage(ctx, page, Options{PreserveContent: preserve})
		s.commit(page, box, err)
	}()
}

// commit swaps the finished surfaces in. On failure the page keeps its
// previous surfaces; stale and cancelled tasks are silent and the next pass
// re-dispatches as needed.
func (s *Scheduler) commit(page int, box *PageBox, err error) {
	s.mu.Lock()
	delete(s.inflight, page)
	if err != nil || s.closed {
		s.mu.Unlock()
		return
	}
	s.mounted[page] = box
	s.rendered[page] = box.RenderedScale
	s.mu.Unlock()

	if s.cfg.OnPageRendered != nil {
		s.cfg.OnPageRendered(page)
	}
}

// Mounted returns the surfaces for a page, or nil when it is not mounted.
func (s *Scheduler) Mounted(page int) *PageBox {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted[page]
}

// MountedCount returns how many page slots are in use.
func (s *Scheduler) MountedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mounted)
}

// InFlight returns the number of active render tasks.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Rendered reports whether a page was already rendered at the current scale.
// The preloader uses this to skip warmed pages.
func (s *Scheduler) Rendered(page int) bool {
	scale := s.st.Scale()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered[page] == scale
}

// RenderNow renders a page synchronously on the caller's goroutine, for the
// background preloader. It honors the one-task-per-page invariant: a page
// already in flight or already rendered is skipped without error.
func (s *Scheduler) RenderNow(ctx context.Context, page int) error {
	scale := s.st.Scale()
	s.mu.Lock()
	if s.closed || s.rendered[page] == scale {
		s.mu.Unlock()
		return nil
	}
	if _, busy := s.inflight[page]; busy {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.inflight[page] = cancel
	s.mu.Unlock()
	defer cancel()

	box, err := s.renderer.RenderPage(runCtx, page, Options{})
	if err != nil {
		s.mu.Lock()
		delete(s.inflight, page)
		s.mu.Unlock()
		return err
	}

	// Mount only pages inside the buffer; for the rest the pass just warms
	// the source and the rendered ledger.
	startPage, endPage := s.VisibleRange()
	s.mu.Lock()
	delete(s.inflight, page)
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.rendered[page] = box.RenderedScale
	if page >= startPage && page <= endPage {
		s.mounted[page] = box
	}
	s.mu.Unlock()

	if s.cfg.OnPageRendered != nil {
		s.cfg.OnPageRendered(page)
	}
	return nil
}

// ApplyZoom records a new target scale and synchronously applies the cheap
// interim transform to every mounted page, keeping bitmap and overlays
// visually synchronized during the gesture. The true re-raster goes through
// the normal debounced pass.
func (s *Scheduler) ApplyZoom(scale float64) {
	s.st.SetScale(scale)
	s.st.BeginZoom()
	s.mu.Lock()
	for _, box := range s.mounted {
		box.SetInterim(scale)
	}
	s.mu.Unlock()
	s.Kick()
}

// ZoomSettled marks the gesture finished so refresh renders may run.
func (s *Scheduler) ZoomSettled() {
	s.st.EndZoom()
	s.Kick()
}

// Close cancels all in-flight work and waits for it to drain. The scheduler
// must not be used afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.baseCancel()
	s.wg.Wait()

	s.mu.Lock()
	s.mounted = make(map[int]*PageBox)
	s.inflight = make(map[int]context.CancelFunc)
	s.mu.Unlock()
}
