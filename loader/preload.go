package loader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/source"
)

// IdleScheduler hands out idle time slices. The preloader waits for one
// before each page so interactive work always runs first.
type IdleScheduler interface {
	// Wait blocks until an idle slice is available or ctx is done.
	Wait(ctx context.Context) error
}

// TimerIdle is the fallback idle scheduler: a short fixed delay between
// pages, for hosts without a real idle-callback facility.
type TimerIdle struct {
	Delay time.Duration
}

func (t TimerIdle) Wait(ctx context.Context) error {
	d := t.Delay
	if d <= 0 {
		d = 10 * time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PreloadConfig wires a background preloader.
type PreloadConfig struct {
	// RenderPage renders one page; the preloader treats cancellation errors
	// as a stop signal and other errors as skippable.
	RenderPage func(ctx context.Context, page int) error
	// Rendered reports whether a page is already rendered, so the pass can
	// skip it.
	Rendered func(page int) bool
	// Busy reports whether interactive renders are in flight; the preloader
	// backs off while it returns true.
	Busy func() bool
	// Idle provides idle slices; nil selects TimerIdle.
	Idle       IdleScheduler
	TotalPages int
	// OnProgress receives monotonically increasing progress in 0..100.
	OnProgress func(percent int)
	Logger     observability.Logger
}

// Preloader walks the document top to bottom during idle time, rendering
// pages the user has not reached yet. It is fully cancellable and reports
// monotonic progress.
type Preloader struct {
	cfg      PreloadConfig
	progress atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPreloader builds a preloader; call Start to run it.
func NewPreloader(cfg PreloadConfig) *Preloader {
	if cfg.Idle == nil {
		cfg.Idle = TimerIdle{}
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	return &Preloader{cfg: cfg}
}

// Start launches the background pass. A second Start cancels the first.
func (p *Preloader) Start(ctx context.Context) {
	p.Stop()
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.run(runCtx, done)
}

// Stop aborts the pass and waits for it to wind down. Safe to call at any
// time, including before Start.
func (p *Preloader) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// Progress returns the current progress in 0..100. It never decreases.
func (p *Preloader) Progress() int { return int(p.progress.Load()) }

func (p *Preloader) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	total := p.cfg.TotalPages
	if total <= 0 {
		p.report(100)
		return
	}
	for page := 1; page <= total; page++ {
		if err := p.cfg.Idle.Wait(ctx); err != nil {
			return
		}
		for p.cfg.Busy != nil && p.cfg.Busy() {
			if err := p.cfg.Idle.Wait(ctx); err != nil {
				return
			}
		}
		if p.cfg.Rendered != nil && p.cfg.Rendered(page) {
			p.report(page * 100 / total)
			continue
		}
		if err := p.cfg.RenderPage(ctx, page); err != nil {
			if ctx.Err() != nil || source.IsCancelled(err) {
				return
			}
			p.cfg.Logger.Warn("preload render failed",
				observability.Int("page", page),
				observability.Error("err", err),
			)
		}
		p.report(page * 100 / total)
	}
}

func (p *Preloader) report(percent int) {
	for {
		cur := p.progress.Load()
		if int64(percent) <= cur {
			return
		}
		if p.progress.CompareAndSwap(cur, int64(percent)) {
			break
		}
	}
	if p.cfg.OnProgress != nil {
		p.cfg.OnProgress(percent)
	}
}
