// Command pdfview drives the viewer core against a generated document: it
// loads the document, scrolls through it, performs an anchored zoom, and
// runs the background preloader to completion, emitting line-delimited JSON
// progress events on stdout along the way.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/loader"
	"github.com/wudi/pdfview/render"
	"github.com/wudi/pdfview/source/canvassource"
	"github.com/wudi/pdfview/zoom"
)

type options struct {
	pages     int
	lines     int
	title     string
	viewportW float64
	viewportH float64
	bufferPx  float64
	steps     int
	zoomTo    float64
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(2)
	}
	ev := newEventWriter(os.Stdout)
	if err := run(opts, ev); err != nil {
		ev.Fail(err)
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: pdfview [flags]\n")
		flag.PrintDefaults()
	}
	flag.IntVar(&opts.pages, "pages", 12, "Number of generated pages")
	flag.IntVar(&opts.lines, "lines", 10, "Body lines per page")
	flag.StringVar(&opts.title, "title", "Generated document", "Document title")
	flag.Float64Var(&opts.viewportW, "width", 820, "Viewport width in px")
	flag.Float64Var(&opts.viewportH, "height", 1100, "Viewport height in px")
	flag.Float64Var(&opts.bufferPx, "buffer", render.DefaultBufferPx, "Render buffer in px")
	flag.IntVar(&opts.steps, "steps", 6, "Scroll steps through the document")
	flag.Float64Var(&opts.zoomTo, "zoom", 1.5, "Scale for the anchored zoom step")
	flag.Parse()

	if opts.pages < 1 {
		return options{}, fmt.Errorf("pages must be >= 1")
	}
	if opts.steps < 1 {
		return options{}, fmt.Errorf("steps must be >= 1")
	}
	if opts.zoomTo <= 0 {
		return options{}, fmt.Errorf("zoom must be > 0")
	}
	return opts, nil
}

func run(opts options, ev *eventWriter) error {
	ctx := context.Background()

	opener := canvassource.Opener{Config: canvassource.Config{
		Pages: opts.pages,
		Lines: opts.lines,
		Title: opts.title,
		// Page box in px at scale 1, letter-ish proportions.
		Size: geo.Size{Width: 612, Height: 792},
	}}
	handle, err := loader.Load(ctx, opener, opts.title, loader.Config{Gap: 16, Padding: 16})
	if err != nil {
		return err
	}

	st := render.NewState(1)
	st.SetViewport(opts.viewportW, opts.viewportH)
	renderer := render.NewRenderer(handle.Doc, st, render.RendererConfig{})

	var sched *render.Scheduler
	var anchorer *zoom.Anchorer
	sched = render.NewScheduler(handle.Layout, st, renderer, render.SchedulerConfig{
		BufferPx: opts.bufferPx,
		Debounce: 10 * time.Millisecond,
		OnPageRendered: func(page int) {
			ev.Render(page, sched.MountedCount())
			anchorer.PageRendered(page)
		},
	})
	defer sched.Close()
	anchorer = zoom.New(handle.Layout, st, zoom.Config{
		MountedFn: func(page int) bool { return sched.Mounted(page) != nil },
	})

	// Scroll pass.
	total := handle.Layout.TotalHeight(st.Scale())
	span := total - opts.viewportH
	if span < 0 {
		span = 0
	}
	for i := 0; i <= opts.steps; i++ {
		st.SetScrollY(span * float64(i) / float64(opts.steps))
		sched.Kick()
		if err := waitSettled(sched); err != nil {
			return err
		}
		ev.Progress(progressPayload{
			Current: i, Total: opts.steps,
			Message: fmt.Sprintf("scrolled to %.0fpx", st.ScrollY()),
		})
	}

	// Anchored zoom.
	anchor := anchorer.Capture(nil)
	sched.ApplyZoom(opts.zoomTo)
	sched.ZoomSettled()
	if err := waitSettled(sched); err != nil {
		return err
	}
	anchorer.Restore(anchor)
	sched.Kick()
	if err := waitSettled(sched); err != nil {
		return err
	}
	ev.Progress(progressPayload{
		Current: 1, Total: 1,
		Message: fmt.Sprintf("zoomed to %.2fx anchored on page %d", opts.zoomTo, anchor.Page),
	})

	// Warm the remaining pages in the background.
	pre := loader.NewPreloader(loader.PreloadConfig{
		RenderPage: sched.RenderNow,
		Rendered:   sched.Rendered,
		Busy:       func() bool { return sched.InFlight() > 0 },
		Idle:       loader.TimerIdle{Delay: time.Millisecond},
		TotalPages: handle.Layout.PageCount(),
		OnProgress: func(percent int) {
			ev.Progress(progressPayload{
				Current: percent, Total: 100, Percent: float64(percent),
				Message: "preload",
			})
		},
	})
	pre.Start(ctx)
	defer pre.Stop()
	if err := waitFor(func() bool { return pre.Progress() >= 100 }); err != nil {
		return fmt.Errorf("preload: %w", err)
	}

	ev.Done(map[string]any{
		"title":   handle.Title(),
		"pages":   handle.Layout.PageCount(),
		"mounted": sched.MountedCount(),
		"scale":   st.Scale(),
	})
	return nil
}

func waitSettled(s *render.Scheduler) error {
	return waitFor(func() bool {
		return s.State() == render.SchedulerIdle && s.InFlight() == 0
	})
}

func waitFor(cond func() bool) error {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for the viewer to settle")
}
