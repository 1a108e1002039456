package source

import "errors"

// Error taxonomy shared across the viewer core. Render cancellation and
// staleness are expected control-flow signals, not failures; only ErrLoad is
// surfaced to the host as a hard error.
var (
	// ErrLoad marks a document that cannot be opened or has zero pages.
	ErrLoad = errors.New("document load failed")

	// ErrRenderCancelled marks a render task aborted by cancellation. It is
	// silent: callers drop the task's side effects and move on.
	ErrRenderCancelled = errors.New("render cancelled")

	// ErrRenderStale marks a render task whose scale was superseded while it
	// was in flight. Treated like cancellation; the scheduler re-dispatches.
	ErrRenderStale = errors.New("render superseded by newer scale")

	// ErrRenderFailure marks an unexpected raster or extraction failure. The
	// page keeps its last-good surfaces.
	ErrRenderFailure = errors.New("render failed")

	// ErrDestination marks a malformed or unreachable link target.
	ErrDestination = errors.New("destination resolution failed")

	// ErrNoContentBlock reports that a page has no content block matching a
	// queried coordinate.
	ErrNoContentBlock = errors.New("no matching content block")
)

// IsCancelled reports whether err is a silent render abort (cancellation or
// staleness) rather than a real failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrRenderCancelled) || errors.Is(err, ErrRenderStale)
}
