package links

import (
	"context"
	"fmt"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/source"
)

// Resolver resolves internal destinations lazily, on interaction, and maps
// resolved coordinates back to content blocks.
type Resolver struct {
	doc    source.Document
	index  source.ContentIndex
	policy Policy
	log    observability.Logger
}

// NewResolver builds a resolver. index may be nil when no content-indexing
// collaborator is attached; log may be nil for silence.
func NewResolver(doc source.Document, index source.ContentIndex, policy Policy, log observability.Logger) *Resolver {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Resolver{doc: doc, index: index, policy: policy, log: log}
}

// Resolve maps a destination to coordinates, following named-destination
// indirection. Errors wrap source.ErrDestination.
func (r *Resolver) Resolve(dest *source.Destination) (DestinationCoords, error) {
	if dest == nil {
		return DestinationCoords{}, fmt.Errorf("%w: nil destination", source.ErrDestination)
	}
	entries := dest.Raw
	if dest.Named != "" {
		resolved, err := r.doc.ResolveNamedDestination(dest.Named)
		if err != nil || resolved == nil {
			return DestinationCoords{}, fmt.Errorf("%w: named destination %q", source.ErrDestination, dest.Named)
		}
		entries = resolved
	}
	return resolveEntries(r.doc, entries)
}

// BlockForCoords finds the content block containing the resolved coordinate.
// Returns nil when the page has no blocks or no y coordinate is available;
// the caller decides the fallback (such as a generic text search).
func (r *Resolver) BlockForCoords(c DestinationCoords) *source.ContentBlock {
	if r.index == nil || c.Y == nil {
		return nil
	}
	pg, err := r.doc.Page(c.Page)
	if err != nil {
		return nil
	}
	height := pg.Size(1).Height
	if height <= 0 {
		return nil
	}
	// Block boxes are normalized to the page box; bring y into that space.
	return BlockAt(r.index.BlocksForPage(c.Page), *c.Y/height)
}

// ClickKind is the dispatch result of an internal link click.
type ClickKind int

const (
	ClickNone ClickKind = iota
	ClickJump
	ClickPopup
)

// ClickResult is what a click on an internal link produced. Kind selects the
// variant: ClickJump carries Coords, ClickPopup carries Coords plus the
// screen position the popup should anchor to, ClickNone carries nothing.
type ClickResult struct {
	Kind      ClickKind
	Coords    DestinationCoords
	Block     *source.ContentBlock
	ScreenPos coords.Point
}

// HandleClick resolves a clicked destination and classifies the action. A
// resolution failure is logged and becomes a no-op.
func (r *Resolver) HandleClick(ctx context.Context, dest *source.Destination, screenPos coords.Point) ClickResult {
	token := ""
	if dest != nil {
		token = dest.Named
	}
	action := r.policy.Classify(ctx, token)

	resolved, err := r.Resolve(dest)
	if err != nil {
		r.log.Warn("destination resolution failed", observability.Error("err", err))
		return ClickResult{Kind: ClickNone}
	}

	if action == ActionPopup {
		return ClickResult{
			Kind:      ClickPopup,
			Coords:    resolved,
			Block:     r.BlockForCoords(resolved),
			ScreenPos: screenPos,
		}
	}
	return ClickResult{Kind: ClickJump, Coords: resolved}
}
