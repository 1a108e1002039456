// Package source defines the contract between the viewer core and its
// document source collaborator. The viewer assumes an immutable, randomly
// page-addressable document that can report page dimensions and rasterize a
// page at an arbitrary scale; how the source obtains those (parsing,
// ingestion, network) is outside this module.
package source

import (
	"context"
	"image"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/geo"
)

// Opener opens a document source by an opaque reference.
type Opener interface {
	Open(ctx context.Context, ref string) (Document, error)
}

// Document is a loaded, immutable document. Pages are numbered 1..PageCount.
type Document interface {
	PageCount() int
	Page(n int) (Page, error)
	// ResolveNamedDestination maps a named destination to its raw
	// destination entries, or returns nil entries if the name is unknown.
	ResolveNamedDestination(name string) ([]DestEntry, error)
	// PageIndexForRef maps an opaque page reference from a destination to a
	// 1-based page number.
	PageIndexForRef(ref PageRef) (int, error)
}

// Page exposes one page of a document. Implementations must be safe for
// concurrent use: the scheduler may render one page while the preloader
// inspects another.
type Page interface {
	// Size returns the page box scaled by scale. Size(1) is the intrinsic
	// user-space size.
	Size(scale float64) geo.Size
	// Render rasterizes the page at the given scale. It must honor ctx and
	// return an error wrapping ErrRenderCancelled when aborted.
	Render(ctx context.Context, scale float64) (image.Image, error)
	// TextFragments returns the selectable text geometry of the page in
	// bottom-left-origin user space.
	TextFragments() ([]TextFragment, error)
	// Annotations returns the page's link annotations in bottom-left-origin
	// user space.
	Annotations() ([]Annotation, error)
}

// TextFragment is one run of text as reported by the source. Box is the
// fragment's bounding box in user-space units with the origin at the
// bottom-left of the page. Transform carries the text matrix; its scale
// factors give the effective font size.
type TextFragment struct {
	Text      string
	Box       geo.Rect
	Transform coords.Matrix
}

// Annotation is a link region on a page. Rect is in bottom-left-origin user
// space. Exactly one of URI or Dest is normally set; an annotation with
// neither is ignored by the viewer.
type Annotation struct {
	Rect geo.Rect
	URI  string
	Dest *Destination
}

// Destination is an unresolved document-internal target. Either Named holds
// a name to be resolved through Document.ResolveNamedDestination, or Raw
// holds the destination entries directly. Resolution is deferred until the
// link is activated.
type Destination struct {
	Named string
	Raw   []DestEntry
}

// PageRef is an opaque reference to a page object inside the source.
type PageRef struct {
	Num int
	Gen int
}

// DestEntryKind discriminates the variants of a raw destination entry.
type DestEntryKind int

const (
	EntryNull DestEntryKind = iota
	EntryPageRef
	EntryName
	EntryNumber
)

// DestEntry is one element of a raw destination array: a page reference, a
// fit-mode name, a coordinate number, or null.
type DestEntry struct {
	Kind DestEntryKind
	Page PageRef
	Name string
	Num  float64
}

// NullEntry returns a null destination entry.
func NullEntry() DestEntry { return DestEntry{Kind: EntryNull} }

// PageEntry returns a page-reference destination entry.
func PageEntry(ref PageRef) DestEntry { return DestEntry{Kind: EntryPageRef, Page: ref} }

// NameEntry returns a fit-mode name destination entry.
func NameEntry(name string) DestEntry { return DestEntry{Kind: EntryName, Name: name} }

// NumberEntry returns a numeric destination entry.
func NumberEntry(v float64) DestEntry { return DestEntry{Kind: EntryNumber, Num: v} }
