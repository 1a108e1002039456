// Package selection turns raw pointer activity into selection semantics:
// click-vs-drag disambiguation, selection-rectangle extraction, and cyclic
// re-selection of stacked highlights.
package selection

import (
	"math"
	"time"

	"github.com/wudi/pdfview/coords"
)

// Gesture classification thresholds. A press that lasts at least
// DragStartTime or travels at least DragStartDist pixels is a drag;
// anything shorter and stiller is a click.
const (
	DragStartTime = 300 * time.Millisecond
	DragStartDist = 6.0
)

// Kind is the outcome of a pointer press.
type Kind int

const (
	Click Kind = iota
	Drag
)

// Classifier tracks one pointer press at a time. Zero value is ready to use.
type Classifier struct {
	downAt  time.Time
	downPos coords.Point
	active  bool
}

// Down records the press position and time.
func (c *Classifier) Down(pos coords.Point, at time.Time) {
	c.downAt = at
	c.downPos = pos
	c.active = true
}

// Up classifies the release. Calling Up without a prior Down is a click at
// zero distance.
func (c *Classifier) Up(pos coords.Point, at time.Time) Kind {
	if !c.active {
		return Click
	}
	c.active = false
	if at.Sub(c.downAt) >= DragStartTime {
		return Drag
	}
	if math.Hypot(pos.X-c.downPos.X, pos.Y-c.downPos.Y) >= DragStartDist {
		return Drag
	}
	return Click
}
