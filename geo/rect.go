package geo

// Rect is an axis-aligned rectangle in top-left-origin space with
// X0 <= X1 and Y0 <= Y1. Rects attached to pages are usually normalized to
// the page box, so all components lie in [0, 1].
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area returns the area of the rectangle, 0 for degenerate rects.
func (r Rect) Area() float64 {
	if r.X1 <= r.X0 || r.Y1 <= r.Y0 {
		return 0
	}
	return (r.X1 - r.X0) * (r.Y1 - r.Y0)
}

// Contains reports whether the point (x, y) lies inside the rectangle,
// edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Canon returns the rectangle with its corners reordered so that
// X0 <= X1 and Y0 <= Y1.
func (r Rect) Canon() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Intersect returns the overlapping region of two rectangles. A disjoint
// pair yields a degenerate rect with zero Area.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		X0: max(r.X0, o.X0),
		Y0: max(r.Y0, o.Y0),
		X1: min(r.X1, o.X1),
		Y1: min(r.Y1, o.Y1),
	}
	return out
}

// IoU returns the intersection-over-union of two rectangles. When the union
// area is 0 the result is 0.
func IoU(a, b Rect) float64 {
	inter := a.Intersect(b).Area()
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// FlipY converts a y coordinate between bottom-left-origin page user space
// and top-left-origin viewer space, for a page of the given height. The
// conversion is its own inverse and must be applied exactly once at the
// boundary between the two spaces.
func FlipY(y, pageHeight float64) float64 { return pageHeight - y }

// FlipRect converts a rectangle from bottom-left-origin page user space to
// top-left-origin viewer space for a page of the given height.
func FlipRect(r Rect, pageHeight float64) Rect {
	return Rect{
		X0: r.X0,
		Y0: pageHeight - r.Y1,
		X1: r.X1,
		Y1: pageHeight - r.Y0,
	}
}
