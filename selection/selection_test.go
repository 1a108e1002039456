package selection

import (
	"testing"
	"time"

	"github.com/wudi/pdfview/coords"
	"github.com/wudi/pdfview/geo"
	"github.com/wudi/pdfview/source"
)

func TestClassifier(t *testing.T) {
	t0 := time.Now()
	cases := []struct {
		name    string
		elapsed time.Duration
		dx, dy  float64
		want    Kind
	}{
		{"quick and still", 250 * time.Millisecond, 3, 0, Click},
		{"quick but moved", 250 * time.Millisecond, 10, 0, Drag},
		{"held in place", 400 * time.Millisecond, 0, 0, Drag},
		{"diagonal movement", 100 * time.Millisecond, 5, 5, Drag}, // hypot > 6
		{"just under both", 299 * time.Millisecond, 0, 5.9, Click},
	}
	for _, tc := range cases {
		var c Classifier
		c.Down(coords.Point{X: 100, Y: 100}, t0)
		got := c.Up(coords.Point{X: 100 + tc.dx, Y: 100 + tc.dy}, t0.Add(tc.elapsed))
		if got != tc.want {
			t.Fatalf("%s: classified %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClassifierWithoutDown(t *testing.T) {
	var c Classifier
	if got := c.Up(coords.Point{X: 5, Y: 5}, time.Now()); got != Click {
		t.Fatalf("up without down = %v, want Click", got)
	}
}

func TestNormalizeDropsZeroArea(t *testing.T) {
	pageBox := geo.Rect{X0: 100, Y0: 200, X1: 300, Y1: 600}
	rects := []geo.Rect{
		{X0: 100, Y0: 200, X1: 200, Y1: 300},
		{X0: 150, Y0: 250, X1: 150, Y1: 400}, // zero width
	}
	got := Normalize(rects, pageBox)
	if len(got) != 1 {
		t.Fatalf("normalized %d rects, want 1", len(got))
	}
	want := geo.Rect{X0: 0, Y0: 0, X1: 0.5, Y1: 0.25}
	if got[0] != want {
		t.Fatalf("normalized rect = %+v, want %+v", got[0], want)
	}
}

// rectPairWithIoU nests b inside the unit square a so that the intersection
// is iou and the union is exactly 1, making the ratio hit the target without
// rounding error at the threshold.
func rectPairWithIoU(iou float64) (geo.Rect, geo.Rect) {
	a := geo.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1}
	b := geo.Rect{X0: 0, Y0: 0, X1: iou, Y1: 1}
	return a, b
}

func TestDedupThreshold(t *testing.T) {
	a, b := rectPairWithIoU(0.31)
	if got := Dedup([]geo.Rect{a, b}); len(got) != 1 {
		t.Fatalf("IoU 0.31 should drop second rect, kept %d", len(got))
	}
	a, b = rectPairWithIoU(0.29)
	if got := Dedup([]geo.Rect{a, b}); len(got) != 2 {
		t.Fatalf("IoU 0.29 should keep both rects, kept %d", len(got))
	}
	// The boundary is an inclusive drop.
	a, b = rectPairWithIoU(0.3)
	if got := Dedup([]geo.Rect{a, b}); len(got) != 1 {
		t.Fatalf("IoU 0.30 should drop second rect, kept %d", len(got))
	}
}

func TestDedupIterationOrder(t *testing.T) {
	a := geo.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1}
	b := geo.Rect{X0: 0.1, Y0: 0, X1: 1.1, Y1: 1}   // duplicate of a
	c := geo.Rect{X0: 2, Y0: 0, X1: 3, Y1: 1}       // distinct
	d := geo.Rect{X0: 2.05, Y0: 0, X1: 3.05, Y1: 1} // duplicate of c
	got := Dedup([]geo.Rect{a, b, c, d})
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Fatalf("dedup kept %+v", got)
	}
}

func highlightAt(id string, r geo.Rect) source.HighlightItem {
	return source.HighlightItem{ID: id, Page: 1, Rects: []geo.Rect{r}}
}

func TestPickerCyclesThroughStack(t *testing.T) {
	overlap := geo.Rect{X0: 0.2, Y0: 0.2, X1: 0.6, Y1: 0.6}
	items := []source.HighlightItem{
		highlightAt("A", overlap),
		highlightAt("B", overlap),
		highlightAt("C", overlap),
	}
	var p Picker
	wantOrder := []struct {
		id    string
		index int
	}{
		{"A", 0}, {"B", 1}, {"C", 2}, {"A", 0},
	}
	for i, want := range wantOrder {
		got, idx := p.Pick(items, 0.4, 0.4)
		if got == nil || got.ID != want.id || idx != want.index {
			t.Fatalf("click %d picked %+v at %d, want %s at %d", i+1, got, idx, want.id, want.index)
		}
	}

	// A click elsewhere with a different stack resets the cycle.
	other := append(items, highlightAt("D", geo.Rect{X0: 0.8, Y0: 0.8, X1: 0.95, Y1: 0.95}))
	got, idx := p.Pick(other, 0.85, 0.85)
	if got == nil || got.ID != "D" || idx != 0 {
		t.Fatalf("different stack picked %+v at %d, want D at 0", got, idx)
	}
}

func TestPickerSingleHitDoesNotCycle(t *testing.T) {
	items := []source.HighlightItem{highlightAt("only", geo.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1})}
	var p Picker
	for i := 0; i < 3; i++ {
		got, idx := p.Pick(items, 0.5, 0.5)
		if got == nil || got.ID != "only" || idx != 0 {
			t.Fatalf("click %d on single highlight = %+v at %d", i+1, got, idx)
		}
	}
}

func TestPickerMiss(t *testing.T) {
	items := []source.HighlightItem{highlightAt("A", geo.Rect{X0: 0, Y0: 0, X1: 0.1, Y1: 0.1})}
	var p Picker
	if got, _ := p.Pick(items, 0.9, 0.9); got != nil {
		t.Fatalf("miss returned %+v", got)
	}
}

func TestNewHighlight(t *testing.T) {
	rects := []geo.Rect{{X0: 0.1, Y0: 0.1, X1: 0.4, Y1: 0.15}}
	h := NewHighlight(7, rects, "quoted text", "#ffeb3b")
	if h.Page != 7 || h.Text != "quoted text" || h.Color != "#ffeb3b" || h.ID != "" {
		t.Fatalf("unexpected highlight: %+v", h)
	}
	rects[0].X0 = 0.9
	if h.Rects[0].X0 == 0.9 {
		t.Fatalf("highlight should own a copy of its rects")
	}
}
