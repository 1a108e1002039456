// Package render owns the per-page render pipeline and the debounced
// visibility scheduler that drives it. Only pages inside the buffered
// viewport are mounted; each mounted page owns a raster surface plus text,
// link, and highlight overlays that stay pixel-aligned with it across zoom
// changes.
package render

import "sync"

// State is the shared zoom/scroll/render-status block read by the scheduler,
// renderer, zoom anchoring, and the preloader. It is one explicit struct
// passed by reference so every mutation site is auditable; there are no
// ambient globals.
type State struct {
	mu        sync.Mutex
	scale     float64
	scrollY   float64
	dpr       float64
	viewportW float64
	viewportH float64
	zooming   bool
}

// NewState builds a render state with the given device pixel ratio and an
// initial scale of 1.
func NewState(dpr float64) *State {
	if dpr <= 0 {
		dpr = 1
	}
	return &State{scale: 1, dpr: dpr}
}

// Scale returns the current target scale.
func (s *State) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// SetScale records a new target scale and returns the previous one.
func (s *State) SetScale(scale float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.scale
	if scale > 0 {
		s.scale = scale
	}
	return prev
}

// ScrollY returns the current scroll offset in viewer pixels.
func (s *State) ScrollY() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollY
}

// SetScrollY records a new scroll offset.
func (s *State) SetScrollY(y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if y < 0 {
		y = 0
	}
	s.scrollY = y
}

// DPR returns the device pixel ratio bitmaps are rastered at.
func (s *State) DPR() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dpr
}

// Viewport returns the viewport size in viewer pixels.
func (s *State) Viewport() (w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewportW, s.viewportH
}

// SetViewport records the viewport size.
func (s *State) SetViewport(w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewportW, s.viewportH = w, h
}

// BeginZoom marks a zoom gesture as in progress. While it is, pages marked
// for refresh are not re-rastered; only the cheap interim transform is
// applied.
func (s *State) BeginZoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zooming = true
}

// EndZoom marks the gesture as settled.
func (s *State) EndZoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zooming = false
}

// Zooming reports whether a zoom gesture is mid-flight.
func (s *State) Zooming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zooming
}
