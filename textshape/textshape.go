// Package textshape measures rendered text widths for the transparent text
// overlay. Source-reported fragment widths and shaped glyph widths can differ
// by rounding; fragments whose measured width deviates from the reported one
// by more than WidthTolerance get a horizontal-scale correction so that
// selection hit-testing stays pixel-aligned with the backing text.
package textshape

import (
	"bytes"
	"errors"

	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// WidthTolerance is the relative deviation above which a fragment receives a
// horizontal-scale correction.
const WidthTolerance = 0.01

// Measurer shapes text with a fixed face and reports advance widths in the
// same units as the font size passed in.
type Measurer struct {
	face   *gofont.Face
	shaper shaping.HarfbuzzShaper
}

// NewMeasurer parses the given TTF bytes into a measurer. A nil or empty ttf
// selects the bundled Latin Modern face, which tracks common body fonts
// closely enough for overlay alignment.
func NewMeasurer(ttf []byte) (*Measurer, error) {
	if len(ttf) == 0 {
		ttf = lmroman10regular.TTF
	}
	face, err := gofont.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return nil, err
	}
	return &Measurer{face: face}, nil
}

// Width returns the shaped advance width of text at the given font size, in
// the font size's units.
func (m *Measurer) Width(text string, fontSize float64) (float64, error) {
	if fontSize <= 0 {
		return 0, errors.New("font size must be positive")
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return 0, nil
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      m.face,
		Size:      fixed.Int26_6(fontSize * 64),
		Script:    language.Latin,
		Language:  language.DefaultLanguage(),
	}
	output := m.shaper.Shape(input)
	var width fixed.Int26_6
	for _, g := range output.Glyphs {
		width += g.XAdvance
	}
	return float64(width) / 64.0, nil
}

// Correction returns the horizontal scale to apply to a text span whose
// reported width differs from its measured width, or 1 when the deviation is
// within WidthTolerance. Degenerate widths yield 1.
func Correction(reported, measured float64) float64 {
	if reported <= 0 || measured <= 0 {
		return 1
	}
	dev := (measured - reported) / reported
	if dev < 0 {
		dev = -dev
	}
	if dev <= WidthTolerance {
		return 1
	}
	return reported / measured
}
