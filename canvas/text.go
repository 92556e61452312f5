// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package canvas

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// FontData returns the TrueType data of the built-in font.
func FontData(bold bool) []byte {
	if bold {
		return gobold.TTF
	}
	return goregular.TTF
}

// Line is one shaped line of text. Glyphs are in visual order.
type Line struct {
	Glyphs  []shaping.Glyph
	Size    float64
	Advance float64
	Ascent  float64
	Descent float64
	RTL     bool

	face *font.Face
}

// Height returns the line height.
func (l *Line) Height() float64 { return l.Ascent + l.Descent }

// Path returns the glyph outlines of l with the pen starting at
// (x, baseline), y growing down.
func (l *Line) Path(x, baseline float64) *Path {
	p := NewPath()
	if l.face == nil || len(l.Glyphs) == 0 {
		return p
	}
	scale := l.Size / float64(l.face.Upem())
	pen := x
	for _, g := range l.Glyphs {
		if out, ok := l.face.GlyphData(g.GlyphID).(font.GlyphOutline); ok {
			appendOutline(p, out, pen+fixedToFloat(g.XOffset), baseline-fixedToFloat(g.YOffset), scale)
		}
		pen += fixedToFloat(g.Advance)
	}
	return p
}

// appendOutline adds a glyph outline in font units (y up) at (x, y).
func appendOutline(p *Path, out font.GlyphOutline, x, y, scale float64) {
	pt := func(sp ot.SegmentPoint) (float64, float64) {
		return x + float64(sp.X)*scale, y - float64(sp.Y)*scale
	}
	for _, seg := range out.Segments {
		switch seg.Op {
		case ot.SegmentOpMoveTo:
			p.MoveTo(pt(seg.Args[0]))
		case ot.SegmentOpLineTo:
			p.LineTo(pt(seg.Args[0]))
		case ot.SegmentOpQuadTo:
			cx, cy := pt(seg.Args[0])
			px, py := pt(seg.Args[1])
			p.QuadraticTo(cx, cy, px, py)
		case ot.SegmentOpCubeTo:
			c1x, c1y := pt(seg.Args[0])
			c2x, c2y := pt(seg.Args[1])
			px, py := pt(seg.Args[2])
			p.CubicTo(c1x, c1y, c2x, c2y, px, py)
		}
	}
}

// Shaper shapes single lines of text with HarfBuzz against the built-in Go
// fonts. Right-to-left runs are shaped right-to-left.
//
// A Shaper is not safe for concurrent use.
type Shaper struct {
	hb    shaping.HarfbuzzShaper
	faces [2]*font.Face
}

// NewShaper creates a shaper. Fonts are parsed on first use.
func NewShaper() *Shaper {
	return &Shaper{}
}

func (s *Shaper) face(bold bool) (*font.Face, error) {
	i := 0
	if bold {
		i = 1
	}
	if s.faces[i] == nil {
		face, err := font.ParseTTF(bytes.NewReader(FontData(bold)))
		if err != nil {
			return nil, fmt.Errorf("canvas: parse font: %w", err)
		}
		s.faces[i] = face
	}
	return s.faces[i], nil
}

// Shape shapes text at size pixels per em. Empty text yields a line with
// the font's line metrics and no glyphs.
func (s *Shaper) Shape(text string, size float64, bold bool) (Line, error) {
	face, err := s.face(bold)
	if err != nil {
		return Line{}, err
	}
	if text == "" {
		l, err := s.Shape(" ", size, bold)
		l.Glyphs, l.Advance = nil, 0
		return l, err
	}

	runes := []rune(text)
	rtl := isRTL(text)
	dir := di.DirectionLTR
	if rtl {
		dir = di.DirectionRTL
	}
	out := s.hb.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      face,
		Size:      fixed.Int26_6(math.Round(size * 64)),
		Script:    scriptOf(runes),
		Language:  language.NewLanguage("en"),
	})
	return Line{
		Glyphs:  out.Glyphs,
		Size:    size,
		Advance: fixedToFloat(out.Advance),
		Ascent:  fixedToFloat(out.LineBounds.Ascent),
		Descent: -fixedToFloat(out.LineBounds.Descent),
		RTL:     rtl,
		face:    face,
	}, nil
}

// isRTL reports whether the first strongly directional character of text
// is right-to-left.
func isRTL(text string) bool {
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.R, bidi.AL:
			return true
		case bidi.L:
			return false
		}
	}
	return false
}

func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
