// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"image/color"
	"testing"

	"github.com/gogpu/sceneframe/internal/path"
)

// coverageGrid records the coverage blended into each pixel.
type coverageGrid struct {
	w, h int
	cov  []int
}

func newGrid(w, h int) *coverageGrid {
	return &coverageGrid{w: w, h: h, cov: make([]int, w*h)}
}

func (g *coverageGrid) Width() int  { return g.w }
func (g *coverageGrid) Height() int { return g.h }

func (g *coverageGrid) BlendSpan(x, y, n int, _ color.RGBA, coverage uint8) {
	for i := x; i < x+n; i++ {
		if i < 0 || i >= g.w || y < 0 || y >= g.h {
			panic("span outside target")
		}
		g.cov[y*g.w+i] += int(coverage)
	}
}

func (g *coverageGrid) at(x, y int) int { return g.cov[y*g.w+x] }

func rect(x0, y0, x1, y1 float64) []path.Element {
	return []path.Element{
		path.MoveTo{Point: path.Point{X: x0, Y: y0}},
		path.LineTo{Point: path.Point{X: x1, Y: y0}},
		path.LineTo{Point: path.Point{X: x1, Y: y1}},
		path.LineTo{Point: path.Point{X: x0, Y: y1}},
		path.Close{},
	}
}

var red = color.RGBA{R: 255, A: 255}

func TestFillPixelAlignedRect(t *testing.T) {
	g := newGrid(10, 10)
	NewRasterizer().Fill(g, path.Edges(rect(2, 2, 6, 5), 0), NonZero, red)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			want := 0
			if x >= 2 && x < 6 && y >= 2 && y < 5 {
				want = 255
			}
			if got := g.at(x, y); got != want {
				t.Fatalf("coverage(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestFillPartialCoverage(t *testing.T) {
	tests := []struct {
		name   string
		shape  []path.Element
		x, y   int
		lo, hi int
	}{
		{"half column", rect(0, 0, 2.5, 4), 2, 1, 120, 136},
		{"half row", rect(0, 0, 4, 1.5), 1, 1, 120, 136},
		{"quarter pixel", rect(0, 0, 1.5, 1.5), 1, 1, 56, 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGrid(4, 4)
			NewRasterizer().Fill(g, path.Edges(tt.shape, 0), NonZero, red)
			if got := g.at(tt.x, tt.y); got < tt.lo || got > tt.hi {
				t.Errorf("coverage = %d, want [%d, %d]", got, tt.lo, tt.hi)
			}
		})
	}
}

func TestFillRules(t *testing.T) {
	// Two squares wound the same way, one inside the other.
	shape := append(rect(0, 0, 8, 8), rect(2, 2, 6, 6)...)
	tests := []struct {
		rule   FillRule
		center int
	}{
		{NonZero, 255},
		{EvenOdd, 0},
	}
	for _, tt := range tests {
		g := newGrid(8, 8)
		NewRasterizer().Fill(g, path.Edges(shape, 0), tt.rule, red)
		if got := g.at(4, 4); got != tt.center {
			t.Errorf("rule %d: center = %d, want %d", tt.rule, got, tt.center)
		}
		if got := g.at(1, 1); got != 255 {
			t.Errorf("rule %d: ring = %d, want 255", tt.rule, got)
		}
	}
}

func TestFillClipsToTarget(t *testing.T) {
	g := newGrid(6, 6)
	// BlendSpan panics on out-of-range spans.
	NewRasterizer().Fill(g, path.Edges(rect(-10, -3.5, 3.25, 20), 0), NonZero, red)
	if got := g.at(0, 0); got != 255 {
		t.Errorf("inside = %d, want 255", got)
	}
	if got := g.at(4, 0); got != 0 {
		t.Errorf("outside = %d, want 0", got)
	}
}

func TestFillSkipsEmpty(t *testing.T) {
	g := newGrid(4, 4)
	r := NewRasterizer()
	r.Fill(g, nil, NonZero, red)
	r.Fill(g, path.Edges(rect(1, 1, 3, 3), 0), NonZero, color.RGBA{})
	r.Fill(g, path.Edges(rect(10, 10, 20, 20), 0), NonZero, red)
	for i, c := range g.cov {
		if c != 0 {
			t.Fatalf("pixel %d covered: %d", i, c)
		}
	}
}

func TestAlphaRunsAccumulate(t *testing.T) {
	ar := newAlphaRuns(8)
	if !ar.empty() {
		t.Fatal("new row not empty")
	}
	off := ar.add(1, 0, 3, 0, 64, 0)
	ar.add(2, 0, 1, 0, 64, 0)
	if ar.empty() {
		t.Fatal("row empty after add")
	}
	want := []uint8{0, 64, 128, 64, 0, 0, 0, 0}
	got := make([]uint8, 8)
	for i := 0; i < 8; {
		n := int(ar.runs[i])
		for j := 0; j < n; j++ {
			got[i+j] = ar.alpha[i]
		}
		i += n
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("alpha = %v, want %v", got, want)
		}
	}
	if off != 4 {
		t.Errorf("offset hint = %d, want 4", off)
	}
	if saturate(256) != 255 || saturate(100) != 100 {
		t.Error("saturate does not clamp 256 to 255")
	}
}
