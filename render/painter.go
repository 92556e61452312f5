// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/sceneframe/canvas"
)

// Painter rasterises display lists into RGBA images through a canvas
// context: shapes and glyph outlines are filled by the canvas scanline
// rasterizer, images are resampled bilinearly. Shader ops run through the
// ShaderRenderer when one is set.
//
// Painting is a pure function of the display list and the scale: the same
// inputs produce the same pixels.
//
// Painter is not safe for concurrent use.
type Painter struct {
	shaper  *canvas.Shaper
	shaders ShaderRenderer
}

// NewPainter creates a painter.
func NewPainter() *Painter {
	return &Painter{shaper: canvas.NewShaper()}
}

// Paint draws list into dst with every logical coordinate multiplied by
// scale (the device pixel ratio). dst is not cleared; the list background,
// if any, is composited over it.
func (p *Painter) Paint(dst *image.RGBA, list *DisplayList, scale float64) error {
	if dst == nil {
		return errors.New("render: nil destination")
	}
	if list == nil {
		return nil
	}
	if scale <= 0 {
		scale = 1
	}

	dc := canvas.NewContextForRGBA(dst)
	if list.Background.A != 0 {
		dc.SetColor(list.Background)
		dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
		dc.Fill()
	}

	base := canvas.Scale(scale, scale)
	for i := range list.Ops {
		op := &list.Ops[i]
		alpha := clamp01(op.Opacity)
		if alpha == 0 || op.Width < 0 || op.Height < 0 {
			continue
		}
		dc.SetTransform(base.Multiply(op.Transform))

		var err error
		switch op.Kind {
		case OpRect:
			paintRect(dc, op, alpha)
		case OpShader:
			p.paintShader(dc, op, alpha)
		case OpText:
			err = p.paintText(dc, op, alpha)
		case OpImage:
			if op.Image != nil {
				dc.DrawImage(op.Image, op.Width, op.Height, alpha)
			}
		default:
			err = fmt.Errorf("render: unknown op kind %d", op.Kind)
		}
		if err != nil {
			return fmt.Errorf("render: op %d (%s): %w", i, op.Kind, err)
		}
	}
	return nil
}

func paintRect(dc *canvas.Context, op *DrawOp, alpha float64) {
	w, h := op.Width, op.Height
	if w == 0 || h == 0 {
		return
	}
	r := math.Max(0, math.Min(op.Radius, math.Min(w, h)/2))

	if fill := fade(op.Color, alpha); fill.A != 0 {
		dc.SetColor(fill)
		dc.SetFillRule(canvas.FillRuleNonZero)
		dc.DrawRoundedRectangle(0, 0, w, h, r)
		dc.Fill()
	}

	bw := math.Min(op.BorderWidth, math.Min(w, h)/2)
	if bw <= 0 {
		return
	}
	stroke := fade(op.BorderColor, alpha)
	if stroke.A == 0 {
		return
	}
	// The border is the ring between the outer shape and the inset one.
	dc.SetColor(stroke)
	dc.SetFillRule(canvas.FillRuleEvenOdd)
	dc.DrawRoundedRectangle(0, 0, w, h, r)
	if w > 2*bw && h > 2*bw {
		dc.DrawRoundedRectangle(bw, bw, w-2*bw, h-2*bw, math.Max(0, r-bw))
	}
	dc.Fill()
	dc.SetFillRule(canvas.FillRuleNonZero)
}

func (p *Painter) paintText(dc *canvas.Context, op *DrawOp, alpha float64) error {
	if op.Text == "" || op.FontSize <= 0 {
		return nil
	}
	col := fade(op.Color, alpha)
	if col.A == 0 {
		return nil
	}
	line, err := p.shaper.Shape(op.Text, op.FontSize, op.Bold)
	if err != nil {
		return err
	}
	dc.SetColor(col)
	dc.DrawText(&line, op.OriginX, op.Baseline)
	return nil
}

// fade scales a premultiplied color by alpha.
func fade(c color.RGBA, alpha float64) color.RGBA {
	if alpha >= 1 {
		return c
	}
	mul := func(v uint8) uint8 { return uint8(math.Round(float64(v) * alpha)) }
	return color.RGBA{R: mul(c.R), G: mul(c.G), B: mul(c.B), A: mul(c.A)}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return 1
	default:
		return v
	}
}
