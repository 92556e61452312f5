// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"errors"
	"image/color"
	"math"
	"slices"

	"github.com/gogpu/sceneframe/canvas"
	"github.com/gogpu/sceneframe/render"
)

// Window is the logical window a scene is laid out in.
//
// Polish runs on the control thread and leaves a display list that the
// render thread copies through Snapshot while the control thread is blocked.
type Window struct {
	width, height int
	root          *Item
	background    color.NRGBA
	list          *render.DisplayList
}

// NewWindow creates an empty window of size zero.
func NewWindow() *Window {
	return &Window{}
}

// SetGeometry sets the logical window size. The root item follows it on
// the next polish.
func (w *Window) SetGeometry(width, height int) {
	w.width, w.height = max(width, 0), max(height, 0)
}

// Size returns the logical window size.
func (w *Window) Size() (width, height int) {
	return w.width, w.height
}

// SetRoot sets the item tree shown in the window. A nil root clears it.
func (w *Window) SetRoot(root *Item) {
	w.root = root
	w.list = nil
}

// Root returns the root item, or nil.
func (w *Window) Root() *Item {
	return w.root
}

// SetBackground sets the color painted under the scene. Transparent by
// default.
func (w *Window) SetBackground(c color.NRGBA) {
	w.background = c
}

// Polish brings the root item tree up to date at the engine's current time
// and rebuilds the display list.
func (w *Window) Polish(e *Engine) error {
	if e == nil {
		return errors.New("scene: nil engine")
	}
	if e.Closed() {
		return ErrEngineClosed
	}
	list := render.NewDisplayList(float64(w.width), float64(w.height))
	list.Background = premultiply(w.background)
	if w.root == nil {
		w.list = list
		return nil
	}
	in, err := e.instanceOf(w.root)
	if err != nil {
		return err
	}
	e.update(in, float64(w.width), float64(w.height))
	emit(list, w.root, canvas.Identity(), 1)
	w.list = list
	slogger().Debug("scene: polished", "scene", in.name, "ops", list.Len(), "width", w.width, "height", w.height)
	return nil
}

// Snapshot returns the display list of the last polish, or nil before the
// first one. The list must not be modified.
func (w *Window) Snapshot() *render.DisplayList {
	return w.list
}

var _ render.SnapshotSource = (*Window)(nil)

// emit appends the ops of it and its visible descendants.
func emit(list *render.DisplayList, it *Item, parent canvas.Matrix, opacity float64) {
	p := &it.props
	if !p.visible {
		return
	}
	opacity *= math.Max(0, math.Min(p.opacity, 1))
	if opacity == 0 {
		return
	}

	m := parent.Multiply(localTransform(p))
	switch it.spec.typ {
	case TypeRectangle:
		list.Add(render.DrawOp{
			Kind:        render.OpRect,
			Transform:   m,
			Opacity:     opacity,
			Width:       p.width,
			Height:      p.height,
			Color:       premultiply(p.color),
			Radius:      p.radius,
			BorderWidth: p.borderWidth,
			BorderColor: premultiply(p.borderColor),
		})
	case TypeText:
		list.Add(render.DrawOp{
			Kind:      render.OpText,
			Transform: m,
			Opacity:   opacity,
			Width:     p.width,
			Height:    p.height,
			Color:     premultiply(p.color),
			Text:      p.text,
			FontSize:  p.fontSize,
			Bold:      p.bold,
			OriginX:   textOrigin(it),
			Baseline:  it.textAscent,
		})
	case TypeImage:
		if op, ok := imageOp(it, m, opacity); ok {
			list.Add(op)
		}
	case TypeShaderEffect:
		list.Add(render.DrawOp{
			Kind:      render.OpShader,
			Transform: m,
			Opacity:   opacity,
			Width:     p.width,
			Height:    p.height,
			Color:     premultiply(p.fallbackColor),
			Shader:    p.wgsl,
		})
	}

	children := slices.Clone(it.children)
	slices.SortStableFunc(children, func(a, b *Item) int {
		switch {
		case a.props.z < b.props.z:
			return -1
		case a.props.z > b.props.z:
			return 1
		}
		return 0
	})
	for _, c := range children {
		emit(list, c, m, opacity)
	}
}

// localTransform maps item space to parent space. Rotation and scale are
// applied about the item center.
func localTransform(p *props) canvas.Matrix {
	m := canvas.Translate(p.x, p.y)
	if p.rotation == 0 && p.scale == 1 {
		return m
	}
	cx, cy := p.width/2, p.height/2
	return m.Multiply(canvas.Translate(cx, cy)).
		Multiply(canvas.Rotate(canvas.Radians(p.rotation))).
		Multiply(canvas.Scale(p.scale, p.scale)).
		Multiply(canvas.Translate(-cx, -cy))
}

func textOrigin(it *Item) float64 {
	align := it.props.halign
	if align == "" {
		align = "left"
		if it.rtl {
			align = "right"
		}
	}
	switch align {
	case "center":
		return (it.props.width - it.textAdvance) / 2
	case "right":
		return it.props.width - it.textAdvance
	default:
		return 0
	}
}

func imageOp(it *Item, m canvas.Matrix, opacity float64) (render.DrawOp, bool) {
	img := it.spec.image
	p := &it.props
	if img == nil || p.width <= 0 || p.height <= 0 {
		return render.DrawOp{}, false
	}
	op := render.DrawOp{
		Kind:      render.OpImage,
		Transform: m,
		Opacity:   opacity,
		Width:     p.width,
		Height:    p.height,
		Image:     img,
	}
	if p.fillMode == "fit" {
		b := img.Bounds()
		if b.Empty() {
			return render.DrawOp{}, false
		}
		k := math.Min(p.width/float64(b.Dx()), p.height/float64(b.Dy()))
		op.Width, op.Height = float64(b.Dx())*k, float64(b.Dy())*k
		op.Transform = m.Multiply(canvas.Translate((p.width-op.Width)/2, (p.height-op.Height)/2))
	}
	return op, true
}
