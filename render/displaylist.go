// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"slices"

	"github.com/gogpu/sceneframe/canvas"
)

// OpKind identifies the type of a draw operation.
type OpKind uint8

// Draw operation kinds.
const (
	// OpRect fills a (possibly rounded, possibly bordered) rectangle.
	OpRect OpKind = iota

	// OpText draws a single line of text.
	OpText

	// OpImage draws a decoded image scaled into its box.
	OpImage

	// OpShader draws a shader effect item. Without a ShaderRenderer, or
	// when the shader fails, the item box is filled with the op's fallback
	// color.
	OpShader
)

// String returns the op kind name.
func (k OpKind) String() string {
	switch k {
	case OpRect:
		return "rect"
	case OpText:
		return "text"
	case OpImage:
		return "image"
	case OpShader:
		return "shader"
	default:
		return "unknown"
	}
}

// DrawOp is one paint operation in item-local coordinates.
//
// The box of every op is (0, 0)-(Width, Height) in local space; Transform
// maps local space to logical window space.
type DrawOp struct {
	Kind      OpKind
	Transform canvas.Matrix
	Opacity   float64

	Width  float64
	Height float64

	// Color is the fill color for rect, text and shader fallback ops.
	Color color.RGBA

	// Radius is the corner radius of rect ops.
	Radius float64

	// BorderWidth and BorderColor describe the rect outline.
	BorderWidth float64
	BorderColor color.RGBA

	// Text, FontSize and Bold describe text ops. OriginX and Baseline locate
	// the start of the text run in local space.
	Text     string
	FontSize float64
	Bold     bool
	OriginX  float64
	Baseline float64

	// Image is the source of image ops.
	Image image.Image

	// Shader is the WGSL source of shader ops.
	Shader string
}

// DisplayList is an immutable-after-build list of draw operations covering a
// logical window of Width x Height.
type DisplayList struct {
	Width  float64
	Height float64

	// Background is painted before any op. Transparent by default.
	Background color.RGBA

	Ops []DrawOp
}

// NewDisplayList creates an empty display list for a window of the given
// logical size.
func NewDisplayList(width, height float64) *DisplayList {
	return &DisplayList{Width: width, Height: height}
}

// Add appends op.
func (l *DisplayList) Add(op DrawOp) {
	l.Ops = append(l.Ops, op)
}

// Len returns the number of ops.
func (l *DisplayList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Ops)
}

// Clone returns a copy of the list that shares no op storage with l.
// Images are shared; they are never modified after decoding.
func (l *DisplayList) Clone() *DisplayList {
	if l == nil {
		return nil
	}
	c := *l
	c.Ops = slices.Clone(l.Ops)
	return &c
}

// SnapshotSource supplies the display list the compositor syncs from.
type SnapshotSource interface {
	Snapshot() *DisplayList
}
