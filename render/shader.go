// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"math"

	"github.com/gogpu/sceneframe/canvas"
)

// ShaderRenderer runs the fragment stage of a WGSL module over a
// width x height pixel grid and returns the premultiplied result.
//
// The module must declare a fragment entry point named fs_main writing
// @location(0). A vertex entry point named vs_main is optional; when it is
// absent a full-screen triangle is supplied.
//
// Device handles that can execute shaders implement ShaderRenderer; the
// compositor picks it up in Initialize.
type ShaderRenderer interface {
	RenderShader(wgsl string, width, height int) (*image.RGBA, error)
}

// maxShaderSize bounds one side of a shader render.
const maxShaderSize = 4096

// SetShaderRenderer sets the renderer used for shader ops. With a nil
// renderer shader ops are filled with their fallback color.
func (p *Painter) SetShaderRenderer(r ShaderRenderer) {
	p.shaders = r
}

// paintShader draws a shader op through the shader renderer, falling back
// to the op color when there is none or the shader cannot run.
func (p *Painter) paintShader(dc *canvas.Context, op *DrawOp, alpha float64) {
	if p.shaders == nil || op.Shader == "" || op.Width == 0 || op.Height == 0 {
		paintRect(dc, op, alpha)
		return
	}
	k := dc.GetTransform().ScaleFactor()
	w := int(math.Ceil(op.Width * k))
	h := int(math.Ceil(op.Height * k))
	if w <= 0 || h <= 0 || w > maxShaderSize || h > maxShaderSize {
		paintRect(dc, op, alpha)
		return
	}
	img, err := p.shaders.RenderShader(op.Shader, w, h)
	if err != nil {
		slogger().Debug("render: shader fallback", "width", w, "height", h, "err", err)
		paintRect(dc, op, alpha)
		return
	}
	dc.DrawImage(img, op.Width, op.Height, alpha)
}
