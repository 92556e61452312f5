// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package canvas is a small immediate-mode 2D drawing API over RGBA images.
//
// Paths of lines and Bézier curves are flattened and filled by an
// anti-aliased scanline rasterizer under an affine transform. Text is shaped
// with HarfBuzz and drawn as glyph outlines through the same rasterizer, so
// the advances used for layout are the ones drawn. Images are resampled
// with golang.org/x/image/draw.
//
//	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
//	dc := canvas.NewContextForRGBA(img)
//	dc.SetColor(color.RGBA{R: 255, A: 255})
//	dc.DrawRoundedRectangle(10, 10, 180, 80, 12)
//	dc.Fill()
package canvas
