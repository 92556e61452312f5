// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/sceneframe/render"
)

// SoftwareName is the registry name of the CPU backend.
const SoftwareName = "software"

func init() {
	Register(SoftwareName, 10, func(opts Options) (Context, error) {
		return NewSoftwareContext(), nil
	}, nil)
}

// SoftwareContext is a CPU render context. Targets are plain pixmaps,
// Flush has nothing to wait for, and ReadPixels copies rows.
type SoftwareContext struct {
	current  *Surface
	released bool
	targets  map[*render.PixmapTarget]struct{}
}

// NewSoftwareContext creates a CPU render context.
func NewSoftwareContext() *SoftwareContext {
	return &SoftwareContext{targets: make(map[*render.PixmapTarget]struct{})}
}

// Name returns "software".
func (c *SoftwareContext) Name() string { return SoftwareName }

// MakeCurrent binds the context to s.
func (c *SoftwareContext) MakeCurrent(s *Surface) error {
	if c.released {
		return ErrReleased
	}
	if !s.Valid() {
		return ErrInvalidSurface
	}
	c.current = s
	return nil
}

// DoneCurrent unbinds the context.
func (c *SoftwareContext) DoneCurrent() { c.current = nil }

// DeviceHandle returns render.NullDeviceHandle.
func (c *SoftwareContext) DeviceHandle() render.DeviceHandle {
	return render.NullDeviceHandle{}
}

// NewTarget creates a pixmap target.
func (c *SoftwareContext) NewTarget(desc render.TargetDescriptor) (render.RenderTarget, error) {
	if c.released {
		return nil, ErrReleased
	}
	if c.current == nil {
		return nil, ErrNotCurrent
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("device: invalid target size %dx%d", desc.Width, desc.Height)
	}
	t := render.NewPixmapTargetWithDescriptor(desc)
	c.targets[t] = struct{}{}
	return t, nil
}

// Flush validates t; CPU painting has already completed.
func (c *SoftwareContext) Flush(t render.RenderTarget) error {
	_, err := c.own(t)
	return err
}

// ReadPixels copies t row by row into dst.
func (c *SoftwareContext) ReadPixels(t render.RenderTarget, dst []byte) error {
	pt, err := c.own(t)
	if err != nil {
		return err
	}
	return copyRows(dst, pt.Pixels(), pt.Width(), pt.Height(), pt.Stride())
}

// ReleaseTarget forgets t.
func (c *SoftwareContext) ReleaseTarget(t render.RenderTarget) {
	if pt, ok := t.(*render.PixmapTarget); ok {
		delete(c.targets, pt)
	}
}

// Release drops every target.
func (c *SoftwareContext) Release() error {
	c.targets = nil
	c.current = nil
	c.released = true
	return nil
}

// Targets returns the number of live targets.
func (c *SoftwareContext) Targets() int { return len(c.targets) }

func (c *SoftwareContext) own(t render.RenderTarget) (*render.PixmapTarget, error) {
	if c.released {
		return nil, ErrReleased
	}
	pt, ok := t.(*render.PixmapTarget)
	if !ok {
		return nil, ErrForeignTarget
	}
	if _, ok := c.targets[pt]; !ok {
		return nil, ErrForeignTarget
	}
	return pt, nil
}

// copyRows copies a width x height RGBA8 image with the given source stride
// into dst, tightly packed.
func copyRows(dst, src []byte, width, height, stride int) error {
	row := width * 4
	if len(dst) < row*height {
		return ErrShortBuffer
	}
	if stride == row {
		copy(dst, src[:row*height])
		return nil
	}
	for y := 0; y < height; y++ {
		copy(dst[y*row:(y+1)*row], src[y*stride:y*stride+row])
	}
	return nil
}

var _ Context = (*SoftwareContext)(nil)
