// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device provides the render contexts that back offscreen scene
// rendering, their surfaces, and the exclusive ownership rules between the
// control thread and the render thread.
//
// A Context is created on the control thread, moved to the render thread
// with Handle.MoveTo, used there, and moved back before it is released.
// At most one owner may hold a context current at a time.
package device

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/sceneframe/render"
)

// Context errors.
var (
	// ErrReleased is returned by operations on a released context.
	ErrReleased = errors.New("device: context released")

	// ErrNotCurrent is returned when an operation needs the context to be
	// current on a surface.
	ErrNotCurrent = errors.New("device: context not current")

	// ErrInvalidSurface is returned when making a context current on a nil
	// or destroyed surface.
	ErrInvalidSurface = errors.New("device: invalid surface")

	// ErrForeignTarget is returned for targets created by another context.
	ErrForeignTarget = errors.New("device: target not created by this context")

	// ErrShortBuffer is returned by ReadPixels when dst is too small.
	ErrShortBuffer = errors.New("device: destination buffer too small")
)

// Context is a rendering context able to create offscreen targets and read
// their pixels back.
//
// A Context is not safe for concurrent use; Handle enforces which thread may
// use it.
type Context interface {
	// Name returns the backend name.
	Name() string

	// MakeCurrent binds the context to s for the calling thread.
	MakeCurrent(s *Surface) error

	// DoneCurrent unbinds the context.
	DoneCurrent()

	// DeviceHandle returns the device the compositor renders with.
	DeviceHandle() render.DeviceHandle

	// NewTarget creates an offscreen render target. The context must be
	// current.
	NewTarget(desc render.TargetDescriptor) (render.RenderTarget, error)

	// Flush forces all queued work on t to complete.
	Flush(t render.RenderTarget) error

	// ReadPixels copies the pixels of t into dst, tightly packed RGBA8.
	// dst must hold at least Width*Height*4 bytes.
	ReadPixels(t render.RenderTarget, dst []byte) error

	// ReleaseTarget destroys t. Releasing a nil target is a no-op.
	ReleaseTarget(t render.RenderTarget)

	// Release destroys the context and every target it still owns.
	Release() error
}

// Options configures context creation.
type Options struct {
	// Label is a debug label passed to the backend.
	Label string

	// Format is the color format of targets created by the context.
	// TextureFormatUndefined selects RGBA8.
	Format gputypes.TextureFormat
}

// Surface is an offscreen drawing surface a context can be made current on.
//
// It carries no pixels of its own; targets are created separately.
type Surface struct {
	format gputypes.TextureFormat
	valid  bool
}

// NewSurface creates a valid offscreen surface with the given format.
func NewSurface(format gputypes.TextureFormat) *Surface {
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	return &Surface{format: format, valid: true}
}

// Format returns the surface pixel format.
func (s *Surface) Format() gputypes.TextureFormat { return s.format }

// Valid reports whether the surface can still be made current.
func (s *Surface) Valid() bool { return s != nil && s.valid }

// Destroy invalidates the surface.
func (s *Surface) Destroy() {
	if s != nil {
		s.valid = false
	}
}
