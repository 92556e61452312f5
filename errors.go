// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sceneframe

import (
	"errors"
	"fmt"

	"github.com/gogpu/sceneframe/coordinator"
	"github.com/gogpu/sceneframe/scene"
	"github.com/gogpu/sceneframe/session"
)

// Error kinds reported by a Producer. Match them with errors.Is.
//
// Load-time errors (ErrResourceUnreadable, ErrSceneCompile,
// ErrInvalidRootNode) leave the producer without a session; the next request
// tries to load again. Per-frame errors (ErrFrameRender, which includes
// ErrContextActivation) leave the session usable for later requests.
var (
	// ErrResourceUnreadable is returned when the scene file cannot be read.
	ErrResourceUnreadable = session.ErrResourceUnreadable

	// ErrSceneCompile is returned when the scene description does not
	// compile. The wrapped *scene.CompileError carries the position.
	ErrSceneCompile = errors.New("sceneframe: scene compile error")

	// ErrInvalidRootNode is returned when the scene root is not a visual item.
	ErrInvalidRootNode = scene.ErrInvalidRoot

	// ErrContextActivation is returned when the render context cannot be
	// made current.
	ErrContextActivation = coordinator.ErrContextActivation

	// ErrFrameRender is returned when a frame could not be produced.
	ErrFrameRender = errors.New("sceneframe: frame render failed")

	// ErrInvalidPosition is returned for a negative frame position.
	ErrInvalidPosition = errors.New("sceneframe: invalid frame position")

	// ErrInvalidSize is returned for a non-positive output size.
	ErrInvalidSize = errors.New("sceneframe: invalid output size")

	// ErrUnsupportedFormat is returned for an unknown pixel format.
	ErrUnsupportedFormat = errors.New("sceneframe: unsupported pixel format")

	// ErrClosed is returned by requests on a closed producer.
	ErrClosed = errors.New("sceneframe: producer closed")
)

// loadError tags errors from opening a session.
func loadError(err error) error {
	var ce *scene.CompileError
	if errors.As(err, &ce) {
		return fmt.Errorf("%w: %w", ErrSceneCompile, err)
	}
	return err
}

// frameError tags errors from rendering a frame.
func frameError(err error) error {
	return fmt.Errorf("%w: %w", ErrFrameRender, err)
}
