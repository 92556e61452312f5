// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sequencer drives render cycles in static and animated mode.
//
// A cycle is one polish on the control thread followed by one blocking
// render on the render thread. Animated mode repeats cycles, advancing the
// virtual clock by one step after each, until the requested frame has been
// rendered or the frame count is exhausted.
package sequencer

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/sceneframe/render"
)

var (
	// ErrNegativeFrame is returned for a negative requested frame index.
	ErrNegativeFrame = errors.New("sequencer: negative frame index")

	// ErrNoFrames is returned when the animation has no frames.
	ErrNoFrames = errors.New("sequencer: no frames to render")

	// ErrBusy is returned when a sequence is started while another one runs.
	ErrBusy = errors.New("sequencer: sequence already running")
)

// Polisher updates the scene on the control thread.
type Polisher interface {
	Polish() error
}

// FrameRenderer runs one blocking render cycle and returns its pixels.
type FrameRenderer interface {
	RenderFrame() (*render.Frame, error)
}

// Stepper advances the animation clock by one step.
type Stepper interface {
	Advance()
}

// State is the progress of the current or last sequence.
type State struct {
	Current   int
	Requested int
	Total     int
}

// Sequencer runs render cycles. It is used from the control thread only;
// a second sequence started while one runs fails with ErrBusy.
type Sequencer struct {
	polisher Polisher
	renderer FrameRenderer
	stepper  Stepper

	running atomic.Bool
	state   State
	cycles  int
}

// New creates a sequencer. stepper may be nil for static-only use.
func New(p Polisher, r FrameRenderer, s Stepper) *Sequencer {
	return &Sequencer{polisher: p, renderer: r, stepper: s}
}

// State returns the progress of the current or last sequence.
func (s *Sequencer) State() State {
	return s.state
}

// Cycles returns the number of render cycles of the last sequence.
func (s *Sequencer) Cycles() int {
	return s.cycles
}

// RenderStatic polishes once and renders once.
func (s *Sequencer) RenderStatic() (*render.Frame, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	s.state = State{Total: 1}
	s.cycles = 0
	return s.cycle()
}

// RenderAnimated renders frames 0, 1, ... advancing the clock after each,
// and returns the frame at index requested. When requested is at or past
// total the last frame (index total-1) is returned instead.
func (s *Sequencer) RenderAnimated(requested, total int) (*render.Frame, error) {
	if requested < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeFrame, requested)
	}
	if total <= 0 {
		return nil, ErrNoFrames
	}
	if s.stepper == nil {
		return nil, errors.New("sequencer: no clock to advance")
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	s.state = State{Requested: requested, Total: total}
	s.cycles = 0
	for {
		frame, err := s.cycle()
		if err != nil {
			return nil, err
		}
		s.stepper.Advance()
		if s.state.Current == requested {
			return frame, nil
		}
		s.state.Current++
		if s.state.Current == total {
			return frame, nil
		}
	}
}

func (s *Sequencer) cycle() (*render.Frame, error) {
	if err := s.polisher.Polish(); err != nil {
		return nil, fmt.Errorf("sequencer: polish frame %d: %w", s.state.Current, err)
	}
	frame, err := s.renderer.RenderFrame()
	s.cycles++
	if err != nil {
		return nil, fmt.Errorf("sequencer: render frame %d: %w", s.state.Current, err)
	}
	return frame, nil
}
