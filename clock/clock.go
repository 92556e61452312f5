// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package clock provides the virtual animation clock used to drive scene
// time in fixed, frame-accurate steps.
//
// A VirtualClock never reads the wall clock. Each call to Advance moves the
// elapsed time forward by exactly one step and asks the installed host to
// update its animations for the new time. Rendering the same scene with the
// same step therefore produces the same frames no matter how long each frame
// took to render.
//
//	c := clock.New(clock.Timing{FPS: 24, Duration: 5 * time.Second}.CorrectedStep(clock.DefaultCorrection))
//	if err := c.Install(engine); err != nil {
//	    return err
//	}
//	defer c.Uninstall()
//
//	c.Advance() // engine animations now see c.Elapsed() == c.Step()
package clock

import (
	"errors"
	"time"
)

// TimeSource reports the current animation time.
type TimeSource interface {
	Elapsed() time.Duration
}

// Host is the scene engine side of the clock installation.
//
// SetTimeSource replaces the host's time source; ResetTimeSource restores
// the host's default (wall-clock) source. AdvanceAnimations applies every
// running animation at the given elapsed time.
type Host interface {
	SetTimeSource(ts TimeSource)
	ResetTimeSource()
	AdvanceAnimations(elapsed time.Duration)
}

var (
	// ErrInstalled is returned by Install when the clock is already installed.
	ErrInstalled = errors.New("clock: already installed")

	// ErrNotInstalled is returned by Uninstall when the clock has no host.
	ErrNotInstalled = errors.New("clock: not installed")
)

// VirtualClock is a deterministic, step-based time source.
//
// The zero value is not usable; create clocks with New.
// VirtualClock is not safe for concurrent use. It belongs to the control
// thread of a render session.
type VirtualClock struct {
	step    time.Duration
	elapsed time.Duration
	host    Host
}

// New creates a clock that advances by step on every Advance call.
// A non-positive step is allowed; such a clock never moves.
func New(step time.Duration) *VirtualClock {
	return &VirtualClock{step: step}
}

// Step returns the fixed step duration.
func (c *VirtualClock) Step() time.Duration {
	return c.step
}

// Elapsed returns the current virtual time.
func (c *VirtualClock) Elapsed() time.Duration {
	return c.elapsed
}

// Advance moves the clock forward by one step and updates the host's
// animations for the new elapsed time.
func (c *VirtualClock) Advance() {
	if c.step > 0 {
		c.elapsed += c.step
	}
	if c.host != nil {
		c.host.AdvanceAnimations(c.elapsed)
	}
}

// Install makes the clock the sole time source of host.
func (c *VirtualClock) Install(host Host) error {
	if c.host != nil {
		return ErrInstalled
	}
	if host == nil {
		return errors.New("clock: nil host")
	}
	c.host = host
	host.SetTimeSource(c)
	return nil
}

// Uninstall restores the host's default time source.
// It must be called before the host is torn down.
func (c *VirtualClock) Uninstall() error {
	if c.host == nil {
		return ErrNotInstalled
	}
	c.host.ResetTimeSource()
	c.host = nil
	return nil
}

var _ TimeSource = (*VirtualClock)(nil)

// Installed reports whether the clock currently drives a host.
func (c *VirtualClock) Installed() bool {
	return c.host != nil
}
