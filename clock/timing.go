// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package clock

import (
	"math"
	"time"
)

// DefaultCorrection is the number of frames subtracted from the frame count
// before the corrected frame rate is computed.
//
// Scene animations assume a 60 fps cadence and overshoot by about two frames
// when stepped at other rates. The value is empirical; use a different
// correction through Timing.CorrectedStep when a scene needs it.
const DefaultCorrection = 2

// Timing describes the frame rate and length of an animated scene.
type Timing struct {
	// FPS is the output frame rate.
	FPS float64

	// Duration is the animation length.
	Duration time.Duration
}

// Animated reports whether the timing describes an animation.
func (t Timing) Animated() bool {
	return t.Duration > 0 && t.FPS > 0
}

// TotalFrames returns the number of frames in the animation:
// floor(fps * seconds).
func (t Timing) TotalFrames() int {
	if !t.Animated() {
		return 0
	}
	// The epsilon keeps products such as 29.97*10 from truncating one short.
	return int(math.Floor(t.FPS*t.Duration.Seconds() + 1e-9))
}

// NominalStep returns the uncorrected step, 1000/fps milliseconds in
// integer arithmetic.
func (t Timing) NominalStep() time.Duration {
	fps := int(t.FPS)
	if fps <= 0 {
		return time.Second
	}
	return time.Duration(1000/fps) * time.Millisecond
}

// CorrectedStep returns the clock step for an animated render.
//
// The frame count is reduced by correction frames and divided by the whole
// number of seconds to obtain the corrected frame rate; the step is 1000
// divided by that rate, in whole milliseconds. All divisions are integer
// divisions. When the corrected rate is not positive the nominal step is
// used instead.
func (t Timing) CorrectedStep(correction int) time.Duration {
	seconds := int(t.Duration / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	correctedFPS := (t.TotalFrames() - correction) / seconds
	if correctedFPS <= 0 {
		return t.NominalStep()
	}
	return time.Duration(1000/correctedFPS) * time.Millisecond
}
