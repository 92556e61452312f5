// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sceneframe

import (
	"github.com/gogpu/sceneframe/clock"
	"github.com/gogpu/sceneframe/device"
	"github.com/gogpu/sceneframe/session"
)

// Option configures a Producer during creation.
//
// Example:
//
//	// Software rendering at twice the logical resolution
//	p, err := sceneframe.NewProducer("title.yaml",
//	    sceneframe.WithBackend("software"),
//	    sceneframe.WithDevicePixelRatio(2))
type Option func(*options)

// options holds optional configuration for Producer creation.
type options struct {
	backend      string
	dpr          float64
	correction   int
	autoDuration bool
	registry     *device.Registry
}

// defaultOptions returns the default producer options.
func defaultOptions() options {
	return options{
		dpr:        1,
		correction: clock.DefaultCorrection,
	}
}

// WithBackend selects a device backend by name, for example "software"
// or "vulkan". By default the best available backend is used.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithDevicePixelRatio renders frames at ratio times the requested size
// and scales them down to the requested size.
// Non-positive ratios are ignored.
func WithDevicePixelRatio(ratio float64) Option {
	return func(o *options) {
		if ratio > 0 {
			o.dpr = ratio
		}
	}
}

// WithFrameCorrection sets the number of frames subtracted from the frame
// count when the animation clock step is computed.
// The default is clock.DefaultCorrection.
func WithFrameCorrection(frames int) Option {
	return func(o *options) {
		o.correction = frames
	}
}

// WithAutoDuration makes requests without a duration use the animation
// length discovered in the scene.
func WithAutoDuration() Option {
	return func(o *options) {
		o.autoDuration = true
	}
}

// WithRegistry sets the backend registry. By default device.Default() is
// used.
func WithRegistry(r *device.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

func (o options) sessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.Backend = o.backend
	cfg.DevicePixelRatio = o.dpr
	cfg.Correction = o.correction
	cfg.Registry = o.registry
	return cfg
}
