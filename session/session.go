// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package session ties a compiled scene to a render thread.
//
// A Session owns everything one scene needs to produce frames: the scene
// engine and its logical window on the control thread, and the render
// context, surface and coordinator on the render thread. A Session is not
// safe for concurrent use; its caller is the control thread.
//
//	s, err := session.OpenFile("title.yaml", session.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	timing := clock.Timing{FPS: 25, Duration: 4 * time.Second}
//	frame, err := s.RenderAnimated(1280, 720, 50, timing)
package session

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/sceneframe/clock"
	"github.com/gogpu/sceneframe/coordinator"
	"github.com/gogpu/sceneframe/device"
	"github.com/gogpu/sceneframe/render"
	"github.com/gogpu/sceneframe/scene"
	"github.com/gogpu/sceneframe/sequencer"
)

var (
	// ErrResourceUnreadable is returned by OpenFile when the scene file
	// cannot be read.
	ErrResourceUnreadable = errors.New("session: scene resource unreadable")

	// ErrClosed is returned by renders on a closed session.
	ErrClosed = errors.New("session: closed")
)

// Config configures a session.
type Config struct {
	// Backend names the device backend. Empty selects the best available
	// one from Registry.
	Backend string

	// DevicePixelRatio scales frames from logical to physical pixels.
	// Non-positive values mean 1.
	DevicePixelRatio float64

	// Correction is the frame-count correction used to compute the clock
	// step of animated renders. See clock.Timing.CorrectedStep.
	Correction int

	// Format is the pixel format of rendered frames.
	// TextureFormatUndefined means RGBA8.
	Format gputypes.TextureFormat

	// Registry provides the backends. Nil means device.Default().
	Registry *device.Registry
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		DevicePixelRatio: 1,
		Correction:       clock.DefaultCorrection,
		Format:           gputypes.TextureFormatRGBA8Unorm,
	}
}

// Session renders frames of one compiled scene.
type Session struct {
	cfg       Config
	component *scene.Component

	// Control thread.
	engine  *scene.Engine
	window  *scene.Window
	static  *scene.Item
	clock   *clock.VirtualClock
	control *device.Owner

	// Handed to the render thread by the coordinator.
	handle  *device.Handle
	surface *device.Surface
	co      *coordinator.Coordinator
	backend string

	last   sequencer.State
	cycles int
	closed bool
}

// OpenFile reads and compiles the scene at path and opens a session for it.
func OpenFile(path string, cfg Config) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnreadable, err)
	}
	return Open(path, data, cfg)
}

// Open compiles a scene description and starts its render thread.
// name is used in compile errors and to resolve relative image sources.
//
// Compile errors, backend errors and initialization failures are returned
// without leaving any resources behind.
func Open(name string, data []byte, cfg Config) (*Session, error) {
	component, err := scene.Load(name, data)
	if err != nil {
		return nil, err
	}

	registry := cfg.Registry
	if registry == nil {
		registry = device.Default()
	}
	opts := device.Options{Label: "sceneframe", Format: cfg.Format}
	var ctx device.Context
	if cfg.Backend != "" {
		ctx, err = registry.NewContextByName(cfg.Backend, opts)
	} else {
		ctx, err = registry.NewContext(opts)
	}
	if err != nil {
		return nil, fmt.Errorf("session: create context: %w", err)
	}

	s := &Session{
		cfg:       cfg,
		component: component,
		engine:    scene.NewEngine(),
		window:    scene.NewWindow(),
		control:   device.NewOwner("control"),
		surface:   device.NewSurface(cfg.Format),
		backend:   ctx.Name(),
	}
	s.handle = device.NewHandle(ctx, s.control)

	s.co, err = coordinator.Start(coordinator.Config{
		Handle:  s.handle,
		Control: s.control,
		Surface: s.surface,
	})
	if err != nil {
		s.teardown()
		return nil, err
	}
	if err := s.co.Initialize(); err != nil {
		_ = s.co.Stop()
		s.teardown()
		return nil, fmt.Errorf("session: initialize: %w", err)
	}
	if err := s.install(clock.New(0)); err != nil {
		_ = s.co.Stop()
		s.teardown()
		return nil, err
	}

	slogger().Info("session: opened",
		"scene", name,
		"backend", s.backend,
		"duration", component.Duration())
	return s, nil
}

// Component returns the compiled scene.
func (s *Session) Component() *scene.Component { return s.component }

// Duration returns the discovered animation length of the scene.
func (s *Session) Duration() time.Duration { return s.component.Duration() }

// Backend returns the name of the device backend in use.
func (s *Session) Backend() string { return s.backend }

// Engine returns the scene engine of the session.
func (s *Session) Engine() *scene.Engine { return s.engine }

// Progress returns the sequencer state of the last render.
func (s *Session) Progress() sequencer.State { return s.last }

// Cycles returns the number of render cycles of the last render.
func (s *Session) Cycles() int { return s.cycles }

// SetFormat changes the pixel format of subsequent frames.
func (s *Session) SetFormat(format gputypes.TextureFormat) {
	s.cfg.Format = format
}

// RenderStatic renders the scene in its initial state.
//
// The item tree is created on the first static render and reused by later
// ones; animations stay at time zero.
func (s *Session) RenderStatic(width, height int) (*render.Frame, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.static == nil {
		root, err := s.engine.Create(s.component)
		if err != nil {
			return nil, err
		}
		s.static = root
	}
	s.window.SetGeometry(width, height)
	s.window.SetRoot(s.static)

	seq := s.sequencer(width, height, nil)
	frame, err := seq.RenderStatic()
	s.record(seq)
	return frame, err
}

// RenderAnimated renders frame index frame of the animation described by
// timing. Frames 0 through frame are rendered in order on a fresh item tree
// driven by a fresh virtual clock; a frame at or past the end returns the
// last frame.
func (s *Session) RenderAnimated(width, height, frame int, timing clock.Timing) (*render.Frame, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if frame < 0 {
		return nil, fmt.Errorf("%w: %d", sequencer.ErrNegativeFrame, frame)
	}
	total := timing.TotalFrames()
	if total <= 0 {
		return nil, fmt.Errorf("%w: %v at %g fps", sequencer.ErrNoFrames, timing.Duration, timing.FPS)
	}

	root, err := s.engine.Create(s.component)
	if err != nil {
		return nil, err
	}
	defer root.Destroy()

	vc := clock.New(timing.CorrectedStep(s.cfg.Correction))
	if err := s.install(vc); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.install(clock.New(0)); err != nil {
			slogger().Warn("session: restore static clock", "err", err)
		}
	}()

	s.window.SetGeometry(width, height)
	s.window.SetRoot(root)
	defer s.window.SetRoot(nil)

	slogger().Debug("session: animated render",
		"scene", s.component.Name(),
		"frame", frame,
		"total", total,
		"step", vc.Step())

	seq := s.sequencer(width, height, vc)
	out, err := seq.RenderAnimated(frame, total)
	s.record(seq)
	return out, err
}

// Close stops the render thread, takes the context back and releases
// everything the session owns. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.co.Stop()
	err = errors.Join(err, s.teardown())
	slogger().Info("session: closed", "scene", s.component.Name(), "warnings", s.engine.Warnings())
	return err
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed }

// install replaces the clock driving the engine.
func (s *Session) install(c *clock.VirtualClock) error {
	if s.clock != nil {
		if err := s.clock.Uninstall(); err != nil {
			return err
		}
		s.clock = nil
	}
	if err := c.Install(s.engine); err != nil {
		return err
	}
	s.clock = c
	return nil
}

// teardown releases control-thread resources. The render thread must have
// been stopped or never started.
func (s *Session) teardown() error {
	var err error
	if s.clock != nil {
		err = s.clock.Uninstall()
		s.clock = nil
	}
	if s.static != nil {
		s.static.Destroy()
		s.static = nil
	}
	s.window.SetRoot(nil)
	err = errors.Join(err, s.handle.Release(s.control))
	s.surface.Destroy()
	s.engine.Close()
	return err
}

func (s *Session) sequencer(width, height int, stepper sequencer.Stepper) *sequencer.Sequencer {
	r := &renderer{co: s.co, window: s.window, cfg: s.cfg, width: width, height: height}
	p := &polisher{window: s.window, engine: s.engine}
	return sequencer.New(p, r, stepper)
}

func (s *Session) record(seq *sequencer.Sequencer) {
	s.last = seq.State()
	s.cycles = seq.Cycles()
}

type polisher struct {
	window *scene.Window
	engine *scene.Engine
}

func (p *polisher) Polish() error { return p.window.Polish(p.engine) }

type renderer struct {
	co     *coordinator.Coordinator
	window *scene.Window
	cfg    Config
	width  int
	height int
}

func (r *renderer) RenderFrame() (*render.Frame, error) {
	return r.co.Render(coordinator.Request{
		Width:            r.width,
		Height:           r.height,
		DevicePixelRatio: r.cfg.DevicePixelRatio,
		Format:           r.cfg.Format,
		Source:           r.window,
	})
}
