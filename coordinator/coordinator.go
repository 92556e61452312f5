// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package coordinator runs all render-context work on one dedicated OS
// thread.
//
// The control goroutine posts commands and blocks on a handoff slot until
// the render thread has served them. Only the render thread touches the
// render context, the render target and the compositor while the
// coordinator runs; ownership of the context moves to the render thread on
// Start and back to the control owner on Stop.
//
//	co, err := coordinator.Start(coordinator.Config{Handle: h, Control: control, Surface: s})
//	if err != nil {
//	    return err
//	}
//	defer co.Stop()
//	if err := co.Initialize(); err != nil {
//	    return err
//	}
//	frame, err := co.Render(coordinator.Request{Width: 640, Height: 360, Source: window})
package coordinator

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gogpu/sceneframe/device"
	"github.com/gogpu/sceneframe/internal/handoff"
	"github.com/gogpu/sceneframe/render"
)

var (
	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("coordinator: already initialized")

	// ErrNotReady is returned by Render before Initialize succeeded.
	ErrNotReady = errors.New("coordinator: not ready")

	// ErrContextActivation is returned when the context cannot be made
	// current on the render thread.
	ErrContextActivation = errors.New("coordinator: context activation failed")

	// ErrStopped is returned for commands posted after Stop.
	ErrStopped = errors.New("coordinator: stopped")

	// ErrInvalidSize is returned for render requests with a non-positive
	// size.
	ErrInvalidSize = errors.New("coordinator: invalid frame size")
)

// State is the lifecycle state of the render thread.
type State int32

// Render thread states.
const (
	StateUninitialized State = iota
	StateReady
	StateRendering
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config configures a coordinator.
type Config struct {
	// Handle is the render context. It must be owned by Control.
	Handle *device.Handle

	// Control is the owner the context is taken from on Start and
	// returned to on Stop.
	Control *device.Owner

	// Surface is the offscreen surface the context is made current on.
	Surface *device.Surface

	// Compositor paints frames. Nil means a new compositor.
	Compositor *render.Compositor

	// QueueSize is the capacity of the command queue. Zero means 8.
	QueueSize int
}

type envelope struct {
	cmd  Command
	slot *handoff.Slot[*render.Frame]
}

// Pending is a posted command whose result may not be ready yet.
type Pending struct {
	slot *handoff.Slot[*render.Frame]
}

// Wait blocks until the command has been served.
// Only Render commands return a frame.
func (p *Pending) Wait() (*render.Frame, error) {
	return p.slot.Wait()
}

// Done reports whether the command has been served.
func (p *Pending) Done() bool {
	return p.slot.Done()
}

// Coordinator owns the render thread.
type Coordinator struct {
	handle     *device.Handle
	control    *device.Owner
	surface    *device.Surface
	compositor *render.Compositor

	queue chan envelope
	done  chan struct{}
	state atomic.Int32

	mu     sync.Mutex // guards closed and sends on queue
	closed bool

	// Render thread only.
	owner    *device.Owner
	ctx      device.Context
	target   render.RenderTarget
	desc     render.TargetDescriptor
	targetID uint64
}

// Start spawns the render thread and moves the context to it.
func Start(cfg Config) (*Coordinator, error) {
	if cfg.Handle == nil {
		return nil, errors.New("coordinator: nil context handle")
	}
	if cfg.Control == nil {
		return nil, errors.New("coordinator: nil control owner")
	}
	if !cfg.Surface.Valid() {
		return nil, device.ErrInvalidSurface
	}
	if cfg.Compositor == nil {
		cfg.Compositor = render.NewCompositor()
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 8
	}

	c := &Coordinator{
		handle:     cfg.Handle,
		control:    cfg.Control,
		surface:    cfg.Surface,
		compositor: cfg.Compositor,
		queue:      make(chan envelope, size),
		done:       make(chan struct{}),
	}

	// Context operations must happen on a single OS thread, so the move is
	// done there and its result passed back through a channel.
	started := make(chan error)
	go c.loop(started)
	if err := <-started; err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Coordinator) loop(started chan<- error) {
	defer close(c.done)
	runtime.LockOSThread()
	// The thread is not unlocked; it exits with the goroutine.

	c.owner = device.NewThreadOwner("render")
	if err := c.handle.MoveTo(c.control, c.owner); err != nil {
		c.state.Store(int32(StateStopped))
		started <- fmt.Errorf("coordinator: take context: %w", err)
		return
	}
	ctx, err := c.handle.Context(c.owner)
	if err != nil {
		_ = c.handle.MoveTo(c.owner, c.control)
		c.state.Store(int32(StateStopped))
		started <- err
		return
	}
	c.ctx = ctx
	slogger().Debug("coordinator: render thread started", "owner", c.owner, "backend", ctx.Name())
	started <- nil

	for env := range c.queue {
		stop := false
		env.slot.Serve(func() (*render.Frame, error) {
			switch cmd := env.cmd.(type) {
			case Initialize:
				return nil, c.initialize()
			case Render:
				return c.render(cmd.Request)
			case Resize:
				slogger().Debug("coordinator: resize ignored", "size", cmd.Size)
				return nil, nil
			case Stop:
				stop = true
				return nil, c.stop()
			default:
				return nil, fmt.Errorf("coordinator: unknown command %T", cmd)
			}
		})
		if stop {
			return
		}
	}
}

// State returns the current render thread state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Done is closed when the render thread has exited.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Post queues cmd for the render thread and returns without waiting.
// Commands are served in the order they are posted.
func (c *Coordinator) Post(cmd Command) *Pending {
	slot := new(handoff.Slot[*render.Frame])
	c.post(cmd, slot)
	return &Pending{slot: slot}
}

func (c *Coordinator) post(cmd Command, slot *handoff.Slot[*render.Frame]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		go slot.Serve(func() (*render.Frame, error) {
			if _, ok := cmd.(Stop); ok {
				return nil, nil
			}
			return nil, ErrStopped
		})
		return
	}
	if _, ok := cmd.(Stop); ok {
		c.closed = true
		defer close(c.queue)
	}
	c.queue <- envelope{cmd: cmd, slot: slot}
}

// call posts cmd while holding the slot lock and waits for the result.
func (c *Coordinator) call(cmd Command) (*render.Frame, error) {
	slot := new(handoff.Slot[*render.Frame])
	return slot.Call(func() { c.post(cmd, slot) })
}

// Initialize runs the Initialize command and waits for it.
func (c *Coordinator) Initialize() error {
	_, err := c.call(Initialize{})
	return err
}

// Render runs a Render command and waits for the frame.
func (c *Coordinator) Render(req Request) (*render.Frame, error) {
	return c.call(Render{Request: req})
}

// Resize runs a Resize command and waits for it.
func (c *Coordinator) Resize(size image.Point) error {
	_, err := c.call(Resize{Size: size})
	return err
}

// Stop runs the Stop command, waits for it, and waits for the render
// thread to exit. Calling Stop again returns nil.
func (c *Coordinator) Stop() error {
	_, err := c.call(Stop{})
	<-c.done
	return err
}

func (c *Coordinator) initialize() error {
	if c.State() != StateUninitialized {
		return ErrAlreadyInitialized
	}
	if err := c.makeCurrent(); err != nil {
		return err
	}
	if err := c.compositor.Initialize(c.ctx.DeviceHandle()); err != nil {
		return fmt.Errorf("coordinator: initialize compositor: %w", err)
	}
	c.state.Store(int32(StateReady))
	slogger().Debug("coordinator: initialized", "backend", c.ctx.Name())
	return nil
}

func (c *Coordinator) makeCurrent() error {
	if err := c.handle.MakeCurrent(c.owner, c.surface); err != nil {
		slogger().Error("coordinator: cannot make context current", "backend", c.ctx.Name(), "err", err)
		return fmt.Errorf("%w: %w", ErrContextActivation, err)
	}
	return nil
}

func (c *Coordinator) render(req Request) (*render.Frame, error) {
	if c.State() != StateReady {
		return nil, ErrNotReady
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, req.Width, req.Height)
	}
	c.state.Store(int32(StateRendering))
	defer c.state.Store(int32(StateReady))

	if err := c.makeCurrent(); err != nil {
		return nil, err
	}
	if err := c.ensureTarget(req.descriptor()); err != nil {
		return nil, err
	}

	dpr := req.DevicePixelRatio
	if dpr <= 0 {
		dpr = 1
	}
	c.compositor.SetDevicePixelRatio(dpr)
	c.compositor.SetRenderTarget(c.target)
	if err := c.compositor.Sync(req.Source); err != nil {
		return nil, fmt.Errorf("coordinator: sync: %w", err)
	}
	if err := c.compositor.Render(); err != nil {
		return nil, fmt.Errorf("coordinator: paint: %w", err)
	}
	if err := c.ctx.Flush(c.target); err != nil {
		return nil, fmt.Errorf("coordinator: flush: %w", err)
	}

	frame := render.NewFrame(c.desc.Width, c.desc.Height)
	frame.Format = c.desc.Format
	frame.TargetID = c.targetID
	if err := c.ctx.ReadPixels(c.target, frame.Pix); err != nil {
		return nil, fmt.Errorf("coordinator: read pixels: %w", err)
	}
	slogger().Debug("coordinator: frame rendered",
		"width", frame.Width,
		"height", frame.Height,
		"target", frame.TargetID)
	return frame, nil
}

// ensureTarget recreates the render target when desc differs from the
// current one. Targets are never resized in place.
func (c *Coordinator) ensureTarget(desc render.TargetDescriptor) error {
	if c.target != nil && c.desc.Matches(desc) {
		return nil
	}
	c.releaseTarget()
	t, err := c.ctx.NewTarget(desc)
	if err != nil {
		return fmt.Errorf("coordinator: create target: %w", err)
	}
	c.target, c.desc = t, desc
	c.targetID++
	slogger().Debug("coordinator: target created", "width", desc.Width, "height", desc.Height, "id", c.targetID)
	return nil
}

func (c *Coordinator) releaseTarget() {
	if c.target == nil {
		return
	}
	c.ctx.ReleaseTarget(c.target)
	c.target = nil
	c.desc = render.TargetDescriptor{}
}

func (c *Coordinator) stop() error {
	defer c.state.Store(int32(StateStopped))

	// Resources are released with the context current where possible; a
	// context that cannot be activated any more is still handed back.
	current := c.handle.MakeCurrent(c.owner, c.surface) == nil
	c.compositor.Invalidate()
	c.releaseTarget()
	if current {
		c.handle.DoneCurrent(c.owner)
	}
	if err := c.handle.MoveTo(c.owner, c.control); err != nil {
		return fmt.Errorf("coordinator: return context: %w", err)
	}
	slogger().Debug("coordinator: stopped")
	return nil
}
