// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sceneframe

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/gogpu/sceneframe/clock"
	"github.com/gogpu/sceneframe/internal/cache"
	"github.com/gogpu/sceneframe/render"
	"github.com/gogpu/sceneframe/session"
)

// Reload selects how much of the scene a request rebuilds before rendering.
type Reload int

const (
	// ReloadNone keeps the current session.
	ReloadNone Reload = iota
	// ReloadRebuild recompiles the scene from the data already read and
	// recreates the session.
	ReloadRebuild
	// ReloadFile re-reads the scene file first. Larger values behave the
	// same.
	ReloadFile
)

// Request describes one frame asked for by the host.
type Request struct {
	// Width and Height are the output size.
	Width  int
	Height int

	// RescaleWidth and RescaleHeight override Width and Height when
	// positive.
	RescaleWidth  int
	RescaleHeight int

	// Format is the pixel layout of the returned image.
	Format Format

	// Position is the frame index for animated scenes. It must not be
	// negative; positions past the end return the last frame.
	Position int

	// FPS and Duration describe the animation. The request is animated
	// when both are positive.
	FPS      float64
	Duration time.Duration

	// ForceReload rebuilds the session, and with ReloadFile re-reads the
	// scene file, before rendering.
	ForceReload Reload

	// WantAlpha asks for a separate copy of the alpha channel.
	WantAlpha bool
}

// size returns the output size after rescale overrides.
func (r Request) size() (int, int) {
	w, h := r.Width, r.Height
	if r.RescaleWidth > 0 {
		w = r.RescaleWidth
	}
	if r.RescaleHeight > 0 {
		h = r.RescaleHeight
	}
	return w, h
}

// Producer renders frames of one scene file for a host media pipeline.
//
// The scene file is read once by NewProducer. The render session is
// created on the first request and kept until Close or a forced reload.
// Static frames of the most recently used output sizes are cached; animated
// frames are rendered on every request. A Producer is safe for concurrent
// use; requests are served one at a time.
type Producer struct {
	mu       sync.Mutex
	resource string
	data     []byte
	opts     options
	sess     *session.Session
	cache    *cache.Cache[image.Point, *render.Frame]
	closed   bool
}

// maxStaticFrames bounds the number of output sizes kept in the static cache.
const maxStaticFrames = 8

// NewProducer reads the scene file at resource.
func NewProducer(resource string, opts ...Option) (*Producer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	data, err := os.ReadFile(resource)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnreadable, err)
	}
	return &Producer{
		resource: resource,
		data:     data,
		opts:     o,
		cache:    cache.New[image.Point, *render.Frame](maxStaticFrames),
	}, nil
}

// Resource returns the scene file path.
func (p *Producer) Resource() string { return p.resource }

// GetImage renders the frame described by req.
func (p *Producer) GetImage(req Request) (*Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	width, height := req.size()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if req.Position < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, req.Position)
	}
	if req.Format.BytesPerPixel() == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, req.Format)
	}

	if req.ForceReload > ReloadNone {
		if err := p.reload(req.ForceReload >= ReloadFile); err != nil {
			return nil, err
		}
	}
	s, err := p.session()
	if err != nil {
		return nil, err
	}

	timing := clock.Timing{FPS: req.FPS, Duration: req.Duration}
	if timing.Duration <= 0 && p.opts.autoDuration {
		timing.Duration = s.Duration()
	}

	var frame *render.Frame
	if timing.Animated() {
		s.SetFormat(req.Format.textureFormat())
		frame, err = s.RenderAnimated(width, height, req.Position, timing)
		if err != nil {
			return nil, frameError(err)
		}
		Logger().Debug("sceneframe: animated frame",
			"resource", p.resource,
			"position", req.Position,
			"cycles", s.Cycles())
	} else {
		frame, err = p.static(s, width, height, req.Format)
		if err != nil {
			return nil, frameError(err)
		}
	}
	return convert(frame, width, height, req.Format, req.WantAlpha)
}

// static returns the cached static frame for the size, rendering it first
// if needed.
func (p *Producer) static(s *session.Session, width, height int, format Format) (*render.Frame, error) {
	key := image.Pt(width, height)
	if f, ok := p.cache.Get(key); ok {
		Logger().Debug("sceneframe: static frame cached", "width", width, "height", height)
		return f, nil
	}
	s.SetFormat(format.textureFormat())
	f, err := s.RenderStatic(width, height)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, f)
	return f, nil
}

// session returns the render session, opening it if needed.
func (p *Producer) session() (*session.Session, error) {
	if p.sess != nil {
		return p.sess, nil
	}
	s, err := session.Open(p.resource, p.data, p.opts.sessionConfig())
	if err != nil {
		return nil, loadError(err)
	}
	p.sess = s
	Logger().Info("sceneframe: session created", "resource", p.resource, "backend", s.Backend())
	return s, nil
}

// reload drops the session and the cache, re-reading the scene file first
// when fromFile is set. A failed read keeps the current session.
func (p *Producer) reload(fromFile bool) error {
	data := p.data
	if fromFile {
		var err error
		if data, err = os.ReadFile(p.resource); err != nil {
			return fmt.Errorf("%w: %w", ErrResourceUnreadable, err)
		}
	}
	err := p.drop()
	p.data = data
	Logger().Info("sceneframe: reloaded", "resource", p.resource, "file", fromFile, "bytes", len(data))
	return err
}

func (p *Producer) drop() error {
	p.cache.Clear()
	if p.sess == nil {
		return nil
	}
	err := p.sess.Close()
	p.sess = nil
	return err
}

// Duration returns the animation length discovered in the scene, loading
// the scene if needed.
func (p *Producer) Duration() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrClosed
	}
	s, err := p.session()
	if err != nil {
		return 0, err
	}
	return s.Duration(), nil
}

// Close releases the render session. Close is idempotent.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.drop(); err != nil {
		return fmt.Errorf("sceneframe: close: %w", err)
	}
	return nil
}
