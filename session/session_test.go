// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/sceneframe/clock"
	"github.com/gogpu/sceneframe/coordinator"
	"github.com/gogpu/sceneframe/device"
	"github.com/gogpu/sceneframe/scene"
	"github.com/gogpu/sceneframe/sequencer"
)

// fadeIn is a black background with a red box fading in over one second.
const fadeIn = `root:
  type: Rectangle
  color: black
  children:
    - type: Rectangle
      id: box
      width: "=parent.width"
      height: "=parent.height"
      color: red
      opacity: 0
      animations:
        - type: NumberAnimation
          property: opacity
          from: 0
          to: 1
          duration: 1000
`

func open(t *testing.T, src string, cfg Config) *Session {
	t.Helper()
	cfg.Backend = device.SoftwareName
	s, err := Open("fade.yaml", []byte(src), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func red(t *testing.T, s *Session, frame int, timing clock.Timing) int {
	t.Helper()
	f, err := s.RenderAnimated(8, 8, frame, timing)
	if err != nil {
		t.Fatalf("RenderAnimated(%d): %v", frame, err)
	}
	return int(f.At(4, 4)[0])
}

func within(got, want, tol int) bool {
	d := got - want
	return d >= -tol && d <= tol
}

// brokenContext cannot be made current.
type brokenContext struct {
	*device.SoftwareContext
	released bool
}

func (b *brokenContext) MakeCurrent(*device.Surface) error { return errors.New("no display") }

func (b *brokenContext) Release() error {
	b.released = true
	return b.SoftwareContext.Release()
}

func TestOpenErrors(t *testing.T) {
	t.Run("compile error", func(t *testing.T) {
		_, err := Open("bad.yaml", []byte("root:\n  type: Rectangle\n  colour: red\n"), DefaultConfig())
		var ce *scene.CompileError
		if !errors.As(err, &ce) {
			t.Fatalf("Open = %v, want *scene.CompileError", err)
		}
		if ce.Line != 3 {
			t.Errorf("Line = %d, want 3", ce.Line)
		}
	})
	t.Run("invalid root", func(t *testing.T) {
		src := "root:\n  type: NumberAnimation\n  duration: 100\n"
		if _, err := Open("anim.yaml", []byte(src), DefaultConfig()); !errors.Is(err, scene.ErrInvalidRoot) {
			t.Fatalf("Open = %v, want ErrInvalidRoot", err)
		}
	})
	t.Run("unreadable", func(t *testing.T) {
		_, err := OpenFile(filepath.Join(t.TempDir(), "missing.yaml"), DefaultConfig())
		if !errors.Is(err, ErrResourceUnreadable) {
			t.Fatalf("OpenFile = %v, want ErrResourceUnreadable", err)
		}
	})
	t.Run("unknown backend", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend = "metal"
		_, err := Open("fade.yaml", []byte(fadeIn), cfg)
		var nf *device.BackendNotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("Open = %v, want *device.BackendNotFoundError", err)
		}
	})
	t.Run("activation failure", func(t *testing.T) {
		var ctx *brokenContext
		reg := device.NewRegistry()
		reg.Register("broken", 1, func(device.Options) (device.Context, error) {
			ctx = &brokenContext{SoftwareContext: device.NewSoftwareContext()}
			return ctx, nil
		}, func() bool { return true })

		cfg := DefaultConfig()
		cfg.Registry = reg
		_, err := Open("fade.yaml", []byte(fadeIn), cfg)
		if !errors.Is(err, coordinator.ErrContextActivation) {
			t.Fatalf("Open = %v, want ErrContextActivation", err)
		}
		if ctx == nil || !ctx.released {
			t.Error("context not released after failed initialization")
		}
	})
}

func TestOpenFile(t *testing.T) {
	s, err := OpenFile(filepath.Join("..", "scene", "testdata", "title.yaml"), DefaultConfig())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer s.Close()
	if s.Duration() != 2500*time.Millisecond {
		t.Errorf("Duration() = %v, want 2.5s", s.Duration())
	}
	if _, err := s.RenderStatic(320, 180); err != nil {
		t.Errorf("RenderStatic: %v", err)
	}
}

func TestRenderStatic(t *testing.T) {
	s := open(t, fadeIn, DefaultConfig())

	sizes := []struct{ w, h int }{{1, 1}, {16, 9}, {64, 48}}
	for _, sz := range sizes {
		f, err := s.RenderStatic(sz.w, sz.h)
		if err != nil {
			t.Fatalf("RenderStatic(%d, %d): %v", sz.w, sz.h, err)
		}
		if f.Width != sz.w || f.Height != sz.h || len(f.Pix) != sz.w*sz.h*4 {
			t.Errorf("frame = %dx%d with %d bytes", f.Width, f.Height, len(f.Pix))
		}
		// Static renders see the scene at time zero.
		if got := f.At(0, 0); got != [4]byte{0, 0, 0, 255} {
			t.Errorf("pixel = %v, want opaque black", got)
		}
	}
	if s.Cycles() != 1 {
		t.Errorf("Cycles() = %d, want 1", s.Cycles())
	}
}

func TestStaticTargetReuse(t *testing.T) {
	s := open(t, fadeIn, DefaultConfig())
	a, err := s.RenderStatic(20, 10)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.RenderStatic(20, 10)
	if err != nil {
		t.Fatal(err)
	}
	if a.TargetID != b.TargetID {
		t.Errorf("same size rendered to targets %d and %d", a.TargetID, b.TargetID)
	}
	c, err := s.RenderStatic(21, 10)
	if err != nil {
		t.Fatal(err)
	}
	if c.TargetID == b.TargetID {
		t.Error("size change did not recreate the target")
	}
}

func TestRenderAnimated(t *testing.T) {
	s := open(t, fadeIn, DefaultConfig())

	// 10 frames over one second with the default correction of 2 give a
	// corrected rate of 8 fps, a 125ms step.
	timing := clock.Timing{FPS: 10, Duration: time.Second}
	tests := []struct {
		frame int
		want  int
	}{
		{0, 0},
		{2, 64},
		{4, 128},
		{6, 191},
		{9, 255},
		{50, 255},
	}
	for _, tt := range tests {
		if got := red(t, s, tt.frame, timing); !within(got, tt.want, 2) {
			t.Errorf("frame %d red = %d, want %d", tt.frame, got, tt.want)
		}
	}
}

func TestRenderAnimatedCycles(t *testing.T) {
	s := open(t, fadeIn, DefaultConfig())
	timing := clock.Timing{FPS: 24, Duration: 5 * time.Second}

	if _, err := s.RenderAnimated(4, 4, 60, timing); err != nil {
		t.Fatal(err)
	}
	if s.Cycles() != 61 {
		t.Errorf("frame 60 took %d cycles, want 61", s.Cycles())
	}
	want := sequencer.State{Current: 60, Requested: 60, Total: 120}
	if s.Progress() != want {
		t.Errorf("Progress() = %+v, want %+v", s.Progress(), want)
	}

	last := red(t, s, 119, timing)
	past := red(t, s, 500, timing)
	if last != past {
		t.Errorf("frame 500 red = %d, frame 119 red = %d", past, last)
	}
	if s.Cycles() != 120 {
		t.Errorf("frame 500 took %d cycles, want 120", s.Cycles())
	}
}

func TestAnimatedIsRepeatable(t *testing.T) {
	s := open(t, fadeIn, DefaultConfig())
	timing := clock.Timing{FPS: 10, Duration: time.Second}
	a := red(t, s, 3, timing)
	time.Sleep(20 * time.Millisecond)
	b := red(t, s, 3, timing)
	if a != b {
		t.Errorf("same frame rendered as %d then %d", a, b)
	}

	// The static clock is back after an animated render.
	f, err := s.RenderStatic(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if f.At(4, 4)[0] != 0 {
		t.Errorf("static render after animation = %v, want black", f.At(4, 4))
	}
}

func TestRenderAnimatedErrors(t *testing.T) {
	s := open(t, fadeIn, DefaultConfig())
	tests := []struct {
		name    string
		frame   int
		timing  clock.Timing
		wantErr error
	}{
		{"negative frame", -1, clock.Timing{FPS: 25, Duration: time.Second}, sequencer.ErrNegativeFrame},
		{"zero duration", 0, clock.Timing{FPS: 25}, sequencer.ErrNoFrames},
		{"zero fps", 0, clock.Timing{Duration: time.Second}, sequencer.ErrNoFrames},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.RenderAnimated(4, 4, tt.frame, tt.timing); !errors.Is(err, tt.wantErr) {
				t.Errorf("RenderAnimated = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if _, err := s.RenderAnimated(0, 4, 0, clock.Timing{FPS: 25, Duration: time.Second}); !errors.Is(err, coordinator.ErrInvalidSize) {
		t.Errorf("zero width = %v, want ErrInvalidSize", err)
	}
	if _, err := s.RenderStatic(4, 4); err != nil {
		t.Errorf("session unusable after failed renders: %v", err)
	}
}

func TestPixelRatioAndFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DevicePixelRatio = 2
	s := open(t, fadeIn, cfg)

	f, err := s.RenderStatic(10, 5)
	if err != nil {
		t.Fatal(err)
	}
	if f.Width != 20 || f.Height != 10 {
		t.Errorf("dpr 2 frame = %dx%d, want 20x10", f.Width, f.Height)
	}

	s.SetFormat(gputypes.TextureFormatBGRA8Unorm)
	f, err = s.RenderAnimated(10, 5, 9, clock.Timing{FPS: 10, Duration: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if f.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format = %v, want BGRA8", f.Format)
	}
	if got := f.Pix[2]; got != 255 {
		t.Errorf("BGRA red byte = %d, want 255", got)
	}
}

func TestClose(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = device.SoftwareName
	s, err := Open("fade.yaml", []byte(fadeIn), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if s.Backend() != device.SoftwareName {
		t.Errorf("Backend() = %q", s.Backend())
	}
	if _, err := s.RenderStatic(4, 4); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if !s.Closed() || !s.Engine().Closed() {
		t.Error("session or engine not closed")
	}
	if _, err := s.RenderStatic(4, 4); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderStatic after Close = %v, want ErrClosed", err)
	}
	if _, err := s.RenderAnimated(4, 4, 0, clock.Timing{FPS: 1, Duration: time.Second}); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderAnimated after Close = %v, want ErrClosed", err)
	}
}
