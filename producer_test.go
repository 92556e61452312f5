// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sceneframe

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/sceneframe/device"
	"github.com/gogpu/sceneframe/scene"
)

const solidRed = `root:
  type: Rectangle
  color: red
`

// fadeIn is a black background with a red box fading in over one second.
const fadeIn = `root:
  type: Rectangle
  color: black
  children:
    - type: Rectangle
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

// halfRed covers the left half of a transparent window.
const halfRed = `root:
  type: Item
  children:
    - type: Rectangle
      width: "=parent.width / 2"
      height: "=parent.height"
      color: red
`

func writeScene(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestProducer(t *testing.T, src string, opts ...Option) *Producer {
	t.Helper()
	opts = append([]Option{WithBackend(device.SoftwareName)}, opts...)
	p, err := NewProducer(writeScene(t, src), opts...)
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func get(t *testing.T, p *Producer, req Request) *Image {
	t.Helper()
	img, err := p.GetImage(req)
	if err != nil {
		t.Fatalf("GetImage(%+v): %v", req, err)
	}
	return img
}

func within(got, want, tol int) bool {
	d := got - want
	return d >= -tol && d <= tol
}

func TestNewProducerUnreadable(t *testing.T) {
	_, err := NewProducer(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrResourceUnreadable) {
		t.Fatalf("NewProducer = %v, want ErrResourceUnreadable", err)
	}
}

func TestStaticFormats(t *testing.T) {
	p := newTestProducer(t, solidRed)
	tests := []struct {
		format Format
		w, h   int
		want   []byte
	}{
		{FormatRGBA, 7, 3, []byte{255, 0, 0, 255}},
		{FormatRGB, 5, 5, []byte{255, 0, 0}},
		{FormatBGRA, 3, 9, []byte{0, 0, 255, 255}},
		{FormatRGBA, 1, 1, []byte{255, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			img := get(t, p, Request{Width: tt.w, Height: tt.h, Format: tt.format})
			bpp := tt.format.BytesPerPixel()
			if img.Width != tt.w || img.Height != tt.h || len(img.Pix) != tt.w*tt.h*bpp {
				t.Fatalf("image = %dx%d with %d bytes", img.Width, img.Height, len(img.Pix))
			}
			if img.Format != tt.format {
				t.Errorf("Format = %v, want %v", img.Format, tt.format)
			}
			last := img.Pix[len(img.Pix)-bpp:]
			if string(last) != string(tt.want) {
				t.Errorf("last pixel = %v, want %v", last, tt.want)
			}
			if img.Alpha != nil {
				t.Error("alpha returned without WantAlpha")
			}
		})
	}
}

func TestRescaleOverrides(t *testing.T) {
	p := newTestProducer(t, solidRed)
	tests := []struct {
		req   Request
		wantW int
		wantH int
	}{
		{Request{Width: 10, Height: 10}, 10, 10},
		{Request{Width: 10, Height: 10, RescaleWidth: 4}, 4, 10},
		{Request{Width: 10, Height: 10, RescaleHeight: 6}, 10, 6},
		{Request{Width: 10, Height: 10, RescaleWidth: 3, RescaleHeight: 2}, 3, 2},
		{Request{RescaleWidth: 3, RescaleHeight: 2}, 3, 2},
	}
	for _, tt := range tests {
		img := get(t, p, tt.req)
		if img.Width != tt.wantW || img.Height != tt.wantH {
			t.Errorf("GetImage(%+v) = %dx%d, want %dx%d", tt.req, img.Width, img.Height, tt.wantW, tt.wantH)
		}
	}
}

func TestStaticCache(t *testing.T) {
	p := newTestProducer(t, solidRed)
	a := get(t, p, Request{Width: 4, Height: 4})
	a.Pix[0] = 7 // the caller owns the buffer

	b := get(t, p, Request{Width: 4, Height: 4})
	if b.Pix[0] != 255 {
		t.Errorf("cached frame modified through a returned buffer: %d", b.Pix[0])
	}
	if p.cache.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", p.cache.Len())
	}
	if p.sess.Cycles() != 1 {
		t.Errorf("cached request rendered again")
	}
	get(t, p, Request{Width: 4, Height: 4, Format: FormatBGRA})
	get(t, p, Request{Width: 5, Height: 4})
	if p.cache.Len() != 2 {
		t.Errorf("cache entries = %d, want 2", p.cache.Len())
	}
}

func TestStaticCacheAcrossFormats(t *testing.T) {
	tests := []struct {
		name  string
		first Format
		then  Format
		want  []byte
	}{
		{"bgra then rgba", FormatBGRA, FormatRGBA, []byte{255, 0, 0, 255}},
		{"rgba then bgra", FormatRGBA, FormatBGRA, []byte{0, 0, 255, 255}},
		{"bgra then rgb", FormatBGRA, FormatRGB, []byte{255, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProducer(t, solidRed)
			get(t, p, Request{Width: 2, Height: 2, Format: tt.first})
			img := get(t, p, Request{Width: 2, Height: 2, Format: tt.then})
			if got := img.Pix[:len(tt.want)]; string(got) != string(tt.want) {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
			if p.sess.Cycles() != 1 {
				t.Errorf("cycles = %d, want the cached frame reused", p.sess.Cycles())
			}
		})
	}
}

func TestAnimated(t *testing.T) {
	p := newTestProducer(t, fadeIn)
	red := func(pos int) int {
		img := get(t, p, Request{Width: 8, Height: 8, Position: pos, FPS: 10, Duration: time.Second})
		return int(img.Pix[(4*8+4)*4])
	}
	if got := red(4); !within(got, 128, 2) {
		t.Errorf("frame 4 red = %d, want about 128", got)
	}
	if got := red(0); got != 0 {
		t.Errorf("frame 0 red = %d, want 0", got)
	}
	if last, past := red(9), red(500); last != past {
		t.Errorf("frame 500 red = %d, frame 9 red = %d", past, last)
	}
	if p.cache.Len() != 0 {
		t.Errorf("animated frames cached: %d entries", p.cache.Len())
	}

	// Without a duration the same scene renders statically at time zero.
	if img := get(t, p, Request{Width: 8, Height: 8, Position: 4, FPS: 10}); img.Pix[0] != 0 {
		t.Errorf("static red = %d, want 0", img.Pix[0])
	}
}

func TestAutoDuration(t *testing.T) {
	p := newTestProducer(t, fadeIn, WithAutoDuration())
	d, err := p.Duration()
	if err != nil {
		t.Fatal(err)
	}
	if d != time.Second {
		t.Fatalf("Duration() = %v, want 1s", d)
	}
	img := get(t, p, Request{Width: 8, Height: 8, Position: 9, FPS: 10})
	if img.Pix[0] != 255 {
		t.Errorf("last frame red = %d, want 255", img.Pix[0])
	}
}

func TestAlpha(t *testing.T) {
	p := newTestProducer(t, halfRed)
	for _, format := range []Format{FormatRGBA, FormatRGB, FormatBGRA} {
		img := get(t, p, Request{Width: 4, Height: 2, Format: format, WantAlpha: true})
		if len(img.Alpha) != 8 {
			t.Fatalf("%v: len(Alpha) = %d, want 8", format, len(img.Alpha))
		}
		for y := 0; y < 2; y++ {
			if a := img.Alpha[y*4]; a != 255 {
				t.Errorf("%v: alpha(0,%d) = %d, want 255", format, y, a)
			}
			if a := img.Alpha[y*4+3]; a != 0 {
				t.Errorf("%v: alpha(3,%d) = %d, want 0", format, y, a)
			}
		}
	}
}

func TestDevicePixelRatio(t *testing.T) {
	p := newTestProducer(t, solidRed, WithDevicePixelRatio(2))
	for _, format := range []Format{FormatRGBA, FormatBGRA, FormatRGB} {
		img := get(t, p, Request{Width: 6, Height: 4, Format: format})
		bpp := format.BytesPerPixel()
		if img.Width != 6 || img.Height != 4 || len(img.Pix) != 6*4*bpp {
			t.Fatalf("%v: image = %dx%d with %d bytes", format, img.Width, img.Height, len(img.Pix))
		}
		rgba := img.RGBA()
		if c := rgba.RGBAAt(3, 2); c.R != 255 || c.G != 0 || c.B != 0 || c.A != 255 {
			t.Errorf("%v: pixel = %v, want red", format, c)
		}
	}
}

func TestRequestErrors(t *testing.T) {
	p := newTestProducer(t, solidRed)
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"negative position", Request{Width: 4, Height: 4, Position: -1, FPS: 25, Duration: time.Second}, ErrInvalidPosition},
		{"zero width", Request{Height: 4}, ErrInvalidSize},
		{"negative rescale ignored", Request{Width: 0, Height: 4, RescaleWidth: -2}, ErrInvalidSize},
		{"bad format", Request{Width: 4, Height: 4, Format: Format(9)}, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.GetImage(tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("GetImage = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if p.sess != nil {
		t.Error("session created for invalid requests")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("compile", func(t *testing.T) {
		p := newTestProducer(t, "root:\n  type: Rectangle\n  color: nope\n")
		_, err := p.GetImage(Request{Width: 4, Height: 4})
		if !errors.Is(err, ErrSceneCompile) {
			t.Fatalf("GetImage = %v, want ErrSceneCompile", err)
		}
		var ce *scene.CompileError
		if !errors.As(err, &ce) || ce.Line != 3 {
			t.Errorf("compile error position = %+v", ce)
		}
		if p.sess != nil {
			t.Error("session left after a load error")
		}
	})
	t.Run("invalid root", func(t *testing.T) {
		p := newTestProducer(t, "root:\n  type: PauseAnimation\n  duration: 10\n")
		if _, err := p.GetImage(Request{Width: 4, Height: 4}); !errors.Is(err, ErrInvalidRootNode) {
			t.Fatalf("GetImage = %v, want ErrInvalidRootNode", err)
		}
	})
}

func TestForceReload(t *testing.T) {
	path := writeScene(t, "root:\n  type: Rectangle\n  color: nope\n")
	p, err := NewProducer(path, WithBackend(device.SoftwareName))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := p.GetImage(Request{Width: 2, Height: 2}); !errors.Is(err, ErrSceneCompile) {
		t.Fatalf("GetImage = %v, want ErrSceneCompile", err)
	}
	if err := os.WriteFile(path, []byte(solidRed), 0o600); err != nil {
		t.Fatal(err)
	}
	// The file is only re-read on request.
	if _, err := p.GetImage(Request{Width: 2, Height: 2}); !errors.Is(err, ErrSceneCompile) {
		t.Fatalf("GetImage without reload = %v, want ErrSceneCompile", err)
	}
	img, err := p.GetImage(Request{Width: 2, Height: 2, ForceReload: ReloadFile})
	if err != nil {
		t.Fatalf("GetImage with reload: %v", err)
	}
	if img.Pix[0] != 255 {
		t.Errorf("red = %d, want 255", img.Pix[0])
	}

	blue := "root:\n  type: Rectangle\n  color: blue\n"
	if err := os.WriteFile(path, []byte(blue), 0o600); err != nil {
		t.Fatal(err)
	}
	if img := get(t, p, Request{Width: 2, Height: 2}); img.Pix[0] != 255 {
		t.Error("cached frame dropped without reload")
	}

	// A rebuild recreates the session from the data read before.
	before := p.sess
	if img := get(t, p, Request{Width: 2, Height: 2, ForceReload: ReloadRebuild}); img.Pix[0] != 255 || img.Pix[2] != 0 {
		t.Errorf("pixel after rebuild = %v, want red", img.Pix[:4])
	}
	if p.sess == before {
		t.Error("rebuild kept the old session")
	}
	if !before.Closed() {
		t.Error("rebuild left the old session open")
	}
	if img := get(t, p, Request{Width: 2, Height: 2, ForceReload: ReloadFile + 3}); img.Pix[0] != 0 || img.Pix[2] != 255 {
		t.Errorf("pixel after reload = %v, want blue", img.Pix[:4])
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := p.GetImage(Request{Width: 2, Height: 2, ForceReload: ReloadFile}); !errors.Is(err, ErrResourceUnreadable) {
		t.Errorf("reload of a removed file = %v, want ErrResourceUnreadable", err)
	}
	if img := get(t, p, Request{Width: 2, Height: 2}); img.Pix[2] != 255 {
		t.Error("failed reload dropped the working session")
	}
}

// switchContext fails activation while off is set.
type switchContext struct {
	*device.SoftwareContext
	off *atomic.Bool
}

func (c switchContext) MakeCurrent(s *device.Surface) error {
	if c.off.Load() {
		return errors.New("device lost")
	}
	return c.SoftwareContext.MakeCurrent(s)
}

func TestContextActivationPerFrame(t *testing.T) {
	var off atomic.Bool
	reg := device.NewRegistry()
	reg.Register("switch", 1, func(device.Options) (device.Context, error) {
		return switchContext{SoftwareContext: device.NewSoftwareContext(), off: &off}, nil
	}, func() bool { return true })

	p, err := NewProducer(writeScene(t, solidRed), WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	get(t, p, Request{Width: 2, Height: 2})
	off.Store(true)
	img, err := p.GetImage(Request{Width: 3, Height: 3})
	if !errors.Is(err, ErrFrameRender) || !errors.Is(err, ErrContextActivation) {
		t.Fatalf("GetImage = %v, want ErrFrameRender and ErrContextActivation", err)
	}
	if img != nil {
		t.Error("image returned with activation failure")
	}
	off.Store(false)
	if img := get(t, p, Request{Width: 3, Height: 3}); img.Pix[0] != 255 {
		t.Errorf("red after recovery = %d", img.Pix[0])
	}
}

func TestClose(t *testing.T) {
	p, err := NewProducer(writeScene(t, solidRed), WithBackend(device.SoftwareName))
	if err != nil {
		t.Fatal(err)
	}
	get(t, p, Request{Width: 2, Height: 2})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := p.GetImage(Request{Width: 2, Height: 2}); !errors.Is(err, ErrClosed) {
		t.Errorf("GetImage after Close = %v, want ErrClosed", err)
	}
	if _, err := p.Duration(); !errors.Is(err, ErrClosed) {
		t.Errorf("Duration after Close = %v, want ErrClosed", err)
	}
}

func TestConcurrentRequests(t *testing.T) {
	p := newTestProducer(t, fadeIn)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := Request{Width: 4 + i%2, Height: 4, Position: i, FPS: 10, Duration: time.Second}
			if i%3 == 0 {
				req.Duration = 0
			}
			if _, err := p.GetImage(req); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
