// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/sceneframe/canvas"
	"github.com/gogpu/sceneframe/device"
	"github.com/gogpu/sceneframe/render"
)

func TestCompileSPIRV(t *testing.T) {
	words, err := compileSPIRV(checkShaderSource)
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") {
			t.Skipf("naga feature not yet implemented: %v", err)
		}
		t.Fatalf("compileSPIRV: %v", err)
	}
	if words[0] != 0x07230203 {
		t.Errorf("first word = %#x, want SPIR-V magic", words[0])
	}
}

func TestModuleSource(t *testing.T) {
	tests := []struct {
		name       string
		wgsl       string
		wantErr    bool
		wantPrefix bool
	}{
		{"fragment only", "@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }", false, true},
		{"both stages", checkShaderSource, false, false},
		{"no fragment", "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := moduleSource(tt.wgsl)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := strings.HasPrefix(src, fullscreenVertex); got != tt.wantPrefix {
				t.Errorf("vertex stage prepended = %v, want %v", got, tt.wantPrefix)
			}
		})
	}
}

func TestRegistered(t *testing.T) {
	entry, ok := device.Get(Name)
	if !ok {
		t.Fatal("vulkan backend not registered")
	}
	if entry.Priority <= 10 {
		t.Errorf("Priority = %d, want above software", entry.Priority)
	}
}

func TestRoundTrip(t *testing.T) {
	if !Available() {
		t.Skip("no Vulkan adapter")
	}

	ctx, err := New(device.Options{Label: "test"})
	if err != nil {
		t.Skipf("open device: %v", err)
	}
	defer func() { _ = ctx.Release() }()

	if _, err := ctx.NewTarget(render.DefaultTargetDescriptor(4, 4)); !errors.Is(err, device.ErrNotCurrent) {
		t.Errorf("NewTarget before MakeCurrent = %v, want ErrNotCurrent", err)
	}
	if err := ctx.MakeCurrent(device.NewSurface(gputypes.TextureFormatRGBA8Unorm)); err != nil {
		t.Fatalf("MakeCurrent: %v", err)
	}

	rt, err := ctx.NewTarget(render.DefaultTargetDescriptor(8, 4))
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	img := render.ImageOf(rt)
	img.SetRGBA(3, 2, color.RGBA{200, 100, 50, 255})

	if err := ctx.Flush(rt); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	dst := make([]byte, 8*4*4)
	if err := ctx.ReadPixels(rt, dst); err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	i := 2*8*4 + 3*4
	if dst[i] != 200 || dst[i+1] != 100 || dst[i+2] != 50 || dst[i+3] != 255 {
		t.Errorf("read back %v, want [200 100 50 255]", dst[i:i+4])
	}

	ctx.ReleaseTarget(rt)
	if err := ctx.Flush(rt); !errors.Is(err, device.ErrForeignTarget) {
		t.Errorf("Flush after release = %v, want ErrForeignTarget", err)
	}
}

func TestRenderShader(t *testing.T) {
	if !Available() {
		t.Skip("no Vulkan adapter")
	}

	ctx, err := New(device.Options{Label: "test"})
	if err != nil {
		t.Skipf("open device: %v", err)
	}
	defer func() { _ = ctx.Release() }()
	if err := ctx.MakeCurrent(device.NewSurface(gputypes.TextureFormatRGBA8Unorm)); err != nil {
		t.Fatalf("MakeCurrent: %v", err)
	}

	green := color.RGBA{0, 255, 0, 255}
	list := render.NewDisplayList(16, 16)
	list.Add(render.DrawOp{
		Kind:      render.OpShader,
		Transform: canvas.Identity(),
		Opacity:   1,
		Width:     16,
		Height:    16,
		Color:     green,
		Shader: `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 1.0, 1.0);
}
`,
	})

	comp := render.NewCompositor()
	if err := comp.Initialize(ctx.DeviceHandle()); err != nil {
		t.Fatal(err)
	}
	rt, err := ctx.NewTarget(render.DefaultTargetDescriptor(16, 16))
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	comp.SetRenderTarget(rt)
	if err := comp.Sync(staticList{list}); err != nil {
		t.Fatal(err)
	}
	if err := comp.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := render.ImageOf(rt).RGBAAt(8, 8)
	if got == green {
		t.Fatal("shader op painted the fallback color")
	}
	if got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("shader pixel = %v, want opaque blue", got)
	}

	if _, err := ctx.RenderShader("fn (", 4, 4); err == nil {
		t.Error("RenderShader accepted invalid WGSL")
	}
}

type staticList struct{ list *render.DisplayList }

func (s staticList) Snapshot() *render.DisplayList { return s.list }
