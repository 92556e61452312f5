// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halgpu registers a Vulkan render context with the device registry.
//
// Import it for its side effect:
//
//	import _ "github.com/gogpu/sceneframe/device/halgpu"
//
// Targets are painted on the CPU and mirrored into GPU storage buffers.
// Flush uploads the pixels, copies them into a map-readable staging buffer
// and waits on a fence; ReadPixels reads the staging buffer back. Every
// frame therefore makes a full round trip through the device queue before
// it is returned.
//
// Shader effects run on the device. The device handle given to the
// compositor implements render.ShaderRenderer: each effect is compiled to
// SPIR-V with naga, drawn as a full-screen triangle into an RGBA texture
// and copied back for compositing. Pipelines are cached per source.
//
// Build with the nogpu tag to leave the backend out.
package halgpu
