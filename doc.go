// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sceneframe renders declarative, animated scenes into single video
// frames on demand.
//
// # Overview
//
// A scene is a YAML description of a tree of visual items (rectangles,
// text, images, shader effects) with property bindings and animations.
// A media pipeline asks a Producer for the frame at a given position and
// receives the exact pixels of that frame, synchronously, no matter how long
// rendering takes.
//
// # Quick Start
//
//	p, err := sceneframe.NewProducer("lower-third.yaml")
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	img, err := p.GetImage(sceneframe.Request{
//	    Width:    1920,
//	    Height:   1080,
//	    Format:   sceneframe.FormatBGRA,
//	    Position: 48,
//	    FPS:      25,
//	    Duration: 4 * time.Second,
//	})
//
// # Architecture
//
// Rendering is split between two threads. The control thread (the caller)
// compiles the scene, evaluates bindings and animations, and builds a
// display list. A dedicated render thread owns the render context; it syncs
// the display list, paints it into an offscreen target and reads the pixels
// back while the control thread waits.
//
// Animation time comes from a virtual clock that advances by one fixed step
// per rendered frame. Frame N of an animation is reached by rendering frames
// 0 through N in order, so the result never depends on wall-clock time.
//
// The library is organized into:
//   - sceneframe: Producer, the host-facing entry point
//   - session: one compiled scene bound to a render thread
//   - sequencer: static and animated render cycles
//   - coordinator: the render thread and its commands
//   - scene: scene compiler, engine and logical window
//   - clock: virtual animation clock and frame timing
//   - device: render contexts, ownership and backends (device/halgpu for Vulkan)
//   - render: display lists, painter, compositor and frames
//
// # Logging
//
// sceneframe is silent by default. Call SetLogger to route log output of
// every package to a *slog.Logger.
package sceneframe
