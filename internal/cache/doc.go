// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a small generic LRU cache.
//
//	frames := cache.New[image.Point, *render.Frame](8)
//	frames.Set(image.Pt(1920, 1080), f)
//	f, ok := frames.Get(image.Pt(1920, 1080))
//
// When the cache grows past its limit the least recently used entry is
// evicted. A Cache is safe for concurrent use and must not be copied after
// creation.
package cache
