// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"math"
	"time"
)

// Component is a compiled scene description. It is immutable and can be
// instantiated any number of times with Engine.Create.
type Component struct {
	name     string
	root     *itemSpec
	ids      map[string]*itemSpec
	duration time.Duration
}

// Load compiles a scene description. name is used in error messages and
// to resolve relative image sources; it is normally the scene file path.
//
// Load fails with a *CompileError for malformed descriptions and with
// ErrInvalidRoot when the root node is not a visual item.
func Load(name string, data []byte) (*Component, error) {
	p := newParser(name)
	root, err := p.parse(data)
	if err != nil {
		return nil, err
	}
	c := &Component{name: name, root: root, ids: p.ids}
	c.duration = discoverDuration(root)
	slogger().Debug("scene: loaded", "name", name, "items", countItems(root), "duration", c.duration)
	return c, nil
}

// Name returns the name the component was loaded with.
func (c *Component) Name() string { return c.name }

// RootType returns the type of the root item.
func (c *Component) RootType() ItemType { return c.root.typ }

// Duration returns the length of the longest animation in the scene, or 0
// for a static scene.
//
// Sequential animations last the sum of their parts, parallel ones as long
// as their longest part; loops multiply and an infinite loop counts once.
func (c *Component) Duration() time.Duration { return c.duration }

// Animated reports whether the scene declares any animation.
func (c *Component) Animated() bool {
	return hasAnimations(c.root)
}

func discoverDuration(spec *itemSpec) time.Duration {
	longest := 0.0
	var walk func(*itemSpec)
	walk = func(s *itemSpec) {
		for _, a := range s.anims {
			longest = math.Max(longest, a.total())
		}
		for _, c := range s.children {
			walk(c)
		}
	}
	walk(spec)
	return time.Duration(math.Round(longest)) * time.Millisecond
}

func hasAnimations(s *itemSpec) bool {
	if len(s.anims) > 0 {
		return true
	}
	for _, c := range s.children {
		if hasAnimations(c) {
			return true
		}
	}
	return false
}

func countItems(s *itemSpec) int {
	n := 1
	for _, c := range s.children {
		n += countItems(c)
	}
	return n
}
