// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene implements the declarative scene engine: a YAML scene
// description compiled into a Component, instantiated into Item trees by an
// Engine and laid out in a logical Window.
//
// A scene description has a single root item:
//
//	root:
//	  type: Rectangle
//	  color: "#202030"
//	  children:
//	    - type: Text
//	      text: Hello
//	      x: "=parent.width / 2 - self.width / 2"
//	      font: {size: 32, bold: true}
//	      animations:
//	        - type: NumberAnimation
//	          property: opacity
//	          from: 0
//	          to: 1
//	          duration: 1000
//
// Property values starting with "=" are Lua expressions evaluated on every
// polish with time (seconds), window, parent and self in scope. Animations
// are a pure function of the engine's time source, so a scene driven by a
// clock.VirtualClock renders the same frames on every run.
//
// Typical use on the control thread:
//
//	c, err := scene.Load("title.yaml", data)
//	...
//	e := scene.NewEngine()
//	defer e.Close()
//	root, err := e.Create(c)
//	...
//	w := scene.NewWindow()
//	w.SetGeometry(1920, 1080)
//	w.SetRoot(root)
//	if err := w.Polish(e); err != nil {
//	    return err
//	}
//	list := w.Snapshot() // handed to render.Compositor.Sync
package scene
