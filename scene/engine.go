// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"context"
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/gogpu/sceneframe/clock"
)

// bindingBudget bounds the time spent evaluating the bindings of one polish.
const bindingBudget = 2 * time.Second

// wallClock is the default time source: real time since the engine started.
type wallClock struct {
	start time.Time
}

func (c wallClock) Elapsed() time.Duration { return time.Since(c.start) }

// instance is one tree created from a component.
type instance struct {
	name  string
	root  *Item
	items map[*itemSpec]*Item
}

func (in *instance) writer() treeWriter { return treeWriter{items: in.items} }

// Engine instantiates components and updates their items.
//
// An Engine is bound to the goroutine that created it (the control thread)
// and is not safe for concurrent use.
type Engine struct {
	L       *lua.LState
	envMeta *lua.LTable

	wall   wallClock
	source clock.TimeSource

	live     map[*Item]*instance
	shaper   *textShaper
	warnings int
	closed   bool
}

var _ clock.Host = (*Engine)(nil)

// NewEngine creates an engine with a wall-clock time source.
func NewEngine() *Engine {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.MathLibName, lua.OpenMath},
		{lua.StringLibName, lua.OpenString},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			panic(fmt.Sprintf("scene: open lua library %q: %v", lib.name, err))
		}
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "print", "collectgarbage"} {
		L.SetGlobal(name, lua.LNil)
	}

	meta := L.NewTable()
	L.SetField(meta, "__index", L.G.Global)

	e := &Engine{
		L:       L,
		envMeta: meta,
		wall:    wallClock{start: time.Now()},
		live:    make(map[*Item]*instance),
		shaper:  newTextShaper(),
	}
	e.source = e.wall
	return e
}

// SetTimeSource replaces the source of animation time.
func (e *Engine) SetTimeSource(ts clock.TimeSource) {
	if ts == nil {
		e.ResetTimeSource()
		return
	}
	e.source = ts
}

// ResetTimeSource restores the wall clock.
func (e *Engine) ResetTimeSource() {
	e.source = e.wall
}

// TimeSource returns the current source of animation time.
func (e *Engine) TimeSource() clock.TimeSource {
	return e.source
}

// AdvanceAnimations applies every animation of every live item tree at
// elapsed.
func (e *Engine) AdvanceAnimations(elapsed time.Duration) {
	ms := durationMillis(elapsed)
	for _, in := range e.live {
		in.root.reset()
		e.animate(in, ms)
	}
	slogger().Debug("scene: animations advanced", "elapsed", elapsed, "trees", len(e.live))
}

// Warnings returns the number of warnings reported since the engine was
// created.
func (e *Engine) Warnings() int {
	return e.warnings
}

// Create instantiates c into a new item tree.
func (e *Engine) Create(c *Component) (*Item, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}
	if c == nil {
		return nil, errors.New("scene: nil component")
	}
	in := &instance{name: c.name, items: make(map[*itemSpec]*Item)}
	in.root = e.instantiate(in, c.root, nil)
	in.root.reset()
	e.live[in.root] = in
	return in.root, nil
}

func (e *Engine) instantiate(in *instance, spec *itemSpec, parent *Item) *Item {
	it := &Item{
		spec:     spec,
		engine:   e,
		parent:   parent,
		anims:    spec.anims,
		animated: make(map[string]bool),
	}
	in.items[spec] = it
	for _, cs := range spec.children {
		it.children = append(it.children, e.instantiate(in, cs, it))
	}
	return it
}

func (e *Engine) forget(root *Item) {
	delete(e.live, root)
}

// Close destroys every live item tree and the Lua state.
// Close is idempotent.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	clear(e.live)
	e.L.Close()
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	return e.closed
}

func (e *Engine) instanceOf(root *Item) (*instance, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}
	in, ok := e.live[root]
	if !ok {
		return nil, errors.New("scene: item is not a live root of this engine")
	}
	return in, nil
}

// animate applies the animations of in at ms.
func (e *Engine) animate(in *instance, ms float64) {
	w := in.writer()
	in.root.walk(func(it *Item) {
		for _, a := range it.anims {
			a.apply(ms, w)
		}
	})
}

// update brings in up to date for a window of the given size: declared
// values, animations at the current time, bindings and text layout.
func (e *Engine) update(in *instance, width, height float64) {
	elapsed := e.source.Elapsed()
	root := in.root

	root.reset()
	root.props.width, root.props.height = width, height
	e.animate(in, durationMillis(elapsed))
	root.animated["width"], root.animated["height"] = true, true
	root.props.width, root.props.height = width, height

	ctx, cancel := context.WithTimeout(context.Background(), bindingBudget)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	window := e.L.NewTable()
	window.RawSetString("width", lua.LNumber(width))
	window.RawSetString("height", lua.LNumber(height))
	e.layout(in, root, window, elapsed.Seconds())
}

// layout evaluates the bindings of it and measures it, then its children.
func (e *Engine) layout(in *instance, it *Item, window *lua.LTable, seconds float64) {
	parent := window
	if it.parent != nil {
		parent = e.propTable(it.parent)
	}
	for _, b := range it.spec.bindings {
		if it.animated[b.prop] {
			continue
		}
		v, err := e.evaluate(b, it, parent, window, seconds)
		if err != nil {
			e.warn(in, b, err)
			continue
		}
		it.props.set(b.prop, v)
	}
	switch it.spec.typ {
	case TypeText:
		e.measure(in, it)
	case TypeImage:
		naturalSize(it)
	}
	for _, c := range it.children {
		e.layout(in, c, window, seconds)
	}
}

func (e *Engine) evaluate(b *binding, it *Item, parent, window *lua.LTable, seconds float64) (value, error) {
	env := e.L.NewTable()
	e.L.SetMetatable(env, e.envMeta)
	env.RawSetString("time", lua.LNumber(seconds))
	env.RawSetString("window", window)
	env.RawSetString("parent", parent)
	env.RawSetString("self", e.propTable(it))

	fn := e.L.NewFunctionFromProto(b.proto)
	fn.Env = env
	e.L.Push(fn)
	if err := e.L.PCall(0, 1, nil); err != nil {
		return value{}, err
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)

	var raw any
	switch r := ret.(type) {
	case lua.LNumber:
		raw = float64(r)
	case lua.LBool:
		raw = bool(r)
	case lua.LString:
		raw = string(r)
	default:
		return value{}, fmt.Errorf("unsupported result type %s", ret.Type())
	}
	def, err := lookupProperty(it.spec.typ, b.prop)
	if err != nil {
		return value{}, err
	}
	return coerce(def, raw)
}

// propTable exposes the geometry of it to binding expressions.
func (e *Engine) propTable(it *Item) *lua.LTable {
	t := e.L.NewTable()
	for _, name := range []string{"x", "y", "z", "width", "height", "opacity", "rotation", "scale"} {
		t.RawSetString(name, lua.LNumber(it.props.get(name).num))
	}
	t.RawSetString("visible", lua.LBool(it.props.visible))
	return t
}

// measure sizes a Text item to its content unless the size is given.
func (e *Engine) measure(in *instance, it *Item) {
	p := &it.props
	m, err := e.shaper.measure(p.text, p.fontSize, p.bold)
	if err != nil {
		e.warnings++
		slogger().Warn("scene: text layout failed", "scene", in.name, "line", it.spec.line, "err", err)
		return
	}
	it.textAdvance = m.advance
	it.textAscent = m.ascent
	it.rtl = m.rtl
	if !it.hasExplicit("width") {
		p.width = m.advance
	}
	if !it.hasExplicit("height") {
		p.height = m.height()
	}
}

// naturalSize sizes an Image item to its source unless the size is given.
func naturalSize(it *Item) {
	img := it.spec.image
	if img == nil {
		return
	}
	b := img.Bounds()
	if !it.hasExplicit("width") {
		it.props.width = float64(b.Dx())
	}
	if !it.hasExplicit("height") {
		it.props.height = float64(b.Dy())
	}
}

func (e *Engine) warn(in *instance, b *binding, err error) {
	e.warnings++
	slogger().Warn("scene: binding failed",
		"scene", in.name,
		"line", b.line,
		"column", b.col,
		"property", b.prop,
		"err", err)
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
