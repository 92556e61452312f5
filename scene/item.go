// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"image"
	"image/color"
)

// props holds the current property values of an item.
type props struct {
	x, y, z       float64
	width, height float64
	opacity       float64
	rotation      float64
	scale         float64
	visible       bool

	color       color.NRGBA
	radius      float64
	borderWidth float64
	borderColor color.NRGBA

	text     string
	fontSize float64
	bold     bool
	halign   string

	fillMode      string
	fallbackColor color.NRGBA
	wgsl          string
}

func defaultProps(t ItemType) props {
	p := props{
		opacity:  1,
		scale:    1,
		visible:  true,
		fontSize: 14,
		fillMode: "stretch",
	}
	switch t {
	case TypeRectangle:
		p.color = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	case TypeText:
		p.color = color.NRGBA{A: 255}
	}
	return p
}

func (p *props) get(name string) value {
	switch name {
	case "x":
		return numberValue(p.x)
	case "y":
		return numberValue(p.y)
	case "z":
		return numberValue(p.z)
	case "width":
		return numberValue(p.width)
	case "height":
		return numberValue(p.height)
	case "opacity":
		return numberValue(p.opacity)
	case "rotation":
		return numberValue(p.rotation)
	case "scale":
		return numberValue(p.scale)
	case "visible":
		return boolValue(p.visible)
	case "color":
		return colorValue(p.color)
	case "radius":
		return numberValue(p.radius)
	case "border.width":
		return numberValue(p.borderWidth)
	case "border.color":
		return colorValue(p.borderColor)
	case "text":
		return stringValue(p.text)
	case "font.size":
		return numberValue(p.fontSize)
	case "font.bold":
		return boolValue(p.bold)
	case "horizontalAlignment":
		return stringValue(p.halign)
	case "fillMode":
		return stringValue(p.fillMode)
	case "fallbackColor":
		return colorValue(p.fallbackColor)
	case "wgsl":
		return stringValue(p.wgsl)
	}
	return value{}
}

func (p *props) set(name string, v value) {
	switch name {
	case "x":
		p.x = v.num
	case "y":
		p.y = v.num
	case "z":
		p.z = v.num
	case "width":
		p.width = v.num
	case "height":
		p.height = v.num
	case "opacity":
		p.opacity = v.num
	case "rotation":
		p.rotation = v.num
	case "scale":
		p.scale = v.num
	case "visible":
		p.visible = v.b
	case "color":
		p.color = v.col
	case "radius":
		p.radius = v.num
	case "border.width":
		p.borderWidth = v.num
	case "border.color":
		p.borderColor = v.col
	case "text":
		p.text = v.str
	case "font.size":
		p.fontSize = v.num
	case "font.bold":
		p.bold = v.b
	case "horizontalAlignment":
		p.halign = v.str
	case "fillMode":
		p.fillMode = v.str
	case "fallbackColor":
		p.fallbackColor = v.col
	case "wgsl":
		p.wgsl = v.str
	}
}

// Item is an instance of a visual item.
//
// Items belong to the engine that created them and are only used on the
// control thread.
type Item struct {
	spec     *itemSpec
	engine   *Engine
	parent   *Item
	children []*Item
	anims    []*animSpec

	props    props
	animated map[string]bool

	// layout results of the last polish
	textAdvance float64
	textAscent  float64
	rtl         bool
}

// Type returns the item type.
func (it *Item) Type() ItemType { return it.spec.typ }

// ID returns the item id, or "".
func (it *Item) ID() string { return it.spec.id }

// Parent returns the parent item, or nil for the root.
func (it *Item) Parent() *Item { return it.parent }

// Children returns the child items in declaration order.
func (it *Item) Children() []*Item { return it.children }

// Image returns the decoded source of an Image item.
func (it *Item) Image() image.Image { return it.spec.image }

// Find returns the item with the given id in the subtree rooted at it.
func (it *Item) Find(id string) *Item {
	if it.spec.id == id {
		return it
	}
	for _, c := range it.children {
		if f := c.Find(id); f != nil {
			return f
		}
	}
	return nil
}

// Number returns a number property, or 0 if name is not one.
func (it *Item) Number(name string) float64 { return it.props.get(name).num }

// Bool returns a bool property.
func (it *Item) Bool(name string) bool { return it.props.get(name).b }

// Color returns a color property.
func (it *Item) Color(name string) color.NRGBA { return it.props.get(name).col }

// String returns a string property.
func (it *Item) String(name string) string { return it.props.get(name).str }

// Destroy detaches the item tree from its engine.
func (it *Item) Destroy() {
	if it.engine != nil {
		it.engine.forget(it)
		it.engine = nil
	}
}

// reset restores declared values and clears animation marks.
func (it *Item) reset() {
	it.props = defaultProps(it.spec.typ)
	for name, v := range it.spec.static {
		it.props.set(name, v)
	}
	clear(it.animated)
	for _, c := range it.children {
		c.reset()
	}
}

func (it *Item) walk(fn func(*Item)) {
	fn(it)
	for _, c := range it.children {
		c.walk(fn)
	}
}

// hasExplicit reports whether the item declares or binds prop.
func (it *Item) hasExplicit(prop string) bool {
	if _, ok := it.spec.static[prop]; ok {
		return true
	}
	for _, b := range it.spec.bindings {
		if b.prop == prop {
			return true
		}
	}
	return it.animated[prop]
}

// treeWriter applies animation values to one instance tree.
type treeWriter struct {
	items map[*itemSpec]*Item
}

func (w treeWriter) animate(target *itemSpec, prop string, v value) {
	it, ok := w.items[target]
	if !ok {
		return
	}
	it.props.set(prop, v)
	it.animated[prop] = true
}

func (w treeWriter) base(target *itemSpec, prop string) value {
	if v, ok := target.static[prop]; ok {
		return v
	}
	p := defaultProps(target.typ)
	return p.get(prop)
}
