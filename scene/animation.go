// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

type animKind uint8

const (
	animNumber animKind = iota
	animProperty
	animRotation
	animColor
	animPause
	animSequential
	animParallel
)

var animationTypes = map[string]animKind{
	"NumberAnimation":     animNumber,
	"PropertyAnimation":   animProperty,
	"RotationAnimation":   animRotation,
	"ColorAnimation":      animColor,
	"PauseAnimation":      animPause,
	"SequentialAnimation": animSequential,
	"ParallelAnimation":   animParallel,
}

func isAnimationType(t string) bool {
	_, ok := animationTypes[t]
	return ok
}

// defaultDuration is the duration of an animation that declares none, in ms.
const defaultDuration = 250

// infinite is the loops value of an animation that never stops.
const infinite = -1

type rotationDirection uint8

const (
	rotateNumerical rotationDirection = iota
	rotateClockwise
	rotateCounterclockwise
	rotateShortest
)

// animSpec is the compiled description of one animation.
type animSpec struct {
	kind     animKind
	typeName string
	line     int
	col      int

	targetID   string
	target     *itemSpec
	properties []string
	valueKind  valueKind

	rawFrom, rawTo any
	from, to       value
	hasFrom        bool
	hasTo          bool

	duration  float64 // ms
	easing    easingFunc
	loops     int
	direction rotationDirection

	children []*animSpec
}

func (a *animSpec) group() bool {
	return a.kind == animSequential || a.kind == animParallel
}

func (p *parser) animation(n *yaml.Node) (*animSpec, error) {
	if n.Kind != yaml.MappingNode {
		return nil, p.errorf(n, "animation must be a mapping")
	}
	typ := fieldValue(n, "type")
	kind, ok := animationTypes[typ]
	if !ok {
		if typ == "" {
			return nil, p.errorf(n, "animation has no type")
		}
		return nil, p.errorf(n, "unknown animation type %q", typ)
	}

	a := &animSpec{
		kind:     kind,
		typeName: typ,
		line:     n.Line,
		col:      n.Column,
		duration: defaultDuration,
		loops:    1,
	}
	a.easing, _ = lookupEasing("")
	switch kind {
	case animRotation:
		a.properties = []string{"rotation"}
	case animColor:
		a.properties = []string{"color"}
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if err := p.animationField(a, k, v); err != nil {
			return nil, err
		}
	}

	if a.group() {
		if len(a.children) == 0 {
			return nil, p.errorf(n, "%s has no animations", typ)
		}
	} else if kind != animPause && len(a.properties) == 0 {
		return nil, p.errorf(n, "%s has no property", typ)
	}
	return a, nil
}

func (p *parser) animationField(a *animSpec, k, v *yaml.Node) error {
	leaf := !a.group() && a.kind != animPause
	switch k.Value {
	case "type":
		return nil
	case "target":
		if v.Kind != yaml.ScalarNode || !idPattern.MatchString(v.Value) {
			return p.errorf(v, "invalid target %q", v.Value)
		}
		a.targetID = v.Value
	case "property", "properties":
		if !leaf {
			return p.errorf(k, "%s has no %s", a.typeName, k.Value)
		}
		a.properties = nil
		for _, s := range strings.Split(v.Value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				a.properties = append(a.properties, s)
			}
		}
	case "from", "to":
		if !leaf {
			return p.errorf(k, "%s has no %s", a.typeName, k.Value)
		}
		var raw any
		if err := v.Decode(&raw); err != nil || v.Kind != yaml.ScalarNode {
			return p.errorf(v, "invalid %s value", k.Value)
		}
		if k.Value == "from" {
			a.rawFrom, a.hasFrom = raw, true
		} else {
			a.rawTo, a.hasTo = raw, true
		}
	case "duration":
		if a.group() {
			return p.errorf(k, "%s duration is derived from its animations", a.typeName)
		}
		var d float64
		if err := v.Decode(&d); err != nil || d < 0 {
			return p.errorf(v, "invalid duration %q", v.Value)
		}
		a.duration = d
	case "easing":
		if !leaf {
			return p.errorf(k, "%s has no easing", a.typeName)
		}
		f, ok := lookupEasing(v.Value)
		if !ok {
			return p.errorf(v, "unknown easing %q", v.Value)
		}
		a.easing = f
	case "loops":
		var n int
		if err := v.Decode(&n); err != nil || (n < 1 && n != infinite) {
			return p.errorf(v, "invalid loops %q", v.Value)
		}
		a.loops = n
	case "direction":
		if a.kind != animRotation {
			return p.errorf(k, "%s has no direction", a.typeName)
		}
		switch v.Value {
		case "Numerical":
			a.direction = rotateNumerical
		case "Clockwise":
			a.direction = rotateClockwise
		case "Counterclockwise":
			a.direction = rotateCounterclockwise
		case "Shortest":
			a.direction = rotateShortest
		default:
			return p.errorf(v, "unknown rotation direction %q", v.Value)
		}
	case "animations":
		if !a.group() {
			return p.errorf(k, "%s cannot contain animations", a.typeName)
		}
		if v.Kind != yaml.SequenceNode {
			return p.errorf(v, "animations must be a list")
		}
		for _, c := range v.Content {
			child, err := p.animation(c)
			if err != nil {
				return err
			}
			a.children = append(a.children, child)
		}
	default:
		return p.errorf(k, "unknown animation field %q", k.Value)
	}
	return nil
}

// resolve binds a and its children to their target items and converts
// from/to into the target property kind.
func (p *parser) resolve(a *animSpec, inherited *itemSpec) error {
	target := inherited
	if a.targetID != "" {
		t, ok := p.ids[a.targetID]
		if !ok {
			return &CompileError{File: p.file, Line: a.line, Column: a.col, Message: "unknown target \"" + a.targetID + "\""}
		}
		target = t
	}
	a.target = target

	if a.group() {
		for _, c := range a.children {
			if err := p.resolve(c, target); err != nil {
				return err
			}
		}
		return nil
	}
	if a.kind == animPause {
		return nil
	}

	fail := func(format string, args ...any) error {
		e := p.errorf(nil, format, args...)
		e.Line, e.Column = a.line, a.col
		return e
	}

	var kind valueKind
	for i, name := range a.properties {
		def, err := lookupProperty(target.typ, name)
		if err != nil {
			return fail("%v", err)
		}
		if staticOnly[name] {
			return fail("property %q cannot be animated", name)
		}
		if i > 0 && def.kind != kind {
			return fail("%s animates properties of different kinds", a.typeName)
		}
		kind = def.kind
	}
	switch {
	case (a.kind == animNumber || a.kind == animRotation) && kind != kindNumber:
		return fail("%s needs a number property, %q is a %s", a.typeName, a.properties[0], kind)
	case a.kind == animColor && kind != kindColor:
		return fail("ColorAnimation needs a color property, %q is a %s", a.properties[0], kind)
	case a.kind == animProperty && kind != kindNumber && kind != kindColor:
		return fail("PropertyAnimation cannot animate %s property %q", kind, a.properties[0])
	}
	a.valueKind = kind

	def := propertyDef{kind: kind}
	if a.hasFrom {
		v, err := coerce(def, a.rawFrom)
		if err != nil {
			return fail("from: %v", err)
		}
		a.from = v
	}
	if !a.hasTo {
		return fail("%s has no to value", a.typeName)
	}
	v, err := coerce(def, a.rawTo)
	if err != nil {
		return fail("to: %v", err)
	}
	a.to = v
	return nil
}

// span returns the length of one iteration in ms.
func (a *animSpec) span() float64 {
	switch a.kind {
	case animSequential:
		total := 0.0
		for _, c := range a.children {
			total += c.total()
		}
		return total
	case animParallel:
		longest := 0.0
		for _, c := range a.children {
			longest = math.Max(longest, c.total())
		}
		return longest
	default:
		return a.duration
	}
}

// total returns the running time in ms. An infinite animation counts one
// iteration.
func (a *animSpec) total() float64 {
	if a.loops == infinite {
		return a.span()
	}
	return a.span() * float64(a.loops)
}

// localTime maps time since start to time within the current iteration.
// It returns false before the animation has started.
func (a *animSpec) localTime(t float64) (float64, bool) {
	if t < 0 {
		return 0, false
	}
	span := a.span()
	if span <= 0 {
		return 0, true
	}
	if a.loops != infinite && t >= span*float64(a.loops) {
		return span, true
	}
	if a.loops == 1 {
		return t, true
	}
	return math.Mod(t, span), true
}

// writer receives animated property values.
type writer interface {
	// animate sets prop of target.
	animate(target *itemSpec, prop string, v value)

	// base returns the declared value of prop of target.
	base(target *itemSpec, prop string) value
}

// apply evaluates a at t ms after its start. Animations that have not
// started do not write; finished ones hold their end value.
func (a *animSpec) apply(t float64, w writer) {
	lt, started := a.localTime(t)
	if !started {
		return
	}
	switch a.kind {
	case animPause:
	case animSequential:
		offset := 0.0
		for _, c := range a.children {
			c.apply(lt-offset, w)
			offset += c.total()
		}
	case animParallel:
		for _, c := range a.children {
			c.apply(lt, w)
		}
	default:
		progress := 1.0
		if a.duration > 0 {
			progress = math.Min(lt/a.duration, 1)
		}
		eased := a.easing(progress)
		for _, prop := range a.properties {
			w.animate(a.target, prop, a.at(eased, prop, w))
		}
	}
}

// at interpolates between from and to. A missing from uses the target's
// declared value, obtained through base.
func (a *animSpec) at(eased float64, prop string, w writer) value {
	from := a.from
	if !a.hasFrom {
		from = w.base(a.target, prop)
	}
	if a.valueKind == kindColor {
		return colorValue(lerpColor(from.col, a.to.col, eased))
	}
	f, to := from.num, a.to.num
	if a.kind == animRotation {
		f, to = rotationEnds(f, to, a.direction)
	}
	return numberValue(f + (to-f)*eased)
}

// rotationEnds adjusts the end angle for the rotation direction.
func rotationEnds(from, to float64, dir rotationDirection) (float64, float64) {
	switch dir {
	case rotateClockwise:
		for to < from {
			to += 360
		}
	case rotateCounterclockwise:
		for to > from {
			to -= 360
		}
	case rotateShortest:
		d := math.Mod(to-from, 360)
		if d > 180 {
			d -= 360
		} else if d < -180 {
			d += 360
		}
		to = from + d
	}
	return from, to
}
