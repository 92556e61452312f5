// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"fmt"
	"image/color"
	"strings"
)

// ItemType is the type of a visual item.
type ItemType string

// Visual item types.
const (
	TypeItem         ItemType = "Item"
	TypeRectangle    ItemType = "Rectangle"
	TypeText         ItemType = "Text"
	TypeImage        ItemType = "Image"
	TypeShaderEffect ItemType = "ShaderEffect"
)

func (t ItemType) valid() bool {
	switch t {
	case TypeItem, TypeRectangle, TypeText, TypeImage, TypeShaderEffect:
		return true
	}
	return false
}

type valueKind uint8

const (
	kindNumber valueKind = iota
	kindBool
	kindColor
	kindString
)

func (k valueKind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindBool:
		return "bool"
	case kindColor:
		return "color"
	default:
		return "string"
	}
}

// value is a property value of one of the supported kinds.
type value struct {
	kind valueKind
	num  float64
	b    bool
	col  color.NRGBA
	str  string
}

func numberValue(v float64) value    { return value{kind: kindNumber, num: v} }
func boolValue(v bool) value         { return value{kind: kindBool, b: v} }
func colorValue(v color.NRGBA) value { return value{kind: kindColor, col: v} }
func stringValue(v string) value     { return value{kind: kindString, str: v} }

// propertyDef describes a property: its kind and the item types that have it.
type propertyDef struct {
	kind  valueKind
	types []ItemType // nil means every type
	enum  []string
}

var properties = map[string]propertyDef{
	"x":        {kind: kindNumber},
	"y":        {kind: kindNumber},
	"z":        {kind: kindNumber},
	"width":    {kind: kindNumber},
	"height":   {kind: kindNumber},
	"opacity":  {kind: kindNumber},
	"rotation": {kind: kindNumber},
	"scale":    {kind: kindNumber},
	"visible":  {kind: kindBool},

	"color":        {kind: kindColor, types: []ItemType{TypeRectangle, TypeText}},
	"radius":       {kind: kindNumber, types: []ItemType{TypeRectangle}},
	"border.width": {kind: kindNumber, types: []ItemType{TypeRectangle}},
	"border.color": {kind: kindColor, types: []ItemType{TypeRectangle}},

	"text":                {kind: kindString, types: []ItemType{TypeText}},
	"font.size":           {kind: kindNumber, types: []ItemType{TypeText}},
	"font.bold":           {kind: kindBool, types: []ItemType{TypeText}},
	"horizontalAlignment": {kind: kindString, types: []ItemType{TypeText}, enum: []string{"left", "center", "right"}},

	"source":   {kind: kindString, types: []ItemType{TypeImage}},
	"fillMode": {kind: kindString, types: []ItemType{TypeImage}, enum: []string{"stretch", "fit"}},

	"wgsl":          {kind: kindString, types: []ItemType{TypeShaderEffect}},
	"fallbackColor": {kind: kindColor, types: []ItemType{TypeShaderEffect}},
}

// staticOnly lists properties that cannot be bound or animated.
var staticOnly = map[string]bool{"source": true, "wgsl": true}

func lookupProperty(t ItemType, name string) (propertyDef, error) {
	def, ok := properties[name]
	if !ok {
		return def, fmt.Errorf("unknown property %q", name)
	}
	if def.types != nil && !hasType(def.types, t) {
		return def, fmt.Errorf("%s has no property %q", t, name)
	}
	return def, nil
}

func hasType(types []ItemType, t ItemType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// coerce converts a raw scalar into the property's kind.
func coerce(def propertyDef, raw any) (value, error) {
	switch def.kind {
	case kindNumber:
		switch v := raw.(type) {
		case int:
			return numberValue(float64(v)), nil
		case float64:
			return numberValue(v), nil
		}
		return value{}, fmt.Errorf("expected number, got %T", raw)
	case kindBool:
		if v, ok := raw.(bool); ok {
			return boolValue(v), nil
		}
		return value{}, fmt.Errorf("expected bool, got %T", raw)
	case kindColor:
		s, ok := raw.(string)
		if !ok {
			return value{}, fmt.Errorf("expected color string, got %T", raw)
		}
		c, err := parseColor(s)
		if err != nil {
			return value{}, err
		}
		return colorValue(c), nil
	default:
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		case int, float64, bool:
			s = fmt.Sprint(v)
		default:
			return value{}, fmt.Errorf("expected string, got %T", raw)
		}
		if def.enum != nil {
			s = strings.ToLower(s)
			if !contains(def.enum, s) {
				return value{}, fmt.Errorf("invalid value %q (want one of %s)", s, strings.Join(def.enum, ", "))
			}
		}
		return stringValue(s), nil
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
