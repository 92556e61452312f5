// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	// Image decoders for Image.source.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/naga"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"gopkg.in/yaml.v3"
)

// itemSpec is the compiled description of one item.
type itemSpec struct {
	typ      ItemType
	id       string
	line     int
	col      int
	static   map[string]value
	bindings []*binding
	children []*itemSpec
	anims    []*animSpec
	image    image.Image
}

// binding is a compiled property expression.
type binding struct {
	prop  string
	expr  string
	proto *lua.FunctionProto
	line  int
	col   int
}

var (
	idPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	yamlLineRef = regexp.MustCompile(`line (\d+)`)
)

// parser compiles a YAML scene description.
type parser struct {
	file   string
	dir    string
	ids    map[string]*itemSpec
	anims  []pendingAnim
	images map[string]image.Image
}

type pendingAnim struct {
	anim  *animSpec
	owner *itemSpec
}

func newParser(file string) *parser {
	dir := "."
	if file != "" {
		dir = filepath.Dir(file)
	}
	return &parser{
		file:   file,
		dir:    dir,
		ids:    make(map[string]*itemSpec),
		images: make(map[string]image.Image),
	}
}

func (p *parser) errorf(n *yaml.Node, format string, args ...any) *CompileError {
	e := &CompileError{File: p.file, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	return e
}

// parse compiles data into the root item spec.
func (p *parser) parse(data []byte) (*itemSpec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		e := &CompileError{File: p.file, Message: strings.TrimPrefix(err.Error(), "yaml: ")}
		if m := yamlLineRef.FindStringSubmatch(err.Error()); m != nil {
			e.Line, _ = strconv.Atoi(m[1])
		}
		return nil, e
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &CompileError{File: p.file, Message: "empty scene"}
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, p.errorf(top, "scene must be a mapping")
	}

	var rootNode *yaml.Node
	for i := 0; i+1 < len(top.Content); i += 2 {
		k, v := top.Content[i], top.Content[i+1]
		switch k.Value {
		case "root":
			rootNode = v
		default:
			return nil, p.errorf(k, "unknown top-level key %q", k.Value)
		}
	}
	if rootNode == nil {
		return nil, p.errorf(top, "missing root")
	}
	if rootNode.Kind != yaml.MappingNode {
		return nil, p.errorf(rootNode, "root must be a mapping")
	}
	if t := fieldValue(rootNode, "type"); t != "" && isAnimationType(t) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, t)
	}

	root, err := p.item(rootNode)
	if err != nil {
		return nil, err
	}
	for _, pa := range p.anims {
		if err := p.resolve(pa.anim, pa.owner); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (p *parser) item(n *yaml.Node) (*itemSpec, error) {
	if n.Kind != yaml.MappingNode {
		return nil, p.errorf(n, "item must be a mapping")
	}
	typ := fieldValue(n, "type")
	switch {
	case typ == "":
		return nil, p.errorf(n, "item has no type")
	case isAnimationType(typ):
		return nil, p.errorf(n, "%s is not a visual item; declare it under animations", typ)
	case !ItemType(typ).valid():
		return nil, p.errorf(n, "unknown type %q", typ)
	}

	spec := &itemSpec{
		typ:    ItemType(typ),
		line:   n.Line,
		col:    n.Column,
		static: make(map[string]value),
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		var err error
		switch k.Value {
		case "type":
		case "id":
			err = p.id(spec, v)
		case "children":
			err = p.children(spec, v)
		case "animations":
			err = p.animations(spec, v)
		case "border", "font":
			err = p.group(spec, k.Value, v)
		default:
			err = p.property(spec, k.Value, v)
		}
		if err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func (p *parser) id(spec *itemSpec, v *yaml.Node) error {
	if v.Kind != yaml.ScalarNode || !idPattern.MatchString(v.Value) {
		return p.errorf(v, "invalid id %q", v.Value)
	}
	if _, dup := p.ids[v.Value]; dup {
		return p.errorf(v, "duplicate id %q", v.Value)
	}
	spec.id = v.Value
	p.ids[v.Value] = spec
	return nil
}

func (p *parser) children(spec *itemSpec, v *yaml.Node) error {
	if v.Kind != yaml.SequenceNode {
		return p.errorf(v, "children must be a list")
	}
	for _, c := range v.Content {
		child, err := p.item(c)
		if err != nil {
			return err
		}
		spec.children = append(spec.children, child)
	}
	return nil
}

func (p *parser) animations(spec *itemSpec, v *yaml.Node) error {
	if v.Kind != yaml.SequenceNode {
		return p.errorf(v, "animations must be a list")
	}
	for _, c := range v.Content {
		a, err := p.animation(c)
		if err != nil {
			return err
		}
		spec.anims = append(spec.anims, a)
		p.anims = append(p.anims, pendingAnim{anim: a, owner: spec})
	}
	return nil
}

func (p *parser) group(spec *itemSpec, prefix string, v *yaml.Node) error {
	if v.Kind != yaml.MappingNode {
		return p.errorf(v, "%s must be a mapping", prefix)
	}
	for i := 0; i+1 < len(v.Content); i += 2 {
		if err := p.property(spec, prefix+"."+v.Content[i].Value, v.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) property(spec *itemSpec, name string, v *yaml.Node) error {
	def, err := lookupProperty(spec.typ, name)
	if err != nil {
		return p.errorf(v, "%v", err)
	}
	if v.Kind != yaml.ScalarNode {
		return p.errorf(v, "property %q must be a scalar", name)
	}

	if v.Tag == "!!str" && strings.HasPrefix(v.Value, "=") {
		if staticOnly[name] {
			return p.errorf(v, "property %q cannot be bound", name)
		}
		b, err := p.binding(name, v)
		if err != nil {
			return err
		}
		spec.bindings = append(spec.bindings, b)
		return nil
	}

	var raw any
	if err := v.Decode(&raw); err != nil {
		return p.errorf(v, "property %q: %v", name, err)
	}
	val, err := coerce(def, raw)
	if err != nil {
		return p.errorf(v, "property %q: %v", name, err)
	}

	switch name {
	case "source":
		img, err := p.loadImage(val.str)
		if err != nil {
			return p.errorf(v, "cannot load image %q: %v", val.str, err)
		}
		spec.image = img
	case "wgsl":
		if _, err := naga.Compile(val.str); err != nil {
			return p.errorf(v, "invalid shader: %v", err)
		}
	}
	spec.static[name] = val
	return nil
}

func (p *parser) binding(name string, v *yaml.Node) (*binding, error) {
	expr := strings.TrimSpace(strings.TrimPrefix(v.Value, "="))
	if expr == "" {
		return nil, p.errorf(v, "empty binding for %q", name)
	}
	chunkName := fmt.Sprintf("%s:%d", filepath.Base(p.file), v.Line)
	chunk, err := parse.Parse(strings.NewReader("return ("+expr+")"), chunkName)
	if err != nil {
		return nil, p.errorf(v, "binding %q: %v", name, err)
	}
	proto, err := lua.Compile(chunk, chunkName)
	if err != nil {
		return nil, p.errorf(v, "binding %q: %v", name, err)
	}
	return &binding{prop: name, expr: expr, proto: proto, line: v.Line, col: v.Column}, nil
}

func (p *parser) loadImage(source string) (image.Image, error) {
	if source == "" {
		return nil, errors.New("empty source")
	}
	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.dir, path)
	}
	if img, ok := p.images[path]; ok {
		return img, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	p.images[path] = img
	return img, nil
}

// fieldValue returns the scalar value of key in mapping n, or "".
func fieldValue(n *yaml.Node, key string) string {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key && n.Content[i+1].Kind == yaml.ScalarNode {
			return n.Content[i+1].Value
		}
	}
	return ""
}
