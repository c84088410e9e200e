package dsl

import (
	"fmt"
	"strconv"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// Mountable is a node the builder can place in a tree.
type Mountable interface {
	domain.Node
	Mount(self domain.Node, p domain.Placement)
	SetChildren(children []domain.Node)
}

// Named is implemented by elements addressable through the archive, e.g. macros.
type Named interface {
	ElementName() string
}

// Builder manages the tree construction.
type Builder struct {
	reg  *registry.Registry
	file string
	line int
}

// New creates a new tree builder. file is reported as the location of every node.
func New(reg *registry.Registry, file string) *Builder {
	return &Builder{reg: reg, file: file}
}

// Build creates the tree described by root. Named elements are registered
// with the builder's registry.
func (b *Builder) Build(root Spec) (domain.Node, error) {
	b.line = 0
	id := root.Name
	if id == "" {
		id = root.Type
	}
	return b.build(root, id, nil)
}

func (b *Builder) build(s Spec, id string, parent domain.Node) (domain.Node, error) {
	b.line++
	node, err := b.reg.New(s.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	m, ok := node.(Mountable)
	if !ok {
		return nil, fmt.Errorf("%s: element type %q cannot be mounted", id, s.Type)
	}
	if err := decode(s.Attrs, node); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	m.Mount(node, domain.Placement{
		ID:       id,
		Type:     s.Type,
		Location: domain.Location{File: b.file, Line: b.line},
		Parent:   parent,
		Archive:  b.reg,
	})

	children := make([]domain.Node, 0, len(s.Children))
	for i, cs := range s.Children {
		seg := cs.Name
		if seg == "" {
			seg = cs.Type + "[" + strconv.Itoa(i) + "]"
		}
		child, err := b.build(cs, id+"/"+seg, node)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	m.SetChildren(children)

	if named, ok := node.(Named); ok && named.ElementName() != "" {
		b.reg.RegisterElement(named.ElementName(), node)
	}
	return node, nil
}

func decode(attrs Attrs, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if attrs == nil {
		attrs = Attrs{}
	}
	return dec.Decode(map[string]any(attrs))
}
