package dsl

// Attrs are the attributes of an element, keyed by attribute name.
type Attrs map[string]any

// Spec describes one element and its children.
type Spec struct {
	Type     string
	Name     string
	Attrs    Attrs
	Children []Spec
}

// El describes an element of the given type.
func El(typ string, attrs Attrs, children ...Spec) Spec {
	return Spec{Type: typ, Attrs: attrs, Children: children}
}

// Named sets the ID segment of the element. Unnamed elements get
// "<type>[<index>]".
func (s Spec) Named(name string) Spec {
	s.Name = name
	return s
}

// Attr returns a copy of the spec with one more attribute.
func (s Spec) Attr(key string, value any) Spec {
	attrs := make(Attrs, len(s.Attrs)+1)
	for k, v := range s.Attrs {
		attrs[k] = v
	}
	attrs[key] = value
	s.Attrs = attrs
	return s
}

// Add returns a copy of the spec with more children.
func (s Spec) Add(children ...Spec) Spec {
	s.Children = append(append([]Spec(nil), s.Children...), children...)
	return s
}
