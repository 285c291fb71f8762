package content

import "strconv"

// Kind identifies the concrete type held by a Node.
type Kind string

const (
	KindString Kind = "string"
	KindObject Kind = "object"
	KindArray  Kind = "array"
	KindScalar Kind = "scalar"
	KindNull   Kind = "null"
)

// Node is a value inside a content document. The set of implementations is
// closed: String, *Object, Array, Scalar and Null.
type Node interface {
	Kind() Kind
	sealed()
}

// String is an editable text leaf.
type String string

func (String) Kind() Kind { return KindString }
func (String) sealed()    {}

// Scalar holds a non-string JSON literal (number or boolean) verbatim.
type Scalar struct {
	Raw string
}

func (Scalar) Kind() Kind { return KindScalar }
func (Scalar) sealed()    {}

// Null represents an explicit JSON null.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) sealed()    {}

// Array is an ordered list of nodes.
type Array []Node

func (Array) Kind() Kind { return KindArray }
func (Array) sealed()    {}

// Object is a string-keyed map that remembers insertion order.
type Object struct {
	keys   []string
	values map[string]Node
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]Node)}
}

func (*Object) Kind() Kind { return KindObject }
func (*Object) sealed()    {}

// Len reports the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Get returns the node stored under key.
func (o *Object) Get(key string) (Node, bool) {
	if o == nil {
		return nil, false
	}
	node, ok := o.values[key]
	return node, ok
}

// Set stores node under key. Existing keys keep their position.
func (o *Object) Set(key string, node Node) {
	if o.values == nil {
		o.values = make(map[string]Node)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = node
}

// Delete removes key, reporting whether it was present.
func (o *Object) Delete(key string) bool {
	if o == nil {
		return false
	}
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns a deep copy of node.
func Clone(node Node) Node {
	switch typed := node.(type) {
	case *Object:
		if typed == nil {
			return nil
		}
		out := &Object{
			keys:   append([]string(nil), typed.keys...),
			values: make(map[string]Node, len(typed.values)),
		}
		for k, v := range typed.values {
			out.values[k] = Clone(v)
		}
		return out
	case Array:
		out := make(Array, len(typed))
		for i, v := range typed {
			out[i] = Clone(v)
		}
		return out
	default:
		return typed
	}
}

// ToValue converts node into plain Go values (map[string]any, []any, string,
// float64, bool or nil) suitable for templates and generic encoders.
func ToValue(node Node) any {
	switch typed := node.(type) {
	case String:
		return string(typed)
	case Scalar:
		switch typed.Raw {
		case "true":
			return true
		case "false":
			return false
		}
		if f, err := strconv.ParseFloat(typed.Raw, 64); err == nil {
			return f
		}
		return typed.Raw
	case *Object:
		if typed == nil {
			return nil
		}
		out := make(map[string]any, len(typed.keys))
		for _, k := range typed.keys {
			out[k] = ToValue(typed.values[k])
		}
		return out
	case Array:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = ToValue(v)
		}
		return out
	default:
		return nil
	}
}
