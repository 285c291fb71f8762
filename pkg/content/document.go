package content

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	// ErrNotObject is returned when a payload's root is not an object.
	ErrNotObject = errors.New("content: document root must be an object")
	// ErrInvalidPath flags empty paths or empty path segments.
	ErrInvalidPath = errors.New("content: invalid path")
	// ErrPathConflict is returned when a write would descend through a leaf or
	// overwrite a container with a string.
	ErrPathConflict = errors.New("content: path conflicts with existing value")
)

// Document is the whole page-content tree. The zero value is an empty
// document.
type Document struct {
	root *Object
}

// NewDocument wraps root. A nil root yields an empty document.
func NewDocument(root *Object) Document {
	if root == nil {
		root = NewObject()
	}
	return Document{root: root}
}

// Root returns the top-level object, never nil.
func (d *Document) Root() *Object {
	if d.root == nil {
		d.root = NewObject()
	}
	return d.root
}

// Empty reports whether the document holds no keys.
func (d Document) Empty() bool {
	return d.root.Len() == 0
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	if d.root == nil {
		return NewDocument(nil)
	}
	return Document{root: Clone(d.root).(*Object)}
}

// Value returns the document as a plain map.
func (d Document) Value() map[string]any {
	if d.root == nil {
		return map[string]any{}
	}
	return ToValue(d.root).(map[string]any)
}

// Lookup resolves a dot path.
func (d Document) Lookup(path string) (Node, bool) {
	segments, err := SplitPath(path)
	if err != nil || d.root == nil {
		return nil, false
	}
	var current Node = d.root
	for _, segment := range segments {
		switch node := current.(type) {
		case *Object:
			next, ok := node.Get(segment)
			if !ok {
				return nil, false
			}
			current = next
		case Array:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// LookupString resolves a dot path that must point at a string leaf.
func (d Document) LookupString(path string) (string, bool) {
	node, ok := d.Lookup(path)
	if !ok {
		return "", false
	}
	s, ok := node.(String)
	return string(s), ok
}

// SetString writes value at path, creating intermediate objects as needed.
// An array index may address an existing item or append one past the end.
func (d *Document) SetString(path, value string) error {
	segments, err := SplitPath(path)
	if err != nil {
		return err
	}
	if _, err := setIn(d.Root(), segments, value, path); err != nil {
		return err
	}
	return nil
}

func setIn(current Node, segments []string, value, path string) (Node, error) {
	if len(segments) == 0 {
		switch current.(type) {
		case *Object, Array:
			return nil, fmt.Errorf("%w: %q holds a %s", ErrPathConflict, path, current.Kind())
		}
		return String(value), nil
	}

	segment := segments[0]
	switch node := current.(type) {
	case nil, Null:
		obj := NewObject()
		return setIn(obj, segments, value, path)
	case *Object:
		child, _ := node.Get(segment)
		updated, err := setIn(child, segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		node.Set(segment, updated)
		return node, nil
	case Array:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: %q expects an array index at %q", ErrPathConflict, path, segment)
		}
		if idx > len(node) {
			return nil, fmt.Errorf("%w: %q index %d past the end of a %d item array", ErrPathConflict, path, idx, len(node))
		}
		if idx == len(node) {
			node = append(node, Null{})
		}
		updated, err := setIn(node[idx], segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		node[idx] = updated
		return node, nil
	default:
		return nil, fmt.Errorf("%w: %q descends through a %s", ErrPathConflict, path, current.Kind())
	}
}

// FromValue builds a document from plain Go values. Map keys are sorted since
// Go maps carry no order.
func FromValue(value map[string]any) (Document, error) {
	node, err := nodeFromValue(value, 0)
	if err != nil {
		return Document{}, err
	}
	return NewDocument(node.(*Object)), nil
}

func nodeFromValue(value any, depth int) (Node, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("content: value nested deeper than %d levels", maxNesting)
	}
	switch typed := value.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(typed), nil
	case bool:
		return Scalar{Raw: strconv.FormatBool(typed)}, nil
	case int:
		return Scalar{Raw: strconv.Itoa(typed)}, nil
	case int64:
		return Scalar{Raw: strconv.FormatInt(typed, 10)}, nil
	case float64:
		return Scalar{Raw: strconv.FormatFloat(typed, 'f', -1, 64)}, nil
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			child, err := nodeFromValue(typed[k], depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(k, child)
		}
		return obj, nil
	case []any:
		arr := make(Array, 0, len(typed))
		for _, item := range typed {
			child, err := nodeFromValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, child)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("content: unsupported value type %T", value)
	}
}
