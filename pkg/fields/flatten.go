package fields

import (
	"sort"
	"strconv"

	"github.com/goliatone/go-pagecms/pkg/content"
)

const (
	// DefaultMaxDepth bounds how many segments below the page subtree the
	// flattener follows.
	DefaultMaxDepth = 4
	// DefaultCategory groups strings stored directly under the page subtree.
	DefaultCategory = "general"
	// PagesKey is the namespace holding per-page subtrees.
	PagesKey = "pages"
)

// FieldDescriptor is one editable string leaf. Descriptors are derived from a
// document snapshot on every read and never persisted.
type FieldDescriptor struct {
	Path     string `json:"path"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Category string `json:"category"`
	Page     string `json:"page"`
	Depth    int    `json:"depth"`
}

// Option configures Flatten.
type Option func(*options)

type options struct {
	maxDepth        int
	labeler         func(string) string
	defaultCategory string
}

// WithMaxDepth overrides DefaultMaxDepth. Values below one are ignored.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithLabeler overrides the label generation function.
func WithLabeler(labeler func(string) string) Option {
	return func(o *options) {
		if labeler != nil {
			o.labeler = labeler
		}
	}
}

// WithDefaultCategory overrides the category used for direct page leaves.
func WithDefaultCategory(name string) Option {
	return func(o *options) {
		if name != "" {
			o.defaultCategory = name
		}
	}
}

func newOptions(opts []Option) options {
	cfg := options{
		maxDepth:        DefaultMaxDepth,
		labeler:         DefaultLabeler,
		defaultCategory: DefaultCategory,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Flatten lists the editable fields of pageID. It reads pages.<pageID> first
// and the root key <pageID> second; paths are always absolute from the
// document root.
func Flatten(doc *content.Document, pageID string, opts ...Option) []FieldDescriptor {
	out := []FieldDescriptor{}
	if doc == nil || !content.Addressable(pageID) {
		return out
	}

	w := &walker{cfg: newOptions(opts), page: pageID, out: out}
	root := doc.Root()

	if pages, ok := root.Get(PagesKey); ok {
		if namespace, ok := pages.(*content.Object); ok {
			if subtree, ok := namespace.Get(pageID); ok {
				w.visit(subtree, []string{PagesKey, pageID}, nil)
			}
		}
	}
	if subtree, ok := root.Get(pageID); ok {
		w.visit(subtree, []string{pageID}, nil)
	}
	return w.out
}

type walker struct {
	cfg  options
	page string
	out  []FieldDescriptor
}

func (w *walker) visit(node content.Node, prefix, rel []string) {
	switch typed := node.(type) {
	case *content.Object:
		for _, key := range typed.Keys() {
			if !content.Addressable(key) {
				continue
			}
			child, _ := typed.Get(key)
			w.child(child, prefix, rel, key, false)
		}
	case content.Array:
		for i, child := range typed {
			w.child(child, prefix, rel, strconv.Itoa(i), true)
		}
	}
}

func (w *walker) child(node content.Node, prefix, rel []string, segment string, indexed bool) {
	childRel := append(rel[:len(rel):len(rel)], segment)
	depth := len(childRel)

	switch typed := node.(type) {
	case content.String:
		if depth > w.cfg.maxDepth {
			return
		}
		w.out = append(w.out, FieldDescriptor{
			Path:     content.JoinPath(append(prefix[:len(prefix):len(prefix)], childRel...)...),
			Label:    w.label(rel, segment, indexed),
			Value:    string(typed),
			Category: w.category(childRel),
			Page:     w.page,
			Depth:    depth,
		})
	case *content.Object, content.Array:
		if depth >= w.cfg.maxDepth {
			return
		}
		w.visit(typed, prefix, childRel)
	}
}

func (w *walker) label(parent []string, segment string, indexed bool) string {
	if !indexed {
		return w.cfg.labeler(segment)
	}
	idx, _ := strconv.Atoi(segment)
	base := "Item"
	if len(parent) > 0 {
		base = w.cfg.labeler(parent[len(parent)-1])
	}
	return base + " " + strconv.Itoa(idx+1)
}

func (w *walker) category(rel []string) string {
	if len(rel) < 2 {
		return w.cfg.defaultCategory
	}
	return rel[0]
}

// Category is a named group of descriptors sharing the same top-level key.
type Category struct {
	Name   string            `json:"name"`
	Label  string            `json:"label"`
	Fields []FieldDescriptor `json:"fields"`
}

// Group buckets descriptors by category, keeping first-seen order for both
// categories and fields.
func Group(fields []FieldDescriptor) []Category {
	out := []Category{}
	index := make(map[string]int)
	for _, field := range fields {
		pos, ok := index[field.Category]
		if !ok {
			pos = len(out)
			index[field.Category] = pos
			out = append(out, Category{Name: field.Category, Label: DefaultLabeler(field.Category)})
		}
		out[pos].Fields = append(out[pos].Fields, field)
	}
	return out
}

// Pages lists the page identifiers that can hold editable content: object
// children of the pages namespace plus object-valued root keys.
func Pages(doc *content.Document) []string {
	if doc == nil {
		return nil
	}
	seen := make(map[string]struct{})
	root := doc.Root()

	if pages, ok := root.Get(PagesKey); ok {
		if namespace, ok := pages.(*content.Object); ok {
			for _, key := range namespace.Keys() {
				if !content.Addressable(key) {
					continue
				}
				if child, _ := namespace.Get(key); isContainer(child) {
					seen[key] = struct{}{}
				}
			}
		}
	}
	for _, key := range root.Keys() {
		if key == PagesKey || !content.Addressable(key) {
			continue
		}
		if child, _ := root.Get(key); isContainer(child) {
			seen[key] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func isContainer(node content.Node) bool {
	switch node.(type) {
	case *content.Object, content.Array:
		return true
	default:
		return false
	}
}
