package editor

// Entry is one buffered edit.
type Entry struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// Buffer holds pending edits keyed by path. Iteration follows the order in
// which paths were first changed; editing a path again replaces its value in
// place.
type Buffer struct {
	order  []string
	values map[string]string
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{values: make(map[string]string)}
}

// Set records value for path.
func (b *Buffer) Set(path, value string) {
	if _, ok := b.values[path]; !ok {
		b.order = append(b.order, path)
	}
	b.values[path] = value
}

// Get returns the pending value for path.
func (b *Buffer) Get(path string) (string, bool) {
	value, ok := b.values[path]
	return value, ok
}

// Len reports the number of pending paths.
func (b *Buffer) Len() int {
	return len(b.order)
}

// Entries returns a copy of the pending edits in insertion order.
func (b *Buffer) Entries() []Entry {
	out := make([]Entry, 0, len(b.order))
	for _, path := range b.order {
		out = append(out, Entry{Path: path, Value: b.values[path]})
	}
	return out
}

// Reset discards every pending edit.
func (b *Buffer) Reset() {
	b.order = nil
	b.values = make(map[string]string)
}
