// Package rawjson edits serialized JSON documents in place so stores can
// persist a single field without re-encoding the whole payload.
package rawjson

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/goliatone/go-pagecms/pkg/content"
)

// ErrInvalidJSON is returned for payloads that are not a JSON document.
var ErrInvalidJSON = errors.New("rawjson: invalid JSON")

// Validate checks data is well formed JSON with an object root.
func Validate(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrInvalidJSON
	}
	if !gjson.ParseBytes(data).IsObject() {
		return content.ErrNotObject
	}
	return nil
}

// Decode validates data and parses it into a document.
func Decode(data []byte) (content.Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return content.NewDocument(nil), nil
	}
	if err := Validate(data); err != nil {
		return content.Document{}, err
	}
	return content.Parse(data)
}

// SetString writes value at path and returns the new payload. The write obeys
// the same rules as content.Document.SetString: it refuses to replace a
// container or to descend through a leaf, and missing intermediates become
// objects.
func SetString(data []byte, path, value string) ([]byte, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("{}")
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := doc.SetString(path, value); err != nil {
		return nil, err
	}
	segments, err := content.SplitPath(path)
	if err != nil {
		return nil, err
	}
	out, err := sjson.SetBytes(data, sjsonPath(data, segments), value)
	if err != nil {
		return nil, fmt.Errorf("rawjson: set %q: %w", path, err)
	}
	return out, nil
}

// Lookup returns the string stored at path.
func Lookup(data []byte, path string) (string, bool) {
	segments, err := content.SplitPath(path)
	if err != nil {
		return "", false
	}
	res := gjson.GetBytes(data, gjsonPath(segments))
	if res.Type != gjson.String {
		return "", false
	}
	return res.String(), true
}

// sjsonPath escapes each segment. Numeric segments are only treated as array
// indices when the existing parent is an array; everywhere else they are
// forced to object keys so new intermediates come out as objects.
func sjsonPath(data []byte, segments []string) string {
	parts := make([]string, len(segments))
	for i, segment := range segments {
		part := escape(segment)
		if isIndex(segment) && !(i > 0 && gjson.GetBytes(data, gjsonPath(segments[:i])).IsArray()) {
			part = ":" + part
		}
		parts[i] = part
	}
	return strings.Join(parts, ".")
}

func gjsonPath(segments []string) string {
	parts := make([]string, len(segments))
	for i, segment := range segments {
		parts[i] = escape(segment)
	}
	return strings.Join(parts, ".")
}

func escape(segment string) string {
	var b strings.Builder
	for i := 0; i < len(segment); i++ {
		switch ch := segment[i]; ch {
		case '\\', '|', '#', '@', '*', '?', '!', ':', '=', '<', '>', '%':
			b.WriteByte('\\')
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func isIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for i := 0; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
