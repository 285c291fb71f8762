package render

import (
	"fmt"
	"sort"
	"strings"
)

// Hidden field names understood by the admin form handler.
const (
	HiddenSession = "session_id"
	HiddenPage    = "page_id"
	HiddenCSRF    = "_csrf"
)

// HiddenField is a hidden form input emitted alongside the editable fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken carries an anti-forgery token under the default name.
func CSRFToken(token string) HiddenField {
	return Hidden(HiddenCSRF, token)
}

// SessionField carries the edit session id.
func SessionField(id string) HiddenField {
	return Hidden(HiddenSession, id)
}

// PageField carries the page id.
func PageField(id string) HiddenField {
	return Hidden(HiddenPage, id)
}

// MergeHiddenFields returns a copy of base with fields applied. Empty names
// are ignored; later fields win.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		out[field.Name] = field.Value
	}
	return out
}

// SortedHiddenFields returns the fields ordered by name.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: strings.TrimSpace(name), Value: fields[name]})
	}
	return out
}
