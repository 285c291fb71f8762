package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-pagecms/pkg/editor"
)

// FormErrorKey collects messages that do not belong to a single field.
const FormErrorKey = "_form"

// ErrorMapping splits error messages into field-level and form-level lists.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// SaveErrors turns an error returned by editor.Session.SaveAll into messages
// keyed by field path. A *editor.SaveError is attached to the failing field;
// anything else is form-level.
func SaveErrors(err error) map[string][]string {
	if err == nil {
		return nil
	}
	var saveErr *editor.SaveError
	if errors.As(err, &saveErr) {
		msg := "could not be saved"
		if saveErr.Err != nil {
			msg = saveErr.Err.Error()
		}
		return map[string][]string{saveErr.Path: {msg}}
	}
	return map[string][]string{FormErrorKey: {err.Error()}}
}

// MapErrors matches messages keyed by loosely formatted paths (dotted, JSON
// pointer, bracketed indices, wrapped in "body" or "content") to the page's
// field paths. Unknown paths become form-level messages so nothing is lost.
func MapErrors(page Page, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{}, len(page.Fields))
	for _, field := range page.Fields {
		known[field.Path] = struct{}{}
	}

	for raw, messages := range payload {
		messages = normalizeMessages(messages)
		if len(messages) == 0 {
			continue
		}
		path, ok := matchFieldPath(raw, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[path] = append(mapping.Fields[path], messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// MergeFormErrors concatenates message lists, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func matchFieldPath(raw string, known map[string]struct{}) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	segments := parsePathSegments(raw)
	if len(segments) == 0 {
		return "", false
	}
	for _, candidate := range [][]string{segments, dropWrapperSegments(segments)} {
		if len(candidate) == 0 {
			continue
		}
		if _, ok := known[strings.Join(candidate, ".")]; ok {
			return strings.Join(candidate, "."), true
		}
	}
	return "", false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data", "content", "fields":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", FormErrorKey, "__all__", "non_field_errors":
		return true
	default:
		return false
	}
}
