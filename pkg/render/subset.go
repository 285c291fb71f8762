package render

import (
	"strings"

	"github.com/goliatone/go-pagecms/pkg/fields"
)

// FieldSubset narrows a page to some categories or path prefixes. A field is
// kept when it matches any filter; an empty subset keeps everything.
type FieldSubset struct {
	Categories []string
	Paths      []string
}

// Empty reports whether the subset has no filters.
func (s FieldSubset) Empty() bool {
	return len(normaliseTokens(s.Categories)) == 0 && len(trimmedTokens(s.Paths)) == 0
}

// ApplySubset removes the fields that do not match subset and regroups the
// remaining ones.
func ApplySubset(page *Page, subset FieldSubset) {
	if page == nil || subset.Empty() {
		return
	}
	categories := normaliseTokens(subset.Categories)
	prefixes := trimmedTokens(subset.Paths)

	kept := make([]fields.FieldDescriptor, 0, len(page.Fields))
	for _, field := range page.Fields {
		if matchesSubset(field, categories, prefixes) {
			kept = append(kept, field)
		}
	}
	page.Fields = kept
	page.Categories = fields.Group(kept)
}

func matchesSubset(field fields.FieldDescriptor, categories map[string]struct{}, prefixes []string) bool {
	if _, ok := categories[normaliseToken(field.Category)]; ok {
		return true
	}
	for _, prefix := range prefixes {
		if field.Path == prefix || strings.HasPrefix(field.Path, prefix+".") {
			return true
		}
	}
	return false
}

// ParseTokenList splits a comma or whitespace separated list.
func ParseTokenList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normaliseTokens(values []string) map[string]struct{} {
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		if token := normaliseToken(value); token != "" {
			result[token] = struct{}{}
		}
	}
	return result
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func trimmedTokens(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.Trim(strings.TrimSpace(value), "."); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
