// Package preview turns field values into safe HTML for display next to the
// editor.
package preview

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown

	ugcOnce   sync.Once
	ugcPolicy *bluemonday.Policy

	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

// Heading is one entry of a value's outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Result bundles the renderings of one value.
type Result struct {
	HTML    string    `json:"html"`
	Text    string    `json:"text"`
	Outline []Heading `json:"outline"`
}

// Render converts markdown to sanitised HTML.
func Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := engine().Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("preview: render markdown: %w", err)
	}
	return ugc().Sanitize(buf.String()), nil
}

// Build renders src and collects its plain text and outline.
func Build(src string) (Result, error) {
	rendered, err := Render(src)
	if err != nil {
		return Result{}, err
	}
	return Result{
		HTML:    rendered,
		Text:    Plain(rendered),
		Outline: Outline(src),
	}, nil
}

// Sanitize strips unsafe markup from value while keeping user formatting.
func Sanitize(value string) string {
	return ugc().Sanitize(value)
}

// Plain strips every tag from value.
func Plain(value string) string {
	return strings.TrimSpace(html.UnescapeString(strict().Sanitize(value)))
}

// Outline lists the markdown headings in src.
func Outline(src string) []Heading {
	source := []byte(src)
	doc := engine().Parser().Parse(text.NewReader(source))
	out := []Heading{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			out = append(out, Heading{
				Level: heading.Level,
				Text:  strings.TrimSpace(string(heading.Text(source))),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

func engine() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

func ugc() *bluemonday.Policy {
	ugcOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span")
		policy.AllowAttrs("type", "checked", "disabled").OnElements("input")
		ugcPolicy = policy
	})
	return ugcPolicy
}

func strict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}
