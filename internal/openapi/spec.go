// Package openapi loads the embedded description of the pagecms HTTP API and
// validates incoming requests against it.
package openapi

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var specYAML []byte

// Operation is one documented method/path pair.
type Operation struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
}

// Spec is a loaded and validated API document.
type Spec struct {
	doc    *openapi3.T
	router routers.Router
	raw    []byte
}

// Load parses the embedded API document.
func Load(ctx context.Context) (*Spec, error) {
	return Parse(ctx, specYAML)
}

// Parse loads an API document from YAML or JSON and validates it.
func Parse(ctx context.Context, data []byte) (*Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}

	router, err := legacy.NewRouter(doc, openapi3.DisableExamplesValidation())
	if err != nil {
		return nil, fmt.Errorf("openapi: build router: %w", err)
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("openapi: encode document: %w", err)
	}
	return &Spec{doc: doc, router: router, raw: raw}, nil
}

// Document exposes the parsed document.
func (s *Spec) Document() *openapi3.T {
	return s.doc
}

// JSON returns the document encoded as JSON.
func (s *Spec) JSON() []byte {
	return append([]byte(nil), s.raw...)
}

// Operations lists every documented operation sorted by path then method.
func (s *Spec) Operations() []Operation {
	var out []Operation
	for path, item := range s.doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = method + " " + path
			}
			out = append(out, Operation{ID: id, Method: method, Path: path, Summary: op.Summary})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
