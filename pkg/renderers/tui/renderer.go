package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// Name is the registry name of the terminal renderer.
const Name = "tui"

// Renderer implements render.Renderer for terminal-driven sessions. Render
// prompts once through every field and serializes the changes; Edit runs the
// interactive save loop against an edit session.
type Renderer struct {
	driver       PromptDriver
	out          io.Writer
	outputFormat OutputFormat
	validator    Validator
	theme        Theme
	logger       *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		logger:       zap.NewNop(),
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", r.outputFormat)
	}

	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Changes is the JSON payload produced by Render.
type Changes struct {
	Page    string         `json:"page"`
	Changes []editor.Entry `json:"changes"`
}

// Render prompts for every field of page and returns the values that differ
// from the current ones, in field order.
func (r *Renderer) Render(ctx context.Context, page render.Page, opts render.Options) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, ErrNoDriver
	}
	if page.Status == store.StatusUnavailable {
		return nil, fmt.Errorf("%w: %s", store.ErrUnavailable, page.Error)
	}

	render.ApplySubset(&page, opts.Subset)
	if title := strings.TrimSpace(opts.Title); title != "" {
		if err := r.info(ctx, title); err != nil {
			return nil, err
		}
	}
	for _, message := range render.MergeFormErrors(opts.FormErrors, opts.Errors[render.FormErrorKey]...) {
		if err := r.fail(ctx, message); err != nil {
			return nil, err
		}
	}

	changes := []editor.Entry{}
	for _, category := range page.Categories {
		if err := r.info(ctx, categoryHeading(category)); err != nil {
			return nil, err
		}
		for _, field := range category.Fields {
			value, err := r.promptValue(ctx, field, field.Value, opts.Errors[field.Path])
			if err != nil {
				return nil, err
			}
			if value != field.Value {
				changes = append(changes, editor.Entry{Path: field.Path, Value: value})
			}
		}
	}

	return r.serialize(Changes{Page: page.ID, Changes: changes})
}

func (r *Renderer) promptValue(ctx context.Context, field fields.FieldDescriptor, current string, messages []string) (string, error) {
	for _, message := range messages {
		if err := r.fail(ctx, message); err != nil {
			return "", err
		}
	}

	message := r.theme.PromptPrefix + field.Label
	var validate func(string) error
	if r.validator != nil {
		path := field.Path
		validate = func(value string) error { return r.validator(path, value) }
	}

	if render.Multiline(current) {
		return r.driver.TextArea(ctx, TextAreaConfig{
			Message:   message,
			Default:   current,
			Help:      field.Path,
			Validator: validate,
		})
	}
	return r.driver.Input(ctx, InputConfig{
		Message:   message,
		Default:   current,
		Help:      field.Path,
		Validator: validate,
	})
}

func (r *Renderer) info(ctx context.Context, message string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+message)
}

func (r *Renderer) fail(ctx context.Context, message string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+message)
}

func (r *Renderer) serialize(changes Changes) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		values := url.Values{}
		values.Set(render.HiddenPage, changes.Page)
		for _, entry := range changes.Changes {
			values.Set(entry.Path, entry.Value)
		}
		return []byte(values.Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(changes)), nil
	default:
		out, err := json.MarshalIndent(changes, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode changes: %w", err)
		}
		return out, nil
	}
}

func categoryHeading(category fields.Category) string {
	return fmt.Sprintf("== %s ==", category.Label)
}

func prettyPrint(changes Changes) string {
	var b strings.Builder
	if len(changes.Changes) == 0 {
		fmt.Fprintf(&b, "%s: no changes\n", changes.Page)
		return b.String()
	}
	fmt.Fprintf(&b, "%s: %d change(s)\n", changes.Page, len(changes.Changes))
	for _, entry := range changes.Changes {
		fmt.Fprintf(&b, "  %s = %q\n", entry.Path, entry.Value)
	}
	return b.String()
}
