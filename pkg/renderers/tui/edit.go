package tui

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// Menu entries appended after the categories.
const (
	ActionSave    = "Save changes"
	ActionDiscard = "Discard changes and quit"
)

// Edit runs the interactive loop for page: pick a category, edit its fields,
// then save or discard. A failed save keeps the edits and returns to the menu
// so the user can retry. Aborting the prompt cancels the session.
func (r *Renderer) Edit(ctx context.Context, sess *editor.Session, page render.Page) (editor.SaveResult, error) {
	empty := editor.SaveResult{Written: []editor.Entry{}}
	if sess == nil {
		return empty, ErrNoSession
	}
	if r.driver == nil {
		return empty, ErrNoDriver
	}
	switch {
	case page.Status == store.StatusUnavailable:
		return empty, fmt.Errorf("%w: %s", store.ErrUnavailable, page.Error)
	case len(page.Categories) == 0:
		return empty, r.info(ctx, fmt.Sprintf("Page %q has no editable text.", page.ID))
	}

	for {
		options := r.menu(sess, page.Categories)
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:  r.theme.PromptPrefix + "Edit " + fields.DefaultLabeler(page.ID),
			Options:  options,
			PageSize: len(options),
		})
		if err != nil {
			return empty, r.abort(sess, err)
		}

		switch {
		case choice >= 0 && choice < len(page.Categories):
			if err := r.editCategory(ctx, sess, page.Categories[choice]); err != nil {
				return empty, r.abort(sess, err)
			}
		case choice == len(page.Categories):
			result, done, err := r.save(ctx, sess)
			if err != nil {
				return empty, r.abort(sess, err)
			}
			if done {
				return result, nil
			}
		case choice == len(page.Categories)+1:
			done, err := r.discard(ctx, sess)
			if err != nil {
				return empty, r.abort(sess, err)
			}
			if done {
				return empty, nil
			}
		default:
			return empty, r.abort(sess, fmt.Errorf("tui: unknown menu choice %d", choice))
		}
	}
}

func (r *Renderer) menu(sess *editor.Session, categories []fields.Category) []string {
	options := make([]string, 0, len(categories)+2)
	for _, category := range categories {
		changed := 0
		for _, field := range category.Fields {
			if sess.Dirty(field.Path) {
				changed++
			}
		}
		label := fmt.Sprintf("%s (%d)", category.Label, len(category.Fields))
		if changed > 0 {
			label = fmt.Sprintf("%s (%d, %d changed)", category.Label, len(category.Fields), changed)
		}
		options = append(options, label)
	}
	return append(options, ActionSave, ActionDiscard)
}

func (r *Renderer) editCategory(ctx context.Context, sess *editor.Session, category fields.Category) error {
	if err := r.info(ctx, categoryHeading(category)); err != nil {
		return err
	}
	for _, field := range category.Fields {
		current := sess.Value(field.Path, field.Value)
		for {
			value, err := r.promptValue(ctx, field, current, nil)
			if err != nil {
				return err
			}
			if value == current {
				break
			}
			if err := sess.Change(field.Path, value); err != nil {
				if ferr := r.fail(ctx, err.Error()); ferr != nil {
					return ferr
				}
				continue
			}
			break
		}
	}
	return nil
}

func (r *Renderer) save(ctx context.Context, sess *editor.Session) (editor.SaveResult, bool, error) {
	pending := sess.Pending()
	if len(pending) == 0 {
		return editor.SaveResult{Written: []editor.Entry{}}, true, r.info(ctx, "No changes to save.")
	}

	ok, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Save %d change(s)?", len(pending)),
		Default: true,
	})
	if err != nil || !ok {
		return editor.SaveResult{}, false, err
	}

	result, err := sess.SaveAll(ctx)
	var saveErr *editor.SaveError
	if errors.As(err, &saveErr) {
		r.logger.Warn("save failed",
			zap.String("session", sess.ID()),
			zap.String("path", saveErr.Path),
			zap.Int("written", len(saveErr.Written)),
			zap.Error(saveErr.Err),
		)
		message := fmt.Sprintf("Could not save %s: %v. %d field(s) were written; your edits are kept.",
			saveErr.Path, saveErr.Err, len(saveErr.Written))
		return editor.SaveResult{}, false, r.fail(ctx, message)
	}
	if err != nil {
		return editor.SaveResult{}, false, err
	}

	r.logger.Info("saved", zap.String("session", sess.ID()), zap.String("batch", result.Batch), zap.Int("fields", len(result.Written)))
	return result, true, r.info(ctx, fmt.Sprintf("Saved %d field(s).", len(result.Written)))
}

func (r *Renderer) discard(ctx context.Context, sess *editor.Session) (bool, error) {
	if pending := sess.Pending(); len(pending) > 0 {
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Discard %d change(s)?", len(pending)),
		})
		if err != nil || !ok {
			return false, err
		}
	}
	if err := sess.Cancel(); err != nil {
		return false, err
	}
	return true, r.info(ctx, "Changes discarded.")
}

func (r *Renderer) abort(sess *editor.Session, err error) error {
	if errors.Is(err, ErrAborted) && sess.State() == editor.StateEditing {
		_ = sess.Cancel()
	}
	return err
}
