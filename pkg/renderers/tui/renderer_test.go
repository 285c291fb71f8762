package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/store"
	"github.com/goliatone/go-pagecms/pkg/store/memory"
	"github.com/goliatone/go-pagecms/pkg/testsupport"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	menus        [][]string
	beforeSelect func(pos int)
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	for {
		if s.inputPos >= len(s.inputs) {
			return "", errors.New("no input scripted")
		}
		val := s.inputs[s.inputPos]
		s.inputPos++
		if cfg.Validator != nil {
			if err := cfg.Validator(val); err != nil {
				s.infoMessages = append(s.infoMessages, err.Error())
				continue
			}
		}
		return val, nil
	}
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.beforeSelect != nil {
		s.beforeSelect(s.selectPos)
	}
	s.menus = append(s.menus, cfg.Options)
	if s.selectPos >= len(s.selectIdx) {
		return -1, ErrAborted
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) sawInfo(fragment string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// homeAnswers keeps every home field except the hero title.
var homeAnswers = []string{"Warm bread", "Since 1952", "Order now", "Our story", "Three generations of bakers.", "7-19", "8-14"}

func homePage(t *testing.T, r store.Reader, sess *editor.Session) render.Page {
	t.Helper()
	return render.NewPage(testsupport.MustSnapshot(t, r, "home"), sess)
}

func newRenderer(t *testing.T, driver PromptDriver, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(append([]Option{WithPromptDriver(driver)}, opts...)...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestRender_CollectsChangedValues(t *testing.T) {
	driver := &stubDriver{inputs: homeAnswers}
	r := newRenderer(t, driver)

	out, err := r.Render(context.Background(), homePage(t, testsupport.SiteStore(), nil), render.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var got Changes
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	want := Changes{Page: "home", Changes: []editor.Entry{{Path: "pages.home.hero.title", Value: "Warm bread"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
	if driver.inputPos != len(homeAnswers) {
		t.Fatalf("expected %d prompts, got %d", len(homeAnswers), driver.inputPos)
	}
	if !driver.sawInfo("== Hero ==") || !driver.sawInfo("== Hours ==") {
		t.Fatalf("expected category headings, got %v", driver.infoMessages)
	}
}

func TestRender_OutputFormats(t *testing.T) {
	driver := &stubDriver{inputs: homeAnswers}
	r := newRenderer(t, driver, WithOutputFormat(OutputFormatFormURLEncoded))
	if r.ContentType() != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type %q", r.ContentType())
	}
	out, err := r.Render(context.Background(), homePage(t, testsupport.SiteStore(), nil), render.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	values, err := url.ParseQuery(string(out))
	if err != nil {
		t.Fatalf("parse form output: %v", err)
	}
	if values.Get("page_id") != "home" || values.Get("pages.home.hero.title") != "Warm bread" {
		t.Fatalf("unexpected form output %q", out)
	}

	driver = &stubDriver{inputs: homeAnswers}
	r = newRenderer(t, driver, WithOutputFormat(OutputFormatPrettyText))
	out, err = r.Render(context.Background(), homePage(t, testsupport.SiteStore(), nil), render.Options{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "home: 1 change(s)\n  pages.home.hero.title = \"Warm bread\"\n"
	if string(out) != want {
		t.Fatalf("pretty output mismatch\nwant: %q\n got: %q", want, out)
	}

	if _, err := New(WithPromptDriver(driver), WithOutputFormat("yaml")); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestRender_ValidatorAndErrors(t *testing.T) {
	answers := append([]string{"", "Warm bread"}, homeAnswers[1:]...)
	driver := &stubDriver{inputs: answers}
	r := newRenderer(t, driver,
		WithTheme(Theme{ErrorPrefix: "! "}),
		WithValidator(func(path, value string) error {
			if strings.TrimSpace(value) == "" {
				return errors.New(path + " must not be blank")
			}
			return nil
		}),
	)

	_, err := r.Render(context.Background(), homePage(t, testsupport.SiteStore(), nil), render.Options{
		Errors: map[string][]string{"pages.home.hero.cta": {"too long"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !driver.sawInfo("pages.home.hero.title must not be blank") {
		t.Fatalf("expected validator message, got %v", driver.infoMessages)
	}
	if !driver.sawInfo("! too long") {
		t.Fatalf("expected field error, got %v", driver.infoMessages)
	}
}

func TestRender_MultilineUsesTextArea(t *testing.T) {
	sess, err := editor.New(testsupport.SiteStore())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := sess.Change("pages.home.about.body", "line one\nline two"); err != nil {
		t.Fatalf("change: %v", err)
	}
	driver := &stubDriver{
		inputs:    []string{"Fresh bread daily", "Since 1952", "Order now", "Our story", "7-19", "8-14"},
		textAreas: []string{"line one\nline two"},
	}
	r := newRenderer(t, driver)
	if _, err := r.Render(context.Background(), homePage(t, testsupport.SiteStore(), sess), render.Options{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if driver.textPos != 1 {
		t.Fatalf("expected one textarea prompt, got %d", driver.textPos)
	}
}

func TestRender_Unavailable(t *testing.T) {
	offline := memory.New(testsupport.Site(), memory.WithLoadError(errors.New("offline")))
	page := render.NewPage(store.Snapshot(context.Background(), offline, "home"), nil)
	_, err := newRenderer(t, &stubDriver{}).Render(context.Background(), page, render.Options{})
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEdit_SaveFlow(t *testing.T) {
	backing := testsupport.SiteStore()
	sess, err := editor.New(backing)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	driver := &stubDriver{
		selectIdx: []int{0, 3},
		inputs:    []string{"Warm bread", "Since 1952", "Order now"},
		confirm:   []bool{true},
	}

	result, err := newRenderer(t, driver).Edit(context.Background(), sess, homePage(t, backing, sess))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	want := []editor.Entry{{Path: "pages.home.hero.title", Value: "Warm bread"}}
	if diff := cmp.Diff(want, result.Written); diff != "" {
		t.Fatalf("written mismatch (-want +got):\n%s", diff)
	}
	if sess.State() != editor.StateIdle {
		t.Fatalf("expected idle session, got %s", sess.State())
	}
	doc := backing.Document()
	if got, _ := doc.LookupString("pages.home.hero.title"); got != "Warm bread" {
		t.Fatalf("store not updated, got %q", got)
	}
	wantMenu := []string{"Hero (3, 1 changed)", "About (2)", "Hours (2)", ActionSave, ActionDiscard}
	if diff := cmp.Diff(wantMenu, driver.menus[1]); diff != "" {
		t.Fatalf("menu mismatch (-want +got):\n%s", diff)
	}
	if !driver.sawInfo("Saved 1 field(s).") {
		t.Fatalf("expected save confirmation, got %v", driver.infoMessages)
	}
}

func TestEdit_RetriesAfterFailedSave(t *testing.T) {
	boom := errors.New("disk full")
	backing := testsupport.SiteStore(memory.WithFailure("pages.home.hero.title", boom))
	sess, err := editor.New(backing)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	driver := &stubDriver{
		selectIdx: []int{0, 3, 3},
		inputs:    []string{"Warm bread", "Since 1952", "Order now"},
		confirm:   []bool{true, true},
		beforeSelect: func(pos int) {
			if pos == 2 {
				backing.Heal("pages.home.hero.title")
			}
		},
	}

	result, err := newRenderer(t, driver).Edit(context.Background(), sess, homePage(t, backing, sess))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !driver.sawInfo("Could not save pages.home.hero.title: disk full") {
		t.Fatalf("expected failure message, got %v", driver.infoMessages)
	}
	if len(result.Written) != 1 {
		t.Fatalf("expected retry to write one field, got %+v", result)
	}
	if len(backing.Writes()) != 2 {
		t.Fatalf("expected two write attempts, got %d", len(backing.Writes()))
	}
}

func TestEdit_Discard(t *testing.T) {
	backing := testsupport.SiteStore()
	sess, err := editor.New(backing)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	driver := &stubDriver{
		selectIdx: []int{0, 4},
		inputs:    []string{"Warm bread", "Since 1952", "Order now"},
		confirm:   []bool{true},
	}

	result, err := newRenderer(t, driver).Edit(context.Background(), sess, homePage(t, backing, sess))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(result.Written) != 0 || len(sess.Pending()) != 0 || sess.State() != editor.StateIdle {
		t.Fatalf("expected discarded session, got %+v state=%s", result, sess.State())
	}
	if len(backing.Writes()) != 0 {
		t.Fatalf("discard must not write")
	}
}

func TestEdit_AbortCancelsSession(t *testing.T) {
	backing := testsupport.SiteStore()
	sess, err := editor.New(backing)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	driver := &stubDriver{
		selectIdx: []int{0},
		inputs:    []string{"Warm bread", "Since 1952", "Order now"},
	}

	_, err = newRenderer(t, driver).Edit(context.Background(), sess, homePage(t, backing, sess))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if sess.State() != editor.StateIdle || len(sess.Pending()) != 0 {
		t.Fatalf("expected cancelled session, got state=%s pending=%v", sess.State(), sess.Pending())
	}
}

func TestEdit_NothingToSave(t *testing.T) {
	backing := testsupport.SiteStore()
	sess, err := editor.New(backing)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	driver := &stubDriver{selectIdx: []int{3}}

	result, err := newRenderer(t, driver).Edit(context.Background(), sess, homePage(t, backing, sess))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(result.Written) != 0 || !driver.sawInfo("No changes to save.") {
		t.Fatalf("unexpected result %+v messages=%v", result, driver.infoMessages)
	}
	if _, err := newRenderer(t, driver).Edit(context.Background(), nil, render.Page{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestSurveyDriverInfoWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	driver := newSurveyDriver(&buf)
	if err := driver.Info(context.Background(), "hello"); err != nil {
		t.Fatalf("info: %v", err)
	}
	if buf.String() != "hello\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
