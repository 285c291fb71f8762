package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pagecms/internal/api"
	"github.com/goliatone/go-pagecms/internal/config"
	"github.com/goliatone/go-pagecms/internal/store/remote"
	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/store"
	"github.com/goliatone/go-pagecms/pkg/store/memory"
	"github.com/goliatone/go-pagecms/pkg/testsupport"
)

func newServer(t *testing.T, st store.Store, mutate ...func(*config.Config)) *api.Server {
	t.Helper()
	cfg := config.Defaults()
	for _, fn := range mutate {
		fn(&cfg)
	}
	srv, err := api.NewServer(st, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func openSession(t *testing.T, h http.Handler, pageID string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/pages/"+pageID+"/sessions", "")
	expectStatus(t, rec, http.StatusCreated)
	info := decode[editor.Info](t, rec)
	if info.ID == "" || info.Page != pageID || info.State != editor.StateIdle {
		t.Fatalf("unexpected session %+v", info)
	}
	return info.ID
}

func TestHealth(t *testing.T) {
	rec := do(t, newServer(t, testsupport.SiteStore()), http.MethodGet, "/health", "")
	expectStatus(t, rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv := newServer(t, testsupport.SiteStore(), func(cfg *config.Config) { cfg.APIKey = "secret" })

	expectStatus(t, do(t, srv, http.MethodGet, "/health", ""), http.StatusOK)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/pages", ""), http.StatusUnauthorized)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/pages", "", "Authorization", "Bearer wrong"), http.StatusUnauthorized)
	expectStatus(t, do(t, srv, http.MethodGet, "/admin/pages/home", ""), http.StatusUnauthorized)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/pages", "", "Authorization", "Bearer secret"), http.StatusOK)
}

func TestOpenAPIDocument(t *testing.T) {
	rec := do(t, newServer(t, testsupport.SiteStore()), http.MethodGet, "/api/openapi.json", "")
	expectStatus(t, rec, http.StatusOK)
	doc := decode[map[string]any](t, rec)
	if doc["openapi"] != "3.0.3" {
		t.Fatalf("unexpected openapi version %v", doc["openapi"])
	}
}

func TestGetContent(t *testing.T) {
	rec := do(t, newServer(t, testsupport.SiteStore()), http.MethodGet, "/api/content", "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[map[string]any](t, rec)
	if diff := cmp.Diff(testsupport.Site().Value(), got); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestGetContentUnavailable(t *testing.T) {
	st := testsupport.SiteStore(memory.WithLoadError(fmt.Errorf("%w: timeout", store.ErrUnavailable)))
	rec := do(t, newServer(t, st), http.MethodGet, "/api/content", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if body := decode[map[string]string](t, rec); !strings.Contains(body["error"], "timeout") {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestUpdateField(t *testing.T) {
	st := testsupport.SiteStore()
	srv := newServer(t, st)

	rec := do(t, srv, http.MethodPatch, "/api/content", `{"path":"pages.home.hero.title","value":"Warm bread"}`)
	expectStatus(t, rec, http.StatusNoContent)
	doc := st.Document()
	if got, _ := doc.LookupString("pages.home.hero.title"); got != "Warm bread" {
		t.Fatalf("store not updated, got %q", got)
	}

	expectStatus(t, do(t, srv, http.MethodPatch, "/api/content", `{"path":"pages.home.hero","value":"x"}`), http.StatusConflict)
	expectStatus(t, do(t, srv, http.MethodPatch, "/api/content", `{"path":"pages..hero","value":"x"}`), http.StatusBadRequest)
}

func TestRequestValidation(t *testing.T) {
	srv := newServer(t, testsupport.SiteStore())

	cases := []struct {
		name string
		body string
	}{
		{name: "empty path", body: `{"path":"","value":"x"}`},
		{name: "missing value", body: `{"path":"pages.home.hero.title"}`},
		{name: "wrong type", body: `{"path":"pages.home.hero.title","value":3}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPatch, "/api/content", tc.body)
			expectStatus(t, rec, http.StatusBadRequest)
		})
	}

	rec := do(t, srv, http.MethodPost, "/api/preview", `{}`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestRequestValidationDisabled(t *testing.T) {
	srv := newServer(t, testsupport.SiteStore(), func(cfg *config.Config) { cfg.ValidateRequests = false })
	rec := do(t, srv, http.MethodPatch, "/api/content", `{"path":"","value":"x"}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decode[map[string]string](t, rec); !strings.Contains(body["error"], "content:") {
		t.Fatalf("expected handler error, got %v", body)
	}
}

func TestListPages(t *testing.T) {
	rec := do(t, newServer(t, testsupport.SiteStore()), http.MethodGet, "/api/pages", "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[map[string][]string](t, rec)
	want := map[string][]string{"pages": {"contact", "footer", "home"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
}

type snapshotBody struct {
	Page   string `json:"page"`
	Status string `json:"status"`
	Fields []struct {
		Path     string `json:"path"`
		Category string `json:"category"`
	} `json:"fields"`
	Error string `json:"error"`
}

func TestListFields(t *testing.T) {
	srv := newServer(t, testsupport.SiteStore())

	rec := do(t, srv, http.MethodGet, "/api/pages/home/fields", "")
	expectStatus(t, rec, http.StatusOK)
	body := decode[snapshotBody](t, rec)
	if body.Status != "ready" || len(body.Fields) != 7 {
		t.Fatalf("unexpected snapshot %+v", body)
	}

	rec = do(t, srv, http.MethodGet, "/api/pages/home/fields?category=hours&path=pages.home.about", "")
	expectStatus(t, rec, http.StatusOK)
	body = decode[snapshotBody](t, rec)
	var paths []string
	for _, field := range body.Fields {
		paths = append(paths, field.Path)
	}
	want := []string{
		"pages.home.about.heading",
		"pages.home.about.body",
		"pages.home.hours.weekdays",
		"pages.home.hours.weekend",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("subset mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodGet, "/api/pages/missing/fields", "")
	expectStatus(t, rec, http.StatusOK)
	if body := decode[snapshotBody](t, rec); body.Status != "empty" || len(body.Fields) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", body)
	}
}

func TestListFieldsUnavailable(t *testing.T) {
	st := testsupport.SiteStore(memory.WithLoadError(store.ErrUnavailable))
	rec := do(t, newServer(t, st), http.MethodGet, "/api/pages/home/fields", "")
	expectStatus(t, rec, http.StatusOK)
	body := decode[snapshotBody](t, rec)
	if body.Status != "unavailable" || body.Error == "" {
		t.Fatalf("expected unavailable snapshot with error, got %+v", body)
	}
}

func TestSessionLifecycle(t *testing.T) {
	st := testsupport.SiteStore()
	srv := newServer(t, st)
	id := openSession(t, srv, "home")

	rec := do(t, srv, http.MethodPut, "/api/sessions/"+id+"/fields", `{"path":"pages.home.hero.title","value":"Rye today"}`)
	expectStatus(t, rec, http.StatusOK)
	info := decode[editor.Info](t, rec)
	if info.State != editor.StateEditing || len(info.Pending) != 1 {
		t.Fatalf("unexpected session after change %+v", info)
	}
	if len(st.Writes()) != 0 {
		t.Fatalf("change must not write through")
	}

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/save", "")
	expectStatus(t, rec, http.StatusOK)
	result := decode[editor.SaveResult](t, rec)
	want := []editor.Entry{{Path: "pages.home.hero.title", Value: "Rye today"}}
	if diff := cmp.Diff(want, result.Written); diff != "" {
		t.Fatalf("written mismatch (-want +got):\n%s", diff)
	}
	doc := st.Document()
	if got, _ := doc.LookupString("pages.home.hero.title"); got != "Rye today" {
		t.Fatalf("store not updated, got %q", got)
	}

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id, "")
	expectStatus(t, rec, http.StatusOK)
	if info := decode[editor.Info](t, rec); info.State != editor.StateIdle || len(info.Pending) != 0 {
		t.Fatalf("unexpected session after save %+v", info)
	}

	expectStatus(t, do(t, srv, http.MethodDelete, "/api/sessions/"+id, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/sessions/"+id, ""), http.StatusNotFound)
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/sessions/"+id, ""), http.StatusNotFound)
}

func TestSessionChangeRejectsBadPath(t *testing.T) {
	srv := newServer(t, testsupport.SiteStore(), func(cfg *config.Config) { cfg.ValidateRequests = false })
	id := openSession(t, srv, "home")
	rec := do(t, srv, http.MethodPut, "/api/sessions/"+id+"/fields", `{"path":"   ","value":"x"}`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestSessionChangeRejectsOtherPage(t *testing.T) {
	srv := newServer(t, testsupport.SiteStore())
	id := openSession(t, srv, "home")
	rec := do(t, srv, http.MethodPut, "/api/sessions/"+id+"/fields", `{"path":"pages.contact.phone","value":"x"}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decode[saveFailure](t, rec); !strings.Contains(body.Error, "outside the session page") {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

type saveFailure struct {
	Error   string         `json:"error"`
	Path    string         `json:"path"`
	Written []editor.Entry `json:"written"`
}

func TestSessionSaveFailure(t *testing.T) {
	st := testsupport.SiteStore(memory.WithFailure("pages.home.hero.subtitle", errors.New("disk full")))
	srv := newServer(t, st)
	id := openSession(t, srv, "home")

	for _, change := range []string{
		`{"path":"pages.home.hero.title","value":"A"}`,
		`{"path":"pages.home.hero.subtitle","value":"B"}`,
		`{"path":"pages.home.hero.cta","value":"C"}`,
	} {
		expectStatus(t, do(t, srv, http.MethodPut, "/api/sessions/"+id+"/fields", change), http.StatusOK)
	}

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/save", "")
	expectStatus(t, rec, http.StatusBadGateway)
	body := decode[saveFailure](t, rec)
	if body.Path != "pages.home.hero.subtitle" || body.Error != "disk full" {
		t.Fatalf("unexpected error body %+v", body)
	}
	if diff := cmp.Diff([]editor.Entry{{Path: "pages.home.hero.title", Value: "A"}}, body.Written); diff != "" {
		t.Fatalf("written mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id, "")
	info := decode[editor.Info](t, rec)
	if info.State != editor.StateEditing || len(info.Pending) != 3 || info.LastError == "" {
		t.Fatalf("expected buffer kept after failure, got %+v", info)
	}
}

func TestSessionCancel(t *testing.T) {
	st := testsupport.SiteStore()
	srv := newServer(t, st)
	id := openSession(t, srv, "home")
	expectStatus(t, do(t, srv, http.MethodPut, "/api/sessions/"+id+"/fields", `{"path":"pages.home.hero.title","value":"X"}`), http.StatusOK)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/cancel", "")
	expectStatus(t, rec, http.StatusOK)
	if info := decode[editor.Info](t, rec); info.State != editor.StateIdle || len(info.Pending) != 0 {
		t.Fatalf("unexpected session after cancel %+v", info)
	}
	if len(st.Writes()) != 0 {
		t.Fatalf("cancel must not write")
	}
}

func TestOpenSessionUnavailable(t *testing.T) {
	st := testsupport.SiteStore(memory.WithLoadError(store.ErrUnavailable))
	rec := do(t, newServer(t, st), http.MethodPost, "/api/pages/home/sessions", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestSanitizeValues(t *testing.T) {
	srv := newServer(t, testsupport.SiteStore(), func(cfg *config.Config) { cfg.Editor.SanitizeValues = true })
	id := openSession(t, srv, "home")
	rec := do(t, srv, http.MethodPut, "/api/sessions/"+id+"/fields", `{"path":"pages.home.hero.title","value":"<b>Bold</b> bread"}`)
	expectStatus(t, rec, http.StatusOK)
	info := decode[editor.Info](t, rec)
	if info.Pending[0].Value != "Bold bread" {
		t.Fatalf("expected sanitised value, got %q", info.Pending[0].Value)
	}
}

func TestPreview(t *testing.T) {
	rec := do(t, newServer(t, testsupport.SiteStore()), http.MethodPost, "/api/preview", `{"value":"# Menu\n\n**Rye** <script>x</script>"}`)
	expectStatus(t, rec, http.StatusOK)
	body := decode[struct {
		HTML    string `json:"html"`
		Outline []struct {
			Level int    `json:"level"`
			Text  string `json:"text"`
		} `json:"outline"`
	}](t, rec)
	if !strings.Contains(body.HTML, "<strong>Rye</strong>") || strings.Contains(body.HTML, "<script>") {
		t.Fatalf("unexpected preview html %q", body.HTML)
	}
	if len(body.Outline) != 1 || body.Outline[0].Text != "Menu" {
		t.Fatalf("unexpected outline %+v", body.Outline)
	}
}

func TestAdminForm(t *testing.T) {
	srv := newServer(t, testsupport.SiteStore(), func(cfg *config.Config) {
		cfg.Theme.Tokens = map[string]string{"color-accent": "#a33"}
	})
	rec := do(t, srv, http.MethodGet, "/admin/pages/home", "")
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	out := rec.Body.String()
	for _, fragment := range []string{
		`action="/admin/pages/home"`,
		`name="pages.home.hero.title" value="Fresh bread daily"`,
		`style="--color-accent: #a33;"`,
		`<link rel="stylesheet" href="/admin/assets/pagecms.css">`,
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in\n%s", fragment, out)
		}
	}

	rec = do(t, srv, http.MethodGet, "/admin/assets/pagecms.css", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), ".pagecms-editor") {
		t.Fatalf("stylesheet not served")
	}
}

func TestAdminSubmitKeepsEditsInSession(t *testing.T) {
	st := testsupport.SiteStore()
	srv := newServer(t, st)

	rec := postForm(t, srv, "/admin/pages/home", url.Values{
		"page_id":               {"home"},
		"pages.home.hero.title": {"Fresh bread daily"},
		"pages.home.hero.cta":   {"Call us"},
	})
	expectStatus(t, rec, http.StatusOK)
	out := rec.Body.String()
	for _, fragment := range []string{
		`name="session_id"`,
		`Unsaved changes`,
		`<div class="pagecms-field is-dirty" data-path="pages.home.hero.cta">`,
		`<div class="pagecms-field" data-path="pages.home.hero.title">`,
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in\n%s", fragment, out)
		}
	}
	if len(st.Writes()) != 0 {
		t.Fatalf("unexpected writes %+v", st.Writes())
	}
	if got := srv.Registry().Len(); got != 1 {
		t.Fatalf("expected one open session, got %d", got)
	}
}

func TestAdminSubmitSave(t *testing.T) {
	st := testsupport.SiteStore()
	srv := newServer(t, st)

	rec := postForm(t, srv, "/admin/pages/home", url.Values{
		"op":                     {"save"},
		"pages.home.hero.title":  {"Sourdough\r\nevery day"},
		"pages.home.about.body":  {"Three generations of bakers."},
		"pages.home.hours.extra": {"ignored"},
	})
	expectStatus(t, rec, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/admin/pages/home" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	want := []memory.Write{{Path: "pages.home.hero.title", Value: "Sourdough\nevery day"}}
	if diff := cmp.Diff(want, st.Writes()); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}
	if got := srv.Registry().Len(); got != 0 {
		t.Fatalf("session should be closed after save, %d open", got)
	}
}

func TestAdminSubmitSaveFailure(t *testing.T) {
	st := testsupport.SiteStore(memory.WithFailure("pages.home.hero.title", errors.New("read-only")))
	srv := newServer(t, st)

	rec := postForm(t, srv, "/admin/pages/home", url.Values{
		"op":                    {"save"},
		"pages.home.hero.title": {"New"},
	})
	expectStatus(t, rec, http.StatusBadGateway)
	out := rec.Body.String()
	if !strings.Contains(out, `<p class="pagecms-field-error">read-only</p>`) {
		t.Fatalf("expected field error in\n%s", out)
	}
	if !strings.Contains(out, `value="New"`) {
		t.Fatalf("edit should be kept in\n%s", out)
	}
}

func TestAdminSubmitCancel(t *testing.T) {
	st := testsupport.SiteStore()
	srv := newServer(t, st)

	rec := postForm(t, srv, "/admin/pages/home", url.Values{"pages.home.hero.title": {"Draft"}})
	expectStatus(t, rec, http.StatusOK)
	sessionID := extractHidden(t, rec.Body.String(), "session_id")

	rec = postForm(t, srv, "/admin/pages/home", url.Values{"op": {"cancel"}, "session_id": {sessionID}})
	expectStatus(t, rec, http.StatusSeeOther)
	if len(st.Writes()) != 0 {
		t.Fatalf("cancel must not write")
	}
	if got := srv.Registry().Len(); got != 0 {
		t.Fatalf("session should be closed after cancel, %d open", got)
	}
}

func extractHidden(t *testing.T, markup, name string) string {
	t.Helper()
	marker := `name="` + name + `" value="`
	start := strings.Index(markup, marker)
	if start < 0 {
		t.Fatalf("hidden field %q not found in\n%s", name, markup)
	}
	rest := markup[start+len(marker):]
	return rest[:strings.Index(rest, `"`)]
}

func TestRemoteStoreAgainstServer(t *testing.T) {
	st := testsupport.SiteStore()
	ts := httptest.NewServer(newServer(t, st, func(cfg *config.Config) { cfg.APIKey = "token" }))
	defer ts.Close()

	client, err := remote.New(ts.URL+"/api", remote.WithToken("token"))
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	ctx := context.Background()
	if err := client.UpdateField(ctx, "footer.legal.copyright", "(c) 2026"); err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := doc.LookupString("footer.legal.copyright"); got != "(c) 2026" {
		t.Fatalf("unexpected value %q", got)
	}

	err = client.UpdateField(ctx, "pages.home", "flat")
	if err == nil || !strings.Contains(err.Error(), "conflicts") {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
