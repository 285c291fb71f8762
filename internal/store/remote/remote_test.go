package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pagecms/internal/store/remote"
	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/store"
)

type fakeServer struct {
	mu      sync.Mutex
	doc     content.Document
	updates []remote.FieldUpdate
	auth    []string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	if r.URL.Path != "/api/content" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		data, _ := f.doc.MarshalJSON()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	case http.MethodPatch:
		var update remote.FieldUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if update.Path == "locked" {
			http.Error(w, "backend exploded", http.StatusInternalServerError)
			return
		}
		if err := f.doc.SetString(update.Path, update.Value); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		f.updates = append(f.updates, update)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newClient(t *testing.T, handler http.Handler, base string) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := remote.New(srv.URL+base, remote.WithToken("secret"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return c
}

func TestLoadAndUpdate(t *testing.T) {
	fake := &fakeServer{doc: content.MustParse(`{"home":{"title":"Hello"}}`)}
	c := newClient(t, fake, "/api/")
	ctx := context.Background()

	doc, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := doc.LookupString("home.title"); got != "Hello" {
		t.Fatalf("expected Hello, got %q", got)
	}

	if err := c.UpdateField(ctx, "home.title", "Howdy"); err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []remote.FieldUpdate{{Path: "home.title", Value: "Howdy"}}
	if diff := cmp.Diff(want, fake.updates); diff != "" {
		t.Fatalf("updates mismatch (-want +got):\n%s", diff)
	}
	for _, header := range fake.auth {
		if header != "Bearer secret" {
			t.Fatalf("missing bearer token: %q", header)
		}
	}
}

func TestStatusMapping(t *testing.T) {
	fake := &fakeServer{doc: content.MustParse(`{"home":{"hero":{"title":"x"}}}`)}
	c := newClient(t, fake, "/api")
	ctx := context.Background()

	if err := c.UpdateField(ctx, "home.hero", "flat"); !errors.Is(err, content.ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}
	if err := c.UpdateField(ctx, "locked", "x"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	missing := newClient(t, fake, "/nowhere")
	if _, err := missing.Load(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := remote.New(url)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.Load(context.Background()); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := remote.New("  "); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}

func TestTimeoutLeavesCallerClientAlone(t *testing.T) {
	fake := &fakeServer{doc: content.MustParse(`{"home":{"title":"Hello"}}`)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	own := &http.Client{Timeout: 5 * time.Second}
	c, err := remote.New(srv.URL+"/api", remote.WithHTTPClient(own), remote.WithTimeout(time.Nanosecond))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if own.Timeout != 5*time.Second {
		t.Fatalf("caller client timeout changed to %s", own.Timeout)
	}
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}
