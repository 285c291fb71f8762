// Package testsupport holds fixtures and helpers shared by package tests.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/store"
	"github.com/goliatone/go-pagecms/pkg/store/memory"
)

// SiteDocument is a small but realistic content document used across tests.
const SiteDocument = `{
  "pages": {
    "home": {
      "hero": {"title": "Fresh bread daily", "subtitle": "Since 1952", "cta": "Order now"},
      "about": {"heading": "Our story", "body": "Three generations of bakers."},
      "hours": {"weekdays": "7-19", "weekend": "8-14"}
    },
    "contact": {
      "address": {"street": "12 Mill Lane", "city": "Lyon"},
      "phone": "+33 4 00 00 00 00"
    }
  },
  "footer": {
    "legal": {"copyright": "(c) Boulangerie"}
  }
}`

// LoadDocument reads a content fixture from disk.
func LoadDocument(t *testing.T, path string) content.Document {
	t.Helper()
	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath reads and parses a content fixture without requiring a
// *testing.T.
func LoadDocumentFromPath(path string) (content.Document, error) {
	if path == "" {
		return content.Document{}, errors.New("testsupport: document path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return content.Document{}, fmt.Errorf("testsupport: read document: %w", err)
	}
	doc, err := content.Parse(data)
	if err != nil {
		return content.Document{}, fmt.Errorf("testsupport: parse document: %w", err)
	}
	return doc, nil
}

// Site returns a fresh copy of SiteDocument.
func Site() content.Document {
	return content.MustParse(SiteDocument)
}

// SiteStore returns an in-memory store seeded with SiteDocument.
func SiteStore(opts ...memory.Option) *memory.Store {
	return memory.New(Site(), opts...)
}

// MustSnapshot loads pageID from r and fails the test unless it is ready.
func MustSnapshot(t *testing.T, r store.Reader, pageID string) store.PageSnapshot {
	t.Helper()
	snap := store.Snapshot(context.Background(), r, pageID)
	if snap.Status != store.StatusReady {
		t.Fatalf("snapshot %s: status %s (%v)", pageID, snap.Status, snap.Err)
	}
	return snap
}

// MustReadGolden reads a golden file.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file as a string.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set and
// reports whether it did.
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
