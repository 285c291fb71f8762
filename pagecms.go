// Package pagecms wires the content stores, the field flattener and the edit
// session into a small inline CMS. Most callers only need OpenStore, Fields
// and NewSession; NewHandler serves the HTTP API and admin form.
package pagecms

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/internal/api"
	"github.com/goliatone/go-pagecms/internal/config"
	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// Config aliases the runtime configuration loaded by LoadConfig.
type Config = config.Config

// StoreConfig selects and configures a content store.
type StoreConfig = config.StoreConfig

// FieldDescriptor aliases fields.FieldDescriptor.
type FieldDescriptor = fields.FieldDescriptor

// Snapshot aliases store.PageSnapshot.
type Snapshot = store.PageSnapshot

// Store kinds accepted by OpenStore.
const (
	StoreFile   = config.StoreFile
	StoreSQLite = config.StoreSQLite
	StoreRemote = config.StoreRemote
	StoreMemory = config.StoreMemory
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return config.Defaults()
}

// LoadConfig reads an optional YAML file and applies PAGECMS_* overrides.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Fields loads the document through r and lists the editable fields of
// pageID. Load failures are reported in the snapshot status.
func Fields(ctx context.Context, r store.Reader, pageID string, opts ...fields.Option) Snapshot {
	return store.Snapshot(ctx, r, pageID, opts...)
}

// NewSession opens an edit session for pageID writing through w.
func NewSession(w store.Writer, pageID string, opts ...editor.Option) (*editor.Session, error) {
	opts = append([]editor.Option{editor.WithPage(pageID)}, opts...)
	return editor.New(w, opts...)
}

// NewHandler builds the HTTP API and admin form over st.
func NewHandler(st store.Store, cfg Config, logger *zap.Logger) (http.Handler, error) {
	return api.NewServer(st, cfg, api.WithLogger(logger))
}
