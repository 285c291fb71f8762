package pagecms

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/internal/store/filestore"
	"github.com/goliatone/go-pagecms/internal/store/remote"
	"github.com/goliatone/go-pagecms/internal/store/sqlstore"
	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/store"
	"github.com/goliatone/go-pagecms/pkg/store/memory"
)

// StoreOption customises OpenStore.
type StoreOption func(*storeOptions)

type storeOptions struct {
	logger *zap.Logger
}

// WithStoreLogger passes logger to the opened store.
func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// OpenStore opens the store selected by cfg.Kind. Memory stores are seeded
// from cfg.Path (a file or URL) when it is set. Stores holding resources
// implement store.Closer.
func OpenStore(ctx context.Context, cfg StoreConfig, opts ...StoreOption) (store.Store, error) {
	o := storeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	logger := o.logger.Named("store")

	var (
		st  store.Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case StoreFile, "":
		st, err = filestore.New(cfg.Path, filestore.WithLogger(logger))
	case StoreSQLite:
		st, err = sqlstore.Open(ctx, cfg.Path, sqlstore.WithApp(cfg.App), sqlstore.WithLogger(logger))
	case StoreRemote:
		st, err = remote.New(cfg.URL,
			remote.WithToken(cfg.Token),
			remote.WithTimeout(cfg.Timeout),
			remote.WithLogger(logger),
		)
	case StoreMemory:
		doc := content.NewDocument(nil)
		if strings.TrimSpace(cfg.Path) != "" {
			if doc, err = LoadDocument(ctx, cfg.Path); err != nil {
				return nil, err
			}
		}
		st = memory.New(doc)
	default:
		return nil, fmt.Errorf("pagecms: unknown store kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// LoadDocument reads a JSON or YAML document from a file path or an http(s)
// URL.
func LoadDocument(ctx context.Context, location string) (content.Document, error) {
	src, err := content.ParseSource(location)
	if err != nil {
		return content.Document{}, err
	}
	loader := content.NewLoader(content.WithHTTPFallback(remote.DefaultTimeout))
	return loader.Load(ctx, src)
}

// Import replaces the whole document held by st. Only stores implementing
// store.Seeder can be imported into.
func Import(ctx context.Context, st store.Store, doc content.Document) error {
	seeder, ok := st.(store.Seeder)
	if !ok {
		return fmt.Errorf("pagecms: store %T does not support import", st)
	}
	return seeder.Seed(ctx, doc)
}

// Close releases st when it holds resources.
func Close(st store.Store) error {
	if closer, ok := st.(store.Closer); ok {
		return closer.Close()
	}
	return nil
}
