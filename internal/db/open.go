package db

import (
	"context"
	"os"
	"path/filepath"

	"github.com/soaringjerry/obe-survey/internal/api"
	"github.com/soaringjerry/obe-survey/internal/config"
)

// Backend is the store selected by configuration. Ping and Close are nil
// for the in-memory store.
type Backend struct {
	Store api.Store
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// Open builds the store named by cfg.Store.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		store, err := OpenSQLite(ctx, cfg.SQLitePath, cfg.MigrationsDir)
		if err != nil {
			return nil, err
		}
		cfg.Logger.Printf("using sqlite store at %s", cfg.SQLitePath)
		return &Backend{Store: store, Ping: store.Ping, Close: func(context.Context) error { return store.Close() }}, nil
	case config.StoreMongo:
		store, err := ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			return nil, err
		}
		cfg.Logger.Printf("using mongo store, database %s", cfg.MongoDatabase)
		return &Backend{Store: store, Ping: store.Ping, Close: store.Close}, nil
	default:
		cfg.Logger.Printf("using in-memory store; data is lost on restart")
		return &Backend{Store: api.NewMemoryStore()}, nil
	}
}
