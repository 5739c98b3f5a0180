package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "enrich.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
