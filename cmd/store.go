package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// gmsPool creates a pgxpool.Pool from the store configuration.
func gmsPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := cfg.Store.DatabaseURL
	if dsn == "" {
		return nil, eris.New("no database_url configured (set store.database_url or GMS_STORE_DATABASE_URL)")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "parse database URL")
	}
	if cfg.Store.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Store.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ping database")
	}

	return pool, nil
}
