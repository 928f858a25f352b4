package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a schema-qualified table using the
// PostgreSQL COPY protocol. This is the fastest path for loading large
// entity batches (e.g. shapefile imports).
func CopyFrom(ctx context.Context, pool Pool, schema, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ident := pgx.Identifier{table}
	if schema != "" {
		ident = pgx.Identifier{schema, table}
	}

	copySource := pgx.CopyFromRows(rows)
	n, err := pool.CopyFrom(ctx, ident, columns, copySource)
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", ident.Sanitize())
	}

	return n, nil
}
