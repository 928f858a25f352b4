package ingest

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/db"
	"github.com/gms-foundation/gms-cli/internal/entity"
)

// Loader bulk-loads shapefile records as located entities.
type Loader struct {
	pool db.Pool
	log  *zap.Logger
}

// NewLoader creates a Loader.
func NewLoader(pool db.Pool) *Loader {
	return &Loader{pool: pool, log: zap.L().With(zap.String("component", "gms.ingest"))}
}

// LoadShapefile reads every record of the shapefile at path and upserts
// each as an entity of type t. All DBF attributes are carried into the
// attribute bag under lowercased keys; numeric-looking values are stored
// as numbers. When idField names a DBF column its value becomes the
// entity ID (prefixed with the type tag), otherwise IDs are generated.
// Re-loading the same file with a stable idField overwrites in place.
func (l *Loader) LoadShapefile(ctx context.Context, path string, t entity.EntityType, idField string) (int64, error) {
	if !t.Valid() {
		return 0, entity.UnknownTypeError(string(t))
	}

	reader, err := shp.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimRight(f.String(), "\x00"))
	}

	now := time.Now().UTC()
	var rows [][]any
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		wkb, err := EncodeShapeEWKB(shape)
		if err != nil || wkb == nil {
			skipped++
			continue
		}

		attrs := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				attrs[name] = f
			} else {
				attrs[name] = val
			}
		}

		id := string(t) + "-" + uuid.New().String()
		if idField != "" {
			if v, ok := attrs[strings.ToLower(idField)]; ok {
				switch s := v.(type) {
				case string:
					id = string(t) + "-" + s
				case float64:
					id = string(t) + "-" + strconv.FormatFloat(s, 'f', -1, 64)
				}
			}
		}

		attrsJSON, err := json.Marshal(attrs)
		if err != nil {
			return 0, eris.Wrap(err, "ingest: encode attrs")
		}
		rows = append(rows, []any{id, string(t), wkb, attrsJSON, now, now})
	}

	if skipped > 0 {
		l.log.Debug("skipped shapefile records without usable geometry",
			zap.String("path", path),
			zap.Int("skipped", skipped))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	columns := []string{"id", "entity_type", "geom", "attrs", "created_at", "updated_at"}

	// Generated IDs can never conflict, so plain COPY is safe and faster.
	// A stable idField makes reloads overwrite, which needs the upsert path.
	var n int64
	if idField == "" {
		n, err = db.CopyFrom(ctx, l.pool, "gms", "entities", columns, rows)
	} else {
		n, err = db.BulkUpsert(ctx, l.pool, db.UpsertConfig{
			Table:        "gms.entities",
			Columns:      columns,
			ConflictKeys: []string{"id"},
		}, rows)
	}
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: load %s", path)
	}

	l.log.Info("shapefile loaded",
		zap.String("path", path),
		zap.String("entity_type", string(t)),
		zap.Int64("records", n))
	return n, nil
}
