package entity

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/gms-foundation/gms-cli/internal/db"
	"github.com/gms-foundation/gms-cli/internal/geo"
)

// PostgresStore implements Store against PostGIS. Spatial predicates run
// server-side on the GIST index; geometries cross the wire as EWKB.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const entityColumns = `id, entity_type, ST_AsEWKB(geom), attrs, created_at, updated_at`

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (*LocatedEntity, error) {
	sql := `SELECT ` + entityColumns + ` FROM gms.entities WHERE id = $1`

	e, err := scanEntity(s.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "entity: get %s", id)
		}
		return nil, eris.Wrapf(err, "entity: get %s", id)
	}
	return e, nil
}

// ListByType implements Store.
func (s *PostgresStore) ListByType(ctx context.Context, t EntityType) ([]LocatedEntity, error) {
	if !t.Valid() {
		return nil, UnknownTypeError(string(t))
	}
	sql := `SELECT ` + entityColumns + ` FROM gms.entities WHERE entity_type = $1 ORDER BY id`

	rows, err := s.pool.Query(ctx, sql, string(t))
	if err != nil {
		return nil, eris.Wrapf(err, "entity: list %s", t)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// FindWithinRadius implements Store. Uses ST_DWithin on the geography cast
// so the radius is geodesic meters, with KNN ordering by proximity. No
// type filter matches every type.
func (s *PostgresStore) FindWithinRadius(ctx context.Context, g geom.T, radiusM float64, types ...EntityType) ([]LocatedEntity, error) {
	wkb, err := encodeEWKB(g)
	if err != nil {
		return nil, err
	}
	sql := `
		SELECT ` + entityColumns + `
		FROM gms.entities
		WHERE ($1::text[] IS NULL OR entity_type = ANY($1))
		AND ST_DWithin(geom::geography, ST_GeomFromEWKB($2)::geography, $3)
		ORDER BY geom <-> ST_GeomFromEWKB($2)`

	rows, err := s.pool.Query(ctx, sql, typeFilter(types), wkb, radiusM)
	if err != nil {
		return nil, eris.Wrap(err, "entity: find within radius")
	}
	defer rows.Close()

	return scanEntities(rows)
}

// FindIntersecting implements Store. No type filter matches every type.
func (s *PostgresStore) FindIntersecting(ctx context.Context, g geom.T, types ...EntityType) ([]LocatedEntity, error) {
	wkb, err := encodeEWKB(g)
	if err != nil {
		return nil, err
	}
	sql := `
		SELECT ` + entityColumns + `
		FROM gms.entities
		WHERE ($1::text[] IS NULL OR entity_type = ANY($1))
		AND ST_Intersects(geom, ST_GeomFromEWKB($2))
		ORDER BY id`

	rows, err := s.pool.Query(ctx, sql, typeFilter(types), wkb)
	if err != nil {
		return nil, eris.Wrap(err, "entity: find intersecting")
	}
	defer rows.Close()

	return scanEntities(rows)
}

// MeasureDistance implements Store using geography-accurate ST_Distance.
func (s *PostgresStore) MeasureDistance(ctx context.Context, a, b geom.T) (float64, error) {
	wkbA, err := encodeEWKB(a)
	if err != nil {
		return 0, err
	}
	wkbB, err := encodeEWKB(b)
	if err != nil {
		return 0, err
	}

	var d float64
	err = s.pool.QueryRow(ctx,
		`SELECT ST_Distance(ST_GeomFromEWKB($1)::geography, ST_GeomFromEWKB($2)::geography)`,
		wkbA, wkbB,
	).Scan(&d)
	if err != nil {
		return 0, eris.Wrap(err, "entity: measure distance")
	}
	return d, nil
}

// ProjectPointOntoLine implements Store. ST_LineLocatePoint clamps the
// fraction to [0,1] for points projecting beyond either endpoint.
func (s *PostgresStore) ProjectPointOntoLine(ctx context.Context, p *geom.Point, line *geom.LineString) (geo.Projection, error) {
	wkbP, err := encodeEWKB(p)
	if err != nil {
		return geo.Projection{}, err
	}
	wkbL, err := encodeEWKB(line)
	if err != nil {
		return geo.Projection{}, err
	}

	var proj geo.Projection
	err = s.pool.QueryRow(ctx, `
		SELECT ST_LineLocatePoint(ST_GeomFromEWKB($1), ST_GeomFromEWKB($2)),
		       ST_Distance(ST_GeomFromEWKB($1)::geography, ST_GeomFromEWKB($2)::geography)`,
		wkbL, wkbP,
	).Scan(&proj.Fraction, &proj.OffsetM)
	if err != nil {
		return geo.Projection{}, eris.Wrap(err, "entity: project point onto line")
	}
	return proj, nil
}

// LayersFor implements Store.
func (s *PostgresStore) LayersFor(ctx context.Context, boringID string) ([]SubsurfaceLayer, error) {
	sql := `
		SELECT boring_id, top_depth_m, bottom_depth_m, material_description, uscs_classification
		FROM gms.subsurface_layers
		WHERE boring_id = $1
		ORDER BY top_depth_m`

	rows, err := s.pool.Query(ctx, sql, boringID)
	if err != nil {
		return nil, eris.Wrapf(err, "entity: layers for %s", boringID)
	}
	defer rows.Close()

	var layers []SubsurfaceLayer
	for rows.Next() {
		var l SubsurfaceLayer
		if err := rows.Scan(&l.BoringID, &l.TopDepthM, &l.BottomDepthM, &l.Material, &l.Classification); err != nil {
			return nil, eris.Wrap(err, "entity: scan layer row")
		}
		layers = append(layers, l)
	}
	return layers, rows.Err()
}

// UpsertCorrelations implements Store via BulkUpsert keyed by the
// identifying tuple, so reruns overwrite.
func (s *PostgresStore) UpsertCorrelations(ctx context.Context, recs []CorrelationRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{
			string(r.SourceType), r.SourceID, string(r.TargetType), r.TargetID,
			r.CorrelationType, r.DistanceM, r.Score, r.ComputedAt,
		}
	}

	cfg := db.UpsertConfig{
		Table: "gms.data_correlations",
		Columns: []string{
			"source_type", "source_id", "target_type", "target_id",
			"correlation_type", "distance_m", "correlation_score", "computed_at",
		},
		ConflictKeys: []string{"source_type", "source_id", "target_type", "target_id"},
	}

	n, err := db.BulkUpsert(ctx, s.pool, cfg, rows)
	if err != nil {
		return 0, eris.Wrap(err, "entity: upsert correlations")
	}
	return n, nil
}

// UpsertGridCells implements Store.
func (s *PostgresStore) UpsertGridCells(ctx context.Context, cells []GridCellStats) (int64, error) {
	if len(cells) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(cells))
	for i, c := range cells {
		wkb, err := encodeEWKB(c.Geometry)
		if err != nil {
			return 0, err
		}
		rows[i] = []any{
			c.CellID, wkb,
			c.BoringCount, c.ObservationCount, c.MaintenanceCount, c.HazardCount,
			c.AvgDepthM, c.AvgRockDepthM, c.AvgRutDepthMM,
			c.TotalMaintenanceCost, c.RefreshedAt,
		}
	}

	cfg := db.UpsertConfig{
		Table: "gms.grid_statistics",
		Columns: []string{
			"cell_id", "geom",
			"boring_count", "observation_count", "maintenance_count", "hazard_count",
			"avg_depth_m", "avg_rock_depth_m", "avg_rut_depth_mm",
			"total_maintenance_cost", "refreshed_at",
		},
		ConflictKeys: []string{"cell_id"},
	}

	n, err := db.BulkUpsert(ctx, s.pool, cfg, rows)
	if err != nil {
		return 0, eris.Wrap(err, "entity: upsert grid cells")
	}
	return n, nil
}

// encodeEWKB marshals a geometry to EWKB with its SRID.
func encodeEWKB(g geom.T) ([]byte, error) {
	if g == nil {
		return nil, eris.New("entity: nil geometry")
	}
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "entity: encode EWKB")
	}
	return data, nil
}

// typeFilter converts the variadic type list to a SQL array parameter,
// with nil (match everything) for an empty list.
func typeFilter(types []EntityType) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func scanEntity(row pgx.Row) (*LocatedEntity, error) {
	var (
		e        LocatedEntity
		typeTag  string
		geomWKB  []byte
		attrsRaw []byte
	)
	if err := row.Scan(&e.ID, &typeTag, &geomWKB, &attrsRaw, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	e.Type = EntityType(typeTag)

	g, err := ewkb.Unmarshal(geomWKB)
	if err != nil {
		return nil, eris.Wrap(err, "entity: decode EWKB")
	}
	e.Geometry = g

	if len(attrsRaw) > 0 {
		if err := json.Unmarshal(attrsRaw, &e.Attrs); err != nil {
			return nil, eris.Wrap(err, "entity: decode attrs")
		}
	}
	return &e, nil
}

func scanEntities(rows pgx.Rows) ([]LocatedEntity, error) {
	var out []LocatedEntity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "entity: scan entity row")
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
