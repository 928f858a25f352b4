package entity

import (
	"context"

	"github.com/twpayne/go-geom"

	"github.com/gms-foundation/gms-cli/internal/geo"
)

// Store is the persistence and spatial-query boundary the analyses depend
// on. Implementations must treat every method as potentially blocking I/O
// and honor context cancellation; the analyses add no retry or timeout
// policy of their own.
type Store interface {
	// Get retrieves one entity by ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (*LocatedEntity, error)

	// ListByType returns all entities of the given type.
	ListByType(ctx context.Context, t EntityType) ([]LocatedEntity, error)

	// FindWithinRadius returns entities of the given types whose geometry
	// lies within radiusM meters of g, ordered by proximity. The search
	// must be index-accelerated, not an exhaustive scan. An empty type
	// list matches every type.
	FindWithinRadius(ctx context.Context, g geom.T, radiusM float64, types ...EntityType) ([]LocatedEntity, error)

	// FindIntersecting returns entities of the given types whose geometry
	// intersects g. An empty type list matches every type.
	FindIntersecting(ctx context.Context, g geom.T, types ...EntityType) ([]LocatedEntity, error)

	// MeasureDistance returns the geographic distance in meters between
	// two geometries.
	MeasureDistance(ctx context.Context, a, b geom.T) (float64, error)

	// ProjectPointOntoLine returns the clamped fraction along the line of
	// the point's closest approach and the perpendicular offset in meters.
	ProjectPointOntoLine(ctx context.Context, p *geom.Point, line *geom.LineString) (geo.Projection, error)

	// LayersFor returns a boring's subsurface layers ordered by top depth
	// ascending. A boring with no layers yields an empty slice, not an error.
	LayersFor(ctx context.Context, boringID string) ([]SubsurfaceLayer, error)

	// UpsertCorrelations writes correlation records keyed by
	// (source_type, source_id, target_type, target_id). Re-running with
	// identical inputs overwrites rather than duplicates.
	UpsertCorrelations(ctx context.Context, recs []CorrelationRecord) (int64, error)

	// UpsertGridCells writes grid statistics rows keyed by cell_id.
	UpsertGridCells(ctx context.Context, cells []GridCellStats) (int64, error)
}
