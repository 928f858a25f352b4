// Package grid tessellates a bounding region into square cells and
// aggregates per-cell entity statistics. Readers always see a complete
// snapshot: refresh builds the next generation aside and swaps it in
// atomically.
package grid

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/gms-foundation/gms-cli/internal/config"
	"github.com/gms-foundation/gms-cli/internal/entity"
	"github.com/gms-foundation/gms-cli/internal/geo"
)

// Snapshot is one complete generation of grid statistics.
type Snapshot struct {
	Cells       []entity.GridCellStats `json:"cells"`
	RefreshedAt time.Time              `json:"refreshed_at"`
}

// Aggregator computes grid statistics over the configured region.
type Aggregator struct {
	store    entity.Store
	cfg      config.GridConfig
	log      *zap.Logger
	now      func() time.Time
	snapshot atomic.Pointer[Snapshot]
}

// NewAggregator creates an Aggregator for the region and cell size in cfg.
func NewAggregator(store entity.Store, cfg config.GridConfig) *Aggregator {
	return &Aggregator{
		store: store,
		cfg:   cfg,
		log:   zap.L().With(zap.String("component", "gms.grid")),
		now:   time.Now,
	}
}

// Snapshot returns the most recently completed generation, or nil before
// the first refresh. The returned value is immutable.
func (a *Aggregator) Snapshot() *Snapshot {
	return a.snapshot.Load()
}

// LastRefresh returns when the current snapshot was computed; zero before
// the first refresh.
func (a *Aggregator) LastRefresh() time.Time {
	if s := a.snapshot.Load(); s != nil {
		return s.RefreshedAt
	}
	return time.Time{}
}

// Build persists the tessellation itself: every cell of the configured
// region with identity statistics (zero counts, absent means). Refresh
// later fills the numbers in; Build lets the grid geometry exist and be
// queried before any analysis has run.
func (a *Aggregator) Build(ctx context.Context) (int, error) {
	if a.cfg.CellKM <= 0 {
		return 0, eris.Errorf("grid: cell size must be positive, got %v km", a.cfg.CellKM)
	}
	bbox := geo.BBox{MinLng: a.cfg.MinLng, MinLat: a.cfg.MinLat, MaxLng: a.cfg.MaxLng, MaxLat: a.cfg.MaxLat}
	if !bbox.Valid() {
		return 0, eris.Errorf("grid: invalid bounding region %+v", bbox)
	}

	cells := geo.Tessellate(bbox, a.cfg.CellKM*geo.DegreesPerKM)
	now := a.now().UTC()
	stats := make([]entity.GridCellStats, 0, len(cells))
	for _, cell := range cells {
		stats = append(stats, entity.GridCellStats{
			CellID:      cell.ID,
			Geometry:    cell.Polygon(),
			RefreshedAt: now,
		})
	}

	if _, err := a.store.UpsertGridCells(ctx, stats); err != nil {
		return 0, eris.Wrap(err, "grid: persist tessellation")
	}
	a.log.Info("grid built", zap.Int("cells", len(stats)))
	return len(stats), nil
}

// Refresh recomputes statistics for every cell of the tessellation,
// persists them, and swaps the in-process snapshot. A region holding no
// entities still yields the full tessellation with zero counts. Readers
// of the previous snapshot are not disturbed until the swap.
func (a *Aggregator) Refresh(ctx context.Context) (*Snapshot, error) {
	if a.cfg.CellKM <= 0 {
		return nil, eris.Errorf("grid: cell size must be positive, got %v km", a.cfg.CellKM)
	}
	bbox := geo.BBox{MinLng: a.cfg.MinLng, MinLat: a.cfg.MinLat, MaxLng: a.cfg.MaxLng, MaxLat: a.cfg.MaxLat}
	if !bbox.Valid() {
		return nil, eris.Errorf("grid: invalid bounding region %+v", bbox)
	}

	cells := geo.Tessellate(bbox, a.cfg.CellKM*geo.DegreesPerKM)
	a.log.Info("grid refresh started",
		zap.Int("cells", len(cells)),
		zap.Float64("cell_km", a.cfg.CellKM))

	refreshedAt := a.now().UTC()
	stats := make([]entity.GridCellStats, 0, len(cells))
	for _, cell := range cells {
		entities, err := a.store.FindIntersecting(ctx, cell.Polygon(), gridEntityTypes...)
		if err != nil {
			return nil, eris.Wrapf(err, "grid: entities intersecting cell %s", cell.ID)
		}
		stats = append(stats, a.cellStats(cell, entities, refreshedAt))
	}

	if _, err := a.store.UpsertGridCells(ctx, stats); err != nil {
		return nil, eris.Wrap(err, "grid: persist cell statistics")
	}

	next := &Snapshot{Cells: stats, RefreshedAt: refreshedAt}
	a.snapshot.Store(next)

	a.log.Info("grid refresh finished",
		zap.Int("cells", len(stats)),
		zap.Time("refreshed_at", refreshedAt))
	return next, nil
}

// gridEntityTypes are the entity types cell statistics draw from.
var gridEntityTypes = []entity.EntityType{
	entity.TypeBoring,
	entity.TypeSurfaceObservation,
	entity.TypeMaintenanceRecord,
	entity.TypeHazard,
}

// cellStats aggregates the entities the store found intersecting one
// cell. Line and polygon entities count in every cell their extent
// touches, so boundary-straddlers contribute to multiple cells. Point
// entities are re-checked against the half-open cell edges: a point on a
// shared boundary intersects both cells but is counted only once.
func (a *Aggregator) cellStats(cell geo.Cell, entities []entity.LocatedEntity, refreshedAt time.Time) entity.GridCellStats {
	stats := entity.GridCellStats{
		CellID:      cell.ID,
		Geometry:    cell.Polygon(),
		RefreshedAt: refreshedAt,
	}

	var depths, rockDepths, rutDepths []float64
	for i := range entities {
		e := &entities[i]
		if !a.inCell(cell, e.Geometry) {
			continue
		}
		switch e.Type {
		case entity.TypeBoring:
			stats.BoringCount++
			if v, ok := e.Attrs.Float("total_depth_m"); ok {
				depths = append(depths, v)
			}
			if v, ok := e.Attrs.Float("rock_depth_m"); ok {
				rockDepths = append(rockDepths, v)
			}
		case entity.TypeSurfaceObservation:
			stats.ObservationCount++
			if v, ok := e.Attrs.Float("rut_depth_mm"); ok {
				rutDepths = append(rutDepths, v)
			}
		case entity.TypeMaintenanceRecord:
			stats.MaintenanceCount++
			if v, ok := e.Attrs.Float("cost_usd"); ok {
				stats.TotalMaintenanceCost += v
			}
		case entity.TypeHazard:
			stats.HazardCount++
		}
	}

	stats.AvgDepthM = meanPtr(depths)
	stats.AvgRockDepthM = meanPtr(rockDepths)
	stats.AvgRutDepthMM = meanPtr(rutDepths)
	return stats
}

func (a *Aggregator) inCell(cell geo.Cell, g geom.T) bool {
	if p, ok := g.(*geom.Point); ok {
		return cell.ContainsPoint(p)
	}
	return true
}

// meanPtr returns nil for an empty sample, matching the "mean undefined"
// identity value for empty cells.
func meanPtr(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}
