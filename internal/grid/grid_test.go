package grid

import (
	"context"
	"testing"

	"github.com/twpayne/go-geom"

	"github.com/gms-foundation/gms-cli/internal/config"
	"github.com/gms-foundation/gms-cli/internal/entity"
)

func testConfig() config.GridConfig {
	// Roughly a 4x4 km region at the equator-ish latitude used below.
	return config.GridConfig{
		CellKM: 1.0,
		MinLng: -77.04, MinLat: 38.88,
		MaxLng: -77.00, MaxLat: 38.92,
	}
}

func point(lng, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(4326)
}

func TestRefreshEmptyRegion(t *testing.T) {
	ms := entity.NewMemStore()
	agg := NewAggregator(ms, testConfig())

	snap, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(snap.Cells) == 0 {
		t.Fatal("empty region must still yield the full tessellation")
	}
	for _, c := range snap.Cells {
		if c.BoringCount != 0 || c.ObservationCount != 0 || c.MaintenanceCount != 0 || c.HazardCount != 0 {
			t.Errorf("cell %s has nonzero counts on empty input: %+v", c.CellID, c)
		}
		if c.AvgDepthM != nil || c.AvgRutDepthMM != nil {
			t.Errorf("cell %s has a mean on empty input", c.CellID)
		}
		if c.TotalMaintenanceCost != 0 {
			t.Errorf("cell %s has nonzero cost on empty input", c.CellID)
		}
	}
	if len(ms.GridCells()) != len(snap.Cells) {
		t.Errorf("persisted %d cells, snapshot has %d", len(ms.GridCells()), len(snap.Cells))
	}
}

func TestRefreshPointCountsSumExactly(t *testing.T) {
	ms := entity.NewMemStore()
	// Scatter borings inside the region, including near cell boundaries.
	coords := [][2]float64{
		{-77.035, 38.885}, {-77.025, 38.895}, {-77.015, 38.905},
		{-77.005, 38.915}, {-77.0201, 38.9001}, {-77.011, 38.889},
	}
	for i, c := range coords {
		ms.Put(entity.LocatedEntity{
			ID: "b-" + string(rune('a'+i)), Type: entity.TypeBoring,
			Geometry: point(c[0], c[1]),
			Attrs:    entity.Attributes{"total_depth_m": 10.0 + float64(i)},
		})
	}

	agg := NewAggregator(ms, testConfig())
	snap, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var total int
	for _, c := range snap.Cells {
		total += c.BoringCount
	}
	// Half-open cell edges: every point lands in exactly one cell.
	if total != len(coords) {
		t.Errorf("boring counts sum to %d, want %d", total, len(coords))
	}
}

func TestRefreshStraddlingLineCountedPerCell(t *testing.T) {
	ms := entity.NewMemStore()
	// An observation line crossing a vertical cell boundary.
	line := geom.NewLineStringFlat(geom.XY, []float64{
		-77.025, 38.895,
		-77.005, 38.895,
	}).SetSRID(4326)
	ms.Put(entity.LocatedEntity{
		ID: "obs-1", Type: entity.TypeSurfaceObservation,
		Geometry: line,
		Attrs:    entity.Attributes{"rut_depth_mm": 8.5},
	})

	agg := NewAggregator(ms, testConfig())
	snap, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var touched int
	for _, c := range snap.Cells {
		if c.ObservationCount > 0 {
			touched++
			if c.AvgRutDepthMM == nil || *c.AvgRutDepthMM != 8.5 {
				t.Errorf("cell %s AvgRutDepthMM = %v, want 8.5", c.CellID, c.AvgRutDepthMM)
			}
		}
	}
	if touched < 2 {
		t.Errorf("straddling line touched %d cells, want >= 2", touched)
	}
}

func TestRefreshAggregatesAttributes(t *testing.T) {
	ms := entity.NewMemStore()
	// Two borings and a maintenance record in the same cell.
	ms.Put(entity.LocatedEntity{
		ID: "b-1", Type: entity.TypeBoring, Geometry: point(-77.0351, 38.8851),
		Attrs: entity.Attributes{"total_depth_m": 10.0, "rock_depth_m": 6.0},
	})
	ms.Put(entity.LocatedEntity{
		ID: "b-2", Type: entity.TypeBoring, Geometry: point(-77.0352, 38.8852),
		Attrs: entity.Attributes{"total_depth_m": 20.0},
	})
	ms.Put(entity.LocatedEntity{
		ID: "m-1", Type: entity.TypeMaintenanceRecord, Geometry: point(-77.0353, 38.8853),
		Attrs: entity.Attributes{"activity_type": "patching", "cost_usd": 1250.0},
	})

	agg := NewAggregator(ms, testConfig())
	snap, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var hit *entity.GridCellStats
	for i := range snap.Cells {
		if snap.Cells[i].BoringCount > 0 {
			hit = &snap.Cells[i]
			break
		}
	}
	if hit == nil {
		t.Fatal("no cell picked up the borings")
	}
	if hit.BoringCount != 2 {
		t.Errorf("BoringCount = %d, want 2", hit.BoringCount)
	}
	if hit.AvgDepthM == nil || *hit.AvgDepthM != 15.0 {
		t.Errorf("AvgDepthM = %v, want 15.0", hit.AvgDepthM)
	}
	if hit.AvgRockDepthM == nil || *hit.AvgRockDepthM != 6.0 {
		t.Errorf("AvgRockDepthM = %v, want 6.0 (single sample)", hit.AvgRockDepthM)
	}
	if hit.MaintenanceCount != 1 || hit.TotalMaintenanceCost != 1250.0 {
		t.Errorf("maintenance = %d/%v, want 1/1250", hit.MaintenanceCount, hit.TotalMaintenanceCost)
	}
}

func TestSnapshotSwap(t *testing.T) {
	ms := entity.NewMemStore()
	agg := NewAggregator(ms, testConfig())

	if agg.Snapshot() != nil {
		t.Fatal("snapshot should be nil before first refresh")
	}
	if !agg.LastRefresh().IsZero() {
		t.Fatal("LastRefresh should be zero before first refresh")
	}

	first, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if agg.Snapshot() != first {
		t.Error("Snapshot should return the generation Refresh produced")
	}

	// New data appears; the held snapshot must not change in place.
	ms.Put(entity.LocatedEntity{ID: "b-1", Type: entity.TypeBoring, Geometry: point(-77.02, 38.9)})
	held := agg.Snapshot()
	heldCounts := totalBorings(held)

	second, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if totalBorings(held) != heldCounts {
		t.Error("previous snapshot mutated during refresh")
	}
	if totalBorings(second) != 1 {
		t.Errorf("new snapshot borings = %d, want 1", totalBorings(second))
	}
	if !second.RefreshedAt.After(first.RefreshedAt) && !second.RefreshedAt.Equal(first.RefreshedAt) {
		t.Errorf("RefreshedAt went backwards: %v then %v", first.RefreshedAt, second.RefreshedAt)
	}
	if agg.LastRefresh() != second.RefreshedAt {
		t.Errorf("LastRefresh = %v, want %v", agg.LastRefresh(), second.RefreshedAt)
	}
}

// intersectingStore counts FindIntersecting calls so tests can verify
// cell membership is resolved by the store's spatial predicate.
type intersectingStore struct {
	entity.Store
	calls int
}

func (s *intersectingStore) FindIntersecting(ctx context.Context, g geom.T, types ...entity.EntityType) ([]entity.LocatedEntity, error) {
	s.calls++
	return s.Store.FindIntersecting(ctx, g, types...)
}

func TestRefreshQueriesStorePerCell(t *testing.T) {
	spy := &intersectingStore{Store: entity.NewMemStore()}
	agg := NewAggregator(spy, testConfig())

	snap, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if spy.calls != len(snap.Cells) {
		t.Errorf("FindIntersecting called %d times, want once per cell (%d)", spy.calls, len(snap.Cells))
	}
}

func TestBuildPersistsEmptyTessellation(t *testing.T) {
	ms := entity.NewMemStore()
	n, err := NewAggregator(ms, testConfig()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n == 0 {
		t.Fatal("Build produced no cells")
	}
	cells := ms.GridCells()
	if len(cells) != n {
		t.Errorf("persisted %d cells, Build reported %d", len(cells), n)
	}
	for _, c := range cells {
		if c.BoringCount != 0 || c.AvgDepthM != nil {
			t.Errorf("cell %s should carry identity statistics: %+v", c.CellID, c)
		}
		if c.Geometry == nil {
			t.Errorf("cell %s missing geometry", c.CellID)
		}
	}
}

func TestRefreshRejectsBadConfig(t *testing.T) {
	ms := entity.NewMemStore()

	bad := testConfig()
	bad.CellKM = 0
	if _, err := NewAggregator(ms, bad).Refresh(context.Background()); err == nil {
		t.Error("expected error for zero cell size")
	}

	inverted := testConfig()
	inverted.MinLng, inverted.MaxLng = inverted.MaxLng, inverted.MinLng
	if _, err := NewAggregator(ms, inverted).Refresh(context.Background()); err == nil {
		t.Error("expected error for inverted bounding region")
	}
}

func totalBorings(s *Snapshot) int {
	var n int
	for _, c := range s.Cells {
		n += c.BoringCount
	}
	return n
}
