package entity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/twpayne/go-geom"

	"github.com/gms-foundation/gms-cli/internal/geo"
)

// MemStore is an in-memory Store used by algorithm tests and local
// experiments. Spatial predicates are computed with the internal/geo
// primitives; it is a linear scan, not an indexed search, so it is not
// intended for production volumes.
type MemStore struct {
	mu           sync.RWMutex
	entities     map[string]LocatedEntity
	layers       map[string][]SubsurfaceLayer
	correlations map[correlationKey]CorrelationRecord
	gridCells    map[string]GridCellStats
}

type correlationKey struct {
	sourceType EntityType
	sourceID   string
	targetType EntityType
	targetID   string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		entities:     make(map[string]LocatedEntity),
		layers:       make(map[string][]SubsurfaceLayer),
		correlations: make(map[correlationKey]CorrelationRecord),
		gridCells:    make(map[string]GridCellStats),
	}
}

// Put adds or replaces an entity.
func (s *MemStore) Put(e LocatedEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.UpdatedAt = time.Now()
	s.entities[e.ID] = e
}

// PutLayers replaces the subsurface layers for a boring.
func (s *MemStore) PutLayers(boringID string, layers []SubsurfaceLayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[boringID] = layers
}

// Correlations returns all stored correlation records.
func (s *MemStore) Correlations() []CorrelationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CorrelationRecord, 0, len(s.correlations))
	for _, r := range s.correlations {
		out = append(out, r)
	}
	return out
}

// GridCells returns all stored grid statistics rows.
func (s *MemStore) GridCells() []GridCellStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GridCellStats, 0, len(s.gridCells))
	for _, c := range s.gridCells {
		out = append(out, c)
	}
	return out
}

// Get implements Store.
func (s *MemStore) Get(ctx context.Context, id string) (*LocatedEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// ListByType implements Store.
func (s *MemStore) ListByType(ctx context.Context, t EntityType) ([]LocatedEntity, error) {
	if !t.Valid() {
		return nil, UnknownTypeError(string(t))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LocatedEntity
	for _, e := range s.entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindWithinRadius implements Store.
func (s *MemStore) FindWithinRadius(ctx context.Context, g geom.T, radiusM float64, types ...EntityType) ([]LocatedEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	typeSet := make(map[EntityType]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		e LocatedEntity
		d float64
	}
	var hits []hit
	for _, e := range s.entities {
		if len(typeSet) > 0 && !typeSet[e.Type] {
			continue
		}
		if d := geo.DistanceM(g, e.Geometry); d <= radiusM {
			hits = append(hits, hit{e, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].d != hits[j].d {
			return hits[i].d < hits[j].d
		}
		return hits[i].e.ID < hits[j].e.ID
	})

	out := make([]LocatedEntity, len(hits))
	for i, h := range hits {
		out[i] = h.e
	}
	return out, nil
}

// FindIntersecting implements Store.
func (s *MemStore) FindIntersecting(ctx context.Context, g geom.T, types ...EntityType) ([]LocatedEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	typeSet := make(map[EntityType]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []LocatedEntity
	for _, e := range s.entities {
		if len(typeSet) > 0 && !typeSet[e.Type] {
			continue
		}
		if geo.Intersects(g, e.Geometry) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MeasureDistance implements Store.
func (s *MemStore) MeasureDistance(ctx context.Context, a, b geom.T) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return geo.DistanceM(a, b), nil
}

// ProjectPointOntoLine implements Store.
func (s *MemStore) ProjectPointOntoLine(ctx context.Context, p *geom.Point, line *geom.LineString) (geo.Projection, error) {
	if err := ctx.Err(); err != nil {
		return geo.Projection{}, err
	}
	return geo.ProjectPointOntoLine(p, line), nil
}

// LayersFor implements Store.
func (s *MemStore) LayersFor(ctx context.Context, boringID string) ([]SubsurfaceLayer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	layers := make([]SubsurfaceLayer, len(s.layers[boringID]))
	copy(layers, s.layers[boringID])
	sort.Slice(layers, func(i, j int) bool { return layers[i].TopDepthM < layers[j].TopDepthM })
	return layers, nil
}

// UpsertCorrelations implements Store.
func (s *MemStore) UpsertCorrelations(ctx context.Context, recs []CorrelationRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		key := correlationKey{r.SourceType, r.SourceID, r.TargetType, r.TargetID}
		s.correlations[key] = r
	}
	return int64(len(recs)), nil
}

// UpsertGridCells implements Store.
func (s *MemStore) UpsertGridCells(ctx context.Context, cells []GridCellStats) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cells {
		s.gridCells[c.CellID] = c
	}
	return int64(len(cells)), nil
}

// Compile-time interface checks.
var (
	_ Store = (*MemStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
