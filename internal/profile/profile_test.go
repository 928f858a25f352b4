package profile

import (
	"context"
	"math"
	"testing"

	"github.com/twpayne/go-geom"

	"github.com/gms-foundation/gms-cli/internal/entity"
)

func point(lng, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(4326)
}

// eastWestLine builds a line of roughly the given length in meters along
// a parallel, starting at (lng, lat).
func eastWestLine(lng, lat, meters float64) *geom.LineString {
	dLng := meters / (111000.0 * math.Cos(lat*math.Pi/180))
	return geom.NewLineStringFlat(geom.XY, []float64{lng, lat, lng + dLng, lat}).SetSRID(4326)
}

func TestGenerateMidpointBoring(t *testing.T) {
	ms := entity.NewMemStore()
	line := eastWestLine(-77.0, 38.9, 200)

	// Boring just north of the line's midpoint.
	midLng := (line.Coord(0)[0] + line.Coord(1)[0]) / 2
	ms.Put(entity.LocatedEntity{ID: "b-1", Type: entity.TypeBoring, Geometry: point(midLng, 38.9002)})
	ms.PutLayers("b-1", []entity.SubsurfaceLayer{
		{BoringID: "b-1", TopDepthM: 0, BottomDepthM: 4, Material: "silty sand"},
		{BoringID: "b-1", TopDepthM: 4, BottomDepthM: 11, Material: "weathered rock"},
	})

	p, err := NewGenerator(ms).Generate(context.Background(), line, 50)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(p.Samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(p.Samples))
	}

	s := p.Samples[0]
	if math.Abs(s.FractionAlong-0.5) > 0.02 {
		t.Errorf("FractionAlong = %v, want ~0.5", s.FractionAlong)
	}
	if math.Abs(s.DistanceAlongLineM-100) > 5 {
		t.Errorf("DistanceAlongLineM = %v, want ~100", s.DistanceAlongLineM)
	}
	if s.OffsetM < 15 || s.OffsetM > 30 {
		t.Errorf("OffsetM = %v, want ~22", s.OffsetM)
	}
	if s.LayerTopM != 0 || p.Samples[1].LayerTopM != 4 {
		t.Errorf("layers not depth-ordered: %+v", p.Samples)
	}
	if s.Material != "Silty Sand" {
		t.Errorf("Material = %q, want title case", s.Material)
	}
}

func TestGenerateClampsBeyondEndpoint(t *testing.T) {
	ms := entity.NewMemStore()
	line := eastWestLine(-77.0, 38.9, 200)

	// Boring west of the start, within the buffer of the start vertex.
	startLng := line.Coord(0)[0]
	ms.Put(entity.LocatedEntity{ID: "b-before", Type: entity.TypeBoring, Geometry: point(startLng-0.0002, 38.9)})
	ms.PutLayers("b-before", []entity.SubsurfaceLayer{
		{BoringID: "b-before", TopDepthM: 0, BottomDepthM: 6, Material: "fill"},
	})

	p, err := NewGenerator(ms).Generate(context.Background(), line, 50)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(p.Samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(p.Samples))
	}
	if p.Samples[0].FractionAlong != 0 {
		t.Errorf("FractionAlong = %v, want 0 (clamped to start)", p.Samples[0].FractionAlong)
	}
	if p.Samples[0].DistanceAlongLineM != 0 {
		t.Errorf("DistanceAlongLineM = %v, want 0", p.Samples[0].DistanceAlongLineM)
	}
}

func TestGenerateSortedByDistanceThenDepth(t *testing.T) {
	ms := entity.NewMemStore()
	line := eastWestLine(-77.0, 38.9, 400)
	startLng, endLng := line.Coord(0)[0], line.Coord(1)[0]
	span := endLng - startLng

	ms.Put(entity.LocatedEntity{ID: "b-east", Type: entity.TypeBoring, Geometry: point(startLng+0.75*span, 38.9001)})
	ms.Put(entity.LocatedEntity{ID: "b-west", Type: entity.TypeBoring, Geometry: point(startLng+0.25*span, 38.9001)})
	ms.PutLayers("b-east", []entity.SubsurfaceLayer{
		{BoringID: "b-east", TopDepthM: 0, BottomDepthM: 5, Material: "clay"},
	})
	ms.PutLayers("b-west", []entity.SubsurfaceLayer{
		{BoringID: "b-west", TopDepthM: 3, BottomDepthM: 8, Material: "sand"},
		{BoringID: "b-west", TopDepthM: 0, BottomDepthM: 3, Material: "topsoil"},
	})

	p, err := NewGenerator(ms).Generate(context.Background(), line, 50)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(p.Samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(p.Samples))
	}
	if p.Samples[0].BoringID != "b-west" || p.Samples[0].LayerTopM != 0 {
		t.Errorf("first sample = %+v, want b-west top layer", p.Samples[0])
	}
	if p.Samples[1].BoringID != "b-west" || p.Samples[1].LayerTopM != 3 {
		t.Errorf("second sample = %+v, want b-west lower layer", p.Samples[1])
	}
	if p.Samples[2].BoringID != "b-east" {
		t.Errorf("third sample = %+v, want b-east", p.Samples[2])
	}
}

func TestGenerateSkipsBoringsWithoutLayers(t *testing.T) {
	ms := entity.NewMemStore()
	line := eastWestLine(-77.0, 38.9, 200)
	ms.Put(entity.LocatedEntity{ID: "b-empty", Type: entity.TypeBoring, Geometry: point(line.Coord(0)[0], 38.9001)})

	p, err := NewGenerator(ms).Generate(context.Background(), line, 50)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(p.Samples) != 0 {
		t.Errorf("got %d samples, want 0 for layerless boring", len(p.Samples))
	}
}

func TestProfileIteratorRestartable(t *testing.T) {
	p := &Profile{Samples: []Sample{
		{BoringID: "a", DistanceAlongLineM: 10},
		{BoringID: "b", DistanceAlongLineM: 20},
	}}

	for pass := 0; pass < 2; pass++ {
		var ids []string
		for s := range p.All() {
			ids = append(ids, s.BoringID)
		}
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Fatalf("pass %d: ids = %v", pass, ids)
		}
	}

	// Early break must not affect a later pass.
	for s := range p.All() {
		_ = s
		break
	}
	var count int
	for range p.All() {
		count++
	}
	if count != 2 {
		t.Errorf("after early break, second pass yielded %d samples, want 2", count)
	}
}

func TestGenerateRejectsBadInputs(t *testing.T) {
	g := NewGenerator(entity.NewMemStore())
	line := eastWestLine(-77.0, 38.9, 200)

	if _, err := g.Generate(context.Background(), nil, 50); err == nil {
		t.Error("expected error for nil line")
	}
	if _, err := g.Generate(context.Background(), line, 0); err == nil {
		t.Error("expected error for zero buffer width")
	}
	if _, err := g.Generate(context.Background(), line, -5); err == nil {
		t.Error("expected error for negative buffer width")
	}
}
