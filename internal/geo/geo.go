// Package geo provides geographic distance and projection primitives over
// go-geom geometries. All coordinates are WGS84 lng/lat (EPSG:4326) and all
// distances are meters.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusM is the mean Earth radius in meters.
const EarthRadiusM = 6371008.8

// DegreesPerKM is an approximate conversion factor for latitude degrees to
// kilometers. At mid-latitudes, 1 degree of latitude is approximately 111 km.
const DegreesPerKM = 1.0 / 111.0

// HaversineM returns the great-circle distance in meters between two
// lng/lat coordinates.
func HaversineM(lng1, lat1, lng2, lat2 float64) float64 {
	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	Δφ := (lat2 - lat1) * math.Pi / 180
	Δλ := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// PointDistanceM returns the great-circle distance in meters between two points.
func PointDistanceM(a, b *geom.Point) float64 {
	return HaversineM(a.X(), a.Y(), b.X(), b.Y())
}

// LineLengthM returns the geodesic length of a linestring in meters,
// summed over its segments.
func LineLengthM(ls *geom.LineString) float64 {
	coords := ls.Coords()
	var total float64
	for i := 1; i < len(coords); i++ {
		total += HaversineM(coords[i-1][0], coords[i-1][1], coords[i][0], coords[i][1])
	}
	return total
}

// Projection is the result of projecting a point onto a linestring.
type Projection struct {
	// Fraction is the normalized position of the closest approach along the
	// line, clamped to [0, 1]. Points whose perpendicular foot falls beyond
	// either endpoint clamp to that endpoint.
	Fraction float64
	// OffsetM is the perpendicular distance from the point to the line in meters.
	OffsetM float64
}

// ProjectPointOntoLine projects a point onto a linestring and returns the
// clamped fraction along the line and the offset distance. It works in a
// local equirectangular frame centered on the point, which is accurate for
// the buffer widths used in profile generation (tens to hundreds of meters).
func ProjectPointOntoLine(p *geom.Point, ls *geom.LineString) Projection {
	coords := ls.Coords()
	if len(coords) == 0 {
		return Projection{}
	}
	if len(coords) == 1 {
		return Projection{Fraction: 0, OffsetM: HaversineM(p.X(), p.Y(), coords[0][0], coords[0][1])}
	}

	refLat := p.Y() * math.Pi / 180
	kx := EarthRadiusM * math.Cos(refLat) * math.Pi / 180 // meters per degree lng
	ky := EarthRadiusM * math.Pi / 180                    // meters per degree lat

	toLocal := func(c geom.Coord) (float64, float64) {
		return (c[0] - p.X()) * kx, (c[1] - p.Y()) * ky
	}

	segLens := make([]float64, len(coords)-1)
	var total float64
	for i := 1; i < len(coords); i++ {
		segLens[i-1] = HaversineM(coords[i-1][0], coords[i-1][1], coords[i][0], coords[i][1])
		total += segLens[i-1]
	}

	best := Projection{OffsetM: math.Inf(1)}
	var cum float64
	for i := 0; i < len(coords)-1; i++ {
		ax, ay := toLocal(coords[i])
		bx, by := toLocal(coords[i+1])
		dx, dy := bx-ax, by-ay

		t := 0.0
		if segSq := dx*dx + dy*dy; segSq > 0 {
			// The point is the local origin, so the projection parameter is
			// -A·(B-A) / |B-A|^2, clamped to the segment.
			t = -(ax*dx + ay*dy) / segSq
			t = math.Max(0, math.Min(1, t))
		}
		nx, ny := ax+t*dx, ay+t*dy
		d := math.Hypot(nx, ny)

		if d < best.OffsetM {
			frac := 0.0
			if total > 0 {
				frac = (cum + t*segLens[i]) / total
			}
			best = Projection{Fraction: math.Max(0, math.Min(1, frac)), OffsetM: d}
		}
		cum += segLens[i]
	}
	return best
}

// DistanceToLineM returns the perpendicular distance in meters from a point
// to a linestring.
func DistanceToLineM(p *geom.Point, ls *geom.LineString) float64 {
	return ProjectPointOntoLine(p, ls).OffsetM
}

// DistanceM returns the geographic distance in meters between two geometries.
// Point-to-point and point-to-line are exact within the local-frame
// approximation; other combinations fall back to the distance between the
// nearest vertices, which is sufficient for correlation scoring where one
// side is always a point.
func DistanceM(a, b geom.T) float64 {
	if pa, ok := a.(*geom.Point); ok {
		switch tb := b.(type) {
		case *geom.Point:
			return PointDistanceM(pa, tb)
		case *geom.LineString:
			return DistanceToLineM(pa, tb)
		}
	}
	if pb, ok := b.(*geom.Point); ok {
		if la, ok := a.(*geom.LineString); ok {
			return DistanceToLineM(pb, la)
		}
	}
	return nearestVertexDistanceM(a, b)
}

// nearestVertexDistanceM returns the minimum pairwise vertex distance.
func nearestVertexDistanceM(a, b geom.T) float64 {
	ca := flatToCoords(a)
	cb := flatToCoords(b)
	best := math.Inf(1)
	for _, p := range ca {
		for _, q := range cb {
			if d := HaversineM(p[0], p[1], q[0], q[1]); d < best {
				best = d
			}
		}
	}
	return best
}

func flatToCoords(g geom.T) [][2]float64 {
	flat := g.FlatCoords()
	stride := g.Stride()
	out := make([][2]float64, 0, len(flat)/stride)
	for i := 0; i+1 < len(flat); i += stride {
		out = append(out, [2]float64{flat[i], flat[i+1]})
	}
	return out
}
