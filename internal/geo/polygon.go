package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// PointInPolygon reports whether a point lies inside a polygon, honoring
// interior rings as holes.
func PointInPolygon(p *geom.Point, poly *geom.Polygon) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	c := geom.Coord{p.X(), p.Y()}
	if !xy.IsPointInRing(poly.Layout(), c, poly.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if xy.IsPointInRing(poly.Layout(), c, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// Intersects reports whether two geometries' bounding boxes overlap, with an
// exact containment check when one side is a point and the other a polygon.
// Bounding-box overlap is intentionally conservative for line/line and
// line/polygon pairs; the PostGIS store performs the exact test server-side.
func Intersects(a, b geom.T) bool {
	if pa, ok := a.(*geom.Point); ok {
		if poly, ok := b.(*geom.Polygon); ok {
			return PointInPolygon(pa, poly)
		}
	}
	if pb, ok := b.(*geom.Point); ok {
		if poly, ok := a.(*geom.Polygon); ok {
			return PointInPolygon(pb, poly)
		}
	}
	ba, bb := a.Bounds(), b.Bounds()
	return ba.Min(0) <= bb.Max(0) && ba.Max(0) >= bb.Min(0) &&
		ba.Min(1) <= bb.Max(1) && ba.Max(1) >= bb.Min(1)
}
