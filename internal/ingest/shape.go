// Package ingest loads located entities from external file formats into
// the store. Shapefiles are the primary source: hazard zone inventories
// and asset registers typically arrive as agency shapefile exports.
package ingest

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
)

// EncodeShapeEWKB converts a go-shp geometry to EWKB bytes with SRID 4326.
// Returns nil, nil for unsupported or nil shapes.
func EncodeShapeEWKB(shape shp.Shape) ([]byte, error) {
	g := shapeToGeom(shape)
	if g == nil {
		return nil, nil
	}
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: encode EWKB")
	}
	return data, nil
}

func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(4326)
	case *shp.PolyLine:
		return polyLineToMultiLineString(s)
	case *shp.Polygon:
		return polygonToMultiPolygon(s)
	default:
		return nil
	}
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY).SetSRID(4326)
	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		end := int32(len(pl.Points))
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}
		ls := geom.NewLineStringFlat(geom.XY, flat)
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("ingest: skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("ingest: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("ingest: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
