package ingest

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func TestEncodeShapeEWKB_Point(t *testing.T) {
	p := &shp.Point{X: -77.03, Y: 38.89}
	wkb, err := EncodeShapeEWKB(p)

	require.NoError(t, err)
	require.NotNil(t, wkb)

	g, err := ewkb.Unmarshal(wkb)
	require.NoError(t, err)
	pt, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, -77.03, pt.X())
	assert.Equal(t, 38.89, pt.Y())
	assert.Equal(t, 4326, pt.SRID())
}

func TestEncodeShapeEWKB_PolyLine(t *testing.T) {
	pl := &shp.PolyLine{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: -77.0, Y: 38.9},
			{X: -77.1, Y: 38.91},
			{X: -77.2, Y: 38.92},
		},
	}

	wkb, err := EncodeShapeEWKB(pl)
	require.NoError(t, err)
	require.NotNil(t, wkb)

	g, err := ewkb.Unmarshal(wkb)
	require.NoError(t, err)
	mls, ok := g.(*geom.MultiLineString)
	require.True(t, ok)
	assert.Equal(t, 1, mls.NumLineStrings())
}

func TestEncodeShapeEWKB_MultiPartPolygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			{X: -78.0, Y: 38.0},
			{X: -78.0, Y: 39.0},
			{X: -77.0, Y: 39.0},
			{X: -77.0, Y: 38.0},
			{X: -78.0, Y: 38.0},
			{X: -79.0, Y: 39.0},
			{X: -79.0, Y: 40.0},
			{X: -78.0, Y: 40.0},
			{X: -78.0, Y: 39.0},
			{X: -79.0, Y: 39.0},
		},
	}

	wkb, err := EncodeShapeEWKB(poly)
	require.NoError(t, err)
	require.NotNil(t, wkb)

	g, err := ewkb.Unmarshal(wkb)
	require.NoError(t, err)
	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestEncodeShapeEWKB_NilAndEmpty(t *testing.T) {
	wkb, err := EncodeShapeEWKB(nil)
	require.NoError(t, err)
	assert.Nil(t, wkb)

	wkb, err = EncodeShapeEWKB(&shp.Polygon{})
	require.NoError(t, err)
	assert.Nil(t, wkb)
}
