package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// BBox represents a geographic bounding box.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Valid reports whether the box has positive extent.
func (b BBox) Valid() bool {
	return b.MaxLng > b.MinLng && b.MaxLat > b.MinLat
}

// Contains reports whether the box contains the given lng/lat.
func (b BBox) Contains(lng, lat float64) bool {
	return lng >= b.MinLng && lng <= b.MaxLng && lat >= b.MinLat && lat <= b.MaxLat
}

// Cell is one square cell of a grid tessellation, in degrees.
type Cell struct {
	ID     string
	Col    int
	Row    int
	MinLng float64
	MinLat float64
	MaxLng float64
	MaxLat float64
}

// Polygon returns the cell boundary as a closed polygon ring.
func (c Cell) Polygon() *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		c.MinLng, c.MinLat,
		c.MaxLng, c.MinLat,
		c.MaxLng, c.MaxLat,
		c.MinLng, c.MaxLat,
		c.MinLng, c.MinLat,
	}, []int{10}).SetSRID(4326)
}

// ContainsPoint reports whether the point lies in this cell. Cells are
// half-open on their max edges so a point on a shared boundary belongs to
// exactly one cell.
func (c Cell) ContainsPoint(p *geom.Point) bool {
	return p.X() >= c.MinLng && p.X() < c.MaxLng &&
		p.Y() >= c.MinLat && p.Y() < c.MaxLat
}

// Tessellate partitions a bounding box into square cells of the given side
// length in degrees. Cell origins snap to global multiples of the cell size
// so repeated builds over overlapping regions produce identical cell IDs.
// The half-open max edges of ContainsPoint mean a point sitting exactly on
// the region's MaxLng or MaxLat boundary falls in no generated cell even
// though BBox.Contains accepts it; the tessellation never double-counts a
// boundary point at the cost of that measure-zero outer edge.
func Tessellate(b BBox, cellDeg float64) []Cell {
	if !b.Valid() || cellDeg <= 0 {
		return nil
	}

	col0 := int(math.Floor(b.MinLng / cellDeg))
	row0 := int(math.Floor(b.MinLat / cellDeg))

	var cells []Cell
	for row := row0; float64(row)*cellDeg < b.MaxLat; row++ {
		for col := col0; float64(col)*cellDeg < b.MaxLng; col++ {
			cells = append(cells, Cell{
				ID:     fmt.Sprintf("%d_%d", col, row),
				Col:    col,
				Row:    row,
				MinLng: float64(col) * cellDeg,
				MinLat: float64(row) * cellDeg,
				MaxLng: float64(col+1) * cellDeg,
				MaxLat: float64(row+1) * cellDeg,
			})
		}
	}
	return cells
}
