package sampling

import "math"

// Tile is one rectangle of pixels, the unit of work distribution. IDs are
// strictly increasing in generation order.
type Tile struct {
	ID                     int
	XMin, YMin, XMax, YMax int
}

// Tiler enumerates tiles of a fixed size clipped to a render region. Tile
// columns and rows are computed against the full image resolution then
// clamped to the requested region, so a region that doesn't align to the
// tile grid produces tiles whose edges are clipped rather than shifted.
type Tiler struct {
	xres, yres           int
	xtileSize, ytileSize int
}

// NewTiler constructs a tiler for an xres x yres image with xtileSize x
// ytileSize tiles.
func NewTiler(xres, yres, xtileSize, ytileSize int) *Tiler {
	return &Tiler{xres: xres, yres: yres, xtileSize: xtileSize, ytileSize: ytileSize}
}

// GenerateTiles enumerates every tile overlapping region, row-major from
// the region's minimum corner, with strictly increasing IDs.
func (t *Tiler) GenerateTiles(region Rectangle) []Tile {
	xmin := region.XMin
	ymin := region.YMin
	xmax := region.XMax
	ymax := region.YMax

	xMinTile := int(math.Floor(float64(max(0, xmin)) / float64(t.xtileSize)))
	yMinTile := int(math.Floor(float64(max(0, ymin)) / float64(t.ytileSize)))
	xMaxTile := int(math.Ceil(float64(min(t.xres, xmax)) / float64(t.xtileSize)))
	yMaxTile := int(math.Ceil(float64(min(t.yres, ymax)) / float64(t.ytileSize)))

	var tiles []Tile
	id := 0
	for y := yMinTile; y < yMaxTile; y++ {
		for x := xMinTile; x < xMaxTile; x++ {
			tile := Tile{
				ID:   id,
				XMin: max(x*t.xtileSize, xmin),
				YMin: max(y*t.ytileSize, ymin),
				XMax: min((x+1)*t.xtileSize, xmax),
				YMax: min((y+1)*t.ytileSize, ymax),
			}
			tiles = append(tiles, tile)
			id++
		}
	}
	return tiles
}
