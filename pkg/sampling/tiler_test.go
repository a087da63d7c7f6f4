package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTilerCoversWholeImage(t *testing.T) {
	tiler := NewTiler(10, 10, 4, 4)
	tiles := tiler.GenerateTiles(Rectangle{XMin: 0, YMin: 0, XMax: 10, YMax: 10})

	// 4x4 tiles over a 10x10 image: ceil(10/4)=3 columns and rows -> 9 tiles.
	assert.Len(t, tiles, 9)

	for i, tile := range tiles {
		assert.Equal(t, i, tile.ID)
	}

	var covered [10][10]bool
	for _, tile := range tiles {
		for y := tile.YMin; y < tile.YMax; y++ {
			for x := tile.XMin; x < tile.XMax; x++ {
				assert.False(t, covered[y][x], "pixel (%d,%d) covered twice", x, y)
				covered[y][x] = true
			}
		}
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			assert.True(t, covered[y][x], "pixel (%d,%d) not covered", x, y)
		}
	}
}

func TestTilerClipsToRegion(t *testing.T) {
	tiler := NewTiler(100, 100, 32, 32)
	tiles := tiler.GenerateTiles(Rectangle{XMin: 10, YMin: 10, XMax: 20, YMax: 20})

	assert.Len(t, tiles, 1)
	assert.Equal(t, 10, tiles[0].XMin)
	assert.Equal(t, 10, tiles[0].YMin)
	assert.Equal(t, 20, tiles[0].XMax)
	assert.Equal(t, 20, tiles[0].YMax)
}
