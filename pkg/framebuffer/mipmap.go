package framebuffer

import (
	"encoding/binary"
	"fmt"
	"io"
)

var magicMIPM = [4]byte{'M', 'I', 'P', 'M'}

const mipmapVersion = 1

// Tile size is chosen at write time as min(64, W, H).
const defaultMipTileSize = 64

// MipmapHeader is the on-disk header of a mipmap file: source dimensions,
// channel count, and tile size.
type MipmapHeader struct {
	Width, Height, Channels, TileSize int
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// WriteMipmap writes fb in the tiled mipmap layout: magic, version,
// width/height/channels/tilesize header, then every tile in row-major tile
// order, each tile tile_size² × channels float32s. The image is padded up
// to the next power of two on each axis; padding pixels are zero.
func WriteMipmap(w io.Writer, fb *Framebuffer) error {
	tileSize := defaultMipTileSize
	if fb.Width < tileSize {
		tileSize = fb.Width
	}
	if fb.Height < tileSize {
		tileSize = fb.Height
	}
	if tileSize < 1 {
		return fmt.Errorf("framebuffer: cannot mipmap an empty framebuffer")
	}

	paddedW := nextPow2(fb.Width)
	paddedH := nextPow2(fb.Height)
	xntiles := (paddedW + tileSize - 1) / tileSize
	yntiles := (paddedH + tileSize - 1) / tileSize

	if _, err := w.Write(magicMIPM[:]); err != nil {
		return err
	}
	header := []int32{
		mipmapVersion,
		int32(fb.Width), int32(fb.Height), int32(fb.Channels), int32(tileSize),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	tile := make([]float32, tileSize*tileSize*fb.Channels)
	for ytile := 0; ytile < yntiles; ytile++ {
		for xtile := 0; xtile < xntiles; xtile++ {
			for i := range tile {
				tile[i] = 0
			}
			for ty := 0; ty < tileSize; ty++ {
				y := ytile*tileSize + ty
				if y >= fb.Height {
					continue
				}
				for tx := 0; tx < tileSize; tx++ {
					x := xtile*tileSize + tx
					if x >= fb.Width {
						continue
					}
					src := fb.GetPixel(x, y)
					dst := (ty*tileSize + tx) * fb.Channels
					copy(tile[dst:dst+fb.Channels], src)
				}
			}
			if err := binary.Write(w, binary.LittleEndian, tile); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadMipmapHeader reads and validates a mipmap file's header, leaving r
// positioned at the start of the first tile.
func ReadMipmapHeader(r io.Reader) (MipmapHeader, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return MipmapHeader{}, err
	}
	if magic != magicMIPM {
		return MipmapHeader{}, fmt.Errorf("framebuffer: bad mipmap magic %q", magic)
	}

	var header [5]int32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return MipmapHeader{}, err
	}
	if header[0] != mipmapVersion {
		return MipmapHeader{}, fmt.Errorf("framebuffer: unsupported mipmap version %d", header[0])
	}

	return MipmapHeader{
		Width: int(header[1]), Height: int(header[2]),
		Channels: int(header[3]), TileSize: int(header[4]),
	}, nil
}

const mipmapHeaderSize = int64(len(magicMIPM)) + 5*4

// ReadMipmapTile seeks to and reads a single tile (xtile, ytile) from a
// mipmap stream: random-access tile reads without decoding the whole
// image. The returned slice is tile_size² × channels float32s, row-major
// within the tile.
func ReadMipmapTile(r io.ReadSeeker, hdr MipmapHeader, xtile, ytile int) ([]float32, error) {
	paddedW := nextPow2(hdr.Width)
	xntiles := (paddedW + hdr.TileSize - 1) / hdr.TileSize
	tileIndex := int64(ytile*xntiles + xtile)
	tilePixels := int64(hdr.TileSize * hdr.TileSize * hdr.Channels)

	offset := mipmapHeaderSize + tileIndex*tilePixels*4
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	tile := make([]float32, tilePixels)
	if err := binary.Read(r, binary.LittleEndian, tile); err != nil {
		return nil, err
	}
	return tile, nil
}
