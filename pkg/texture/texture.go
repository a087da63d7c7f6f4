// Package texture implements tile-cached texture lookups over mipmap
// files, plus the mipmap-building path from arbitrary on-disk images
// (bmp/tiff decoders from golang.org/x/image alongside the stdlib png and
// jpeg ones, with x/image/draw resampling to power-of-two resolution). A
// lookup against an unloaded texture returns a sentinel magenta.
package texture

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/framebuffer"
)

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}

// sentinelColor is the magenta returned for an unloaded texture's lookup.
var sentinelColor = core.NewVec3(1, 0, 1)

// Texture is a read-only, tile-cached lookup into a mipmap file: an open
// mip stream, a one-tile float cache, and the last tile coordinates read.
type Texture struct {
	r    io.ReadSeeker
	hdr  framebuffer.MipmapHeader
	tile []float32

	lastXTile, lastYTile int
}

// New returns an unloaded Texture: every Lookup returns the sentinel
// color until LoadFile succeeds.
func New() *Texture {
	return &Texture{lastXTile: -1, lastYTile: -1}
}

// LoadFile opens filename as a mipmap file and prepares it for lookups.
func LoadFile(filename string) (*Texture, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("texture: opening %s: %w", filename, err)
	}
	hdr, err := framebuffer.ReadMipmapHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("texture: reading header of %s: %w", filename, err)
	}
	return &Texture{r: f, hdr: hdr, lastXTile: -1, lastYTile: -1}, nil
}

// BuildMipmapFromImage decodes an arbitrary image file (PNG, JPEG, BMP, or
// TIFF) and writes it to w as a mipmap, first resampling to the next
// power-of-two resolution with x/image/draw's Catmull-Rom kernel; a source
// photograph is rarely already a power of two, unlike a rendered
// Framebuffer which BuildMipmapFromFramebuffer writes as-is.
func BuildMipmapFromImage(r io.Reader, w io.Writer) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("texture: decoding source image: %w", err)
	}

	bounds := src.Bounds()
	dstW := nextPow2(bounds.Dx())
	dstH := nextPow2(bounds.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	fb := framebuffer.New(dstW, dstH, 3)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			r32, g32, b32, _ := dst.At(x, y).RGBA()
			fb.SetPixel(x, y, []float32{
				float32(r32) / 65535,
				float32(g32) / 65535,
				float32(b32) / 65535,
			})
		}
	}
	return framebuffer.WriteMipmap(w, fb)
}

// BuildMipmapFromFramebuffer writes fb directly as a mipmap: the
// render-to-texture path, where a rendered Framebuffer used as input to a
// later render needs no resampling.
func BuildMipmapFromFramebuffer(fb *framebuffer.Framebuffer, w io.Writer) error {
	return framebuffer.WriteMipmap(w, fb)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// Lookup returns the color at texture-space (u, v), wrapping both
// coordinates into [0, 1) first; v=0 addresses the image's bottom row.
// Returns the sentinel magenta if the texture was never loaded.
func (t *Texture) Lookup(u, v float64) core.Vec3 {
	if t.r == nil {
		return sentinelColor
	}

	uw := u - math.Floor(u)
	vw := v - math.Floor(v)

	paddedW := nextPow2(t.hdr.Width)
	paddedH := nextPow2(t.hdr.Height)
	xntiles := paddedW / t.hdr.TileSize
	yntiles := paddedH / t.hdr.TileSize

	tu := uw * float64(xntiles)
	tv := (1 - vw) * float64(yntiles)

	xtile := int(math.Floor(tu))
	ytile := int(math.Floor(tv))
	if xtile >= xntiles {
		xtile = xntiles - 1
	}
	if ytile >= yntiles {
		ytile = yntiles - 1
	}

	if xtile != t.lastXTile || ytile != t.lastYTile {
		tile, err := framebuffer.ReadMipmapTile(t.r, t.hdr, xtile, ytile)
		if err != nil {
			return sentinelColor
		}
		t.tile = tile
		t.lastXTile, t.lastYTile = xtile, ytile
	}

	xpxl := int((tu - math.Floor(tu)) * float64(t.hdr.TileSize))
	ypxl := int((tv - math.Floor(tv)) * float64(t.hdr.TileSize))
	if xpxl >= t.hdr.TileSize {
		xpxl = t.hdr.TileSize - 1
	}
	if ypxl >= t.hdr.TileSize {
		ypxl = t.hdr.TileSize - 1
	}

	idx := (ypxl*t.hdr.TileSize + xpxl) * t.hdr.Channels
	if idx+2 >= len(t.tile) {
		return sentinelColor
	}
	return core.NewVec3(float64(t.tile[idx]), float64(t.tile[idx+1]), float64(t.tile[idx+2]))
}

// Resolution returns the texture's logical (unpadded) width and height,
// or (0, 0) if unloaded.
func (t *Texture) Resolution() (width, height int) {
	if t.r == nil {
		return 0, 0
	}
	return t.hdr.Width, t.hdr.Height
}

// Close releases the underlying file, if any.
func (t *Texture) Close() error {
	if closer, ok := t.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
