package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenray/lumen/pkg/framebuffer"
)

func TestLookupOnUnloadedTextureReturnsSentinel(t *testing.T) {
	tex := New()
	got := tex.Lookup(0.5, 0.5)
	assert.Equal(t, sentinelColor, got)
}

func TestLoadFileThenLookupReturnsStoredColor(t *testing.T) {
	fb := framebuffer.New(8, 8, 3)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			fb.SetPixel(x, y, []float32{1, 0, 0})
		}
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "tex.mip")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, BuildMipmapFromFramebuffer(fb, f))
	require.NoError(t, f.Close())

	tex, err := LoadFile(path)
	require.NoError(t, err)
	defer tex.Close()

	color := tex.Lookup(0.5, 0.5)
	assert.InDelta(t, 1.0, color.X, 1e-6)
	assert.InDelta(t, 0.0, color.Y, 1e-6)

	w, h := tex.Resolution()
	assert.Equal(t, 8, w)
	assert.Equal(t, 8, h)
}

func TestBuildMipmapFromImageResamplesToPowerOfTwo(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))

	var mipBuf bytes.Buffer
	require.NoError(t, BuildMipmapFromImage(&pngBuf, &mipBuf))

	r := bytes.NewReader(mipBuf.Bytes())
	hdr, err := framebuffer.ReadMipmapHeader(r)
	require.NoError(t, err)
	assert.Equal(t, 16, hdr.Width)
	assert.Equal(t, 8, hdr.Height)
}
