// Package framebuffer implements the 2-D channel-packed float image the
// renderer writes into, and its two binary file formats: the plain
// framebuffer dump and the tiled mipmap.
package framebuffer

import "fmt"

// Box is an inclusive-exclusive pixel-space rectangle [XMin,XMax) x
// [YMin,YMax), used for the view/data window metadata.
type Box struct {
	XMin, YMin, XMax, YMax int
}

// Framebuffer is a width x height x channels float image stored row-major,
// channel-packed: index = ((y*W)+x)*C + c.
type Framebuffer struct {
	Width, Height, Channels int
	Pixels                  []float32

	ViewBox Box
	DataBox Box
}

// New allocates a zeroed framebuffer of size width x height x channels,
// with both the view and data box set to the whole frame.
func New(width, height, channels int) *Framebuffer {
	full := Box{0, 0, width, height}
	return &Framebuffer{
		Width: width, Height: height, Channels: channels,
		Pixels:  make([]float32, width*height*channels),
		ViewBox: full, DataBox: full,
	}
}

// Resize reallocates the framebuffer to a new size, discarding content;
// the renderer uses it to size the output buffer to the camera resolution.
func (fb *Framebuffer) Resize(width, height, channels int) {
	full := Box{0, 0, width, height}
	fb.Width, fb.Height, fb.Channels = width, height, channels
	fb.Pixels = make([]float32, width*height*channels)
	fb.ViewBox, fb.DataBox = full, full
}

func (fb *Framebuffer) index(x, y, c int) int {
	return ((y*fb.Width)+x)*fb.Channels + c
}

// At returns the value of channel c at pixel (x, y).
func (fb *Framebuffer) At(x, y, c int) float32 {
	return fb.Pixels[fb.index(x, y, c)]
}

// Set stores the value of channel c at pixel (x, y).
func (fb *Framebuffer) Set(x, y, c int, v float32) {
	fb.Pixels[fb.index(x, y, c)] = v
}

// SetPixel stores every channel of pixel (x, y) from values, which must
// have at least Channels entries.
func (fb *Framebuffer) SetPixel(x, y int, values []float32) {
	base := fb.index(x, y, 0)
	copy(fb.Pixels[base:base+fb.Channels], values[:fb.Channels])
}

// GetPixel returns a copy of every channel of pixel (x, y).
func (fb *Framebuffer) GetPixel(x, y int) []float32 {
	base := fb.index(x, y, 0)
	out := make([]float32, fb.Channels)
	copy(out, fb.Pixels[base:base+fb.Channels])
	return out
}

// ComputeDataBox returns the tight bounding box of pixels whose alpha
// channel (channel index 3) is > 0. Returns the zero Box if the
// framebuffer has fewer than 4 channels or no pixel has positive alpha.
func (fb *Framebuffer) ComputeDataBox() Box {
	if fb.Channels < 4 {
		return Box{}
	}

	xmin, ymin := fb.Width, fb.Height
	xmax, ymax := 0, 0
	found := false

	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			if fb.At(x, y, 3) <= 0 {
				continue
			}
			found = true
			if x < xmin {
				xmin = x
			}
			if y < ymin {
				ymin = y
			}
			if x+1 > xmax {
				xmax = x + 1
			}
			if y+1 > ymax {
				ymax = y + 1
			}
		}
	}

	if !found {
		return Box{}
	}
	return Box{xmin, ymin, xmax, ymax}
}

func (b Box) String() string {
	return fmt.Sprintf("[%d,%d)-[%d,%d)", b.XMin, b.XMax, b.YMin, b.YMax)
}
