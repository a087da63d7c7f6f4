package framebuffer

import (
	"encoding/binary"
	"fmt"
	"io"
)

var magicFBUF = [4]byte{'F', 'B', 'U', 'F'}

const fbufVersion = 1

// Save writes fb as little-endian binary: magic, version, dimensions,
// view box, data box, then the full row-major channel-packed pixel
// payload. fb.DataBox is written as-is; callers wanting the tight-alpha
// crop behavior should use SaveCropped.
func (fb *Framebuffer) Save(w io.Writer) error {
	if _, err := w.Write(magicFBUF[:]); err != nil {
		return err
	}
	header := []int32{
		fbufVersion,
		int32(fb.Width), int32(fb.Height), int32(fb.Channels),
		int32(fb.ViewBox.XMin), int32(fb.ViewBox.YMin), int32(fb.ViewBox.XMax), int32(fb.ViewBox.YMax),
		int32(fb.DataBox.XMin), int32(fb.DataBox.YMin), int32(fb.DataBox.XMax), int32(fb.DataBox.YMax),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, fb.Pixels)
}

// SaveCropped writes fb with its data box recomputed as the tight
// bounding box of alpha>0 pixels, leaving the view box and pixel payload
// untouched; only the data-box metadata narrows.
func (fb *Framebuffer) SaveCropped(w io.Writer) error {
	original := fb.DataBox
	fb.DataBox = fb.ComputeDataBox()
	err := fb.Save(w)
	fb.DataBox = original
	return err
}

// Load reads a framebuffer previously written by Save/SaveCropped.
func Load(r io.Reader) (*Framebuffer, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != magicFBUF {
		return nil, fmt.Errorf("framebuffer: bad magic %q", magic)
	}

	var header [12]int32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	version := header[0]
	if version != fbufVersion {
		return nil, fmt.Errorf("framebuffer: unsupported version %d", version)
	}

	fb := &Framebuffer{
		Width: int(header[1]), Height: int(header[2]), Channels: int(header[3]),
		ViewBox: Box{int(header[4]), int(header[5]), int(header[6]), int(header[7])},
		DataBox: Box{int(header[8]), int(header[9]), int(header[10]), int(header[11])},
	}

	n := fb.Width * fb.Height * fb.Channels
	fb.Pixels = make([]float32, n)
	if err := binary.Read(r, binary.LittleEndian, fb.Pixels); err != nil {
		return nil, err
	}
	return fb, nil
}
