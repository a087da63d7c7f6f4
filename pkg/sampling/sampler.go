// Package sampling implements the tiled stratified sampling pipeline:
// Sampler, Filter, and Tiler.
package sampling

import (
	"fmt"
	"math"
	"math/rand"
)

// Sample is one screen-space sample: (u, v) in [0,1]^2, a shading time,
// and the four-channel output the kernel fills in after tracing.
type Sample struct {
	U, V float64
	Time float64
	Data [4]float64
}

// Rectangle is a pixel-space rectangle, [XMin, XMax) x [YMin, YMax).
type Rectangle struct {
	XMin, YMin, XMax, YMax int
}

func (r Rectangle) width() int  { return r.XMax - r.XMin }
func (r Rectangle) height() int { return r.YMax - r.YMin }

// Sampler generates per-tile stratified samples over the full image
// resolution's [0,1]^2 parameter space. Each tile's grid is expanded by a
// filter margin on every side so neighbouring pixels can reconstruct
// within filter support. Sample times are uniform over the configured
// range when time sampling is enabled, else 0.
type Sampler struct {
	xres, yres   int
	xrate, yrate int
	xfwidth      float64
	yfwidth      float64
	jitter       float64

	xmargin, ymargin     int
	xnpxlsmps, ynpxlsmps int

	timeSampling      bool
	timeStart, timeEnd float64

	xnsamples, ynsamples      int
	xpixelStart, ypixelStart  int
	samples                   []Sample
	cursor                    int

	rng     *rand.Rand
	rngTime *rand.Rand
}

// NewSampler constructs a sampler for an image of size xres x yres, xrate
// x yrate samples per pixel, and a reconstruction filter of size xfwidth x
// yfwidth in pixels. Jitter and time sampling start enabled.
func NewSampler(xres, yres, xrate, yrate int, xfwidth, yfwidth float64) *Sampler {
	s := &Sampler{
		xres: xres, yres: yres,
		xrate: xrate, yrate: yrate,
		xfwidth: xfwidth, yfwidth: yfwidth,
		jitter:       1,
		timeSampling: true,
		timeStart:    0,
		timeEnd:      1,
		rng:          rand.New(rand.NewSource(1)),
		rngTime:      rand.New(rand.NewSource(2)),
	}
	s.computeMargins()
	return s
}

// SetJitter sets the jitter amount in [0,1]; 0 disables jitter and the
// stratum centers are used exactly.
func (s *Sampler) SetJitter(jitter float64) { s.jitter = jitter }

// SetSampleTimeRange configures the range sample times are drawn from when
// time sampling is enabled.
func (s *Sampler) SetSampleTimeRange(start, end float64) {
	s.timeStart, s.timeEnd = start, end
}

// SetTimeSamplingEnabled toggles whether samples draw a time within
// [timeStart, timeEnd] (true) or always sample at time 0 (false).
func (s *Sampler) SetTimeSamplingEnabled(enabled bool) { s.timeSampling = enabled }

// SetRNG overrides the sampler's jitter/time random sources — used by
// pkg/render to seed each tile's streams from its tile id.
func (s *Sampler) SetRNG(jitterRNG, timeRNG *rand.Rand) {
	s.rng, s.rngTime = jitterRNG, timeRNG
}

func (s *Sampler) computeMargins() {
	s.xmargin = int(math.Ceil((s.xfwidth - 1) * float64(s.xrate) * 0.5))
	s.ymargin = int(math.Ceil((s.yfwidth - 1) * float64(s.yrate) * 0.5))
	s.xnpxlsmps = s.xrate + 2*s.xmargin
	s.ynpxlsmps = s.yrate + 2*s.ymargin
}

// SampleCountForPixel returns the number of samples a single pixel's
// reconstruction window covers.
func (s *Sampler) SampleCountForPixel() int { return s.xnpxlsmps * s.ynpxlsmps }

// GenerateSamples allocates and fills the stratified sample grid for
// region, expanded by the filter margin on every side. Samples are
// generated once per tile and consumed in emission order by
// GetNextSample.
func (s *Sampler) GenerateSamples(region Rectangle) error {
	if region.width() <= 0 || region.height() <= 0 {
		return fmt.Errorf("sampling: empty region %+v", region)
	}

	s.xnsamples = s.xrate*region.width() + 2*s.xmargin
	s.ynsamples = s.yrate*region.height() + 2*s.ymargin
	s.xpixelStart = region.XMin
	s.ypixelStart = region.YMin

	s.samples = make([]Sample, s.xnsamples*s.ynsamples)
	s.cursor = 0

	udelta := 1.0 / (float64(s.xrate*s.xres) + 2*float64(s.xmargin))
	vdelta := 1.0 / (float64(s.yrate*s.yres) + 2*float64(s.ymargin))

	xoffset := s.xpixelStart*s.xrate - s.xmargin
	yoffset := s.ypixelStart*s.yrate - s.ymargin

	i := 0
	for y := 0; y < s.ynsamples; y++ {
		for x := 0; x < s.xnsamples; x++ {
			sample := &s.samples[i]
			sample.U = (0.5 + float64(x+xoffset)) * udelta
			sample.V = 1 - (0.5+float64(y+yoffset))*vdelta

			if s.jitter > 0 {
				uJitter := s.rng.Float64() * s.jitter
				vJitter := s.rng.Float64() * s.jitter
				sample.U += udelta * (uJitter - 0.5)
				sample.V += vdelta * (vJitter - 0.5)
			}

			if s.timeSampling {
				sample.Time = s.timeStart + s.rngTime.Float64()*(s.timeEnd-s.timeStart)
			} else {
				sample.Time = 0
			}

			i++
		}
	}
	return nil
}

// GetNextSample returns the next unconsumed sample in emission order, or
// (nil, false) once the tile's samples are exhausted.
func (s *Sampler) GetNextSample() (*Sample, bool) {
	if s.cursor >= len(s.samples) {
		return nil, false
	}
	sample := &s.samples[s.cursor]
	s.cursor++
	return sample, true
}

// GetPixelSamples copies the reconstruction window of samples covering
// pixel (x, y) into out, which must have length SampleCountForPixel().
func (s *Sampler) GetPixelSamples(x, y int, out []Sample) {
	xPixelOffset := x - s.xpixelStart
	yPixelOffset := y - s.ypixelStart
	offset := yPixelOffset*s.yrate*s.xnsamples + xPixelOffset*s.xrate

	for row := 0; row < s.ynpxlsmps; row++ {
		srcStart := offset + row*s.xnsamples
		dstStart := row * s.xnpxlsmps
		copy(out[dstStart:dstStart+s.xnpxlsmps], s.samples[srcStart:srcStart+s.xnpxlsmps])
	}
}

// ReconstructionOffsets returns, for every column/row of the window
// GetPixelSamples fills, that sample's offset from the pixel center in
// pixel units: the filter weight for a window entry is
// filter(xOffsets[col], yOffsets[row]). The two slices are independent of
// which pixel is being reconstructed (every pixel's window has the same
// shape), so a caller reconstructing a whole tile computes them once.
func (s *Sampler) ReconstructionOffsets() (xOffsets, yOffsets []float64) {
	xOffsets = make([]float64, s.xnpxlsmps)
	for col := range xOffsets {
		xOffsets[col] = (float64(col-s.xmargin)+0.5)/float64(s.xrate) - 0.5
	}
	yOffsets = make([]float64, s.ynpxlsmps)
	for row := range yOffsets {
		yOffsets[row] = (float64(row-s.ymargin)+0.5)/float64(s.yrate) - 0.5
	}
	return xOffsets, yOffsets
}
