// Package render orchestrates a render: light preprocessing, top-level
// accelerator build, tile generation, and per-tile
// sampling/tracing/reconstruction, producing a pkg/framebuffer.Framebuffer.
// Tiles are distributed over a channel-fed pool of goroutines, each owning
// its own sampler, filter, and RNG streams.
package render

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/framebuffer"
	"github.com/lumenray/lumen/pkg/object"
	"github.com/lumenray/lumen/pkg/sampling"
	"github.com/lumenray/lumen/pkg/shade"
)

// Scene bundles everything a Renderer needs to trace an image: the
// camera, the all-objects group every trace context defaults to, the full
// light list, and the tracing kernel's configuration.
type Scene struct {
	Camera  *Camera
	Objects *object.Group
	Lights  []core.Light
	Shading shade.Config
}

// SamplingParams is the renderer-wide sampling and reconstruction
// configuration: image resolution, tile size, samples-per-pixel rate,
// reconstruction filter, jitter amount, and the time-sampling range.
type SamplingParams struct {
	Width, Height        int
	TileSize             int
	SamplesX, SamplesY   int
	Filter               sampling.Filter
	Jitter               float64
	TimeSamplingEnabled  bool
	TimeStart, TimeEnd   float64
}

// DefaultSamplingParams returns the renderer's built-in defaults: 320x240,
// 3x3 samples, 64x64 tiles, a 2x2 box filter, jitter on, time sampling on
// over [0,1].
func DefaultSamplingParams() SamplingParams {
	return SamplingParams{
		Width: 320, Height: 240,
		TileSize: 64,
		SamplesX: 3, SamplesY: 3,
		Filter:              sampling.NewFilter(sampling.FilterBox, 2, 2),
		Jitter:              1,
		TimeSamplingEnabled: true,
		TimeStart:           0,
		TimeEnd:             1,
	}
}

// Renderer renders one Scene into a Framebuffer.
type Renderer struct {
	scene      Scene
	sampling   SamplingParams
	numWorkers int
	logger     core.Logger
}

// NewRenderer constructs a Renderer. numWorkers <= 0 auto-detects the CPU
// count; logger defaults to a no-op logger if nil.
func NewRenderer(scene Scene, sampling SamplingParams, numWorkers int, logger core.Logger) *Renderer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Renderer{scene: scene, sampling: sampling, numWorkers: numWorkers, logger: logger}
}

// tileTask is one unit of work a render worker pulls off the shared
// channel, tagged with a uuid so log lines and any future distributed
// dispatch can correlate a task with its result; the plain int tile id
// collides across concurrent renders.
type tileTask struct {
	id   uuid.UUID
	tile sampling.Tile
}

// Render validates the scene, preprocesses lights, builds the top-level
// accelerators, then traces and reconstructs every tile. The returned
// Framebuffer is always sized to the renderer's configured resolution; on
// a validation error no Framebuffer is returned.
func (r *Renderer) Render(ctx context.Context) (*framebuffer.Framebuffer, error) {
	if r.scene.Camera == nil {
		return nil, fmt.Errorf("render: scene has no camera")
	}
	if r.sampling.Width <= 0 || r.sampling.Height <= 0 {
		return nil, fmt.Errorf("render: invalid framebuffer size %dx%d", r.sampling.Width, r.sampling.Height)
	}
	if r.scene.Objects == nil {
		return nil, fmt.Errorf("render: scene has no object group")
	}

	fb := framebuffer.New(r.sampling.Width, r.sampling.Height, 4)

	// Light preprocessing must complete before any sample is integrated.
	for _, light := range r.scene.Lights {
		light.Preprocess()
	}

	// Build up front rather than lazily racing workers against the first
	// trace; Group.Build is idempotent.
	r.scene.Objects.Build()
	tiler := sampling.NewTiler(r.sampling.Width, r.sampling.Height, r.sampling.TileSize, r.sampling.TileSize)
	tiles := tiler.GenerateTiles(sampling.Rectangle{XMin: 0, YMin: 0, XMax: r.sampling.Width, YMax: r.sampling.Height})

	numWorkers := r.numWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(tiles) {
		numWorkers = len(tiles)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	tasks := make(chan tileTask, len(tiles))
	for _, t := range tiles {
		tasks <- tileTask{id: uuid.New(), tile: t}
	}
	close(tasks)

	errs := make(chan error, numWorkers)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			worker := newTileWorker(workerID, r.sampling)
			for task := range tasks {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if err := worker.renderTile(task.tile, r.scene, fb); err != nil {
					errs <- fmt.Errorf("render: tile %s (%d): %w", task.id, task.tile.ID, err)
					return
				}
				r.logger.Printf("render: tile %d/%d done (worker %d, job %s)", task.tile.ID+1, len(tiles), workerID, task.id)
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return fb, err
	}
	if ctx.Err() != nil {
		return fb, ctx.Err()
	}
	return fb, nil
}

// tileWorker owns one goroutine's private sampler, filter, and RNG
// streams. Reused across every tile the worker is handed, since a
// Sampler's internal sample buffer is reallocated per GenerateSamples call.
// Its RNG streams are reseeded from each tile's id before sampling, so
// per-tile results are reproducible regardless of which worker renders a
// tile or in what order.
type tileWorker struct {
	sampler *sampling.Sampler
	filter  sampling.Filter
}

func newTileWorker(workerID int, params SamplingParams) *tileWorker {
	smp := sampling.NewSampler(params.Width, params.Height, params.SamplesX, params.SamplesY, params.Filter.XWidth, params.Filter.YWidth)
	smp.SetJitter(params.Jitter)
	smp.SetSampleTimeRange(params.TimeStart, params.TimeEnd)
	smp.SetTimeSamplingEnabled(params.TimeSamplingEnabled)
	// Initial jitter/time streams, seeded off the worker id; renderTile
	// reseeds them per tile.
	jitterRNG := rand.New(rand.NewSource(int64(workerID)*2 + 1))
	timeRNG := rand.New(rand.NewSource(int64(workerID)*2 + 2))
	smp.SetRNG(jitterRNG, timeRNG)
	return &tileWorker{sampler: smp, filter: params.Filter}
}

// renderTile generates the tile's stratified samples, traces each through
// the kernel, then reconstructs every pixel in the tile by the configured
// filter. The framebuffer is written only within [tile.XMin,tile.XMax) x
// [tile.YMin,tile.YMax), disjoint across tiles, so no synchronization is
// needed on fb itself.
func (w *tileWorker) renderTile(tile sampling.Tile, scene Scene, fb *framebuffer.Framebuffer) error {
	region := sampling.Rectangle{XMin: tile.XMin, YMin: tile.YMin, XMax: tile.XMax, YMax: tile.YMax}
	// Seed from the tile id so a tile's samples do not depend on which
	// worker renders it or how many tiles that worker rendered before.
	w.sampler.SetRNG(rand.New(rand.NewSource(int64(tile.ID)*2+1)), rand.New(rand.NewSource(int64(tile.ID)*2+2)))
	if err := w.sampler.GenerateSamples(region); err != nil {
		return err
	}

	for {
		sample, ok := w.sampler.GetNextSample()
		if !ok {
			break
		}
		ray := scene.Camera.Ray(sample.U, sample.V)
		traceCtx := shade.NewCameraContext(scene.Objects, scene.Lights, scene.Shading, sample.Time)
		rgba, _ := shade.Trace(traceCtx, ray)
		sample.Data = [4]float64{rgba.R, rgba.G, rgba.B, rgba.A}
	}

	xOffsets, yOffsets := w.sampler.ReconstructionOffsets()
	pixelSamples := make([]sampling.Sample, w.sampler.SampleCountForPixel())
	pixel := make([]float32, fb.Channels)

	for y := tile.YMin; y < tile.YMax; y++ {
		for x := tile.XMin; x < tile.XMax; x++ {
			w.sampler.GetPixelSamples(x, y, pixelSamples)

			var accum [4]float64
			var weightSum float64
			i := 0
			for _, yOff := range yOffsets {
				for _, xOff := range xOffsets {
					weight := w.filter.Evaluate(xOff, yOff)
					s := pixelSamples[i]
					i++
					accum[0] += s.Data[0] * weight
					accum[1] += s.Data[1] * weight
					accum[2] += s.Data[2] * weight
					accum[3] += s.Data[3] * weight
					weightSum += weight
				}
			}

			if weightSum > 0 {
				for c := 0; c < 4; c++ {
					accum[c] /= weightSum
				}
			}
			for c := 0; c < fb.Channels && c < 4; c++ {
				pixel[c] = float32(accum[c])
			}
			fb.SetPixel(x, y, pixel)
		}
	}
	return nil
}
