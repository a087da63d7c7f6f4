package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/lumenray/lumen/pkg/accel"
	"github.com/lumenray/lumen/pkg/config"
	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/framebuffer"
	"github.com/lumenray/lumen/pkg/loaders"
	"github.com/lumenray/lumen/pkg/object"
	"github.com/lumenray/lumen/pkg/primset"
	"github.com/lumenray/lumen/pkg/render"
	"github.com/lumenray/lumen/pkg/shade"
)

// Options holds the command-line configuration for the renderer.
type Options struct {
	ConfigFile string
	SceneType  string
	Output     string
	PNGOutput  string
	Width      int
	Height     int
	Workers    int
	Accel      string
	Help       bool
	CPUProfile string
}

func main() {
	opts := parseFlags()
	if opts.Help {
		showHelp()
		return
	}

	if opts.CPUProfile != "" {
		f, err := os.Create(opts.CPUProfile)
		if err != nil {
			fmt.Printf("Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		cfg, err = config.Load(opts.ConfigFile)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	applyFlagOverrides(&cfg, opts)

	scene, err := createScene(cfg, opts)
	if err != nil {
		fmt.Printf("Error creating scene: %v\n", err)
		os.Exit(1)
	}

	startTime := time.Now()
	r := render.NewRenderer(scene, cfg.Sampling.ToSamplingParams(), cfg.NumWorkers, core.NewStdLogger())
	fb, err := r.Render(context.Background())
	if err != nil {
		fmt.Printf("Render failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render completed in %v\n", time.Since(startTime))

	if err := saveFramebuffer(fb, cfg.Output); err != nil {
		fmt.Printf("Save failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", cfg.Output)

	if opts.PNGOutput != "" {
		if err := savePNG(fb, opts.PNGOutput); err != nil {
			fmt.Printf("PNG save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Preview saved as %s\n", opts.PNGOutput)
	}
}

func parseFlags() Options {
	opts := Options{}
	flag.StringVar(&opts.ConfigFile, "config", "", "YAML render configuration file")
	flag.StringVar(&opts.SceneType, "scene", "", "Scene type or PLY file path (overrides config)")
	flag.StringVar(&opts.Output, "out", "", "Output framebuffer file (overrides config)")
	flag.StringVar(&opts.PNGOutput, "png", "", "Also write an 8-bit PNG preview")
	flag.IntVar(&opts.Width, "width", 0, "Image width (overrides config)")
	flag.IntVar(&opts.Height, "height", 0, "Image height (overrides config)")
	flag.IntVar(&opts.Workers, "workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	flag.StringVar(&opts.Accel, "accel", "bvh", "Surface accelerator: 'bvh' or 'grid'")
	flag.BoolVar(&opts.Help, "help", false, "Show help information")
	flag.StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	flag.Parse()
	return opts
}

func showHelp() {
	fmt.Println("lumen - a tiled distribution ray tracer")
	fmt.Println("Usage: lumen [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Built-in scenes:")
	fmt.Println("  default  - Lambert sphere on a ground plane under a quad light")
	fmt.Println("  mirror   - Reflective sphere between two diffuse spheres")
	fmt.Println("  volume   - Uniform-density cube volume over an opaque floor")
	fmt.Println("  Or use a direct PLY file path: assets/bunny.ply")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  lumen --scene=volume --width=640 --height=480")
	fmt.Println("  lumen --config=render.yaml --png=preview.png")
}

// applyFlagOverrides lets explicit command-line flags win over the config
// file.
func applyFlagOverrides(cfg *config.RenderConfig, opts Options) {
	if opts.SceneType != "" {
		cfg.Scene = opts.SceneType
	}
	if opts.Output != "" {
		cfg.Output = opts.Output
	}
	if opts.Width > 0 {
		cfg.Sampling.Width = opts.Width
	}
	if opts.Height > 0 {
		cfg.Sampling.Height = opts.Height
	}
	if opts.Workers != 0 {
		cfg.NumWorkers = opts.Workers
	}
	if cfg.Sampling.Height > 0 {
		cfg.Camera.AspectRatio = float64(cfg.Sampling.Width) / float64(cfg.Sampling.Height)
	}
}

func createScene(cfg config.RenderConfig, opts Options) (render.Scene, error) {
	cam := render.NewCamera(cfg.Camera.ToRenderCameraConfig())
	group := object.NewGroup()
	var lights []core.Light

	switch {
	case cfg.Scene == "" || cfg.Scene == "default":
		lights = defaultLights()
		buildDefaultScene(group, lights, opts.Accel)
	case cfg.Scene == "mirror":
		lights = defaultLights()
		buildMirrorScene(group, lights, opts.Accel)
	case cfg.Scene == "volume":
		lights = defaultLights()
		buildVolumeScene(group, lights, opts.Accel)
	case strings.HasSuffix(cfg.Scene, ".ply"):
		lights = defaultLights()
		if err := buildPLYScene(group, lights, cfg.Scene, opts.Accel); err != nil {
			return render.Scene{}, err
		}
	default:
		return render.Scene{}, fmt.Errorf("unknown scene %q", cfg.Scene)
	}

	return render.Scene{
		Camera:  cam,
		Objects: group,
		Lights:  lights,
		Shading: cfg.Shading.ToShadeConfig(),
	}, nil
}

func defaultLights() []core.Light {
	return []core.Light{
		&shade.QuadLight{
			Center:    core.NewVec3(0, 4, 0),
			U:         core.NewVec3(1, 0, 0),
			V:         core.NewVec3(0, 0, 1),
			Normal:    core.NewVec3(0, -1, 0),
			Color:     core.NewVec3(1, 1, 1),
			Intensity: 1,
			SampleN:   4,
		},
	}
}

// pickAccel builds the surface accelerator kind the -accel flag selected.
func pickAccel(kind string, prims primset.PrimitiveSet) accel.Accelerator {
	if kind == "grid" {
		return accel.NewGrid(prims)
	}
	return accel.NewBVH(prims)
}

func newSphereInstance(name string, center core.Vec3, radius float64, accelKind string) *object.Instance {
	set := primset.NewSphereSet(name, []core.Vec3{center}, []float64{radius}, nil)
	return object.NewSurfaceInstance(name, pickAccel(accelKind, set))
}

// newGroundInstance builds a large two-triangle floor quad at the given
// height.
func newGroundInstance(name string, y float64, accelKind string) *object.Instance {
	const ext = 50.0
	positions := []core.Vec3{
		{X: -ext, Y: y, Z: -ext}, {X: ext, Y: y, Z: -ext}, {X: ext, Y: y, Z: ext},
		{X: -ext, Y: y, Z: -ext}, {X: ext, Y: y, Z: ext}, {X: -ext, Y: y, Z: ext},
	}
	set, err := primset.NewTriangleSet(name, positions, nil, nil, nil, false)
	if err != nil {
		panic(err) // static geometry, cannot fail
	}
	return object.NewSurfaceInstance(name, pickAccel(accelKind, set))
}

func buildDefaultScene(group *object.Group, lights []core.Light, accelKind string) {
	sphere := newSphereInstance("sphere", core.NewVec3(0, 0, 0), 1, accelKind)
	sphere.SetShader(shade.LambertShader{Diffuse: core.NewVec3(0.8, 0.3, 0.3)})
	sphere.SetLights(lights)
	group.AddSurface(sphere)

	ground := newGroundInstance("ground", -1, accelKind)
	ground.SetShader(shade.LambertShader{Diffuse: core.NewVec3(0.6, 0.6, 0.6)})
	ground.SetLights(lights)
	group.AddSurface(ground)
}

func buildMirrorScene(group *object.Group, lights []core.Light, accelKind string) {
	center := newSphereInstance("mirror", core.NewVec3(0, 0, 0), 1, accelKind)
	center.SetShader(shade.ReflectiveShader{
		Diffuse: core.NewVec3(0.1, 0.1, 0.1),
		Reflect: core.NewVec3(0.9, 0.9, 0.9),
		IOR:     1.5,
	})
	center.SetLights(lights)
	group.AddSurface(center)

	left := newSphereInstance("left", core.NewVec3(-2.5, 0, -1), 1, accelKind)
	left.SetShader(shade.LambertShader{Diffuse: core.NewVec3(0.2, 0.4, 0.8)})
	left.SetLights(lights)
	group.AddSurface(left)

	right := newSphereInstance("right", core.NewVec3(2.5, 0, -1), 1, accelKind)
	right.SetShader(shade.LambertShader{Diffuse: core.NewVec3(0.8, 0.6, 0.2)})
	right.SetLights(lights)
	group.AddSurface(right)
}

func buildVolumeScene(group *object.Group, lights []core.Light, accelKind string) {
	bounds := core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
	vol := shade.UniformVolume{Bounds: bounds, Density: 1}
	volInst := object.NewVolumeInstance("fog", vol, bounds)
	volInst.SetShader(shade.ConstantShader{Color: core.NewVec3(0.9, 0.9, 0.9)})
	group.AddVolume(volInst)

	ground := newGroundInstance("ground", -1.5, accelKind)
	ground.SetShader(shade.LambertShader{Diffuse: core.NewVec3(0.5, 0.5, 0.5)})
	ground.SetLights(lights)
	group.AddSurface(ground)
}

func buildPLYScene(group *object.Group, lights []core.Light, path, accelKind string) error {
	mesh, err := loaders.LoadPLY(path)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), ".ply")
	var inst *object.Instance
	if len(mesh.Faces) > 0 {
		set, err := mesh.TriangleSet(name, false)
		if err != nil {
			return err
		}
		inst = object.NewSurfaceInstance(name, pickAccel(accelKind, set))
	} else {
		// a bare point cloud renders as small spheres
		inst = object.NewSurfaceInstance(name, pickAccel(accelKind, mesh.SphereSet(name, 0.01)))
	}
	inst.SetShader(shade.LambertShader{Diffuse: core.NewVec3(0.7, 0.7, 0.7)})
	inst.SetLights(lights)
	group.AddSurface(inst)

	ground := newGroundInstance("ground", 0, accelKind)
	ground.SetShader(shade.LambertShader{Diffuse: core.NewVec3(0.6, 0.6, 0.6)})
	ground.SetLights(lights)
	group.AddSurface(ground)
	return nil
}

func saveFramebuffer(fb *framebuffer.Framebuffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fb.SaveCropped(f)
}

// savePNG writes an 8-bit preview with a simple gamma-2 transfer.
func savePNG(fb *framebuffer.Framebuffer, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			px := fb.GetPixel(x, y)
			img.Set(x, fb.Height-1-y, color.RGBA{
				R: to8bit(px[0]),
				G: to8bit(px[1]),
				B: to8bit(px[2]),
				A: to8bit(px[3]),
			})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func to8bit(v float32) uint8 {
	g := math.Sqrt(float64(v))
	if g < 0 {
		g = 0
	}
	if g > 1 {
		g = 1
	}
	return uint8(g*255 + 0.5)
}
