package shade

import (
	"math"
	"math/rand"

	"github.com/lumenray/lumen/pkg/core"
)

// PointLight is a zero-area light: a single sample at its position with
// zero normal. Illuminate returns intensity*color unattenuated by distance
// or angle; falloff is the shader's business.
type PointLight struct {
	P         core.Vec3
	Color     core.Vec3
	Intensity float64
}

var _ core.Light = (*PointLight)(nil)

func (l *PointLight) SampleCount() int { return 1 }

func (l *PointLight) GenerateSamples(out []core.LightSample) {
	if len(out) == 0 {
		return
	}
	out[0] = core.LightSample{P: l.P, N: core.Vec3{}}
}

func (l *PointLight) Illuminate(sample core.LightSample, shadingPoint core.Vec3) core.Vec3 {
	return l.Color.Multiply(l.Intensity)
}

func (l *PointLight) Preprocess() {}

// QuadLight is a one-sided (or double-sided) rectangular area light.
// Samples are drawn uniformly over the quad; Illuminate weights each by
// intensity/sample_count and by max(0, dot(Ln, N)), or abs of the dot when
// double-sided.
type QuadLight struct {
	Center      core.Vec3
	U, V        core.Vec3 // half-extent edge vectors in world space
	Normal      core.Vec3
	Color       core.Vec3
	Intensity   float64
	SampleN     int
	DoubleSided bool
	Rng         *rand.Rand
}

var _ core.Light = (*QuadLight)(nil)

func (l *QuadLight) SampleCount() int {
	if l.SampleN < 1 {
		return 1
	}
	return l.SampleN
}

func (l *QuadLight) GenerateSamples(out []core.LightSample) {
	n := l.SampleCount()
	if len(out) < n {
		n = len(out)
	}
	rng := l.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	for i := 0; i < n; i++ {
		x := rng.Float64()*2 - 1
		z := rng.Float64()*2 - 1
		p := l.Center.Add(l.U.Multiply(x)).Add(l.V.Multiply(z))
		out[i] = core.LightSample{P: p, N: l.Normal}
	}
}

func (l *QuadLight) Illuminate(sample core.LightSample, shadingPoint core.Vec3) core.Vec3 {
	toPoint := shadingPoint.Subtract(sample.P).Normalize()
	dot := toPoint.Dot(sample.N)
	if l.DoubleSided {
		dot = math.Abs(dot)
	} else if dot < 0 {
		dot = 0
	}

	sampleIntensity := l.Intensity / float64(l.SampleCount())
	return l.Color.Multiply(sampleIntensity * dot)
}

func (l *QuadLight) Preprocess() {}
