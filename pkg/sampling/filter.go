package sampling

import "math"

// FilterKind selects a reconstruction filter kernel.
type FilterKind int

const (
	FilterBox FilterKind = iota
	FilterGaussian
)

// Filter evaluates a reconstruction filter kernel over a pixel's
// sample-offset window: box is a constant 1 with no falloff, Gaussian is
// exp(-2*((2x/w_x)^2 + (2y/w_y)^2)) with width parameters giving the full
// filter extent in pixels.
type Filter struct {
	Kind           FilterKind
	XWidth, YWidth float64
}

// NewFilter constructs a filter of the given kind and pixel extent.
func NewFilter(kind FilterKind, xwidth, ywidth float64) Filter {
	return Filter{Kind: kind, XWidth: xwidth, YWidth: ywidth}
}

// Evaluate returns the filter's weight at offset (x, y) from the pixel
// center, in pixels.
func (f Filter) Evaluate(x, y float64) float64 {
	switch f.Kind {
	case FilterGaussian:
		a := 2 * x / f.XWidth
		b := 2 * y / f.YWidth
		return math.Exp(-2 * (a*a + b*b))
	default:
		return 1
	}
}
