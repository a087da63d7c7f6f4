package render

import (
	"math"

	"github.com/lumenray/lumen/pkg/core"
)

// CameraConfig describes the pinhole camera a Renderer shoots its primary
// rays from.
type CameraConfig struct {
	Center      core.Vec3
	LookAt      core.Vec3
	Up          core.Vec3
	VFov        float64 // vertical field of view, degrees
	AspectRatio float64
}

// Camera generates primary rays for screen-space coordinates in [0,1]^2:
// u runs left-to-right, v bottom-to-top.
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
}

// NewCamera builds a Camera from config: vertical FOV plus aspect ratio
// determines the viewport, one unit from the eye along the look
// direction.
func NewCamera(config CameraConfig) *Camera {
	theta := config.VFov * math.Pi / 180
	halfHeight := math.Tan(theta / 2)
	halfWidth := config.AspectRatio * halfHeight

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(2 * halfWidth)
	vertical := v.Multiply(2 * halfHeight)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w)

	return &Camera{
		origin:          config.Center,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
	}
}

// Ray returns the primary ray through screen-space (u, v), normalized to
// unit length before it enters the tracing kernel.
func (c *Camera) Ray(u, v float64) core.Ray {
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(u)).
		Add(c.vertical.Multiply(v)).
		Subtract(c.origin)
	return core.NewRay(c.origin, direction.Normalize())
}
