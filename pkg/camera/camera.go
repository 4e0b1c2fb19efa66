// Package camera provides an orbit camera that produces the view volumes
// used for culling queries: a frustum for visibility and a pick segment
// for screen-space selection.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
)

// OrbitCamera orbits around a center point. Y is up.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians above the XZ plane
	Yaw      float32 // radians around Y

	// Projection
	FovY   float32 // radians
	Aspect float32 // width / height
	Near   float32
	Far    float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:    200,
		Pitch:       0.5,
		FovY:        math32.Pi / 3,
		Aspect:      16.0 / 9.0,
		Near:        1,
		Far:         5000,
		MinDistance: 1,
		MaxDistance: 100000,
		MinPitch:    -1.5,
		MaxPitch:    1.5,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sp, cp := math32.Sincos(c.Pitch)
	sy, cy := math32.Sincos(c.Yaw)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cp * sy,
		Y: c.Distance * sp,
		Z: c.Distance * cp * cy,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection.
func (c *OrbitCamera) ProjectionMatrix() math.Mat4 {
	return math.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// Frustum returns the world-space view volume.
func (c *OrbitCamera) Frustum() geom.Frustum {
	return geom.NewFrustum(c.ViewProjection())
}

// Orbit rotates the camera around its center. Pitch is clamped.
func (c *OrbitCamera) Orbit(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch = min(max(c.Pitch+deltaPitch, c.MinPitch), c.MaxPitch)
}

// Zoom scales the distance by (1 - delta), clamped to the distance limits.
func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance -= delta * c.Distance
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}

// FitToBounds centers the camera on b and backs off until the bounding
// sphere of b fits the narrower of the two fields of view. Far is pushed out
// to cover the whole box.
func (c *OrbitCamera) FitToBounds(b geom.AABox) {
	c.Center = b.Center
	radius := b.Extent.Length()
	if radius == 0 {
		radius = 1
	}
	half := c.FovY / 2
	half = min(half, math32.Atan(math32.Tan(half)*c.Aspect))
	c.Distance = min(max(radius/math32.Sin(half), c.MinDistance), c.MaxDistance)
	c.Far = max(c.Far, c.Distance+radius)
}

// PickSegment converts a pixel position to the world-space segment running
// from the near plane to the far plane under that pixel.
func (c *OrbitCamera) PickSegment(screenX, screenY, viewportW, viewportH float32) geom.LineSeg {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // Flip Y

	inv := c.ViewProjection().Inverse()
	return geom.LineSeg{
		P0: inv.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: -1}),
		P1: inv.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: 1}),
	}
}
