// Package render is a small rendering API indexed by the integration tests.
package render

import "errors"

// MaxLights is the number of lights a scene may hold
const MaxLights = 8

// Projection selects how a camera maps the scene to the screen
type Projection int

const (
	// Perspective projection
	Perspective Projection = iota
	// Orthographic projection
	Orthographic
)

// Vec3 is a three component vector
type Vec3 struct {
	X, Y, Z float64
}

// Dot returns the dot product of v and o
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Camera views a scene
type Camera struct {
	// Position of the camera in world space
	Position   Vec3
	Projection Projection
	fov        float64
}

// NewCamera creates a camera at the origin
func NewCamera(fov float64) *Camera {
	return &Camera{fov: fov}
}

// LookAt turns the camera towards target
func (c *Camera) LookAt(target Vec3) {
	c.Position = target
}

// FieldOfView returns the horizontal field of view in degrees
func (c *Camera) FieldOfView() float64 {
	return c.fov
}

// Renderer draws scenes
type Renderer interface {
	// Draw renders one frame through cam
	Draw(cam *Camera) error
}

// DrawCallback is invoked after every frame
type DrawCallback func(frame int) error

// DefaultCamera is used when a scene has no camera
var DefaultCamera = NewCamera(90)

// ErrNoCamera is returned when nothing can be rendered
var ErrNoCamera = errors.New("no camera")

// Render draws a frame with r, falling back to DefaultCamera
func Render(r Renderer, cam *Camera) error {
	if cam == nil {
		cam = DefaultCamera
	}
	return r.Draw(cam)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
