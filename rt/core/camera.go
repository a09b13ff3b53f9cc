package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraState struct {
	Position    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Speed       float32
	Sensitivity float32

	FovY float32 // degrees
	Near float32
	Far  float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position:    mgl32.Vec3{0, 2, 12},
		Yaw:         0,
		Pitch:       0,
		Speed:       10.0,
		Sensitivity: 0.003,
		FovY:        60,
		Near:        0.1,
		Far:         500,
	}
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	// Y-up: Forward in XZ plane, Y for pitch. Yaw 0 looks down -Z.
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
	}
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	forward := c.GetForward()
	eye := c.Position
	target := eye.Add(forward)
	up := mgl32.Vec3{0, 1, 0}
	return mgl32.LookAtV(eye, target, up)
}

// GetProjectionMatrix returns a perspective projection with WebGPU's [0,1] clip depth.
func (c *CameraState) GetProjectionMatrix(width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	proj := mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
	return clipDepthZeroToOne.Mul4(proj)
}

// FrameCamera builds the per-frame camera snapshot consumed by renderers.
func (c *CameraState) FrameCamera(width, height int) FrameCamera {
	return NewFrameCamera(c.GetViewMatrix(), c.GetProjectionMatrix(width, height), c.Position, width, height)
}

// clipDepthZeroToOne remaps OpenGL's [-1,1] clip depth to [0,1].
var clipDepthZeroToOne = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// FrameCamera is an immutable view of the camera for one rendered frame.
// Right/Up/Front are the orthonormal world-space basis of the view.
type FrameCamera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	ProjView   mgl32.Mat4

	Position mgl32.Vec3
	Right    mgl32.Vec3
	Up       mgl32.Vec3
	Front    mgl32.Vec3

	Viewport [2]float32
}

// NewFrameCamera derives the camera basis from the rows of the view matrix.
func NewFrameCamera(view, proj mgl32.Mat4, pos mgl32.Vec3, width, height int) FrameCamera {
	right := mgl32.Vec3{view.At(0, 0), view.At(0, 1), view.At(0, 2)}
	up := mgl32.Vec3{view.At(1, 0), view.At(1, 1), view.At(1, 2)}
	back := mgl32.Vec3{view.At(2, 0), view.At(2, 1), view.At(2, 2)}
	return FrameCamera{
		View:       view,
		Projection: proj,
		ProjView:   proj.Mul4(view),
		Position:   pos,
		Right:      right,
		Up:         up,
		Front:      back.Mul(-1),
		Viewport:   [2]float32{float32(width), float32(height)},
	}
}
