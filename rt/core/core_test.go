package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTransformComposition(t *testing.T) {
	tr := NewTransform()
	tr.Position = mgl32.Vec3{10, 20, 30}
	tr.Scale = mgl32.Vec3{2, 2, 2}

	o2w := tr.ObjectToWorld()
	w2o := tr.WorldToObject()

	// Test that they are inverses
	identity := o2w.Mul4(w2o)

	for i := 0; i < 4; i++ {
		if !closeEnough(identity.At(i, i), 1.0, 0.001) {
			t.Errorf("Identity matrix element [%d,%d] should be 1.0, got %f", i, i, identity.At(i, i))
		}
	}
}

func TestTransformComposeWithParent(t *testing.T) {
	parent := NewTransform()
	parent.Position = mgl32.Vec3{10, 0, 0}
	parent.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})

	child := NewTransform()
	child.Position = mgl32.Vec3{1, 0, 0}

	world := child.Compose(parent)
	want := mgl32.Vec3{10, 1, 0}
	if !world.Position.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("Child world position: expected %v, got %v", want, world.Position)
	}
}

func TestFrameCameraBasisIsOrthonormal(t *testing.T) {
	cam := NewCameraState()
	cam.Yaw = 0.7
	cam.Pitch = -0.3

	fc := cam.FrameCamera(1280, 720)

	for name, v := range map[string]mgl32.Vec3{"right": fc.Right, "up": fc.Up, "front": fc.Front} {
		if !closeEnough(v.Len(), 1, 1e-4) {
			t.Errorf("%s should be unit length, got %f", name, v.Len())
		}
	}
	if !closeEnough(fc.Right.Dot(fc.Up), 0, 1e-4) || !closeEnough(fc.Right.Dot(fc.Front), 0, 1e-4) {
		t.Errorf("basis is not orthogonal: right=%v up=%v front=%v", fc.Right, fc.Up, fc.Front)
	}
	if !fc.Front.ApproxEqualThreshold(cam.GetForward().Normalize(), 1e-4) {
		t.Errorf("front %v should match camera forward %v", fc.Front, cam.GetForward())
	}
	if fc.Viewport != [2]float32{1280, 720} {
		t.Errorf("unexpected viewport %v", fc.Viewport)
	}
}

func TestProjectionMapsNearPlaneToZeroDepth(t *testing.T) {
	cam := NewCameraState()
	cam.Position = mgl32.Vec3{}
	proj := cam.GetProjectionMatrix(100, 100)

	// A point on the near plane straight ahead in view space (-Z).
	clip := proj.Mul4x1(mgl32.Vec4{0, 0, -cam.Near, 1})
	if !closeEnough(clip.Z()/clip.W(), 0, 1e-4) {
		t.Errorf("near plane depth should be 0, got %f", clip.Z()/clip.W())
	}
	clip = proj.Mul4x1(mgl32.Vec4{0, 0, -cam.Far, 1})
	if !closeEnough(clip.Z()/clip.W(), 1, 1e-3) {
		t.Errorf("far plane depth should be 1, got %f", clip.Z()/clip.W())
	}
}

func TestRandomRange(t *testing.T) {
	r := NewRandom(42)
	for i := 0; i < 1000; i++ {
		v := r.Range(-2, 3)
		if v < -2 || v >= 3 {
			t.Fatalf("value %f out of range", v)
		}
	}
	if got := r.Range(5, 1); got != 5 {
		t.Errorf("inverted range should yield lower bound 5, got %f", got)
	}
	if got := r.Range(4, 4); got != 4 {
		t.Errorf("empty range should yield 4, got %f", got)
	}
}

func TestRandomIsDeterministicPerSeed(t *testing.T) {
	a, b := NewRandom(7), NewRandom(7)
	for i := 0; i < 32; i++ {
		if a.Float32() != b.Float32() {
			t.Fatal("same seed must produce the same sequence")
		}
	}
	if NewRandom(7).Float32() == NewRandom(8).Float32() {
		t.Error("different seeds should diverge")
	}
}

func TestLifeRatio(t *testing.T) {
	p := Particle{TotalLife: 2, LifeRemaining: 2}
	if p.LifeRatio() != 0 {
		t.Errorf("fresh particle ratio should be 0, got %f", p.LifeRatio())
	}
	p.LifeRemaining = 0.5
	if !closeEnough(p.LifeRatio(), 0.75, 1e-6) {
		t.Errorf("expected 0.75, got %f", p.LifeRatio())
	}
	p.LifeRemaining = -1
	if p.LifeRatio() != 1 {
		t.Errorf("expired particle ratio should clamp to 1, got %f", p.LifeRatio())
	}
	p.TotalLife = 0
	if p.LifeRatio() != 1 {
		t.Errorf("zero total life should report 1, got %f", p.LifeRatio())
	}
}

func closeEnough(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
