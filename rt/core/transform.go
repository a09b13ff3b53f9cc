package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a translation/rotation/scale triple.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

func (t Transform) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T)
	invScale := mgl32.Scale3D(safeInv(t.Scale.X()), safeInv(t.Scale.Y()), safeInv(t.Scale.Z()))
	invRotate := t.Rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// Compose returns the world transform of a child with local transform t under parent.
// Components are propagated directly to keep scale signs (reflections).
func (t Transform) Compose(parent Transform) Transform {
	// WorldPos = ParentPos + ParentRot * (ParentScale * LocalPos)
	scaledLocalPos := mgl32.Vec3{
		t.Position.X() * parent.Scale.X(),
		t.Position.Y() * parent.Scale.Y(),
		t.Position.Z() * parent.Scale.Z(),
	}
	return Transform{
		Position: parent.Position.Add(parent.Rotation.Rotate(scaledLocalPos)),
		Rotation: parent.Rotation.Mul(t.Rotation).Normalize(),
		Scale: mgl32.Vec3{
			parent.Scale.X() * t.Scale.X(),
			parent.Scale.Y() * t.Scale.Y(),
			parent.Scale.Z() * t.Scale.Z(),
		},
	}
}

func safeInv(v float32) float32 {
	if v == 0 {
		return 0
	}
	return 1.0 / v
}
