package sparks

import (
	"fmt"

	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/sim"
	"github.com/google/uuid"
)

// ElementId is a stable handle to a scene element.
type ElementId string

func newElementId() ElementId {
	return ElementId(uuid.NewString())
}

// ElementKind tags which variant an Element carries.
type ElementKind uint8

const (
	KindEntity ElementKind = iota
	KindLight
	KindParticleEmitter
)

var kindNames = [...]string{
	KindEntity:          "entity",
	KindLight:           "light",
	KindParticleEmitter: "particle_emitter",
}

func (k ElementKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ElementKind(%d)", k)
}

func (k ElementKind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown element kind %d", k)
	}
	return []byte(kindNames[k]), nil
}

func (k *ElementKind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = ElementKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown element kind %q", text)
}

type LightType uint32

const (
	LightTypePoint       LightType = 0
	LightTypeDirectional LightType = 1
	LightTypeSpot        LightType = 2
	LightTypeAmbient     LightType = 3
)

// Light is carried by KindLight elements. Lighting itself is done by other
// renderers; the scene only places it.
type Light struct {
	Type      LightType  `json:"type"`
	Color     [3]float32 `json:"color"`
	Intensity float32    `json:"intensity"`
	Range     float32    `json:"range"`
	ConeAngle float32    `json:"cone_angle"` // full cone angle in degrees (spot)
}

// Element is one node of the scene tree. Exactly one of the variant fields
// is meaningful, selected by Kind.
type Element struct {
	Id     ElementId
	Name   string
	Kind   ElementKind
	Parent ElementId

	Local core.Transform
	World core.Transform

	// KindEntity
	Model string
	// KindLight
	Light *Light
	// KindParticleEmitter
	Emitter *sim.Emitter
}

// Tick advances whatever the element simulates.
func (e *Element) Tick(dt float32) {
	switch e.Kind {
	case KindParticleEmitter:
		if e.Emitter != nil {
			e.Emitter.Tick(dt)
		}
	case KindEntity, KindLight:
	}
}

// applyWorld pushes the freshly computed world transform into the variant.
func (e *Element) applyWorld() {
	switch e.Kind {
	case KindParticleEmitter:
		if e.Emitter != nil {
			e.Emitter.Transform = e.World.ObjectToWorld()
		}
	case KindEntity, KindLight:
	}
}
