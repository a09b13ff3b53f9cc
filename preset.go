package sparks

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/sim"
	"github.com/go-gl/mathgl/mgl32"
)

type ElementData struct {
	ID       ElementId    `json:"id"`
	Name     string       `json:"name,omitempty"`
	Kind     ElementKind  `json:"kind"`
	ParentID ElementId    `json:"parent_id,omitempty"`
	Position mgl32.Vec3   `json:"position"`
	Rotation mgl32.Quat   `json:"rotation"`
	Scale    mgl32.Vec3   `json:"scale"`
	Model    string       `json:"model_path,omitempty"`
	Light    *Light       `json:"light,omitempty"`
	Emitter  *EmitterData `json:"emitter,omitempty"`
}

// EmitterData is the persisted part of an emitter. Live particles are not
// saved; a loaded emitter starts empty.
type EmitterData struct {
	Enabled bool              `json:"enabled"`
	Config  sim.EmitterConfig `json:"config"`
}

type PresetData struct {
	Elements []ElementData `json:"elements"`
}

// MarshalScene encodes every element of the scene, in creation order.
func MarshalScene(scene *Scene) ([]byte, error) {
	var preset PresetData
	for _, el := range scene.Elements() {
		data := ElementData{
			ID:       el.Id,
			Name:     el.Name,
			Kind:     el.Kind,
			ParentID: el.Parent,
			Position: el.Local.Position,
			Rotation: el.Local.Rotation,
			Scale:    el.Local.Scale,
		}
		switch el.Kind {
		case KindEntity:
			data.Model = el.Model
		case KindLight:
			data.Light = el.Light
		case KindParticleEmitter:
			data.Emitter = &EmitterData{Enabled: el.Emitter.Enabled, Config: el.Emitter.Config}
		}
		preset.Elements = append(preset.Elements, data)
	}
	return json.MarshalIndent(preset, "", "  ")
}

func SaveScene(scene *Scene, filename string) error {
	bytes, err := MarshalScene(scene)
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if err := os.WriteFile(filename, bytes, 0644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}

// UnmarshalScene adds the encoded elements to scene under fresh ids and
// returns them in file order. Parent links are restored after every element
// exists, so the file order does not matter.
func UnmarshalScene(scene *Scene, bytes []byte) ([]ElementId, error) {
	var preset PresetData
	if err := json.Unmarshal(bytes, &preset); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}

	idMap := make(map[ElementId]ElementId, len(preset.Elements))
	var created []ElementId
	for _, data := range preset.Elements {
		local := core.Transform{Position: data.Position, Rotation: data.Rotation, Scale: data.Scale}
		if local.Rotation == (mgl32.Quat{}) {
			local.Rotation = mgl32.QuatIdent()
		}
		if local.Scale == (mgl32.Vec3{}) {
			local.Scale = mgl32.Vec3{1, 1, 1}
		}

		var el *Element
		switch data.Kind {
		case KindEntity:
			el = scene.AddEntity(data.Name, local, data.Model)
		case KindLight:
			var light Light
			if data.Light != nil {
				light = *data.Light
			}
			el = scene.AddLight(data.Name, local, light)
		case KindParticleEmitter:
			emitter := EmitterData{Enabled: true, Config: sim.DefaultEmitterConfig()}
			if data.Emitter != nil {
				emitter = *data.Emitter
			}
			el = scene.AddEmitter(data.Name, local, emitter.Config)
			el.Emitter.Enabled = emitter.Enabled
		default:
			return created, fmt.Errorf("decode scene: element %s has unknown kind %v", data.ID, data.Kind)
		}
		if data.ID != "" {
			idMap[data.ID] = el.Id
		}
		created = append(created, el.Id)
	}

	for i, data := range preset.Elements {
		if data.ParentID == "" {
			continue
		}
		parent, ok := idMap[data.ParentID]
		if !ok {
			scene.logger.Warnf("element %s refers to missing parent %s", data.ID, data.ParentID)
			continue
		}
		if err := scene.SetParent(created[i], parent); err != nil {
			return created, fmt.Errorf("decode scene: %w", err)
		}
	}
	scene.UpdateTransforms()
	return created, nil
}

func LoadScene(scene *Scene, filename string) ([]ElementId, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return UnmarshalScene(scene, bytes)
}
