package sparks

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gekko3d/sparks/rt/assets"
	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/sim"
)

var (
	ErrUnknownElement = errors.New("unknown element")
	ErrParentCycle    = errors.New("parent link would create a cycle")
)

// Scene owns the element tree and the emitter registration list handed to
// the renderer each frame.
type Scene struct {
	Textures *assets.TextureArena

	elements map[ElementId]*Element
	order    []ElementId
	emitters []*sim.Emitter
	rng      *core.Random
	logger   core.Logger
}

// NewScene creates an empty scene. Emitters without their own seed draw one
// from the scene seed, in creation order.
func NewScene(textures *assets.TextureArena, seed uint64, logger core.Logger) *Scene {
	return &Scene{
		Textures: textures,
		elements: make(map[ElementId]*Element),
		rng:      core.NewRandom(seed),
		logger:   core.OrNop(logger).With("scene"),
	}
}

func (s *Scene) add(el *Element) *Element {
	if el.Id == "" {
		el.Id = newElementId()
	}
	el.World = el.Local
	s.elements[el.Id] = el
	s.order = append(s.order, el.Id)
	return el
}

func (s *Scene) AddEntity(name string, local core.Transform, model string) *Element {
	return s.add(&Element{Name: name, Kind: KindEntity, Local: local, Model: model})
}

func (s *Scene) AddLight(name string, local core.Transform, light Light) *Element {
	return s.add(&Element{Name: name, Kind: KindLight, Local: local, Light: &light})
}

// AddEmitter creates an emitter element and registers it for rendering
// after all previously added emitters.
func (s *Scene) AddEmitter(name string, local core.Transform, cfg sim.EmitterConfig) *Element {
	rng := s.rng.Child()
	if cfg.Seed != 0 {
		rng = core.NewRandom(cfg.Seed)
	}
	em := sim.NewEmitter(cfg, rng)
	if s.Textures != nil {
		em.Texture = s.Textures.Load(cfg.Texture)
	}
	el := s.add(&Element{Name: name, Kind: KindParticleEmitter, Local: local, Emitter: em})
	el.applyWorld()
	s.emitters = append(s.emitters, em)
	s.logger.Debugf("emitter %q registered (%d total)", name, len(s.emitters))
	return el
}

func (s *Scene) Get(id ElementId) (*Element, bool) {
	el, ok := s.elements[id]
	return el, ok
}

// Elements returns the elements in creation order.
func (s *Scene) Elements() []*Element {
	out := make([]*Element, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.elements[id])
	}
	return out
}

// Emitters is the stable render list: registration order, removed emitters
// dropped. The slice must not be modified by callers.
func (s *Scene) Emitters() []*sim.Emitter { return s.emitters }

func (s *Scene) Len() int { return len(s.order) }

// SetParent links child under parent. An empty parent detaches the child.
func (s *Scene) SetParent(child, parent ElementId) error {
	el, ok := s.elements[child]
	if !ok {
		return fmt.Errorf("set parent of %s: %w", child, ErrUnknownElement)
	}
	if parent == "" {
		el.Parent = ""
		return nil
	}
	if _, ok := s.elements[parent]; !ok {
		return fmt.Errorf("set parent %s: %w", parent, ErrUnknownElement)
	}
	for p := parent; p != ""; p = s.elements[p].Parent {
		if p == child {
			return fmt.Errorf("set parent of %s to %s: %w", child, parent, ErrParentCycle)
		}
	}
	el.Parent = parent
	return nil
}

// Remove deletes an element and its descendants, unregistering their
// emitters. Remaining emitters keep their relative order.
func (s *Scene) Remove(id ElementId) error {
	if _, ok := s.elements[id]; !ok {
		return fmt.Errorf("remove %s: %w", id, ErrUnknownElement)
	}
	doomed := map[ElementId]bool{id: true}
	// order lists parents before children only when created that way, so
	// iterate to a fixed point.
	for grew := true; grew; {
		grew = false
		for _, eid := range s.order {
			el := s.elements[eid]
			if !doomed[eid] && el.Parent != "" && doomed[el.Parent] {
				doomed[eid] = true
				grew = true
			}
		}
	}

	for eid := range doomed {
		el := s.elements[eid]
		if el.Kind == KindParticleEmitter && el.Emitter != nil {
			em := el.Emitter
			s.emitters = slices.DeleteFunc(s.emitters, func(e *sim.Emitter) bool { return e == em })
		}
		delete(s.elements, eid)
	}
	s.order = slices.DeleteFunc(s.order, func(eid ElementId) bool { return doomed[eid] })
	return nil
}

// UpdateTransforms recomputes world transforms from local ones, parents
// first, and hands emitter world matrices to the simulation.
func (s *Scene) UpdateTransforms() {
	done := make(map[ElementId]bool, len(s.order))
	var resolve func(el *Element)
	resolve = func(el *Element) {
		if done[el.Id] {
			return
		}
		done[el.Id] = true
		if parent, ok := s.elements[el.Parent]; ok {
			resolve(parent)
			el.World = el.Local.Compose(parent.World)
		} else {
			el.World = el.Local
		}
		el.applyWorld()
	}
	for _, id := range s.order {
		resolve(s.elements[id])
	}
}

// Tick advances every element by dt seconds.
func (s *Scene) Tick(dt float32) {
	for _, id := range s.order {
		s.elements[id].Tick(dt)
	}
}

// Totals aggregates emitter counters for the last tick.
type Totals struct {
	Emitters int
	Alive    int
	Emitted  int
	Dropped  int
	Expired  int
}

func (s *Scene) Totals() Totals {
	t := Totals{Emitters: len(s.emitters)}
	for _, em := range s.emitters {
		t.Alive += len(em.Particles)
		t.Emitted += em.Stats.Emitted
		t.Dropped += em.Stats.Dropped
		t.Expired += em.Stats.Expired
	}
	return t
}
