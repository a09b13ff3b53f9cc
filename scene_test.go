package sparks

import (
	"testing"

	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/sim"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietEmitter() sim.EmitterConfig {
	cfg := sim.DefaultEmitterConfig()
	cfg.EmissionRate = 0
	cfg.Forces = sim.ForceField{}
	return cfg
}

func TestTransformHierarchy(t *testing.T) {
	scene := NewScene(nil, 1, nil)

	parent := scene.AddEntity("parent", at(10, 0, 0), "")
	child := scene.AddEntity("child", at(0, 5, 0), "")
	grandchild := scene.AddEmitter("grandchild", at(0, 0, 2), quietEmitter())

	require.NoError(t, scene.SetParent(child.Id, parent.Id))
	require.NoError(t, scene.SetParent(grandchild.Id, child.Id))
	scene.UpdateTransforms()

	assert.Equal(t, mgl32.Vec3{10, 5, 0}, child.World.Position)
	assert.Equal(t, mgl32.Vec3{10, 5, 2}, grandchild.World.Position)
	assert.Equal(t, mgl32.Vec3{10, 5, 2}, grandchild.Emitter.Origin(), "emitter receives its world matrix")

	parent.Local.Position = mgl32.Vec3{0, 0, 0}
	scene.UpdateTransforms()
	assert.Equal(t, mgl32.Vec3{0, 5, 2}, grandchild.Emitter.Origin())
}

func TestChildCreatedBeforeParentStillResolves(t *testing.T) {
	scene := NewScene(nil, 1, nil)
	child := scene.AddEmitter("child", at(1, 0, 0), quietEmitter())
	parent := scene.AddEntity("parent", at(0, 3, 0), "")
	require.NoError(t, scene.SetParent(child.Id, parent.Id))

	scene.UpdateTransforms()
	assert.Equal(t, mgl32.Vec3{1, 3, 0}, child.World.Position)
}

func TestSetParentRejectsCyclesAndUnknownIds(t *testing.T) {
	scene := NewScene(nil, 1, nil)
	a := scene.AddEntity("a", core.NewTransform(), "")
	b := scene.AddEntity("b", core.NewTransform(), "")
	require.NoError(t, scene.SetParent(b.Id, a.Id))

	assert.ErrorIs(t, scene.SetParent(a.Id, b.Id), ErrParentCycle)
	assert.ErrorIs(t, scene.SetParent(a.Id, a.Id), ErrParentCycle)
	assert.ErrorIs(t, scene.SetParent(a.Id, "missing"), ErrUnknownElement)
	assert.ErrorIs(t, scene.SetParent("missing", a.Id), ErrUnknownElement)

	require.NoError(t, scene.SetParent(b.Id, ""))
	assert.Equal(t, ElementId(""), b.Parent)
}

func TestEmitterRegistrationOrder(t *testing.T) {
	scene := NewScene(nil, 1, nil)
	first := scene.AddEmitter("first", core.NewTransform(), quietEmitter())
	scene.AddLight("light", core.NewTransform(), Light{})
	second := scene.AddEmitter("second", core.NewTransform(), quietEmitter())
	third := scene.AddEmitter("third", core.NewTransform(), quietEmitter())

	assert.Equal(t, []*sim.Emitter{first.Emitter, second.Emitter, third.Emitter}, scene.Emitters())

	require.NoError(t, scene.Remove(second.Id))
	assert.Equal(t, []*sim.Emitter{first.Emitter, third.Emitter}, scene.Emitters())
	assert.Equal(t, 3, scene.Len())

	_, ok := scene.Get(second.Id)
	assert.False(t, ok)
	assert.ErrorIs(t, scene.Remove(second.Id), ErrUnknownElement)
}

func TestRemoveTakesDescendants(t *testing.T) {
	scene := NewScene(nil, 1, nil)
	rig := BuildDemoScene(scene)
	require.Len(t, scene.Emitters(), 3)

	require.NoError(t, scene.Remove(rig.Id))
	assert.Len(t, scene.Emitters(), 1, "only the fountain is left")
	assert.Equal(t, 1, scene.Len())
	assert.Equal(t, "fountain", scene.Elements()[0].Name)
}

func TestSceneTickDispatchesToEmitters(t *testing.T) {
	scene := NewScene(nil, 1, nil)
	cfg := quietEmitter()
	cfg.EmissionRate = 10
	cfg.LifespanMin, cfg.LifespanMax = 5, 6
	em := scene.AddEmitter("e", core.NewTransform(), cfg)
	scene.AddLight("l", core.NewTransform(), Light{})
	scene.AddEntity("m", core.NewTransform(), "model.vox")

	scene.Tick(1)
	assert.Len(t, em.Emitter.Particles, 10)

	totals := scene.Totals()
	assert.Equal(t, Totals{Emitters: 1, Alive: 10, Emitted: 10}, totals)
}

func TestEmitterSeeds(t *testing.T) {
	a := NewScene(nil, 7, nil)
	b := NewScene(nil, 7, nil)
	cfg := sim.DefaultEmitterConfig()

	ea := a.AddEmitter("x", core.NewTransform(), cfg)
	eb := b.AddEmitter("x", core.NewTransform(), cfg)
	a.Tick(1)
	b.Tick(1)
	assert.Equal(t, ea.Emitter.Particles, eb.Emitter.Particles, "same scene seed, same particles")

	cfg.Seed = 1234
	ec := a.AddEmitter("y", core.NewTransform(), cfg)
	ed := b.AddEmitter("y", core.NewTransform(), cfg)
	a.Tick(1)
	b.Tick(1)
	assert.Equal(t, ec.Emitter.Particles, ed.Emitter.Particles)
}

func TestElementKindText(t *testing.T) {
	for _, k := range []ElementKind{KindEntity, KindLight, KindParticleEmitter} {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var back ElementKind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}
	var k ElementKind
	assert.Error(t, k.UnmarshalText([]byte("camera")))
	assert.Equal(t, "ElementKind(9)", ElementKind(9).String())
}

func TestEmitterTexturesResolveThroughArena(t *testing.T) {
	engine := newTestEngine(t, nil)
	cfg := quietEmitter()
	cfg.Texture = "does/not/exist.png"
	el := engine.Scene.AddEmitter("smoke", core.NewTransform(), cfg)
	assert.Equal(t, engine.Textures.Resolve(el.Emitter.Texture), el.Emitter.Texture)
}
