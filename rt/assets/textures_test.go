package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "tex.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestPlaceholderIsAlwaysAvailable(t *testing.T) {
	arena := NewTextureArena(nil)

	tex, ok := arena.Get(PlaceholderTexture)
	require.True(t, ok)
	assert.Equal(t, uint32(placeholderSize), tex.Width)
	assert.Len(t, tex.Pix, placeholderSize*placeholderSize*4)

	_, ok = arena.Get(NoTexture)
	assert.False(t, ok)
	assert.Equal(t, PlaceholderTexture, arena.Resolve(NoTexture))
	assert.Equal(t, PlaceholderTexture, arena.Resolve(TextureId(999)))
}

func TestLoadMissingFileFallsBackToPlaceholder(t *testing.T) {
	arena := NewTextureArena(nil)
	id := arena.Load(filepath.Join(t.TempDir(), "does-not-exist.png"))
	assert.Equal(t, PlaceholderTexture, id)
	assert.Equal(t, 1, arena.Len())
}

func TestLoadCachesByPath(t *testing.T) {
	arena := NewTextureArena(nil)
	path := writePNG(t, 8, 4)

	id := arena.Load(path)
	require.NotEqual(t, PlaceholderTexture, id)
	assert.Equal(t, id, arena.Load(path))

	tex, ok := arena.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint32(8), tex.Width)
	assert.Equal(t, uint32(4), tex.Height)
	assert.Equal(t, []uint8{200, 100, 50, 255}, tex.Pix[:4])
}

func TestOversizedTexturesAreScaledDown(t *testing.T) {
	arena := NewTextureArena(nil)
	arena.MaxSize = 16
	id := arena.Add("big", image.NewNRGBA(image.Rect(0, 0, 64, 32)))

	tex, ok := arena.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint32(16), tex.Width)
	assert.Equal(t, uint32(8), tex.Height)
}

func TestSubImageIsRepacked(t *testing.T) {
	parent := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			parent.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	arena := NewTextureArena(nil)
	id := arena.Add("corner", parent.SubImage(image.Rect(0, 0, 4, 4)))

	tex, ok := arena.Get(id)
	require.True(t, ok)
	require.Len(t, tex.Pix, 4*4*4)
	// pixel (0,1) starts the second 16-byte row
	assert.Equal(t, []uint8{0, 1, 0, 255}, tex.Pix[16:20])
	assert.Equal(t, []uint8{3, 3, 0, 255}, tex.Pix[60:64])
}

func TestAddReplacesAndBumpsVersion(t *testing.T) {
	arena := NewTextureArena(nil)
	first := arena.Add("smoke", image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	second := arena.Add("smoke", image.NewNRGBA(image.Rect(0, 0, 4, 4)))

	assert.Equal(t, first, second)
	tex, _ := arena.Get(second)
	assert.Equal(t, uint(1), tex.Version)
	assert.Equal(t, uint32(4), tex.Width)
}

func TestSoftCircleFalloff(t *testing.T) {
	img := SoftCircle(128)
	assert.Equal(t, uint8(255), img.NRGBAAt(64, 64).A, "core must be opaque")
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A, "corners must be transparent")
	rim := img.NRGBAAt(64+42, 64).A
	assert.Greater(t, rim, uint8(0))
	assert.Less(t, rim, uint8(255))
}
