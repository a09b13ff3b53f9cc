package assets

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/gekko3d/sparks/rt/core"
	"golang.org/x/image/draw"
)

// TextureId is a handle into a TextureArena. The arena owns the pixels;
// holders of an id never do.
type TextureId uint32

const (
	// NoTexture is the zero handle.
	NoTexture TextureId = 0
	// PlaceholderTexture is always valid and is what unresolvable handles map to.
	PlaceholderTexture TextureId = 1
)

const (
	DefaultMaxTextureSize = 1024
	placeholderSize       = 128
)

// Texture is CPU-side RGBA8 pixel data with straight alpha.
type Texture struct {
	Name    string
	Width   uint32
	Height  uint32
	Pix     []uint8
	Version uint
}

// TextureArena is a flat handle table of textures.
type TextureArena struct {
	MaxSize int

	textures []*Texture
	byName   map[string]TextureId
	logger   core.Logger
}

func NewTextureArena(logger core.Logger) *TextureArena {
	a := &TextureArena{
		MaxSize:  DefaultMaxTextureSize,
		textures: make([]*Texture, 2),
		byName:   make(map[string]TextureId),
		logger:   core.OrNop(logger).With("textures"),
	}
	a.textures[PlaceholderTexture] = toTexture("placeholder", SoftCircle(placeholderSize))
	return a
}

// Load returns the handle for the image at path, loading it on first use.
// Failures are logged and resolve to the placeholder.
func (a *TextureArena) Load(path string) TextureId {
	if path == "" {
		return PlaceholderTexture
	}
	if id, ok := a.byName[path]; ok {
		return id
	}
	img, err := decodeFile(path)
	if err != nil {
		a.logger.Warnf("texture %q unavailable, using placeholder: %v", path, err)
		a.byName[path] = PlaceholderTexture
		return PlaceholderTexture
	}
	return a.Add(path, img)
}

// Add registers an in-memory image under name, replacing any previous one.
func (a *TextureArena) Add(name string, img image.Image) TextureId {
	tex := toTexture(name, a.fit(img))
	if id, ok := a.byName[name]; ok && id != PlaceholderTexture {
		tex.Version = a.textures[id].Version + 1
		a.textures[id] = tex
		return id
	}
	id := TextureId(len(a.textures))
	a.textures = append(a.textures, tex)
	a.byName[name] = id
	return id
}

// Get returns the texture for id, or false for an unknown handle.
func (a *TextureArena) Get(id TextureId) (*Texture, bool) {
	if id == NoTexture || int(id) >= len(a.textures) {
		return nil, false
	}
	return a.textures[id], true
}

// Resolve maps any handle to a valid one.
func (a *TextureArena) Resolve(id TextureId) TextureId {
	if _, ok := a.Get(id); ok {
		return id
	}
	return PlaceholderTexture
}

func (a *TextureArena) Len() int { return len(a.textures) - 1 }

// fit scales images larger than MaxSize down, keeping the aspect ratio.
func (a *TextureArena) fit(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if a.MaxSize <= 0 || (w <= a.MaxSize && h <= a.MaxSize) {
		return img
	}
	scale := float64(a.MaxSize) / float64(max(w, h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	a.logger.Debugf("texture scaled from %dx%d to %dx%d", w, h, nw, nh)
	return dst
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode texture: %w", err)
	}
	return img, nil
}

func toTexture(name string, img image.Image) *Texture {
	bounds := img.Bounds()
	// Straight alpha, as sampled by the particle shaders.
	nrgba, ok := img.(*image.NRGBA)
	if !ok || !tightlyPacked(nrgba) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &Texture{
		Name:   name,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pix:    nrgba.Pix,
	}
}

// tightlyPacked reports whether img.Pix is exactly Width*Height rows of
// Width*4 bytes starting at the origin. Sub-images share their parent's
// stride and fail this.
func tightlyPacked(img *image.NRGBA) bool {
	b := img.Bounds()
	return b.Min == (image.Point{}) &&
		img.Stride == 4*b.Dx() &&
		len(img.Pix) == 4*b.Dx()*b.Dy()
}

// SoftCircle renders a white disc of radius size/3 with a blurred rim and a
// fully opaque core of half that radius.
func SoftCircle(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	center := float64(size) / 2
	radius := float64(size) / 3
	blur := radius / 4
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - center
			dy := float64(y) + 0.5 - center
			d := math.Sqrt(dx*dx + dy*dy)
			var alpha float64
			if d <= radius/2 {
				alpha = 1
			} else {
				// gaussian-like falloff around the rim
				alpha = 0.5 * math.Erfc((d-radius)/(blur*math.Sqrt2))
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(alpha * 255))})
		}
	}
	return img
}
