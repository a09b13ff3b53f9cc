package shaders

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/naga"
)

const (
	PointsName    = "particle_points.wgsl"
	BillboardName = "particle_billboard.wgsl"
)

//go:embed particle_points.wgsl
var PointsWGSL string

//go:embed particle_billboard.wgsl
var BillboardWGSL string

// Sources holds the WGSL text of both particle programs.
type Sources struct {
	Points    string
	Billboard string
}

func Embedded() Sources {
	return Sources{Points: PointsWGSL, Billboard: BillboardWGSL}
}

// Library resolves shader sources. With Dir set, files found there take
// precedence over the embedded copies, which is what makes hot reload work.
type Library struct {
	Dir string
}

func (l Library) Source(name string) (string, error) {
	if l.Dir != "" {
		data, err := os.ReadFile(filepath.Join(l.Dir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read shader %s: %w", name, err)
		}
	}
	switch name {
	case PointsName:
		return PointsWGSL, nil
	case BillboardName:
		return BillboardWGSL, nil
	}
	return "", fmt.Errorf("unknown shader %q", name)
}

// Load reads and validates both programs. Nothing is returned unless every
// program compiles.
func (l Library) Load() (Sources, error) {
	var src Sources
	var err error
	if src.Points, err = l.Source(PointsName); err != nil {
		return Sources{}, err
	}
	if src.Billboard, err = l.Source(BillboardName); err != nil {
		return Sources{}, err
	}
	if err := Validate(PointsName, src.Points); err != nil {
		return Sources{}, err
	}
	if err := Validate(BillboardName, src.Billboard); err != nil {
		return Sources{}, err
	}
	return src, nil
}

// Validate compiles WGSL on the CPU so a broken edit is caught before any
// pipeline is touched.
func Validate(name, code string) error {
	if code == "" {
		return fmt.Errorf("shader %s is empty", name)
	}
	if _, err := naga.Compile(code); err != nil {
		return fmt.Errorf("compile shader %s: %w", name, err)
	}
	return nil
}
