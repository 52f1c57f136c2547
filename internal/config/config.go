// Package config loads renderer and demo settings from a TOML or YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	pas "github.com/RTMecha/ParallelAnimationSystem"
)

// ErrFormat is returned for files whose extension is neither TOML nor YAML.
var ErrFormat = errors.New("config: unsupported file format")

// maxFileSize bounds the size of a config file.
const maxFileSize = 1 << 20

// File is the on-disk configuration. Unset fields keep their defaults.
type File struct {
	Render Render `toml:"render" yaml:"render"`
	Demo   Demo   `toml:"demo" yaml:"demo"`
}

// Render holds window and renderer settings.
type Render struct {
	// VSync is a pointer to tell an explicit false from an absent key.
	VSync   *bool  `toml:"vsync" yaml:"vsync"`
	Width   int    `toml:"width" yaml:"width"`
	Height  int    `toml:"height" yaml:"height"`
	Title   string `toml:"title" yaml:"title"`
	Samples int    `toml:"samples" yaml:"samples"`
	Backend string `toml:"backend" yaml:"backend"`
}

// Demo holds the animation parameters of cmd/pasdemo.
type Demo struct {
	// HueSpeed is the hue rotation speed in degrees per second.
	HueSpeed float32 `toml:"hue_speed" yaml:"hue_speed"`

	BloomIntensity float32 `toml:"bloom_intensity" yaml:"bloom_intensity"`
	BloomDiffusion float32 `toml:"bloom_diffusion" yaml:"bloom_diffusion"`

	// Meshes is the number of animated primitives.
	Meshes int `toml:"meshes" yaml:"meshes"`
}

// DefaultDemo returns the demo settings used when the file has none.
func DefaultDemo() Demo {
	return Demo{
		HueSpeed:       30,
		BloomIntensity: 0.6,
		BloomDiffusion: 1,
		Meshes:         64,
	}
}

// Load reads path. The extension selects the format: .toml, .yaml or .yml.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config: %s is too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data in the format named by ext. Missing demo fields are
// filled from DefaultDemo.
func Parse(data []byte, ext string) (*File, error) {
	f := &File{Demo: DefaultDemo()}
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(f); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) validate() error {
	r := f.Render
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: %dx%d", pas.ErrInvalidSize, r.Width, r.Height)
	}
	if r.Samples < 0 {
		return fmt.Errorf("config: negative sample count %d", r.Samples)
	}
	if f.Demo.Meshes < 0 {
		return fmt.Errorf("config: negative mesh count %d", f.Demo.Meshes)
	}
	return nil
}

// Options converts the render section into renderer options. Zero values
// are skipped so the renderer defaults apply.
func (f *File) Options() []pas.Option {
	r := f.Render
	var opts []pas.Option
	if r.VSync != nil {
		opts = append(opts, pas.WithVSync(*r.VSync))
	}
	if r.Width > 0 && r.Height > 0 {
		opts = append(opts, pas.WithSize(r.Width, r.Height))
	}
	if r.Title != "" {
		opts = append(opts, pas.WithTitle(r.Title))
	}
	if r.Samples > 0 {
		opts = append(opts, pas.WithSampleCount(r.Samples))
	}
	if r.Backend != "" {
		opts = append(opts, pas.WithBackend(r.Backend))
	}
	return opts
}
