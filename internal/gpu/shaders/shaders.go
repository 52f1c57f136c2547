// Package shaders embeds the WGSL sources of the GPU backend.
//
// Post-processing shaders are fragment-only bodies; Load prepends the
// shared fullscreen vertex stage and texture helpers to them.
package shaders

import (
	"embed"
	"fmt"
	"slices"
)

//go:embed *.wgsl
var files embed.FS

// Shader names.
const (
	Geometry       = "geometry"
	Blit           = "blit"
	HueShift       = "hue_shift"
	BloomThreshold = "bloom_threshold"
	Blur           = "blur"
	BloomCombine   = "bloom_combine"
)

const fullscreen = "fullscreen"

var post = []string{Blit, HueShift, BloomThreshold, Blur, BloomCombine}

// Names returns every loadable shader name.
func Names() []string {
	return append([]string{Geometry}, post...)
}

// Load returns the complete WGSL source for the named shader.
func Load(name string) (string, error) {
	body, err := files.ReadFile(name + ".wgsl")
	if err != nil || name == fullscreen {
		return "", fmt.Errorf("shaders: unknown shader %q", name)
	}
	if !slices.Contains(post, name) {
		return string(body), nil
	}
	prefix, err := files.ReadFile(fullscreen + ".wgsl")
	if err != nil {
		return "", fmt.Errorf("shaders: %w", err)
	}
	return string(prefix) + "\n" + string(body), nil
}
