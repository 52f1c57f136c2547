package shaders

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

func TestLoadCompiles(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			src, err := Load(name)
			if err != nil {
				t.Fatalf("Load(%q) = %v", name, err)
			}
			if !strings.Contains(src, "fn vs_main") || !strings.Contains(src, "fn fs_main") {
				t.Fatalf("%s: missing an entry point", name)
			}
			spirv, err := naga.Compile(src)
			if err != nil {
				t.Fatalf("naga.Compile(%s) = %v", name, err)
			}
			if len(spirv) < 20 || len(spirv)%4 != 0 {
				t.Errorf("%s: SPIR-V output is %d bytes", name, len(spirv))
			}
		})
	}
}

func TestLoadUnknown(t *testing.T) {
	for _, name := range []string{"", "missing", "fullscreen"} {
		if _, err := Load(name); err == nil {
			t.Errorf("Load(%q) succeeded, want error", name)
		}
	}
}
