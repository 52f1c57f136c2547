package pas

import (
	"math"
	"testing"
)

var (
	red   = RGB(1, 0, 0)
	blue  = RGB(0, 0, 1)
	faded = RGBA(1, 0, 0, 0.5)
)

func prim(z float32, c1, c2 Color) DrawPrimitive {
	return DrawPrimitive{Z: z, Color1: c1, Color2: c2}
}

func zs(ps []DrawPrimitive) []float32 {
	out := make([]float32, len(ps))
	for i := range ps {
		out[i] = ps[i].Z
	}
	return out
}

func equalZ(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestClassify_Culling(t *testing.T) {
	tests := []struct {
		name string
		p    DrawPrimitive
	}{
		{"both transparent z=0.5", prim(0.5, Transparent, Transparent)},
		{"both transparent z=0", prim(0, RGBA(1, 1, 1, 0), RGBA(0, 0, 0, 0))},
		{"both transparent z=1", prim(1, Transparent, Transparent)},
		{"z below range", prim(-0.001, red, blue)},
		{"z above range", prim(1.001, red, blue)},
		{"z below range translucent", prim(-0.001, faded, faded)},
		{"z NaN", prim(float32(math.NaN()), red, blue)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opaque, translucent := Classify(&DrawList{Primitives: []DrawPrimitive{tt.p}}, nil, nil)
			if len(opaque) != 0 || len(translucent) != 0 {
				t.Errorf("primitive not culled: opaque=%d translucent=%d", len(opaque), len(translucent))
			}
		})
	}
}

func TestClassify_OpaqueRule(t *testing.T) {
	tests := []struct {
		name       string
		p          DrawPrimitive
		wantOpaque bool
	}{
		{"distinct opaque colors", prim(0.5, red, blue), true},
		{"identical opaque colors", prim(0.5, red, red), false},
		{"color1 translucent", prim(0.5, faded, blue), false},
		{"color2 translucent", prim(0.5, red, faded), false},
		{"one transparent", prim(0.5, Transparent, red), false},
		{"boundary z=0", prim(0, red, blue), true},
		{"boundary z=1", prim(1, red, blue), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opaque, translucent := Classify(&DrawList{Primitives: []DrawPrimitive{tt.p}}, nil, nil)
			gotOpaque := len(opaque) == 1
			if gotOpaque != tt.wantOpaque {
				t.Errorf("opaque = %v, want %v", gotOpaque, tt.wantOpaque)
			}
			if len(opaque)+len(translucent) != 1 {
				t.Errorf("primitive emitted %d times, want 1", len(opaque)+len(translucent))
			}
		})
	}
}

func TestClassify_SortOrder(t *testing.T) {
	list := &DrawList{Primitives: []DrawPrimitive{
		prim(0.1, red, blue),
		prim(0.9, red, blue),
		prim(0.5, red, blue),
		prim(0.1, faded, faded),
		prim(0.9, faded, faded),
		prim(0.5, faded, faded),
	}}

	opaque, translucent := Classify(list, nil, nil)

	if got, want := zs(opaque), []float32{0.1, 0.5, 0.9}; !equalZ(got, want) {
		t.Errorf("opaque order = %v, want %v", got, want)
	}
	if got, want := zs(translucent), []float32{0.9, 0.5, 0.1}; !equalZ(got, want) {
		t.Errorf("translucent order = %v, want %v", got, want)
	}
}

func TestClassify_StableTies(t *testing.T) {
	// Equal depths keep submission order, identified by Mode.
	list := &DrawList{}
	for i := range 8 {
		p := prim(0.5, faded, faded)
		p.Mode = RenderMode(i)
		list.Primitives = append(list.Primitives, p)
	}

	for run := range 3 {
		_, translucent := Classify(list, nil, nil)
		for i := range translucent {
			if translucent[i].Mode != RenderMode(i) {
				t.Fatalf("run %d: position %d holds primitive %d", run, i, translucent[i].Mode)
			}
		}
	}
}

func TestClassify_ReusesSlicesAndLeavesInputAlone(t *testing.T) {
	list := &DrawList{Primitives: []DrawPrimitive{
		prim(0.9, red, blue),
		prim(0.1, red, blue),
	}}
	opaque := make([]DrawPrimitive, 0, 8)
	translucent := make([]DrawPrimitive, 0, 8)

	gotOpaque, _ := Classify(list, opaque, translucent)
	if &gotOpaque[:1][0] != &opaque[:1][0] {
		t.Error("Classify did not reuse the provided opaque slice")
	}
	if list.Primitives[0].Z != 0.9 {
		t.Error("Classify reordered the draw list")
	}
}

func TestClassify_NilList(t *testing.T) {
	opaque, translucent := Classify(nil, nil, nil)
	if len(opaque) != 0 || len(translucent) != 0 {
		t.Error("Classify(nil) should return empty sets")
	}
}
