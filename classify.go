package pas

import (
	"cmp"
	"slices"
)

// Culled reports whether p is skipped for the frame: both colors are fully
// transparent, or its depth lies outside [0, 1]. NaN depths are culled.
func (p *DrawPrimitive) Culled() bool {
	return (p.Color1.A == 0 && p.Color2.A == 0) || !(p.Z >= 0 && p.Z <= 1)
}

// IsOpaque reports whether p can be drawn in the opaque pass. Both colors
// must be fully opaque and differ from each other; a primitive whose colors
// are identical is treated as translucent.
func (p *DrawPrimitive) IsOpaque() bool {
	return p.Color1.A == 1 && p.Color2.A == 1 && p.Color1 != p.Color2
}

// Classify partitions the visible primitives of list into an opaque set,
// sorted front to back, and a translucent set, sorted back to front.
//
// The results are appended to opaque[:0] and translucent[:0] so callers can
// reuse the slices across frames. Sorting is stable, so equal depths keep
// their submission order and identical input gives identical output.
func Classify(list *DrawList, opaque, translucent []DrawPrimitive) ([]DrawPrimitive, []DrawPrimitive) {
	opaque = opaque[:0]
	translucent = translucent[:0]
	if list == nil {
		return opaque, translucent
	}

	for i := range list.Primitives {
		p := &list.Primitives[i]
		if p.Culled() {
			continue
		}
		if p.IsOpaque() {
			opaque = append(opaque, *p)
		} else {
			translucent = append(translucent, *p)
		}
	}

	slices.SortStableFunc(opaque, func(a, b DrawPrimitive) int {
		return cmp.Compare(a.Z, b.Z)
	})
	slices.SortStableFunc(translucent, func(a, b DrawPrimitive) int {
		return cmp.Compare(b.Z, a.Z)
	})
	return opaque, translucent
}
