// Package filter provides full-screen image filters over float RGBA images.
//
// The filters back the software renderer's post-processing effects:
//   - Color matrix transformations (hue rotation)
//   - Gaussian blur (separable, O(n) per radius)
//   - Bloom (bright pass + blur + additive combine)
//
// Images store straight-alpha RGBA with components in [0, 1]. Filters
// clamp their output to that range, matching 8-bit render targets.
package filter
