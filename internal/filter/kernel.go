package filter

import (
	"sync"

	"github.com/chewxy/math32"
)

// GaussianKernel generates a 1D Gaussian kernel for the given radius.
// The kernel is normalized so all values sum to 1.0.
//
// The kernel size is computed as 2 * ceil(radius * 3) + 1, which covers
// 99.7% of the Gaussian distribution (3 standard deviations).
//
// For radius <= 0, returns a single-element kernel [1.0] (identity).
func GaussianKernel(radius float32) []float32 {
	if !(radius > 0) {
		return []float32{1.0}
	}

	// Using radius as sigma
	sigma := radius
	halfSize := int(math32.Ceil(sigma * 3))
	size := halfSize*2 + 1

	kernel := make([]float32, size)

	// G(x) = exp(-x²/(2σ²)); the constant factor is dropped by normalization.
	twoSigmaSq := 2 * sigma * sigma
	var sum float32

	for i := range size {
		x := float32(i - halfSize)
		val := math32.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = val
		sum += val
	}

	if sum > 0 {
		invSum := 1 / sum
		for i := range kernel {
			kernel[i] *= invSum
		}
	}

	return kernel
}

// kernelCache caches computed Gaussian kernels to avoid recomputation.
// Key is radius * 100 (to handle float precision), value is kernel.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[int][]float32
	maxLen int
}

var defaultKernelCache = newKernelCache(64)

// newKernelCache creates a kernel cache with the given maximum entries.
func newKernelCache(maxLen int) *kernelCache {
	return &kernelCache{
		cache:  make(map[int][]float32),
		maxLen: maxLen,
	}
}

// get retrieves a kernel from cache or generates and caches it.
func (c *kernelCache) get(radius float32) []float32 {
	// Quantize radius to 0.01 precision
	key := int(radius * 100)

	c.mu.RLock()
	if kernel, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return kernel
	}
	c.mu.RUnlock()

	kernel := GaussianKernel(float32(key) / 100)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Simple eviction: clear half the cache
		count := 0
		for k := range c.cache {
			delete(c.cache, k)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = kernel
	c.mu.Unlock()

	return kernel
}

// CachedGaussianKernel returns a cached Gaussian kernel for the radius.
// Bloom asks for the same radius every frame, so this avoids rebuilding it.
func CachedGaussianKernel(radius float32) []float32 {
	return defaultKernelCache.get(radius)
}

// OptimalKernelSize returns the kernel size GaussianKernel produces for radius.
func OptimalKernelSize(radius float32) int {
	if !(radius > 0) {
		return 1
	}
	return int(math32.Ceil(radius*3))*2 + 1
}
