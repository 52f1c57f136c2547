package pas

import (
	"fmt"
	"image"
)

// TextureID names one of the two single-sample ping-pong textures owned by a
// backend.
type TextureID uint8

const (
	// TextureA receives the resolved multisample image each frame.
	TextureA TextureID = iota
	// TextureB is the other ping-pong texture.
	TextureB
)

// Other returns the ping-pong partner of id.
func (id TextureID) Other() TextureID {
	if id == TextureA {
		return TextureB
	}
	return TextureA
}

func (id TextureID) String() string {
	if id == TextureA {
		return "A"
	}
	return "B"
}

// Effect is a full-screen image transform in the post-processing chain.
//
// Process reads in and writes out, both of the given size. If the
// parameters make the effect a no-op it must touch neither texture and
// return false; otherwise it returns true after writing out.
type Effect interface {
	Name() string
	Process(size image.Point, params *PostProcessing, in, out TextureID) (bool, error)
}

// PostChain runs effects in order over the ping-pong textures. The chain
// owns the bookkeeping: effects never decide which texture is current.
type PostChain struct {
	effects []Effect
	applied []string
}

// NewPostChain creates a chain running effects in the given order.
func NewPostChain(effects ...Effect) *PostChain {
	return &PostChain{effects: effects}
}

// Len returns the number of effects in the chain.
func (c *PostChain) Len() int { return len(c.effects) }

// Run processes the image currently in start and returns the texture that
// holds the final image. The roles of the two textures swap after every
// effect that reports it was applied, and only then.
func (c *PostChain) Run(size image.Point, params *PostProcessing, start TextureID) (TextureID, error) {
	c.applied = c.applied[:0]
	current := start
	for _, e := range c.effects {
		ok, err := e.Process(size, params, current, current.Other())
		if err != nil {
			return current, fmt.Errorf("pas: post effect %s: %w", e.Name(), err)
		}
		if ok {
			current = current.Other()
			c.applied = append(c.applied, e.Name())
		}
	}
	return current, nil
}

// Applied returns the names of the effects applied by the last Run.
// The slice is reused by the next Run.
func (c *PostChain) Applied() []string { return c.applied }
