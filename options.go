package pas

import (
	"log/slog"
	"time"
)

// Defaults used by DefaultOptions.
const (
	DefaultWidth         = 1280
	DefaultHeight        = 720
	DefaultSampleCount   = 4
	DefaultZeroAreaPause = 50 * time.Millisecond
	DefaultTitle         = "Parallel Animation System"
)

// Options configures a Renderer. Backends receive the final Options in
// Backend.Init.
type Options struct {
	// VSync caps presentation to the display refresh rate.
	VSync bool

	// Width and Height are the initial window size in screen coordinates.
	Width, Height int

	Title string

	// SampleCount is the multisample count of the offscreen target.
	// 1 disables multisampling.
	SampleCount int

	// Backend selects a registered backend by name. Empty picks the
	// highest-priority registered backend.
	Backend string

	// Window creates the presentation window. Required.
	Window WindowFactory

	// ZeroAreaPause is how long the render loop sleeps when the surface
	// has zero area.
	ZeroAreaPause time.Duration

	// Observer, if set, is called on the render thread after each
	// presented frame.
	Observer func(FrameInfo)

	// Logger overrides the package logger for this renderer.
	Logger *slog.Logger
}

// Option configures Options.
//
// Example:
//
//	r := pas.New(
//		pas.WithSize(1920, 1080),
//		pas.WithVSync(false),
//		pas.WithWindow(desktop.New),
//	)
type Option func(*Options)

// DefaultOptions returns the options used when no Option is given.
func DefaultOptions() Options {
	return Options{
		VSync:         true,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Title:         DefaultTitle,
		SampleCount:   DefaultSampleCount,
		ZeroAreaPause: DefaultZeroAreaPause,
	}
}

// WithVSync enables or disables vertical sync.
func WithVSync(on bool) Option {
	return func(o *Options) {
		o.VSync = on
	}
}

// WithSize sets the initial window size.
func WithSize(width, height int) Option {
	return func(o *Options) {
		o.Width = width
		o.Height = height
	}
}

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithSampleCount sets the multisample count. Values below 1 are treated
// as 1.
func WithSampleCount(n int) Option {
	return func(o *Options) {
		o.SampleCount = max(n, 1)
	}
}

// WithBackend selects a registered backend by name.
func WithBackend(name string) Option {
	return func(o *Options) {
		o.Backend = name
	}
}

// WithWindow sets the window factory.
func WithWindow(f WindowFactory) Option {
	return func(o *Options) {
		o.Window = f
	}
}

// WithZeroAreaPause sets the sleep used while the surface has zero area.
func WithZeroAreaPause(d time.Duration) Option {
	return func(o *Options) {
		o.ZeroAreaPause = d
	}
}

// WithFrameObserver registers a callback invoked after every presented frame.
func WithFrameObserver(fn func(FrameInfo)) Option {
	return func(o *Options) {
		o.Observer = fn
	}
}

// WithLogger sets a renderer-specific logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
