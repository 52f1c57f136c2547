package pas

import (
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

type rendererState int32

const (
	stateUninitialized rendererState = iota
	stateInitialized
	stateRunning
	stateDisposed
)

func (s rendererState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitialized:
		return "initialized"
	case stateRunning:
		return "running"
	case stateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// FrameInfo describes a presented frame. It is passed to the frame observer.
type FrameInfo struct {
	// List is the draw list the frame was rendered from.
	List *DrawList

	// Size is the offscreen target size in pixels.
	Size image.Point

	// Opaque and Translucent count the primitives drawn in each pass.
	Opaque, Translucent int

	// Final is the ping-pong texture that was presented.
	Final TextureID

	// Applied names the post effects that ran. Only valid during the callback.
	Applied []string
}

// Stats are renderer counters for diagnostics.
type Stats struct {
	// Frames is the number of presented frames.
	Frames uint64

	// Skipped counts draw lists dropped while the surface had zero area.
	Skipped uint64

	// Queued is the current frame queue depth.
	Queued int
}

// Renderer consumes draw lists and renders them onto a window.
//
// The life cycle is New, Initialize, Run, Dispose. Run and Initialize must
// be called from the thread that owns the window. Submit and Register may be
// called from any goroutine at any time.
type Renderer struct {
	opts     Options
	log      *slog.Logger
	queue    *FrameQueue
	geometry *GeometryRegistry

	state   atomic.Int32
	window  Window
	backend Backend
	chain   *PostChain

	size        image.Point
	paused      bool
	opaque      []DrawPrimitive
	translucent []DrawPrimitive
	draws       []Draw

	frames  atomic.Uint64
	skipped atomic.Uint64
}

// New creates an uninitialized renderer.
func New(opts ...Option) *Renderer {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.Logger
	if log == nil {
		log = Logger()
	}
	return &Renderer{
		opts:     o,
		log:      log,
		queue:    NewFrameQueue(),
		geometry: NewGeometryRegistry(log),
	}
}

// Options returns the renderer's configuration.
func (r *Renderer) Options() Options { return r.opts }

// Geometry returns the renderer's geometry registry.
func (r *Renderer) Geometry() *GeometryRegistry { return r.geometry }

// Queue returns the renderer's frame queue.
func (r *Renderer) Queue() *FrameQueue { return r.queue }

// Register adds a mesh to the geometry registry.
func (r *Renderer) Register(vertices []mgl32.Vec2, indices []uint32) MeshHandle {
	return r.geometry.Register(vertices, indices)
}

// Submit queues list for rendering. The renderer takes ownership of list.
func (r *Renderer) Submit(list *DrawList) {
	r.queue.Submit(list)
}

// QueueLen returns the number of draw lists waiting to be rendered.
func (r *Renderer) QueueLen() int { return r.queue.Len() }

// Stats returns a snapshot of the renderer counters.
func (r *Renderer) Stats() Stats {
	return Stats{
		Frames:  r.frames.Load(),
		Skipped: r.skipped.Load(),
		Queued:  r.queue.Len(),
	}
}

// Initialize creates the window and the backend's device resources.
// GPU resource creation or shader compile failures are returned as is;
// they are not retried.
func (r *Renderer) Initialize() error {
	switch rendererState(r.state.Load()) {
	case stateDisposed:
		return ErrDisposed
	case stateInitialized, stateRunning:
		return ErrAlreadyInitialized
	}

	if r.opts.Window == nil {
		return ErrNoWindow
	}
	if r.opts.Width <= 0 || r.opts.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, r.opts.Width, r.opts.Height)
	}

	backend, name, err := newBackend(r.opts.Backend)
	if err != nil {
		return err
	}

	win, err := r.opts.Window(r.opts.Title, r.opts.Width, r.opts.Height)
	if err != nil {
		return fmt.Errorf("pas: create window: %w", err)
	}

	propagateLogger(backend, r.log)
	if err := backend.Init(win, &r.opts); err != nil {
		win.Destroy()
		return fmt.Errorf("pas: init %s backend: %w", name, err)
	}

	r.window = win
	r.backend = backend
	r.chain = NewPostChain(backend.Effects()...)
	r.state.Store(int32(stateInitialized))

	r.log.Info("backend selected",
		"backend", backend.Name(),
		"vsync", r.opts.VSync,
		"samples", r.opts.SampleCount,
		"effects", r.chain.Len())
	return nil
}

// Run renders draw lists until the window is closed.
//
// Calling Run before a successful Initialize is a configuration error and
// returns ErrNotInitialized. A frame that fails on the device ends the loop
// with that error; there is no partial-frame recovery.
func (r *Renderer) Run() error {
	switch rendererState(r.state.Load()) {
	case stateUninitialized:
		r.log.Error("run called before initialize")
		return ErrNotInitialized
	case stateDisposed:
		return ErrDisposed
	}
	if !r.state.CompareAndSwap(int32(stateInitialized), int32(stateRunning)) {
		return ErrRunning
	}
	defer r.state.CompareAndSwap(int32(stateRunning), int32(stateInitialized))

	for {
		r.window.PollEvents()
		if r.window.ShouldClose() {
			return nil
		}

		list, ok := r.queue.Wait(r.idle)
		if !ok {
			return nil
		}
		if err := r.renderFrame(list); err != nil {
			return fmt.Errorf("pas: frame %d: %w", r.frames.Load(), err)
		}
	}
}

// idle pumps window events while the queue is empty and stops the wait once
// the window is closing.
func (r *Renderer) idle() bool {
	r.window.PollEvents()
	return r.window.ShouldClose()
}

func (r *Renderer) renderFrame(list *DrawList) error {
	w, h := r.window.FramebufferSize()
	if w <= 0 || h <= 0 {
		r.skipped.Add(1)
		if !r.paused {
			r.log.Debug("zero-area surface, pausing", "width", w, "height", h)
			r.paused = true
		}
		time.Sleep(r.opts.ZeroAreaPause)
		return nil
	}
	r.paused = false

	if _, err := r.geometry.Sync(r.backend.UploadGeometry); err != nil {
		return fmt.Errorf("upload geometry: %w", err)
	}

	size := image.Pt(w, h)
	if size != r.size {
		if err := r.backend.Resize(size); err != nil {
			return fmt.Errorf("resize targets to %v: %w", size, err)
		}
		r.log.Info("surface resized", "from", r.size, "to", size)
		r.size = size
	}

	r.opaque, r.translucent = Classify(list, r.opaque, r.translucent)
	camera := CameraTransform(list.Camera, Aspect(w, h))

	if err := r.backend.BeginFrame(list.ClearColor); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	r.draws = appendDraws(r.draws[:0], camera, r.opaque)
	if err := r.backend.DrawOpaque(r.draws); err != nil {
		return fmt.Errorf("opaque pass: %w", err)
	}
	r.draws = appendDraws(r.draws[:0], camera, r.translucent)
	if err := r.backend.DrawTranslucent(r.draws); err != nil {
		return fmt.Errorf("translucent pass: %w", err)
	}
	if err := r.backend.Resolve(); err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	final, err := r.chain.Run(size, &list.Post, TextureA)
	if err != nil {
		return err
	}
	if err := r.backend.Present(final); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	r.frames.Add(1)

	if r.opts.Observer != nil {
		r.opts.Observer(FrameInfo{
			List:        list,
			Size:        size,
			Opaque:      len(r.opaque),
			Translucent: len(r.translucent),
			Final:       final,
			Applied:     r.chain.Applied(),
		})
	}
	return nil
}

func appendDraws(dst []Draw, camera mgl32.Mat3, prims []DrawPrimitive) []Draw {
	for i := range prims {
		p := &prims[i]
		dst = append(dst, Draw{
			Mesh:   p.Mesh,
			Matrix: camera.Mul3(p.Transform),
			Z:      p.Z,
			Mode:   p.Mode,
			Color1: p.Color1,
			Color2: p.Color2,
		})
	}
	return dst
}

// Dispose releases the backend and then the window. It is safe to call more
// than once and in any state, but not concurrently with Run.
func (r *Renderer) Dispose() error {
	prev := rendererState(r.state.Swap(int32(stateDisposed)))
	if prev == stateDisposed {
		return nil
	}

	var err error
	if r.backend != nil {
		if cerr := r.backend.Close(); cerr != nil {
			err = fmt.Errorf("pas: close %s backend: %w", r.backend.Name(), cerr)
		}
		r.backend = nil
	}
	if r.window != nil {
		r.window.Destroy()
		r.window = nil
	}
	r.log.Debug("renderer disposed", "from", prev.String(), "frames", r.frames.Load())
	return err
}
