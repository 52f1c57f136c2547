// Command pasdemo animates a ring of shapes with the parallel animation
// renderer.
//
// A producer goroutine builds one draw list per tick while the main thread
// renders them. Settings come from flags and, optionally, a TOML or YAML
// config file whose demo section is reloaded when the file changes.
//
// Usage:
//
//	pasdemo [-config pas.toml] [-backend gpu|software] [-headless -frames 60 -output frame.png]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	pas "github.com/RTMecha/ParallelAnimationSystem"
	"github.com/RTMecha/ParallelAnimationSystem/internal/config"
	"github.com/RTMecha/ParallelAnimationSystem/internal/window"
	"github.com/RTMecha/ParallelAnimationSystem/internal/window/desktop"
	"github.com/RTMecha/ParallelAnimationSystem/software"

	_ "github.com/RTMecha/ParallelAnimationSystem/gpu"
)

func init() {
	// Window systems require the render loop on the main thread.
	runtime.LockOSThread()
}

type flags struct {
	config   string
	backend  string
	width    int
	height   int
	samples  int
	vsync    bool
	headless bool
	frames   int
	output   string
	rate     int
	debug    bool
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.config, "config", "", "TOML or YAML config `file`")
	flag.StringVar(&f.backend, "backend", "", "rendering backend (gpu, software); empty picks the best available")
	flag.IntVar(&f.width, "width", 0, "window width")
	flag.IntVar(&f.height, "height", 0, "window height")
	flag.IntVar(&f.samples, "samples", 0, "multisample count")
	flag.BoolVar(&f.vsync, "vsync", true, "synchronize presentation with the display")
	flag.BoolVar(&f.headless, "headless", false, "render without a window")
	flag.IntVar(&f.frames, "frames", 120, "frames to render in headless mode")
	flag.StringVar(&f.output, "output", "", "PNG `file` receiving each headless frame")
	flag.IntVar(&f.rate, "rate", 60, "draw lists produced per second")
	flag.BoolVar(&f.debug, "debug", false, "enable debug logging")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	pas.SetLogger(log)

	if err := run(f, log); err != nil {
		log.Error("pasdemo failed", "err", err)
		os.Exit(1)
	}
}

func run(f *flags, log *slog.Logger) error {
	file := &config.File{Demo: config.DefaultDemo()}
	if f.config != "" {
		var err error
		if file, err = config.Load(f.config); err != nil {
			return err
		}
	}

	var demo atomic.Pointer[config.Demo]
	d := file.Demo
	demo.Store(&d)

	opts := append(file.Options(), pas.WithLogger(log))
	// Explicit flags override the file.
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "backend":
			opts = append(opts, pas.WithBackend(f.backend))
		case "samples":
			opts = append(opts, pas.WithSampleCount(f.samples))
		case "vsync":
			opts = append(opts, pas.WithVSync(f.vsync))
		}
	})
	if f.width > 0 && f.height > 0 {
		opts = append(opts, pas.WithSize(f.width, f.height))
	}

	var headless *window.Headless
	if f.headless {
		// A headless window has no native surface.
		if f.backend == "" && file.Render.Backend == "" {
			opts = append(opts, pas.WithBackend(software.Name))
		}
		o := pas.DefaultOptions()
		for _, opt := range opts {
			opt(&o)
		}
		headless = window.NewHeadless(o.Width, o.Height)
		headless.WritePNG(f.output)
		frames := uint64(f.frames)
		var seen atomic.Uint64
		opts = append(opts,
			pas.WithWindow(headless.Factory()),
			pas.WithFrameObserver(func(pas.FrameInfo) {
				if seen.Add(1) >= frames {
					headless.Close()
				}
			}))
	} else {
		opts = append(opts, pas.WithWindow(desktop.New))
	}

	r, err := initialize(opts, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Dispose(); err != nil {
			log.Warn("dispose", "err", err)
		}
	}()

	scene := newScene(r)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return produce(ctx, r, scene, &demo, f.rate)
	})
	if f.config != "" {
		g.Go(func() error {
			return config.Watch(ctx, f.config, func(nf *config.File) {
				d := nf.Demo
				demo.Store(&d)
			})
		})
	}

	start := time.Now()
	runErr := r.Run()
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if runErr != nil {
		return runErr
	}

	st := r.Stats()
	log.Info("done",
		"frames", st.Frames,
		"skipped", st.Skipped,
		"elapsed", time.Since(start).Round(time.Millisecond))
	if headless != nil {
		if err := headless.Err(); err != nil {
			return fmt.Errorf("write %s: %w", f.output, err)
		}
	}
	return nil
}

// initialize creates and initializes a renderer. When no backend was
// requested and the preferred one cannot start, it falls back to software.
// The fallback only works for windows that display CPU images; otherwise
// both failures are reported.
func initialize(opts []pas.Option, log *slog.Logger) (*pas.Renderer, error) {
	r := pas.New(opts...)
	err := r.Initialize()
	if err == nil {
		return r, nil
	}
	if r.Options().Backend != "" {
		return nil, err
	}
	log.Warn("preferred backend unavailable, trying software", "err", err)
	r = pas.New(append(opts, pas.WithBackend(software.Name))...)
	if ferr := r.Initialize(); ferr != nil {
		if errors.Is(ferr, software.ErrNoPresenter) {
			return nil, fmt.Errorf("no usable backend for this window: %w", errors.Join(err, ferr))
		}
		return nil, ferr
	}
	return r, nil
}
