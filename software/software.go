// Package software registers the CPU rendering backend.
//
// Import it for side effects:
//
//	import _ "github.com/RTMecha/ParallelAnimationSystem/software"
//
// The backend is registered as "software". It has the lowest automatic
// selection priority, so it is chosen when no GPU backend is registered
// or when requested with pas.WithBackend("software"). Frames are handed to
// the window's PresentImage method; windows without one are rejected with
// ErrNoPresenter.
package software

import (
	pas "github.com/RTMecha/ParallelAnimationSystem"
	"github.com/RTMecha/ParallelAnimationSystem/internal/raster"
)

// Name is the registry name of the CPU backend.
const Name = "software"

// ErrNoPresenter is returned by Initialize when the window cannot display
// CPU images.
var ErrNoPresenter = raster.ErrNoPresenter

func init() {
	pas.RegisterBackend(Name, func() pas.Backend { return raster.New() })
}
