package pas

import (
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// MeshHandle references a range of the shared geometry buffers.
// Offsets and counts are in elements (vertices, indices), not bytes.
//
// A handle is valid for the lifetime of the registry that issued it:
// buffers only grow, so its range is never moved or reused.
type MeshHandle struct {
	VertexOffset int
	VertexCount  int
	IndexOffset  int
	IndexCount   int
}

// Empty reports whether the handle references no indices.
func (h MeshHandle) Empty() bool { return h.IndexCount == 0 }

// GeometryRegistry is an append-only store of mesh vertices and indices.
//
// Register may be called from any goroutine. Sync is called by the render
// thread to copy the buffers to the GPU. Both hold the same lock, so a sync
// observes either the state before or after a registration, never a partial
// append.
//
// Indices are local to their mesh: index 0 refers to the mesh's first vertex.
// Draw calls pass VertexOffset as the base vertex.
type GeometryRegistry struct {
	mu       sync.Mutex
	vertices []mgl32.Vec2
	indices  []uint32
	dirty    bool
	log      *slog.Logger
}

// NewGeometryRegistry creates an empty registry.
// A nil logger uses the package logger.
func NewGeometryRegistry(log *slog.Logger) *GeometryRegistry {
	if log == nil {
		log = Logger()
	}
	return &GeometryRegistry{log: log}
}

// Register appends a mesh and returns its handle. It never fails.
// The input slices are copied; callers may reuse them afterwards.
func (g *GeometryRegistry) Register(vertices []mgl32.Vec2, indices []uint32) MeshHandle {
	g.mu.Lock()
	h := MeshHandle{
		VertexOffset: len(g.vertices),
		VertexCount:  len(vertices),
		IndexOffset:  len(g.indices),
		IndexCount:   len(indices),
	}
	g.vertices = append(g.vertices, vertices...)
	g.indices = append(g.indices, indices...)
	g.dirty = true
	g.mu.Unlock()

	g.logger().Debug("mesh registered",
		"vertexOffset", h.VertexOffset, "vertexCount", h.VertexCount,
		"indexOffset", h.IndexOffset, "indexCount", h.IndexCount)
	return h
}

// Sync calls upload with the full buffer contents if geometry was registered
// since the last successful sync. It reports whether upload ran.
//
// upload runs with the registry locked and must not retain the slices or
// call Register. The dirty flag is cleared only if upload succeeds, so a
// failed upload is retried on the next call.
func (g *GeometryRegistry) Sync(upload func(vertices []mgl32.Vec2, indices []uint32) error) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.dirty {
		return false, nil
	}
	if err := upload(g.vertices, g.indices); err != nil {
		return true, err
	}
	g.dirty = false
	g.logger().Debug("geometry uploaded", "vertices", len(g.vertices), "indices", len(g.indices))
	return true, nil
}

// Dirty reports whether registered geometry has not been synced yet.
func (g *GeometryRegistry) Dirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dirty
}

// Len returns the number of vertices and indices stored.
func (g *GeometryRegistry) Len() (vertices, indices int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.vertices), len(g.indices)
}

func (g *GeometryRegistry) logger() *slog.Logger {
	if g.log == nil {
		return Logger()
	}
	return g.log
}
