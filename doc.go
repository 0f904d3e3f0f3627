// Package vizbuf provides managed data buffers for real-time scientific
// visualization.
//
// # Overview
//
// Applications that visualize scientific data keep the same logical array
// in several places at once: a host-side slice owned by the producer, a
// device-side attribute buffer bound to draw calls, and derived indexed
// views (per-corner expansions of per-vertex data, for example). vizbuf
// keeps all of these consistent with at most one canonical copy at any
// time, no matter which side mutated last.
//
// The core type is render.ManagedBuffer, a generic wrapper over a borrowed
// host slice that lazily materializes whichever representation a consumer
// asks for, and propagates updates to every still-referenced derived view.
//
// # Quick Start
//
//	eng := software.NewEngine()
//	_ = eng.Init()
//	defer eng.Close()
//
//	positions := []render.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
//	buf := render.New(eng, "positions", &positions)
//
//	// Mutate on the host, then declare the update.
//	positions[0] = render.Vec3{2, 2, 2}
//	_ = buf.MarkHostUpdated()
//
// # Engines
//
// Device resources are allocated through a render.Engine. Two engines ship
// with the library: backend/software (pure CPU, used as fallback and in
// tests) and backend/wgpu (gogpu/wgpu compute). Engines register
// themselves with the backend registry on import:
//
//	import _ "github.com/gogpu/vizbuf/backend/wgpu"
//
// # Concurrency
//
// Managed buffers follow a single-threaded cooperative model: all
// operations on a buffer must run on the one thread that owns the GPU
// context. The backend registry and caches are safe for concurrent use.
package vizbuf

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2
)
