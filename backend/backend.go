package backend

import (
	"errors"

	"github.com/gogpu/vizbuf/render"
)

// Common backend errors.
var (
	// ErrEngineNotAvailable is returned when a requested engine is not available.
	ErrEngineNotAvailable = errors.New("backend: engine not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: engine not initialized")
)

// Engine name constants.
const (
	// EngineSoftware is the name of the CPU-based engine.
	EngineSoftware = "software"
	// EngineWGPU is the name of the GPU engine (gogpu/wgpu).
	EngineWGPU = "wgpu"
)

// Engine is a render.Engine with an explicit lifecycle. Engines own the
// device resources they hand out and release all of them on Close.
//
// Engines must be registered via Register() and are selected via Get() or
// Default().
type Engine interface {
	render.Engine

	// Init acquires the engine's device context. It must be called before
	// any allocation.
	Init() error

	// Close releases all engine resources, including every buffer the
	// engine ever allocated. The engine must not be used after Close.
	Close()
}
