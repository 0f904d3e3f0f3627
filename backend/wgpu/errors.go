//go:build !nogpu

package wgpu

import "errors"

// Engine errors.
var (
	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("wgpu: engine not initialized")

	// ErrNoGPU is returned when no usable GPU adapter is available.
	ErrNoGPU = errors.New("wgpu: no GPU adapter available")

	// ErrForeignBuffer is returned when a program is bound to a buffer
	// that was not allocated by this engine.
	ErrForeignBuffer = errors.New("wgpu: buffer was not allocated by this engine")

	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("wgpu: buffer has been destroyed")

	// ErrInvalidRange is returned when a readback range is out of bounds.
	ErrInvalidRange = errors.New("wgpu: read range out of bounds")

	// ErrUnbound is returned when a gather program runs before Bind.
	ErrUnbound = errors.New("wgpu: gather program has no bound buffers")

	// ErrNilProvider is returned when a nil device provider is passed.
	ErrNilProvider = errors.New("wgpu: nil device provider")

	// ErrNoHALAccess is returned when a device provider cannot expose its
	// underlying HAL device and queue.
	ErrNoHALAccess = errors.New("wgpu: device provider does not expose HAL device access")
)
