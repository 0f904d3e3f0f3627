// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "errors"

// Core errors. Consistency errors (ErrNoDataSource, ErrMissingDeviceBuffer,
// ErrViewNeedsCompute) indicate a call-ordering bug inside or around the
// core and are not recoverable; usage errors (ErrOutOfRange,
// ErrNoComputeFunc, ErrTextureShape) are caller mistakes and carry enough
// context to diagnose.
var (
	// ErrNoDataSource is returned when a buffer holds no data on the host
	// or the device and has no compute function to produce any.
	ErrNoDataSource = errors.New("render: buffer has no data source")

	// ErrMissingDeviceBuffer is returned when the device buffer should be
	// allocated but is not.
	ErrMissingDeviceBuffer = errors.New("render: device buffer should be allocated but is not")

	// ErrViewNeedsCompute is returned when an indexed view refresh is
	// attempted while the source data has never been computed.
	ErrViewNeedsCompute = errors.New("render: indexed view refresh requires computed data")

	// ErrOutOfRange is returned on out-of-bounds element access.
	ErrOutOfRange = errors.New("render: index out of range")

	// ErrNoComputeFunc is returned when recomputation is requested on a
	// buffer that has no compute function.
	ErrNoComputeFunc = errors.New("render: buffer has no compute function")

	// ErrTextureShape is returned when texture-shaped access does not match
	// the declared texture size.
	ErrTextureShape = errors.New("render: texture shape mismatch")
)

// AttributeBuffer is a device-resident buffer of elements with a fixed
// layout. Implementations live in the backend packages; the core only
// mutates a buffer's contents, never its identity, so bindings held
// elsewhere stay valid.
type AttributeBuffer interface {
	// Layout returns the element layout the buffer was allocated for.
	Layout() ElementLayout

	// Len returns the current element count.
	Len() int

	// SetData replaces the buffer contents with count elements read from
	// raw, resizing the device allocation if needed.
	SetData(raw []byte, count int) error

	// Bytes reads count elements back into host memory, starting at
	// element index first.
	Bytes(first, count int) ([]byte, error)

	// ElementBytes reads back the single element at index i.
	ElementBytes(i int) ([]byte, error)
}

// GatherProgram is a minimal device-side pass that copies
// src[indices[k]] -> dst[k] for all k, entirely without a host round trip
// of the element data. Programs hold no ownership of the buffers bound to
// them; callers re-bind before every Run.
type GatherProgram interface {
	// Bind sets the source and destination streams for the next Run.
	Bind(src, dst AttributeBuffer) error

	// SetIndices sets the gather indices for the next Run.
	SetIndices(indices []uint32) error

	// Run executes the gather once, synchronously.
	Run() error
}

// Engine allocates device resources for managed buffers. It is the one
// external collaborator the core depends on; pass it explicitly into
// constructors rather than reaching for a process global, so the core
// stays testable without a real GPU context.
type Engine interface {
	// Name returns the engine identifier (e.g., "software", "wgpu").
	Name() string

	// NewAttributeBuffer allocates an empty device buffer for the given
	// element layout.
	NewAttributeBuffer(layout ElementLayout) (AttributeBuffer, error)

	// NewGatherProgram builds an indexed-copy program specialized for the
	// given element layout.
	NewGatherProgram(layout ElementLayout) (GatherProgram, error)
}
