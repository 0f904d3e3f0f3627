// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides the managed-buffer core: synchronization between
// a host-side data slice, its device-side attribute buffer, and any derived
// indexed views, with at most one canonical copy of the data at any time.
//
// # Managed buffers
//
// A ManagedBuffer wraps a slice owned by a producer (a point cloud's
// positions, a mesh's per-vertex scalars) and tracks where the
// authoritative copy of that data currently lives: the host slice, the
// device attribute buffer, or nowhere yet (lazily computed). Consumers ask
// for whichever representation they need and the buffer materializes it on
// demand:
//
//	values := []float32{1, 2, 3}
//	buf := render.New(eng, "values", &values)
//
//	h, _ := buf.RenderBuffer() // device mirror, created on first request
//	defer h.Release()
//
// After mutating the host slice, the producer must declare the update so
// the device mirror and any indexed views stay current:
//
//	values[0] = 9
//	_ = buf.MarkHostUpdated()
//
// # Engines
//
// The package is deliberately engine-agnostic. Device resources are
// reached only through the Engine, AttributeBuffer, and GatherProgram
// interfaces; see backend/software and backend/wgpu for implementations.
//
// # Concurrency
//
// All types in this package follow a single-threaded cooperative model:
// every operation on a ManagedBuffer must run on the one thread that owns
// the rendering context. There is no internal locking.
package render
