// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

// handleState is the shared ownership record behind every strong and weak
// handle to one device buffer. Not safe for concurrent use; handles follow
// the same single-threaded model as the rest of the core.
type handleState struct {
	buf  AttributeBuffer
	refs int
}

// destroyer is implemented by engine buffers that need explicit teardown
// (GPU allocations). Buffers without it (the software engine) are simply
// dropped for the collector.
type destroyer interface {
	Destroy()
}

func (s *handleState) release() {
	s.refs--
	if s.refs > 0 {
		return
	}
	if d, ok := s.buf.(destroyer); ok {
		d.Destroy()
	}
	s.buf = nil
}

// BufferHandle is a strong, shared handle to a device buffer. Every handle
// must be released exactly once; the underlying buffer is destroyed when
// the last strong handle releases. Retain produces additional independent
// handles sharing the same buffer.
type BufferHandle struct {
	state    *handleState
	released bool
}

// newBufferHandle wraps a freshly allocated engine buffer in a strong
// handle with a reference count of one.
func newBufferHandle(buf AttributeBuffer) *BufferHandle {
	return &BufferHandle{state: &handleState{buf: buf, refs: 1}}
}

// Buffer returns the underlying device buffer. Returns nil if the handle
// has been released.
func (h *BufferHandle) Buffer() AttributeBuffer {
	if h == nil || h.released {
		return nil
	}
	return h.state.buf
}

// Retain returns a new strong handle sharing the same device buffer.
// Returns nil if this handle has already been released.
func (h *BufferHandle) Retain() *BufferHandle {
	if h == nil || h.released {
		return nil
	}
	h.state.refs++
	return &BufferHandle{state: h.state}
}

// Release drops this handle's reference. Releasing the last strong handle
// destroys the underlying buffer. Releasing twice is a no-op.
func (h *BufferHandle) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	h.state.release()
}

// downgrade returns a weak observer that can detect whether any strong
// handle is still alive, without keeping the buffer alive itself.
func (h *BufferHandle) downgrade() weakBuffer {
	return weakBuffer{state: h.state}
}

// weakBuffer observes a shared device buffer without owning it. It is the
// cache-side half of the indexed-view relation: once the last strong
// handle releases, the entry it backs is logically dead.
type weakBuffer struct {
	state *handleState
}

// expired reports whether all strong handles have been released.
func (w weakBuffer) expired() bool {
	return w.state == nil || w.state.refs <= 0
}

// lock upgrades the weak observer to a new strong handle, or returns
// (nil, false) if the buffer is already gone.
func (w weakBuffer) lock() (*BufferHandle, bool) {
	if w.expired() {
		return nil, false
	}
	w.state.refs++
	return &BufferHandle{state: w.state}, true
}
