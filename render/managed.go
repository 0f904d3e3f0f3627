// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/vizbuf"
)

// nextBufferID issues process-unique buffer IDs. IDs are never reused, so
// they are safe identity keys for the indexed-view cache even across
// buffer moves and teardowns.
var nextBufferID atomic.Uint64

// DataSource identifies which representation currently holds the
// authoritative copy of a buffer's data.
type DataSource int

const (
	// SourceHostData means the host slice holds the canonical data.
	SourceHostData DataSource = iota

	// SourceNeedsCompute means no data exists yet; the compute callback
	// produces it on first access.
	SourceNeedsCompute

	// SourceRenderBuffer means the device buffer holds the canonical data.
	SourceRenderBuffer
)

// String returns the string representation of DataSource.
func (s DataSource) String() string {
	switch s {
	case SourceHostData:
		return "HostData"
	case SourceNeedsCompute:
		return "NeedsCompute"
	case SourceRenderBuffer:
		return "RenderBuffer"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ComputeFunc lazily populates a managed buffer's host slice. The callback
// must write the values into the borrowed slice and then call
// MarkHostUpdated on the owning buffer before returning.
type ComputeFunc func()

// Option configures a ManagedBuffer at construction.
type Option func(*bufferOptions)

type bufferOptions struct {
	redraw func()
}

// WithRedraw installs a callback invoked whenever a data change requires a
// redraw (host data pushed to an existing device mirror, or a device-side
// update declared). Visualization hosts use it to wake their frame loop.
func WithRedraw(fn func()) Option {
	return func(o *bufferOptions) {
		o.redraw = fn
	}
}

// ManagedBuffer synchronizes one logical array of elements between a
// borrowed host slice, a device attribute buffer, and any derived indexed
// views. At any instant exactly one representation is canonical; see
// Source for the precedence rule.
//
// The host slice stays owned by the producer. The buffer only reads and
// writes through the pointer, and the producer must declare external
// mutations with MarkHostUpdated.
//
// ManagedBuffer is NOT safe for concurrent use. All operations must run on
// the thread that owns the rendering context.
type ManagedBuffer[T Element] struct {
	name string
	id   uint64

	eng    Engine
	redraw func()

	// data is borrowed from the producer. Its length is 0 while the host
	// copy is invalid or not yet computed.
	data          *[]T
	hostPopulated bool

	getsComputed bool
	compute      ComputeFunc

	// device is the canonical device mirror, absent until first requested.
	// Once allocated it is kept in sync with declared host updates.
	device *BufferHandle

	// views holds the indexed-view cache; see views.go.
	views []*viewEntry[T]

	// Texture shape, when declared; see texture.go.
	kind DeviceBufferKind
	dims [3]int
}

// New creates a managed buffer over host data that is populated and
// maintained externally. The engine allocates any device resources the
// buffer needs later; it must not be nil.
func New[T Element](eng Engine, name string, data *[]T, opts ...Option) *ManagedBuffer[T] {
	var o bufferOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &ManagedBuffer[T]{
		name:          name,
		id:            nextBufferID.Add(1),
		eng:           eng,
		redraw:        o.redraw,
		data:          data,
		hostPopulated: true,
		kind:          DeviceBufferAttribute,
	}
}

// NewComputed creates a managed buffer whose host data is produced lazily
// by compute. The callback must fill the borrowed slice and call
// MarkHostUpdated when done.
func NewComputed[T Element](eng Engine, name string, data *[]T, compute ComputeFunc, opts ...Option) *ManagedBuffer[T] {
	var o bufferOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &ManagedBuffer[T]{
		name:         name,
		id:           nextBufferID.Add(1),
		eng:          eng,
		redraw:       o.redraw,
		data:         data,
		getsComputed: true,
		compute:      compute,
		kind:         DeviceBufferAttribute,
	}
}

// Name returns the buffer's diagnostic name.
func (m *ManagedBuffer[T]) Name() string { return m.name }

// ID returns the buffer's process-unique identity. It never changes and is
// never reused for another live buffer.
func (m *ManagedBuffer[T]) ID() uint64 { return m.id }

// Layout returns the element layout of the buffer.
func (m *ManagedBuffer[T]) Layout() ElementLayout { return LayoutOf[T]() }

// Source resolves which representation currently holds the canonical data.
// Host data, once declared populated, always wins: a device mirror is
// assumed stale as soon as a host-side write is known to have occurred.
func (m *ManagedBuffer[T]) Source() (DataSource, error) {
	if m.hostPopulated {
		return SourceHostData, nil
	}
	if m.device != nil {
		return SourceRenderBuffer, nil
	}
	if m.getsComputed {
		return SourceNeedsCompute, nil
	}
	return 0, fmt.Errorf("%w: buffer %q", ErrNoDataSource, m.name)
}

// EnsurePopulated drives the host slice to a valid state regardless of
// where the data currently lives: a no-op if the host copy is current,
// invokes the compute callback if the data has never been produced, or
// copies the full device buffer back to the host if the device is
// canonical. In the device case the device stays canonical afterward; the
// host copy is a snapshot until MarkHostUpdated declares otherwise.
func (m *ManagedBuffer[T]) EnsurePopulated() error {
	src, err := m.Source()
	if err != nil {
		return err
	}

	switch src {
	case SourceHostData:
		// Host copy is current.
		return nil

	case SourceNeedsCompute:
		m.compute()
		return nil

	case SourceRenderBuffer:
		if m.device == nil {
			return fmt.Errorf("%w: buffer %q", ErrMissingDeviceBuffer, m.name)
		}
		buf := m.device.Buffer()
		n := buf.Len()
		raw, err := buf.Bytes(0, n)
		if err != nil {
			return fmt.Errorf("render: buffer %q device readback: %w", m.name, err)
		}
		*m.data = bytesToElements[T](raw)
		vizbuf.Logger().Debug("host buffer mirrored from device",
			"buffer", m.name, "elements", n)
		return nil
	}
	return nil
}

// PopulatedHost calls EnsurePopulated and returns the host slice. The
// slice is valid until the next mutating call on the buffer.
func (m *ManagedBuffer[T]) PopulatedHost() ([]T, error) {
	if err := m.EnsurePopulated(); err != nil {
		return nil, err
	}
	return *m.data, nil
}

// Value returns the i-th element without materializing the whole host
// slice: it reads through whichever representation is canonical. Reading
// from the device is expensive; avoid calling it in a loop. The bound is
// checked against the active representation's own size, which can differ
// by source while the buffer is mid-transition.
func (m *ManagedBuffer[T]) Value(i int) (T, error) {
	var zero T

	src, err := m.Source()
	if err != nil {
		return zero, err
	}

	switch src {
	case SourceHostData:
		if i < 0 || i >= len(*m.data) {
			return zero, fmt.Errorf("%w: buffer %q index %d size %d", ErrOutOfRange, m.name, i, len(*m.data))
		}
		return (*m.data)[i], nil

	case SourceNeedsCompute:
		m.compute()
		if i < 0 || i >= len(*m.data) {
			return zero, fmt.Errorf("%w: buffer %q index %d size %d", ErrOutOfRange, m.name, i, len(*m.data))
		}
		return (*m.data)[i], nil

	case SourceRenderBuffer:
		buf := m.device.Buffer()
		if i < 0 || i >= buf.Len() {
			return zero, fmt.Errorf("%w: buffer %q index %d size %d", ErrOutOfRange, m.name, i, buf.Len())
		}
		raw, err := buf.ElementBytes(i)
		if err != nil {
			return zero, fmt.Errorf("render: buffer %q device element read: %w", m.name, err)
		}
		elems := bytesToElements[T](raw)
		if len(elems) == 0 {
			return zero, fmt.Errorf("render: buffer %q device element read returned %d bytes", m.name, len(raw))
		}
		return elems[0], nil
	}
	return zero, nil
}

// Size returns the element count of the canonical representation. It is 0
// while the data has never been computed (the size is simply unknown) and
// 0 when no source can be resolved; the consistency error itself surfaces
// from the error-returning accessors.
func (m *ManagedBuffer[T]) Size() int {
	src, err := m.Source()
	if err != nil {
		return 0
	}
	switch src {
	case SourceHostData:
		return len(*m.data)
	case SourceNeedsCompute:
		return 0
	case SourceRenderBuffer:
		return m.device.Buffer().Len()
	}
	return 0
}

// HasData reports whether valid data exists on either the host or the
// device, independent of whether the buffer could compute some.
func (m *ManagedBuffer[T]) HasData() bool {
	return m.hostPopulated || m.device != nil
}

// MarkHostUpdated declares that the host slice now holds the authoritative
// data, e.g. after the producer mutated it directly. If a device mirror
// already exists the full host contents are pushed into it immediately,
// keeping the mirror warm instead of invalidating it and paying a
// re-upload later, and a redraw is requested. All still-alive indexed
// views are refreshed.
func (m *ManagedBuffer[T]) MarkHostUpdated() error {
	m.hostPopulated = true

	if m.device != nil {
		raw := elementsAsBytes(*m.data)
		if err := m.device.Buffer().SetData(raw, len(*m.data)); err != nil {
			return fmt.Errorf("render: buffer %q push host data: %w", m.name, err)
		}
		m.requestRedraw()
	}

	return m.refreshViews()
}

// InvalidateHost declares the host copy stale and truncates the borrowed
// slice. The data must be recomputed or fetched back from the device
// before the next host read.
func (m *ManagedBuffer[T]) InvalidateHost() {
	m.hostPopulated = false
	*m.data = (*m.data)[:0]
}

// MarkDeviceUpdated declares that the device buffer now holds the
// authoritative data, written directly on the GPU bypassing the host. The
// host copy is invalidated lazily (no immediate read-back), indexed views
// refresh from the device, and a redraw is requested.
func (m *ManagedBuffer[T]) MarkDeviceUpdated() error {
	m.InvalidateHost()
	if err := m.refreshViews(); err != nil {
		return err
	}
	m.requestRedraw()
	return nil
}

// RecomputeIfPopulated forces an eager invalidate + recompute, but only if
// the data has actually been computed before; on a buffer still waiting
// for its first access it is a no-op, leaving recomputation deferred.
// Calling it on a buffer with no compute function is a usage error.
func (m *ManagedBuffer[T]) RecomputeIfPopulated() error {
	if !m.getsComputed {
		return fmt.Errorf("%w: buffer %q", ErrNoComputeFunc, m.name)
	}

	src, err := m.Source()
	if err != nil {
		return err
	}
	if src == SourceNeedsCompute {
		return nil
	}

	m.InvalidateHost()
	m.compute()
	return m.MarkHostUpdated()
}

// RenderBuffer returns a shared handle to the device mirror of the data,
// allocating and populating it on first request. The caller owns the
// returned handle and must Release it; the buffer keeps its own reference
// for the lifetime of the ManagedBuffer.
func (m *ManagedBuffer[T]) RenderBuffer() (*BufferHandle, error) {
	if m.device == nil {
		// Populate first: allocation order matters because the populated
		// flag decides which source is canonical afterward.
		if err := m.EnsurePopulated(); err != nil {
			return nil, err
		}
		buf, err := m.eng.NewAttributeBuffer(LayoutOf[T]())
		if err != nil {
			return nil, fmt.Errorf("render: buffer %q allocate device buffer: %w", m.name, err)
		}
		if err := buf.SetData(elementsAsBytes(*m.data), len(*m.data)); err != nil {
			return nil, fmt.Errorf("render: buffer %q upload: %w", m.name, err)
		}
		m.device = newBufferHandle(buf)
		vizbuf.Logger().Debug("device buffer allocated",
			"buffer", m.name, "layout", LayoutOf[T]().String(), "elements", len(*m.data))
	}
	return m.device.Retain(), nil
}

func (m *ManagedBuffer[T]) requestRedraw() {
	if m.redraw != nil {
		m.redraw()
	}
}
