// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/vizbuf"
)

// viewEntry records one derived indexed view: a device buffer holding
// data[indices[k]] for all k, cached by the identity of the index buffer.
//
// The entry owns nothing. indices is a back-reference compared only by ID;
// the referenced buffer's lifetime is the owner's problem, and the entry
// never dereferences it to probe liveness. view is a weak observer: once
// the last strong handle to the view buffer is released the entry is
// logically dead and gets pruned on the next cache touch.
type viewEntry[T Element] struct {
	indicesID uint64
	indices   *ManagedBuffer[uint32]

	view weakBuffer

	// gather is built lazily, only when a refresh happens while the
	// canonical data lives on the device. It holds no reference to the
	// source, destination, or index buffers between runs: everything is
	// re-bound on each refresh, so a dead view is never pinned by its
	// update program.
	gather GatherProgram
}

// IndexedView returns a device buffer holding the gather expansion
// data[indices[k]] for all k, creating and caching it on first request.
// Views are cached by the index buffer's identity: a second request with
// the same index buffer and no intervening data change returns a handle to
// the same device buffer.
//
// The caller owns the returned handle and must Release it. The cache keeps
// only a weak observer, so dropping the last handle lets the view's memory
// go; a later request simply rebuilds it.
func (m *ManagedBuffer[T]) IndexedView(indices *ManagedBuffer[uint32]) (*BufferHandle, error) {
	m.pruneDeadViews()

	// Cache hit: an entry for this index buffer whose view is still alive.
	for _, e := range m.views {
		if e.indicesID != indices.id {
			continue
		}
		if h, ok := e.view.lock(); ok {
			return h, nil
		}
	}

	// Miss: build the expansion host-side and upload it.
	if err := m.EnsurePopulated(); err != nil {
		return nil, err
	}
	if err := indices.EnsurePopulated(); err != nil {
		return nil, err
	}
	expanded, err := gatherHost(m.name, *m.data, *indices.data)
	if err != nil {
		return nil, err
	}

	buf, err := m.eng.NewAttributeBuffer(LayoutOf[T]())
	if err != nil {
		return nil, fmt.Errorf("render: buffer %q allocate indexed view: %w", m.name, err)
	}
	if err := buf.SetData(elementsAsBytes(expanded), len(expanded)); err != nil {
		return nil, fmt.Errorf("render: buffer %q upload indexed view: %w", m.name, err)
	}

	h := newBufferHandle(buf)
	m.views = append(m.views, &viewEntry[T]{
		indicesID: indices.id,
		indices:   indices,
		view:      h.downgrade(),
	})
	vizbuf.Logger().Debug("indexed view created",
		"buffer", m.name, "indices", indices.name, "elements", len(expanded))
	return h, nil
}

// IndexedViewCount returns the number of entries currently in the view
// cache, dead entries included until the next prune. Diagnostics only.
func (m *ManagedBuffer[T]) IndexedViewCount() int {
	return len(m.views)
}

// refreshViews brings every still-alive indexed view up to date with the
// canonical data. Called from MarkHostUpdated and MarkDeviceUpdated.
func (m *ManagedBuffer[T]) refreshViews() error {
	m.pruneDeadViews()

	for _, e := range m.views {
		h, ok := e.view.lock()
		if !ok {
			// Died since the prune; skipped now, removed on the next touch.
			continue
		}
		err := m.refreshView(e, h.Buffer())
		h.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

// refreshView updates one view buffer from the canonical data. The index
// buffer must still be alive here; that is the owner's contract.
func (m *ManagedBuffer[T]) refreshView(e *viewEntry[T], viewBuf AttributeBuffer) error {
	src, err := m.Source()
	if err != nil {
		return err
	}

	switch src {
	case SourceHostData:
		// Host-side update: recompute the expansion and upload wholesale.
		if err := e.indices.EnsurePopulated(); err != nil {
			return err
		}
		expanded, err := gatherHost(m.name, *m.data, *e.indices.data)
		if err != nil {
			return err
		}
		if err := viewBuf.SetData(elementsAsBytes(expanded), len(expanded)); err != nil {
			return fmt.Errorf("render: buffer %q refresh indexed view: %w", m.name, err)
		}
		return nil

	case SourceNeedsCompute:
		// A view cannot be refreshed from data that has never been
		// computed. Unreachable given call ordering, but checked.
		return fmt.Errorf("%w: buffer %q", ErrViewNeedsCompute, m.name)

	case SourceRenderBuffer:
		// Device-side update: run the gather entirely on the device to
		// avoid a GPU->host->GPU round trip of the element data.
		if err := m.ensureGatherProgram(e); err != nil {
			return err
		}
		if err := e.gather.Bind(m.device.Buffer(), viewBuf); err != nil {
			return fmt.Errorf("render: buffer %q bind gather: %w", m.name, err)
		}
		// TODO: this still round-trips the indices through the host; a
		// device-resident index stream would avoid it.
		if err := e.indices.EnsurePopulated(); err != nil {
			return err
		}
		if err := e.gather.SetIndices(*e.indices.data); err != nil {
			return fmt.Errorf("render: buffer %q set gather indices: %w", m.name, err)
		}
		if err := e.gather.Run(); err != nil {
			return fmt.Errorf("render: buffer %q device gather: %w", m.name, err)
		}
		return nil
	}
	return nil
}

// ensureGatherProgram lazily builds the device-update program for one view
// entry. It needs a concrete source buffer to make sense, so requesting it
// before the device buffer exists is an internal error.
func (m *ManagedBuffer[T]) ensureGatherProgram(e *viewEntry[T]) error {
	if e.gather != nil {
		return nil
	}
	if m.device == nil {
		return fmt.Errorf("%w: buffer %q asked for device gather", ErrMissingDeviceBuffer, m.name)
	}
	prog, err := m.eng.NewGatherProgram(LayoutOf[T]())
	if err != nil {
		return fmt.Errorf("render: buffer %q build gather program: %w", m.name, err)
	}
	e.gather = prog
	return nil
}

// pruneDeadViews drops cache entries whose view buffer has no strong
// holders left. Amortized, opportunistic: runs whenever the cache is
// touched, not on every release.
func (m *ManagedBuffer[T]) pruneDeadViews() {
	live := m.views[:0]
	for _, e := range m.views {
		if !e.view.expired() {
			live = append(live, e)
		}
	}
	clear(m.views[len(live):])
	m.views = live
}

// gatherHost computes expanded[k] = data[indices[k]] on the host. An index
// outside the data is a usage error on the caller declaring the indices.
func gatherHost[T Element](name string, data []T, indices []uint32) ([]T, error) {
	out := make([]T, len(indices))
	for k, idx := range indices {
		if int(idx) >= len(data) {
			return nil, fmt.Errorf("%w: buffer %q gather index %d at position %d, size %d",
				ErrOutOfRange, name, idx, k, len(data))
		}
		out[k] = data[idx]
	}
	return out, nil
}
