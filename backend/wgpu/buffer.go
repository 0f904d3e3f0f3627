//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vizbuf/render"
)

// deviceBuffer is a storage-buffer-backed attribute buffer. The HAL buffer
// is allocated lazily on first upload and reallocated when the data grows
// past its capacity, so the Go-side wrapper keeps a stable identity across
// resizes.
type deviceBuffer struct {
	eng    *Engine
	layout render.ElementLayout

	hal       hal.Buffer
	capBytes  uint64
	count     int
	destroyed bool
}

// Layout returns the element layout the buffer was allocated for.
func (b *deviceBuffer) Layout() render.ElementLayout {
	return b.layout
}

// Len returns the current element count.
func (b *deviceBuffer) Len() int {
	return b.count
}

// SetData replaces the buffer contents with count elements from raw.
func (b *deviceBuffer) SetData(raw []byte, count int) error {
	if b.destroyed {
		return ErrBufferDestroyed
	}
	n := count * b.layout.Size()
	if len(raw) < n {
		return fmt.Errorf("wgpu: SetData got %d bytes, want %d for %d %s elements",
			len(raw), n, count, b.layout)
	}
	if err := b.ensureCapacity(uint64(n)); err != nil {
		return err
	}
	if n > 0 {
		b.eng.queue.WriteBuffer(b.hal, 0, raw[:n])
	}
	b.count = count
	return nil
}

// Bytes reads count elements starting at element index first back to the
// host. The copy goes through a transient staging buffer with one submit
// and fence wait per call.
func (b *deviceBuffer) Bytes(first, count int) ([]byte, error) {
	if b.destroyed {
		return nil, ErrBufferDestroyed
	}
	if first < 0 || count < 0 || first+count > b.count {
		return nil, fmt.Errorf("%w: [%d, %d) of %d elements", ErrInvalidRange, first, first+count, b.count)
	}
	size := b.layout.Size()
	byteLen := uint64(count * size)
	out := make([]byte, byteLen)
	if count == 0 {
		return out, nil
	}

	staging, err := b.eng.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "vizbuf_staging", Size: byteLen,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer b.eng.device.DestroyBuffer(staging)

	encoder, err := b.eng.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "vizbuf_readback"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("vizbuf_readback"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(b.hal, staging, []hal.BufferCopy{
		{SrcOffset: uint64(first * size), DstOffset: 0, Size: byteLen},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.eng.device.FreeCommandBuffer(cmdBuf)

	if err := b.eng.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}
	if err := b.eng.queue.ReadBuffer(staging, 0, out); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return out, nil
}

// ElementBytes reads back the single element at index i.
func (b *deviceBuffer) ElementBytes(i int) ([]byte, error) {
	return b.Bytes(i, 1)
}

// Destroy releases the HAL allocation and untracks the buffer. Called when
// the last handle to the buffer is released.
func (b *deviceBuffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyHAL()
	delete(b.eng.buffers, b)
}

// ensureCapacity (re)allocates the HAL buffer when byteLen exceeds the
// current allocation. Contents are not preserved across reallocation;
// callers always follow with a full upload.
func (b *deviceBuffer) ensureCapacity(byteLen uint64) error {
	if byteLen == 0 || byteLen <= b.capBytes {
		return nil
	}
	if b.hal != nil {
		b.eng.device.DestroyBuffer(b.hal)
		b.hal = nil
		b.capBytes = 0
	}
	buf, err := b.eng.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "vizbuf_attribute", Size: byteLen,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create attribute buffer (%d bytes): %w", byteLen, err)
	}
	b.hal = buf
	b.capBytes = byteLen
	return nil
}

// destroyHAL releases the HAL buffer without touching the engine's
// tracking map. Close iterates that map itself.
func (b *deviceBuffer) destroyHAL() {
	if b.hal != nil {
		b.eng.device.DestroyBuffer(b.hal)
		b.hal = nil
	}
	b.capBytes = 0
	b.count = 0
	b.destroyed = true
}
