// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "fmt"

// DeviceBufferKind distinguishes flat attribute buffers from texture-shaped
// ones. Texture shape is metadata over the same flat element storage; it
// adds multi-dimensional addressing, not a different device resource.
type DeviceBufferKind int

const (
	// DeviceBufferAttribute is a flat, attribute-accessed buffer.
	DeviceBufferAttribute DeviceBufferKind = iota
	// DeviceBufferTexture1D is a buffer addressed as a 1D texture.
	DeviceBufferTexture1D
	// DeviceBufferTexture2D is a buffer addressed as a 2D texture.
	DeviceBufferTexture2D
	// DeviceBufferTexture3D is a buffer addressed as a 3D texture.
	DeviceBufferTexture3D
)

// String returns the string representation of DeviceBufferKind.
func (k DeviceBufferKind) String() string {
	switch k {
	case DeviceBufferAttribute:
		return "Attribute"
	case DeviceBufferTexture1D:
		return "Texture1D"
	case DeviceBufferTexture2D:
		return "Texture2D"
	case DeviceBufferTexture3D:
		return "Texture3D"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Kind returns how the buffer is addressed: flat attribute (the default)
// or as a 1/2/3-dimensional texture.
func (m *ManagedBuffer[T]) Kind() DeviceBufferKind { return m.kind }

// SetTextureSize1D declares the buffer to be a 1D texture of width w.
func (m *ManagedBuffer[T]) SetTextureSize1D(w int) {
	m.kind = DeviceBufferTexture1D
	m.dims = [3]int{w, 1, 1}
}

// SetTextureSize2D declares the buffer to be a 2D texture of w by h
// elements, stored row-major.
func (m *ManagedBuffer[T]) SetTextureSize2D(w, h int) {
	m.kind = DeviceBufferTexture2D
	m.dims = [3]int{w, h, 1}
}

// SetTextureSize3D declares the buffer to be a 3D texture of w by h by d
// elements, stored row-major with x fastest.
func (m *ManagedBuffer[T]) SetTextureSize3D(w, h, d int) {
	m.kind = DeviceBufferTexture3D
	m.dims = [3]int{w, h, d}
}

// TextureSize returns the declared texture dimensions. Unused trailing
// dimensions are 1; all three are 0 for plain attribute buffers.
func (m *ManagedBuffer[T]) TextureSize() (w, h, d int) {
	if m.kind == DeviceBufferAttribute {
		return 0, 0, 0
	}
	return m.dims[0], m.dims[1], m.dims[2]
}

// ValueAt2 returns the element at texel (x, y) of a 2D-texture-shaped
// buffer. Only valid after SetTextureSize2D.
func (m *ManagedBuffer[T]) ValueAt2(x, y int) (T, error) {
	var zero T
	if m.kind != DeviceBufferTexture2D {
		return zero, fmt.Errorf("%w: buffer %q is %s, want Texture2D", ErrTextureShape, m.name, m.kind)
	}
	if x < 0 || x >= m.dims[0] || y < 0 || y >= m.dims[1] {
		return zero, fmt.Errorf("%w: buffer %q texel (%d, %d) outside %dx%d",
			ErrOutOfRange, m.name, x, y, m.dims[0], m.dims[1])
	}
	return m.Value(x + m.dims[0]*y)
}

// ValueAt3 returns the element at texel (x, y, z) of a 3D-texture-shaped
// buffer. Only valid after SetTextureSize3D.
func (m *ManagedBuffer[T]) ValueAt3(x, y, z int) (T, error) {
	var zero T
	if m.kind != DeviceBufferTexture3D {
		return zero, fmt.Errorf("%w: buffer %q is %s, want Texture3D", ErrTextureShape, m.name, m.kind)
	}
	if x < 0 || x >= m.dims[0] || y < 0 || y >= m.dims[1] || z < 0 || z >= m.dims[2] {
		return zero, fmt.Errorf("%w: buffer %q texel (%d, %d, %d) outside %dx%dx%d",
			ErrOutOfRange, m.name, x, y, z, m.dims[0], m.dims[1], m.dims[2])
	}
	return m.Value(x + m.dims[0]*(y+m.dims[1]*z))
}
