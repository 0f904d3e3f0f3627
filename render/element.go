// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"unsafe"
)

// Small fixed-size vector types used as buffer elements. They are plain
// arrays so their in-memory layout matches the tightly packed layout the
// device expects, with no padding.
type (
	// Vec2 is a 2-component float32 vector.
	Vec2 [2]float32
	// Vec3 is a 3-component float32 vector.
	Vec3 [3]float32
	// Vec4 is a 4-component float32 vector.
	Vec4 [4]float32

	// UVec2 is a 2-component uint32 vector.
	UVec2 [2]uint32
	// UVec3 is a 3-component uint32 vector.
	UVec3 [3]uint32
	// UVec4 is a 4-component uint32 vector.
	UVec4 [4]uint32
)

// Element is the closed set of element types a ManagedBuffer can hold.
// Fixed arrays of Vec3 cover multi-vector attributes such as the per-face
// corner positions used for flat-shaded rendering.
type Element interface {
	float32 | float64 | uint32 | int32 |
		Vec2 | Vec3 | Vec4 |
		UVec2 | UVec3 | UVec4 |
		[2]Vec3 | [3]Vec3 | [4]Vec3
}

// ElementLayout identifies the memory layout of one buffer element.
// Engines use it to size device allocations and to specialize gather
// programs.
type ElementLayout int

const (
	// LayoutFloat32 is a single 32-bit float.
	LayoutFloat32 ElementLayout = iota
	// LayoutFloat64 is a single 64-bit float.
	LayoutFloat64
	// LayoutUint32 is a single 32-bit unsigned integer.
	LayoutUint32
	// LayoutInt32 is a single 32-bit signed integer.
	LayoutInt32
	// LayoutVec2 is a 2-component float32 vector.
	LayoutVec2
	// LayoutVec3 is a 3-component float32 vector.
	LayoutVec3
	// LayoutVec4 is a 4-component float32 vector.
	LayoutVec4
	// LayoutUVec2 is a 2-component uint32 vector.
	LayoutUVec2
	// LayoutUVec3 is a 3-component uint32 vector.
	LayoutUVec3
	// LayoutUVec4 is a 4-component uint32 vector.
	LayoutUVec4
	// LayoutVec3Pair is a fixed array of 2 Vec3.
	LayoutVec3Pair
	// LayoutVec3Triple is a fixed array of 3 Vec3.
	LayoutVec3Triple
	// LayoutVec3Quad is a fixed array of 4 Vec3.
	LayoutVec3Quad
)

// String returns the string representation of ElementLayout.
func (l ElementLayout) String() string {
	switch l {
	case LayoutFloat32:
		return "Float32"
	case LayoutFloat64:
		return "Float64"
	case LayoutUint32:
		return "Uint32"
	case LayoutInt32:
		return "Int32"
	case LayoutVec2:
		return "Vec2"
	case LayoutVec3:
		return "Vec3"
	case LayoutVec4:
		return "Vec4"
	case LayoutUVec2:
		return "UVec2"
	case LayoutUVec3:
		return "UVec3"
	case LayoutUVec4:
		return "UVec4"
	case LayoutVec3Pair:
		return "Vec3Pair"
	case LayoutVec3Triple:
		return "Vec3Triple"
	case LayoutVec3Quad:
		return "Vec3Quad"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// Size returns the element size in bytes.
func (l ElementLayout) Size() int {
	switch l {
	case LayoutFloat32, LayoutUint32, LayoutInt32:
		return 4
	case LayoutFloat64, LayoutVec2, LayoutUVec2:
		return 8
	case LayoutVec3, LayoutUVec3:
		return 12
	case LayoutVec4, LayoutUVec4:
		return 16
	case LayoutVec3Pair:
		return 24
	case LayoutVec3Triple:
		return 36
	case LayoutVec3Quad:
		return 48
	default:
		return 0
	}
}

// Words returns the element size in 32-bit words. Every supported layout
// is a whole number of words, which is what lets gather programs treat
// all layouts as word streams.
func (l ElementLayout) Words() int {
	return l.Size() / 4
}

// LayoutOf returns the ElementLayout for the element type T.
func LayoutOf[T Element]() ElementLayout {
	var zero T
	switch any(zero).(type) {
	case float32:
		return LayoutFloat32
	case float64:
		return LayoutFloat64
	case uint32:
		return LayoutUint32
	case int32:
		return LayoutInt32
	case Vec2:
		return LayoutVec2
	case Vec3:
		return LayoutVec3
	case Vec4:
		return LayoutVec4
	case UVec2:
		return LayoutUVec2
	case UVec3:
		return LayoutUVec3
	case UVec4:
		return LayoutUVec4
	case [2]Vec3:
		return LayoutVec3Pair
	case [3]Vec3:
		return LayoutVec3Triple
	case [4]Vec3:
		return LayoutVec3Quad
	default:
		// Unreachable: Element is a closed constraint.
		panic(fmt.Sprintf("render: unsupported element type %T", zero))
	}
}

// elementsAsBytes reinterprets a slice of elements as its raw byte
// representation without copying. Valid because every Element type is a
// fixed-size value with no pointers or padding. The returned slice aliases
// data and is only safe to use while data is alive and unmodified.
func elementsAsBytes[T Element](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	n := len(data) * int(unsafe.Sizeof(data[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), n)
}

// bytesToElements decodes raw bytes (as produced by elementsAsBytes or a
// device readback) into a freshly allocated element slice. Decoding copies
// rather than aliasing: byte slices returned by an engine carry no
// alignment guarantee for wider element types.
func bytesToElements[T Element](raw []byte) []T {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	count := len(raw) / elemSize
	if count == 0 {
		return nil
	}
	out := make([]T, count)
	copy(elementsAsBytes(out), raw[:count*elemSize])
	return out
}
