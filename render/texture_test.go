// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render_test

import (
	"errors"
	"testing"

	"github.com/gogpu/vizbuf/backend/software"
	"github.com/gogpu/vizbuf/render"
)

func TestTextureShape(t *testing.T) {
	eng := software.NewEngine()
	if err := eng.Init(); err != nil {
		t.Fatalf("engine init: %v", err)
	}
	defer eng.Close()

	data := []render.Vec4{
		{1, 0, 0, 1}, {0, 1, 0, 1},
		{0, 0, 1, 1}, {1, 1, 1, 1},
	}
	mb := render.New(eng, "image", &data)

	if mb.Kind() != render.DeviceBufferAttribute {
		t.Errorf("default kind: %v, want Attribute", mb.Kind())
	}
	if w, h, d := mb.TextureSize(); w != 0 || h != 0 || d != 0 {
		t.Errorf("attribute texture size: %dx%dx%d, want 0x0x0", w, h, d)
	}

	mb.SetTextureSize2D(2, 2)
	if mb.Kind() != render.DeviceBufferTexture2D {
		t.Errorf("kind: %v, want Texture2D", mb.Kind())
	}
	if w, h, d := mb.TextureSize(); w != 2 || h != 2 || d != 1 {
		t.Errorf("texture size: %dx%dx%d, want 2x2x1", w, h, d)
	}

	// Row-major: (1, 1) is the last element.
	got, err := mb.ValueAt2(1, 1)
	if err != nil {
		t.Fatalf("ValueAt2: %v", err)
	}
	if got != (render.Vec4{1, 1, 1, 1}) {
		t.Errorf("texel (1,1): %v, want white", got)
	}

	if _, err := mb.ValueAt2(2, 0); !errors.Is(err, render.ErrOutOfRange) {
		t.Errorf("texel out of bounds: got %v, want ErrOutOfRange", err)
	}
	if _, err := mb.ValueAt3(0, 0, 0); !errors.Is(err, render.ErrTextureShape) {
		t.Errorf("3D access on 2D texture: got %v, want ErrTextureShape", err)
	}
}

func TestTextureShape3D(t *testing.T) {
	eng := software.NewEngine()
	if err := eng.Init(); err != nil {
		t.Fatalf("engine init: %v", err)
	}
	defer eng.Close()

	// 2x2x2 scalar field; value encodes the coordinate.
	data := make([]float32, 8)
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				data[x+2*(y+2*z)] = float32(100*x + 10*y + z)
			}
		}
	}
	mb := render.New(eng, "field", &data)
	mb.SetTextureSize3D(2, 2, 2)

	got, err := mb.ValueAt3(1, 0, 1)
	if err != nil {
		t.Fatalf("ValueAt3: %v", err)
	}
	if got != 101 {
		t.Errorf("texel (1,0,1): %v, want 101", got)
	}

	if _, err := mb.ValueAt2(0, 0); !errors.Is(err, render.ErrTextureShape) {
		t.Errorf("2D access on 3D texture: got %v, want ErrTextureShape", err)
	}
	if _, err := mb.ValueAt3(0, 0, 2); !errors.Is(err, render.ErrOutOfRange) {
		t.Errorf("texel out of bounds: got %v, want ErrOutOfRange", err)
	}
}

func TestTextureShape1D(t *testing.T) {
	eng := software.NewEngine()
	if err := eng.Init(); err != nil {
		t.Fatalf("engine init: %v", err)
	}
	defer eng.Close()

	data := []float32{1, 2, 3, 4}
	mb := render.New(eng, "ramp", &data)
	mb.SetTextureSize1D(4)

	if mb.Kind() != render.DeviceBufferTexture1D {
		t.Errorf("kind: %v, want Texture1D", mb.Kind())
	}
	if w, h, d := mb.TextureSize(); w != 4 || h != 1 || d != 1 {
		t.Errorf("texture size: %dx%dx%d, want 4x1x1", w, h, d)
	}
}
