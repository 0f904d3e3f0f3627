//go:build !nogpu

package wgpu

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/vizbuf/render"
)

func TestGatherShaderWGSL(t *testing.T) {
	tests := []struct {
		words uint64
	}{
		{1},
		{2},
		{3},
		{4},
		{12},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dwords", tt.words), func(t *testing.T) {
			src := gatherShaderWGSL(tt.words)

			for _, want := range []string{
				"@compute @workgroup_size(64)",
				"arrayLength(&indices)",
				fmt.Sprintf("let s = indices[k] * %du;", tt.words),
				fmt.Sprintf("let d = k * %du;", tt.words),
			} {
				if !strings.Contains(src, want) {
					t.Errorf("shader missing %q:\n%s", want, src)
				}
			}

			// Every word copy must be unrolled; naga miscompiles loops.
			for w := uint64(0); w < tt.words; w++ {
				want := fmt.Sprintf("dst[d + %du] = src[s + %du];", w, w)
				if !strings.Contains(src, want) {
					t.Errorf("shader missing unrolled copy %q", want)
				}
			}
			for _, forbidden := range []string{"loop", "for (", "while"} {
				if strings.Contains(src, forbidden) {
					t.Errorf("shader contains %q, which naga miscompiles:\n%s", forbidden, src)
				}
			}
		})
	}
}

func TestEngineRequiresInit(t *testing.T) {
	e := NewEngine()

	if _, err := e.NewAttributeBuffer(render.LayoutFloat32); err != ErrNotInitialized {
		t.Errorf("NewAttributeBuffer before Init: got %v, want ErrNotInitialized", err)
	}
	if _, err := e.NewGatherProgram(render.LayoutFloat32); err != ErrNotInitialized {
		t.Errorf("NewGatherProgram before Init: got %v, want ErrNotInitialized", err)
	}
}

func TestNewEngineWithProviderNil(t *testing.T) {
	if _, err := NewEngineWithProvider(nil); err != ErrNilProvider {
		t.Errorf("got %v, want ErrNilProvider", err)
	}
}
