package software

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/vizbuf/backend"
	"github.com/gogpu/vizbuf/render"
)

func floatsToBytes(vals []float32) []byte {
	raw := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return raw
}

func bytesToFloats(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

func TestEngineLifecycle(t *testing.T) {
	e := NewEngine()
	if e.Name() != backend.EngineSoftware {
		t.Errorf("Name() = %q", e.Name())
	}

	if _, err := e.NewAttributeBuffer(render.LayoutFloat32); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("before Init: got %v, want ErrNotInitialized", err)
	}

	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := e.NewAttributeBuffer(render.LayoutFloat32); err != nil {
		t.Errorf("after Init: %v", err)
	}

	e.Close()
	if _, err := e.NewGatherProgram(render.LayoutFloat32); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("after Close: got %v, want ErrNotInitialized", err)
	}
}

func TestBufferRoundTrip(t *testing.T) {
	e := NewEngine()
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer e.Close()

	buf, err := e.NewAttributeBuffer(render.LayoutFloat32)
	if err != nil {
		t.Fatalf("NewAttributeBuffer: %v", err)
	}
	if buf.Layout() != render.LayoutFloat32 {
		t.Errorf("Layout() = %v", buf.Layout())
	}
	if buf.Len() != 0 {
		t.Errorf("fresh buffer Len() = %d", buf.Len())
	}

	want := []float32{1.5, -2.5, 3.25}
	if err := buf.SetData(floatsToBytes(want), 3); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if buf.Len() != 3 {
		t.Errorf("Len() = %d, want 3", buf.Len())
	}

	raw, err := buf.Bytes(0, 3)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	got := bytesToFloats(raw)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}

	single, err := buf.ElementBytes(1)
	if err != nil {
		t.Fatalf("ElementBytes: %v", err)
	}
	if v := bytesToFloats(single)[0]; v != -2.5 {
		t.Errorf("ElementBytes(1) = %v, want -2.5", v)
	}
}

func TestBufferRangeChecks(t *testing.T) {
	e := NewEngine()
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer e.Close()

	buf, _ := e.NewAttributeBuffer(render.LayoutFloat32)
	if err := buf.SetData(floatsToBytes([]float32{1, 2}), 2); err != nil {
		t.Fatalf("SetData: %v", err)
	}

	tests := []struct {
		first, count int
	}{
		{-1, 1},
		{0, 3},
		{2, 1},
		{0, -1},
	}
	for _, tt := range tests {
		if _, err := buf.Bytes(tt.first, tt.count); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("Bytes(%d, %d): got %v, want ErrInvalidRange", tt.first, tt.count, err)
		}
	}

	// SetData with too few bytes is rejected.
	if err := buf.SetData([]byte{0, 0}, 2); err == nil {
		t.Error("SetData with short input succeeded")
	}
}

func TestGatherProgram(t *testing.T) {
	e := NewEngine()
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer e.Close()

	src, _ := e.NewAttributeBuffer(render.LayoutFloat32)
	dst, _ := e.NewAttributeBuffer(render.LayoutFloat32)
	if err := src.SetData(floatsToBytes([]float32{10, 20, 30}), 3); err != nil {
		t.Fatalf("SetData: %v", err)
	}

	prog, err := e.NewGatherProgram(render.LayoutFloat32)
	if err != nil {
		t.Fatalf("NewGatherProgram: %v", err)
	}

	if err := prog.Run(); !errors.Is(err, ErrUnbound) {
		t.Errorf("Run before Bind: got %v, want ErrUnbound", err)
	}

	if err := prog.Bind(src, dst); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := prog.SetIndices([]uint32{2, 0, 1, 2}); err != nil {
		t.Fatalf("SetIndices: %v", err)
	}
	if err := prog.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if dst.Len() != 4 {
		t.Fatalf("dst Len() = %d, want 4", dst.Len())
	}
	raw, err := dst.Bytes(0, 4)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	got := bytesToFloats(raw)
	want := []float32{30, 10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("gathered[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGatherProgramBadIndex(t *testing.T) {
	e := NewEngine()
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer e.Close()

	src, _ := e.NewAttributeBuffer(render.LayoutFloat32)
	dst, _ := e.NewAttributeBuffer(render.LayoutFloat32)
	if err := src.SetData(floatsToBytes([]float32{1}), 1); err != nil {
		t.Fatalf("SetData: %v", err)
	}

	prog, _ := e.NewGatherProgram(render.LayoutFloat32)
	if err := prog.Bind(src, dst); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := prog.SetIndices([]uint32{0, 7}); err != nil {
		t.Fatalf("SetIndices: %v", err)
	}
	if err := prog.Run(); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("got %v, want ErrInvalidRange", err)
	}
}

// foreignBuffer is an AttributeBuffer from some other engine.
type foreignBuffer struct{}

func (foreignBuffer) Layout() render.ElementLayout              { return render.LayoutFloat32 }
func (foreignBuffer) Len() int                                  { return 0 }
func (foreignBuffer) SetData(raw []byte, count int) error       { return nil }
func (foreignBuffer) Bytes(first, count int) ([]byte, error)    { return nil, nil }
func (foreignBuffer) ElementBytes(i int) ([]byte, error)        { return nil, nil }

func TestGatherProgramForeignBuffer(t *testing.T) {
	e := NewEngine()
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer e.Close()

	own, _ := e.NewAttributeBuffer(render.LayoutFloat32)
	prog, _ := e.NewGatherProgram(render.LayoutFloat32)

	if err := prog.Bind(foreignBuffer{}, own); !errors.Is(err, ErrForeignBuffer) {
		t.Errorf("foreign source: got %v, want ErrForeignBuffer", err)
	}
	if err := prog.Bind(own, foreignBuffer{}); !errors.Is(err, ErrForeignBuffer) {
		t.Errorf("foreign destination: got %v, want ErrForeignBuffer", err)
	}
}
