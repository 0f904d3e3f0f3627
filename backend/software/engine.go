// Package software provides a pure-CPU engine for vizbuf.
//
// Buffers live in host memory and gather programs run the indexed copy on
// the CPU. The engine exists as the always-available fallback and as the
// substitute engine for tests that must run without a GPU context.
package software

import (
	"errors"
	"fmt"

	"github.com/gogpu/vizbuf/backend"
	"github.com/gogpu/vizbuf/render"
)

// Engine errors.
var (
	// ErrForeignBuffer is returned when a program is bound to a buffer
	// that was not allocated by this engine.
	ErrForeignBuffer = errors.New("software: buffer was not allocated by this engine")

	// ErrInvalidRange is returned when a readback range is out of bounds.
	ErrInvalidRange = errors.New("software: read range out of bounds")

	// ErrUnbound is returned when a gather program runs before Bind.
	ErrUnbound = errors.New("software: gather program has no bound buffers")
)

// init registers the software engine on package import.
func init() {
	backend.Register(backend.EngineSoftware, func() backend.Engine {
		return NewEngine()
	})
}

// Engine is a CPU-based engine. All buffers are host byte slices; Init and
// Close have no device context to manage.
type Engine struct {
	initialized bool
}

// NewEngine creates a new software engine.
// The engine must be initialized with Init() before use.
func NewEngine() *Engine {
	return &Engine{}
}

// Name returns the engine identifier.
func (e *Engine) Name() string {
	return backend.EngineSoftware
}

// Init initializes the engine.
func (e *Engine) Init() error {
	e.initialized = true
	return nil
}

// Close releases all engine resources.
func (e *Engine) Close() {
	e.initialized = false
}

// NewAttributeBuffer allocates an empty host-memory buffer.
func (e *Engine) NewAttributeBuffer(layout render.ElementLayout) (render.AttributeBuffer, error) {
	if !e.initialized {
		return nil, backend.ErrNotInitialized
	}
	return &buffer{layout: layout}, nil
}

// NewGatherProgram builds a CPU gather program for the given layout.
func (e *Engine) NewGatherProgram(layout render.ElementLayout) (render.GatherProgram, error) {
	if !e.initialized {
		return nil, backend.ErrNotInitialized
	}
	return &gatherProgram{layout: layout}, nil
}

// buffer is a host-memory attribute buffer.
type buffer struct {
	layout render.ElementLayout
	data   []byte
	count  int
}

// Layout returns the element layout the buffer was allocated for.
func (b *buffer) Layout() render.ElementLayout {
	return b.layout
}

// Len returns the current element count.
func (b *buffer) Len() int {
	return b.count
}

// SetData replaces the buffer contents with count elements from raw.
func (b *buffer) SetData(raw []byte, count int) error {
	n := count * b.layout.Size()
	if len(raw) < n {
		return fmt.Errorf("software: SetData got %d bytes, want %d for %d %s elements",
			len(raw), n, count, b.layout)
	}
	b.data = append(b.data[:0], raw[:n]...)
	b.count = count
	return nil
}

// Bytes reads count elements starting at element index first.
func (b *buffer) Bytes(first, count int) ([]byte, error) {
	if first < 0 || count < 0 || first+count > b.count {
		return nil, fmt.Errorf("%w: [%d, %d) of %d elements", ErrInvalidRange, first, first+count, b.count)
	}
	size := b.layout.Size()
	out := make([]byte, count*size)
	copy(out, b.data[first*size:])
	return out, nil
}

// ElementBytes reads back the single element at index i.
func (b *buffer) ElementBytes(i int) ([]byte, error) {
	return b.Bytes(i, 1)
}

// gatherProgram copies src[indices[k]] -> dst[k] on the CPU.
type gatherProgram struct {
	layout  render.ElementLayout
	src     *buffer
	dst     *buffer
	indices []uint32
}

// Bind sets the source and destination streams for the next Run.
func (p *gatherProgram) Bind(src, dst render.AttributeBuffer) error {
	s, ok := src.(*buffer)
	if !ok {
		return fmt.Errorf("%w: source %T", ErrForeignBuffer, src)
	}
	d, ok := dst.(*buffer)
	if !ok {
		return fmt.Errorf("%w: destination %T", ErrForeignBuffer, dst)
	}
	p.src = s
	p.dst = d
	return nil
}

// SetIndices sets the gather indices for the next Run.
func (p *gatherProgram) SetIndices(indices []uint32) error {
	p.indices = append(p.indices[:0], indices...)
	return nil
}

// Run executes the gather once.
func (p *gatherProgram) Run() error {
	if p.src == nil || p.dst == nil {
		return ErrUnbound
	}
	size := p.layout.Size()
	out := make([]byte, len(p.indices)*size)
	for k, idx := range p.indices {
		if int(idx) >= p.src.count {
			return fmt.Errorf("%w: gather index %d of %d elements", ErrInvalidRange, idx, p.src.count)
		}
		copy(out[k*size:(k+1)*size], p.src.data[int(idx)*size:])
	}
	return p.dst.SetData(out, len(p.indices))
}
