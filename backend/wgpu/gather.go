//go:build !nogpu

package wgpu

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vizbuf/render"
)

// gatherPipeline holds the compiled compute pipeline for one element word
// width. Pipelines are cached on the engine and shared by every program of
// the same width.
type gatherPipeline struct {
	words      uint64
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// gatherWorkgroupSize is the compute workgroup size along x.
const gatherWorkgroupSize = 64

// gatherShaderWGSL generates the gather compute shader for elements that
// are `words` 32-bit words wide. The per-word copies are unrolled: naga's
// SPIR-V backend miscompiles loops (bug #5, only the first iteration
// executes), so the shader must not contain one.
func gatherShaderWGSL(words uint64) string {
	var sb strings.Builder
	sb.WriteString(`@group(0) @binding(0) var<storage, read> src: array<u32>;
@group(0) @binding(1) var<storage, read> indices: array<u32>;
@group(0) @binding(2) var<storage, read_write> dst: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let k = gid.x;
    if (k >= arrayLength(&indices)) {
        return;
    }
`)
	fmt.Fprintf(&sb, "    let s = indices[k] * %du;\n", words)
	fmt.Fprintf(&sb, "    let d = k * %du;\n", words)
	for w := uint64(0); w < words; w++ {
		fmt.Fprintf(&sb, "    dst[d + %du] = src[s + %du];\n", w, w)
	}
	sb.WriteString("}\n")
	return sb.String()
}

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile gather shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

// newGatherPipeline compiles and assembles the pipeline for one word width.
func newGatherPipeline(device hal.Device, words uint64) (*gatherPipeline, error) {
	spirv, err := compileWGSL(gatherShaderWGSL(words))
	if err != nil {
		return nil, err
	}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  fmt.Sprintf("vizbuf_gather_%dw", words),
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create gather shader module: %w", err)
	}

	p := &gatherPipeline{words: words, shader: shader}

	p.bindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "vizbuf_gather_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("wgpu: create gather bind group layout: %w", err)
	}

	p.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "vizbuf_gather_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("wgpu: create gather pipeline layout: %w", err)
	}

	p.pipeline, err = device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "vizbuf_gather_pipeline", Layout: p.pipeLayout,
		Compute: hal.ComputeState{Module: p.shader, EntryPoint: "main"},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("wgpu: create gather compute pipeline: %w", err)
	}

	return p, nil
}

// destroy releases pipeline resources in reverse creation order.
func (p *gatherPipeline) destroy(device hal.Device) {
	if p.pipeline != nil {
		device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// gatherProgram runs dst[k] = src[indices[k]] as a compute pass. It holds
// no GPU resources between runs; buffers and indices are rebound on every
// Run, so stale bindings cannot pin buffers alive.
type gatherProgram struct {
	eng    *Engine
	layout render.ElementLayout
	pipe   *gatherPipeline

	src     *deviceBuffer
	dst     *deviceBuffer
	indices []uint32
}

// Bind sets the source and destination streams for the next Run.
func (p *gatherProgram) Bind(src, dst render.AttributeBuffer) error {
	s, ok := src.(*deviceBuffer)
	if !ok || s.eng != p.eng {
		return fmt.Errorf("%w: source %T", ErrForeignBuffer, src)
	}
	d, ok := dst.(*deviceBuffer)
	if !ok || d.eng != p.eng {
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

// Run executes the gather once on the device.
func (p *gatherProgram) Run() error {
	if p.src == nil || p.dst == nil {
		return ErrUnbound
	}
	if p.src.destroyed || p.dst.destroyed {
		return ErrBufferDestroyed
	}
	// The shader cannot report bad indices; validate on the host.
	for _, idx := range p.indices {
		if int(idx) >= p.src.count {
			return fmt.Errorf("%w: gather index %d of %d elements", ErrInvalidRange, idx, p.src.count)
		}
	}

	n := len(p.indices)
	size := p.layout.Size()
	if err := p.dst.ensureCapacity(uint64(n * size)); err != nil {
		return err
	}
	p.dst.count = n
	if n == 0 {
		return nil
	}

	dev, queue := p.eng.device, p.eng.queue

	idxBytes := unsafe.Slice((*byte)(unsafe.Pointer(&p.indices[0])), n*4)
	idxBuf, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "vizbuf_gather_indices", Size: uint64(n * 4),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create index buffer: %w", err)
	}
	defer dev.DestroyBuffer(idxBuf)
	queue.WriteBuffer(idxBuf, 0, idxBytes)

	bg, err := dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "vizbuf_gather_bind", Layout: p.pipe.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: p.src.hal.NativeHandle(), Offset: 0, Size: p.src.capBytes}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: idxBuf.NativeHandle(), Offset: 0, Size: uint64(n * 4)}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: p.dst.hal.NativeHandle(), Offset: 0, Size: p.dst.capBytes}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create gather bind group: %w", err)
	}
	defer dev.DestroyBindGroup(bg)

	encoder, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "vizbuf_gather_encoder"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("vizbuf_gather"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "vizbuf_gather_pass"})
	pass.SetPipeline(p.pipe.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch((uint32(n)+gatherWorkgroupSize-1)/gatherWorkgroupSize, 1, 1)
	pass.End()
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer dev.FreeCommandBuffer(cmdBuf)

	return p.eng.submitAndWait(cmdBuf)
}
