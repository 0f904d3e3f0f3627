//go:build !nogpu

// Package wgpu provides the GPU engine for vizbuf, built on gogpu/wgpu
// compute. Attribute buffers are storage buffers, and indexed-view gathers
// run as a compute pass entirely on the device.
package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vizbuf"
	"github.com/gogpu/vizbuf/backend"
	"github.com/gogpu/vizbuf/cache"
	"github.com/gogpu/vizbuf/render"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// init registers the wgpu engine on package import.
func init() {
	backend.Register(backend.EngineWGPU, func() backend.Engine {
		return NewEngine()
	})
}

// Engine is the GPU engine. It owns an instance, device, and queue unless
// constructed around an externally shared device, and tracks every buffer
// it allocates so Close can release them all.
//
// Like the core it serves, the engine follows the single-threaded model:
// all calls must come from the thread that owns the GPU context.
type Engine struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// externalDevice is true when the device is shared by a host
	// application; Close must not destroy it.
	externalDevice bool
	initialized    bool

	// buffers tracks live allocations for teardown on Close.
	buffers map[*deviceBuffer]struct{}

	// pipelines caches compiled gather pipelines keyed by element word
	// width; all layouts of the same width share one pipeline.
	pipelines *cache.Sharded[uint64, *gatherPipeline]
}

// NewEngine creates a new GPU engine.
// The engine must be initialized with Init() before use.
func NewEngine() *Engine {
	return &Engine{
		buffers:   make(map[*deviceBuffer]struct{}),
		pipelines: cache.NewSharded[uint64, *gatherPipeline](0, cache.Uint64Hasher),
	}
}

// Name returns the engine identifier.
func (e *Engine) Name() string {
	return backend.EngineWGPU
}

// Init acquires a GPU device. With an externally shared device (see
// NewEngineWithProvider) it only marks the engine ready.
func (e *Engine) Init() error {
	if e.initialized {
		return nil
	}
	if e.externalDevice {
		e.initialized = true
		return nil
	}

	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not compiled in", ErrNoGPU)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoGPU
	}

	// Prefer a real GPU; fall back to whatever the platform offers.
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("wgpu: open device: %w", err)
	}

	e.instance = instance
	e.device = openDev.Device
	e.queue = openDev.Queue
	e.initialized = true
	vizbuf.Logger().Info("wgpu engine initialized", "adapter", selected.Info.Name)
	return nil
}

// Close releases all engine resources: every tracked buffer, every cached
// pipeline, and the device itself unless it is externally shared.
func (e *Engine) Close() {
	if !e.initialized {
		return
	}

	for buf := range e.buffers {
		buf.destroyHAL()
	}
	clear(e.buffers)

	e.pipelines.Range(func(_ uint64, p *gatherPipeline) bool {
		p.destroy(e.device)
		return true
	})
	e.pipelines.Clear()

	if !e.externalDevice && e.device != nil {
		e.device.Destroy()
	}
	if e.instance != nil {
		e.instance.Destroy()
	}
	e.device = nil
	e.queue = nil
	e.instance = nil
	e.initialized = false
}

// NewAttributeBuffer allocates an empty storage buffer for the layout. The
// HAL allocation itself is deferred until the first SetData, when the size
// is known.
func (e *Engine) NewAttributeBuffer(layout render.ElementLayout) (render.AttributeBuffer, error) {
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	buf := &deviceBuffer{eng: e, layout: layout}
	e.buffers[buf] = struct{}{}
	return buf, nil
}

// NewGatherProgram builds (or fetches from cache) the gather pipeline for
// the layout's word width and wraps it in a program instance.
func (e *Engine) NewGatherProgram(layout render.ElementLayout) (render.GatherProgram, error) {
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	pipe, err := e.gatherPipelineFor(uint64(layout.Words()))
	if err != nil {
		return nil, err
	}
	return &gatherProgram{eng: e, layout: layout, pipe: pipe}, nil
}

// gatherPipelineFor returns the cached pipeline for the given element word
// width, compiling it on first use.
func (e *Engine) gatherPipelineFor(words uint64) (*gatherPipeline, error) {
	if p, ok := e.pipelines.Get(words); ok {
		return p, nil
	}
	p, err := newGatherPipeline(e.device, words)
	if err != nil {
		return nil, err
	}
	e.pipelines.Set(words, p)
	return p, nil
}

// submitAndWait submits one command buffer and blocks until the device
// signals completion.
func (e *Engine) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := e.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer e.device.DestroyFence(fence)

	if err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := e.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !ok {
		return fmt.Errorf("wgpu: wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}
