//go:build !nogpu

package wgpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vizbuf/backend"
	"github.com/gogpu/vizbuf/cache"
)

// NewEngineWithProvider creates a GPU engine around a device shared by a
// host application, instead of opening its own. The provider must expose
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
//
// The engine never destroys a shared device; Close only releases the
// buffers and pipelines the engine created itself.
func NewEngineWithProvider(provider gpucontext.DeviceProvider) (*Engine, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, ErrNoHALAccess
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, ErrNoHALAccess
	}

	return &Engine{
		device:         device,
		queue:          queue,
		externalDevice: true,
		buffers:        make(map[*deviceBuffer]struct{}),
		pipelines:      cache.NewSharded[uint64, *gatherPipeline](0, cache.Uint64Hasher),
	}, nil
}

// RegisterWithProvider registers a provider-backed engine factory under the
// wgpu engine name, replacing the default self-initializing factory. Host
// applications call this once before backend.InitDefault.
func RegisterWithProvider(provider gpucontext.DeviceProvider) error {
	eng, err := NewEngineWithProvider(provider)
	if err != nil {
		return err
	}
	backend.Register(backend.EngineWGPU, func() backend.Engine { return eng })
	return nil
}
