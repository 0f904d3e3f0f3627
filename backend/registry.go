package backend

import (
	"sync"
)

// EngineFactory creates a new engine instance.
type EngineFactory func() Engine

// registry holds registered engines.
var (
	registryMu sync.RWMutex
	engines    = make(map[string]EngineFactory)
	// Priority order for engine selection (first available wins).
	// wgpu > software (wgpu runs gathers on the device, software is the
	// always-available fallback).
	enginePriority = []string{EngineWGPU, EngineSoftware}
)

// Register registers an engine factory with the given name.
// This is typically called from init() functions in engine packages.
// If an engine with the same name is already registered, it is replaced.
func Register(name string, factory EngineFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	engines[name] = factory
}

// Unregister removes an engine from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(engines, name)
}

// Available returns a list of registered engine names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if an engine with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := engines[name]
	return ok
}

// Get returns an engine instance by name.
// Returns nil if the engine is not registered.
func Get(name string) Engine {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := engines[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available engine based on priority.
// Priority order: wgpu > software.
// Returns nil if no engines are registered.
func Default() Engine {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range enginePriority {
		if factory, ok := engines[name]; ok {
			if e := factory(); e != nil {
				return e
			}
		}
	}

	// Fallback: return first available
	for _, factory := range engines {
		if e := factory(); e != nil {
			return e
		}
	}

	return nil
}

// InitDefault returns the highest-priority engine that initializes
// successfully. An engine whose Init fails (e.g. wgpu without a usable
// adapter) is skipped in favor of the next one.
func InitDefault() (Engine, error) {
	registryMu.RLock()
	ordered := make([]EngineFactory, 0, len(engines))
	for _, name := range enginePriority {
		if factory, ok := engines[name]; ok {
			ordered = append(ordered, factory)
		}
	}
	registryMu.RUnlock()

	var lastErr error
	for _, factory := range ordered {
		e := factory()
		if e == nil {
			continue
		}
		if err := e.Init(); err != nil {
			lastErr = err
			continue
		}
		return e, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrEngineNotAvailable
}
