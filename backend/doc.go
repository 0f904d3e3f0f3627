// Package backend provides engine selection and registration for vizbuf.
//
// Engines implement the render.Engine interface plus lifecycle methods,
// and register themselves via init() functions:
//
//	import _ "github.com/gogpu/vizbuf/backend/wgpu"     // GPU engine
//	import _ "github.com/gogpu/vizbuf/backend/software" // CPU fallback
//
// Select an engine explicitly with Get, or let Default pick the best
// available one (wgpu when a device can be opened, software otherwise).
package backend
