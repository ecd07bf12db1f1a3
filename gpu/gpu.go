//go:build !nogpu

// Package gpu provides the GPU compute accelerator for raymarch.
//
// The accelerator runs the ray-marching kernel as a WGSL compute shader on
// a Vulkan device. Attach it to a renderer context:
//
//	rc, err := raymarch.NewRendererContext(150, raymarch.WithAccelerator(gpu.NewAccelerator()))
//
// If no GPU is available, RendererContext.Init logs a warning and frames are
// marched on the CPU. Use raymarch.WithRequireAccelerator to fail instead.
//
// Build with -tags nogpu to exclude the GPU backend entirely; NewAccelerator
// then returns nil, which WithAccelerator ignores.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/raymarch"
	gpuimpl "github.com/gogpu/raymarch/internal/gpu"
)

// NewAccelerator returns a GPU accelerator that opens its own Vulkan device
// when the renderer context is initialised.
func NewAccelerator() raymarch.Accelerator {
	return gpuimpl.NewMarchAccelerator()
}

// SetDeviceProvider makes the accelerator of rc share the GPU device of a
// host application (e.g., a gogpu window) instead of opening its own.
//
// The provider must also expose HalDevice() and HalQueue() for direct HAL
// access; otherwise an error is returned and the accelerator keeps its own
// device.
func SetDeviceProvider(rc *raymarch.RendererContext, provider gpucontext.DeviceProvider) error {
	return rc.SetDeviceProvider(provider)
}
