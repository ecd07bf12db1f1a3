//go:build !nogpu

// Package gpu implements the GPU ray-marching accelerator.
//
// The kernel runs as a WGSL compute shader through gogpu/wgpu/hal (Vulkan
// backend). Each invocation marches the primary ray of one pixel; the
// workgroup size is 8x8, so an N×N frame is one dispatch of
// ceil(N/8)×ceil(N/8) workgroups.
//
// # Resources
//
// MarchAccelerator owns a device and queue (or borrows them from a host via
// SetDeviceProvider), one compute pipeline, and a set of frame buffers:
//
//	binding 0  uniform         Params (48 bytes)
//	binding 1  storage, read   voxel densities, N³ f32
//	binding 2  storage, rw     opacities, N² f32
//	staging    map-read        opacity readback
//
// Frame buffers are reused while the resolution is unchanged and rebuilt
// when it changes.
//
// # Validation
//
// Init marches a small probe volume on both the GPU and the CPU kernel and
// rejects the device if the results disagree, so a miscompiled shader
// degrades to CPU marching instead of producing wrong frames.
package gpu
