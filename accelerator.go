package raymarch

// FrameJob is a complete frame of work handed to an Accelerator.
// The grid and camera are read-only for the duration of the call.
type FrameJob struct {
	Grid   *VoxelGrid
	Camera Camera
	Params KernelParams
}

// Accelerator is an optional GPU implementation of the ray-marching kernel.
//
// An Accelerator is attached to a RendererContext with WithAccelerator.
// The context calls Init once from RendererContext.Init and Close once from
// RendererContext.Close. If Init fails, or March returns ErrFallbackToCPU or
// any other error, the frame is marched on the CPU instead.
//
// Implementations are provided by GPU backend packages:
//
//	import "github.com/gogpu/raymarch/gpu"
//
//	rc, _ := raymarch.NewRendererContext(n, raymarch.WithAccelerator(gpu.NewAccelerator()))
type Accelerator interface {
	// Name returns the accelerator name (e.g., "vulkan-compute").
	Name() string

	// Init acquires GPU resources.
	Init() error

	// Close releases GPU resources.
	Close()

	// March computes the opacity of every pixel of job and writes them to
	// dst, row-major, len(dst) == N*N. The results must match Trace up to
	// floating-point rounding.
	March(job FrameJob, dst []float32) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// share a GPU device with a host application (e.g., a gogpu window).
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}
