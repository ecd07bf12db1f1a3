package raymarch

import "runtime"

// Option configures a RendererContext during creation.
//
// Example:
//
//	// CPU marching on four workers with a coarser step
//	rc, err := raymarch.NewRendererContext(128,
//	    raymarch.WithWorkers(4),
//	    raymarch.WithStepSize(2),
//	)
type Option func(*options)

// options holds optional configuration for RendererContext creation.
type options struct {
	params          KernelParams
	workers         int
	tileSize        int
	accel           Accelerator
	requireAccel    bool
	rayCacheEntries int
}

// Default tiling and cache configuration.
const (
	DefaultTileSize         = 16
	DefaultRayCacheCapacity = 64
)

// defaultOptions returns the default context options.
func defaultOptions() options {
	return options{
		params:          DefaultKernelParams(),
		workers:         runtime.GOMAXPROCS(0),
		tileSize:        DefaultTileSize,
		rayCacheEntries: DefaultRayCacheCapacity,
	}
}

// WithStepSize sets the ray step length in grid cells along the dominant
// axis. Larger steps are faster and coarser.
func WithStepSize(s float32) Option {
	return func(o *options) {
		o.params.StepSize = s
	}
}

// WithMaxSteps sets the per-ray iteration budget.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		o.params.MaxSteps = n
	}
}

// WithWorkers sets the number of CPU workers. Values below 1 select
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithTileSize sets the side of the square pixel tiles scheduled on the
// worker pool.
func WithTileSize(n int) Option {
	return func(o *options) {
		o.tileSize = n
	}
}

// WithAccelerator attaches a GPU accelerator. Init is called from
// RendererContext.Init; on failure the context marches on the CPU unless
// WithRequireAccelerator is also set.
func WithAccelerator(a Accelerator) Option {
	return func(o *options) {
		o.accel = a
	}
}

// WithRequireAccelerator makes RendererContext.Init fail with
// ErrContextUnavailable when the accelerator cannot be initialised.
func WithRequireAccelerator() Option {
	return func(o *options) {
		o.requireAccel = true
	}
}

// WithRayCacheCapacity sets how many per-camera ray tables are cached.
// Zero disables the cache.
func WithRayCacheCapacity(n int) Option {
	return func(o *options) {
		o.rayCacheEntries = n
	}
}
