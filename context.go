package raymarch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/raymarch/cache"
	"github.com/gogpu/raymarch/internal/parallel"
)

// Live contexts, for logger propagation to their accelerators.
var (
	contextsMu sync.Mutex
	contexts   = make(map[*RendererContext]struct{})
)

// RendererContext owns everything a frame needs besides its inputs: the
// kernel parameters, the CPU worker pool, the optional GPU accelerator and
// the ray table cache.
//
// Lifecycle: NewRendererContext, then Init once, then any number of frames
// (concurrently if needed), then Close. Close waits for frames in flight.
// A context that failed Init or has been closed reports
// ErrContextUnavailable for every frame.
type RendererContext struct {
	n    int
	opts options

	initOnce sync.Once
	initErr  error

	// mu is held for reading by frames in flight and for writing by
	// Init, Close and SetDeviceProvider.
	mu     sync.RWMutex
	ready  bool
	closed bool
	pool   *parallel.WorkerPool
	accel  Accelerator
	rays   *rayCache

	frames atomic.Uint64
}

// NewRendererContext creates a context for frames of side n.
// It returns a *ValidationError for a non-positive resolution or invalid
// kernel parameters. No resources are acquired until Init.
func NewRendererContext(n int, opts ...Option) (*RendererContext, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if n <= 0 {
		return nil, validationErrorf("resolution", "must be positive, got %d", n)
	}
	if err := o.params.Validate(); err != nil {
		return nil, err
	}
	if o.tileSize < 1 {
		o.tileSize = DefaultTileSize
	}

	return &RendererContext{n: n, opts: o}, nil
}

// Init starts the worker pool and initialises the accelerator, if any.
// Only the first call does work; later calls return the same result.
//
// If the accelerator fails to initialise, the context marches on the CPU,
// unless WithRequireAccelerator was given, in which case Init returns an
// error wrapping ErrContextUnavailable.
func (rc *RendererContext) Init() error {
	rc.initOnce.Do(func() {
		rc.initErr = rc.init()
	})
	return rc.initErr
}

func (rc *RendererContext) init() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.closed {
		return fmt.Errorf("%w: closed before init", ErrContextUnavailable)
	}

	log := Logger()

	if a := rc.opts.accel; a != nil {
		if err := a.Init(); err != nil {
			if rc.opts.requireAccel {
				return fmt.Errorf("%w: accelerator %s: %w", ErrContextUnavailable, a.Name(), err)
			}
			log.Warn("raymarch: accelerator unavailable, marching on CPU",
				"accelerator", a.Name(), "err", err)
		} else {
			propagateLogger(a, log)
			rc.accel = a
		}
	}

	rc.pool = parallel.NewWorkerPool(rc.opts.workers)
	rc.rays = newRayCache(rc.opts.rayCacheEntries)
	rc.ready = true

	contextsMu.Lock()
	contexts[rc] = struct{}{}
	contextsMu.Unlock()

	log.Info("raymarch: context initialised",
		"n", rc.n,
		"workers", rc.pool.Workers(),
		"accelerator", rc.acceleratorNameLocked(),
		"step", rc.opts.params.StepSize,
		"max_steps", rc.opts.params.MaxSteps)
	return nil
}

// Close waits for frames in flight, then releases the worker pool, the
// accelerator and the ray cache. Close is safe to call multiple times and
// before Init.
func (rc *RendererContext) Close() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.closed {
		return nil
	}
	rc.closed = true
	rc.ready = false

	contextsMu.Lock()
	delete(contexts, rc)
	contextsMu.Unlock()

	if rc.pool != nil {
		rc.pool.Close()
	}
	if rc.accel != nil {
		rc.accel.Close()
		rc.accel = nil
	}
	rc.rays.clear()

	Logger().Info("raymarch: context closed", "n", rc.n, "frames", rc.frames.Load())
	return nil
}

// SetDeviceProvider passes a host GPU device provider to the accelerator,
// if it supports device sharing. Without an accelerator this is a no-op.
func (rc *RendererContext) SetDeviceProvider(provider any) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if dpa, ok := rc.opts.accel.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}

// Resolution returns the side N of grids and frames served by the context.
func (rc *RendererContext) Resolution() int {
	return rc.n
}

// Params returns the kernel parameters.
func (rc *RendererContext) Params() KernelParams {
	return rc.opts.params
}

// Accelerated reports whether frames are dispatched to a GPU accelerator.
func (rc *RendererContext) Accelerated() bool {
	return rc.accelerator() != nil
}

// AcceleratorName returns the active accelerator name, or "cpu".
func (rc *RendererContext) AcceleratorName() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.acceleratorNameLocked()
}

// RayCacheStats returns counters of the ray table cache.
func (rc *RendererContext) RayCacheStats() cache.Stats {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.rays.stats()
}

func (rc *RendererContext) acceleratorNameLocked() string {
	if rc.accel == nil {
		return "cpu"
	}
	return rc.accel.Name()
}

func (rc *RendererContext) accelerator() Accelerator {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.accel
}

// acquire pins the context for one frame. The returned release must be
// called when the frame is done.
func (rc *RendererContext) acquire() (release func(), err error) {
	rc.mu.RLock()
	if !rc.ready {
		rc.mu.RUnlock()
		if rc.closed {
			return nil, fmt.Errorf("%w: closed", ErrContextUnavailable)
		}
		return nil, fmt.Errorf("%w: not initialised", ErrContextUnavailable)
	}
	return rc.mu.RUnlock, nil
}

// march fills dst with the opacity of every pixel of job. The caller holds
// the context via acquire. stale is polled before each tile; once it
// reports true, remaining tiles are skipped and ErrFrameAbandoned returned.
func (rc *RendererContext) march(ctx context.Context, job FrameJob, dst []float32, stale func() bool) error {
	rc.frames.Add(1)

	if rc.accel != nil {
		err := rc.accel.March(job, dst)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrFallbackToCPU) {
			Logger().Warn("raymarch: accelerator failed, marching frame on CPU",
				"accelerator", rc.accel.Name(), "err", err)
		}
		if stale() {
			return ErrFrameAbandoned
		}
	}

	return rc.marchCPU(ctx, job, dst, stale)
}

func (rc *RendererContext) marchCPU(ctx context.Context, job FrameJob, dst []float32, stale func() bool) error {
	n := job.Grid.n
	rays := rc.rays.table(rayKey{cam: job.Camera, n: n, stepSize: job.Params.StepSize})
	m := Marcher{MaxSteps: job.Params.MaxSteps}

	tiles := parallel.SplitTiles(n, n, rc.opts.tileSize)
	var abandoned atomic.Bool

	rc.pool.ForEach(len(tiles), func(i int) {
		if abandoned.Load() {
			return
		}
		if ctx.Err() != nil || stale() {
			abandoned.Store(true)
			return
		}
		tiles[i].Each(func(x, y int) {
			p := y*n + x
			if !rays.ok[p] {
				dst[p] = 0
				return
			}
			dst[p] = m.March(job.Grid, rays.origins[p], rays.steps[p]).Opacity
		})
	})

	if abandoned.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrFrameAbandoned
	}
	return nil
}
