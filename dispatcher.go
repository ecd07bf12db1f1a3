package raymarch

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// DispatchStats counts frame outcomes of a Dispatcher.
type DispatchStats struct {
	// Rendered frames completed and returned.
	Rendered uint64

	// Abandoned frames were superseded by a newer generation or cancelled.
	Abandoned uint64

	// Skipped frames were rejected before marching: no input yet, invalid
	// input or an unavailable context.
	Skipped uint64

	// Failed counts frames a present callback rejected.
	Failed uint64
}

// Dispatcher renders whole frames on a RendererContext.
//
// A Dispatcher is safe for concurrent use. Concurrent frames share the
// context's worker pool; an older generation in flight is abandoned as soon
// as a newer one is observed.
//
// Generations are compared within one namespace only. Snapshots passed to
// Render and RenderBuffer are numbered by the dispatcher; snapshots taken
// from a Source are judged against that Source's Latest alone.
type Dispatcher struct {
	rc *RendererContext

	// latest is the newest generation passed to Render or RenderBuffer.
	latest atomic.Uint64

	rendered  atomic.Uint64
	abandoned atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcher creates a dispatcher rendering on rc.
func NewDispatcher(rc *RendererContext) *Dispatcher {
	return &Dispatcher{rc: rc}
}

// Render marches every pixel of snap and returns the assembled frame.
//
// Errors:
//   - ErrNotReady: snap has no grid.
//   - *ValidationError: missing or invalid camera, or a grid whose side
//     differs from the context resolution.
//   - ErrContextUnavailable: the context is not initialised or is closed.
//   - ErrFrameAbandoned: a newer generation was observed before the frame
//     completed.
//   - ctx.Err(): ctx was cancelled before the frame completed.
//
// No partial frame is ever returned.
func (d *Dispatcher) Render(ctx context.Context, snap Snapshot) (*Frame, error) {
	return d.render(ctx, snap, nil)
}

// RenderBuffer renders a raw voxel buffer of length N³, N being the
// context resolution, from the given camera. A nil buffer reports
// ErrNotReady; any other length mismatch is a *ValidationError.
func (d *Dispatcher) RenderBuffer(ctx context.Context, buf []float32, screenRatio, cx, cy, cz, fx, fy, fz float32) (*Frame, error) {
	if buf == nil {
		d.skipped.Add(1)
		return nil, ErrNotReady
	}
	grid, err := NewVoxelGrid(d.rc.n, buf)
	if err != nil {
		d.skipped.Add(1)
		return nil, err
	}
	cam := NewCamera(screenRatio, cx, cy, cz, fx, fy, fz)
	return d.Render(ctx, Snapshot{Grid: grid, Camera: &cam})
}

// RenderLatest renders the newest snapshot of src. It returns ErrNotReady
// if src has not supplied one yet.
func (d *Dispatcher) RenderLatest(ctx context.Context, src Source) (*Frame, error) {
	snap, err := src.TryNext()
	if err != nil {
		d.skipped.Add(1)
		return nil, err
	}
	return d.render(ctx, snap, src)
}

// Run renders snapshots from src until ctx is done, handing every completed
// frame to present. Frames that are abandoned, invalid or rejected by
// present are logged and skipped. Run returns ctx.Err() once ctx is done,
// or the error of src.Next if the source fails.
func (d *Dispatcher) Run(ctx context.Context, src Source, present func(*Frame) error) error {
	log := Logger()
	for {
		snap, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		frame, err := d.render(ctx, snap, src)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrFrameAbandoned):
			log.Debug("raymarch: frame abandoned", "generation", snap.Generation)
			continue
		default:
			log.Warn("raymarch: frame skipped", "generation", snap.Generation, "err", err)
			continue
		}

		if err := present(frame); err != nil {
			d.failed.Add(1)
			log.Warn("raymarch: present failed", "generation", frame.Generation(), "err", err)
		}
	}
}

// Stats returns the frame counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Rendered:  d.rendered.Load(),
		Abandoned: d.abandoned.Load(),
		Skipped:   d.skipped.Load(),
		Failed:    d.failed.Load(),
	}
}

// Latest returns the newest generation passed to Render or RenderBuffer.
// Generations of Source snapshots are not counted.
func (d *Dispatcher) Latest() uint64 {
	return d.latest.Load()
}

func (d *Dispatcher) render(ctx context.Context, snap Snapshot, src Source) (*Frame, error) {
	job, err := d.job(snap)
	if err != nil {
		d.skipped.Add(1)
		return nil, err
	}

	gen := snap.Generation
	var stale func() bool
	switch {
	case src != nil:
		stale = func() bool { return src.Latest() > gen }
	case gen == 0:
		gen = d.latest.Add(1)
		stale = func() bool { return d.latest.Load() > gen }
	default:
		d.observe(gen)
		stale = func() bool { return d.latest.Load() > gen }
	}

	release, err := d.rc.acquire()
	if err != nil {
		d.skipped.Add(1)
		return nil, err
	}
	defer release()

	start := time.Now()
	frame := NewFrame(d.rc.n)
	frame.generation = gen

	if err := d.rc.march(ctx, job, frame.data, stale); err != nil {
		d.abandoned.Add(1)
		return nil, err
	}
	if stale() {
		d.abandoned.Add(1)
		return nil, ErrFrameAbandoned
	}

	d.rendered.Add(1)
	Logger().Debug("raymarch: frame rendered",
		"generation", gen,
		"n", d.rc.n,
		"accelerator", d.rc.acceleratorNameLocked(),
		"elapsed", time.Since(start))
	return frame, nil
}

// job checks snap against the context and builds the frame job.
func (d *Dispatcher) job(snap Snapshot) (FrameJob, error) {
	if snap.Grid == nil {
		return FrameJob{}, ErrNotReady
	}
	if snap.Camera == nil {
		return FrameJob{}, validationErrorf("camera", "missing")
	}
	if err := snap.Camera.Validate(); err != nil {
		return FrameJob{}, err
	}
	if n := snap.Grid.Size(); n != d.rc.n {
		return FrameJob{}, validationErrorf("voxel buffer", "grid side %d, context resolution %d", n, d.rc.n)
	}
	return FrameJob{Grid: snap.Grid, Camera: *snap.Camera, Params: d.rc.opts.params}, nil
}

// observe raises latest to gen.
func (d *Dispatcher) observe(gen uint64) {
	for {
		cur := d.latest.Load()
		if gen <= cur || d.latest.CompareAndSwap(cur, gen) {
			return
		}
	}
}
