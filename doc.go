// Package raymarch renders a dense 3D density field into a 2D opacity image
// by marching one ray per output pixel through the volume.
//
// # Overview
//
// The input is a cubic voxel grid of side N (N³ float32 densities) and a
// camera. The output is an N×N Frame of opacities in [0, 1]. Every pixel is
// computed independently by the same pure function:
//
//	Project   pixel + camera -> target point on the virtual screen, view vector
//	ResolveStep  view vector  -> step vector, one grid cell along the dominant axis
//	March     grid + target + step -> accumulated opacity
//
// Trace chains the three for a single pixel. A Dispatcher runs Trace for
// every pixel of a frame, either on a tile-parallel CPU worker pool or through
// a GPU compute Accelerator.
//
// # Quick Start
//
//	rc, err := raymarch.NewRendererContext(128)
//	if err != nil {
//	    return err
//	}
//	if err := rc.Init(); err != nil {
//	    return err
//	}
//	defer rc.Close()
//
//	d := raymarch.NewDispatcher(rc)
//	cam := raymarch.DefaultCamera()
//	frame, err := d.Render(ctx, raymarch.Snapshot{Grid: grid, Camera: &cam})
//	if err != nil {
//	    return err
//	}
//	_ = frame.SavePNG("frame.png")
//
// # Coordinate System
//
// The volume occupies the domain cube [-1, 1) on every axis: the lower bound
// is inside, the upper bound is outside. One grid cell spans UnitsPerPixel(N)
// = 2/N domain units. The flattened buffer order is
//
//	offset = iy*N*N + ix*N + iz
//
// and every writer and reader of a VoxelGrid uses VoxelGrid.Offset.
//
// # Frames and Generations
//
// Each rendered snapshot carries a generation number, counted per origin:
// one sequence for a Source, another for snapshots handed directly to a
// Dispatcher. When a newer generation of the same origin is observed while
// a frame is in flight, the stale frame is abandoned (ErrFrameAbandoned)
// instead of being completed, and no partial image is returned.
//
// # GPU Acceleration
//
// The CPU path is always available. A GPU accelerator from the gpu package
// can be passed with WithAccelerator; if the GPU cannot be initialised the
// context falls back to the CPU path:
//
//	import "github.com/gogpu/raymarch/gpu"
//
//	rc, _ := raymarch.NewRendererContext(128, raymarch.WithAccelerator(gpu.NewAccelerator()))
package raymarch
