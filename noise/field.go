// Package noise generates animated density fields for the ray marcher.
//
// A Field evaluates multi-octave fractional Brownian motion over OpenSimplex
// noise. Successive sequence numbers shift the sampling window along the
// z axis, so rendering Generate(ctx, n, 0), Generate(ctx, n, 1), ... yields
// a smoothly drifting volume.
package noise

import (
	"context"
	"runtime"

	"github.com/ojrac/opensimplex-go"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/raymarch"
)

// Default field parameters.
const (
	DefaultOctaves     = 8
	DefaultFrequency   = 1.0
	DefaultLacunarity  = 2.0
	DefaultPersistence = 0.5
	DefaultZoom        = 0.132312
	DefaultSpeed       = 0.0758
	DefaultGain        = 0.05
)

// Field is an fBm density field. The zero value is not usable; create one
// with New. Exported parameters may be changed between Generate calls but
// not during one.
type Field struct {
	Octaves     int
	Frequency   float64
	Lacunarity  float64
	Persistence float64

	// Zoom scales the x and y cell indices into noise space.
	Zoom float64
	// Speed scales z + seq into noise space.
	Speed float64
	// Gain scales the normalised fBm value into a per-cell density.
	Gain float64

	src opensimplex.Noise
}

// New returns a field with default parameters seeded with seed.
func New(seed int64) *Field {
	return &Field{
		Octaves:     DefaultOctaves,
		Frequency:   DefaultFrequency,
		Lacunarity:  DefaultLacunarity,
		Persistence: DefaultPersistence,
		Zoom:        DefaultZoom,
		Speed:       DefaultSpeed,
		Gain:        DefaultGain,
		src:         opensimplex.New(seed),
	}
}

// Eval returns the fBm value at (x, y, z), normalised to roughly [-1, 1].
func (f *Field) Eval(x, y, z float64) float64 {
	freq := f.Frequency
	amp := 1.0
	var sum, norm float64
	for o := 0; o < f.Octaves; o++ {
		sum += amp * f.src.Eval3(x*freq, y*freq, z*freq)
		norm += amp
		freq *= f.Lacunarity
		amp *= f.Persistence
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// Density returns the density of cell (x, y, z) at sequence number seq.
func (f *Field) Density(x, y, z, seq int) float32 {
	v := f.Eval(float64(x)*f.Zoom, float64(y)*f.Zoom, float64(z+seq)*f.Speed)
	return float32(v * f.Gain)
}

// Generate samples the field into a new grid of side n for sequence number
// seq. Y slabs are filled concurrently. It returns a *raymarch.ValidationError
// for a non-positive n and ctx.Err() if ctx is cancelled first.
func (f *Field) Generate(ctx context.Context, n, seq int) (*raymarch.VoxelGrid, error) {
	if n <= 0 {
		return nil, &raymarch.ValidationError{Field: "resolution", Reason: "must be positive"}
	}
	grid, err := raymarch.NewVoxelGrid(n, make([]float32, n*n*n))
	if err != nil {
		return nil, err
	}
	data := grid.Data()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < n; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for x := 0; x < n; x++ {
				for z := 0; z < n; z++ {
					data[grid.Offset(x, y, z)] = f.Density(x, y, z, seq)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grid, nil
}
