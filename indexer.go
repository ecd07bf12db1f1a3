package raymarch

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CellIndex maps one domain coordinate to a cell index along that axis of a
// grid of side n. The result is clamped to [0, n-1], so coordinates that
// round onto the upper face still land in the last cell. Clamping happens
// before the integer conversion, so +Inf maps to n-1 and NaN maps to 0.
func CellIndex(coord float32, n int) int {
	f := math.Floor(float64((coord - DomainMin) / UnitsPerPixel(n)))
	if !(f > 0) {
		return 0
	}
	if f >= float64(n-1) {
		return n - 1
	}
	return int(f)
}

// Index returns the flattened buffer offset of the cell containing p.
// Positions outside the domain return ErrOutOfDomain.
func (g *VoxelGrid) Index(p mgl32.Vec3) (int, error) {
	if !InDomain(p) {
		return 0, fmt.Errorf("index %v: %w", p, ErrOutOfDomain)
	}
	return g.index(p), nil
}

// Sample returns the density of the cell containing p.
// Positions outside the domain return ErrOutOfDomain.
func (g *VoxelGrid) Sample(p mgl32.Vec3) (float32, error) {
	off, err := g.Index(p)
	if err != nil {
		return 0, err
	}
	return g.data[off], nil
}

// index is Index without the domain check.
func (g *VoxelGrid) index(p mgl32.Vec3) int {
	return cellOffset(g.n, CellIndex(p[0], g.n), CellIndex(p[1], g.n), CellIndex(p[2], g.n))
}
