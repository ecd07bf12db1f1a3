package raymarch

// VoxelGrid is a cubic grid of side N holding N³ float32 densities.
//
// A VoxelGrid is an immutable snapshot: the renderer never writes to it,
// and a producer must hand a new grid to the renderer rather than mutating
// one that is being rendered.
//
// Densities are stored flattened with Y as the slowest axis and Z as the
// fastest (see Offset).
type VoxelGrid struct {
	n    int
	data []float32
}

// NewVoxelGrid wraps data as a grid of side n.
// It returns a *ValidationError if n is not positive or len(data) != n³.
// The slice is retained, not copied.
func NewVoxelGrid(n int, data []float32) (*VoxelGrid, error) {
	if n <= 0 {
		return nil, validationErrorf("resolution", "must be positive, got %d", n)
	}
	if want := n * n * n; len(data) != want {
		return nil, validationErrorf("voxel buffer", "length %d, want %d for N=%d", len(data), want, n)
	}
	return &VoxelGrid{n: n, data: data}, nil
}

// Size returns the side length N.
func (g *VoxelGrid) Size() int {
	return g.n
}

// Data returns the flattened densities. Callers must not modify the slice
// while the grid may be rendered.
func (g *VoxelGrid) Data() []float32 {
	return g.data
}

// Offset returns the flattened buffer offset of cell (ix, iy, iz).
// Indices are not range-checked.
func (g *VoxelGrid) Offset(ix, iy, iz int) int {
	return cellOffset(g.n, ix, iy, iz)
}

// At returns the density of cell (ix, iy, iz), or 0 for indices outside
// the grid.
func (g *VoxelGrid) At(ix, iy, iz int) float32 {
	if ix < 0 || iy < 0 || iz < 0 || ix >= g.n || iy >= g.n || iz >= g.n {
		return 0
	}
	return g.data[g.Offset(ix, iy, iz)]
}

func cellOffset(n, ix, iy, iz int) int {
	return iy*n*n + ix*n + iz
}
