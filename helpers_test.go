package raymarch

import (
	"log/slog"
	"math/rand"
	"sync"
	"testing"
)

// uniformGrid returns an n³ grid with every cell set to v.
func uniformGrid(t testing.TB, n int, v float32) *VoxelGrid {
	t.Helper()
	data := make([]float32, n*n*n)
	for i := range data {
		data[i] = v
	}
	g, err := NewVoxelGrid(n, data)
	if err != nil {
		t.Fatalf("NewVoxelGrid: %v", err)
	}
	return g
}

// randomGrid returns an n³ grid of densities in [-0.02, 0.08) from a fixed
// seed, so some cells are negative and most rays exhaust slowly.
func randomGrid(t testing.TB, n int, seed int64) *VoxelGrid {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	data := make([]float32, n*n*n)
	for i := range data {
		data[i] = r.Float32()*0.1 - 0.02
	}
	g, err := NewVoxelGrid(n, data)
	if err != nil {
		t.Fatalf("NewVoxelGrid: %v", err)
	}
	return g
}

// newTestContext creates and initialises a context closed at test end.
func newTestContext(t testing.TB, n int, opts ...Option) *RendererContext {
	t.Helper()
	rc, err := NewRendererContext(n, opts...)
	if err != nil {
		t.Fatalf("NewRendererContext: %v", err)
	}
	if err := rc.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

// mockAccelerator is an Accelerator for testing context and dispatcher
// behaviour without a GPU.
type mockAccelerator struct {
	name     string
	initErr  error
	marchErr error
	fill     float32

	// onMarch, if set, runs inside March before it returns.
	onMarch func()

	mu      sync.Mutex
	inits   int
	closes  int
	marches int
	logger  *slog.Logger
}

func (m *mockAccelerator) Name() string { return m.name }

func (m *mockAccelerator) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inits++
	return m.initErr
}

func (m *mockAccelerator) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
}

func (m *mockAccelerator) March(_ FrameJob, dst []float32) error {
	m.mu.Lock()
	m.marches++
	m.mu.Unlock()

	if m.onMarch != nil {
		m.onMarch()
	}
	if m.marchErr != nil {
		return m.marchErr
	}
	for i := range dst {
		dst[i] = m.fill
	}
	return nil
}

func (m *mockAccelerator) SetLogger(l *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = l
}

func (m *mockAccelerator) counts() (inits, closes, marches int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inits, m.closes, m.marches
}
