//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/raymarch"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

type mockQueue struct{}

type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider without HAL access.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

func TestNewAccelerator(t *testing.T) {
	a := NewAccelerator()
	if a == nil {
		t.Fatal("NewAccelerator returned nil")
	}
	if a.Name() == "" {
		t.Error("accelerator has empty name")
	}
	if _, ok := a.(raymarch.DeviceProviderAware); !ok {
		t.Error("accelerator does not accept device providers")
	}
}

func TestSetDeviceProvider_WithoutHAL(t *testing.T) {
	rc, err := raymarch.NewRendererContext(8, raymarch.WithAccelerator(NewAccelerator()))
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	if err := SetDeviceProvider(rc, &mockProvider{}); err == nil {
		t.Error("SetDeviceProvider accepted a provider without HAL types")
	}
}

func TestSetDeviceProvider_CPUContext(t *testing.T) {
	rc, err := raymarch.NewRendererContext(8)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	// No accelerator: nothing to switch.
	if err := SetDeviceProvider(rc, &mockProvider{}); err != nil {
		t.Errorf("SetDeviceProvider on CPU context: %v", err)
	}
}

// TestAcceleratedContext renders through the GPU when an adapter exists and
// through the CPU fallback otherwise; both must produce a frame.
func TestAcceleratedContext(t *testing.T) {
	rc, err := raymarch.NewRendererContext(16, raymarch.WithAccelerator(NewAccelerator()))
	if err != nil {
		t.Fatal(err)
	}
	if err := rc.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer rc.Close()

	data := make([]float32, 16*16*16)
	for i := range data {
		data[i] = 1
	}
	grid, err := raymarch.NewVoxelGrid(16, data)
	if err != nil {
		t.Fatal(err)
	}

	d := raymarch.NewDispatcher(rc)
	cam := raymarch.DefaultCamera()
	frame, err := d.Render(t.Context(), raymarch.Snapshot{Grid: grid, Camera: &cam, Generation: 1})
	if err != nil {
		t.Fatalf("Render (%s): %v", rc.AcceleratorName(), err)
	}
	if frame.Size() != 16 {
		t.Errorf("frame size = %d, want 16", frame.Size())
	}
}
