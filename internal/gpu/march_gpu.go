// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/raymarch"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// fenceTimeout bounds the wait for one frame dispatch.
const fenceTimeout = 5 * time.Second

// errProbeMismatch is returned by Init when the GPU kernel disagrees with
// the CPU kernel on the probe volume.
var errProbeMismatch = errors.New("gpu: probe frame disagrees with CPU kernel")

// MarchAccelerator runs the ray-marching kernel as a compute shader.
// It implements raymarch.Accelerator.
//
// All methods are safe for concurrent use; frames are serialised on the
// accelerator's device queue.
type MarchAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	frame *frameResources

	adapterName    string
	gpuReady       bool
	externalDevice bool // shared device: not destroyed on Close
}

var _ raymarch.Accelerator = (*MarchAccelerator)(nil)

// frameResources are the per-resolution buffers and bind group.
type frameResources struct {
	n            int
	params       hal.Buffer
	voxels       hal.Buffer
	opacity      hal.Buffer
	staging      hal.Buffer
	bindGroup    hal.BindGroup
	voxelBytes   uint64
	opacityBytes uint64

	// upload and readback are reused host-side scratch buffers.
	upload   []byte
	readback []byte
}

// NewMarchAccelerator returns an accelerator that acquires its own device
// on Init.
func NewMarchAccelerator() *MarchAccelerator {
	return &MarchAccelerator{}
}

// Name returns "vulkan-compute".
func (a *MarchAccelerator) Name() string { return "vulkan-compute" }

// SetLogger sets the package logger. Called by raymarch.SetLogger.
func (a *MarchAccelerator) SetLogger(l *slog.Logger) { setLogger(l) }

// Init opens a Vulkan device (unless one was provided), builds the compute
// pipeline and validates it against the CPU kernel.
func (a *MarchAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.gpuReady {
		return nil
	}
	if err := a.initGPU(); err != nil {
		a.releaseLocked()
		return err
	}
	if err := a.probeLocked(); err != nil {
		a.releaseLocked()
		return err
	}
	slogger().Info("gpu: march accelerator initialized", "adapter", a.adapterName)
	return nil
}

// Close releases all GPU resources. A shared device is left to its owner.
func (a *MarchAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
}

// Ready reports whether frames are dispatched to the GPU.
func (a *MarchAccelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// SetDeviceProvider switches the accelerator to a shared GPU device from a
// host (e.g., a gogpu window). The provider must implement HalDevice() any
// and HalQueue() any returning hal.Device and hal.Queue.
func (a *MarchAccelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()
	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.adapterName = "shared"

	if err := a.createPipeline(); err != nil {
		a.releaseLocked()
		return fmt.Errorf("gpu: create pipeline with shared device: %w", err)
	}
	a.gpuReady = true
	if err := a.probeLocked(); err != nil {
		a.releaseLocked()
		return err
	}
	slogger().Info("gpu: switched to shared GPU device")
	return nil
}

// March dispatches one frame. It returns raymarch.ErrFallbackToCPU when the
// GPU is not ready.
func (a *MarchAccelerator) March(job raymarch.FrameJob, dst []float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.gpuReady {
		return raymarch.ErrFallbackToCPU
	}
	if n := job.Grid.Size(); len(dst) != n*n {
		return fmt.Errorf("gpu: destination holds %d pixels, want %d", len(dst), n*n)
	}
	return a.marchLocked(job, dst)
}

func (a *MarchAccelerator) marchLocked(job raymarch.FrameJob, dst []float32) error {
	n := job.Grid.Size()
	fr, err := a.frameFor(n)
	if err != nil {
		return err
	}

	packFloats(fr.upload, job.Grid.Data())
	a.queue.WriteBuffer(fr.params, 0, packParams(job))
	a.queue.WriteBuffer(fr.voxels, 0, fr.upload)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "raymarch_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("raymarch"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "raymarch_pass"})
	pass.SetPipeline(a.pipeline)
	pass.SetBindGroup(0, fr.bindGroup, nil)
	groups := dispatchSize(n)
	pass.Dispatch(groups, groups, 1)
	pass.End()

	encoder.CopyBufferToBuffer(fr.opacity, fr.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: fr.opacityBytes},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)

	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return fmt.Errorf("wait for GPU: timed out after %v", fenceTimeout)
	}

	if err := a.queue.ReadBuffer(fr.staging, 0, fr.readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	unpackFloats(dst, fr.readback)
	return nil
}

// frameFor returns the frame buffers for resolution n, rebuilding them when
// the resolution changed.
func (a *MarchAccelerator) frameFor(n int) (*frameResources, error) {
	if a.frame != nil && a.frame.n == n {
		return a.frame, nil
	}
	a.destroyFrame()

	fr, err := a.createFrame(n)
	if err != nil {
		return nil, err
	}
	a.frame = fr
	slogger().Debug("gpu: frame buffers created", "n", n, "voxel_bytes", fr.voxelBytes)
	return fr, nil
}

func (a *MarchAccelerator) createFrame(n int) (*frameResources, error) {
	fr := &frameResources{
		n:            n,
		voxelBytes:   uint64(n) * uint64(n) * uint64(n) * 4, //nolint:gosec // resolution is positive
		opacityBytes: uint64(n) * uint64(n) * 4,             //nolint:gosec // resolution is positive
	}
	fr.upload = make([]byte, fr.voxelBytes)
	fr.readback = make([]byte, fr.opacityBytes)

	var err error
	fr.params, err = a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "raymarch_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create params buffer: %w", err)
	}
	fr.voxels, err = a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "raymarch_voxels", Size: fr.voxelBytes,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		a.destroyResources(fr)
		return nil, fmt.Errorf("create voxel buffer: %w", err)
	}
	fr.opacity, err = a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "raymarch_opacity", Size: fr.opacityBytes,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		a.destroyResources(fr)
		return nil, fmt.Errorf("create opacity buffer: %w", err)
	}
	fr.staging, err = a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "raymarch_staging", Size: fr.opacityBytes,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		a.destroyResources(fr)
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}

	fr.bindGroup, err = a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "raymarch_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: fr.params.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: fr.voxels.NativeHandle(), Offset: 0, Size: fr.voxelBytes}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: fr.opacity.NativeHandle(), Offset: 0, Size: fr.opacityBytes}},
		},
	})
	if err != nil {
		a.destroyResources(fr)
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	return fr, nil
}

func (a *MarchAccelerator) destroyFrame() {
	if a.frame == nil {
		return
	}
	a.destroyResources(a.frame)
	a.frame = nil
}

func (a *MarchAccelerator) destroyResources(fr *frameResources) {
	if a.device == nil {
		return
	}
	if fr.bindGroup != nil {
		a.device.DestroyBindGroup(fr.bindGroup)
	}
	for _, b := range []hal.Buffer{fr.params, fr.voxels, fr.opacity, fr.staging} {
		if b != nil {
			a.device.DestroyBuffer(b)
		}
	}
}

func (a *MarchAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	a.adapterName = selected.Info.Name

	if err := a.createPipeline(); err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	a.gpuReady = true
	return nil
}

func (a *MarchAccelerator) createPipeline() error {
	spirv, err := compileSPIRV(raymarchShaderSource)
	if err != nil {
		return err
	}
	a.shader, err = a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "raymarch",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	a.bindLayout, err = a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "raymarch_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	a.pipeLayout, err = a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "raymarch_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	a.pipeline, err = a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "raymarch_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	return nil
}

func (a *MarchAccelerator) destroyPipeline() {
	if a.device == nil {
		return
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}

func (a *MarchAccelerator) releaseLocked() {
	a.destroyFrame()
	a.destroyPipeline()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
	}
	a.device = nil
	a.queue = nil
	a.instance = nil
	a.gpuReady = false
	a.externalDevice = false
}

// Probe volume parameters.
const (
	probeSize = 16

	// probeTolerance is the largest per-pixel difference from the CPU
	// kernel that still counts as agreement.
	probeTolerance = 1e-3
)

// probeLocked marches a fixed volume on the GPU and compares it with the
// CPU kernel. Rounding differences may move a few samples across a cell
// boundary, so up to 1/16 of the pixels may disagree.
func (a *MarchAccelerator) probeLocked() error {
	data := make([]float32, probeSize*probeSize*probeSize)
	for i := range data {
		data[i] = float32((i*7)%13) * 0.004
	}
	grid, err := raymarch.NewVoxelGrid(probeSize, data)
	if err != nil {
		return err
	}
	job := raymarch.FrameJob{Grid: grid, Camera: raymarch.DefaultCamera(), Params: raymarch.DefaultKernelParams()}

	got := make([]float32, probeSize*probeSize)
	if err := a.marchLocked(job, got); err != nil {
		return fmt.Errorf("probe frame: %w", err)
	}

	mismatched := 0
	for y := 0; y < probeSize; y++ {
		for x := 0; x < probeSize; x++ {
			want := raymarch.Trace(x, y, job.Camera, grid, job.Params).Opacity
			if math.Abs(float64(got[y*probeSize+x]-want)) > probeTolerance {
				mismatched++
			}
		}
	}
	if mismatched > probeSize*probeSize/16 {
		return fmt.Errorf("%w: %d of %d pixels", errProbeMismatch, mismatched, probeSize*probeSize)
	}
	return nil
}
