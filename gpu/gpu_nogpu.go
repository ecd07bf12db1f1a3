//go:build nogpu

package gpu

import (
	"errors"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/raymarch"
)

// NewAccelerator returns nil: the GPU backend is excluded by the nogpu
// build tag.
func NewAccelerator() raymarch.Accelerator {
	return nil
}

// SetDeviceProvider reports that device sharing is unavailable.
func SetDeviceProvider(_ *raymarch.RendererContext, _ gpucontext.DeviceProvider) error {
	return errors.New("gpu: built with nogpu tag")
}
