//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/raymarch"
)

// paramsSize is the size of the WGSL Params uniform:
// n, max_steps, step_size, screen_ratio, camera vec4, focal vec4.
const paramsSize = 48

// packParams encodes the uniform block for job.
func packParams(job raymarch.FrameJob) []byte {
	buf := make([]byte, paramsSize)
	le := binary.LittleEndian

	le.PutUint32(buf[0:], uint32(job.Grid.Size()))       //nolint:gosec // resolution fits uint32
	le.PutUint32(buf[4:], uint32(job.Params.MaxSteps))   //nolint:gosec // validated positive
	le.PutUint32(buf[8:], math.Float32bits(job.Params.StepSize))
	le.PutUint32(buf[12:], math.Float32bits(job.Camera.ScreenRatio))

	for i := 0; i < 3; i++ {
		le.PutUint32(buf[16+i*4:], math.Float32bits(job.Camera.Position[i]))
		le.PutUint32(buf[32+i*4:], math.Float32bits(job.Camera.Focal[i]))
	}
	return buf
}

// packFloats encodes src as little-endian f32 words into dst, which must
// hold len(src)*4 bytes.
func packFloats(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// unpackFloats decodes little-endian f32 words from src into dst.
func unpackFloats(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}
