package raymarch

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Frame is an N×N image of opacities in [0, 1], stored row by row
// (offset y*N + x).
type Frame struct {
	size       int
	generation uint64
	data       []float32
}

// NewFrame creates an empty frame of side n.
func NewFrame(n int) *Frame {
	return &Frame{size: n, data: make([]float32, n*n)}
}

// Size returns the side length of the frame.
func (f *Frame) Size() int {
	return f.size
}

// Generation returns the snapshot generation the frame was rendered from.
func (f *Frame) Generation() uint64 {
	return f.generation
}

// Data returns the raw opacities, row-major.
func (f *Frame) Data() []float32 {
	return f.data
}

// Opacity returns the opacity of pixel (x, y), or 0 outside the frame.
func (f *Frame) Opacity(x, y int) float32 {
	if x < 0 || x >= f.size || y < 0 || y >= f.size {
		return 0
	}
	return f.data[y*f.size+x]
}

// Set sets the opacity of pixel (x, y). Out-of-range pixels are ignored.
func (f *Frame) Set(x, y int, o float32) {
	if x < 0 || x >= f.size || y < 0 || y >= f.size {
		return
	}
	f.data[y*f.size+x] = o
}

// Gray converts the frame to an 8-bit grayscale image.
func (f *Frame) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.size, f.size))
	for i, o := range f.data {
		img.Pix[i] = toByte(o)
	}
	return img
}

// RGBA converts the frame to an opaque monochrome image: every channel
// carries the opacity and alpha is 255.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.size, f.size))
	for i, o := range f.data {
		v := toByte(o)
		j := i * 4
		img.Pix[j+0] = v
		img.Pix[j+1] = v
		img.Pix[j+2] = v
		img.Pix[j+3] = 0xff
	}
	return img
}

// Scale returns the frame as an RGBA image of side size, resampled with
// Catmull-Rom. A size equal to the frame side returns RGBA().
func (f *Frame) Scale(size int) *image.RGBA {
	src := f.RGBA()
	if size == f.size || size <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// EncodePNG writes the frame to w as a grayscale PNG.
func (f *Frame) EncodePNG(w io.Writer) error {
	return png.Encode(w, f.Gray())
}

// SavePNG saves the frame to a PNG file.
func (f *Frame) SavePNG(path string) error {
	file, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := f.EncodePNG(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// At implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	return color.Gray{Y: toByte(f.Opacity(x, y))}
}

// Bounds implements the image.Image interface.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.size, f.size)
}

// ColorModel implements the image.Image interface.
func (f *Frame) ColorModel() color.Model {
	return color.GrayModel
}

func toByte(o float32) uint8 {
	switch {
	case !(o > 0):
		return 0
	case o >= 1:
		return 0xff
	default:
		return uint8(o*255 + 0.5)
	}
}
