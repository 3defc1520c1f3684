// Package channels provides multi-channel image views for template
// extraction and residual evaluation: raw grayscale intensity and a census
// bit-planes descriptor, each with its own saliency map.
package channels

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// Intensity is a single-channel float view of a grayscale image.
type Intensity struct {
	rows, cols int
	data       []float32
}

// NewIntensity copies the image into a flat row-major float32 buffer.
func NewIntensity(img *image.Gray) *Intensity {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	data := make([]float32, rows*cols)
	for y := 0; y < rows; y++ {
		rowStart := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < cols; x++ {
			data[y*cols+x] = float32(img.Pix[rowStart+x])
		}
	}
	return &Intensity{rows: rows, cols: cols, data: data}
}

// Size returns 1, the raw intensity is a single channel.
func (in *Intensity) Size() int { return 1 }

// Rows returns the image height.
func (in *Intensity) Rows() int { return in.rows }

// Cols returns the image width.
func (in *Intensity) Cols() int { return in.cols }

// ChannelData returns the flat intensity buffer. Only channel 0 exists.
func (in *Intensity) ChannelData(c int) []float32 {
	if c != 0 {
		panic("intensity has a single channel")
	}
	return in.data
}

// SaliencyMap scores each pixel by the absolute gradient magnitude
// |Ix| + |Iy| from central differences, zero on the one-pixel border.
func (in *Intensity) SaliencyMap() *mat.Dense {
	return absGradientSum(in.rows, in.cols, in.data)
}
