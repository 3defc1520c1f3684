package channels

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// NumBitPlanes is the number of census comparisons in a 3x3 neighborhood.
const NumBitPlanes = 8

// census neighbor offsets in scan order, center excluded.
var censusOffsets = [NumBitPlanes][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// BitPlanes is the 8-channel census-transform descriptor of a grayscale
// image: channel k holds 1 where the k-th neighbor is at least as bright as
// the center, 0 elsewhere. Each plane can be pre-smoothed with a 3x3
// binomial kernel so its central-difference gradients are less brittle.
type BitPlanes struct {
	rows, cols int
	planes     [NumBitPlanes][]float32
}

// NewBitPlanes computes the census bit-planes of img, smoothing each plane
// when smooth is set. The one-pixel border of every plane is zero.
func NewBitPlanes(img *image.Gray, smooth bool) *BitPlanes {
	in := NewIntensity(img)
	rows, cols := in.rows, in.cols
	bp := &BitPlanes{rows: rows, cols: cols}
	for k := range bp.planes {
		bp.planes[k] = make([]float32, rows*cols)
	}
	for y := 1; y < rows-1; y++ {
		for x := 1; x < cols-1; x++ {
			center := in.data[y*cols+x]
			for k, off := range censusOffsets {
				if in.data[(y+off[0])*cols+(x+off[1])] >= center {
					bp.planes[k][y*cols+x] = 1
				}
			}
		}
	}
	if smooth {
		for k := range bp.planes {
			bp.planes[k] = binomialSmooth(rows, cols, bp.planes[k])
		}
	}
	return bp
}

// Size returns the number of bit-planes.
func (bp *BitPlanes) Size() int { return NumBitPlanes }

// Rows returns the image height.
func (bp *BitPlanes) Rows() int { return bp.rows }

// Cols returns the image width.
func (bp *BitPlanes) Cols() int { return bp.cols }

// ChannelData returns bit-plane c as a flat row-major buffer.
func (bp *BitPlanes) ChannelData(c int) []float32 {
	return bp.planes[c]
}

// SaliencyMap accumulates the absolute gradient magnitude over all planes.
func (bp *BitPlanes) SaliencyMap() *mat.Dense {
	return absGradientSum(bp.rows, bp.cols, bp.planes[:]...)
}

// binomialSmooth applies the separable [1 2 1]/4 kernel in both directions,
// leaving the one-pixel border untouched.
func binomialSmooth(rows, cols int, buf []float32) []float32 {
	tmp := make([]float32, len(buf))
	copy(tmp, buf)
	for y := 0; y < rows; y++ {
		for x := 1; x < cols-1; x++ {
			ii := y*cols + x
			tmp[ii] = 0.25 * (buf[ii-1] + 2*buf[ii] + buf[ii+1])
		}
	}
	out := make([]float32, len(buf))
	copy(out, tmp)
	for y := 1; y < rows-1; y++ {
		for x := 0; x < cols; x++ {
			ii := y*cols + x
			out[ii] = 0.25 * (tmp[ii-cols] + 2*tmp[ii] + tmp[ii+cols])
		}
	}
	return out
}
