package channels

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// absGradientSum builds a saliency map by accumulating |Ix| + |Iy| central
// differences over the given channel buffers. The one-pixel border stays
// zero; selection never reads it because of its own larger margin.
func absGradientSum(rows, cols int, buffers ...[]float32) *mat.Dense {
	smap := mat.NewDense(rows, cols, nil)
	for _, buf := range buffers {
		for y := 1; y < rows-1; y++ {
			for x := 1; x < cols-1; x++ {
				ii := y*cols + x
				ix := math.Abs(float64(buf[ii+1]) - float64(buf[ii-1]))
				iy := math.Abs(float64(buf[ii+cols]) - float64(buf[ii-cols]))
				smap.Set(y, x, smap.At(y, x)+ix+iy)
			}
		}
	}
	return smap
}
