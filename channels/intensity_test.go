package channels

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

// rampGray builds an image with I(y,x) = a*x + b*y.
func rampGray(rows, cols, a, b int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(a*x + b*y)})
		}
	}
	return img
}

func TestNewIntensity(t *testing.T) {
	img := rampGray(4, 6, 3, 10)
	in := NewIntensity(img)
	test.That(t, in.Size(), test.ShouldEqual, 1)
	test.That(t, in.Rows(), test.ShouldEqual, 4)
	test.That(t, in.Cols(), test.ShouldEqual, 6)

	buf := in.ChannelData(0)
	test.That(t, buf, test.ShouldHaveLength, 24)
	test.That(t, buf[2*6+5], test.ShouldEqual, float32(3*5+10*2))
}

func TestIntensitySaliencyMap(t *testing.T) {
	in := NewIntensity(rampGray(6, 6, 2, 3))
	smap := in.SaliencyMap()
	rows, cols := smap.Dims()
	test.That(t, rows, test.ShouldEqual, 6)
	test.That(t, cols, test.ShouldEqual, 6)

	// interior of a linear ramp: |Ix| + |Iy| = 2a + 2b
	test.That(t, smap.At(2, 3), test.ShouldAlmostEqual, 2*2+2*3)
	// border stays zero
	test.That(t, smap.At(0, 3), test.ShouldEqual, 0)
	test.That(t, smap.At(3, 5), test.ShouldEqual, 0)
}
