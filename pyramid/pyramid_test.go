package pyramid

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestGrayLevels(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(16 * x)})
		}
	}

	levels, err := Gray(img, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, levels, test.ShouldHaveLength, 3)
	test.That(t, levels[0].Bounds().Dx(), test.ShouldEqual, 8)
	test.That(t, levels[1].Bounds().Dx(), test.ShouldEqual, 4)
	test.That(t, levels[1].Bounds().Dy(), test.ShouldEqual, 4)
	test.That(t, levels[2].Bounds().Dx(), test.ShouldEqual, 2)

	// grayscale of a gray image keeps the values
	test.That(t, levels[0].GrayAt(3, 4).Y, test.ShouldEqual, uint8(48))
}

func TestGrayErrors(t *testing.T) {
	_, err := Gray(nil, 2)
	test.That(t, err, test.ShouldNotBeNil)

	img := image.NewGray(image.Rect(0, 0, 4, 4))
	_, err = Gray(img, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Gray(img, 4)
	test.That(t, err, test.ShouldNotBeNil)
}
