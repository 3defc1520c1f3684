// Package pyramid builds the per-level grayscale images the channel views are
// computed from.
package pyramid

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Gray converts img to grayscale and returns levels images, each half the
// size of the previous one (box-filtered). Level 0 is full resolution.
func Gray(img image.Image, levels int) ([]*image.Gray, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	if levels < 1 {
		return nil, errors.Errorf("need at least one level, got %d", levels)
	}
	out := make([]*image.Gray, 0, levels)
	out = append(out, toGray(imaging.Grayscale(img)))
	for l := 1; l < levels; l++ {
		prev := out[l-1]
		w, h := prev.Bounds().Dx()/2, prev.Bounds().Dy()/2
		if w < 1 || h < 1 {
			return nil, errors.Errorf("image %dx%d is too small for %d levels",
				img.Bounds().Dx(), img.Bounds().Dy(), levels)
		}
		out = append(out, toGray(imaging.Resize(prev, w, h, imaging.Box)))
	}
	return out, nil
}

func toGray(img *image.NRGBA) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// imaging.Grayscale already equalized the channels; any one of
			// them is the luminance.
			gray.Pix[gray.PixOffset(x, y)] = img.Pix[img.PixOffset(x, y)]
		}
	}
	return gray
}
