package template

import "gonum.org/v1/gonum/mat"

// candidate is one selected pixel: its linear row-major index into the level
// image and its depth reading.
type candidate struct {
	index int
	depth float32
}

// validPixelLocations scans the saliency map in row-major order and returns
// every pixel that has a usable depth and, when NMS is on, is the strict
// saliency maximum of its neighborhood. The scan excludes a border of
// max(2, nmsRadius) pixels: the gradient computation reads one neighbor in
// each direction and NMS reads a radius-sized window.
func validPixelLocations(dmap DepthView, smap *mat.Dense, nmsRadius int, doNMS bool) []candidate {
	rows, cols := smap.Dims()
	border := nmsRadius
	if border < 2 {
		border = 2
	}
	out := make([]candidate, 0, rows*cols/4)
	for y := border; y < rows-border-1; y++ {
		for x := border; x < cols-border-1; x++ {
			d := dmap.DepthAt(y, x)
			if d <= 0 {
				continue
			}
			if doNMS && !isLocalMax(smap, y, x, nmsRadius) {
				continue
			}
			out = append(out, candidate{index: y*cols + x, depth: d})
		}
	}
	return out
}

// isLocalMax reports whether smap(y,x) is strictly greater than every other
// value within the radius. Ties are rejected on both sides, which keeps any
// two selected pixels at least radius+1 apart.
func isLocalMax(smap *mat.Dense, y, x, radius int) bool {
	v := smap.At(y, x)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dy == 0 && dx == 0 {
				continue
			}
			if smap.At(y+dy, x+dx) >= v {
				return false
			}
		}
	}
	return true
}
