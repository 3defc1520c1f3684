package disparity

import (
	"testing"

	"go.viam.com/test"
)

func TestNewMap(t *testing.T) {
	m, err := NewMap(2, 3, []float32{1, 2, 3, 4, 5, 6})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Rows(), test.ShouldEqual, 2)
	test.That(t, m.Cols(), test.ShouldEqual, 3)
	test.That(t, m.At(1, 2), test.ShouldEqual, 6)

	_, err = NewMap(2, 3, []float32{1, 2})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewMap(0, 3, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewEmptyMap(t *testing.T) {
	m := NewEmptyMap(4, 4)
	test.That(t, m.At(3, 3), test.ShouldEqual, 0)
	m.Set(3, 3, 2.5)
	test.That(t, m.At(3, 3), test.ShouldEqual, 2.5)
}

func TestPyramidLevel(t *testing.T) {
	m := NewEmptyMap(4, 6)
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			m.Set(y, x, float32(10*y+x))
		}
	}

	lvl0, err := NewPyramidLevel(m, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lvl0.Rows(), test.ShouldEqual, 4)
	test.That(t, lvl0.Cols(), test.ShouldEqual, 6)
	test.That(t, lvl0.DepthAt(2, 3), test.ShouldEqual, 23)

	lvl1, err := NewPyramidLevel(m, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lvl1.Rows(), test.ShouldEqual, 2)
	test.That(t, lvl1.Cols(), test.ShouldEqual, 3)
	// samples (2,4) at full resolution, scaled by 1/2
	test.That(t, lvl1.DepthAt(1, 2), test.ShouldEqual, 12)
}

func TestPyramidLevelErrors(t *testing.T) {
	m := NewEmptyMap(2, 2)
	_, err := NewPyramidLevel(nil, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPyramidLevel(m, -1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPyramidLevel(m, 3)
	test.That(t, err, test.ShouldNotBeNil)
}
