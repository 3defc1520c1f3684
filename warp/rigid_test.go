package warp

import (
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/viam-labs/photovo/template"
)

func testK() *mat.Dense {
	k := mat.NewDense(3, 3, nil)
	k.Set(0, 0, 500)
	k.Set(1, 1, 505)
	k.Set(0, 2, 320)
	k.Set(1, 2, 240)
	k.Set(2, 2, 1)
	return k
}

func TestNewRigidBodyErrors(t *testing.T) {
	_, err := NewRigidBody(nil, 0.1, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRigidBody(mat.NewDense(2, 2, nil), 0.1, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRigidBody(mat.NewDense(3, 3, nil), 0.1, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRigidBody(testK(), 0, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRigidBody(testK(), 0.1, -1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLevelScaling(t *testing.T) {
	rb0, err := NewRigidBody(testK(), 0.5, 0)
	test.That(t, err, test.ShouldBeNil)
	rb1, err := NewRigidBody(testK(), 0.5, 1)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, rb0.K().At(0, 0), test.ShouldAlmostEqual, 500)
	test.That(t, rb1.K().At(0, 0), test.ShouldAlmostEqual, 250)
	test.That(t, rb1.K().At(0, 2), test.ShouldAlmostEqual, 160)
	test.That(t, rb1.Level(), test.ShouldEqual, 1)
	test.That(t, rb1.Baseline(), test.ShouldAlmostEqual, 0.5)
}

func TestMakePointProjectRoundTrip(t *testing.T) {
	for _, level := range []int{0, 1, 2} {
		rb, err := NewRigidBody(testK(), 0.5, level)
		test.That(t, err, test.ShouldBeNil)
		for _, px := range [][2]float64{{10, 20}, {100.5, 55.25}, {3, 200}} {
			p := rb.MakePoint(px[0], px[1], 4.0)
			test.That(t, p.Z, test.ShouldBeGreaterThan, 0)
			proj := rb.Project(p)
			test.That(t, proj.X, test.ShouldAlmostEqual, px[0], 1e-9)
			test.That(t, proj.Y, test.ShouldAlmostEqual, px[1], 1e-9)
		}
	}
}

func TestTriangulatedDepth(t *testing.T) {
	rb, err := NewRigidBody(testK(), 0.5, 0)
	test.That(t, err, test.ShouldBeNil)
	// z = baseline * fx / d
	p := rb.MakePoint(320, 240, 2.0)
	test.That(t, p.Z, test.ShouldAlmostEqual, 0.5*500/2.0)
	// the principal point back-projects onto the optical axis
	test.That(t, p.X, test.ShouldAlmostEqual, 0)
	test.That(t, p.Y, test.ShouldAlmostEqual, 0)
}

func TestSetPoseErrors(t *testing.T) {
	rb, err := NewRigidBody(testK(), 0.5, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errors.Is(rb.SetPose(nil), ErrBadPose), test.ShouldBeTrue)
	test.That(t, errors.Is(rb.SetPose(mat.NewDense(3, 3, nil)), ErrBadPose), test.ShouldBeTrue)
	test.That(t, rb.SetPose(Identity()), test.ShouldBeNil)
}

func TestProjectUnderTranslation(t *testing.T) {
	rb, err := NewRigidBody(testK(), 0.5, 0)
	test.That(t, err, test.ShouldBeNil)
	p := rb.MakePoint(100, 80, 4.0)

	// pure x translation shifts the projection by fx*tx/z
	tx := 0.01
	test.That(t, rb.SetPose(PoseFromTwist(r3.Vector{}, r3.Vector{X: tx})), test.ShouldBeNil)
	proj := rb.Project(p)
	test.That(t, proj.X, test.ShouldAlmostEqual, 100+500*tx/p.Z, 1e-9)
	test.That(t, proj.Y, test.ShouldAlmostEqual, 80, 1e-9)
}

func TestPoseFromTwist(t *testing.T) {
	id := PoseFromTwist(r3.Vector{}, r3.Vector{})
	test.That(t, mat.EqualApprox(id, Identity(), 1e-12), test.ShouldBeTrue)

	// quarter turn about z maps x onto y
	quarter := PoseFromTwist(r3.Vector{Z: 1.5707963267948966}, r3.Vector{})
	test.That(t, quarter.At(0, 0), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, quarter.At(1, 0), test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, quarter.At(0, 1), test.ShouldAlmostEqual, -1, 1e-12)

	trans := PoseFromTwist(r3.Vector{}, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, trans.At(0, 3), test.ShouldEqual, 1)
	test.That(t, trans.At(1, 3), test.ShouldEqual, 2)
	test.That(t, trans.At(2, 3), test.ShouldEqual, 3)
}

// TestJacobianAtZeroMatchesFiniteDifferences checks the analytic warp
// jacobian against central differences of the projection, remembering that
// the warp jacobian is in normalized coordinates: pixel sensitivity is
// (fx, fy) times it.
func TestJacobianAtZeroMatchesFiniteDifferences(t *testing.T) {
	rb, err := NewRigidBody(testK(), 0.5, 0)
	test.That(t, err, test.ShouldBeNil)
	fd, err := NewRigidBody(testK(), 0.5, 0)
	test.That(t, err, test.ShouldBeNil)

	p := rb.MakePoint(150.0, 90.0, 3.0)
	jw := rb.JacobianAtZero(p)

	const eps = 1e-6
	for k := 0; k < template.NumPoseParams; k++ {
		var omega, trans r3.Vector
		setTwistParam(&omega, &trans, k, eps)
		test.That(t, fd.SetPose(PoseFromTwist(omega, trans)), test.ShouldBeNil)
		plus := fd.Project(p)
		setTwistParam(&omega, &trans, k, -eps)
		test.That(t, fd.SetPose(PoseFromTwist(omega, trans)), test.ShouldBeNil)
		minus := fd.Project(p)

		dx := (plus.X - minus.X) / (2 * eps)
		dy := (plus.Y - minus.Y) / (2 * eps)
		test.That(t, 500*jw[k], test.ShouldAlmostEqual, dx, 1e-3)
		test.That(t, 505*jw[template.NumPoseParams+k], test.ShouldAlmostEqual, dy, 1e-3)
	}
}

func setTwistParam(omega, trans *r3.Vector, k int, v float64) {
	*omega = r3.Vector{}
	*trans = r3.Vector{}
	switch k {
	case 0:
		omega.X = v
	case 1:
		omega.Y = v
	case 2:
		omega.Z = v
	case 3:
		trans.X = v
	case 4:
		trans.Y = v
	case 5:
		trans.Z = v
	}
}
