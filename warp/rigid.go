// Package warp implements the rigid-body stereo warp model: triangulation of
// disparity readings into camera-frame points and their projection back into
// the image plane under a candidate pose.
package warp

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/viam-labs/photovo/template"
)

// ErrBadPose is when a candidate pose is not a 4x4 matrix.
var ErrBadPose = errors.New("pose must be a 4x4 matrix")

// RigidBody is a pinhole stereo warp at a fixed pyramid level. Its intrinsics
// are scaled by 2^-level at construction so that MakePoint and Project both
// operate in level pixel coordinates. SetPose is the only mutating method.
type RigidBody struct {
	fx, fy, cx, cy float64
	baseline       float64
	level          int

	// p is the 3x4 projection K*[R|t] under the current pose, row-major.
	p [12]float64
}

// NewRigidBody creates a warp from a 3x3 intrinsic matrix at full resolution,
// a stereo baseline in the depth unit, and a pyramid level. The pose starts
// at identity.
func NewRigidBody(k *mat.Dense, baseline float64, level int) (*RigidBody, error) {
	if k == nil {
		return nil, errors.New("nil intrinsic matrix")
	}
	if r, c := k.Dims(); r != 3 || c != 3 {
		return nil, errors.Errorf("intrinsic matrix is %dx%d, want 3x3", r, c)
	}
	if k.At(0, 0) <= 0 || k.At(1, 1) <= 0 {
		return nil, errors.Errorf("invalid focal lengths (%f, %f)", k.At(0, 0), k.At(1, 1))
	}
	if baseline <= 0 {
		return nil, errors.Errorf("invalid stereo baseline %f", baseline)
	}
	if level < 0 {
		return nil, errors.Errorf("invalid pyramid level %d", level)
	}
	s := 1.0 / float64(int(1)<<uint(level))
	rb := &RigidBody{
		fx:       s * k.At(0, 0),
		fy:       s * k.At(1, 1),
		cx:       s * k.At(0, 2),
		cy:       s * k.At(1, 2),
		baseline: baseline,
		level:    level,
	}
	if err := rb.SetPose(Identity()); err != nil {
		return nil, err
	}
	return rb, nil
}

// MakePoint triangulates the pixel (x, y) with disparity d into a 3D point in
// the reference camera frame. Callers must pass a valid disparity (> 0).
func (rb *RigidBody) MakePoint(x, y float64, d float32) r3.Vector {
	z := rb.baseline * rb.fx / float64(d)
	return r3.Vector{
		X: (x - rb.cx) * z / rb.fx,
		Y: (y - rb.cy) * z / rb.fy,
		Z: z,
	}
}

// JacobianAtZero returns the derivative of the normalized projection of p
// with respect to the pose parameters (w1, w2, w3, t1, t2, t3) at identity.
// Focal scaling is intentionally absent; the template applies it together
// with the image gradient.
func (rb *RigidBody) JacobianAtZero(p r3.Vector) template.WarpJacobian {
	xz := p.X / p.Z
	yz := p.Y / p.Z
	iz := 1.0 / p.Z
	return template.WarpJacobian{
		-xz * yz, 1 + xz*xz, -yz, iz, 0, -xz * iz,
		-(1 + yz*yz), xz * yz, xz, 0, iz, -yz * iz,
	}
}

// SetPose replaces the current pose with the 4x4 transform from the reference
// to the current camera frame and refreshes the cached projection.
func (rb *RigidBody) SetPose(pose *mat.Dense) error {
	if pose == nil {
		return errors.Wrap(ErrBadPose, "nil pose")
	}
	if r, c := pose.Dims(); r != 4 || c != 4 {
		return errors.Wrapf(ErrBadPose, "got %dx%d", r, c)
	}
	for j := 0; j < 4; j++ {
		r0, r1, r2 := pose.At(0, j), pose.At(1, j), pose.At(2, j)
		rb.p[j] = rb.fx*r0 + rb.cx*r2
		rb.p[4+j] = rb.fy*r1 + rb.cy*r2
		rb.p[8+j] = r2
	}
	return nil
}

// Project maps a reference-frame point into continuous level pixel
// coordinates under the current pose.
func (rb *RigidBody) Project(p r3.Vector) r2.Point {
	w := rb.p[8]*p.X + rb.p[9]*p.Y + rb.p[10]*p.Z + rb.p[11]
	return r2.Point{
		X: (rb.p[0]*p.X + rb.p[1]*p.Y + rb.p[2]*p.Z + rb.p[3]) / w,
		Y: (rb.p[4]*p.X + rb.p[5]*p.Y + rb.p[6]*p.Z + rb.p[7]) / w,
	}
}

// K returns the intrinsic matrix scaled to the warp's pyramid level.
func (rb *RigidBody) K() *mat.Dense {
	k := mat.NewDense(3, 3, nil)
	k.Set(0, 0, rb.fx)
	k.Set(1, 1, rb.fy)
	k.Set(0, 2, rb.cx)
	k.Set(1, 2, rb.cy)
	k.Set(2, 2, 1)
	return k
}

// Baseline returns the stereo baseline.
func (rb *RigidBody) Baseline() float64 { return rb.baseline }

// Level returns the pyramid level.
func (rb *RigidBody) Level() int { return rb.level }

// Identity returns the 4x4 identity transform, the pose under which every
// template point projects back to its original sampling location.
func Identity() *mat.Dense {
	pose := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		pose.Set(i, i, 1)
	}
	return pose
}

// PoseFromTwist builds a 4x4 transform from a rotation vector (Rodrigues) and
// a translation, matching the parameterization JacobianAtZero differentiates:
// X' = R(omega)*X + trans.
func PoseFromTwist(omega, trans r3.Vector) *mat.Dense {
	pose := Identity()
	theta := omega.Norm()
	var a, b float64
	switch {
	case theta < 1e-12:
		a, b = 1, 0.5
	default:
		a = math.Sin(theta) / theta
		b = (1 - math.Cos(theta)) / (theta * theta)
	}
	wx, wy, wz := omega.X, omega.Y, omega.Z
	// R = I + a*[w]x + b*[w]x^2
	pose.Set(0, 0, 1+b*(-wy*wy-wz*wz))
	pose.Set(0, 1, -a*wz+b*wx*wy)
	pose.Set(0, 2, a*wy+b*wx*wz)
	pose.Set(1, 0, a*wz+b*wx*wy)
	pose.Set(1, 1, 1+b*(-wx*wx-wz*wz))
	pose.Set(1, 2, -a*wx+b*wy*wz)
	pose.Set(2, 0, -a*wy+b*wx*wz)
	pose.Set(2, 1, a*wx+b*wy*wz)
	pose.Set(2, 2, 1+b*(-wx*wx-wy*wy))
	pose.Set(0, 3, trans.X)
	pose.Set(1, 3, trans.Y)
	pose.Set(2, 3, trans.Z)
	return pose
}
