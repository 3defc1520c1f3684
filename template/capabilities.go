package template

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// NumPoseParams is the dimension of the pose parameterization the jacobians
// are taken with respect to: a rotational and a translational part of three
// parameters each, ordered (w1, w2, w3, t1, t2, t3).
const NumPoseParams = 6

// Jacobian is one steepest-descent row, the derivative of a channel intensity
// with respect to the pose parameters at the reference pose.
type Jacobian [NumPoseParams]float64

// WarpJacobian is the 2xNumPoseParams derivative of the projected image
// coordinate with respect to the pose parameters at the identity pose, stored
// row-major (x row first). It is an intermediate of extraction and is not
// kept in the store.
type WarpJacobian [2 * NumPoseParams]float64

// Warp maps back-projected reference points to image coordinates under a
// candidate pose. Implementations hold the camera intrinsics scaled to a
// fixed pyramid level; SetPose is the only mutating method and a Warp must
// not be shared between concurrent template operations.
type Warp interface {
	// MakePoint back-projects the pixel (x, y) with the given depth reading
	// into the 3D point representation used by Project.
	MakePoint(x, y float64, depth float32) r3.Vector
	// JacobianAtZero returns the warp jacobian of the point at the identity
	// pose, in normalized image coordinates. Focal-length scaling is applied
	// by the caller together with the image gradient.
	JacobianAtZero(p r3.Vector) WarpJacobian
	// SetPose replaces the current pose with a 4x4 transform from the
	// reference to the current camera frame.
	SetPose(pose *mat.Dense) error
	// Project maps a point into continuous image coordinates under the
	// current pose.
	Project(p r3.Vector) r2.Point
	// K returns the 3x3 intrinsic matrix at the warp's pyramid level.
	K() *mat.Dense
}

// Channels is a multi-channel view of one image: a fixed number of equally
// sized row-major float32 buffers sharing a single stride.
type Channels interface {
	// Size returns the number of channels.
	Size() int
	Rows() int
	Cols() int
	// ChannelData returns channel c as a flat row-major buffer of length
	// Rows()*Cols().
	ChannelData(c int) []float32
	// SaliencyMap scores every pixel for selection; higher is better. The
	// map has the same dimensions as the channels and is only consulted
	// during extraction.
	SaliencyMap() *mat.Dense
}

// DepthView is a 2D depth (disparity) map at the extraction pyramid level.
// Readings <= 0 mark pixels without a usable depth estimate.
type DepthView interface {
	Rows() int
	Cols() int
	DepthAt(y, x int) float32
}
