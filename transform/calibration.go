// Package transform holds the calibration parameters of a stereo camera rig
// and converts them into the matrix form the warp model consumes.
package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ErrNoCalibration is when a camera does not have calibration parameters available.
var ErrNoCalibration = errors.New("stereo calibration parameters are not available")

// NewNoCalibrationError is used when the calibration is missing or malformed.
func NewNoCalibrationError(msg string) error {
	return errors.Wrapf(ErrNoCalibration, msg)
}

// StereoCalibration holds the pinhole intrinsics of the rectified left camera
// and the stereo baseline, everything needed to triangulate a disparity and
// project a point back into the image plane.
type StereoCalibration struct {
	Width    int     `json:"width_px"`
	Height   int     `json:"height_px"`
	Fx       float64 `json:"fx"`
	Fy       float64 `json:"fy"`
	Ppx      float64 `json:"ppx"`
	Ppy      float64 `json:"ppy"`
	Baseline float64 `json:"baseline_m"`
}

// CheckValid checks if the fields for StereoCalibration have valid inputs.
func (params *StereoCalibration) CheckValid() error {
	if params == nil {
		return NewNoCalibrationError("calibration does not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoCalibrationError(fmt.Sprintf("invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoCalibrationError(fmt.Sprintf("invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoCalibrationError(fmt.Sprintf("invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoCalibrationError(fmt.Sprintf("invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoCalibrationError(fmt.Sprintf("invalid principal Y point Ppy = %#v", params.Ppy))
	}
	if params.Baseline <= 0 {
		return NewNoCalibrationError(fmt.Sprintf("invalid stereo baseline = %#v", params.Baseline))
	}
	return nil
}

// NewStereoCalibrationFromJSONFile takes in a file path to a JSON and turns it into a StereoCalibration.
func NewStereoCalibrationFromJSONFile(jsonPath string) (*StereoCalibration, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	calib := &StereoCalibration{}
	if err := json.Unmarshal(byteValue, calib); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if err := calib.CheckValid(); err != nil {
		return nil, err
	}
	return calib, nil
}

// K creates the 3x3 camera matrix from the intrinsics and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *StereoCalibration) K() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}
