// Package template implements the per-pyramid-level reference data of a
// direct visual odometry pipeline: it selects informative pixels from a
// reference frame, back-projects them through an injected warp model,
// precomputes steepest-descent jacobian rows per point and channel, and
// evaluates photometric residuals against a current frame under candidate
// poses.
package template

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/viam-labs/photovo/utils"
)

// Contract violations surfaced by SetData and ComputeResiduals.
var (
	// ErrShapeMismatch is when caller-supplied maps or images disagree on dimensions.
	ErrShapeMismatch = errors.New("image dimensions do not match")
	// ErrImageTooSmall is when an image cannot fit the selection border or the bilinear footprint.
	ErrImageTooSmall = errors.New("image is too small for the sampling margin")
	// ErrChannelMismatch is when an image's channel count differs from the extracted template's.
	ErrChannelMismatch = errors.New("channel count does not match the template")
	// ErrBufferSize is when a caller-provided output buffer has the wrong length.
	ErrBufferSize = errors.New("output buffer has the wrong length")
)

// ExtractionConfig contains the pixel-selection and storage-padding
// parameters used when a new reference frame is set.
type ExtractionConfig struct {
	// NMSRadius is the non-maximum-suppression neighborhood radius in pixels.
	NMSRadius int `json:"nms_radius"`
	// MinPixelsForNMS enables NMS only for images at least this many pixels
	// large; small images keep every candidate.
	MinPixelsForNMS int `json:"min_pixels_for_nms"`
	// PadWidth is the number of all-zero jacobian rows appended after the
	// last real row so vectorized consumers may over-read the buffer.
	PadWidth int `json:"pad_width"`
}

// DefaultExtractionConfig stores the default extraction parameters.
var DefaultExtractionConfig = ExtractionConfig{
	NMSRadius:       1,
	MinPixelsForNMS: 320 * 240,
	PadWidth:        1,
}

// Data owns one pyramid level's template: the back-projected points, the
// per-channel reference intensities and the per-channel steepest-descent
// jacobian rows, all aligned positionally in row-major selection order.
// Extraction (SetData) replaces the arrays wholesale; residual evaluation
// only reads them. The two must not run concurrently on the same Data.
type Data struct {
	warp  Warp
	level int
	cfg   ExtractionConfig
	exec  utils.RangeExecutor
	diag  Diagnostics

	numChannels int
	points      []r3.Vector
	pixels      []float32
	jacobians   []Jacobian
}

// Option configures a Data.
type Option func(*Data)

// WithExecutor sets the range executor used for the parallelizable phases of
// extraction and residual evaluation.
func WithExecutor(exec utils.RangeExecutor) Option {
	return func(d *Data) {
		d.exec = exec
	}
}

// WithDiagnostics installs an observer for projection offsets and residuals.
// A nil observer (the default) costs nothing in the evaluation loop.
func WithDiagnostics(diag Diagnostics) Option {
	return func(d *Data) {
		d.diag = diag
	}
}

// New creates an empty template bound to a warp and a pyramid level. A nil
// cfg uses DefaultExtractionConfig.
func New(w Warp, level int, cfg *ExtractionConfig, opts ...Option) *Data {
	if cfg == nil {
		cfg = &DefaultExtractionConfig
	}
	d := &Data{
		warp:  w,
		level: level,
		cfg:   *cfg,
		exec:  utils.Sequential{},
	}
	if d.cfg.PadWidth < 1 {
		d.cfg.PadWidth = 1
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NumPoints returns the number of stored points.
func (d *Data) NumPoints() int { return len(d.points) }

// NumPixels returns the number of stored reference intensities,
// NumPoints()*channels.
func (d *Data) NumPixels() int { return len(d.pixels) }

// NumJacobians returns the number of stored jacobian rows including the
// trailing zero padding.
func (d *Data) NumJacobians() int { return len(d.jacobians) }

// NumChannels returns the channel count of the last extraction, 0 before any.
func (d *Data) NumChannels() int { return d.numChannels }

// Level returns the pyramid level the template is bound to.
func (d *Data) Level() int { return d.level }

// Warp returns the injected warp model.
func (d *Data) Warp() Warp { return d.warp }

// Point returns the i-th back-projected point.
func (d *Data) Point(i int) r3.Vector { return d.points[i] }

// Pixel returns the i-th reference intensity, channel-major: entry c*NumPoints()+i
// is point i on channel c.
func (d *Data) Pixel(i int) float32 { return d.pixels[i] }

// JacobianAt returns the i-th steepest-descent row, indexed like Pixel.
func (d *Data) JacobianAt(i int) Jacobian { return d.jacobians[i] }

// PixelAt returns the reference intensity of point i on channel c.
func (d *Data) PixelAt(c, i int) float32 { return d.pixels[c*len(d.points)+i] }

// JacobianRowAt returns the steepest-descent row of point i on channel c.
func (d *Data) JacobianRowAt(c, i int) Jacobian { return d.jacobians[c*len(d.points)+i] }

// Reserve grows the backing storage to hold n points across numChannels
// channels, so a following SetData does not reallocate.
func (d *Data) Reserve(n, numChannels int) {
	if cap(d.points) < n {
		pts := make([]r3.Vector, len(d.points), n)
		copy(pts, d.points)
		d.points = pts
	}
	if cap(d.pixels) < n*numChannels {
		px := make([]float32, len(d.pixels), n*numChannels)
		copy(px, d.pixels)
		d.pixels = px
	}
	if cap(d.jacobians) < n*numChannels+d.cfg.PadWidth {
		js := make([]Jacobian, len(d.jacobians), n*numChannels+d.cfg.PadWidth)
		copy(js, d.jacobians)
		d.jacobians = js
	}
}

// Clear empties the template without releasing storage.
func (d *Data) Clear() {
	d.points = d.points[:0]
	d.pixels = d.pixels[:0]
	d.jacobians = d.jacobians[:0]
	d.numChannels = 0
}

// SetData extracts the template for a new reference frame: selects pixels
// from the saliency and depth maps, back-projects them, and fills in the
// reference intensities and steepest-descent rows for every channel. The
// stored arrays are replaced in one pass; on error the template keeps its
// prior contents.
func (d *Data) SetData(ch Channels, dmap DepthView) error {
	if ch == nil || ch.Size() < 1 {
		return errors.Wrap(ErrChannelMismatch, "need at least one channel")
	}
	if dmap == nil {
		return errors.Wrap(ErrShapeMismatch, "nil depth map")
	}
	smap := ch.SaliencyMap()
	rows, cols := smap.Dims()
	if rows != ch.Rows() || cols != ch.Cols() {
		return errors.Wrapf(ErrShapeMismatch, "saliency map (%d,%d) vs channels (%d,%d)",
			rows, cols, ch.Rows(), ch.Cols())
	}
	if dmap.Rows() != rows || dmap.Cols() != cols {
		return errors.Wrapf(ErrShapeMismatch, "depth map (%d,%d) vs channels (%d,%d)",
			dmap.Rows(), dmap.Cols(), rows, cols)
	}
	border := d.cfg.NMSRadius
	if border < 2 {
		border = 2
	}
	if rows <= 2*border+1 || cols <= 2*border+1 {
		return errors.Wrapf(ErrImageTooSmall, "(%d,%d) with border %d", rows, cols, border)
	}
	numChannels := ch.Size()
	for c := 0; c < numChannels; c++ {
		if len(ch.ChannelData(c)) != rows*cols {
			return errors.Wrapf(ErrShapeMismatch, "channel %d has %d samples, want %d",
				c, len(ch.ChannelData(c)), rows*cols)
		}
	}

	doNMS := rows*cols >= d.cfg.MinPixelsForNMS
	cands := validPixelLocations(dmap, smap, d.cfg.NMSRadius, doNMS)
	n := len(cands)

	// No failure is possible past this line, so reusing the reserved backing
	// arrays cannot leave a halfway-mutated store behind.
	points := resliced(d.points, n)
	for i, cand := range cands {
		y := cand.index / cols
		x := cand.index % cols
		points[i] = d.warp.MakePoint(float64(x), float64(y), cand.depth)
	}

	// The warp jacobian at identity depends only on the point, never on the
	// channel; computing it once per point here is what keeps the per
	// iteration residual evaluation cheap.
	warpJacs := make([]WarpJacobian, n)
	d.exec.ForEach(n, func(i int) {
		warpJacs[i] = d.warp.JacobianAtZero(points[i])
	})

	pixels := resliced(d.pixels, n*numChannels)
	jacobians := resliced(d.jacobians, n*numChannels+d.cfg.PadWidth)
	for i := n * numChannels; i < len(jacobians); i++ {
		jacobians[i] = Jacobian{}
	}

	// The 0.5 does double duty: central-difference normalization and the
	// focal scaling the warp jacobian leaves out.
	k := d.warp.K()
	fx := 0.5 * k.At(0, 0)
	fy := 0.5 * k.At(1, 1)

	d.exec.ForEach(numChannels, func(c int) {
		buf := ch.ChannelData(c)
		off := c * n
		for i, cand := range cands {
			ii := cand.index
			pixels[off+i] = buf[ii]
			gx := fx * float64(buf[ii+1]-buf[ii-1])
			gy := fy * float64(buf[ii+cols]-buf[ii-cols])
			w := warpJacs[i]
			var row Jacobian
			for kk := 0; kk < NumPoseParams; kk++ {
				row[kk] = gx*w[kk] + gy*w[NumPoseParams+kk]
			}
			jacobians[off+i] = row
		}
	})

	d.points = points
	d.pixels = pixels
	d.jacobians = jacobians
	d.numChannels = numChannels
	return nil
}

// resliced returns s resized to length n, reusing its backing array when the
// capacity allows.
func resliced[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]T, n)
}
