package template

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Diagnostics observes per-point quantities during residual evaluation. It
// exists for debugging a misbehaving alignment; leaving it unset keeps the
// evaluation loop free of any observation cost.
type Diagnostics interface {
	// PointProjected is called for every point of the geometry pass with the
	// continuous projection and its fractional offsets from the rounded cell.
	PointProjected(index int, x, y, xf, yf float64)
	// ResidualComputed is called for every valid (channel, point) slot with
	// the interpolated current intensity and the stored reference intensity.
	ResidualComputed(channel, index int, warped, reference float64)
}

// LogDiagnostics is a Diagnostics that logs entries whose fractional offset
// or residual magnitude exceeds Threshold.
type LogDiagnostics struct {
	Logger    golog.Logger
	Threshold float64
}

// PointProjected logs projections landing far from a pixel center.
func (l *LogDiagnostics) PointProjected(index int, x, y, xf, yf float64) {
	if math.Abs(xf) > l.Threshold || math.Abs(yf) > l.Threshold {
		l.Logger.Debugf("point %d projected to (%f,%f) offset (%f,%f)", index, x, y, xf, yf)
	}
}

// ResidualComputed logs large photometric differences.
func (l *LogDiagnostics) ResidualComputed(channel, index int, warped, reference float64) {
	if math.Abs(warped-reference) > l.Threshold {
		l.Logger.Debugf("channel %d point %d warped %f reference %f", channel, index, warped, reference)
	}
}

// ComputeResiduals projects every stored point into the given image under the
// 4x4 reference-to-current pose and writes one photometric residual per
// (point, channel) into residuals and one validity flag per point into valid.
// residuals must have length NumPixels() and valid length NumPoints(); both
// are written in full, with 0 in every slot of an invalid point. Callers must
// exclude invalid points through the valid array, not by trusting the zeros.
func (d *Data) ComputeResiduals(ch Channels, pose *mat.Dense, residuals []float32, valid []bool) error {
	n := d.NumPoints()
	if ch == nil || ch.Size() != d.numChannels {
		return errors.Wrapf(ErrChannelMismatch, "template has %d channels", d.numChannels)
	}
	rows, cols := ch.Rows(), ch.Cols()
	if rows < 2 || cols < 2 {
		return errors.Wrapf(ErrImageTooSmall, "(%d,%d) cannot fit a bilinear footprint", rows, cols)
	}
	for c := 0; c < d.numChannels; c++ {
		if len(ch.ChannelData(c)) != rows*cols {
			return errors.Wrapf(ErrShapeMismatch, "channel %d has %d samples, want %d",
				c, len(ch.ChannelData(c)), rows*cols)
		}
	}
	if len(residuals) != n*d.numChannels {
		return errors.Wrapf(ErrBufferSize, "residuals has length %d, want %d", len(residuals), n*d.numChannels)
	}
	if len(valid) != n {
		return errors.Wrapf(ErrBufferSize, "valid has length %d, want %d", len(valid), n)
	}
	if err := d.warp.SetPose(pose); err != nil {
		return err
	}

	// Geometry pass: the pose is fixed for the rest of the call, so every
	// point is independent. The interpolation pass below must not start
	// until this one has fully joined.
	base := make([]int, n)
	coeffs := make([][4]float64, n)
	d.exec.ForEach(n, func(i int) {
		pt := d.warp.Project(d.points[i])
		// Round-half-up selects the footprint's base cell; the fractional
		// offsets are taken relative to that rounded cell, not the floor,
		// so they live in [-0.5, 0.5). Downstream consumers depend on this
		// exact convention.
		xi := int(math.Floor(pt.X + 0.5))
		yi := int(math.Floor(pt.Y + 0.5))
		xf := pt.X - float64(xi)
		yf := pt.Y - float64(yi)
		valid[i] = xi >= 0 && xi < cols-1 && yi >= 0 && yi < rows-1
		base[i] = yi*cols + xi
		coeffs[i] = [4]float64{
			(1 - yf) * (1 - xf),
			(1 - yf) * xf,
			yf * (1 - xf),
			yf * xf,
		}
		if d.diag != nil {
			d.diag.PointProjected(i, pt.X, pt.Y, xf, yf)
		}
	})

	d.exec.ForEach(d.numChannels, func(c int) {
		buf := ch.ChannelData(c)
		off := c * n
		for i := 0; i < n; i++ {
			if !valid[i] {
				residuals[off+i] = 0
				continue
			}
			ii := base[i]
			w := coeffs[i]
			warped := w[0]*float64(buf[ii]) +
				w[1]*float64(buf[ii+1]) +
				w[2]*float64(buf[ii+cols]) +
				w[3]*float64(buf[ii+cols+1])
			residuals[off+i] = float32(warped - float64(d.pixels[off+i]))
			if d.diag != nil {
				d.diag.ResidualComputed(c, i, warped, float64(d.pixels[off+i]))
			}
		}
	})
	return nil
}
