// Package disparity holds per-pixel stereo disparity maps and their
// pyramid-level views.
package disparity

import "github.com/pkg/errors"

// Map is a full-resolution disparity map, row-major float32. Values <= 0 mark
// pixels without a usable estimate.
type Map struct {
	rows, cols int
	data       []float32
}

// NewMap wraps an existing row-major buffer of length rows*cols.
func NewMap(rows, cols int, data []float32) (*Map, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("invalid disparity map size (%d,%d)", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, errors.Errorf("disparity buffer has %d samples, want %d", len(data), rows*cols)
	}
	return &Map{rows: rows, cols: cols, data: data}, nil
}

// NewEmptyMap allocates a map with every pixel marked invalid.
func NewEmptyMap(rows, cols int) *Map {
	return &Map{rows: rows, cols: cols, data: make([]float32, rows*cols)}
}

// Rows returns the map height.
func (m *Map) Rows() int { return m.rows }

// Cols returns the map width.
func (m *Map) Cols() int { return m.cols }

// At returns the disparity at (y, x).
func (m *Map) At(y, x int) float32 { return m.data[y*m.cols+x] }

// Set stores a disparity at (y, x).
func (m *Map) Set(y, x int, d float32) { m.data[y*m.cols+x] = d }

// PyramidLevel views a full-resolution map at a pyramid level: it samples the
// top-left pixel of each 2^level block and scales the reading by 2^-level,
// since disparity shrinks with image resolution.
type PyramidLevel struct {
	m     *Map
	level int
	scale float32
}

// NewPyramidLevel creates a level view. The map must be large enough to have
// at least one pixel at the level.
func NewPyramidLevel(m *Map, level int) (*PyramidLevel, error) {
	if m == nil {
		return nil, errors.New("nil disparity map")
	}
	if level < 0 {
		return nil, errors.Errorf("invalid pyramid level %d", level)
	}
	if m.rows>>uint(level) == 0 || m.cols>>uint(level) == 0 {
		return nil, errors.Errorf("disparity map (%d,%d) has no pixels at level %d", m.rows, m.cols, level)
	}
	return &PyramidLevel{
		m:     m,
		level: level,
		scale: 1.0 / float32(int(1)<<uint(level)),
	}, nil
}

// Rows returns the height at the level.
func (p *PyramidLevel) Rows() int { return p.m.rows >> uint(p.level) }

// Cols returns the width at the level.
func (p *PyramidLevel) Cols() int { return p.m.cols >> uint(p.level) }

// DepthAt returns the level-scaled disparity at level coordinates (y, x).
func (p *PyramidLevel) DepthAt(y, x int) float32 {
	return p.m.At(y<<uint(p.level), x<<uint(p.level)) * p.scale
}
