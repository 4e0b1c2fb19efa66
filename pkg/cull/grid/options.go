package grid

import (
	"github.com/Faultbox/wwcull/pkg/math"
	"go.uber.org/zap"
)

// Defaults used by New.
const (
	DefaultTerminationCellCount = 16384
	DefaultMaxObjExtent         = 15
)

// DefaultMinCellSize is the cell size a re-partition aims for.
var DefaultMinCellSize = math.Vec3{X: 10, Y: 10, Z: 10}

type options struct {
	minCellSize          math.Vec3
	terminationCellCount int
	maxObjExtent         float32
	log                  *zap.Logger
}

// Option configures a grid System.
type Option func(*options)

// WithMinCellSize sets the smallest cell a re-partition will create.
func WithMinCellSize(size math.Vec3) Option {
	return func(o *options) { o.minCellSize = size }
}

// WithTerminationCellCount caps the total number of cells.
func WithTerminationCellCount(n int) Option {
	return func(o *options) { o.terminationCellCount = n }
}

// WithMaxObjExtent sets the initial largest gridded object half-extent.
func WithMaxObjExtent(e float32) Option {
	return func(o *options) { o.maxObjExtent = e }
}

// WithLogger sets the logger used for re-partition summaries.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}
