package aabtree

import "go.uber.org/zap"

// Partitioning defaults used by New.
const (
	DefaultLeafObjectCount = 4
	DefaultMaxDepth        = 24
	DefaultSplitCandidates = 16
)

type options struct {
	leafObjectCount int
	maxDepth        int
	splitCandidates int
	log             *zap.Logger
}

// Option configures a tree System.
type Option func(*options)

// WithLeafObjectCount sets the object count at or below which a node is not
// split further.
func WithLeafObjectCount(n int) Option {
	return func(o *options) { o.leafObjectCount = n }
}

// WithMaxDepth limits how deep partitioning recurses. The root is depth 1.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithSplitCandidates sets how many object centers per axis are tried as
// splitting planes.
func WithSplitCandidates(n int) Option {
	return func(o *options) { o.splitCandidates = n }
}

// WithLogger sets the logger for partition and persistence summaries.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}
