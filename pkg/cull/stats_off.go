//go:build !cullstats

package cull

// StatsEnabled reports whether traversal statistics are counted.
const StatsEnabled = false
