package cull

// Stats counts how a traversal treated the nodes or cells it visited.
// Counting only happens in builds with the cullstats tag; otherwise every
// method is a no-op the compiler removes.
type Stats struct {
	NodeCount              int
	NodesAccepted          int
	NodesTriviallyAccepted int
	NodesRejected          int
}

// Reset zeroes the counters.
func (s *Stats) Reset() {
	if StatsEnabled {
		*s = Stats{}
	}
}

// Visit counts a visited node.
func (s *Stats) Visit() {
	if StatsEnabled {
		s.NodeCount++
	}
}

// Accept counts a node whose contents were tested individually.
func (s *Stats) Accept() {
	if StatsEnabled {
		s.NodesAccepted++
	}
}

// TrivialAccept counts a node accepted without per-object tests.
func (s *Stats) TrivialAccept() {
	if StatsEnabled {
		s.NodesTriviallyAccepted++
	}
}

// Reject counts a pruned node.
func (s *Stats) Reject() {
	if StatsEnabled {
		s.NodesRejected++
	}
}
