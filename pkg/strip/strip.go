// Package strip turns indexed triangle lists into triangle strips and
// reorders strips and triangles for vertex cache locality.
//
// Stripify greedily grows strips from the least connected triangles first.
// Strips keep the winding of the input: triangle k of a strip is
// (s[k], s[k+1], s[k+2]) for even k and (s[k+1], s[k], s[k+2]) for odd k.
// Input meshes must be manifold with consistent winding and welded
// vertices; other input is not rejected but may strip poorly.
package strip

import (
	"go.uber.org/zap"
)

// DefaultSwapPenalty is the weight added to a continuation that needs a
// swap vertex.
const DefaultSwapPenalty = 1

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithSwapPenalty sets the extra weight of a swap continuation.
func WithSwapPenalty(p int) Option {
	return func(o *Optimizer) { o.SwapPenalty = p }
}

// WithLogger sets the logger used for stripification summaries.
func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) { o.log = l }
}

// Optimizer holds the stripification settings.
type Optimizer struct {
	SwapPenalty int

	log *zap.Logger
}

// New returns an Optimizer with default settings.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{SwapPenalty: DefaultSwapPenalty, log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stripify converts tris with the default settings.
func Stripify(tris [][3]int) []int {
	return New().Stripify(tris)
}

// Stripify converts tris into strips, returned as a blob laid out as
// [count][len0][indices...][len1][indices...]... Every input triangle
// appears in exactly one strip; swap vertices only add degenerate
// triangles.
func (o *Optimizer) Stripify(tris [][3]int) []int {
	m := newMesh(tris)
	out := make([]int, 1, 1+len(tris)*5)
	strips, swaps := 0, 0

	for {
		start := m.top()
		if start == noTri {
			break
		}
		lenAt := len(out)
		out = append(out, 0)
		n := o.grow(m, start, &out, &swaps)
		out[lenAt] = n
		strips++
	}
	out[0] = strips

	o.log.Debug("stripified mesh",
		zap.Int("triangles", len(tris)),
		zap.Int("strips", strips),
		zap.Int("swaps", swaps),
		zap.Int("indices", len(out)-1-strips))

	blob := make([]int, len(out))
	copy(blob, out)
	return blob
}

// grow emits one strip starting at start and returns its length.
func (o *Optimizer) grow(m *mesh, start int32, out *[]int, swaps *int) int {
	begin := len(*out)
	t := &m.tris[start]

	// Leave through the cheapest edge; without one the strip is the
	// single triangle in input order.
	weights := m.nodeWeights(t)
	exit, best := 1, unreachable
	for j := 0; j < 3; j++ {
		if w := m.edgeWeight(t, j, weights); w < best {
			exit, best = j, w
		}
	}
	*out = append(*out, t.v[(exit+2)%3], t.v[exit], t.v[(exit+1)%3])
	m.consume(start)
	cur := start

	for {
		s := *out
		a, b := s[len(s)-2], s[len(s)-1]
		ct := &m.tris[cur]
		j := ct.edgeIndex(a, b)
		if j < 0 || !m.isLive(ct.neighbors[j]) {
			break
		}
		next := ct.neighbors[j]
		nt := &m.tris[next]
		x := nt.third(a, b)

		// Natural continuation leaves through {b,x}; a swap re-emits a
		// and leaves through {a,x}.
		weights := m.nodeWeights(nt)
		natural := unreachable
		if e := nt.edgeIndex(b, x); e >= 0 {
			natural = m.edgeWeight(nt, e, weights)
		}
		swap := unreachable
		if e := nt.edgeIndex(a, x); e >= 0 {
			if w := m.edgeWeight(nt, e, weights); w != unreachable {
				swap = w + o.SwapPenalty
			}
		}

		if swap < natural {
			*out = append(*out, a, x)
			*swaps++
		} else {
			*out = append(*out, x)
		}
		m.consume(next)
		cur = next
	}
	return len(*out) - begin
}
