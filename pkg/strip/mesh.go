package strip

const noTri int32 = -1

type triangle struct {
	v         [3]int
	neighbors [3]int32 // across edge (v[j], v[j+1])
	conn      int      // live neighbors
	prev      int32
	next      int32
	removed   bool
}

// edgeVertices returns the directed edge j of t.
func (t *triangle) edgeVertices(j int) (int, int) {
	return t.v[j], t.v[(j+1)%3]
}

// edgeIndex returns the edge of t joining a and b in either direction,
// or -1.
func (t *triangle) edgeIndex(a, b int) int {
	for j := 0; j < 3; j++ {
		u, w := t.edgeVertices(j)
		if (u == a && w == b) || (u == b && w == a) {
			return j
		}
	}
	return -1
}

// third returns the vertex of t that is neither a nor b.
func (t *triangle) third(a, b int) int {
	for _, v := range t.v {
		if v != a && v != b {
			return v
		}
	}
	return t.v[0]
}

// isNeighbor reports whether n is already linked across one of t's edges.
// Triangles sharing more than one edge, such as a double-sided pair, are
// linked once.
func (t *triangle) isNeighbor(n int32) bool {
	return t.neighbors[0] == n || t.neighbors[1] == n || t.neighbors[2] == n
}

type edgeKey [2]int

type edgeOwner struct {
	tri  int32
	edge int8
	used bool
}

// mesh is the adjacency graph the stripifier consumes.
type mesh struct {
	tris     []triangle
	nodeConn []int // live triangles per vertex

	// Connectivity buckets; each is a FIFO threaded through prev/next.
	head [4]int32
	tail [4]int32
	live int
}

func newMesh(in [][3]int) *mesh {
	m := &mesh{tris: make([]triangle, len(in))}
	for b := range m.head {
		m.head[b], m.tail[b] = noTri, noTri
	}

	maxIndex := -1
	for i, v := range in {
		m.tris[i] = triangle{v: v, neighbors: [3]int32{noTri, noTri, noTri}, prev: noTri, next: noTri}
		for _, x := range v {
			maxIndex = max(maxIndex, x)
		}
	}
	m.nodeConn = make([]int, maxIndex+1)

	edges := make(map[edgeKey]edgeOwner, len(in)*3/2)
	for i := range m.tris {
		t := &m.tris[i]
		for _, x := range t.v {
			m.nodeConn[x]++
		}
		for j := 0; j < 3; j++ {
			u, w := t.edgeVertices(j)
			key := edgeKey{min(u, w), max(u, w)}
			owner, ok := edges[key]
			if !ok {
				edges[key] = edgeOwner{tri: int32(i), edge: int8(j)}
				continue
			}
			if owner.used || owner.tri == int32(i) || t.isNeighbor(owner.tri) {
				continue
			}
			other := &m.tris[owner.tri]
			ou, ow := other.edgeVertices(int(owner.edge))
			if ou != w || ow != u {
				// Same direction: inconsistent winding, not a neighbor.
				continue
			}
			t.neighbors[j] = owner.tri
			other.neighbors[owner.edge] = int32(i)
			t.conn++
			other.conn++
			edges[key] = edgeOwner{used: true}
		}
	}

	for i := range m.tris {
		m.push(int32(i))
	}
	return m
}

func (m *mesh) push(i int32) {
	t := &m.tris[i]
	b := t.conn
	t.prev, t.next = m.tail[b], noTri
	if m.tail[b] != noTri {
		m.tris[m.tail[b]].next = i
	} else {
		m.head[b] = i
	}
	m.tail[b] = i
	m.live++
}

func (m *mesh) unlink(i int32, bucket int) {
	t := &m.tris[i]
	if t.prev != noTri {
		m.tris[t.prev].next = t.next
	} else {
		m.head[bucket] = t.next
	}
	if t.next != noTri {
		m.tris[t.next].prev = t.prev
	} else {
		m.tail[bucket] = t.prev
	}
	t.prev, t.next = noTri, noTri
	m.live--
}

// top returns the first triangle of the lowest non-empty bucket.
func (m *mesh) top() int32 {
	for _, h := range m.head {
		if h != noTri {
			return h
		}
	}
	return noTri
}

func (m *mesh) isLive(i int32) bool {
	return i != noTri && !m.tris[i].removed
}

// consume takes t out of the queue, re-buckets its live neighbors and
// releases its vertices.
func (m *mesh) consume(i int32) {
	t := &m.tris[i]
	m.unlink(i, t.conn)
	t.removed = true
	for _, n := range t.neighbors {
		if !m.isLive(n) {
			continue
		}
		nt := &m.tris[n]
		m.unlink(n, nt.conn)
		nt.conn--
		m.push(n)
	}
	for _, x := range t.v {
		m.nodeConn[x]--
	}
}

// nodeWeights marks the vertices of t that have the highest node
// connectivity with a weight of 1; every other vertex weighs 0.
func (m *mesh) nodeWeights(t *triangle) [3]int {
	var conn [3]int
	highest := 0
	for i, x := range t.v {
		conn[i] = m.nodeConn[x]
		highest = max(highest, conn[i])
	}
	var w [3]int
	for i := range conn {
		if conn[i] == highest {
			w[i] = 1
		}
	}
	return w
}

// unreachable is the weight of an edge with no live neighbor.
const unreachable = int(^uint(0) >> 1)

// edgeWeight is the cost of leaving t through edge j: the neighbor's live
// connectivity plus the weights of the two edge vertices.
func (m *mesh) edgeWeight(t *triangle, j int, weights [3]int) int {
	n := t.neighbors[j]
	if !m.isLive(n) {
		return unreachable
	}
	return m.tris[n].conn + weights[j] + weights[(j+1)%3]
}
