package aabtree

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"
	"runtime"
	"testing"

	"github.com/Faultbox/wwcull/pkg/chunk"
	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/cull/culltest"
	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveTree(t *testing.T, s *tree, objs []*culltest.Object) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := chunk.NewWriter(&buf)
	require.NoError(t, s.Save(w))
	for _, o := range objs {
		require.NoError(t, s.SaveObjectLinkage(w, o))
	}
	return buf.Bytes()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, objs := populated(t, 20, 150)
	// Give some objects interior homes.
	for _, o := range objs[:15] {
		o.SetCullBox(geom.NewAABox(o.CullBox().Center, math.Splat(40)), false)
	}
	data := saveTree(t, s, objs)

	loaded := New[*culltest.Object]()
	r := chunk.NewReader(bytes.NewReader(data))
	require.NoError(t, loaded.Load(r))

	copies := make([]*culltest.Object, len(objs))
	for i, o := range objs {
		copies[i] = &culltest.Object{ID: o.ID}
		require.NoError(t, loaded.LoadObjectLinkage(r, copies[i]))
	}
	ok, err := r.OpenChunk()
	require.NoError(t, err)
	assert.False(t, ok, "stream fully consumed")

	require.Equal(t, s.NodeCount(), loaded.NodeCount())
	for i := 0; i < s.NodeCount(); i++ {
		assert.Equal(t, s.NodeBox(i), loaded.NodeBox(i), "node %d box", i)
		f1, b1 := s.NodeChildren(i)
		f2, b2 := loaded.NodeChildren(i)
		assert.Equal(t, [2]int{f1, b1}, [2]int{f2, b2}, "node %d children", i)
		assert.Equal(t, s.NodeObjectCount(i), loaded.NodeObjectCount(i), "node %d objects", i)
	}
	for i, o := range objs {
		assert.Equal(t, o.CullBox(), copies[i].CullBox())
		assert.Equal(t, s.ObjectNodeIndex(o), loaded.ObjectNodeIndex(copies[i]))
	}
	require.NoError(t, loaded.Validate())

	rng := rand.New(rand.NewPCG(21, 22))
	for i, q := range culltest.RandomQueries(rng, 40, world) {
		s.Collect(q)
		loaded.Collect(q)
		assert.Equal(t, collectedIDs(s), collectedIDs(loaded), "query %d (%v)", i, q.Shape)
	}
}

func TestLoadedBoxDoesNotRelink(t *testing.T) {
	s, objs := populated(t, 23, 30)
	data := saveTree(t, s, objs[:1])

	loaded := New[*culltest.Object]()
	r := chunk.NewReader(bytes.NewReader(data))
	require.NoError(t, loaded.Load(r))
	o := &culltest.Object{ID: 1}
	require.NoError(t, loaded.LoadObjectLinkage(r, o))
	assert.Equal(t, s.ObjectNodeIndex(objs[0]), loaded.ObjectNodeIndex(o))
	assert.Same(t, cull.System(loaded), o.CullingSystem())
}

func TestLoadReinsertsExistingObjects(t *testing.T) {
	s, _ := populated(t, 24, 60)
	data := saveTree(t, s, nil)

	other := New[*culltest.Object]()
	extra := culltest.NewObject(7, geom.NewAABox(v3(1, 1, 1), math.Splat(1)))
	other.Add(extra)
	require.NoError(t, other.Load(chunk.NewReader(bytes.NewReader(data))))

	assert.Equal(t, s.NodeCount(), other.NodeCount())
	assert.Equal(t, 1, other.ObjectCount())
	assert.NoError(t, other.Validate())
}

func TestLoadErrors(t *testing.T) {
	s, objs := populated(t, 25, 40)
	data := saveTree(t, s, objs)

	t.Run("truncated", func(t *testing.T) {
		err := New[*culltest.Object]().Load(chunk.NewReader(bytes.NewReader(data[:40])))
		assert.ErrorIs(t, err, chunk.ErrTruncated)
	})

	t.Run("wrong chunk", func(t *testing.T) {
		var buf bytes.Buffer
		w := chunk.NewWriter(&buf)
		require.NoError(t, w.BeginChunk(0x1234))
		require.NoError(t, w.EndChunk())
		err := New[*culltest.Object]().Load(chunk.NewReader(&buf))
		assert.ErrorIs(t, err, chunk.ErrUnexpectedType)
	})

	t.Run("dangling child flag", func(t *testing.T) {
		var buf bytes.Buffer
		w := chunk.NewWriter(&buf)
		require.NoError(t, w.BeginChunk(ChunkTree))
		require.NoError(t, w.BeginChunk(chunkTreeInfo))
		require.NoError(t, w.WriteMicro(microNodeCount, uint32(1)))
		require.NoError(t, w.EndChunk())
		require.NoError(t, w.BeginChunk(chunkNodes))
		require.NoError(t, w.WriteValue(&nodeRecord{Extent: [3]float32{1, 1, 1}, Flags: flagFront}))
		require.NoError(t, w.EndChunk())
		require.NoError(t, w.EndChunk())

		err := New[*culltest.Object]().Load(chunk.NewReader(&buf))
		assert.ErrorIs(t, err, ErrCorruptTree)
	})

	t.Run("count mismatch", func(t *testing.T) {
		var buf bytes.Buffer
		w := chunk.NewWriter(&buf)
		require.NoError(t, w.BeginChunk(ChunkTree))
		require.NoError(t, w.BeginChunk(chunkTreeInfo))
		require.NoError(t, w.WriteMicro(microNodeCount, uint32(3)))
		require.NoError(t, w.EndChunk())
		require.NoError(t, w.BeginChunk(chunkNodes))
		require.NoError(t, w.WriteValue(&nodeRecord{}))
		require.NoError(t, w.EndChunk())
		require.NoError(t, w.EndChunk())

		err := New[*culltest.Object]().Load(chunk.NewReader(&buf))
		assert.ErrorIs(t, err, ErrCorruptTree)
	})

	t.Run("linkage out of range", func(t *testing.T) {
		var buf bytes.Buffer
		w := chunk.NewWriter(&buf)
		require.NoError(t, w.BeginChunk(ChunkLinkage))
		require.NoError(t, w.WriteMicro(microLinkNode, uint32(500)))
		require.NoError(t, w.EndChunk())

		o := &culltest.Object{}
		err := New[*culltest.Object]().LoadObjectLinkage(chunk.NewReader(&buf), o)
		assert.ErrorIs(t, err, ErrCorruptTree)
		assert.False(t, o.CullLink().IsLinked())
	})

	t.Run("huge node count", func(t *testing.T) {
		const count = 10_000_000
		nodesSize := uint32(count * 7 * 4)
		le := binary.LittleEndian

		var data []byte
		data = le.AppendUint32(data, ChunkTree)
		data = le.AppendUint32(data, (14+8+nodesSize)|1<<31)
		data = le.AppendUint32(data, chunkTreeInfo)
		data = le.AppendUint32(data, 6)
		data = append(data, microNodeCount, 4)
		data = le.AppendUint32(data, count)
		data = le.AppendUint32(data, chunkNodes)
		data = le.AppendUint32(data, nodesSize)
		require.Len(t, data, 30)

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		err := New[*culltest.Object]().Load(chunk.NewReader(bytes.NewReader(data)))
		runtime.ReadMemStats(&after)

		assert.ErrorIs(t, err, chunk.ErrTruncated)
		assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20),
			"a short file must not reserve memory for the nodes it claims")
	})
}
