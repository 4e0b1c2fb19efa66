package aabtree

import (
	"fmt"

	"github.com/Faultbox/wwcull/pkg/chunk"
	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
	"go.uber.org/zap"
)

// Chunk IDs written by Save and SaveObjectLinkage.
const (
	ChunkTree    uint32 = 0x0004_1000
	ChunkLinkage uint32 = 0x0004_1010

	chunkTreeInfo uint32 = 0x0004_1001
	chunkNodes    uint32 = 0x0004_1002
)

// Micro chunk IDs.
const (
	microNodeCount uint8 = 0x01

	microLinkNode uint8 = 0x01
	microLinkBox  uint8 = 0x02
)

// maxPreallocNodes caps the node slice reserved from a header count.
const maxPreallocNodes = 4096

const (
	flagFront uint32 = 1 << iota
	flagBack
)

// nodeRecord is the on-disk form of a node. Records are stored in
// pre-order; the flags say which children follow.
type nodeRecord struct {
	Center [3]float32
	Extent [3]float32
	Flags  uint32
}

func vecArray(v math.Vec3) [3]float32 { return [3]float32{v.X, v.Y, v.Z} }

func arrayVec(a [3]float32) math.Vec3 { return math.Vec3{X: a[0], Y: a[1], Z: a[2]} }

// Save writes the tree topology and node boxes. Nodes are re-indexed in
// pre-order first, so node indices match what Load produces.
func (s *System[T]) Save(w *chunk.Writer) error {
	s.ReIndexNodes()

	if err := w.BeginChunk(ChunkTree); err != nil {
		return err
	}
	if err := w.BeginChunk(chunkTreeInfo); err != nil {
		return err
	}
	if err := w.WriteMicro(microNodeCount, uint32(len(s.nodes))); err != nil {
		return fmt.Errorf("writing node count: %w", err)
	}
	if err := w.EndChunk(); err != nil {
		return err
	}

	if err := w.BeginChunk(chunkNodes); err != nil {
		return err
	}
	for i := range s.nodes {
		n := &s.nodes[i]
		rec := nodeRecord{Center: vecArray(n.box.Center), Extent: vecArray(n.box.Extent)}
		if n.front != noNode {
			rec.Flags |= flagFront
		}
		if n.back != noNode {
			rec.Flags |= flagBack
		}
		if err := w.WriteValue(&rec); err != nil {
			return fmt.Errorf("writing node %d: %w", i, err)
		}
	}
	if err := w.EndChunk(); err != nil {
		return err
	}
	if err := w.EndChunk(); err != nil {
		return err
	}

	s.log.Info("aab-tree saved", zap.Int("nodes", len(s.nodes)), zap.Int("objects", s.arena.Len()))
	return nil
}

// Load replaces the tree topology with the one read from r. Objects linked
// before the call are re-inserted into the loaded tree.
func (s *System[T]) Load(r *chunk.Reader) error {
	if err := r.Expect(ChunkTree); err != nil {
		return fmt.Errorf("reading aab-tree: %w", err)
	}

	count, err := readTreeInfo(r)
	if err != nil {
		return err
	}
	records, err := readNodeRecords(r, count)
	if err != nil {
		return err
	}
	if err := r.CloseChunk(); err != nil {
		return err
	}

	nodes, err := buildNodes(records)
	if err != nil {
		return err
	}

	slots := s.drainObjects()
	s.nodes = nodes
	s.bounded = true
	for _, slot := range slots {
		s.insert(slot, s.arena.Get(slot).CullBox())
	}

	s.log.Info("aab-tree loaded", zap.Int("nodes", len(nodes)), zap.Int("depth", s.PartitionDepth()))
	return nil
}

func readTreeInfo(r *chunk.Reader) (uint32, error) {
	if err := r.Expect(chunkTreeInfo); err != nil {
		return 0, fmt.Errorf("reading aab-tree info: %w", err)
	}
	var count uint32
	found := false
	for {
		ok, err := r.OpenMicroChunk()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if r.MicroID() == microNodeCount {
			if err := r.ReadValue(&count); err != nil {
				return 0, fmt.Errorf("reading node count: %w", err)
			}
			found = true
		}
		if err := r.CloseMicroChunk(); err != nil {
			return 0, err
		}
	}
	if err := r.CloseChunk(); err != nil {
		return 0, err
	}
	if !found || count == 0 {
		return 0, fmt.Errorf("%w: missing node count", ErrCorruptTree)
	}
	return count, nil
}

func readNodeRecords(r *chunk.Reader, count uint32) ([]nodeRecord, error) {
	if err := r.Expect(chunkNodes); err != nil {
		return nil, fmt.Errorf("reading aab-tree nodes: %w", err)
	}
	const recordSize = 7 * 4
	if uint64(r.Size()) != uint64(count)*recordSize {
		return nil, fmt.Errorf("%w: %d nodes in %d bytes", ErrCorruptTree, count, r.Size())
	}
	// The count is untrusted until the records are actually read.
	records := make([]nodeRecord, 0, min(count, maxPreallocNodes))
	for i := uint32(0); i < count; i++ {
		var rec nodeRecord
		if err := r.ReadValue(&rec); err != nil {
			return nil, fmt.Errorf("reading node %d: %w", i, err)
		}
		records = append(records, rec)
	}
	if err := r.CloseChunk(); err != nil {
		return nil, err
	}
	return records, nil
}

// buildNodes links pre-order records into nodes.
func buildNodes(records []nodeRecord) ([]node, error) {
	nodes := make([]node, 0, len(records))
	var link func(parent int32) (int32, error)
	link = func(parent int32) (int32, error) {
		if len(nodes) == len(records) {
			return noNode, fmt.Errorf("%w: child flags reference more than %d nodes", ErrCorruptTree, len(records))
		}
		rec := records[len(nodes)]
		box := geom.AABox{Center: arrayVec(rec.Center), Extent: arrayVec(rec.Extent)}
		if !box.IsValid() {
			return noNode, fmt.Errorf("%w: node %d has invalid box %v", ErrCorruptTree, len(nodes), box)
		}
		idx := int32(len(nodes))
		nodes = append(nodes, node{box: box, parent: parent, front: noNode, back: noNode})

		if rec.Flags&flagFront != 0 {
			c, err := link(idx)
			if err != nil {
				return noNode, err
			}
			nodes[idx].front = c
		}
		if rec.Flags&flagBack != 0 {
			c, err := link(idx)
			if err != nil {
				return noNode, err
			}
			nodes[idx].back = c
		}
		return idx, nil
	}

	if _, err := link(noNode); err != nil {
		return nil, err
	}
	if len(nodes) != len(records) {
		return nil, fmt.Errorf("%w: %d of %d nodes reachable", ErrCorruptTree, len(nodes), len(records))
	}
	return nodes, nil
}

type boxSetter interface {
	SetCullBox(box geom.AABox, justLoaded bool)
}

// SaveObjectLinkage records the node obj is linked to, and its box.
func (s *System[T]) SaveObjectLinkage(w *chunk.Writer, obj T) error {
	n := s.ObjectNodeIndex(obj)
	b := obj.CullBox()
	if err := w.BeginChunk(ChunkLinkage); err != nil {
		return err
	}
	if err := w.WriteMicro(microLinkNode, uint32(n)); err != nil {
		return fmt.Errorf("writing linkage node: %w", err)
	}
	box := [6]float32{b.Center.X, b.Center.Y, b.Center.Z, b.Extent.X, b.Extent.Y, b.Extent.Z}
	if err := w.WriteMicro(microLinkBox, box); err != nil {
		return fmt.Errorf("writing linkage box: %w", err)
	}
	return w.EndChunk()
}

// LoadObjectLinkage links obj straight into the node recorded by
// SaveObjectLinkage, without searching the tree. If obj can take a box it is
// given the saved one as a just-loaded box.
func (s *System[T]) LoadObjectLinkage(r *chunk.Reader, obj T) error {
	if sys := obj.CullLink().System(); sys != nil {
		panic(fmt.Sprintf("aabtree: object already linked into %T", sys))
	}
	if err := r.Expect(ChunkLinkage); err != nil {
		return fmt.Errorf("reading object linkage: %w", err)
	}
	n := uint32(1<<32 - 1)
	var box [6]float32
	hasBox := false
	for {
		ok, err := r.OpenMicroChunk()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		switch r.MicroID() {
		case microLinkNode:
			err = r.ReadValue(&n)
		case microLinkBox:
			err = r.ReadValue(&box)
			hasBox = true
		}
		if err != nil {
			return fmt.Errorf("reading object linkage: %w", err)
		}
		if err := r.CloseMicroChunk(); err != nil {
			return err
		}
	}
	if err := r.CloseChunk(); err != nil {
		return err
	}
	if int64(n) >= int64(len(s.nodes)) {
		return fmt.Errorf("%w: object linked to node %d of %d", ErrCorruptTree, n, len(s.nodes))
	}

	if bs, ok := any(obj).(boxSetter); ok && hasBox {
		bs.SetCullBox(geom.AABox{
			Center: math.Vec3{X: box[0], Y: box[1], Z: box[2]},
			Extent: math.Vec3{X: box[3], Y: box[4], Z: box[5]},
		}, true)
	}
	slot := s.arena.Alloc(obj)
	obj.CullLink().Attach(s, slot)
	s.arena.Link(&s.nodes[n].objects, slot, int32(n))
	s.bounded = true
	return nil
}
