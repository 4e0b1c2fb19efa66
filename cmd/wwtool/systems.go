package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/wwcull/internal/assets"
	"github.com/Faultbox/wwcull/internal/config"
	"github.com/Faultbox/wwcull/internal/logger"
	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/cull/aabtree"
	"github.com/Faultbox/wwcull/pkg/cull/grid"
	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
)

// object is a scene entry linked into a culling system.
type object struct {
	cull.Base
	id   int
	name string
}

func sceneObjects(s *assets.Scene) []*object {
	objs := make([]*object, len(s.Objects))
	for i, so := range s.Objects {
		o := &object{id: so.ID, name: so.Name}
		o.SetCullBox(so.Box.AABox(), false)
		objs[i] = o
	}
	return objs
}

func gridOptions(cfg *config.Config) []grid.Option {
	return []grid.Option{
		grid.WithMinCellSize(math.Splat(cfg.Grid.MinCellSize)),
		grid.WithTerminationCellCount(cfg.Grid.TerminationCellCount),
		grid.WithLogger(logger.Named("grid")),
	}
}

func treeOptions(cfg *config.Config) []aabtree.Option {
	return []aabtree.Option{
		aabtree.WithLeafObjectCount(cfg.Tree.LeafObjectCount),
		aabtree.WithMaxDepth(cfg.Tree.MaxDepth),
		aabtree.WithSplitCandidates(cfg.Tree.SplitCandidates),
		aabtree.WithLogger(logger.Named("aabtree")),
	}
}

// buildGrid lays a grid over the scene bounds and adds every object.
func buildGrid(cfg *config.Config, s *assets.Scene, objs []*object) *grid.System[*object] {
	g := grid.New[*object](gridOptions(cfg)...)
	bounds := s.WorldBounds()
	extent := cfg.Grid.MaxObjExtent
	if extent == 0 {
		extent = s.MaxExtent()
	}
	g.RePartition(bounds.Min(), bounds.Max(), extent)
	for _, o := range objs {
		g.Add(o)
	}
	return g
}

// buildTree adds every object and partitions the result.
func buildTree(cfg *config.Config, objs []*object) *aabtree.System[*object] {
	t := aabtree.New[*object](treeOptions(cfg)...)
	for _, o := range objs {
		t.Add(o)
	}
	t.RePartition()
	return t
}

// parseFloats parses exactly n comma separated numbers.
func parseFloats(s string, n int) ([]float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	out := make([]float32, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parsePoint(s string) (math.Vec3, error) {
	f, err := parseFloats(s, 3)
	if err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}

func parseBox(s string) (geom.AABox, error) {
	f, err := parseFloats(s, 6)
	if err != nil {
		return geom.AABox{}, err
	}
	return geom.AABoxFromMinMax(math.Vec3{X: f[0], Y: f[1], Z: f[2]}, math.Vec3{X: f[3], Y: f[4], Z: f[5]}), nil
}

func formatBox(b geom.AABox) string {
	lo, hi := b.Min(), b.Max()
	return fmt.Sprintf("(%g, %g, %g) - (%g, %g, %g)", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
}
