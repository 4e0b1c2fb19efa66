package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/wwcull/internal/assets"
	"github.com/Faultbox/wwcull/internal/config"
	"github.com/Faultbox/wwcull/internal/logger"
	"github.com/Faultbox/wwcull/pkg/chunk"
	"github.com/Faultbox/wwcull/pkg/cull/aabtree"
)

// Tree files hold the aab-tree chunk, a scene chunk with the object IDs in
// save order, then one linkage chunk per object.
const (
	chunkScene    uint32 = 0x00042000
	microObjCount uint8  = 1
	microObjID    uint8  = 2
)

func cmdBuild(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	watch := fs.Bool("watch", false, "Rebuild whenever the scene file changes")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: wwtool build [-watch] <scene.yaml> <out.aabt>")
		os.Exit(1)
	}
	scenePath, outPath := fs.Arg(0), fs.Arg(1)

	if err := buildTreeFile(cfg, scenePath, outPath); err != nil {
		return err
	}
	if !*watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return watchFile(ctx, scenePath, 100*time.Millisecond, func() error {
		return buildTreeFile(cfg, scenePath, outPath)
	})
}

// buildTreeFile partitions the scene at scenePath and writes it to outPath.
func buildTreeFile(cfg *config.Config, scenePath, outPath string) error {
	m := assets.NewManager()
	defer m.Close()
	scene, err := m.LoadScene(scenePath)
	if err != nil {
		return err
	}

	objs := sceneObjects(scene)
	tree := buildTree(cfg, objs)
	if err := tree.Validate(); err != nil {
		return fmt.Errorf("partitioned tree failed validation: %w", err)
	}

	if err := writeTreeFile(outPath, tree, objs); err != nil {
		return err
	}

	fmt.Printf("Scene:   %s\n", scenePath)
	fmt.Printf("Objects: %d\n", len(objs))
	fmt.Printf("Nodes:   %d\n", tree.NodeCount())
	fmt.Printf("Depth:   %d\n", tree.PartitionDepth())
	fmt.Printf("Written: %s\n", outPath)
	return nil
}

func writeTreeFile(path string, tree *aabtree.System[*object], objs []*object) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := saveTree(chunk.NewWriter(bw), tree, objs); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func saveTree(w *chunk.Writer, tree *aabtree.System[*object], objs []*object) error {
	if err := tree.Save(w); err != nil {
		return err
	}

	if err := w.BeginChunk(chunkScene); err != nil {
		return err
	}
	if err := w.WriteMicro(microObjCount, uint32(len(objs))); err != nil {
		return err
	}
	for _, o := range objs {
		if err := w.WriteMicro(microObjID, int32(o.id)); err != nil {
			return err
		}
	}
	if err := w.EndChunk(); err != nil {
		return err
	}

	for _, o := range objs {
		if err := tree.SaveObjectLinkage(w, o); err != nil {
			return fmt.Errorf("object %d: %w", o.id, err)
		}
	}
	return nil
}

// loadTree reads a file written by saveTree. Objects get their saved boxes.
func loadTree(r *chunk.Reader) (*aabtree.System[*object], []*object, error) {
	tree := aabtree.New[*object](aabtree.WithLogger(logger.Named("aabtree")))
	if err := tree.Load(r); err != nil {
		return nil, nil, err
	}

	if err := r.Expect(chunkScene); err != nil {
		return nil, nil, fmt.Errorf("reading scene ids: %w", err)
	}
	var (
		count uint32
		ids   []int
	)
	for {
		ok, err := r.OpenMicroChunk()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		switch r.MicroID() {
		case microObjCount:
			err = r.ReadValue(&count)
		case microObjID:
			var id int32
			err = r.ReadValue(&id)
			ids = append(ids, int(id))
		}
		if err != nil {
			return nil, nil, err
		}
		if err := r.CloseMicroChunk(); err != nil {
			return nil, nil, err
		}
	}
	if err := r.CloseChunk(); err != nil {
		return nil, nil, err
	}
	if int(count) != len(ids) {
		return nil, nil, fmt.Errorf("scene chunk lists %d ids, header says %d", len(ids), count)
	}

	objs := make([]*object, len(ids))
	for i, id := range ids {
		objs[i] = &object{id: id}
		if err := tree.LoadObjectLinkage(r, objs[i]); err != nil {
			return nil, nil, fmt.Errorf("object %d: %w", id, err)
		}
	}
	return tree, objs, nil
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	nodes := fs.Bool("nodes", false, "List every node")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wwtool info [-nodes] <tree.aabt>")
		os.Exit(1)
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	tree, objs, err := loadTree(chunk.NewReader(bufio.NewReader(f)))
	if err != nil {
		return fmt.Errorf("reading %s: %w", fs.Arg(0), err)
	}
	logger.Debug("tree file loaded", zap.String("path", fs.Arg(0)), zap.Int("objects", len(objs)))

	leaves := 0
	for i := 0; i < tree.NodeCount(); i++ {
		if front, back := tree.NodeChildren(i); front < 0 && back < 0 {
			leaves++
		}
	}

	fmt.Printf("File:    %s\n", fs.Arg(0))
	fmt.Printf("Objects: %d\n", len(objs))
	fmt.Printf("Nodes:   %d (%d leaves)\n", tree.NodeCount(), leaves)
	fmt.Printf("Depth:   %d\n", tree.PartitionDepth())
	fmt.Printf("Bounds:  %s\n", formatBox(tree.BoundingBox()))
	if err := tree.Validate(); err != nil {
		fmt.Printf("Valid:   no\n%v\n", err)
	} else {
		fmt.Printf("Valid:   yes\n")
	}

	if *nodes {
		fmt.Println()
		for i := 0; i < tree.NodeCount(); i++ {
			front, back := tree.NodeChildren(i)
			fmt.Printf("  %4d parent=%-4d front=%-4d back=%-4d objects=%-3d %s\n",
				i, tree.NodeParent(i), front, back, tree.NodeObjectCount(i), formatBox(tree.NodeBox(i)))
		}
	}
	return nil
}
