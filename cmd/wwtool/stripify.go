package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/wwcull/internal/assets"
	"github.com/Faultbox/wwcull/internal/config"
	"github.com/Faultbox/wwcull/internal/logger"
	"github.com/Faultbox/wwcull/pkg/strip"
)

func cmdStripify(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("stripify", flag.ExitOnError)
	combine := fs.Bool("combine", cfg.Strip.Combine, "Join strips into one with degenerate triangles")
	order := fs.Bool("order", cfg.Strip.OptimizeOrder, "Reorder strips by shared vertices")
	verbose := fs.Bool("v", false, "Print strip indices")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wwtool stripify [-combine] [-order] [-v] <mesh.yaml>")
		os.Exit(1)
	}

	m := assets.NewManager()
	defer m.Close()
	mesh, err := m.LoadMesh(fs.Arg(0))
	if err != nil {
		return err
	}

	opt := strip.New(
		strip.WithSwapPenalty(cfg.Strip.SwapPenalty),
		strip.WithLogger(logger.Named("strip")),
	)
	blob := opt.Stripify(mesh.Triangles)
	if *order {
		if blob, err = strip.OptimizeStripOrder(blob); err != nil {
			return err
		}
	}
	strips, err := strip.Strips(blob)
	if err != nil {
		return err
	}

	indices := 0
	for _, s := range strips {
		indices += len(s)
	}

	fmt.Printf("Mesh:      %s\n", fs.Arg(0))
	fmt.Printf("Triangles: %d\n", len(mesh.Triangles))
	fmt.Printf("Vertices:  %d\n", mesh.VertexCount())
	fmt.Printf("Strips:    %d\n", len(strips))
	fmt.Printf("Indices:   %d\n", indices)
	if len(strips) > 0 {
		fmt.Printf("Avg len:   %.2f\n", float64(indices)/float64(len(strips)))
	}

	if *combine {
		combined, err := strip.CombineStrips(blob)
		if err != nil {
			return err
		}
		fmt.Printf("Combined:  %d indices\n", len(combined)-1)
		if *verbose {
			fmt.Println(combined[1:])
		}
		logger.Debug("strips combined", zap.Int("indices", len(combined)-1))
		return nil
	}

	if *verbose {
		for i, s := range strips {
			fmt.Printf("  %4d: %v\n", i, s)
		}
	}
	return nil
}
