// wwtool is a CLI utility for building and inspecting culling structures
// and for stripifying triangle meshes.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/wwcull/internal/config"
	"github.com/Faultbox/wwcull/internal/logger"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logOpts := logger.Options{
		Level:      cfg.Logging.Level,
		Components: cfg.Logging.Components,
		Console:    true,
	}
	if cfg.Logging.LogFile != "" {
		logOpts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.Setup(logOpts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Debug("wwtool starting", zap.Strings("args", args))

	command := args[0]
	rest := args[1:]

	switch command {
	case "stripify", "strip":
		err = cmdStripify(cfg, rest)
	case "build":
		err = cmdBuild(cfg, rest)
	case "info":
		err = cmdInfo(rest)
	case "query", "q":
		err = cmdQuery(cfg, rest)
	case "config":
		err = cmdConfig(cfg, rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`wwtool - culling and triangle strip utility

Usage:
  wwtool [global options] <command> [options]

Global options:
  -config <file>       Config file (default ./wwcull.yaml, then user config dir)
  -debug               Debug logging
  -log-file <file>     Also write logs to a rotated file
  -cell-size <n>       Minimum grid cell size
  -cells <n>           Maximum number of grid cells
  -leaf <n>            AAB-tree leaf object count
  -swap-penalty <n>    Stripify swap vertex penalty

Commands:
  stripify <mesh.yaml>             Build triangle strips for a mesh
  build <scene.yaml> <out.aabt>    Partition a scene into an AAB-tree file
  info <tree.aabt>                 Show AAB-tree file information
  query <scene.yaml>               Collect scene objects inside a volume
  config                           Print the effective configuration

Examples:
  wwtool stripify -combine terrain.yaml
  wwtool -leaf 2 build yard.yaml yard.aabt
  wwtool query -system grid -box 0,0,0,50,50,10 yard.yaml
  wwtool query -system tree -point 12,40,2 yard.yaml`)
}
