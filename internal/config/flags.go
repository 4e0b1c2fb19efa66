package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile     = flag.String("log-file", "", "Also write logs to this file")
	flagCellSize    = flag.Float64("cell-size", 0, "Minimum grid cell size")
	flagCellCap     = flag.Int("cells", 0, "Maximum number of grid cells")
	flagLeaf        = flag.Int("leaf", 0, "AAB-tree leaf object count")
	flagSwapPenalty = flag.Int("swap-penalty", -1, "Stripify swap vertex penalty")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagCellSize > 0 {
		cfg.Grid.MinCellSize = float32(*flagCellSize)
	}
	if *flagCellCap > 0 {
		cfg.Grid.TerminationCellCount = *flagCellCap
	}
	if *flagLeaf > 0 {
		cfg.Tree.LeafObjectCount = *flagLeaf
	}
	if *flagSwapPenalty >= 0 {
		cfg.Strip.SwapPenalty = *flagSwapPenalty
	}
}
