// Package logger provides structured logging using zap.
//
// Console output goes to stderr so wwtool can print results on stdout.
// Each component gets its own named logger whose level can differ from the
// global one.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance.
var Log *zap.Logger

// Sugar is the sugared logger for convenient logging.
var Sugar *zap.SugaredLogger

var (
	// base writes at the lowest level any logger needs; the global and
	// component loggers narrow it.
	base       zapcore.Core
	components map[string]zapcore.Level
)

// FileConfig holds file logging configuration.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns default file logging settings.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// Options configures Setup.
type Options struct {
	// Level is the global level: debug, info, warn or error.
	Level string
	// Components maps a component name to its own level.
	Components map[string]string
	// File enables rotated file output when Path is set.
	File FileConfig
	// Console enables colored output on stderr.
	Console bool
}

// Setup replaces the global logger.
func Setup(opts Options) error {
	global := parseLevel(opts.Level)
	floor := global
	levels := make(map[string]zapcore.Level, len(opts.Components))
	for name, level := range opts.Components {
		lvl := parseLevel(level)
		levels[name] = lvl
		floor = min(floor, lvl)
	}

	var cores []zapcore.Core
	if opts.Console {
		enc := encoderConfig(zapcore.TimeEncoderOfLayout("15:04:05"), zapcore.CapitalColorLevelEncoder)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), floor))
	}
	if opts.File.Path != "" {
		w := &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
			LocalTime:  true,
		}
		enc := encoderConfig(zapcore.ISO8601TimeEncoder, zapcore.CapitalLevelEncoder)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), floor))
	}

	base = zapcore.NewTee(cores...)
	components = levels
	Log = atLevel(global)
	Sugar = Log.Sugar()
	return nil
}

// atLevel returns a logger over base that drops entries below lvl.
func atLevel(lvl zapcore.Level) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	core, err := zapcore.NewIncreaseLevelCore(base, lvl)
	if err != nil {
		// base has no outputs at all
		return zap.NewNop()
	}
	return zap.New(core, zap.AddCaller())
}

func encoderConfig(timeEnc zapcore.TimeEncoder, levelEnc zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       timeEnc,
		EncodeLevel:      levelEnc,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// parseLevel converts a level name; unknown names mean info.
func parseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

// Named returns the logger for one component, e.g. "grid" or "aabtree",
// at the component's own level when one is configured. Before Setup it
// returns a no-op logger.
func Named(component string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	if lvl, ok := components[component]; ok {
		return atLevel(lvl).Named(component)
	}
	return Log.Named(component)
}

// Sync flushes any buffered log entries.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
