package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	level      = zap.NewAtomicLevelAt(zap.InfoLevel)
	loggerMu   sync.RWMutex
	baseLogger *zap.SugaredLogger
)

func init() {
	baseLogger = newLogger(zapcore.AddSync(os.Stdout))
}

// FileOptions configures the rotating file sink.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

func newEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func newLogger(sinks ...zapcore.WriteSyncer) *zap.SugaredLogger {
	enc := newEncoder()
	cores := make([]zapcore.Core, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		cores = append(cores, zapcore.NewCore(enc, s, level))
	}
	if len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level))
	}
	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	loggerMu.Lock()
	baseLogger = newLogger(zapcore.AddSync(w))
	loggerMu.Unlock()
}

// SetFileOutput logs to console and to a lumberjack-rotated file.
func SetFileOutput(console io.Writer, opts FileOptions) {
	if strings.TrimSpace(opts.Path) == "" {
		SetOutput(console)
		return
	}
	if console == nil {
		console = os.Stdout
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
	}
	loggerMu.Lock()
	baseLogger = newLogger(zapcore.AddSync(console), zapcore.AddSync(rotator))
	loggerMu.Unlock()
}

func SetLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "info":
		level.SetLevel(zap.InfoLevel)
	case "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}
}

func activeLogger() *zap.SugaredLogger {
	loggerMu.RLock()
	l := baseLogger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if baseLogger == nil {
		baseLogger = newLogger(zapcore.AddSync(os.Stdout))
	}
	return baseLogger
}

// S exposes the sugared logger for structured key/value calls.
func S() *zap.SugaredLogger {
	return activeLogger()
}

func Sync() {
	_ = activeLogger().Sync()
}

func Debugf(format string, v ...any) {
	activeLogger().Debugf(format, v...)
}

func Infof(format string, v ...any) {
	activeLogger().Infof(format, v...)
}

func Warnf(format string, v ...any) {
	activeLogger().Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	activeLogger().Errorf(format, v...)
}

func InfoBlock(block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	lines := strings.Split(block, "\n")
	for _, line := range lines {
		Infof("%s", line)
	}
}
