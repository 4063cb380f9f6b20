// ABOUTME: Process-wide logger with printf-style helpers (Debug/Info/Warn/Error).
// ABOUTME: Backed by zap, writing to stderr and a rotating file under the config dir.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much is logged.
type Options struct {
	Level    string // debug, info, warn, error (default info)
	FilePath string // rotating log file; empty disables file output
	Console  bool   // also write to stderr
}

var (
	mu     sync.RWMutex
	sugar  = newLogger(zapcore.InfoLevel, zapcore.AddSync(os.Stderr)).Sugar()
	closer io.Closer
)

// Init replaces the default stderr logger. Safe to call more than once.
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	var sinks []zapcore.WriteSyncer
	if opts.Console {
		sinks = append(sinks, zapcore.AddSync(os.Stderr))
	}

	var fileLogger *lumberjack.Logger
	if opts.FilePath != "" {
		fileLogger = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		sinks = append(sinks, zapcore.AddSync(fileLogger))
	}

	if len(sinks) == 0 {
		sinks = append(sinks, zapcore.AddSync(io.Discard))
	}

	logger := newLogger(level, zapcore.NewMultiWriteSyncer(sinks...))

	mu.Lock()
	old := closer
	sugar = logger.Sugar()
	closer = nil
	if fileLogger != nil {
		closer = fileLogger
	}
	mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

func newLogger(level zapcore.Level, out zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, level)
	return zap.New(core)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Info logs an informational message.
func Info(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Error logs an error.
func Error(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// Sync flushes buffered output and closes the log file.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
}
