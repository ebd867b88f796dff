// Package logger is the process-wide structured logger shared by the gateway
// and the sample API. Calls take a message followed by key/value pairs.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Levels outside zap's built-in set.
const (
	TraceLevel    = zapcore.DebugLevel - 1
	CriticalLevel = zapcore.DPanicLevel
)

// Options controls which sinks Init installs.
type Options struct {
	Level       string
	Application string
	Environment string

	// FileDir enables a rolling JSON file when non-empty.
	FileDir  string
	FileName string
	// RetainFiles is the number of rotated files kept (default 7).
	RetainFiles int

	// Cores are teed next to the console and file sinks.
	Cores []zapcore.Core
}

var (
	mu   sync.RWMutex
	base = fallback()
)

func fallback() *zap.SugaredLogger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(EncoderConfig(CapitalLevelEncoder)),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(zapcore.DebugLevel),
	)
	return zap.New(core).Sugar()
}

// Init replaces the package logger. The returned func flushes every sink and
// stops file rotation; call it on shutdown.
func Init(opts Options) (func(), error) {
	lvl, ok := ParseLevel(opts.Level)
	if !ok {
		lvl = zapcore.DebugLevel
	}
	enabler := zap.NewAtomicLevelAt(lvl)

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(EncoderConfig(CapitalLevelEncoder)),
			zapcore.Lock(os.Stdout),
			enabler,
		),
	}

	var rotator *dailyRotator
	if opts.FileDir != "" {
		if err := os.MkdirAll(opts.FileDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		name := opts.FileName
		if name == "" {
			name = "app"
		}
		retain := opts.RetainFiles
		if retain <= 0 {
			retain = 7
		}
		lj := &lumberjack.Logger{
			Filename:   filepath.Join(opts.FileDir, name+".log"),
			MaxSize:    100,
			MaxBackups: retain,
			MaxAge:     retain,
			LocalTime:  true,
		}
		rotator = startDailyRotation(lj)
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(EncoderConfig(LevelEncoder)),
			zapcore.AddSync(lj),
			enabler,
		))
	}
	cores = append(cores, opts.Cores...)

	l := zap.New(zapcore.NewTee(cores...))
	var fields []any
	if opts.Application != "" {
		fields = append(fields, "Application", opts.Application)
	}
	if opts.Environment != "" {
		fields = append(fields, "Environment", opts.Environment)
	}

	mu.Lock()
	base = l.Sugar().With(fields...)
	mu.Unlock()

	return func() {
		_ = l.Sync()
		if rotator != nil {
			rotator.stop()
		}
	}, nil
}

// EncoderConfig is shared by every sink so level names stay consistent.
func EncoderConfig(levelEnc zapcore.LevelEncoder) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = levelEnc
	cfg.CallerKey = zapcore.OmitKey
	return cfg
}

// LevelName renders a level using the trace..critical vocabulary.
func LevelName(l zapcore.Level) string {
	switch l {
	case TraceLevel:
		return "trace"
	case CriticalLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return "critical"
	default:
		return l.String()
	}
}

func LevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(LevelName(l))
}

func CapitalLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(strings.ToUpper(LevelName(l)))
}

// ParseLevel accepts trace, debug, info, warn(ing), error and critical.
func ParseLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "verbose":
		return TraceLevel, true
	case "debug":
		return zapcore.DebugLevel, true
	case "info", "information":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "critical", "fatal":
		return CriticalLevel, true
	}
	return zapcore.InfoLevel, false
}

// L returns the current logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// With returns a child logger carrying the given key/value pairs.
func With(kv ...any) *zap.SugaredLogger {
	return L().With(kv...)
}

func Trace(msg string, kv ...any)    { L().Logw(TraceLevel, msg, kv...) }
func Debug(msg string, kv ...any)    { L().Debugw(msg, kv...) }
func Info(msg string, kv ...any)     { L().Infow(msg, kv...) }
func Warn(msg string, kv ...any)     { L().Warnw(msg, kv...) }
func Error(msg string, kv ...any)    { L().Errorw(msg, kv...) }
func Critical(msg string, kv ...any) { L().Logw(CriticalLevel, msg, kv...) }

// Fatal logs at critical severity, flushes and exits with status 1.
func Fatal(msg string, kv ...any) {
	L().Logw(CriticalLevel, msg, kv...)
	Sync()
	os.Exit(1)
}

// Log writes at an arbitrary level.
func Log(lvl zapcore.Level, msg string, kv ...any) { L().Logw(lvl, msg, kv...) }

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}

// dailyRotator forces a rotation at local midnight so each file covers one day.
type dailyRotator struct {
	done chan struct{}
	once sync.Once
}

func startDailyRotation(lj *lumberjack.Logger) *dailyRotator {
	r := &dailyRotator{done: make(chan struct{})}
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			t := time.NewTimer(next.Sub(now))
			select {
			case <-t.C:
				if err := lj.Rotate(); err != nil {
					fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
				}
			case <-r.done:
				t.Stop()
				_ = lj.Close()
				return
			}
		}
	}()
	return r
}

func (r *dailyRotator) stop() {
	r.once.Do(func() { close(r.done) })
}
