// Package serverlog adapts a zap logger to the protocol.Logger interface
// the session/dispatcher loop expects, and centralizes the level/encoding
// choices the CLI exposes through --log-level.
package serverlog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/NERVsystems/ninepd/internal/protocol"
)

// Logger wraps a *zap.SugaredLogger to satisfy protocol.Logger.
type Logger struct {
	s *zap.SugaredLogger
}

var _ protocol.Logger = (*Logger)(nil)

// New builds a Logger at the given level ("debug", "info", "warn", "error").
// An unrecognized level falls back to "info".
func New(level string) (*Logger, error) {
	var zlevel zapcore.Level
	if err := zlevel.UnmarshalText([]byte(level)); err != nil {
		zlevel = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zlevel)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	base, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("serverlog: build zap logger: %w", err)
	}
	return &Logger{s: base.Sugar()}, nil
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func (l *Logger) Debugw(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error { return l.s.Sync() }
