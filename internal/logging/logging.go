// Package logging adapts zap to the runtime.Logger interface used across
// the engine, so the same code logs through Nakama or a standalone server.
package logging

import (
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
)

type zapLogger struct {
	base   *zap.SugaredLogger
	fields map[string]interface{}
}

var _ runtime.Logger = (*zapLogger)(nil)

// New wraps l. A nil l yields a no-op logger.
func New(l *zap.Logger) runtime.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{base: l.Sugar(), fields: map[string]interface{}{}}
}

// Nop discards everything.
func Nop() runtime.Logger {
	return New(zap.NewNop())
}

// NewProduction builds a JSON logger at info level, or debug when debug is set.
func NewProduction(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func (l *zapLogger) Debug(format string, v ...interface{}) {
	l.base.Debug(fmt.Sprintf(format, v...))
}

func (l *zapLogger) Info(format string, v ...interface{}) {
	l.base.Info(fmt.Sprintf(format, v...))
}

func (l *zapLogger) Warn(format string, v ...interface{}) {
	l.base.Warn(fmt.Sprintf(format, v...))
}

func (l *zapLogger) Error(format string, v ...interface{}) {
	l.base.Error(fmt.Sprintf(format, v...))
}

func (l *zapLogger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

func (l *zapLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		merged[k] = v
		args = append(args, k, v)
	}
	return &zapLogger{base: l.base.With(args...), fields: merged}
}

func (l *zapLogger) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		out[k] = v
	}
	return out
}
