package graphcodec

import "go.uber.org/zap"

type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger sends the engine's errors to l.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{l: l.WithOptions(zap.AddCallerSkip(1))}
}

// NopLogger drops every message.
func NopLogger() Logger { return &zapLogger{l: zap.NewNop()} }

func (z *zapLogger) Error(msg string) { z.l.Error(msg) }
