package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/doeshing/datatalk/internal/ports"
)

// ZapLogger adapts a *zap.Logger to ports.Logger.
type ZapLogger struct {
	l *zap.Logger
}

// New builds a zap logger. format "json" selects the production encoder,
// anything else the human readable development one.
func New(levelStr, format string) *zap.Logger {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewStructured creates a ports.Logger backed by zap.
func NewStructured(levelStr, format string) *ZapLogger {
	return &ZapLogger{l: New(levelStr, format)}
}

// NewZapAdapter wraps an existing *zap.Logger.
func NewZapAdapter(l *zap.Logger) *ZapLogger {
	return &ZapLogger{l: l}
}

// NewNop returns a logger that discards everything.
func NewNop() *ZapLogger {
	return &ZapLogger{l: zap.NewNop()}
}

func (z *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	z.l.Debug(msg, mapToZapFields(fields)...)
}

func (z *ZapLogger) Info(msg string, fields map[string]interface{}) {
	z.l.Info(msg, mapToZapFields(fields)...)
}

func (z *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	z.l.Warn(msg, mapToZapFields(fields)...)
}

func (z *ZapLogger) Error(msg string, err error, fields map[string]interface{}) {
	z.l.Error(msg, append(mapToZapFields(fields), zap.Error(err))...)
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.l.Sync()
}

// Zap exposes the underlying logger for libraries that want one.
func (z *ZapLogger) Zap() *zap.Logger {
	return z.l
}

func mapToZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

var _ ports.Logger = (*ZapLogger)(nil)
