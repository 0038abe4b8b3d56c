package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide structured logging
type Logger struct {
	*zap.SugaredLogger
}

// New creates a new Logger instance configured for production use. The log
// level comes from the LOG_LEVEL environment variable (default info).
func New() *Logger {
	config := zap.NewProductionEncoderConfig()
	config.TimeKey = "ts"
	config.LevelKey = "level"
	config.MessageKey = "msg"
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.LowercaseLevelEncoder
	config.EncodeDuration = zapcore.StringDurationEncoder
	config.StacktraceKey = ""
	config.CallerKey = ""
	config.NameKey = ""
	config.FunctionKey = ""

	level := zapcore.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if parsed, err := zapcore.ParseLevel(v); err == nil {
			level = parsed
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(config),
		zapcore.AddSync(os.Stdout),
		level,
	)

	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
	}
}

// Info logs an info message with structured fields
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.Infow(msg, fields...)
}

// Warn logs a warning message with structured fields
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.Warnw(msg, fields...)
}

// Error logs an error message with structured fields
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.Errorw(msg, fields...)
}

// Debug logs a debug message with structured fields
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.Debugw(msg, fields...)
}
