package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = New(os.Stdout, zapcore.InfoLevel)

// Init configures the package logger from LOG_LEVEL (debug, info, warn, error).
func Init() {
	log = New(os.Stdout, parseLevel(os.Getenv("LOG_LEVEL")))
	zap.ReplaceGlobals(log.Desugar())
}

// New builds a JSON logger writing to w at the given minimum level.
func New(w io.Writer, level zapcore.Level) *zap.SugaredLogger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)).Sugar()
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Info logs msg with alternating key/value pairs.
func Info(msg string, keysAndValues ...any) {
	log.Infow(msg, keysAndValues...)
}

func Infof(format string, v ...any) {
	log.Infof(format, v...)
}

func Warn(msg string, keysAndValues ...any) {
	log.Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	log.Errorw(msg, keysAndValues...)
}

func Errorf(format string, v ...any) {
	log.Errorf(format, v...)
}

func Debug(msg string, keysAndValues ...any) {
	log.Debugw(msg, keysAndValues...)
}

func Debugf(format string, v ...any) {
	log.Debugf(format, v...)
}

func Fatal(msg string, keysAndValues ...any) {
	log.Fatalw(msg, keysAndValues...)
}

func Fatalf(format string, v ...any) {
	log.Fatalf(format, v...)
}

// Sync flushes buffered entries; call it before exit.
func Sync() error {
	return log.Sync()
}

// WithError returns a child logger carrying err under the "error" key.
func WithError(err error) *zap.SugaredLogger {
	return log.With(zap.Error(err))
}

func WithFields(fields map[string]interface{}) *zap.SugaredLogger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return log.With(args...)
}
