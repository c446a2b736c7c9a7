package logging

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/nojima/httpprobe/exchange"
	"github.com/nojima/httpprobe/input"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON logger writing to a rotated file at path, or a no-op
// logger when path is empty.
func New(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating log directory")
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	return newWithSink(w), nil
}

func newWithSink(w zapcore.WriteSyncer) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel)
	return zap.New(core)
}

// LogOutcome writes one entry describing a finished probe.
func LogOutcome(logger *zap.Logger, in *input.Descriptor, outcome *exchange.Outcome) {
	fields := []zap.Field{
		zap.String("method", string(in.EffectiveMethod())),
		zap.String("url", redactURL(in.URL)),
		zap.Duration("elapsed", outcome.Elapsed),
	}
	if !outcome.Succeeded() {
		logger.Warn("probe failed", append(fields, zap.Error(outcome.TransportError))...)
		return
	}
	logger.Info("probe completed", append(fields,
		zap.Int("status", outcome.StatusCode),
		zap.Int("bytes", len(outcome.RawBody)),
		zap.Bool("json", outcome.Parsed),
	)...)
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	if c.User != nil {
		c.User = url.User(c.User.Username())
	}
	return c.String()
}
