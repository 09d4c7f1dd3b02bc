// Package logger provides opinionated zap logging for driftlens commands
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger(debug bool) *zap.Logger {
	return New(WithDebug(debug))
}

func NewLoggerWithWriters(debug bool, writers ...io.Writer) *zap.Logger {
	return New(WithDebug(debug), WithWriters(writers...))
}

// New builds a logger from the given options. Console output with colored
// levels is the default; WithJSON switches to one JSON object per line.
func New(opts ...Option) *zap.Logger {
	c := &config{
		level:  zap.InfoLevel,
		caller: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if c.json {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	writers := c.writers
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), c.level)

	var zopts []zap.Option
	if c.caller {
		zopts = append(zopts, zap.AddCaller())
	}

	return zap.New(core, zopts...)
}
