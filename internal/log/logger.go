// Package log wires structured logging for a pegasus-go process, using
// logrus as the base logger plus an optional lumberjack-rotated file
// sink.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sirupsen/logrus"

	"github.com/graphscope/pegasus-go/internal/config"
)

// Init builds a logrus.Logger from cfg: one of the teacher's
// JSONFormatter / prefixed.TextFormatter, writing to stdout plus a
// rotated file when cfg.Outputs.File is enabled.
func Init(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&prefixed.TextFormatter{
			FullTimestamp:   true,
			ForceFormatting: true,
		})
	default:
		return nil, fmt.Errorf("unsupported log format: %s (must be json or text)", cfg.Format)
	}

	writers := []io.Writer{os.Stdout}

	if cfg.Outputs.File.Enabled {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.Outputs.File.Path,
			MaxSize:    cfg.Outputs.File.Rotation.MaxSizeMB,
			MaxBackups: cfg.Outputs.File.Rotation.MaxBackups,
			MaxAge:     cfg.Outputs.File.Rotation.MaxAgeDays,
			Compress:   cfg.Outputs.File.Rotation.Compress,
		})
	}

	logger.SetOutput(io.MultiWriter(writers...))
	return logger, nil
}
