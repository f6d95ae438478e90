package log

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/graphscope/pegasus-go/internal/config"
)

func TestInitDefaultsToStdoutText(t *testing.T) {
	logger, err := Init(config.LogConfig{Level: "info", Format: "text"})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestInitJSONFormat(t *testing.T) {
	logger, err := Init(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
	require.True(t, isJSON)
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	_, err := Init(config.LogConfig{Level: "verbose", Format: "text"})
	require.Error(t, err)
}

func TestInitRejectsUnknownFormat(t *testing.T) {
	_, err := Init(config.LogConfig{Level: "info", Format: "xml"})
	require.Error(t, err)
}

func TestInitWithFileOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LogConfig{
		Level:  "info",
		Format: "text",
		Outputs: config.LogOutputsConfig{
			File: config.FileOutputConfig{
				Enabled: true,
				Path:    filepath.Join(dir, "pegasus.log"),
				Rotation: config.RotationConfig{
					MaxSizeMB:  10,
					MaxBackups: 1,
					MaxAgeDays: 1,
				},
			},
		},
	}
	logger, err := Init(cfg)
	require.NoError(t, err)
	logger.Info("hello")
}
