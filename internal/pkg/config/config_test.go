package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_Defaults(t *testing.T) {
	reset()
	defer reset()

	require.NoError(t, InitConfig())
	cfg := Get()

	assert.Equal(t, 1, cfg.WorkersCount)
	assert.Equal(t, 32, cfg.MaxStages)
	assert.Equal(t, "race", cfg.InputPolicy)
	assert.Equal(t, "orchestration", cfg.ExitPolicy)
	assert.Equal(t, 32*1024, cfg.CollectorBufferSize)
	assert.True(t, cfg.NoFileLogging)
	assert.Equal(t, "parapipe_", cfg.PrometheusPrefix)
}

func TestInitConfig_ConfigFile(t *testing.T) {
	reset()
	defer reset()

	file := filepath.Join(t.TempDir(), "parapipe.yaml")
	require.NoError(t, os.WriteFile(file, []byte("workers: 7\ncommand: \"cat -> wc -l\"\ninput-policy: hash\n"), 0644))
	viper.Set("config-file", file)

	require.NoError(t, InitConfig())
	cfg := Get()

	assert.Equal(t, 7, cfg.WorkersCount)
	assert.Equal(t, "cat -> wc -l", cfg.Command)
	assert.Equal(t, "hash", cfg.InputPolicy)
}

func TestInitConfig_Env(t *testing.T) {
	reset()
	defer reset()

	t.Setenv("PARAPIPE_WORKERS", "3")
	t.Setenv("PARAPIPE_EXIT_POLICY", "stages")

	require.NoError(t, InitConfig())
	assert.Equal(t, 3, Get().WorkersCount)
	assert.Equal(t, "stages", Get().ExitPolicy)
}

func TestHandleFlagsEdgeCases(t *testing.T) {
	reset()
	defer reset()

	viper.Set("live-stats", true)
	viper.Set("prometheus", true)

	require.NoError(t, InitConfig())
	assert.True(t, Get().NoStderrLogging)
	assert.True(t, Get().API)
}

func TestGenerateRunConfig(t *testing.T) {
	reset()
	defer reset()

	require.NoError(t, InitConfig())

	err := GenerateRunConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig, "missing command must be rejected")

	Get().Command = "cat"
	require.NoError(t, GenerateRunConfig())
	assert.NotEmpty(t, Get().Job)
	assert.Equal(t, filepath.Join("jobs", Get().Job), Get().JobPath)

	Get().WorkersCount = 0
	assert.ErrorIs(t, GenerateRunConfig(), ErrInvalidConfig)
}
