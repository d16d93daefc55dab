package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MatusOllah/slogcolor"
	"github.com/fatih/color"
	"github.com/internetarchive/parapipe/internal/pkg/config"
	slogmulti "github.com/samber/slog-multi"
)

type logConfig struct {
	FileConfig    *logfileConfig
	StderrEnabled bool
	StderrLevel   slog.Level
	NoColor       bool
}

type logfileConfig struct {
	Dir          string
	Prefix       string
	Level        slog.Level
	RotatePeriod time.Duration
}

// makeConfig derives the logger configuration from the global configuration
func makeConfig() *logConfig {
	if config.Get() == nil {
		return &logConfig{
			StderrEnabled: true,
			StderrLevel:   slog.LevelInfo,
		}
	}

	cfg := config.Get()

	var logFileConfig *logfileConfig
	if !cfg.NoFileLogging {
		rotatePeriod, err := time.ParseDuration(cfg.LogFileRotation)
		if err != nil || rotatePeriod <= 0 {
			rotatePeriod = 6 * time.Hour
		}

		logFileOutputDir := cfg.LogFileOutputDir
		if logFileOutputDir == "" {
			logFileOutputDir = filepath.Join(cfg.JobPath, "logs")
		}

		logFileConfig = &logfileConfig{
			Dir:          logFileOutputDir,
			Prefix:       cfg.LogFilePrefix,
			Level:        parseLevel(cfg.LogFileLevel),
			RotatePeriod: rotatePeriod,
		}
	}

	return &logConfig{
		FileConfig:    logFileConfig,
		StderrEnabled: !cfg.NoStderrLogging,
		StderrLevel:   parseLevel(cfg.LogLevel),
		NoColor:       cfg.NoColorLogging,
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newColorOptions(level slog.Level) *slogcolor.Options {
	return &slogcolor.Options{
		Level:         level,
		TimeFormat:    time.RFC3339,
		SrcFileMode:   slogcolor.ShortFile,
		SrcFileLength: 20,
		MsgPrefix:     color.HiWhiteString("| "),
		MsgColor:      color.New().Add(color.FgYellow),
		LevelTags:     slogcolor.DefaultLevelTags,
	}
}

func (c *logConfig) newHandler(out io.Writer, level slog.Level) slog.Handler {
	if c.NoColor {
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}
	return slogcolor.NewHandler(out, newColorOptions(level))
}

func (c *logConfig) makeMultiLogger() (*slog.Logger, error) {
	router := slogmulti.Router()

	// Pipeline output owns stdout, so the console handler always writes to stderr
	if c.StderrEnabled {
		stderrHandler := c.newHandler(os.Stderr, c.StderrLevel)
		router = router.Add(stderrHandler, func(_ context.Context, r slog.Record) bool {
			return r.Level >= c.StderrLevel
		})
	}

	if c.FileConfig != nil {
		file, err := newRotatedFile(c.FileConfig)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		rotatedLogFile = file

		fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: c.FileConfig.Level})
		router = router.Add(fileHandler, func(_ context.Context, r slog.Record) bool {
			return r.Level >= c.FileConfig.Level
		})
	}

	return slog.New(router.Handler()), nil
}
