package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

var rotatedLogFile io.Closer

func newRotatedFile(cfg *logfileConfig) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "parapipe"
	}

	return rotatelogs.New(
		filepath.Join(cfg.Dir, fmt.Sprintf("%s_%s.log", prefix, "%Y%m%d%H%M%S")),
		rotatelogs.WithRotationTime(cfg.RotatePeriod),
	)
}
