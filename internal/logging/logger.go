package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gameshelf/internal/config"

	"github.com/rs/zerolog"
)

// New builds the root logger from config. The returned closer is non-nil
// only for file output and must be closed on shutdown.
func New(cfg config.LoggingConfig, app config.AppConfig) (*zerolog.Logger, io.Closer, error) {
	output, closer, err := destination(cfg)
	if err != nil {
		return nil, nil, err
	}

	if normalize(cfg.Format) == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(normalize(cfg.Level)); err == nil {
		level = parsed
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("app", app.Name).
		Str("env", app.Environment).
		Str("version", app.Version).
		Logger()

	return &logger, closer, nil
}

func destination(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	switch normalize(cfg.Output) {
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("logging.output=file requires logging.file_path")
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return file, file, nil
	default:
		return os.Stdout, nil, nil
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
