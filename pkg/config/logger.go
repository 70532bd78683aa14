package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// NewLogger builds a slog logger writing to w with the configured level and
// format.
func NewLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, types.NewConfigError(types.ErrInvalidConfigValue, "log.level %q: want debug, info, warn or error", s).WithCause(err)
	}
	return level, nil
}
