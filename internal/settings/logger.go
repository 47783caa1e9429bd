package settings

import (
	"io"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// NewLogger builds the process logger from LogSettings
func NewLogger(s LogSettings, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(s.Level))
	if err != nil {
		return zerolog.Nop(), pkgerrors.Wrapf(err, "parse log level %q", s.Level)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	switch s.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), pkgerrors.Errorf("unknown log format %q", s.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
