// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLevel keeps normal runs quiet apart from warnings.
const DefaultLevel = "warn"

// Init points the global logger at w with a human-friendly console format
// and sets the global level. Colors are only used when w is a terminal.
func Init(level string, w io.Writer) error {
	if level == "" {
		level = DefaultLevel
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    !IsTerminal(w),
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(lvl)

	log.Debug().Str("level", lvl.String()).Msg("logger initialized")

	return nil
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
