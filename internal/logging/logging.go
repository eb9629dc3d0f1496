// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init points the global logger at stderr and applies level. An unknown
// level falls back to info. Under systemd (JOURNAL_STREAM set) colors are
// disabled since journald stores the raw output.
func Init(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	_, underSystemd := os.LookupEnv("JOURNAL_STREAM")
	log.Logger = log.Output(writer(os.Stderr, underSystemd))

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		if err != nil {
			log.Warn().Str("level", level).Msg("unknown log level, using info")
		}
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func writer(out io.Writer, noColor bool) io.Writer {
	return zerolog.ConsoleWriter{Out: out, NoColor: noColor}
}
