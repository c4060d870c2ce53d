package cli

import (
	"io"
	"strings"
	"time"

	"github.com/glossa-app/glossa/internal/config"
	"github.com/rs/zerolog"
)

// newLogger returns a console logger writing to w at the configured level.
// The --log-level flag wins over config.
func newLogger(w io.Writer) zerolog.Logger {
	level := config.LogLevel()
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// parseLevel maps a level name to a zerolog level. Unknown names mean info.
func parseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "warning":
		return zerolog.WarnLevel
	case "off", "none":
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
