package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Default to console output with color
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}

	Log = zerolog.New(output).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Configure applies LOG_LVL / LOG_TO_CONSOLE. Levels follow the service's
// integer convention: 10 debug, 20 info, 30 warn, 40 error, 50 fatal.
// The zerolog/log global used by the other packages is pointed at Log too.
func Configure(level int, toConsole bool) {
	if !toConsole {
		Log = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	lvl := zerologLevel(level)
	zerolog.SetGlobalLevel(lvl)
	Log = Log.Level(lvl)
	log.Logger = Log
}

func zerologLevel(level int) zerolog.Level {
	switch {
	case level <= 10:
		return zerolog.DebugLevel
	case level <= 20:
		return zerolog.InfoLevel
	case level <= 30:
		return zerolog.WarnLevel
	case level <= 40:
		return zerolog.ErrorLevel
	default:
		return zerolog.FatalLevel
	}
}
