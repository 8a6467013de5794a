package env

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CAUTION relying on the LogLevel package variable directly does not work
// reliably during init ordering, so it's passed as a parameter.
func configureGlobalLogger(logLevel int) {
	zerolog.TimeFieldFormat = TimeFormat
	if Mode == "DEV" {
		log.Logger = log.With().Caller().Logger()
	}

	var writers []io.Writer
	if Mode == "DEV" || LogStdout {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: TimeFormat})
	}
	if LogFile != "" {
		f, err := os.OpenFile(LogFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			log.Error().Str("context", "init").Err(err).Msg("log_file_open_failed")
		} else {
			writers = append(writers, f)
		}
	}
	switch len(writers) {
	case 0:
		// default zerolog output (stderr JSON) is fine for PROD without a log file
	case 1:
		log.Logger = log.Output(writers[0])
	default:
		log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
	}

	zerolog.SetGlobalLevel(convertLevel(logLevel))
}

func convertLevel(level int) zerolog.Level {
	switch level {
	case 0:
		return zerolog.FatalLevel
	case 1:
		return zerolog.ErrorLevel
	case 2:
		return zerolog.InfoLevel
	case 3:
		return zerolog.DebugLevel
	case 4:
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}
