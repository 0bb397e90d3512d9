package logx

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

// Init configures the global zerolog logger.
func Init(conf Config) {
	var writer zerolog.Logger
	if conf.PrettyFormat {
		writer = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		writer = zerolog.New(os.Stdout)
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	log.Logger = writer.Level(level).With().Timestamp().Caller().Stack().Logger()
}
