package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level   string
	Pretty  bool
	Service string
	Env     string
}

func New() zerolog.Logger {
	return NewWithConfig(Config{Level: "info", Service: "hustlehut"})
}

func NewWithConfig(config Config) zerolog.Logger {
	return newLogger(config, os.Stdout)
}

func newLogger(config Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	if config.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if config.Service != "" {
		ctx = ctx.Str("service", config.Service)
	}
	if config.Env != "" {
		ctx = ctx.Str("env", config.Env)
	}
	return ctx.Logger()
}
