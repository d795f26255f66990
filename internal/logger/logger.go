package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"stagelights/internal/config"
)

type Log struct {
	*logrus.Entry
}

// NewLogger builds the process logger from the [logger] config section.
func NewLogger(cfg config.LogConf) (*Log, error) {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg config.LogConf, out io.Writer) (*Log, error) {
	log := logrus.New()

	log.SetOutput(out)

	switch cfg.Format {
	case "json":
		log.Formatter = &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.0000",
		}
	default:
		log.Formatter = &logrus.TextFormatter{
			TimestampFormat:  "2006-01-02 15:04:05.0000",
			DisableColors:    cfg.NoColor,
			ForceColors:      !cfg.NoColor,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
		}
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logger. Error in settings (level: %s): %w", cfg.Level, err)
	}
	log.SetLevel(level)
	log.Debug("set level: ", level)

	return &Log{Entry: log.WithFields(nil)}, nil
}

// Wrap adapts an existing logrus logger, e.g. the null logger of
// logrus/hooks/test.
func Wrap(l *logrus.Logger) *Log {
	return &Log{Entry: logrus.NewEntry(l)}
}

// With will add the fields to the formatted log entry.
func (l *Log) With(fields Fields) *Log {
	return &Log{Entry: l.WithFields(logrus.Fields(fields))}
}

// Module is shorthand for With(Fields{"module": name}).
func (l *Log) Module(name string) *Log {
	return l.With(Fields{"module": name})
}

func (l *Log) GetLevel() string {
	return l.Logger.Level.String()
}

// Fields are a representation of formatted log fields.
type Fields map[string]interface{}

// Logger is the logging surface the services depend on.
type Logger interface {
	// GetLevel returns the configured level name.
	GetLevel() string
	With(fields Fields) *Log
	Module(name string) *Log
}
