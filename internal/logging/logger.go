package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. The local environment gets a human readable
// console writer; everything else logs JSON to stdout.
func New(environment, level string) (zerolog.Logger, error) {
	return NewWithWriter(os.Stdout, environment, level)
}

// NewWithWriter is New with an explicit destination. Each pane additionally
// receives uncolored console lines, whatever the environment.
func NewWithWriter(out io.Writer, environment, level string, panes ...io.Writer) (zerolog.Logger, error) {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse LOG_LEVEL=%q: %w", level, err)
	}

	writer := out
	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	if len(panes) > 0 {
		writers := []io.Writer{writer}
		for _, p := range panes {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          p,
				NoColor:      true,
				TimeFormat:   time.TimeOnly,
				PartsExclude: []string{zerolog.TimestampFieldName},
			})
		}
		writer = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(writer).
		Level(parsedLevel).
		With().
		Timestamp().
		Str("service", "namematch").
		Logger()

	return logger, nil
}
