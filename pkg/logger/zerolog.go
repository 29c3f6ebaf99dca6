package logger

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface. It is the
// default console backend of the CLI.
type ZerologLogger struct {
	zl     zerolog.Logger
	closer io.Closer
}

// NewZerologLogger writes human readable lines to w. When debug is false
// only warnings and errors are emitted.
func NewZerologLogger(w io.Writer, debug bool) *ZerologLogger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

// NewZerologJSONLogger writes one JSON object per line to w and closes w on
// Close when it implements io.Closer.
func NewZerologJSONLogger(w io.Writer) *ZerologLogger {
	l := &ZerologLogger{zl: zerolog.New(w).With().Timestamp().Logger()}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

func (z *ZerologLogger) Info(format string, args ...interface{}) {
	z.zl.Info().Msg(fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Warning(format string, args ...interface{}) {
	z.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Error(format string, args ...interface{}) {
	z.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// Close closes the underlying writer if the logger owns one.
func (z *ZerologLogger) Close() error {
	if z.closer == nil {
		return nil
	}
	c := z.closer
	z.closer = nil
	return c.Close()
}

var _ Logger = (*ZerologLogger)(nil)
