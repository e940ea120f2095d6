package helpers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"code.cloudfoundry.org/lager/v3"
)

// textWriterSink renders lager entries through a slog text handler, for
// running the gateway on a terminal where the JSON sink is hard to read.
type textWriterSink struct {
	slogger  *slog.Logger
	minLevel lager.LogLevel
}

var _ lager.Sink = &textWriterSink{}

func NewTextWriterSink(writer io.Writer, minLevel lager.LogLevel) lager.Sink {
	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: slogLevel(minLevel),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			// second precision, same as the JSON sink's log_time
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	})

	return &textWriterSink{
		slogger:  slog.New(handler),
		minLevel: minLevel,
	}
}

func (sink *textWriterSink) Log(log lager.LogFormat) {
	// lager's own timestamp is a stringified float that slog cannot carry as
	// its time attribute, so the handler stamps the entry itself. The drift
	// between the two clocks is well below the second we render anyway.
	sink.slogger.LogAttrs(context.Background(), slogLevel(log.LogLevel), log.Message, sink.attrs(log)...)
}

func (sink *textWriterSink) attrs(log lager.LogFormat) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(log.Data)+1)
	if log.Source != "" {
		attrs = append(attrs, slog.String("source", log.Source))
	}
	for key, value := range log.Data {
		attrs = append(attrs, slog.Any(key, value))
	}
	return attrs
}

func slogLevel(l lager.LogLevel) slog.Level {
	switch l {
	case lager.DEBUG:
		return slog.LevelDebug
	case lager.ERROR, lager.FATAL:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
