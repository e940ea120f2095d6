package helpers

import (
	"fmt"
	"os"

	"code.cloudfoundry.org/lager/v3"
)

type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	PlainTextSink bool   `yaml:"plaintext_sink" json:"plaintext_sink"`
}

var logLevels = map[string]lager.LogLevel{
	"debug": lager.DEBUG,
	"info":  lager.INFO,
	"error": lager.ERROR,
	"fatal": lager.FATAL,
}

// Cookies and Authorization headers carry session material and must never
// reach the logs.
var redactedKeyPatterns = []string{"[Pp]wd", "[Pp]ass", "[Ss]ecret", "[Tt]oken", "[Cc]ookie", "[Aa]uthorization"}

// InitLoggerFromConfig builds the process logger. JSON entries go through
// the credential redacter; the plaintext sink skips redaction and is meant
// for a terminal, so it stays opt-in.
func InitLoggerFromConfig(conf *LoggingConfig, name string) lager.Logger {
	level, ok := logLevels[conf.Level]
	if !ok {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: unsupported log level %q\n", conf.Level)
		os.Exit(1)
	}

	logger := lager.NewLogger(name)
	if conf.PlainTextSink {
		logger.RegisterSink(NewTextWriterSink(os.Stdout, level))
		return logger
	}

	sink, err := NewRedactingSink(os.Stdout, level, redactedKeyPatterns, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create redacting sink: %s\n", err)
		os.Exit(1)
	}
	logger.RegisterSink(sink)
	return logger
}
