package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"code.cloudfoundry.org/lager/v3"
)

// timedEntry mirrors lager's wire format plus a human readable log_time.
// lager stamps entries with fractional epoch seconds, which aggregators
// sort fine but operators cannot read.
type timedEntry struct {
	lager.LogFormat
	LogTime string `json:"log_time"`
}

func newTimedEntry(log lager.LogFormat) timedEntry {
	logTime := time.Now()
	if seconds, err := strconv.ParseFloat(log.Timestamp, 64); err == nil {
		logTime = time.Unix(int64(seconds), 0)
	}
	return timedEntry{
		LogFormat: log,
		LogTime:   logTime.Format(time.RFC3339),
	}
}

func (e timedEntry) encode() []byte {
	content, err := json.Marshal(e)
	if err == nil {
		return content
	}

	// json.Marshal chokes on funcs, channels and cyclic values inside
	// Data. Keep the entry, replace the payload.
	e.Data = lager.Data{"encode_error": err.Error(), "data_dump": fmt.Sprintf("%+v", e.Data)}
	if content, err = json.Marshal(e); err == nil {
		return content
	}
	return []byte(`{}`)
}

// redactingSink is the gateway's default JSON sink. Every entry passes
// through the CredentialRedacter on its way to the writer.
type redactingSink struct {
	writer   io.Writer
	minLevel lager.LogLevel
	redacter *CredentialRedacter

	mu sync.Mutex
}

func NewRedactingSink(writer io.Writer, minLevel lager.LogLevel, keyPatterns []string, valuePatterns []string) (lager.Sink, error) {
	redacter, err := NewCredentialRedacter(keyPatterns, valuePatterns)
	if err != nil {
		return nil, err
	}
	return &redactingSink{
		writer:   writer,
		minLevel: minLevel,
		redacter: redacter,
	}, nil
}

func (sink *redactingSink) Log(log lager.LogFormat) {
	if log.LogLevel < sink.minLevel {
		return
	}
	entry := sink.redacter.Redact(newTimedEntry(log).encode())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	_, _ = sink.writer.Write(append(entry, '\n'))
}
