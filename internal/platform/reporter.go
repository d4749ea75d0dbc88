package platform

import "github.com/rs/zerolog"

// Reporter receives every failure an adapter downgrades to an empty
// result. It owns user-visible presentation and logging.
type Reporter interface {
	Report(err error, op string)
}

// LogReporter writes reported failures to a zerolog logger.
type LogReporter struct {
	log zerolog.Logger
}

// NewLogReporter returns a Reporter backed by the given logger.
func NewLogReporter(log zerolog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Report(err error, op string) {
	r.log.Warn().Err(err).Str("op", op).Msg("backend call failed")
}

// NopReporter discards reports. Useful in tests.
type NopReporter struct{}

func (NopReporter) Report(error, string) {}
