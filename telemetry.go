package anthropic

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// TelemetryHooks expose observability callbacks without forcing dependencies on the caller.
type TelemetryHooks struct {
	// OnHTTPRequest fires before each HTTP attempt is sent.
	OnHTTPRequest func(ctx context.Context, req *http.Request)
	// OnHTTPResponse fires after each attempt completes (even when err != nil).
	OnHTTPResponse func(ctx context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration)
	// OnStreamEvent fires for every server-sent event consumed from a stream.
	OnStreamEvent func(ctx context.Context, event SSEEvent)
	// OnLogEntry allows callers to capture SDK log events (info/errors).
	OnLogEntry func(ctx context.Context, entry LogEntry)
	// OnMetric records lightweight counters/gauges for observability dashboards.
	OnMetric func(ctx context.Context, metric Metric)
}

// LogLevel encodes the severity for log hooks.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelError LogLevel = "error"
)

// LogEntry captures structured log details for SDK consumers.
type LogEntry struct {
	Level   LogLevel
	Message string
	Fields  map[string]any
}

// Metric represents a single observability datapoint.
type Metric struct {
	Name   string
	Value  float64
	Labels map[string]string
}

func (t TelemetryHooks) log(ctx context.Context, level LogLevel, msg string, fields map[string]any) {
	if t.OnLogEntry == nil {
		return
	}
	entry := LogEntry{Level: level, Message: msg, Fields: fields}
	t.OnLogEntry(ctx, entry)
}

func (t TelemetryHooks) metric(ctx context.Context, name string, value float64, labels map[string]string) {
	if t.OnMetric == nil {
		return
	}
	t.OnMetric(ctx, Metric{Name: name, Value: value, Labels: labels})
}

// ZerologHooks routes SDK log entries and metrics to a zerolog logger. HTTP
// and stream hooks stay unset so callers can layer their own.
func ZerologHooks(logger zerolog.Logger) TelemetryHooks {
	return TelemetryHooks{
		OnLogEntry: func(ctx context.Context, entry LogEntry) {
			ev := logger.Info()
			if entry.Level == LogLevelError {
				ev = logger.Error()
			}
			ev.Fields(entry.Fields).Msg(entry.Message)
		},
		OnMetric: func(ctx context.Context, metric Metric) {
			ev := logger.Debug().Float64("value", metric.Value)
			for k, v := range metric.Labels {
				ev = ev.Str(k, v)
			}
			ev.Msg(metric.Name)
		},
	}
}
