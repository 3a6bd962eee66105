package telemetry

import (
	"io"
	"os"
	"sync/atomic"
	"time"
)

// Level is the severity of an Event.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is the structured payload produced for every log call.
type Event struct {
	Level     Level          `json:"level"`
	Service   string         `json:"service"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink receives events. Implementations must not block callers for long and must never fail
// the caller.
type Sink interface {
	Write(ev Event)
}

// Logger stamps events with the service name and time and hands them to a sink.
type Logger struct {
	service string
	sink    Sink
	now     func() time.Time
}

// New constructs a Logger writing to sink.
func New(service string, sink Sink) *Logger {
	if sink == nil {
		sink = NewLocalSink(os.Stdout)
	}
	return &Logger{service: service, sink: sink, now: time.Now}
}

// Settings selects and configures the sink built by NewFromSettings.
type Settings struct {
	Service      string
	CollectorURL string
	Shipping     bool
	Remote       RemoteOptions
	Local        io.Writer
}

// NewFromSettings builds a remote-shipping logger when shipping is enabled and a collector is
// configured, and a local-only logger otherwise.
func NewFromSettings(s Settings) *Logger {
	local := NewLocalSink(s.Local)
	if !s.Shipping || s.CollectorURL == "" {
		return New(s.Service, local)
	}
	return New(s.Service, NewRemoteSink(s.CollectorURL, local, s.Remote))
}

// Info writes an info-level event.
func (l *Logger) Info(msg string, fields map[string]any) { l.write(LevelInfo, msg, fields) }

// Warn writes a warn-level event.
func (l *Logger) Warn(msg string, fields map[string]any) { l.write(LevelWarn, msg, fields) }

// Error writes an error-level event.
func (l *Logger) Error(msg string, fields map[string]any) { l.write(LevelError, msg, fields) }

// Close flushes and releases the sink if it holds resources.
func (l *Logger) Close() error {
	if c, ok := l.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *Logger) write(level Level, msg string, fields map[string]any) {
	if l == nil {
		return
	}
	var ctx map[string]any
	if len(fields) > 0 {
		ctx = make(map[string]any, len(fields))
		for k, v := range fields {
			ctx[k] = v
		}
	}
	l.sink.Write(Event{
		Level:     level,
		Service:   l.service,
		Message:   msg,
		Context:   ctx,
		Timestamp: l.now().UTC(),
	})
}

var std atomic.Pointer[Logger]

func init() {
	std.Store(New("job-tracker-api", NewLocalSink(os.Stdout)))
}

// SetDefault installs the logger behind the package-level helpers.
func SetDefault(l *Logger) {
	if l != nil {
		std.Store(l)
	}
}

// Default returns the logger behind the package-level helpers.
func Default() *Logger { return std.Load() }

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	std.Load().Info(msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	std.Load().Warn(msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	std.Load().Error(msg, fields)
}
