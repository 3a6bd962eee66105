package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LocalSink writes events as JSON lines through a charm logger.
type LocalSink struct {
	l *log.Logger
}

// NewLocalSink constructs a LocalSink; w defaults to stdout.
func NewLocalSink(w io.Writer) *LocalSink {
	if w == nil {
		w = os.Stdout
	}
	l := log.NewWithOptions(w, log.Options{
		Formatter: log.JSONFormatter,
		Level:     log.DebugLevel,
	})
	return &LocalSink{l: l}
}

// Write emits the event immediately.
func (s *LocalSink) Write(ev Event) {
	kv := make([]any, 0, 4+2*len(ev.Context))
	kv = append(kv, "service", ev.Service, "timestamp", ev.Timestamp.Format(time.RFC3339Nano))
	for k, v := range ev.Context {
		kv = append(kv, k, v)
	}
	switch ev.Level {
	case LevelError:
		s.l.Error(ev.Message, kv...)
	case LevelWarn:
		s.l.Warn(ev.Message, kv...)
	default:
		s.l.Info(ev.Message, kv...)
	}
}

// RemoteOptions tunes the shipping queue.
type RemoteOptions struct {
	QueueSize int
	Timeout   time.Duration
	Client    *http.Client
}

// RemoteSink ships events to a collector over HTTP from a background worker. Anything it
// cannot deliver goes to the fallback sink.
type RemoteSink struct {
	url      string
	client   *http.Client
	timeout  time.Duration
	fallback Sink

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewRemoteSink starts the delivery worker.
func NewRemoteSink(url string, fallback Sink, opts RemoteOptions) *RemoteSink {
	if fallback == nil {
		fallback = NewLocalSink(nil)
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	s := &RemoteSink{
		url:      url,
		client:   client,
		timeout:  opts.Timeout,
		fallback: fallback,
		queue:    make(chan Event, opts.QueueSize),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Write enqueues the event, falling back to local output when the queue is full or the sink
// is closed.
func (s *RemoteSink) Write(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.fallback.Write(ev)
		return
	}
	select {
	case s.queue <- ev:
	default:
		s.fallback.Write(ev)
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (s *RemoteSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
	return nil
}

func (s *RemoteSink) run() {
	defer close(s.done)
	for ev := range s.queue {
		if err := s.send(ev); err != nil {
			s.fallback.Write(Event{
				Level:     LevelWarn,
				Service:   ev.Service,
				Message:   "log shipping failed",
				Context:   map[string]any{"error": err.Error(), "collector": s.url},
				Timestamp: time.Now().UTC(),
			})
			s.fallback.Write(ev)
		}
	}
}

func (s *RemoteSink) send(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector responded %d", resp.StatusCode)
	}
	return nil
}
