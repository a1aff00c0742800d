// Package dispatcher runs a session's event loop. Client events and the
// continuations of background work are executed one at a time on a single
// goroutine, so the state they touch needs no locking.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrClosed is returned when work is submitted to a stopped loop.
var ErrClosed = errors.New("dispatcher closed")

// Event is a command received from the client.
type Event struct {
	Command   string
	Payload   json.RawMessage
	Timestamp time.Time
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.Command)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s: decoding payload: %w", e.Command, err)
	}
	return nil
}

// HandlerFunc processes an event on the loop.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Scheduler is what components use to leave and re-enter the loop.
type Scheduler interface {
	// Post queues fn to run on the loop.
	Post(fn func())
	// Go runs blocking work off the loop. Results must be re-posted.
	Go(fn func())
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers on a single goroutine.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger
	queue    chan func()

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	workers sync.WaitGroup

	metrics *loopMetrics
}

// New creates a Dispatcher whose queue holds size pending items.
func New(logger Logger, size int) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
		queue:    make(chan func(), size),
		done:     make(chan struct{}),
	}

	metrics, err := newLoopMetrics(func() int { return len(d.queue) })
	if err != nil {
		return nil, err
	}
	d.metrics = metrics
	return d, nil
}

// Register adds a handler for the given command with optional configuration.
// Handlers must be registered before Run.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = d.withLogging(command, handler)
	}

	d.handlers[command] = handler
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

// Dispatch queues an event for its handler. It never blocks: when the queue
// is full the event is dropped and an error returned.
func (d *Dispatcher) Dispatch(e Event) error {
	h, ok := d.handlers[e.Command]
	if !ok {
		return fmt.Errorf("unknown command: %s", e.Command)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- func() {
		err := h(e)
		if err != nil {
			d.logger.Error("event failed", "command", e.Command, "error", err)
		}
		d.metrics.commandProcessed(e.Command, err != nil)
	}:
		return nil
	default:
		d.metrics.commandDropped(e.Command)
		return fmt.Errorf("queue full: %s", e.Command)
	}
}

// Post queues fn to run on the loop. Unlike Dispatch it waits for room, since
// continuations of background work must not be lost. Posting to a stopped
// loop is a no-op.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}
	select {
	case d.queue <- fn:
	case <-d.done:
	}
}

// Go runs fn on its own goroutine. Close waits for every fn to return.
func (d *Dispatcher) Go(fn func()) {
	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		fn()
	}()
}

// Do runs fn on the loop and waits for it to finish.
func (d *Dispatcher) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	d.Post(func() {
		fn()
		close(finished)
	})
	select {
	case <-finished:
		return nil
	case <-d.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued work until ctx is cancelled or Close is called.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.Close()
			return ctx.Err()
		case <-d.done:
			return nil
		case fn := <-d.queue:
			fn()
		}
	}
}

// Close stops the loop. Pending work is discarded.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.done)
	d.mu.Unlock()
	d.metrics.unregister()
	d.workers.Wait()
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "bytes", len(e.Payload))

		err := h(e)

		d.logger.Debug("event complete", "command", command, "duration", time.Since(start), "failed", err != nil)

		return err
	}
}
