package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/objmap/mapcore/internal/dispatcher"

// loopMetrics counts client commands per session loop. The global meter is
// a no-op until a provider is installed.
type loopMetrics struct {
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	reg       metric.Registration
}

func newLoopMetrics(queueLen func() int) (*loopMetrics, error) {
	m := otel.Meter(instrumentationName)
	lm := &loopMetrics{}

	queueSize, err := m.Int64ObservableGauge(
		"session.queue.size",
		metric.WithDescription("Client commands and continuations waiting for the session loop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	lm.reg, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(queueSize, int64(queueLen()))
		return nil
	}, queueSize)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	if lm.processed, err = m.Int64Counter(
		"session.commands.processed",
		metric.WithDescription("Client commands handled by the session loop"),
	); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if lm.dropped, err = m.Int64Counter(
		"session.commands.dropped",
		metric.WithDescription("Client commands dropped because the session queue was full"),
	); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return lm, nil
}

func (lm *loopMetrics) commandProcessed(command string, failed bool) {
	lm.processed.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.Bool("failed", failed),
	))
}

func (lm *loopMetrics) commandDropped(command string) {
	lm.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}

// unregister stops observing the queue of a closed loop.
func (lm *loopMetrics) unregister() {
	if lm.reg != nil {
		_ = lm.reg.Unregister()
	}
}
