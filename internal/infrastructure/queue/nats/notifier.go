package nats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

const publishTimeout = 5 * time.Second

// Delivery outcomes reported to the observer.
const (
	OutcomePublished = "published"
	OutcomeDropped   = "dropped"
	OutcomeFailed    = "failed"
)

type publisher interface {
	PublishDisplayUpdate(ctx context.Context, event domain.DisplayUpdate) error
}

// Notifier decouples display changes from delivery: Notify only enqueues, a
// single goroutine publishes in order.
type Notifier struct {
	publisher publisher
	logger    *slog.Logger
	observe   func(outcome string)

	mu     sync.RWMutex
	closed bool
	events chan domain.DisplayUpdate
	done   chan struct{}
}

func NewNotifier(p publisher, buffer int, logger *slog.Logger, observe func(outcome string)) *Notifier {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observe == nil {
		observe = func(string) {}
	}
	n := &Notifier{
		publisher: p,
		logger:    logger,
		observe:   observe,
		events:    make(chan domain.DisplayUpdate, buffer),
		done:      make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify never blocks; when the buffer is full the event is dropped.
func (n *Notifier) Notify(event domain.DisplayUpdate) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.drop(event, "notifier closed")
		return
	}
	select {
	case n.events <- event:
	default:
		n.drop(event, "buffer full")
	}
}

// Close stops accepting events and waits for queued ones until ctx is done.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.events)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for event := range n.events {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := n.publisher.PublishDisplayUpdate(ctx, event)
		cancel()
		if err != nil {
			n.logger.Warn("display_event_failed",
				"court_id", event.CourtID,
				"update_type", event.UpdateType,
				"error", err,
			)
			n.observe(OutcomeFailed)
			continue
		}
		n.observe(OutcomePublished)
	}
}

func (n *Notifier) drop(event domain.DisplayUpdate, reason string) {
	n.logger.Warn("display_event_dropped",
		"court_id", event.CourtID,
		"update_type", event.UpdateType,
		"reason", reason,
	)
	n.observe(OutcomeDropped)
}

// NoopNotifier is wired when live updates are disabled.
type NoopNotifier struct{}

func (NoopNotifier) Notify(domain.DisplayUpdate) {}
