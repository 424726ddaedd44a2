package audit

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	id "inheritx/pkg/domain"
	"inheritx/pkg/platform/circuit"
)

// Publisher captures structured audit events synchronously. It is
// append-only and uses the storage layer for persistence so tests can swap
// sinks easily.
//
// With a fallback configured, any event the primary store rejects is kept in
// the fallback, and ListByRegistry merges both by timestamp. While the breaker
// is open the primary is only retried once per retry interval; other events
// go straight to the fallback.
type Publisher struct {
	store    Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger

	retryInterval time.Duration
	now           func() time.Time
	mu            sync.Mutex
	lastRetry     time.Time
}

type PublisherOption func(*Publisher)

const defaultRetryInterval = 5 * time.Second

func WithFallback(fallback Store, breaker *circuit.Breaker) PublisherOption {
	return func(p *Publisher) {
		p.fallback = fallback
		p.breaker = breaker
	}
}

// WithRetryInterval sets how often an open breaker lets one event retry the
// primary store.
func WithRetryInterval(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		if d > 0 {
			p.retryInterval = d
		}
	}
}

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, retryInterval: defaultRetryInterval, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	event := normalize(base)
	if p.fallback == nil {
		return p.store.Append(ctx, event)
	}
	if !p.tryPrimary() {
		return p.fallback.Append(ctx, event)
	}

	err := p.store.Append(ctx, event)
	if err == nil {
		if p.breaker != nil {
			if _, change := p.breaker.RecordSuccess(); change.Closed {
				p.logger.InfoContext(ctx, "audit store recovered", "breaker", p.breaker.Name())
			}
		}
		return nil
	}

	if p.breaker != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "audit store failing, using fallback",
				"breaker", p.breaker.Name(),
				"error", err,
			)
		}
	}
	if fbErr := p.fallback.Append(ctx, event); fbErr != nil {
		return errors.Join(err, fbErr)
	}
	return nil
}

// tryPrimary reports whether this event should attempt the primary store.
func (p *Publisher) tryPrimary() bool {
	if p.breaker == nil || !p.breaker.IsOpen() {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if now.Sub(p.lastRetry) < p.retryInterval {
		return false
	}
	p.lastRetry = now
	return true
}

// Append lets a Publisher stand in as the Store behind a Worker.
func (p *Publisher) Append(ctx context.Context, event Event) error {
	return p.Emit(ctx, event)
}

// ListByRegistry merges primary and fallback events into timestamp order.
// An event present in both (a primary write that reported failure but
// landed) is listed once.
func (p *Publisher) ListByRegistry(ctx context.Context, registryID id.RegistryID) ([]Event, error) {
	events, err := p.store.ListByRegistry(ctx, registryID)
	if err != nil {
		return nil, err
	}
	if p.fallback == nil {
		return events, nil
	}
	extra, err := p.fallback.ListByRegistry(ctx, registryID)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return events, nil
	}
	seen := make(map[uuid.UUID]struct{}, len(events))
	for _, e := range events {
		seen[e.ID] = struct{}{}
	}
	for _, e := range extra {
		if _, dup := seen[e.ID]; !dup {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func normalize(e Event) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Category == "" {
		e.Category = AuditEvent(e.Action).Category()
	}
	return e
}
