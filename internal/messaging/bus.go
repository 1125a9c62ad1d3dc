// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package messaging

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
)

// TopicInteractions carries every interaction event from the API layer to
// the writer and popularity subscribers.
const TopicInteractions = "events.interactions"

// Router tuning. The bus is in-process, so retries are cheap and short.
const (
	routerCloseTimeout   = 10 * time.Second
	retryMaxRetries      = 3
	retryInitialInterval = 100 * time.Millisecond
	retryMaxInterval     = 5 * time.Second
	retryMultiplier      = 2.0
)

// Store is everything the bus needs from storage: the direct append for
// publish fallback, the batch append for the writer, and the count query
// that seeds the popularity window. *storage.DB satisfies it.
type Store interface {
	DirectStore
	BatchStore
	SeedStore
}

// BusStats aggregates runtime counters for the admin surface.
type BusStats struct {
	Writer           WriterStats `json:"writer"`
	PublishFallbacks int64       `json:"publish_fallbacks"`
	TrackedArticles  int         `json:"tracked_articles"`
}

// Bus owns the gochannel pubsub, the router and both subscribers. Events
// published before Running() closes are delivered to nobody, so callers
// must not accept traffic until then.
type Bus struct {
	pubsub    *gochannel.GoChannel
	router    *message.Router
	publisher *EventPublisher
	writer    *Writer
	tracker   *PopularityTracker
	store     Store
	log       zerolog.Logger

	closed atomic.Bool
}

// NewBus wires the pubsub, router and subscribers. popularityWindow is the
// ranking layer's popularity window so the tracker and the scorer agree on
// what "recent" means.
func NewBus(cfg config.EventsConfig, popularityWindow time.Duration, store Store) (*Bus, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}

	log := logging.WithComponent("messaging")
	wmLogger := newBusLogger(log)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(cfg.BufferSize),
	}, wmLogger)

	writer, err := NewWriter(store, cfg.BatchSize, cfg.FlushInterval)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}

	publisher, err := NewEventPublisher(pubsub, store)
	if err != nil {
		return nil, fmt.Errorf("create publisher: %w", err)
	}

	tracker := NewPopularityTracker(popularityWindow, 0)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: routerCloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      retryMaxRetries,
		InitialInterval: retryInitialInterval,
		MaxInterval:     retryMaxInterval,
		Multiplier:      retryMultiplier,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware)

	router.AddConsumerHandler("event-writer", TopicInteractions, pubsub, writer.Handle)
	router.AddConsumerHandler("popularity-tracker", TopicInteractions, pubsub, tracker.Handle)

	return &Bus{
		pubsub:    pubsub,
		router:    router,
		publisher: publisher,
		writer:    writer,
		tracker:   tracker,
		store:     store,
		log:       log,
	}, nil
}

// SeedPopularity warms the popularity window from stored events. Call once
// before Run; a failure is logged and the window starts cold.
func (b *Bus) SeedPopularity(ctx context.Context) error {
	return b.tracker.Seed(ctx, b.store)
}

// Run starts the writer's flush timer, the tracker's cleanup tick and the
// router, then blocks until the context is canceled or the bus is closed.
// Buffered events are flushed before Run returns.
func (b *Bus) Run(ctx context.Context) error {
	if err := b.writer.Start(ctx); err != nil {
		return fmt.Errorf("start writer: %w", err)
	}
	b.tracker.Start(ctx)

	b.log.Info().
		Str("topic", TopicInteractions).
		Int("batch_size", b.writer.batchSize).
		Dur("flush_interval", b.writer.flushInterval).
		Msg("Event bus starting")

	err := b.router.Run(ctx)

	if closeErr := b.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Running returns a channel that closes once both subscribers are attached
// and published events will be delivered.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close shuts the bus down: publishing degrades to direct store appends,
// handlers drain, and the writer flushes its remaining buffer. Safe to call
// more than once.
func (b *Bus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	// Flip publishing to the direct path first so no event arriving during
	// teardown is lost.
	_ = b.publisher.Close()

	var firstErr error
	if err := b.router.Close(); err != nil {
		firstErr = fmt.Errorf("close router: %w", err)
	}
	if err := b.pubsub.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close pubsub: %w", err)
	}
	if err := b.writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	b.log.Info().Msg("Event bus stopped")
	return firstErr
}

// Publisher returns the event publisher for the API layer.
func (b *Bus) Publisher() *EventPublisher {
	return b.publisher
}

// Popularity returns the tracker whose Lookup feeds the ranking engine.
func (b *Bus) Popularity() *PopularityTracker {
	return b.tracker
}

// Stats returns runtime counters for the admin surface.
func (b *Bus) Stats() BusStats {
	return BusStats{
		Writer:           b.writer.Stats(),
		PublishFallbacks: b.publisher.Fallbacks(),
		TrackedArticles:  b.tracker.TrackedArticles(),
	}
}
