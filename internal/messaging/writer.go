// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package messaging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/metrics"
	"github.com/intellweave/intellweave/internal/models"
)

// writerFlushTimeout bounds a single storage write. Flushes run on detached
// contexts because the triggering message context ends when its handler
// returns.
const writerFlushTimeout = 10 * time.Second

// BatchStore persists event batches. Implemented by storage.DB, whose insert
// is idempotent on event id so retried batches never double-count.
type BatchStore interface {
	AppendEvents(ctx context.Context, events []models.InteractionEvent) (int, error)
}

// WriterStats holds runtime counters for monitoring. The struct is exposed
// through the admin stats endpoint, hence the JSON tags.
type WriterStats struct {
	EventsReceived int64     `json:"events_received"` // Events buffered via Handle
	EventsWritten  int64     `json:"events_written"`  // Events delivered to the store
	FlushCount     int64     `json:"flush_count"`     // Completed flush operations
	ErrorCount     int64     `json:"error_count"`     // Failed flushes
	ParseErrors    int64     `json:"parse_errors"`    // Malformed payloads dropped
	LastFlushTime  time.Time `json:"last_flush_time"` // Time of last successful flush
	LastError      string    `json:"last_error,omitempty"`
	BufferSize     int       `json:"buffer_size"` // Events currently buffered
}

// Writer is the bus subscriber that persists interaction events. It buffers
// decoded events and writes them in batches, either when the batch size is
// reached or when the flush interval elapses, whichever comes first.
//
// A failed batch stays in the buffer and is retried on the next flush, so a
// store outage delays events instead of losing them.
type Writer struct {
	store         BatchStore
	batchSize     int
	flushInterval time.Duration
	log           zerolog.Logger

	mu     sync.Mutex
	buffer []models.InteractionEvent

	// flushMu serializes flushes so a timer tick and a full-buffer trigger
	// cannot interleave their writes.
	flushMu sync.Mutex

	closed  atomic.Bool
	started atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	flushWg sync.WaitGroup

	eventsReceived atomic.Int64
	eventsWritten  atomic.Int64
	flushCount     atomic.Int64
	errorCount     atomic.Int64
	parseErrors    atomic.Int64
	lastFlushTime  atomic.Value // stores time.Time
	lastError      atomic.Value // stores string
}

// NewWriter creates a writer that batches into the given store.
func NewWriter(store BatchStore, batchSize int, flushInterval time.Duration) (*Writer, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if flushInterval <= 0 {
		return nil, fmt.Errorf("flush interval must be positive")
	}

	w := &Writer{
		store:         store,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		log:           logging.WithComponent("messaging"),
		buffer:        make([]models.InteractionEvent, 0, batchSize),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	w.lastFlushTime.Store(time.Time{})
	w.lastError.Store("")
	return w, nil
}

// Start begins the periodic flush timer. Without it only full batches are
// written. Safe to call more than once.
func (w *Writer) Start(ctx context.Context) error {
	if w.closed.Load() {
		return fmt.Errorf("writer is closed")
	}
	if w.started.Swap(true) {
		return nil
	}
	go w.flushLoop(ctx)
	return nil
}

// Handle buffers one bus message. It is the consumer function registered on
// the interactions topic. Malformed payloads are counted, logged and
// acknowledged; retrying them cannot help.
func (w *Writer) Handle(msg *message.Message) error {
	if w.closed.Load() {
		return fmt.Errorf("writer is closed")
	}

	event, err := decodeEvent(msg)
	if err != nil {
		w.parseErrors.Add(1)
		w.log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed event payload")
		return nil
	}

	w.mu.Lock()
	w.buffer = append(w.buffer, *event)
	needsFlush := len(w.buffer) >= w.batchSize
	w.mu.Unlock()

	w.eventsReceived.Add(1)
	metrics.RecordEventConsumed("writer")

	if needsFlush {
		w.flushWg.Add(1)
		go func() {
			defer w.flushWg.Done()
			flushCtx, cancel := context.WithTimeout(context.Background(), writerFlushTimeout)
			defer cancel()
			if err := w.doFlushSync(flushCtx); err != nil {
				w.log.Warn().Err(err).Msg("Async event flush failed, batch retained for retry")
			}
		}()
	}
	return nil
}

// Flush writes all buffered events, waiting first for any in-flight async
// flush to finish.
func (w *Writer) Flush(ctx context.Context) error {
	w.flushWg.Wait()
	return w.doFlushSync(ctx)
}

// Close stops the flush timer and writes whatever is still buffered. Safe to
// call more than once.
func (w *Writer) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	if w.started.Load() {
		close(w.stopCh)
		<-w.doneCh
	}
	w.flushWg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), writerFlushTimeout)
	defer cancel()
	return w.doFlushSync(ctx)
}

// Stats returns current runtime counters.
func (w *Writer) Stats() WriterStats {
	w.mu.Lock()
	bufferSize := len(w.buffer)
	w.mu.Unlock()

	var lastFlush time.Time
	if t, ok := w.lastFlushTime.Load().(time.Time); ok {
		lastFlush = t
	}
	var lastError string
	if e, ok := w.lastError.Load().(string); ok {
		lastError = e
	}

	return WriterStats{
		EventsReceived: w.eventsReceived.Load(),
		EventsWritten:  w.eventsWritten.Load(),
		FlushCount:     w.flushCount.Load(),
		ErrorCount:     w.errorCount.Load(),
		ParseErrors:    w.parseErrors.Load(),
		LastFlushTime:  lastFlush,
		LastError:      lastError,
		BufferSize:     bufferSize,
	}
}

// flushLoop writes partial batches on a timer. Each tick flushes on a fresh
// detached context; the loop context only controls shutdown.
func (w *Writer) flushLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(context.Background(), writerFlushTimeout)
			if err := w.doFlushSync(flushCtx); err != nil {
				w.log.Warn().Err(err).Msg("Timed event flush failed, batch retained for retry")
			}
			cancel()
		}
	}
}

// doFlushSync takes ownership of the buffer and writes it in chunks of at
// most batchSize, keeping each transaction bounded even when retries have
// let the buffer grow past one batch. On a failed chunk the unwritten
// remainder is prepended back onto the buffer.
func (w *Writer) doFlushSync(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}
	events := w.buffer
	w.buffer = make([]models.InteractionEvent, 0, w.batchSize)
	w.mu.Unlock()

	for start := 0; start < len(events); start += w.batchSize {
		end := start + w.batchSize
		if end > len(events) {
			end = len(events)
		}
		chunk := events[start:end]

		inserted, err := w.store.AppendEvents(ctx, chunk)
		metrics.RecordEventBatchFlush(len(chunk), err)
		if err != nil {
			unflushed := events[start:]
			w.mu.Lock()
			w.buffer = append(unflushed, w.buffer...)
			w.mu.Unlock()

			w.errorCount.Add(1)
			w.lastError.Store(err.Error())
			return fmt.Errorf("flush events %d-%d of %d: %w", start, end, len(events), err)
		}

		w.eventsWritten.Add(int64(len(chunk)))
		w.log.Debug().
			Int("batch", len(chunk)).
			Int("inserted", inserted).
			Msg("Event batch written")
	}

	w.flushCount.Add(1)
	w.lastFlushTime.Store(time.Now())
	w.lastError.Store("")
	return nil
}
