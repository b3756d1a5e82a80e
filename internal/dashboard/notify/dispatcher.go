package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"dashboard-service/internal/dashboard/metrics"
)

// ErrStopped is returned by Shutdown when called twice.
var ErrStopped = errors.New("dispatcher stopped")

// Dispatcher fans company changes out to the users who hold overrides.
//
// Jobs sit in a bounded queue served by a fixed worker pool. Enqueue never
// blocks the write path: a full queue drops the job with a warning. Each job
// walks the company's user overrides and publishes notifications in
// batches. A failed walk restarts the job from the beginning (users already
// notified in this job are skipped); a failed publish is retried with
// backoff and then given up on.
type Dispatcher struct {
	lister    OverrideLister
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics

	workers        int
	batchSize      int
	publishRetries uint64
	jobRetries     uint64
	initialBackoff time.Duration

	mu      sync.RWMutex
	queue   chan CompanyChange
	closed  bool
	started bool
	wg      sync.WaitGroup
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan CompanyChange, n)
		}
	}
}

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithRetries sets how often a publish and a whole job are retried.
func WithRetries(publish, job uint64) Option {
	return func(d *Dispatcher) {
		d.publishRetries = publish
		d.jobRetries = job
	}
}

func WithInitialBackoff(b time.Duration) Option {
	return func(d *Dispatcher) {
		if b > 0 {
			d.initialBackoff = b
		}
	}
}

func NewDispatcher(lister OverrideLister, publisher Publisher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		lister:         lister,
		publisher:      publisher,
		logger:         slog.New(slog.DiscardHandler),
		workers:        2,
		batchSize:      100,
		publishRetries: 5,
		jobRetries:     2,
		initialBackoff: 100 * time.Millisecond,
		queue:          make(chan CompanyChange, 256),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the worker pool. Workers stop when ctx is cancelled or
// after Shutdown has drained the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx, i)
	}
	d.logger.InfoContext(ctx, "dashboard fan-out dispatcher started",
		"workers", d.workers,
		"queue_size", cap(d.queue),
	)
}

// Enqueue schedules a change without blocking. It reports whether the job
// was accepted.
func (d *Dispatcher) Enqueue(ctx context.Context, change CompanyChange) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.WarnContext(ctx, "dispatcher stopped, dropping company change",
			"company_id", change.CompanyID,
			"company_version", change.CompanyVersion,
		)
		return false
	}
	select {
	case d.queue <- change:
		d.setDepth()
		return true
	default:
		d.logger.WarnContext(ctx, "fan-out queue full, dropping company change",
			"company_id", change.CompanyID,
			"company_version", change.CompanyVersion,
		)
		if d.metrics != nil {
			d.metrics.IncrementFanoutDropped()
		}
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or for
// ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrStopped
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) run(ctx context.Context, worker int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-d.queue:
			if !ok {
				return
			}
			d.setDepth()
			d.process(ctx, worker, change)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, worker int, change CompanyChange) {
	start := time.Now()
	seen := make(map[string]bool)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		return d.walk(ctx, change, seen)
	}, backoff.WithContext(backoff.WithMaxRetries(d.policy(), d.jobRetries), ctx))

	if d.metrics != nil {
		d.metrics.ObserveFanoutJob(start)
	}
	if err != nil {
		d.logger.ErrorContext(ctx, "company change fan-out abandoned",
			"company_id", change.CompanyID,
			"company_version", change.CompanyVersion,
			"attempts", attempt,
			"processed", len(seen),
			"error", err,
		)
		return
	}
	d.logger.InfoContext(ctx, "company change fan-out complete",
		"worker", worker,
		"company_id", change.CompanyID,
		"company_version", change.CompanyVersion,
		"processed", len(seen),
		"duration", time.Since(start),
	)
}

// walk publishes notifications for every override not yet in seen.
// Only listing errors are returned; publish failures are handled per batch.
func (d *Dispatcher) walk(ctx context.Context, change CompanyChange, seen map[string]bool) error {
	batch := make([]Notification, 0, d.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		d.publish(ctx, change, batch)
		for _, n := range batch {
			seen[n.UserID] = true
		}
		batch = batch[:0]
	}

	for row, err := range d.lister.ListCompanyUserOverrides(ctx, change.CompanyID) {
		if err != nil {
			flush()
			return fmt.Errorf("list overrides for company %s: %w", change.CompanyID, err)
		}
		if seen[row.ScopeKey] {
			continue
		}
		batch = append(batch, Notification{
			ID:             uuid.New(),
			CompanyID:      change.CompanyID,
			UserID:         row.ScopeKey,
			UserVersion:    row.Version,
			CompanyVersion: change.CompanyVersion,
			Actor:          change.Actor,
			OccurredAt:     change.OccurredAt,
		})
		if len(batch) == d.batchSize {
			flush()
		}
	}
	flush()
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, change CompanyChange, batch []Notification) {
	err := backoff.RetryNotify(func() error {
		return d.publisher.Publish(ctx, batch)
	}, backoff.WithContext(backoff.WithMaxRetries(d.policy(), d.publishRetries), ctx),
		func(err error, wait time.Duration) {
			d.logger.WarnContext(ctx, "retrying notification publish",
				"company_id", change.CompanyID,
				"batch_size", len(batch),
				"wait", wait,
				"error", err,
			)
		})
	if err != nil {
		d.logger.ErrorContext(ctx, "notification publish failed",
			"company_id", change.CompanyID,
			"company_version", change.CompanyVersion,
			"batch_size", len(batch),
			"error", err,
		)
		if d.metrics != nil {
			d.metrics.AddNotifications("failed", len(batch))
		}
		return
	}
	if d.metrics != nil {
		d.metrics.AddNotifications("published", len(batch))
	}
}

func (d *Dispatcher) policy() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.initialBackoff
	exp.MaxInterval = 30 * d.initialBackoff
	exp.MaxElapsedTime = 0
	return exp
}

func (d *Dispatcher) setDepth() {
	if d.metrics != nil {
		d.metrics.SetFanoutQueueDepth(len(d.queue))
	}
}
