package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"dashboard-service/internal/dashboard/models"
	"dashboard-service/pkg/platform/sentinel"
)

// RetryingStore bounds every call with a per-attempt timeout and retries
// transient failures (sentinel.ErrUnavailable or an attempt timeout) with
// exponential backoff. Conflicts and other errors are returned immediately.
type RetryingStore struct {
	inner          Store
	maxRetries     uint64
	initialBackoff time.Duration
	callTimeout    time.Duration
	logger         *slog.Logger
	onRetry        func(op string)
}

type RetryOption func(*RetryingStore)

// WithMaxRetries sets how many retries follow the first attempt.
func WithMaxRetries(n uint64) RetryOption {
	return func(s *RetryingStore) { s.maxRetries = n }
}

func WithInitialBackoff(d time.Duration) RetryOption {
	return func(s *RetryingStore) {
		if d > 0 {
			s.initialBackoff = d
		}
	}
}

// WithCallTimeout bounds each attempt. Zero disables the bound.
func WithCallTimeout(d time.Duration) RetryOption {
	return func(s *RetryingStore) { s.callTimeout = d }
}

func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(s *RetryingStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetryObserver registers a callback invoked before each retry.
func WithRetryObserver(fn func(op string)) RetryOption {
	return func(s *RetryingStore) { s.onRetry = fn }
}

func NewRetrying(inner Store, opts ...RetryOption) *RetryingStore {
	s := &RetryingStore{
		inner:          inner,
		maxRetries:     3,
		initialBackoff: 50 * time.Millisecond,
		callTimeout:    2 * time.Second,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RetryingStore) Load(ctx context.Context, key models.Key) (*models.DashboardConfig, error) {
	return retry(ctx, s, "load", func(ctx context.Context) (*models.DashboardConfig, error) {
		return s.inner.Load(ctx, key)
	})
}

// Save retries like every other call. An attempt that fails transiently may
// still have committed, so when a later attempt conflicts the stored row is
// compared with cfg and an exact match counts as success rather than as a
// conflict that would make the caller restamp and bump the version again.
func (s *RetryingStore) Save(ctx context.Context, cfg *models.DashboardConfig, expectedVersion *int) error {
	uncertain := false
	_, err := retry(ctx, s, "save", func(ctx context.Context) (struct{}, error) {
		err := s.inner.Save(ctx, cfg, expectedVersion)
		switch {
		case err == nil:
		case errors.Is(err, sentinel.ErrConflict):
			if uncertain && s.committed(ctx, cfg) {
				s.logger.InfoContext(ctx, "earlier save attempt had committed",
					"scope", cfg.Scope,
					"scope_key", cfg.ScopeKey,
					"version", cfg.Version,
				)
				return struct{}{}, nil
			}
		default:
			uncertain = true
		}
		return struct{}{}, err
	})
	return err
}

// committed reports whether the stored row is exactly cfg. Two writers that
// stamped from the same snapshot share id and version, so data is compared too.
func (s *RetryingStore) committed(ctx context.Context, cfg *models.DashboardConfig) bool {
	stored, err := s.inner.Load(ctx, cfg.Key())
	if err != nil || stored == nil {
		return false
	}
	if stored.ID != cfg.ID || stored.Version != cfg.Version {
		return false
	}
	a, errA := json.Marshal(stored.Data)
	b, errB := json.Marshal(cfg.Data)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func (s *RetryingStore) Delete(ctx context.Context, key models.Key, expectedVersion *int) error {
	_, err := retry(ctx, s, "delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.Delete(ctx, key, expectedVersion)
	})
	return err
}

// ListCompanyUserOverrides is passed through: a walk spans many pages and is
// restartable by the caller, so it is not retried as a unit.
func (s *RetryingStore) ListCompanyUserOverrides(ctx context.Context, companyID string) iter.Seq2[*models.DashboardConfig, error] {
	return s.inner.ListCompanyUserOverrides(ctx, companyID)
}

func (s *RetryingStore) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.initialBackoff
	exp.MaxInterval = 20 * s.initialBackoff
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, s.maxRetries), ctx)
}

func retry[T any](ctx context.Context, s *RetryingStore, op string, call func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if s.callTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		}
		defer cancel()

		v, err := call(attemptCtx)
		if err == nil || isRetryable(ctx, err) {
			return v, err
		}
		return v, backoff.Permanent(err)
	}, s.policy(ctx), func(err error, wait time.Duration) {
		s.logger.WarnContext(ctx, "retrying dashboard store call",
			"op", op,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
		if s.onRetry != nil {
			s.onRetry(op)
		}
	})
}

// isRetryable treats an attempt deadline as transient only while the
// caller's own context is still live.
func isRetryable(parent context.Context, err error) bool {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil
}
