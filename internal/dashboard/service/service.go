package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dashboard-service/internal/dashboard/merge"
	"dashboard-service/internal/dashboard/metrics"
	"dashboard-service/internal/dashboard/models"
	"dashboard-service/internal/dashboard/notify"
	dErrors "dashboard-service/pkg/domain-errors"
	"dashboard-service/pkg/platform/sentinel"
)

// ConfigStore persists configuration rows. See store.Store for the
// precondition contract of Save and Delete.
type ConfigStore interface {
	Load(ctx context.Context, key models.Key) (*models.DashboardConfig, error)
	Save(ctx context.Context, cfg *models.DashboardConfig, expectedVersion *int) error
	Delete(ctx context.Context, key models.Key, expectedVersion *int) error
	ListCompanyUserOverrides(ctx context.Context, companyID string) iter.Seq2[*models.DashboardConfig, error]
}

// uncachedLoader is implemented by stores that front a cache. Writes read
// through it so they stamp against the committed row.
type uncachedLoader interface {
	LoadUncached(ctx context.Context, key models.Key) (*models.DashboardConfig, error)
}

// Notifier schedules the company-wide fan-out after a baseline change.
type Notifier interface {
	Enqueue(ctx context.Context, change notify.CompanyChange) bool
}

// Service orchestrates dashboard configuration reads and writes.
type Service struct {
	store        ConfigStore
	merger       *merge.Merger
	widgetTypes  models.WidgetTypeChecker
	notifier     Notifier
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	saveAttempts int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithWidgetTypes enables widget type checks during validation.
func WithWidgetTypes(types models.WidgetTypeChecker) Option {
	return func(s *Service) {
		s.widgetTypes = types
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithSaveAttempts bounds the reload-and-restamp loop used for writes that
// carry no expected version.
func WithSaveAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.saveAttempts = n
		}
	}
}

// New constructs a Service.
func New(store ConfigStore, merger *merge.Merger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		merger:       merger,
		logger:       slog.New(slog.DiscardHandler),
		tracer:       otel.Tracer("dashboard-service/internal/dashboard/service"),
		saveAttempts: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

// translateStoreError maps store sentinels onto domain codes. A caller that
// gave up (cancelled or timed out) gets CodeTimeout; anything else that is
// not a precondition failure is a storage error.
func translateStoreError(ctx context.Context, err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeVersionConflict, msg+": version conflict")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg+": not found")
	case ctx.Err() != nil:
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg+": request cancelled")
	default:
		return dErrors.Wrap(err, dErrors.CodeStorage, msg)
	}
}

func (s *Service) observeSave(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSave(start)
	}
}

func (s *Service) incrementWrite(scope models.Scope, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementWrite(string(scope), outcome)
	}
}

func (s *Service) incrementConflict(scope models.Scope) {
	if s.metrics != nil {
		s.metrics.IncrementVersionConflict(string(scope))
	}
}
