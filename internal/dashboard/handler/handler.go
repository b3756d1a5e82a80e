package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"dashboard-service/internal/dashboard/models"
	dErrors "dashboard-service/pkg/domain-errors"
	"dashboard-service/pkg/platform/httputil"
	"dashboard-service/pkg/requestcontext"
)

// Service defines the dashboard operations exposed over HTTP.
type Service interface {
	Save(ctx context.Context, req models.WriteRequest) (*models.DashboardConfig, error)
	Effective(ctx context.Context, userID, companyID string) (*models.EffectiveConfig, error)
	Get(ctx context.Context, scope, scopeKey string) (*models.DashboardConfig, error)
	ResetToDefault(ctx context.Context, userID string, expectedVersion *int, actor string) error
	ListCompanyOverrides(ctx context.Context, companyID string) ([]*models.DashboardConfig, error)
}

// Handler serves the dashboard configuration endpoints.
type Handler struct {
	logger    *slog.Logger
	dashboard Service
}

func New(dashboard Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, dashboard: dashboard}
}

// Register mounts the dashboard routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/effective", h.handleEffective)
		r.Put("/config", h.handleSave)
		r.Get("/config/{scope}/{key}", h.handleGet)
		r.Delete("/config/user/{userId}", h.handleReset)
		r.Get("/companies/{companyId}/overrides", h.handleListOverrides)
	})
}

func (h *Handler) handleEffective(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	companyID := strings.TrimSpace(r.URL.Query().Get("company_id"))

	eff, err := h.dashboard.Effective(ctx, userID, companyID)
	if err != nil {
		h.fail(ctx, w, err, "failed to resolve effective dashboard config",
			"user_id", userID, "company_id", companyID)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "effective configuration", eff)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SaveConfigRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cfg, err := h.dashboard.Save(ctx, req.ToWriteRequest(requestcontext.ActorID(ctx)))
	if err != nil {
		h.fail(ctx, w, err, "failed to save dashboard config",
			"user_id", req.UserID, "company_id", req.CompanyID)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "configuration saved", cfg)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := chi.URLParam(r, "scope")
	key := chi.URLParam(r, "key")

	cfg, err := h.dashboard.Get(ctx, scope, key)
	if err != nil {
		h.fail(ctx, w, err, "failed to load dashboard config", "scope", scope, "scope_key", key)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "configuration", cfg)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userId")

	expected, err := parseExpectedVersion(r.URL.Query().Get("expected_version"))
	if err != nil {
		h.fail(ctx, w, err, "invalid reset request", "user_id", userID)
		return
	}
	if err := h.dashboard.ResetToDefault(ctx, userID, expected, requestcontext.ActorID(ctx)); err != nil {
		h.fail(ctx, w, err, "failed to reset dashboard config", "user_id", userID)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "configuration reset to default", nil)
}

func (h *Handler) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := chi.URLParam(r, "companyId")

	rows, err := h.dashboard.ListCompanyOverrides(ctx, companyID)
	if err != nil {
		h.fail(ctx, w, err, "failed to list company overrides", "company_id", companyID)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "company overrides", OverridesResponse{
		CompanyID: companyID,
		Count:     len(rows),
		Overrides: rows,
	})
}

func parseExpectedVersion(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "expected_version must be a positive integer")
	}
	return &v, nil
}

// fail logs err at a level matching its status and writes the error envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, msg string, attrs ...any) {
	attrs = append(attrs,
		"request_id", requestcontext.RequestID(ctx),
		"code", dErrors.CodeOf(err),
		"retryable", dErrors.IsRetryable(err),
		"error", err,
	)
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
