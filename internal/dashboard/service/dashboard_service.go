package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"dashboard-service/internal/dashboard/models"
	"dashboard-service/internal/dashboard/notify"
	"dashboard-service/internal/dashboard/scope"
	"dashboard-service/internal/dashboard/version"
	dErrors "dashboard-service/pkg/domain-errors"
	"dashboard-service/pkg/platform/sentinel"
	"dashboard-service/pkg/requestcontext"
)

// Save applies a write request to exactly one row.
//
// The request is resolved to a scope target and validated before any I/O.
// The store write always carries the loaded version as its precondition, so
// a concurrent writer is never silently overwritten:
//
//   - with ExpectedVersion set, a mismatch (at stamp time or in the store)
//     fails with CodeVersionConflict
//   - without it, the write reloads and restamps up to saveAttempts times,
//     giving last-writer-wins from the caller's point of view
//
// A committed company-scope write schedules a fan-out notification to the
// users holding overrides. User rows themselves are never touched by a
// company write.
func (s *Service) Save(ctx context.Context, req models.WriteRequest) (cfg *models.DashboardConfig, err error) {
	start := time.Now()
	defer s.observeSave(start)

	target, err := scope.Resolve(req)
	if err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "dashboard.Save",
		attribute.String("dashboard.scope", string(target.Key.Scope)),
		attribute.String("dashboard.scope_key", target.Key.ScopeKey),
	)
	defer func() { endSpan(span, err) }()

	if err := req.ConfigData.Validate(s.widgetTypes); err != nil {
		s.incrementWrite(target.Key.Scope, "invalid")
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		cfg, err = s.saveOnce(ctx, target, req)
		if err == nil {
			break
		}
		retry := req.ExpectedVersion == nil &&
			errors.Is(err, sentinel.ErrConflict) &&
			attempt < s.saveAttempts
		if dErrors.HasCode(err, dErrors.CodeVersionConflict) {
			s.incrementConflict(target.Key.Scope)
		}
		if !retry {
			s.incrementWrite(target.Key.Scope, string(dErrors.CodeOf(err)))
			s.logger.WarnContext(ctx, "dashboard config write rejected",
				"scope", target.Key.Scope,
				"scope_key", target.Key.ScopeKey,
				"attempt", attempt,
				"error", err,
			)
			return nil, err
		}
		s.logger.InfoContext(ctx, "dashboard config changed concurrently, retrying write",
			"scope", target.Key.Scope,
			"scope_key", target.Key.ScopeKey,
			"attempt", attempt,
		)
	}

	s.incrementWrite(target.Key.Scope, "ok")
	s.logger.InfoContext(ctx, "dashboard config saved",
		"scope", cfg.Scope,
		"scope_key", cfg.ScopeKey,
		"company_id", cfg.CompanyID,
		"version", cfg.Version,
		"actor", target.Actor,
		"request_id", requestcontext.RequestID(ctx),
	)

	if cfg.Scope == models.ScopeCompany && s.notifier != nil {
		s.notifier.Enqueue(ctx, notify.CompanyChange{
			CompanyID:      cfg.ScopeKey,
			CompanyVersion: cfg.Version,
			Actor:          target.Actor,
			OccurredAt:     cfg.UpdatedAt,
		})
	}
	return cfg, nil
}

func (s *Service) saveOnce(ctx context.Context, target models.Target, req models.WriteRequest) (*models.DashboardConfig, error) {
	existing, err := s.loadForWrite(ctx, target.Key)
	if err != nil {
		return nil, translateStoreError(ctx, err, "failed to load dashboard config")
	}

	next, err := version.Stamp(existing, target, req.ConfigData, req.ExpectedVersion, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	var precondition *int
	if existing != nil {
		precondition = &existing.Version
	}
	if err := s.store.Save(ctx, next, precondition); err != nil {
		return nil, translateStoreError(ctx, err, "failed to save dashboard config")
	}
	return next, nil
}

func (s *Service) loadForWrite(ctx context.Context, key models.Key) (*models.DashboardConfig, error) {
	if l, ok := s.store.(uncachedLoader); ok {
		return l.LoadUncached(ctx, key)
	}
	return s.store.Load(ctx, key)
}

// Effective returns the configuration userID sees within companyID: the
// user's override layered over the company baseline, or the system default
// when neither exists. Both rows load concurrently.
func (s *Service) Effective(ctx context.Context, userID, companyID string) (eff *models.EffectiveConfig, err error) {
	userID = strings.TrimSpace(userID)
	companyID = strings.TrimSpace(companyID)
	if userID == "" || companyID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "userId and companyId are required")
	}

	start := time.Now()
	ctx, span := s.startSpan(ctx, "dashboard.Effective",
		attribute.String("dashboard.user_id", userID),
		attribute.String("dashboard.company_id", companyID),
	)
	defer func() { endSpan(span, err) }()

	var userRow, companyRow *models.DashboardConfig
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		row, err := s.store.Load(gctx, models.UserKey(userID))
		userRow = row
		return err
	})
	g.Go(func() error {
		row, err := s.store.Load(gctx, models.CompanyKey(companyID))
		companyRow = row
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateStoreError(ctx, err, "failed to load dashboard layers")
	}

	var companyData, userData *models.ConfigData
	eff = &models.EffectiveConfig{UserID: userID, CompanyID: companyID}
	if companyRow != nil {
		companyData = &companyRow.Data
		eff.CompanyVersion = companyRow.Version
	}
	if userRow != nil {
		userData = &userRow.Data
		eff.UserVersion = userRow.Version
	}

	eff.Data, err = s.merger.Resolve(companyData, userData)
	if err != nil {
		return nil, err
	}
	eff.Source = sourceOf(companyRow != nil, userRow != nil)

	if s.metrics != nil {
		s.metrics.ObserveEffective(start, string(eff.Source))
	}
	s.logger.DebugContext(ctx, "effective dashboard config resolved",
		"user_id", userID,
		"company_id", companyID,
		"source", eff.Source,
	)
	return eff, nil
}

func sourceOf(hasCompany, hasUser bool) models.Source {
	switch {
	case hasCompany && hasUser:
		return models.SourceMerged
	case hasUser:
		return models.SourceUser
	case hasCompany:
		return models.SourceCompany
	default:
		return models.SourceDefault
	}
}

// Get returns the stored row for one scope and key.
func (s *Service) Get(ctx context.Context, rawScope, scopeKey string) (*models.DashboardConfig, error) {
	sc, err := models.ParseScope(rawScope)
	if err != nil {
		return nil, err
	}
	key := models.Key{Scope: sc, ScopeKey: strings.TrimSpace(scopeKey)}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	row, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, translateStoreError(ctx, err, "failed to load dashboard config")
	}
	if row == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no dashboard config for %s", key)
	}
	return row, nil
}

// ResetToDefault removes the user's override so they inherit the company
// baseline again. Resetting a user without an override succeeds.
func (s *Service) ResetToDefault(ctx context.Context, userID string, expectedVersion *int, actor string) (err error) {
	key := models.UserKey(strings.TrimSpace(userID))
	if err := key.Validate(); err != nil {
		return err
	}

	ctx, span := s.startSpan(ctx, "dashboard.ResetToDefault",
		attribute.String("dashboard.user_id", key.ScopeKey),
	)
	defer func() { endSpan(span, err) }()

	if err := s.store.Delete(ctx, key, expectedVersion); err != nil {
		err = translateStoreError(ctx, err, "failed to reset dashboard config")
		if dErrors.HasCode(err, dErrors.CodeVersionConflict) {
			s.incrementConflict(models.ScopeUser)
		}
		return err
	}

	if actor == "" {
		actor = key.ScopeKey
	}
	s.incrementWrite(models.ScopeUser, "reset")
	s.logger.InfoContext(ctx, "dashboard config reset to default",
		"user_id", key.ScopeKey,
		"actor", actor,
	)
	return nil
}

// ListCompanyOverrides returns every user override under companyID in
// user-id order.
func (s *Service) ListCompanyOverrides(ctx context.Context, companyID string) ([]*models.DashboardConfig, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "companyId is required")
	}

	out := []*models.DashboardConfig{}
	for row, err := range s.store.ListCompanyUserOverrides(ctx, companyID) {
		if err != nil {
			return nil, translateStoreError(ctx, err, "failed to list company overrides")
		}
		out = append(out, row)
	}
	return out, nil
}
