package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/lib/pq"

	"dashboard-service/internal/dashboard/models"
	"dashboard-service/pkg/platform/sentinel"
	txcontext "dashboard-service/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists rows in the dashboard_configs table. Queries join a
// transaction carried in the context when one is present.
type PostgresStore struct {
	db       *sql.DB
	pageSize int
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, pageSize: DefaultPageSize}
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const selectColumns = `id, scope, scope_key, company_id, data, version, created_at, updated_at, created_by`

func (s *PostgresStore) Load(ctx context.Context, key models.Key) (*models.DashboardConfig, error) {
	query := `SELECT ` + selectColumns + ` FROM dashboard_configs WHERE scope = $1 AND scope_key = $2`
	row, err := scanConfig(s.execer(ctx).QueryRowContext(ctx, query, string(key.Scope), key.ScopeKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("load dashboard config", err)
	}
	return row, nil
}

// Save inserts when expectedVersion is nil and conditionally updates
// otherwise. Zero affected rows means another writer got there first.
func (s *PostgresStore) Save(ctx context.Context, cfg *models.DashboardConfig, expectedVersion *int) error {
	data, err := json.Marshal(cfg.Data)
	if err != nil {
		return fmt.Errorf("marshal dashboard config data: %w", err)
	}

	var res sql.Result
	if expectedVersion == nil {
		query := `
			INSERT INTO dashboard_configs (` + selectColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (scope, scope_key) DO NOTHING
		`
		res, err = s.execer(ctx).ExecContext(ctx, query,
			cfg.ID, string(cfg.Scope), cfg.ScopeKey, cfg.CompanyID, data,
			cfg.Version, cfg.CreatedAt, cfg.UpdatedAt, cfg.CreatedBy,
		)
	} else {
		query := `
			UPDATE dashboard_configs
			SET data = $1, version = $2, updated_at = $3, company_id = $4
			WHERE scope = $5 AND scope_key = $6 AND version = $7
		`
		res, err = s.execer(ctx).ExecContext(ctx, query,
			data, cfg.Version, cfg.UpdatedAt, cfg.CompanyID,
			string(cfg.Scope), cfg.ScopeKey, *expectedVersion,
		)
	}
	if err != nil {
		return classify("save dashboard config", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify("save dashboard config", err)
	}
	if affected == 0 {
		return fmt.Errorf("save dashboard config %s: %w", cfg.Key(), sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key models.Key, expectedVersion *int) error {
	if expectedVersion == nil {
		_, err := s.execer(ctx).ExecContext(ctx,
			`DELETE FROM dashboard_configs WHERE scope = $1 AND scope_key = $2`,
			string(key.Scope), key.ScopeKey)
		if err != nil {
			return classify("delete dashboard config", err)
		}
		return nil
	}

	// The conditional delete and the existence check share one transaction
	// so a concurrent insert cannot slip between them.
	var exists bool
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		res, err := s.execer(ctx).ExecContext(ctx,
			`DELETE FROM dashboard_configs WHERE scope = $1 AND scope_key = $2 AND version = $3`,
			string(key.Scope), key.ScopeKey, *expectedVersion)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil || affected > 0 {
			return err
		}
		return s.execer(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM dashboard_configs WHERE scope = $1 AND scope_key = $2)`,
			string(key.Scope), key.ScopeKey).Scan(&exists)
	})
	if err != nil {
		return classify("delete dashboard config", err)
	}
	if exists {
		return fmt.Errorf("delete dashboard config %s: %w", key, sentinel.ErrConflict)
	}
	return nil
}

// ListCompanyUserOverrides uses keyset pagination on scope_key, so each page
// is an independent query and no cursor is held open between yields.
func (s *PostgresStore) ListCompanyUserOverrides(ctx context.Context, companyID string) iter.Seq2[*models.DashboardConfig, error] {
	return func(yield func(*models.DashboardConfig, error) bool) {
		after := ""
		for {
			page, err := s.listPage(ctx, companyID, after)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, row := range page {
				if !yield(row, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			after = page[len(page)-1].ScopeKey
		}
	}
}

func (s *PostgresStore) listPage(ctx context.Context, companyID, after string) ([]*models.DashboardConfig, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM dashboard_configs
		WHERE scope = 'user' AND company_id = $1 AND scope_key > $2
		ORDER BY scope_key
		LIMIT $3
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, companyID, after, s.pageSize)
	if err != nil {
		return nil, classify("list company user overrides", err)
	}
	defer rows.Close()

	page := make([]*models.DashboardConfig, 0, s.pageSize)
	for rows.Next() {
		row, err := scanConfig(rows)
		if err != nil {
			return nil, classify("scan company user override", err)
		}
		page = append(page, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate company user overrides", err)
	}
	return page, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(sc rowScanner) (*models.DashboardConfig, error) {
	var (
		cfg   models.DashboardConfig
		scope string
		data  []byte
	)
	if err := sc.Scan(&cfg.ID, &scope, &cfg.ScopeKey, &cfg.CompanyID, &data,
		&cfg.Version, &cfg.CreatedAt, &cfg.UpdatedAt, &cfg.CreatedBy); err != nil {
		return nil, err
	}
	cfg.Scope = models.Scope(scope)
	if err := json.Unmarshal(data, &cfg.Data); err != nil {
		return nil, fmt.Errorf("unmarshal dashboard config data: %w", err)
	}
	return &cfg, nil
}

// classify wraps err with the sentinel the service layer understands.
// Unique violations become ErrConflict; connection loss, serialization
// failures and resource exhaustion become ErrUnavailable.
func classify(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code.Class() {
	case "08", "53", "57":
		return true
	}
	switch pqErr.Code {
	case "40001", "40P01":
		return true
	}
	return false
}
