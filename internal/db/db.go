// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentdesk/expiry-engine/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the notification engine
// uses. Prepared statements eliminate parse overhead on every cycle.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Eligibility: active employees whose document expires exactly on the
		// target date ($1) and that have no dedup claim for the threshold ($2).
		"eligible_visa": `
			SELECT e.id, e.full_name, e.email, e.visa_expiry_date
			FROM employees e
			WHERE e.is_active
			  AND e.visa_expiry_date = $1
			  AND NOT EXISTS (
				SELECT 1 FROM sent_notifications sn
				WHERE sn.employee_id = e.id
				  AND sn.document_type = 'visa'
				  AND sn.threshold_days = $2)
			ORDER BY e.id`,
		"eligible_passport": `
			SELECT e.id, e.full_name, e.email, e.passport_expiry_date
			FROM employees e
			WHERE e.is_active
			  AND e.passport_expiry_date = $1
			  AND NOT EXISTS (
				SELECT 1 FROM sent_notifications sn
				WHERE sn.employee_id = e.id
				  AND sn.document_type = 'passport'
				  AND sn.threshold_days = $2)
			ORDER BY e.id`,
		"eligible_labour_card": `
			SELECT e.id, e.full_name, e.email, e.labour_card_expiry_date
			FROM employees e
			WHERE e.is_active
			  AND e.labour_card_expiry_date = $1
			  AND NOT EXISTS (
				SELECT 1 FROM sent_notifications sn
				WHERE sn.employee_id = e.id
				  AND sn.document_type = 'labour_card'
				  AND sn.threshold_days = $2)
			ORDER BY e.id`,

		// Dedup claim: the unique constraint makes the insert the atomic
		// guard against duplicate sends from overlapping processes.
		"claim_sent": `
			INSERT INTO sent_notifications (employee_id, document_type, threshold_days)
			VALUES ($1, $2, $3)
			ON CONFLICT (employee_id, document_type, threshold_days) DO NOTHING`,

		// Audit trail
		"audit_create": `
			INSERT INTO notifications (id, title, message, severity, recipient, category, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)`,
		"audit_mark_sent": `
			UPDATE notifications SET status = 'sent', sent_at = $2
			WHERE id = $1 AND status = 'pending'`,
		"audit_mark_failed": `
			UPDATE notifications SET status = 'failed', error_message = $2
			WHERE id = $1 AND status = 'pending'`,
		"audit_count_by_status": `
			SELECT status, COUNT(*) FROM notifications GROUP BY status`,
		"audit_count_by_category": `
			SELECT category, COUNT(*) FROM notifications GROUP BY category`,
		"audit_count_in_range": `
			SELECT COUNT(*) FROM notifications
			WHERE created_at >= $1 AND created_at < $2`,

		// Dashboard snapshots (materialized views)
		"snapshot_company_overview": `
			SELECT company_id, company_name, active_employees, inactive_employees
			FROM mv_company_overview ORDER BY company_name`,
		"snapshot_expiry_stats": `
			SELECT document_type, expired, expiring_7, expiring_30, expiring_60
			FROM mv_document_expiry_stats ORDER BY document_type`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
