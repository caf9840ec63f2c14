package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentdesk/expiry-engine/internal/alert"
)

// --------------------------------------------------------------------------
// Dedup flag store
// --------------------------------------------------------------------------

// Store reads eligible employees and claims per-threshold dedup flags.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var eligibleStmt = map[alert.DocumentType]string{
	alert.DocVisa:       "eligible_visa",
	alert.DocPassport:   "eligible_passport",
	alert.DocLabourCard: "eligible_labour_card",
}

// FindEligible returns active employees whose document of the given type
// expires exactly thresholdDays from today and that have not yet been
// notified for that threshold.
func (s *Store) FindEligible(ctx context.Context, doc alert.DocumentType, thresholdDays int, today time.Time) ([]Employee, error) {
	stmt, ok := eligibleStmt[doc]
	if !ok {
		return nil, fmt.Errorf("unknown document type %q", doc)
	}

	target := today.UTC().Truncate(24*time.Hour).AddDate(0, 0, thresholdDays)
	rows, err := s.pool.Query(ctx, stmt, target, thresholdDays)
	if err != nil {
		return nil, fmt.Errorf("find eligible %s/%d: %w", doc, thresholdDays, err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.FullName, &e.Email, &e.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan eligible employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// Legacy per-threshold visa flag columns still read by the CRUD dashboards.
var visaFlagColumn = map[int]string{
	60: "sent_60",
	30: "sent_30",
	15: "sent_15",
	7:  "sent_7",
	1:  "sent_1",
}

// ClaimSent records a confirmed delivery for (employee, document, threshold).
// The unique constraint on sent_notifications makes the insert the atomic
// dedup guard: a false return means another process already claimed it.
// Claims are never cleared by the engine, even if the expiry date later
// changes — a renewed document will not re-notify at the same threshold.
func (s *Store) ClaimSent(ctx context.Context, employeeID int64, doc alert.DocumentType, thresholdDays int) (bool, error) {
	tag, err := s.pool.Exec(ctx, "claim_sent", employeeID, string(doc), thresholdDays)
	if err != nil {
		return false, fmt.Errorf("claim sent %d/%s/%d: %w", employeeID, doc, thresholdDays, err)
	}
	claimed := tag.RowsAffected() == 1

	// Keep the legacy boolean column on employees in step for visa
	// thresholds; the sent_notifications row remains the source of truth.
	if claimed && doc == alert.DocVisa {
		if col, ok := visaFlagColumn[thresholdDays]; ok {
			if _, err := s.pool.Exec(ctx,
				fmt.Sprintf("UPDATE employees SET %s = true WHERE id = $1 AND %s = false", col, col),
				employeeID,
			); err != nil {
				return claimed, fmt.Errorf("set legacy flag %s: %w", col, err)
			}
		}
	}
	return claimed, nil
}

// --------------------------------------------------------------------------
// Notification audit store
// --------------------------------------------------------------------------

// AuditStore persists the notification audit trail. Records move
// pending → sent | failed and are immutable once terminal.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates an AuditStore backed by the given pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// CreatePending inserts a new audit record in pending status and fills in
// its generated ID and creation timestamp.
func (a *AuditStore) CreatePending(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.Status = StatusPending
	rec.CreatedAt = time.Now().UTC()

	_, err := a.pool.Exec(ctx, "audit_create",
		rec.ID, rec.Title, rec.Message, string(rec.Severity),
		rec.Recipient, string(rec.Category), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create audit record: %w", err)
	}
	return nil
}

// MarkSent transitions a pending record to sent. Terminal records are
// left untouched and reported as an error.
func (a *AuditStore) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	tag, err := a.pool.Exec(ctx, "audit_mark_sent", id, sentAt.UTC())
	if err != nil {
		return fmt.Errorf("mark audit sent %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("audit record %s is not pending", id)
	}
	return nil
}

// MarkFailed transitions a pending record to failed with the send error.
func (a *AuditStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	tag, err := a.pool.Exec(ctx, "audit_mark_failed", id, errMsg)
	if err != nil {
		return fmt.Errorf("mark audit failed %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("audit record %s is not pending", id)
	}
	return nil
}

// CountByStatus returns audit record counts grouped by delivery status.
func (a *AuditStore) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := a.pool.Query(ctx, "audit_count_by_status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

// CountByCategory returns audit record counts grouped by category.
func (a *AuditStore) CountByCategory(ctx context.Context) (map[Category]int, error) {
	rows, err := a.pool.Query(ctx, "audit_count_by_category")
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[Category]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[Category(category)] = n
	}
	return counts, rows.Err()
}

// CountInRange returns the number of audit records created in [from, to).
func (a *AuditStore) CountInRange(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	if err := a.pool.QueryRow(ctx, "audit_count_in_range", from.UTC(), to.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count in range: %w", err)
	}
	return n, nil
}
