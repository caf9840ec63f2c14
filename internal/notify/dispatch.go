package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/talentdesk/expiry-engine/internal/alert"
)

// Sender delivers one alert email. Implementations live in internal/mailer;
// SMS/push channels would plug in behind the same interface.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// flagStore is the slice of Store the dispatcher needs.
type flagStore interface {
	FindEligible(ctx context.Context, doc alert.DocumentType, thresholdDays int, today time.Time) ([]Employee, error)
	ClaimSent(ctx context.Context, employeeID int64, doc alert.DocumentType, thresholdDays int) (bool, error)
}

// auditor is the slice of AuditStore the dispatcher needs.
type auditor interface {
	CreatePending(ctx context.Context, rec *Record) error
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// Dispatcher sends the notifications for one threshold's eligible employee
// set, spacing sends to respect provider rate limits.
type Dispatcher struct {
	flags       flagStore
	audit       auditor
	sender      Sender
	limiter     *rate.Limiter
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher. sendInterval is the minimum gap between
// consecutive sends; sendTimeout bounds each individual delivery.
func NewDispatcher(flags flagStore, audit auditor, sender Sender, sendInterval, sendTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		flags:       flags,
		audit:       audit,
		sender:      sender,
		limiter:     rate.NewLimiter(rate.Every(sendInterval), 1),
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// DispatchThreshold processes one (document type, threshold) pair: fetches
// eligible employees and sends each alert in sequence. One employee's failure
// never aborts the batch; failures are marked on the audit record and the
// dedup flag is left unclaimed so the next cycle retries. A non-nil error is
// returned only when the eligibility read itself fails.
func (d *Dispatcher) DispatchThreshold(ctx context.Context, doc alert.DocumentType, thresholdDays int, today time.Time) (BatchResult, error) {
	result := BatchResult{DocumentType: doc, ThresholdDays: thresholdDays}

	employees, err := d.flags.FindEligible(ctx, doc, thresholdDays, today)
	if err != nil {
		return result, fmt.Errorf("dispatch %s/%d: %w", doc, thresholdDays, err)
	}
	result.Eligible = len(employees)
	if len(employees) == 0 {
		return result, nil
	}

	d.logger.Info("Dispatching threshold batch",
		"document", doc, "threshold_days", thresholdDays, "eligible", len(employees))

	for i, emp := range employees {
		email, summary := BuildEmail(doc, thresholdDays, emp)
		rec := &Record{
			Title:     email.Subject,
			Message:   summary,
			Severity:  SeverityFor(thresholdDays),
			Recipient: emp.Email,
			Category:  CategoryFor(doc),
		}

		// Audit first: a pending row must exist before anything leaves the
		// process, and the dedup flag is only claimed after the row is sent.
		if err := d.audit.CreatePending(ctx, rec); err != nil {
			d.logger.Warn("audit create failed", "employee_id", emp.ID, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, EmployeeError{EmployeeID: emp.ID, Error: err.Error()})
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			// Cycle deadline hit: fail this record and report the rest as
			// skipped. Their flags are unclaimed, so the next run picks
			// them up.
			_ = d.audit.MarkFailed(context.WithoutCancel(ctx), rec.ID, err.Error())
			for _, rest := range employees[i:] {
				result.Failed++
				result.Errors = append(result.Errors, EmployeeError{
					EmployeeID: rest.ID,
					Error:      fmt.Sprintf("skipped: %v", err),
				})
			}
			break
		}

		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		sendErr := d.sender.Send(sendCtx, email)
		cancel()

		if sendErr != nil {
			d.logger.Warn("send failed",
				"employee_id", emp.ID, "recipient", emp.Email, "error", sendErr)
			if err := d.audit.MarkFailed(ctx, rec.ID, sendErr.Error()); err != nil {
				d.logger.Warn("audit mark failed errored", "record_id", rec.ID, "error", err)
			}
			result.Failed++
			result.Errors = append(result.Errors, EmployeeError{EmployeeID: emp.ID, Error: sendErr.Error()})
			continue
		}

		result.Sent++

		if err := d.audit.MarkSent(ctx, rec.ID, time.Now().UTC()); err != nil {
			// Delivery happened but the audit write did not. Leave the flag
			// unclaimed so the sent record and flag never disagree; the next
			// cycle may re-send (at-least-once).
			d.logger.Warn("audit mark sent errored", "record_id", rec.ID, "error", err)
			result.Errors = append(result.Errors, EmployeeError{EmployeeID: emp.ID, Error: err.Error()})
			continue
		}

		claimed, err := d.flags.ClaimSent(ctx, emp.ID, doc, thresholdDays)
		if err != nil {
			d.logger.Warn("dedup claim errored", "employee_id", emp.ID, "error", err)
			result.Errors = append(result.Errors, EmployeeError{EmployeeID: emp.ID, Error: err.Error()})
		} else if !claimed {
			d.logger.Warn("dedup flag already claimed by another process",
				"employee_id", emp.ID, "document", doc, "threshold_days", thresholdDays)
		}
	}

	return result, nil
}
