// Package notify evaluates employee document expiry dates against the
// configured thresholds, dispatches rate-limited alert emails, and records
// every delivery attempt in the notification audit trail.
//
// Pipeline: find eligible employees → build message → audit pending →
// send → claim dedup flag + audit sent, or audit failed and retry next cycle.
package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/talentdesk/expiry-engine/internal/alert"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Severity of a notification record, mirrored in the dashboard UI.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// Category groups notifications for dashboard filtering.
type Category string

const (
	CategoryVisa     Category = "visa"
	CategoryDocument Category = "document"
	CategorySystem   Category = "system"
	CategoryApproval Category = "approval"
)

// Status is the delivery state of an audit record. Sent and failed are
// terminal; a retry creates a new record instead of reopening an old one.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Employee is the slice of an employee row the engine reads: identity,
// recipient address, and the expiry date of the document under evaluation.
type Employee struct {
	ID         int64
	FullName   string
	Email      string
	ExpiryDate time.Time
}

// Record is one row of the notification audit trail.
type Record struct {
	ID           uuid.UUID
	Title        string
	Message      string
	Severity     Severity
	Recipient    string
	Category     Category
	Status       Status
	CreatedAt    time.Time
	SentAt       *time.Time
	ErrorMessage string
}

// BatchResult summarizes one dispatcher run for a single
// (document type, threshold) pair.
type BatchResult struct {
	DocumentType  alert.DocumentType `json:"documentType"`
	ThresholdDays int                `json:"thresholdDays"`
	Eligible      int                `json:"eligible"`
	Sent          int                `json:"sent"`
	Failed        int                `json:"failed"`
	Errors        []EmployeeError    `json:"errors,omitempty"`
}

// EmployeeError attributes a batch failure to a single employee.
type EmployeeError struct {
	EmployeeID int64  `json:"employeeId"`
	Error      string `json:"error"`
}

// CycleSummary aggregates one full orchestration pass across every
// (document type, threshold) combination.
type CycleSummary struct {
	StartedAt         time.Time       `json:"startedAt"`
	Duration          time.Duration   `json:"-"`
	DurationMS        int64           `json:"durationMs"`
	NotificationsSent int             `json:"notificationsSent"`
	Failed            int             `json:"failed"`
	BatchesRun        int             `json:"batchesRun"`
	BatchesSkipped    int             `json:"batchesSkipped"`
	Batches           []BatchResult   `json:"batches"`
	ErrorsByEmployee  []EmployeeError `json:"errorsByEmployee,omitempty"`
}
