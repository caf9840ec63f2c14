package notify

import (
	"fmt"

	"github.com/talentdesk/expiry-engine/internal/alert"
)

// SeverityFor maps a threshold to the severity used in the message copy and
// the audit record: one week or less is an error-level alert, two weeks a
// warning, anything further out informational.
func SeverityFor(thresholdDays int) Severity {
	switch {
	case thresholdDays <= 7:
		return SeverityError
	case thresholdDays <= 15:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// CategoryFor maps a document type to its audit category. Visa alerts get
// their own category; everything else files under document.
func CategoryFor(doc alert.DocumentType) Category {
	if doc == alert.DocVisa {
		return CategoryVisa
	}
	return CategoryDocument
}

var docLabel = map[alert.DocumentType]string{
	alert.DocVisa:       "Visa",
	alert.DocPassport:   "Passport",
	alert.DocLabourCard: "Labour card",
}

// Email is one outbound message for a notified employee.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// BuildEmail renders the alert for one employee at one threshold. Returns
// the message plus the plain-text summary stored on the audit record.
func BuildEmail(doc alert.DocumentType, thresholdDays int, emp Employee) (Email, string) {
	label := docLabel[doc]
	when := fmt.Sprintf("in %d days", thresholdDays)
	if thresholdDays == 1 {
		when = "tomorrow"
	}

	var subject string
	switch SeverityFor(thresholdDays) {
	case SeverityError:
		subject = fmt.Sprintf("URGENT: %s expires %s — %s", label, when, emp.FullName)
	case SeverityWarning:
		subject = fmt.Sprintf("Action needed: %s expires %s — %s", label, when, emp.FullName)
	default:
		subject = fmt.Sprintf("Reminder: %s expires %s — %s", label, when, emp.FullName)
	}

	summary := fmt.Sprintf("%s for %s expires %s (%s)",
		label, emp.FullName, when, emp.ExpiryDate.Format("2006-01-02"))

	html := fmt.Sprintf(
		`<h2>%s expiry notice</h2>
<p>Dear %s,</p>
<p>Your %s expires <strong>%s</strong>, on %s.</p>
<p>Please start the renewal process and submit the updated document to HR.</p>
<p>— HR Compliance</p>`,
		label, emp.FullName, label, when, emp.ExpiryDate.Format("02 Jan 2006"))

	return Email{To: emp.Email, Subject: subject, HTML: html}, summary
}
