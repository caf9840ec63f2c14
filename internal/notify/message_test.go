package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/talentdesk/expiry-engine/internal/alert"
)

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, SeverityError, SeverityFor(1))
	assert.Equal(t, SeverityError, SeverityFor(7))
	assert.Equal(t, SeverityWarning, SeverityFor(15))
	assert.Equal(t, SeverityInfo, SeverityFor(30))
	assert.Equal(t, SeverityInfo, SeverityFor(60))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryVisa, CategoryFor(alert.DocVisa))
	assert.Equal(t, CategoryDocument, CategoryFor(alert.DocPassport))
	assert.Equal(t, CategoryDocument, CategoryFor(alert.DocLabourCard))
}

func TestBuildEmail(t *testing.T) {
	expiry := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	emp := Employee{ID: 1, FullName: "Amina Rashid", Email: "amina@example.com", ExpiryDate: expiry}

	email, summary := BuildEmail(alert.DocVisa, 7, emp)
	assert.Equal(t, "amina@example.com", email.To)
	assert.True(t, strings.HasPrefix(email.Subject, "URGENT:"), "subject %q", email.Subject)
	assert.Contains(t, email.Subject, "Visa")
	assert.Contains(t, email.HTML, "Amina Rashid")
	assert.Contains(t, email.HTML, "30 Aug 2026")
	assert.Contains(t, summary, "2026-08-30")

	email, _ = BuildEmail(alert.DocLabourCard, 60, emp)
	assert.True(t, strings.HasPrefix(email.Subject, "Reminder:"), "subject %q", email.Subject)
	assert.Contains(t, email.Subject, "Labour card")

	// Day-before copy reads "tomorrow" rather than "in 1 days".
	email, _ = BuildEmail(alert.DocVisa, 1, emp)
	assert.Contains(t, email.Subject, "tomorrow")
	assert.NotContains(t, email.Subject, "in 1 days")
}
