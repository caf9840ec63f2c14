// Package alert classifies document expiry dates into urgency levels.
//
// Evaluation is pure: a level is a function of (today, expiry date) only,
// with "today" injected by the caller. Visa deadlines carry harder legal
// consequences than passport or labour card renewals, so the visa ladder is
// deliberately finer-grained — do not unify the scales.
package alert

import "time"

// --------------------------------------------------------------------------
// Document types
// --------------------------------------------------------------------------

// DocumentType identifies which expiry date on an employee record is
// being evaluated.
type DocumentType string

const (
	DocVisa       DocumentType = "visa"
	DocPassport   DocumentType = "passport"
	DocLabourCard DocumentType = "labour_card"
)

// DocumentTypes lists all monitored document types in evaluation order.
var DocumentTypes = []DocumentType{DocVisa, DocPassport, DocLabourCard}

// --------------------------------------------------------------------------
// Alert levels
// --------------------------------------------------------------------------

// Level is the ordinal urgency classification derived from days remaining.
type Level string

const (
	LevelUnknown  Level = "UNKNOWN" // no expiry date on record
	LevelOK       Level = "OK"
	LevelNotice   Level = "NOTICE"
	LevelWarning  Level = "WARNING"
	LevelUrgent   Level = "URGENT"
	LevelCritical Level = "CRITICAL"
)

// --------------------------------------------------------------------------
// Threshold definitions
// --------------------------------------------------------------------------

// Threshold pairs a days-before-expiry boundary with the level it triggers.
type Threshold struct {
	Days  int
	Level Level
}

// Definitions holds the ordered notification thresholds per document type.
// Visa uses the full five-tier ladder; passport and labour card only the
// 60/30 boundaries.
var Definitions = map[DocumentType][]Threshold{
	DocVisa: {
		{Days: 60, Level: LevelNotice},
		{Days: 30, Level: LevelWarning},
		{Days: 15, Level: LevelUrgent},
		{Days: 7, Level: LevelCritical},
		{Days: 1, Level: LevelCritical},
	},
	DocPassport: {
		{Days: 60, Level: LevelNotice},
		{Days: 30, Level: LevelWarning},
	},
	DocLabourCard: {
		{Days: 60, Level: LevelNotice},
		{Days: 30, Level: LevelWarning},
	},
}

// Thresholds returns the ordered threshold list for a document type.
func Thresholds(doc DocumentType) []Threshold {
	return Definitions[doc]
}

// --------------------------------------------------------------------------
// Evaluation
// --------------------------------------------------------------------------

// DaysRemaining returns the signed whole-day difference expiry - today.
// Both arguments are truncated to calendar days in UTC before comparison.
func DaysRemaining(today, expiry time.Time) int {
	t := today.UTC().Truncate(24 * time.Hour)
	e := expiry.UTC().Truncate(24 * time.Hour)
	return int(e.Sub(t).Hours() / 24)
}

// Evaluate maps an expiry date to its alert level for the given document
// type. A nil expiry yields LevelUnknown. The level is the smallest boundary
// the remaining days fall under; past-due documents land in the tightest
// tier for their document type.
func Evaluate(doc DocumentType, today time.Time, expiry *time.Time) Level {
	if expiry == nil {
		return LevelUnknown
	}
	return levelForDays(doc, DaysRemaining(today, *expiry))
}

func levelForDays(doc DocumentType, days int) Level {
	if doc == DocVisa {
		switch {
		case days <= 7:
			return LevelCritical
		case days <= 15:
			return LevelUrgent
		case days <= 30:
			return LevelWarning
		case days <= 60:
			return LevelNotice
		default:
			return LevelOK
		}
	}
	// Passport and labour card use the narrower two-tier scale.
	switch {
	case days <= 30:
		return LevelWarning
	case days <= 60:
		return LevelNotice
	default:
		return LevelOK
	}
}
