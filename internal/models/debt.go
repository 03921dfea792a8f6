package models

// Recurrence values accepted for a debt.
const (
	RecurrenceOneTime = "one-time"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceYearly  = "yearly"
)

// ValidRecurrence reports whether s is one of the four allowed literals.
func ValidRecurrence(s string) bool {
	switch s {
	case RecurrenceOneTime, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Debt represents a recurring or one-time financial obligation of a single owner.
// DueDate is a calendar date in YYYY-MM-DD form; AmountMinor is in the smallest
// currency unit and is always positive.
type Debt struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	Category    string `json:"category"`
	AmountMinor int64  `json:"amount_minor"`
	DueDate     string `json:"due_date"` // Format: YYYY-MM-DD
	Description string `json:"description"`
	Recurrence  string `json:"recurrence"`
	IsPaid      bool   `json:"is_paid"`
	CreatedAt   string `json:"created_at"`
	PaidAt      string `json:"paid_at,omitempty"` // Set exactly once, when the debt is paid
}
