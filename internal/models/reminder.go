package models

// Reminder is a one-off, non-financial reminder. It is created active and
// transitions to inactive exactly once: either explicitly or after the
// scheduler confirms delivery of its notification.
type Reminder struct {
	ID           int64  `json:"id"`
	OwnerID      int64  `json:"owner_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ReminderDate string `json:"reminder_date"` // Format: YYYY-MM-DD
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}
