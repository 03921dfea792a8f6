package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saeedhm/debtbot/internal/models"
)

// FormatAmount renders a minor-unit amount with thousands separators.
func FormatAmount(amountMinor int64) string {
	s := strconv.FormatInt(amountMinor, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatDisplayDate renders a stored date as YYYY/MM/DD in loc. A date that
// does not parse is shown as stored.
func FormatDisplayDate(s string, loc *time.Location) string {
	t, ok := ParseDate(s, loc)
	if !ok {
		return s
	}
	return t.In(loc).Format("2006/01/02")
}

// DebtReminderMessage picks the wording tier for a debt by its day offset:
// 0 due today/overdue, 1 due tomorrow, 2-3 short horizon, 4-7 advance notice,
// anything beyond falls back to a generic date mention. The daily sweep never
// passes more than 7; the last tier exists for callers outside that window.
func DebtReminderMessage(d models.Debt, days int, loc *time.Location) string {
	amount := FormatAmount(d.AmountMinor)
	due := FormatDisplayDate(d.DueDate, loc)

	switch {
	case days == 0:
		return fmt.Sprintf("URGENT: %s payment of %s is due today.\nDue date: %s", d.Category, amount, due)
	case days == 1:
		return fmt.Sprintf("Reminder: %s payment of %s is due tomorrow.\nDue date: %s", d.Category, amount, due)
	case days <= 3:
		return fmt.Sprintf("Reminder: %s payment of %s is due in %d days.\nDue date: %s", d.Category, amount, days, due)
	case days <= 7:
		return fmt.Sprintf("Upcoming: %s payment of %s is due in %d days.\nDue date: %s", d.Category, amount, days, due)
	default:
		return fmt.Sprintf("Note: %s payment of %s is due on %s.", d.Category, amount, due)
	}
}

// OneOffReminderMessage formats a custom reminder: title, then the optional
// description.
func OneOffReminderMessage(rem models.Reminder) string {
	msg := fmt.Sprintf("Reminder: %s", rem.Title)
	if rem.Description != "" {
		msg += "\n" + rem.Description
	}
	return msg
}
