package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saeedhm/debtbot/internal/models"
	"github.com/saeedhm/debtbot/internal/repository"
	"github.com/sirupsen/logrus"
)

// Store is the durable obligation store consumed by the service. The concrete
// implementation lives in internal/repository; tests use in-memory stubs.
type Store interface {
	CreateDebt(ctx context.Context, d *models.Debt) (int64, error)
	GetActiveDebts(ctx context.Context, ownerID int64) ([]models.Debt, error)
	GetDebtByID(ctx context.Context, id, ownerID int64) (*models.Debt, error)
	MarkDebtPaid(ctx context.Context, id, ownerID int64) (bool, error)
	DeleteDebt(ctx context.Context, id, ownerID int64) (bool, error)
	CreateReminder(ctx context.Context, rem *models.Reminder) (int64, error)
	GetActiveReminders(ctx context.Context, ownerID int64) ([]models.Reminder, error)
}

// Service handles obligation business logic
type Service struct {
	store Store
	log   *logrus.Logger
	loc   *time.Location
}

// NewService initializes a new service. loc is the reference timezone used
// when interpreting stored dates.
func NewService(store Store, log *logrus.Logger, loc *time.Location) *Service {
	return &Service{store: store, log: log, loc: loc}
}

// CreateDebt validates the input and stores a new unpaid debt, returning its
// id. On validation failure nothing is written and the returned error is a
// *ValidationError naming the offending field.
func (s *Service) CreateDebt(ctx context.Context, ownerID int64, category string, amountMinor int64, dueDate, description, recurrence string) (int64, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if amountMinor <= 0 {
		return 0, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if _, ok := ParseDate(dueDate, s.loc); !ok {
		return 0, &ValidationError{Field: "due date", Reason: "must be a valid date in YYYY-MM-DD format"}
	}
	if !models.ValidRecurrence(recurrence) {
		return 0, &ValidationError{Field: "recurrence", Reason: "must be one-time, weekly, monthly or yearly"}
	}

	id, err := s.store.CreateDebt(ctx, &models.Debt{
		OwnerID:     ownerID,
		Category:    category,
		AmountMinor: amountMinor,
		DueDate:     dueDate,
		Description: strings.TrimSpace(description),
		Recurrence:  recurrence,
	})
	if err != nil {
		return 0, err
	}
	s.log.Infof("Debt %d created for owner %d (%s, due %s)", id, ownerID, category, dueDate)
	return id, nil
}

// MarkPaid transitions a debt to paid. The transition is one-way and
// idempotent: paying an already-paid debt reports PayAlreadyPaid and leaves
// paid_at untouched.
func (s *Service) MarkPaid(ctx context.Context, id, ownerID int64) (PayOutcome, error) {
	debt, err := s.store.GetDebtByID(ctx, id, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return PayNotFound, nil
	}
	if err != nil {
		return PayNotFound, err
	}
	if debt.IsPaid {
		return PayAlreadyPaid, nil
	}

	changed, err := s.store.MarkDebtPaid(ctx, id, ownerID)
	if err != nil {
		return PayNotFound, err
	}
	if !changed {
		// Lost a race with a concurrent payment; same terminal state.
		return PayAlreadyPaid, nil
	}
	s.log.Infof("Debt %d of owner %d marked paid", id, ownerID)
	return PayPaid, nil
}

// DeleteDebt hard-removes a debt owned by ownerID.
func (s *Service) DeleteDebt(ctx context.Context, id, ownerID int64) (DeleteOutcome, error) {
	deleted, err := s.store.DeleteDebt(ctx, id, ownerID)
	if err != nil {
		return DeleteNotFound, err
	}
	if !deleted {
		return DeleteNotFound, nil
	}
	s.log.Infof("Debt %d of owner %d deleted", id, ownerID)
	return DeleteDeleted, nil
}

// ListActive returns the owner's unpaid debts, due date ascending; equal due
// dates keep creation order.
func (s *Service) ListActive(ctx context.Context, ownerID int64) ([]models.Debt, error) {
	return s.store.GetActiveDebts(ctx, ownerID)
}

// CreateReminder validates and stores a new one-off reminder.
func (s *Service) CreateReminder(ctx context.Context, ownerID int64, title, reminderDate, description string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if _, ok := ParseDate(reminderDate, s.loc); !ok {
		return 0, &ValidationError{Field: "reminder date", Reason: "must be a valid date in YYYY-MM-DD format"}
	}

	id, err := s.store.CreateReminder(ctx, &models.Reminder{
		OwnerID:      ownerID,
		Title:        title,
		ReminderDate: reminderDate,
		Description:  strings.TrimSpace(description),
	})
	if err != nil {
		return 0, err
	}
	s.log.Infof("Reminder %d created for owner %d (%s)", id, ownerID, reminderDate)
	return id, nil
}

// ListActiveReminders returns the owner's active reminders, date ascending.
func (s *Service) ListActiveReminders(ctx context.Context, ownerID int64) ([]models.Reminder, error) {
	return s.store.GetActiveReminders(ctx, ownerID)
}

// RenderSummary formats the owner's active debts as a single message. Field
// order per debt is fixed: id, category, amount, due date, optional
// description, recurrence.
func (s *Service) RenderSummary(ctx context.Context, ownerID int64) (string, error) {
	debts, err := s.ListActive(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}
	if len(debts) == 0 {
		return "You have no active debts.", nil
	}

	var b strings.Builder
	b.WriteString("Your active debts:\n\n")
	for _, d := range debts {
		fmt.Fprintf(&b, "#%d\n", d.ID)
		fmt.Fprintf(&b, "Category: %s\n", d.Category)
		fmt.Fprintf(&b, "Amount: %s\n", FormatAmount(d.AmountMinor))
		fmt.Fprintf(&b, "Due: %s\n", FormatDisplayDate(d.DueDate, s.loc))
		if d.Description != "" {
			fmt.Fprintf(&b, "Note: %s\n", d.Description)
		}
		fmt.Fprintf(&b, "Repeats: %s\n", d.Recurrence)
		b.WriteString(strings.Repeat("-", 30) + "\n")
	}
	return b.String(), nil
}
