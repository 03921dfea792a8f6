package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/saeedhm/debtbot/internal/models"
)

// ErrNotFound is returned when a record does not exist or belongs to a
// different owner. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("record not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InitSchema creates the tables if they do not exist yet.
func (r *Repository) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS debts (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			category TEXT NOT NULL,
			amount_minor BIGINT NOT NULL,
			due_date TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			recurrence TEXT NOT NULL DEFAULT 'one-time',
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			paid_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_debts_owner ON debts (owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_debts_unpaid_due ON debts (due_date) WHERE NOT is_paid`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			reminder_date TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_owner ON reminders (owner_id)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

// CreateDebt inserts a new debt and returns its store-assigned id.
func (r *Repository) CreateDebt(ctx context.Context, d *models.Debt) (int64, error) {
	query := `
		INSERT INTO debts (owner_id, category, amount_minor, due_date, description, recurrence)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		d.OwnerID, d.Category, d.AmountMinor, d.DueDate, d.Description, d.Recurrence).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create debt: %w", err)
	}
	return id, nil
}

// GetActiveDebts returns all unpaid debts of one owner, due date ascending.
// Equal due dates keep insertion order (id ascending).
func (r *Repository) GetActiveDebts(ctx context.Context, ownerID int64) ([]models.Debt, error) {
	query := `
		SELECT id, owner_id, category, amount_minor, due_date, description, recurrence, is_paid, created_at, paid_at
		FROM debts
		WHERE owner_id = $1 AND NOT is_paid
		ORDER BY due_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active debts: %w", err)
	}
	defer rows.Close()
	return scanDebts(rows)
}

// GetDebtByID retrieves a single debt by (id, owner). A debt owned by someone
// else is reported as ErrNotFound, same as a missing one.
func (r *Repository) GetDebtByID(ctx context.Context, id, ownerID int64) (*models.Debt, error) {
	query := `
		SELECT id, owner_id, category, amount_minor, due_date, description, recurrence, is_paid, created_at, paid_at
		FROM debts
		WHERE id = $1 AND owner_id = $2`
	d, err := scanDebt(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find debt: %w", err)
	}
	return d, nil
}

// MarkDebtPaid atomically transitions a debt to paid. Returns true iff a row
// changed; an already-paid debt is left untouched so paid_at is set exactly once.
func (r *Repository) MarkDebtPaid(ctx context.Context, id, ownerID int64) (bool, error) {
	query := `
		UPDATE debts
		SET is_paid = TRUE, paid_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND owner_id = $2 AND NOT is_paid`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to mark debt paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark debt paid: %w", err)
	}
	return n > 0, nil
}

// DeleteDebt removes a debt. Returns true iff a row was deleted.
func (r *Repository) DeleteDebt(ctx context.Context, id, ownerID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete debt: %w", err)
	}
	return n > 0, nil
}

// GetUpcomingDebts returns unpaid debts of all owners due within daysAhead
// days, due date ascending. Rows whose due_date does not look like a calendar
// date are excluded here; the sweep treats them as "never due" anyway.
func (r *Repository) GetUpcomingDebts(ctx context.Context, daysAhead int) ([]models.Debt, error) {
	query := `
		SELECT id, owner_id, category, amount_minor, due_date, description, recurrence, is_paid, created_at, paid_at
		FROM debts
		WHERE NOT is_paid
		  AND CASE WHEN due_date ~ '^[0-9]{4}-[0-9]{2}-[0-9]{2}$'
		           THEN due_date::date <= CURRENT_DATE + $1::int
		           ELSE FALSE END
		ORDER BY due_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, daysAhead)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming debts: %w", err)
	}
	defer rows.Close()
	return scanDebts(rows)
}

// CreateReminder inserts a new active reminder and returns its id.
func (r *Repository) CreateReminder(ctx context.Context, rem *models.Reminder) (int64, error) {
	query := `
		INSERT INTO reminders (owner_id, title, reminder_date, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query, rem.OwnerID, rem.Title, rem.ReminderDate, rem.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create reminder: %w", err)
	}
	return id, nil
}

// GetActiveReminders returns all active reminders of one owner, date ascending.
func (r *Repository) GetActiveReminders(ctx context.Context, ownerID int64) ([]models.Reminder, error) {
	query := `
		SELECT id, owner_id, title, description, reminder_date, is_active, created_at
		FROM reminders
		WHERE owner_id = $1 AND is_active
		ORDER BY reminder_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// GetUpcomingReminders returns active reminders of all owners due within
// daysAhead days, date ascending.
func (r *Repository) GetUpcomingReminders(ctx context.Context, daysAhead int) ([]models.Reminder, error) {
	query := `
		SELECT id, owner_id, title, description, reminder_date, is_active, created_at
		FROM reminders
		WHERE is_active
		  AND CASE WHEN reminder_date ~ '^[0-9]{4}-[0-9]{2}-[0-9]{2}$'
		           THEN reminder_date::date <= CURRENT_DATE + $1::int
		           ELSE FALSE END
		ORDER BY reminder_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, daysAhead)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// DeactivateReminder atomically flips a reminder to inactive. Returns true iff
// a row changed. A reminder is never reactivated.
func (r *Repository) DeactivateReminder(ctx context.Context, id, ownerID int64) (bool, error) {
	query := `
		UPDATE reminders
		SET is_active = FALSE
		WHERE id = $1 AND owner_id = $2 AND is_active`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to deactivate reminder: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebt(row rowScanner) (*models.Debt, error) {
	d := &models.Debt{}
	var paidAt sql.NullString
	err := row.Scan(&d.ID, &d.OwnerID, &d.Category, &d.AmountMinor, &d.DueDate,
		&d.Description, &d.Recurrence, &d.IsPaid, &d.CreatedAt, &paidAt)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		d.PaidAt = paidAt.String
	}
	return d, nil
}

func scanDebts(rows *sql.Rows) ([]models.Debt, error) {
	var out []models.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read debts: %w", err)
	}
	return out, nil
}

func scanReminders(rows *sql.Rows) ([]models.Reminder, error) {
	var out []models.Reminder
	for rows.Next() {
		var rem models.Reminder
		if err := rows.Scan(&rem.ID, &rem.OwnerID, &rem.Title, &rem.Description,
			&rem.ReminderDate, &rem.IsActive, &rem.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		out = append(out, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reminders: %w", err)
	}
	return out, nil
}
