package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/saeedhm/debtbot/internal/models"
	"github.com/saeedhm/debtbot/internal/service"
)

// Notifier delivers a text message to an owner. It must be safe to call
// repeatedly for the same owner in immediate succession.
type Notifier interface {
	Send(ownerID int64, text string) error
}

// Store is the slice of the obligation store the sweeps need.
type Store interface {
	GetUpcomingDebts(ctx context.Context, daysAhead int) ([]models.Debt, error)
	GetUpcomingReminders(ctx context.Context, daysAhead int) ([]models.Reminder, error)
	DeactivateReminder(ctx context.Context, id, ownerID int64) (bool, error)
}

// Alerter receives a failure summary after a sweep that had delivery errors.
type Alerter interface {
	SweepFailures(job string, failed int, firstErr error) error
}

const (
	// Debts are notified daily while due within this window; unpaid items are
	// re-notified every day, on purpose.
	debtLookaheadDays = 7
	// One-off reminders fire within a day of their date and are deactivated
	// only after a confirmed send.
	reminderLookaheadDays = 1

	// Daily trigger at 09:00 in the reference timezone.
	dailySpec = "0 9 * * *"

	stopTimeout = 30 * time.Second
)

// Scheduler owns the single recurring daily job that sweeps for due
// obligations. It is Stopped until Start and holds no state beyond the
// running flag and the registered entry, so independent instances can
// coexist in tests.
type Scheduler struct {
	store    Store
	notifier Notifier
	alerter  Alerter // optional, may be nil
	log      *logrus.Logger
	loc      *time.Location
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	running bool
}

// New initializes a stopped scheduler. loc is the reference timezone for the
// trigger and all day-count computations; alerter may be nil.
func New(store Store, notifier Notifier, alerter Alerter, log *logrus.Logger, loc *time.Location) *Scheduler {
	return &Scheduler{
		store:    store,
		notifier: notifier,
		alerter:  alerter,
		log:      log,
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock overrides the scheduler clock, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start registers the daily job and begins triggering it. Calling Start on a
// running scheduler is a no-op; it never registers a second job. Each trigger
// runs in its own goroutine, so a sweep overrunning 24h delays only its own
// completion, never the next trigger (such an overrun is a configuration
// problem, not a crash condition).
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New(cron.WithLocation(s.loc))
	id, err := c.AddFunc(dailySpec, s.runSweeps)
	if err != nil {
		return fmt.Errorf("failed to register daily sweep: %w", err)
	}
	c.Start()

	s.cron = c
	s.entryID = id
	s.running = true
	s.log.Infof("Scheduler started: daily sweep at 09:00 %s", s.loc)
	return nil
}

// Stop cancels the recurring trigger so no future sweep fires, then waits a
// bounded time for an in-flight sweep to finish. Stopping a stopped scheduler
// is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	s.cron.Remove(s.entryID)
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(stopTimeout):
		s.log.Warnf("Scheduler stopped without waiting for in-flight sweep (exceeded %s)", stopTimeout)
	}

	s.cron = nil
	s.running = false
	s.log.Info("Scheduler stopped")
}

// Running reports whether the daily job is registered.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runSweeps() {
	ctx := context.Background()
	s.RunDailySweep(ctx)
	s.RunReminderSweep(ctx)
}

// RunDailySweep notifies every owner about each unpaid debt due within the
// lookahead window. A delivery failure is logged and skipped; the item stays
// eligible and the next day's run is the retry. Nothing is deduplicated
// across runs.
func (s *Scheduler) RunDailySweep(ctx context.Context) {
	debts, err := s.store.GetUpcomingDebts(ctx, debtLookaheadDays)
	if err != nil {
		s.log.Errorf("Daily sweep: failed to query upcoming debts: %v", err)
		return
	}

	// Group by owner in order of first appearance so each owner's batch is
	// processed contiguously, keeping per-owner failure isolation possible.
	owners := make([]int64, 0, len(debts))
	byOwner := make(map[int64][]models.Debt, len(debts))
	for _, d := range debts {
		if _, ok := byOwner[d.OwnerID]; !ok {
			owners = append(owners, d.OwnerID)
		}
		byOwner[d.OwnerID] = append(byOwner[d.OwnerID], d)
	}

	now := s.now()
	var failed int
	var firstErr error
	for _, ownerID := range owners {
		for _, d := range byOwner[ownerID] {
			days := service.DaysUntilDue(d.DueDate, now, s.loc)
			if days > debtLookaheadDays {
				// Recompute rather than trust the query filter: the wording
				// tier depends on the exact day count.
				continue
			}
			msg := service.DebtReminderMessage(d, days, s.loc)
			if err := s.notifier.Send(ownerID, msg); err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
				s.log.Errorf("Daily sweep: failed to notify owner %d about debt %d: %v", ownerID, d.ID, err)
				continue
			}
		}
	}

	s.log.Infof("Daily sweep finished: %d debts in window, %d delivery failures", len(debts), failed)
	s.reportFailures("daily debt sweep", failed, firstErr)
}

// RunReminderSweep delivers due one-off reminders and deactivates each one
// only after its send succeeded. A failed send leaves the reminder active, so
// the next sweep retries it with identical content.
func (s *Scheduler) RunReminderSweep(ctx context.Context) {
	reminders, err := s.store.GetUpcomingReminders(ctx, reminderLookaheadDays)
	if err != nil {
		s.log.Errorf("Reminder sweep: failed to query upcoming reminders: %v", err)
		return
	}

	var failed int
	var firstErr error
	for _, rem := range reminders {
		msg := service.OneOffReminderMessage(rem)
		if err := s.notifier.Send(rem.OwnerID, msg); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			s.log.Errorf("Reminder sweep: failed to notify owner %d about reminder %d: %v", rem.OwnerID, rem.ID, err)
			continue
		}
		if _, err := s.store.DeactivateReminder(ctx, rem.ID, rem.OwnerID); err != nil {
			// Delivered but still active; the owner may get it once more
			// tomorrow, which beats losing it.
			s.log.Errorf("Reminder sweep: failed to deactivate reminder %d: %v", rem.ID, err)
		}
	}

	s.log.Infof("Reminder sweep finished: %d reminders in window, %d delivery failures", len(reminders), failed)
	s.reportFailures("one-off reminder sweep", failed, firstErr)
}

func (s *Scheduler) reportFailures(job string, failed int, firstErr error) {
	if failed == 0 || s.alerter == nil {
		return
	}
	if err := s.alerter.SweepFailures(job, failed, firstErr); err != nil {
		s.log.Errorf("Failed to send %s alert: %v", job, err)
	}
}
