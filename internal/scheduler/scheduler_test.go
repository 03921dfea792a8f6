package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/saeedhm/debtbot/internal/models"
)

type stubStore struct {
	debts     []models.Debt
	reminders []models.Reminder

	debtsErr     error
	remindersErr error

	deactivated []int64
}

func (s *stubStore) GetUpcomingDebts(ctx context.Context, daysAhead int) ([]models.Debt, error) {
	if s.debtsErr != nil {
		return nil, s.debtsErr
	}
	return s.debts, nil
}

func (s *stubStore) GetUpcomingReminders(ctx context.Context, daysAhead int) ([]models.Reminder, error) {
	if s.remindersErr != nil {
		return nil, s.remindersErr
	}
	var out []models.Reminder
	for _, rem := range s.reminders {
		if rem.IsActive {
			out = append(out, rem)
		}
	}
	return out, nil
}

func (s *stubStore) DeactivateReminder(ctx context.Context, id, ownerID int64) (bool, error) {
	for i := range s.reminders {
		if s.reminders[i].ID == id && s.reminders[i].OwnerID == ownerID && s.reminders[i].IsActive {
			s.reminders[i].IsActive = false
			s.deactivated = append(s.deactivated, id)
			return true, nil
		}
	}
	return false, nil
}

type sentMessage struct {
	ownerID int64
	text    string
}

type stubNotifier struct {
	sent    []sentMessage
	failFor map[int64]error
}

func (n *stubNotifier) Send(ownerID int64, text string) error {
	if err, ok := n.failFor[ownerID]; ok {
		return err
	}
	n.sent = append(n.sent, sentMessage{ownerID: ownerID, text: text})
	return nil
}

type stubAlerter struct {
	calls  []string
	counts []int
}

func (a *stubAlerter) SweepFailures(job string, failed int, firstErr error) error {
	a.calls = append(a.calls, job)
	a.counts = append(a.counts, failed)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestScheduler(store Store, n Notifier, a Alerter) *Scheduler {
	s := New(store, n, a, quietLogger(), time.UTC)
	return s.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	})
}

func sweepFixture() *stubStore {
	return &stubStore{
		debts: []models.Debt{
			{ID: 1, OwnerID: 10, Category: "rent", AmountMinor: 2000000, DueDate: "2024-06-01"},
			{ID: 2, OwnerID: 20, Category: "utilities", AmountMinor: 50000, DueDate: "2024-06-02"},
			{ID: 3, OwnerID: 30, Category: "loan", AmountMinor: 750000, DueDate: "2024-06-06"},
			// Outside the 7-day window; a correct query would not return it,
			// the sweep must still skip it.
			{ID: 4, OwnerID: 40, Category: "insurance", AmountMinor: 90000, DueDate: "2024-06-11"},
		},
	}
}

func TestRunDailySweep_TierSelection(t *testing.T) {
	store := sweepFixture()
	n := &stubNotifier{}
	s := newTestScheduler(store, n, nil)

	s.RunDailySweep(context.Background())

	if len(n.sent) != 3 {
		t.Fatalf("sent %d messages, want 3: %+v", len(n.sent), n.sent)
	}

	wantByOwner := map[int64]string{
		10: "due today",
		20: "due tomorrow",
		30: "due in 5 days",
	}
	for _, msg := range n.sent {
		want, ok := wantByOwner[msg.ownerID]
		if !ok {
			t.Errorf("unexpected notification to owner %d: %q", msg.ownerID, msg.text)
			continue
		}
		if !strings.Contains(msg.text, want) {
			t.Errorf("owner %d got %q, want wording %q", msg.ownerID, msg.text, want)
		}
		delete(wantByOwner, msg.ownerID)
	}
	for owner := range wantByOwner {
		t.Errorf("owner %d received no notification", owner)
	}
}

func TestRunDailySweep_OwnerBatchesContiguous(t *testing.T) {
	store := &stubStore{
		debts: []models.Debt{
			{ID: 1, OwnerID: 10, Category: "rent", AmountMinor: 1, DueDate: "2024-06-01"},
			{ID: 2, OwnerID: 20, Category: "loan", AmountMinor: 1, DueDate: "2024-06-02"},
			{ID: 3, OwnerID: 10, Category: "utilities", AmountMinor: 1, DueDate: "2024-06-03"},
		},
	}
	n := &stubNotifier{}
	s := newTestScheduler(store, n, nil)

	s.RunDailySweep(context.Background())

	if len(n.sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(n.sent))
	}
	// Owner 10 appears first, so both of its debts go out before owner 20's.
	order := []int64{n.sent[0].ownerID, n.sent[1].ownerID, n.sent[2].ownerID}
	if order[0] != 10 || order[1] != 10 || order[2] != 20 {
		t.Errorf("delivery order by owner = %v, want [10 10 20]", order)
	}
}

func TestRunDailySweep_FailureIsolation(t *testing.T) {
	store := sweepFixture()
	n := &stubNotifier{failFor: map[int64]error{10: errors.New("chat unreachable")}}
	a := &stubAlerter{}
	s := newTestScheduler(store, n, a)

	s.RunDailySweep(context.Background())

	if len(n.sent) != 2 {
		t.Fatalf("sent %d messages after one owner failed, want 2", len(n.sent))
	}
	for _, msg := range n.sent {
		if msg.ownerID == 10 {
			t.Errorf("message delivered to failing owner: %+v", msg)
		}
	}
	if len(a.calls) != 1 || a.counts[0] != 1 {
		t.Errorf("alerter calls = %v counts = %v, want one call with 1 failure", a.calls, a.counts)
	}
}

func TestRunDailySweep_NoAlertWithoutFailures(t *testing.T) {
	a := &stubAlerter{}
	s := newTestScheduler(sweepFixture(), &stubNotifier{}, a)

	s.RunDailySweep(context.Background())

	if len(a.calls) != 0 {
		t.Errorf("alerter called on a clean sweep: %v", a.calls)
	}
}

func TestRunReminderSweep_DeactivateAfterSend(t *testing.T) {
	store := &stubStore{
		reminders: []models.Reminder{
			{ID: 1, OwnerID: 10, Title: "call insurer", Description: "policy renewal", IsActive: true},
			{ID: 2, OwnerID: 20, Title: "renew passport", IsActive: true},
		},
	}
	n := &stubNotifier{failFor: map[int64]error{10: errors.New("chat unreachable")}}
	s := newTestScheduler(store, n, nil)

	s.RunReminderSweep(context.Background())

	if len(store.deactivated) != 1 || store.deactivated[0] != 2 {
		t.Fatalf("deactivated = %v, want only reminder 2", store.deactivated)
	}
	if !store.reminders[0].IsActive {
		t.Fatal("undelivered reminder was deactivated")
	}

	// Transport recovers; the next sweep retries the failed reminder with
	// identical content and then deactivates it.
	n.failFor = nil
	s.RunReminderSweep(context.Background())

	var retried *sentMessage
	for i := range n.sent {
		if n.sent[i].ownerID == 10 {
			retried = &n.sent[i]
		}
	}
	if retried == nil {
		t.Fatal("failed reminder was not retried")
	}
	if !strings.Contains(retried.text, "call insurer") || !strings.Contains(retried.text, "policy renewal") {
		t.Errorf("retried content = %q", retried.text)
	}
	if store.reminders[0].IsActive {
		t.Error("reminder still active after successful retry")
	}

	// Deactivated reminders never come back.
	before := len(n.sent)
	s.RunReminderSweep(context.Background())
	if len(n.sent) != before {
		t.Error("inactive reminder notified again")
	}
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(&stubStore{}, &stubNotifier{}, nil)

	if s.Running() {
		t.Fatal("new scheduler reports running")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.Running() {
		t.Fatal("scheduler not running after Start")
	}

	// Second Start must not register a duplicate job.
	if err := s.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("registered jobs = %d, want 1", got)
	}

	s.Stop()
	if s.Running() {
		t.Fatal("scheduler running after Stop")
	}
	s.Stop() // no-op

	// A stopped scheduler can be started again.
	if err := s.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("registered jobs after restart = %d, want 1", got)
	}
	s.Stop()
}

func TestRunDailySweep_StoreErrorAborts(t *testing.T) {
	store := &stubStore{debtsErr: errors.New("db down")}
	n := &stubNotifier{}
	s := newTestScheduler(store, n, nil)

	s.RunDailySweep(context.Background())

	if len(n.sent) != 0 {
		t.Errorf("notifications sent despite store failure: %+v", n.sent)
	}
}
