package alert

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/saeedhm/debtbot/internal/config"
)

// Sender emails sweep failure summaries to the operator. It is a pure
// observability hook: failed deliveries stay eligible for the next scheduled
// run regardless of whether the alert itself goes out.
type Sender struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewSender creates a new alert sender
func NewSender(cfg *config.Config, log *logrus.Logger) *Sender {
	return &Sender{cfg: cfg, log: log}
}

// Enabled reports whether alerting is configured.
func (s *Sender) Enabled() bool {
	return s.cfg.AlertEmail != "" && s.cfg.SMTPHost != ""
}

// SweepFailures sends a failure summary for one sweep run.
func (s *Sender) SweepFailures(job string, failed int, firstErr error) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.AlertEmail}
	e.Subject = fmt.Sprintf("Sweep delivery failures: %s", job)

	body := fmt.Sprintf(
		"The %s finished at %s with %d failed deliveries.\n",
		job, time.Now().Format("2006-01-02 15:04:05"), failed,
	)
	if firstErr != nil {
		body += fmt.Sprintf("First error: %v\n", firstErr)
	}
	body += "\nFailed items remain eligible and will be retried on the next scheduled run.\n"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.log.Errorf("Failed to send alert email to %s: %v", s.cfg.AlertEmail, err)
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	s.log.Infof("Alert email sent to %s: %s", s.cfg.AlertEmail, e.Subject)
	return nil
}
