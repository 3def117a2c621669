package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/inkaso/collections-engine/internal/config"
	"github.com/inkaso/collections-engine/internal/domain"
)

// Notifier delivers a communication to its recipient. Delivery failure is not
// fatal to the caller: the communication record is persisted either way and a
// failed status is the operator's signal to retry.
type Notifier interface {
	Send(ctx context.Context, comm *domain.Communication) error
}

// SMTPNotifier sends communications as plain-text emails.
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
}

func NewSMTPNotifier(cfg config.SMTPConfig, logger *logrus.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *SMTPNotifier) Send(ctx context.Context, comm *domain.Communication) error {
	if comm.ToEmail == "" {
		return fmt.Errorf("communication %s has no recipient address", comm.ID)
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{comm.ToEmail}
	e.Subject = comm.Subject
	e.Text = []byte(comm.Content)

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := e.Send(addr, auth); err != nil {
		s.logger.WithFields(logrus.Fields{
			"to":      comm.ToEmail,
			"subject": comm.Subject,
		}).WithError(err).Error("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"to":      comm.ToEmail,
		"subject": comm.Subject,
	}).Info("email sent")
	return nil
}
