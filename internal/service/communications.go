package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkaso/collections-engine/internal/domain"
	"github.com/inkaso/collections-engine/internal/notifier"
	"github.com/inkaso/collections-engine/internal/repository"
)

// communicator persists the immutable communication log and drives outbound
// delivery. Delivery failure never propagates: the business transition that
// produced the notice stays authoritative and the failed record is the
// operator's retry signal.
type communicator struct {
	debtRepo repository.DebtRepository
	commRepo repository.CommunicationRepository
	notifier notifier.Notifier
	log      *logrus.Logger
	now      func() time.Time
	newID    func() string
}

// notifyDebtor sends an outbound email notice for a debt and records it.
func (c *communicator) notifyDebtor(ctx context.Context, tenantID, debtID, subject, content string) {
	comm := &domain.Communication{
		ID:        c.newID(),
		TenantID:  tenantID,
		DebtID:    debtID,
		Type:      domain.CommunicationEmail,
		Direction: domain.DirectionOutbound,
		Subject:   subject,
		Content:   content,
		Status:    domain.CommunicationStatusPending,
		CreatedAt: c.now(),
	}

	email, err := c.debtRepo.GetDebtorEmail(ctx, tenantID, debtID)
	if err != nil {
		c.log.WithError(err).WithField("debt_id", debtID).Warn("could not resolve debtor email")
	}
	comm.ToEmail = email

	if err := c.notifier.Send(ctx, comm); err != nil {
		comm.Status = domain.CommunicationStatusFailed
	} else {
		sentAt := c.now()
		comm.Status = domain.CommunicationStatusSent
		comm.SentAt = &sentAt
	}

	if err := c.commRepo.Create(ctx, comm); err != nil {
		c.log.WithError(err).WithField("debt_id", debtID).Error("failed to persist communication record")
	}
}

// logInbound records a debtor-originated message without delivering anything.
func (c *communicator) logInbound(ctx context.Context, tenantID, debtID, subject, content string) {
	comm := &domain.Communication{
		ID:        c.newID(),
		TenantID:  tenantID,
		DebtID:    debtID,
		Type:      domain.CommunicationPortalMessage,
		Direction: domain.DirectionInbound,
		Subject:   subject,
		Content:   content,
		Status:    domain.CommunicationStatusSent,
		CreatedAt: c.now(),
	}

	if err := c.commRepo.Create(ctx, comm); err != nil {
		c.log.WithError(err).WithField("debt_id", debtID).Error("failed to persist communication record")
	}
}
