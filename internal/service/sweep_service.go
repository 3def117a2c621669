package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkaso/collections-engine/internal/config"
	"github.com/inkaso/collections-engine/internal/domain"
	"github.com/inkaso/collections-engine/internal/notifier"
	"github.com/inkaso/collections-engine/internal/repository"
	customError "github.com/inkaso/collections-engine/pkg/errors"
	"github.com/inkaso/collections-engine/pkg/utils"
)

// SweepService runs the time-driven batch jobs that advance lifecycle state
// without human interaction. Each job is a single idempotent pass over every
// active tenant; failures on one item are logged and never abort the batch.
// There is no cross-run locking: status-filtered queries make overlapping
// runs safe.
type SweepService struct {
	tenantRepo repository.TenantRepository
	planRepo   repository.PlanRepository
	debtRepo   repository.DebtRepository
	plans      *PlanService
	comms      *communicator
	config     *config.Config
	log        *logrus.Logger
	now        func() time.Time
}

func NewSweepService(
	tenantRepo repository.TenantRepository,
	planRepo repository.PlanRepository,
	debtRepo repository.DebtRepository,
	commRepo repository.CommunicationRepository,
	plans *PlanService,
	n notifier.Notifier,
	cfg *config.Config,
	log *logrus.Logger,
) *SweepService {
	now := time.Now
	return &SweepService{
		tenantRepo: tenantRepo,
		planRepo:   planRepo,
		debtRepo:   debtRepo,
		plans:      plans,
		comms: &communicator{
			debtRepo: debtRepo,
			commRepo: commRepo,
			notifier: n,
			log:      log,
			now:      now,
			newID:    uuid.NewString,
		},
		config: cfg,
		log:    log,
		now:    now,
	}
}

// SendPaymentReminders notifies debtors of installments coming due within the
// reminder lead window. Reminders are informational and deliberately
// at-least-once: re-running within the window resends.
func (s *SweepService) SendPaymentReminders(ctx context.Context) (int, error) {
	now := s.now()
	end := now.AddDate(0, 0, s.config.Business.ReminderLeadDays)

	return s.forEachTenant(ctx, "payment_reminders", func(tenantID string) (int, error) {
		installments, err := s.planRepo.ListInstallmentsDueInRange(ctx, tenantID, now, end, domain.InstallmentStatusPending)
		if err != nil {
			return 0, err
		}

		for _, inst := range installments {
			s.comms.notifyDebtor(ctx, tenantID, inst.DebtID,
				"Připomínka splátky - Payment Reminder",
				fmt.Sprintf("Your installment of %s is due in %d days (%s).\n\nPlease make sure to pay on time to avoid late fees.",
					utils.FormatAmount(inst.Amount, "CZK"),
					s.config.Business.ReminderLeadDays,
					inst.DueDate.Format("2006-01-02")))
		}

		return len(installments), nil
	})
}

// ProcessAutoCharges handles installments due strictly today. Automatic
// card charging is not wired to a processor yet, so the job only sends a
// payment-due notice and mutates nothing.
func (s *SweepService) ProcessAutoCharges(ctx context.Context) (int, error) {
	today := utils.Midnight(s.now())
	tomorrow := today.AddDate(0, 0, 1)

	return s.forEachTenant(ctx, "auto_charges", func(tenantID string) (int, error) {
		installments, err := s.planRepo.ListInstallmentsDueInRange(ctx, tenantID, today, tomorrow, domain.InstallmentStatusPending)
		if err != nil {
			return 0, err
		}

		for _, inst := range installments {
			s.comms.notifyDebtor(ctx, tenantID, inst.DebtID,
				"Splátka splatná dnes - Payment Due Today",
				fmt.Sprintf("Your installment of %s is due today. Please pay to avoid late fees.",
					utils.FormatAmount(inst.Amount, "CZK")))
		}

		return len(installments), nil
	})
}

// CheckOverdueInstallments marks pending installments past the overdue cutoff
// as overdue and sends an overdue notice. Already overdue installments are
// excluded by the status filter, which makes re-runs idempotent.
func (s *SweepService) CheckOverdueInstallments(ctx context.Context) (int, error) {
	cutoff := s.now().AddDate(0, 0, -s.config.Business.OverdueAfterDays)

	return s.forEachTenant(ctx, "overdue_installments", func(tenantID string) (int, error) {
		installments, err := s.planRepo.ListInstallmentsPastDue(ctx, tenantID, cutoff, domain.InstallmentStatusPending)
		if err != nil {
			return 0, err
		}

		marked := 0
		for _, inst := range installments {
			inst.Status = domain.InstallmentStatusOverdue
			if err := s.planRepo.UpdateInstallment(ctx, inst); err != nil {
				s.log.WithError(err).WithFields(logrus.Fields{
					"tenant_id":      tenantID,
					"installment_id": inst.ID,
				}).Error("failed to mark installment overdue")
				continue
			}
			marked++

			// The overdue transition is authoritative even when the notice
			// cannot be delivered.
			s.comms.notifyDebtor(ctx, tenantID, inst.DebtID,
				"URGENT: Splátka po splatnosti - Overdue Payment",
				fmt.Sprintf("Your installment of %s is overdue. Grace period ending soon. Full balance may become due if not paid.",
					utils.FormatAmount(inst.Amount, "CZK")))
		}

		return marked, nil
	})
}

// TriggerAccelerations defaults active plans whose overdue installments have
// exhausted the grace period. Accelerate is only valid from active, so a
// plan already defaulted by an overlapping run is skipped, not re-waived.
func (s *SweepService) TriggerAccelerations(ctx context.Context) (int, error) {
	now := s.now()

	return s.forEachTenant(ctx, "accelerations", func(tenantID string) (int, error) {
		plans, err := s.planRepo.ListAccelerationCandidates(ctx, tenantID, now)
		if err != nil {
			return 0, err
		}

		accelerated := 0
		for _, plan := range plans {
			if err := s.plans.Accelerate(ctx, tenantID, plan.ID); err != nil {
				if errors.Is(err, customError.ErrInvalidState) {
					s.log.WithFields(logrus.Fields{
						"tenant_id": tenantID,
						"plan_id":   plan.ID,
					}).Debug("plan no longer active, skipping acceleration")
					continue
				}
				s.log.WithError(err).WithFields(logrus.Fields{
					"tenant_id": tenantID,
					"plan_id":   plan.ID,
				}).Error("failed to accelerate plan")
				continue
			}
			accelerated++
		}

		return accelerated, nil
	})
}

// forEachTenant runs one tenant-scoped pass per active tenant, logging and
// skipping tenants that fail so one bad tenant cannot starve the rest.
func (s *SweepService) forEachTenant(ctx context.Context, job string, fn func(tenantID string) (int, error)) (int, error) {
	tenantIDs, err := s.tenantRepo.ListActiveIDs(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	total := 0
	for _, tenantID := range tenantIDs {
		n, err := fn(tenantID)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"job":       job,
				"tenant_id": tenantID,
			}).Error("sweep failed for tenant")
			continue
		}
		total += n
	}

	s.log.WithFields(logrus.Fields{
		"job":       job,
		"processed": total,
	}).Info("sweep completed")

	return total, nil
}
