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

// PlanService owns the payment plan state machine: proposal, approval with
// installment generation, payment application and acceleration on default.
type PlanService struct {
	debtRepo   repository.DebtRepository
	planRepo   repository.PlanRepository
	ledgerRepo repository.LedgerRepository
	comms      *communicator
	config     *config.Config
	log        *logrus.Logger
	now        func() time.Time
	newID      func() string
}

func NewPlanService(
	debtRepo repository.DebtRepository,
	planRepo repository.PlanRepository,
	ledgerRepo repository.LedgerRepository,
	commRepo repository.CommunicationRepository,
	n notifier.Notifier,
	cfg *config.Config,
	log *logrus.Logger,
) *PlanService {
	now := time.Now
	newID := uuid.NewString
	return &PlanService{
		debtRepo:   debtRepo,
		planRepo:   planRepo,
		ledgerRepo: ledgerRepo,
		comms: &communicator{
			debtRepo: debtRepo,
			commRepo: commRepo,
			notifier: n,
			log:      log,
			now:      now,
			newID:    newID,
		},
		config: cfg,
		log:    log,
		now:    now,
		newID:  newID,
	}
}

// Propose creates a proposed installment schedule against a debt and moves
// the debt into mediation. The schedule must cover the full outstanding
// balance; overpayment is tolerated, underpayment is not.
func (s *PlanService) Propose(ctx context.Context, tenantID, debtID string, req *domain.ProposePlanRequest) (*domain.PaymentPlan, error) {
	if req.Months > s.config.Business.MaxInstallmentCount {
		return nil, customError.WrapTooManyMonths(req.Months, s.config.Business.MaxInstallmentCount)
	}
	if req.MonthlyAmount <= 0 || req.Months <= 0 || req.DownPayment < 0 {
		return nil, customError.WrapInvalidAmount(req.MonthlyAmount)
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = domain.FrequencyMonthly
	}
	if !frequency.Valid() {
		return nil, customError.NewBusinessError(customError.ErrCodeValidationError,
			fmt.Sprintf("unknown installment frequency %q", frequency), nil)
	}

	debt, err := s.getDebt(ctx, tenantID, debtID)
	if err != nil {
		return nil, err
	}

	if debt.Status != domain.DebtStatusInMediation &&
		!debt.Status.CanTransitionTo(domain.DebtStatusInMediation) {
		return nil, customError.WrapInvalidState("debt", string(debt.Status), "moved to mediation")
	}

	if !utils.CoversOutstanding(req.DownPayment, req.MonthlyAmount, req.Months, debt.CurrentAmount) {
		total := req.DownPayment + req.MonthlyAmount*int64(req.Months)
		return nil, customError.WrapInsufficientAmount(total, debt.CurrentAmount)
	}

	existing, err := s.planRepo.GetOpenByDebtID(ctx, tenantID, debtID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if existing != nil {
		return nil, customError.WrapConflict("payment plan", existing.ID)
	}

	now := s.now()
	plan := &domain.PaymentPlan{
		ID:                   s.newID(),
		TenantID:             tenantID,
		DebtID:               debtID,
		TotalAmount:          req.DownPayment + req.MonthlyAmount*int64(req.Months),
		DownPayment:          req.DownPayment,
		InstallmentAmount:    req.MonthlyAmount,
		InstallmentCount:     req.Months,
		InstallmentFrequency: frequency,
		StartDate:            now,
		Status:               domain.PlanStatusProposed,
		GracePeriodDays:      s.config.Business.GracePeriodDays,
		AccelerationEnabled:  true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if debt.Status != domain.DebtStatusInMediation {
		debt.Status = domain.DebtStatusInMediation
		if err := s.debtRepo.Update(ctx, debt); err != nil {
			return nil, wrapRepoError(err, "debt", debtID)
		}
	}

	reason := req.Reason
	if reason == "" {
		reason = "Not provided"
	}
	s.comms.logInbound(ctx, tenantID, debtID,
		"Žádost o splátkový kalendář",
		fmt.Sprintf("Debtor requested payment plan: %d %s payments of %s with %s down payment. Reason: %s",
			req.Months, frequency,
			utils.FormatAmount(req.MonthlyAmount, debt.Currency),
			utils.FormatAmount(req.DownPayment, debt.Currency),
			reason))

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"debt_id":   debtID,
		"plan_id":   plan.ID,
	}).Info("payment plan proposed")

	return plan, nil
}

// Approve activates a proposed plan and generates its full installment
// schedule in one transaction. Approving anything but a proposed plan is an
// error, never a second generation.
func (s *PlanService) Approve(ctx context.Context, tenantID, planID string) (*domain.PlanScheduleResponse, error) {
	plan, err := s.getPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	if !plan.Status.CanTransitionTo(domain.PlanStatusActive) {
		return nil, customError.WrapInvalidState("payment plan", string(plan.Status), "approved")
	}

	debt, err := s.getDebt(ctx, tenantID, plan.DebtID)
	if err != nil {
		return nil, err
	}
	if !debt.Status.CanTransitionTo(domain.DebtStatusPaymentPlanActive) {
		return nil, customError.WrapInvalidState("debt", string(debt.Status), "placed on a payment plan")
	}

	now := s.now()
	installments := make([]*domain.Installment, 0, plan.InstallmentCount)
	for n := 1; n <= plan.InstallmentCount; n++ {
		installments = append(installments, &domain.Installment{
			ID:                s.newID(),
			TenantID:          tenantID,
			PaymentPlanID:     plan.ID,
			DebtID:            plan.DebtID,
			InstallmentNumber: n,
			Amount:            plan.InstallmentAmount,
			DueDate:           utils.InstallmentDueDate(plan.StartDate, n, plan.InstallmentFrequency),
			Status:            domain.InstallmentStatusPending,
			CreatedAt:         now,
		})
	}

	plan.Status = domain.PlanStatusActive
	plan.AgreedByClient = true
	plan.AgreementDate = &now
	debt.Status = domain.DebtStatusPaymentPlanActive

	if err := s.ledgerRepo.ActivatePlan(ctx, plan, debt, installments); err != nil {
		return nil, wrapRepoError(err, "payment plan", planID)
	}

	s.comms.notifyDebtor(ctx, tenantID, plan.DebtID,
		"Splátkový kalendář schválen - Payment Plan Approved",
		fmt.Sprintf("Your payment plan has been approved: %d %s installments of %s. First installment due %s.",
			plan.InstallmentCount, plan.InstallmentFrequency,
			utils.FormatAmount(plan.InstallmentAmount, debt.Currency),
			installments[0].DueDate.Format("2006-01-02")))

	s.log.WithFields(logrus.Fields{
		"tenant_id":    tenantID,
		"plan_id":      planID,
		"installments": len(installments),
	}).Info("payment plan approved")

	return &domain.PlanScheduleResponse{Plan: plan, Installments: installments}, nil
}

// Reject cancels a proposed plan and returns the debt to the verification
// queue.
func (s *PlanService) Reject(ctx context.Context, tenantID, planID, reason string) (*domain.PaymentPlan, error) {
	plan, err := s.getPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	if plan.Status != domain.PlanStatusProposed {
		return nil, customError.WrapInvalidState("payment plan", string(plan.Status), "rejected")
	}

	debt, err := s.getDebt(ctx, tenantID, plan.DebtID)
	if err != nil {
		return nil, err
	}

	plan.Status = domain.PlanStatusCancelled
	debt.Status = domain.DebtStatusPendingVerification

	if err := s.ledgerRepo.CancelPlan(ctx, plan, debt); err != nil {
		return nil, wrapRepoError(err, "payment plan", planID)
	}

	s.comms.notifyDebtor(ctx, tenantID, plan.DebtID,
		"Splátkový kalendář zamítnut - Payment Plan Rejected",
		fmt.Sprintf("Your payment plan request was rejected. Reason: %s", reason))

	return plan, nil
}

// RecordInstallmentPayment applies a payment to an installment and its parent
// debt as one atomic unit, completing the plan and resolving the debt when
// the payment is the last one. Replayed processor events are a no-op.
func (s *PlanService) RecordInstallmentPayment(ctx context.Context, tenantID, installmentID string, req *domain.RecordInstallmentPaymentRequest) (*domain.Payment, error) {
	if req.Amount <= 0 {
		return nil, customError.WrapInvalidAmount(req.Amount)
	}

	installment, err := s.planRepo.GetInstallmentByID(ctx, tenantID, installmentID)
	if err != nil {
		return nil, wrapRepoError(err, "installment", installmentID)
	}

	if installment.Paid {
		return nil, customError.WrapConflict("installment", installmentID)
	}
	if installment.Status == domain.InstallmentStatusWaived {
		return nil, customError.WrapInvalidState("installment", string(installment.Status), "paid")
	}

	plan, err := s.getPlan(ctx, tenantID, installment.PaymentPlanID)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanStatusActive {
		return nil, customError.WrapInvalidState("payment plan", string(plan.Status), "paid against")
	}

	debt, err := s.getDebt(ctx, tenantID, plan.DebtID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	installment.RecordPayment(req.Amount, now)
	resolved := debt.ApplyPayment(req.Amount, now)
	if resolved && debt.Status.CanTransitionTo(domain.DebtStatusResolvedPaid) {
		debt.Status = domain.DebtStatusResolvedPaid
	}

	var planUpdate *domain.PaymentPlan
	completed, err := s.planCompleted(ctx, plan.ID, installment)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if completed && plan.Status.CanTransitionTo(domain.PlanStatusCompleted) {
		plan.Status = domain.PlanStatusCompleted
		planUpdate = plan
	}

	payment := &domain.Payment{
		ID:                 s.newID(),
		TenantID:           tenantID,
		DebtID:             debt.ID,
		InstallmentID:      &installment.ID,
		Amount:             req.Amount,
		Currency:           debt.Currency,
		PaymentMethod:      req.PaymentMethod,
		Processor:          req.Processor,
		ProcessorPaymentID: req.ProcessorPaymentID,
		Status:             domain.PaymentStatusSucceeded,
		PaidAt:             now,
		CreatedAt:          now,
	}

	if err := s.ledgerRepo.ApplyInstallmentPayment(ctx, payment, installment, debt, planUpdate); err != nil {
		if errors.Is(err, customError.ErrDuplicateEvent) {
			s.log.WithFields(logrus.Fields{
				"installment_id":       installmentID,
				"processor_payment_id": req.ProcessorPaymentID,
			}).Info("duplicate payment event ignored")
			return nil, nil
		}
		return nil, wrapRepoError(err, "installment", installmentID)
	}

	s.comms.notifyDebtor(ctx, tenantID, debt.ID,
		"Platba přijata - Payment Received",
		fmt.Sprintf("Payment of %s received for installment %d. Remaining balance: %s.",
			utils.FormatAmount(req.Amount, debt.Currency),
			installment.InstallmentNumber,
			utils.FormatAmount(debt.CurrentAmount, debt.Currency)))

	if completed {
		s.comms.notifyDebtor(ctx, tenantID, debt.ID,
			"Splátkový kalendář dokončen - Payment Plan Completed",
			"All installments of your payment plan have been paid. Thank you.")
	}

	return payment, nil
}

// Accelerate defaults an active plan: remaining installments are waived and
// the full remaining balance becomes due as a lump sum. Only valid from
// active, so repeated sweeps against a defaulted plan are a safe no-op.
func (s *PlanService) Accelerate(ctx context.Context, tenantID, planID string) error {
	plan, err := s.getPlan(ctx, tenantID, planID)
	if err != nil {
		return err
	}

	if !plan.Status.CanTransitionTo(domain.PlanStatusDefaulted) {
		return customError.WrapInvalidState("payment plan", string(plan.Status), "accelerated")
	}

	debt, err := s.getDebt(ctx, tenantID, plan.DebtID)
	if err != nil {
		return err
	}
	if !debt.Status.CanTransitionTo(domain.DebtStatusPaymentPlanDefaulted) {
		return customError.WrapInvalidState("debt", string(debt.Status), "defaulted")
	}

	now := s.now()
	plan.Status = domain.PlanStatusDefaulted
	plan.DefaultDate = &now
	debt.Status = domain.DebtStatusPaymentPlanDefaulted

	if err := s.ledgerRepo.AcceleratePlan(ctx, plan, debt); err != nil {
		return wrapRepoError(err, "payment plan", planID)
	}

	s.comms.notifyDebtor(ctx, tenantID, plan.DebtID,
		"URGENT: Celková částka splatná okamžitě - Full Balance Due",
		fmt.Sprintf("Due to missed payment, your payment plan has been accelerated. Full remaining balance of %s is now due immediately.\n\nPlease contact us immediately to discuss resolution.",
			utils.FormatAmount(debt.CurrentAmount, debt.Currency)))

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"plan_id":   planID,
		"debt_id":   plan.DebtID,
	}).Warn("payment plan accelerated")

	return nil
}

// GetSchedule returns a plan with its installments.
func (s *PlanService) GetSchedule(ctx context.Context, tenantID, planID string) (*domain.PlanScheduleResponse, error) {
	plan, err := s.getPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	installments, err := s.planRepo.ListInstallments(ctx, plan.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.PlanScheduleResponse{Plan: plan, Installments: installments}, nil
}

// planCompleted reports whether every installment of the plan is paid, taking
// the in-flight installment's new state into account.
func (s *PlanService) planCompleted(ctx context.Context, planID string, updated *domain.Installment) (bool, error) {
	installments, err := s.planRepo.ListInstallments(ctx, planID)
	if err != nil {
		return false, err
	}

	for _, inst := range installments {
		if inst.ID == updated.ID {
			inst = updated
		}
		if !inst.Paid {
			return false, nil
		}
	}
	return true, nil
}

func (s *PlanService) getPlan(ctx context.Context, tenantID, planID string) (*domain.PaymentPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, tenantID, planID)
	if err != nil {
		return nil, wrapRepoError(err, "payment plan", planID)
	}
	return plan, nil
}

func (s *PlanService) getDebt(ctx context.Context, tenantID, debtID string) (*domain.Debt, error) {
	debt, err := s.debtRepo.GetByID(ctx, tenantID, debtID)
	if err != nil {
		return nil, wrapRepoError(err, "debt", debtID)
	}
	return debt, nil
}
