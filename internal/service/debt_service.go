package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkaso/collections-engine/internal/config"
	"github.com/inkaso/collections-engine/internal/domain"
	"github.com/inkaso/collections-engine/internal/notifier"
	"github.com/inkaso/collections-engine/internal/repository"
	customError "github.com/inkaso/collections-engine/pkg/errors"
	"github.com/inkaso/collections-engine/pkg/utils"
)

// DebtService owns the debt lifecycle state machine: verification, payments,
// disputes and staff-driven status advancement. Every transition is validated
// against the current state before any mutation.
type DebtService struct {
	debtRepo         repository.DebtRepository
	ledgerRepo       repository.LedgerRepository
	disputeRepo      repository.DisputeRepository
	relationshipRepo repository.RelationshipRepository
	comms            *communicator
	config           *config.Config
	log              *logrus.Logger
	now              func() time.Time
	newID            func() string
}

func NewDebtService(
	debtRepo repository.DebtRepository,
	ledgerRepo repository.LedgerRepository,
	disputeRepo repository.DisputeRepository,
	relationshipRepo repository.RelationshipRepository,
	commRepo repository.CommunicationRepository,
	n notifier.Notifier,
	cfg *config.Config,
	log *logrus.Logger,
) *DebtService {
	now := time.Now
	newID := uuid.NewString
	return &DebtService{
		debtRepo:         debtRepo,
		ledgerRepo:       ledgerRepo,
		disputeRepo:      disputeRepo,
		relationshipRepo: relationshipRepo,
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

// CreateDebt registers a new debt in draft. When the debtor-client pair has an
// already verified relationship the debt skips manual review and is created
// verified.
func (s *DebtService) CreateDebt(ctx context.Context, tenantID string, req *domain.CreateDebtRequest) (*domain.Debt, error) {
	if req.OriginalAmount <= 0 {
		return nil, customError.WrapInvalidAmount(req.OriginalAmount)
	}

	now := s.now()
	debt := &domain.Debt{
		ID:                 s.newID(),
		TenantID:           tenantID,
		ClientID:           req.ClientID,
		DebtorID:           req.DebtorID,
		ReferenceNumber:    req.ReferenceNumber,
		OriginalAmount:     req.OriginalAmount,
		CurrentAmount:      req.OriginalAmount,
		Currency:           req.Currency,
		InvoiceDate:        time.UnixMilli(req.InvoiceDate).UTC(),
		DueDate:            time.UnixMilli(req.DueDate).UTC(),
		Status:             domain.DebtStatusDraft,
		VerificationStatus: domain.VerificationPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	verified, err := s.relationshipRepo.IsVerified(ctx, tenantID, req.DebtorID, req.ClientID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if verified {
		debt.Status = domain.DebtStatusVerified
		debt.VerificationStatus = domain.VerificationApproved
		verifiedAt := now
		debt.VerifiedAt = &verifiedAt
	}

	if err := s.debtRepo.Create(ctx, debt); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"debt_id":   debt.ID,
		"status":    debt.Status,
	}).Info("debt created")

	return debt, nil
}

// Verify approves a debt after manual review. Only allowed while the debt is
// still in draft or pending verification.
func (s *DebtService) Verify(ctx context.Context, tenantID, debtID, verifiedBy string) (*domain.Debt, error) {
	debt, err := s.getDebt(ctx, tenantID, debtID)
	if err != nil {
		return nil, err
	}

	if !debt.Status.CanTransitionTo(domain.DebtStatusVerified) {
		return nil, customError.WrapInvalidState("debt", string(debt.Status), "verified")
	}

	now := s.now()
	debt.Status = domain.DebtStatusVerified
	debt.VerificationStatus = domain.VerificationApproved
	debt.VerifiedBy = &verifiedBy
	debt.VerifiedAt = &now

	if err := s.debtRepo.Update(ctx, debt); err != nil {
		return nil, wrapRepoError(err, "debt", debtID)
	}

	return debt, nil
}

// Delete removes a debt that never entered collection. Verified or later
// debts persist through to a terminal state.
func (s *DebtService) Delete(ctx context.Context, tenantID, debtID string) error {
	debt, err := s.getDebt(ctx, tenantID, debtID)
	if err != nil {
		return err
	}

	if debt.Status != domain.DebtStatusDraft && debt.Status != domain.DebtStatusPendingVerification {
		return customError.WrapInvalidState("debt", string(debt.Status), "deleted")
	}

	if err := s.debtRepo.Delete(ctx, tenantID, debtID); err != nil {
		return wrapRepoError(err, "debt", debtID)
	}

	return nil
}

// RecordPayment credits a payment directly against a debt's balance. A fully
// covering payment resolves the debt. Replayed processor events are a no-op.
func (s *DebtService) RecordPayment(ctx context.Context, tenantID, debtID string, req *domain.RecordPaymentRequest) (*domain.Payment, error) {
	if req.Amount <= 0 {
		return nil, customError.WrapInvalidAmount(req.Amount)
	}

	debt, err := s.getDebt(ctx, tenantID, debtID)
	if err != nil {
		return nil, err
	}

	if debt.Status.Terminal() || debt.Status == domain.DebtStatusDraft {
		return nil, customError.WrapInvalidState("debt", string(debt.Status), "credited")
	}

	now := s.now()
	payment := &domain.Payment{
		ID:                 s.newID(),
		TenantID:           tenantID,
		DebtID:             debtID,
		Amount:             req.Amount,
		Currency:           debt.Currency,
		PaymentMethod:      req.PaymentMethod,
		Processor:          req.Processor,
		ProcessorPaymentID: req.ProcessorPaymentID,
		Status:             domain.PaymentStatusSucceeded,
		PaidAt:             now,
		CreatedAt:          now,
	}

	resolved := debt.ApplyPayment(req.Amount, now)
	if resolved && debt.Status.CanTransitionTo(domain.DebtStatusResolvedPaid) {
		debt.Status = domain.DebtStatusResolvedPaid
	}

	if err := s.ledgerRepo.ApplyDebtPayment(ctx, payment, debt); err != nil {
		if errors.Is(err, customError.ErrDuplicateEvent) {
			s.log.WithFields(logrus.Fields{
				"debt_id":              debtID,
				"processor_payment_id": req.ProcessorPaymentID,
			}).Info("duplicate payment event ignored")
			return nil, nil
		}
		return nil, wrapRepoError(err, "debt", debtID)
	}

	s.comms.notifyDebtor(ctx, tenantID, debtID,
		"Platba přijata - Payment Received",
		fmt.Sprintf("Payment of %s received. Remaining balance: %s.",
			utils.FormatAmount(req.Amount, debt.Currency),
			utils.FormatAmount(debt.CurrentAmount, debt.Currency)))

	return payment, nil
}

// RaiseDispute pauses all collection activity on a debt. The description must
// be substantial enough for staff review.
func (s *DebtService) RaiseDispute(ctx context.Context, tenantID, debtID, raisedBy string, req *domain.SubmitDisputeRequest) (*domain.Dispute, error) {
	if n := utf8.RuneCountInString(req.Description); n < domain.MinDisputeDescriptionLen {
		return nil, customError.WrapDescriptionTooShort(n, domain.MinDisputeDescriptionLen)
	}
	if !req.DisputeType.Valid() {
		return nil, customError.NewBusinessError(customError.ErrCodeValidationError,
			fmt.Sprintf("unknown dispute type %q", req.DisputeType), nil)
	}

	debt, err := s.getDebt(ctx, tenantID, debtID)
	if err != nil {
		return nil, err
	}

	if !debt.Status.CanTransitionTo(domain.DebtStatusDisputed) {
		return nil, customError.WrapInvalidState("debt", string(debt.Status), "disputed")
	}

	now := s.now()
	dispute := &domain.Dispute{
		ID:          s.newID(),
		TenantID:    tenantID,
		DebtID:      debtID,
		RaisedBy:    raisedBy,
		DisputeType: req.DisputeType,
		Description: req.Description,
		Status:      domain.DisputeStatusOpen,
		CreatedAt:   now,
	}

	debt.Status = domain.DebtStatusDisputed
	if err := s.debtRepo.Update(ctx, debt); err != nil {
		return nil, wrapRepoError(err, "debt", debtID)
	}

	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.comms.logInbound(ctx, tenantID, debtID,
		fmt.Sprintf("Námitka: %s", req.DisputeType),
		fmt.Sprintf("Debtor raised dispute (%s): %s", req.DisputeType, req.Description))

	s.log.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"debt_id":    debtID,
		"dispute_id": dispute.ID,
	}).Info("dispute raised, collection paused")

	return dispute, nil
}

// ResolveDispute closes an open dispute. Upheld writes the debt off, rejected
// restores a working status, partial adjusts the balance and restores a
// working status.
func (s *DebtService) ResolveDispute(ctx context.Context, tenantID, disputeID string, req *domain.ResolveDisputeRequest) (*domain.Dispute, error) {
	if !req.Outcome.Valid() {
		return nil, customError.NewBusinessError(customError.ErrCodeValidationError,
			fmt.Sprintf("unknown dispute outcome %q", req.Outcome), nil)
	}

	dispute, err := s.disputeRepo.GetByID(ctx, tenantID, disputeID)
	if err != nil {
		return nil, wrapRepoError(err, "dispute", disputeID)
	}
	if dispute.Status != domain.DisputeStatusOpen {
		return nil, customError.WrapConflict("dispute", disputeID)
	}

	debt, err := s.getDebt(ctx, tenantID, dispute.DebtID)
	if err != nil {
		return nil, err
	}

	restore := req.RestoreStatus
	if restore == "" {
		restore = domain.DebtStatusVerified
	}

	switch req.Outcome {
	case domain.DisputeOutcomeUpheld:
		debt.WaivedAmount += debt.CurrentAmount
		debt.CurrentAmount = 0
		debt.Status = domain.DebtStatusWrittenOff
	case domain.DisputeOutcomeRejected:
		if !debt.Status.CanTransitionTo(restore) {
			return nil, customError.WrapInvalidState("debt", string(debt.Status), string(restore))
		}
		debt.Status = restore
	case domain.DisputeOutcomePartial:
		if req.NewAmount < 0 || req.NewAmount > debt.CurrentAmount {
			return nil, customError.WrapInvalidAmount(req.NewAmount)
		}
		if !debt.Status.CanTransitionTo(restore) {
			return nil, customError.WrapInvalidState("debt", string(debt.Status), string(restore))
		}
		debt.WaivedAmount += debt.CurrentAmount - req.NewAmount
		debt.CurrentAmount = req.NewAmount
		debt.Status = restore
	}

	if err := s.debtRepo.Update(ctx, debt); err != nil {
		return nil, wrapRepoError(err, "debt", debt.ID)
	}

	now := s.now()
	dispute.Status = domain.DisputeStatusResolved
	dispute.Outcome = req.Outcome
	dispute.ResolutionNotes = req.ResolutionNotes
	dispute.ResolvedAt = &now
	if err := s.disputeRepo.Update(ctx, dispute); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.comms.notifyDebtor(ctx, tenantID, debt.ID,
		"Námitka vyřešena - Dispute Resolved",
		fmt.Sprintf("Your dispute has been resolved: %s. Current balance: %s.",
			req.Outcome, utils.FormatAmount(debt.CurrentAmount, debt.Currency)))

	return dispute, nil
}

// Transition advances a debt through the staff-driven collection states
// (letters, attorney handoff, litigation, write-off). Engine-owned states are
// rejected here; payments, plans and disputes set those themselves.
func (s *DebtService) Transition(ctx context.Context, tenantID, debtID string, req *domain.TransitionDebtRequest) (*domain.Debt, error) {
	switch req.Status {
	case domain.DebtStatusPaymentPlanActive, domain.DebtStatusPaymentPlanDefaulted,
		domain.DebtStatusResolvedPaid, domain.DebtStatusDisputed:
		return nil, customError.NewBusinessError(customError.ErrCodeValidationError,
			fmt.Sprintf("status %s is set by the engine, not by staff", req.Status), nil)
	}

	debt, err := s.getDebt(ctx, tenantID, debtID)
	if err != nil {
		return nil, err
	}

	if !debt.Status.CanTransitionTo(req.Status) {
		return nil, customError.WrapInvalidState("debt", string(debt.Status), string(req.Status))
	}

	if req.Status == domain.DebtStatusWrittenOff {
		debt.WaivedAmount += debt.CurrentAmount
		debt.CurrentAmount = 0
	}
	debt.Status = req.Status

	if err := s.debtRepo.Update(ctx, debt); err != nil {
		return nil, wrapRepoError(err, "debt", debtID)
	}

	switch req.Status {
	case domain.DebtStatusInitialLetterSent:
		s.comms.notifyDebtor(ctx, tenantID, debtID,
			"Upomínka - Payment Demand",
			fmt.Sprintf("A formal payment demand has been issued for your outstanding balance of %s.",
				utils.FormatAmount(debt.CurrentAmount, debt.Currency)))
	case domain.DebtStatusAttorneyLetterSent:
		s.comms.notifyDebtor(ctx, tenantID, debtID,
			"Advokátní výzva - Attorney Demand Letter",
			fmt.Sprintf("An attorney demand letter has been issued for your outstanding balance of %s.",
				utils.FormatAmount(debt.CurrentAmount, debt.Currency)))
	}

	return debt, nil
}

// GetDebt returns a debt within the tenant scope.
func (s *DebtService) GetDebt(ctx context.Context, tenantID, debtID string) (*domain.Debt, error) {
	return s.getDebt(ctx, tenantID, debtID)
}

func (s *DebtService) getDebt(ctx context.Context, tenantID, debtID string) (*domain.Debt, error) {
	debt, err := s.debtRepo.GetByID(ctx, tenantID, debtID)
	if err != nil {
		return nil, wrapRepoError(err, "debt", debtID)
	}
	return debt, nil
}

// wrapRepoError maps storage errors onto the service error taxonomy.
func wrapRepoError(err error, entity, id string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return customError.WrapNotFound(entity, id)
	case errors.Is(err, customError.ErrConflict),
		errors.Is(err, customError.ErrNotFound),
		errors.Is(err, customError.ErrDuplicateEvent):
		return err
	default:
		return customError.WrapDatabaseError(err)
	}
}
