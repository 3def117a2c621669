package domain

import (
	"time"
)

// DebtStatus is the lifecycle state of a debt. Transitions are validated
// through CanTransitionTo; handlers never write raw status strings.
type DebtStatus string

const (
	DebtStatusDraft                DebtStatus = "draft"
	DebtStatusPendingVerification  DebtStatus = "pending_verification"
	DebtStatusVerified             DebtStatus = "verified"
	DebtStatusInitialLetterSent    DebtStatus = "initial_letter_sent"
	DebtStatusAttorneyReview       DebtStatus = "attorney_review"
	DebtStatusAttorneyLetterSent   DebtStatus = "attorney_letter_sent"
	DebtStatusInMediation          DebtStatus = "in_mediation"
	DebtStatusPaymentPlanActive    DebtStatus = "payment_plan_active"
	DebtStatusPaymentPlanDefaulted DebtStatus = "payment_plan_defaulted"
	DebtStatusResolvedPaid         DebtStatus = "resolved_paid"
	DebtStatusResolvedPartial      DebtStatus = "resolved_partial"
	DebtStatusWrittenOff           DebtStatus = "written_off"
	DebtStatusLitigation           DebtStatus = "litigation"
	DebtStatusDisputed             DebtStatus = "disputed"
)

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s DebtStatus) Valid() bool {
	switch s {
	case DebtStatusDraft, DebtStatusPendingVerification, DebtStatusVerified,
		DebtStatusInitialLetterSent, DebtStatusAttorneyReview, DebtStatusAttorneyLetterSent,
		DebtStatusInMediation, DebtStatusPaymentPlanActive, DebtStatusPaymentPlanDefaulted,
		DebtStatusResolvedPaid, DebtStatusResolvedPartial, DebtStatusWrittenOff,
		DebtStatusLitigation, DebtStatusDisputed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s DebtStatus) Terminal() bool {
	return s == DebtStatusResolvedPaid || s == DebtStatusWrittenOff
}

// CanTransitionTo validates a status transition. Disputes can be raised from
// any non-terminal state, payments can settle any live debt, and a write-off
// is always available to staff; everything else follows the collection
// pipeline order.
func (s DebtStatus) CanTransitionTo(next DebtStatus) bool {
	if s.Terminal() || !next.Valid() || s == next {
		return false
	}

	switch next {
	case DebtStatusDisputed:
		return s != DebtStatusDisputed
	case DebtStatusResolvedPaid, DebtStatusResolvedPartial:
		return s != DebtStatusDraft
	case DebtStatusWrittenOff:
		return true
	}

	switch s {
	case DebtStatusDraft:
		return next == DebtStatusPendingVerification || next == DebtStatusVerified
	case DebtStatusPendingVerification:
		return next == DebtStatusVerified
	case DebtStatusVerified:
		return next == DebtStatusInitialLetterSent ||
			next == DebtStatusAttorneyReview ||
			next == DebtStatusInMediation
	case DebtStatusInitialLetterSent:
		return next == DebtStatusAttorneyReview || next == DebtStatusInMediation
	case DebtStatusAttorneyReview:
		return next == DebtStatusAttorneyLetterSent || next == DebtStatusInMediation
	case DebtStatusAttorneyLetterSent:
		return next == DebtStatusInMediation || next == DebtStatusLitigation
	case DebtStatusInMediation:
		return next == DebtStatusPaymentPlanActive ||
			next == DebtStatusPendingVerification ||
			next == DebtStatusLitigation
	case DebtStatusPaymentPlanActive:
		return next == DebtStatusPaymentPlanDefaulted
	case DebtStatusPaymentPlanDefaulted:
		return next == DebtStatusInMediation || next == DebtStatusLitigation
	case DebtStatusLitigation:
		return false
	case DebtStatusDisputed:
		// Dispute resolution restores a caller-specified working status.
		// Acceleration stays blocked while the dispute is open.
		return !next.Terminal() && next != DebtStatusPaymentPlanDefaulted
	}
	return false
}

// Debt represents one monetary obligation owed by a debtor to a client.
// All amounts are integers in minor currency units.
type Debt struct {
	ID                 string     `json:"id" db:"id"`
	TenantID           string     `json:"tenant_id" db:"tenant_id"`
	ClientID           string     `json:"client_id" db:"client_id"`
	DebtorID           string     `json:"debtor_id" db:"debtor_id"`
	ReferenceNumber    string     `json:"reference_number" db:"reference_number"`
	OriginalAmount     int64      `json:"original_amount" db:"original_amount"`
	CurrentAmount      int64      `json:"current_amount" db:"current_amount"`
	WaivedAmount       int64      `json:"waived_amount" db:"waived_amount"`
	TotalPaid          int64      `json:"total_paid" db:"total_paid"`
	Currency           string     `json:"currency" db:"currency"`
	InvoiceDate        time.Time  `json:"invoice_date" db:"invoice_date"`
	DueDate            time.Time  `json:"due_date" db:"due_date"`
	Status             DebtStatus `json:"status" db:"status"`
	VerificationStatus string     `json:"verification_status" db:"verification_status"`
	VerifiedBy         *string    `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	LastPaymentDate    *time.Time `json:"last_payment_date,omitempty" db:"last_payment_date"`
	Version            int64      `json:"version" db:"version"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// ApplyPayment credits amount against the outstanding balance, clamping at
// zero, and reports whether the debt is now fully settled. The caller decides
// the resulting status transition.
func (d *Debt) ApplyPayment(amount int64, now time.Time) bool {
	d.TotalPaid += amount
	d.CurrentAmount -= amount
	if d.CurrentAmount < 0 {
		d.CurrentAmount = 0
	}
	paidAt := now
	d.LastPaymentDate = &paidAt
	return d.CurrentAmount == 0
}

// Outstanding returns the collectible balance.
func (d *Debt) Outstanding() int64 {
	return d.CurrentAmount
}

// DTOs for requests and responses

type CreateDebtRequest struct {
	ClientID        string `json:"client_id" validate:"required"`
	DebtorID        string `json:"debtor_id" validate:"required"`
	ReferenceNumber string `json:"reference_number"`
	OriginalAmount  int64  `json:"original_amount" validate:"required,gt=0"`
	Currency        string `json:"currency" validate:"required,len=3"`
	InvoiceDate     int64  `json:"invoice_date" validate:"required"`
	DueDate         int64  `json:"due_date" validate:"required"`
}

type RecordPaymentRequest struct {
	Amount             int64  `json:"amount" validate:"required,gt=0"`
	PaymentMethod      string `json:"payment_method" validate:"required"`
	Processor          string `json:"processor"`
	ProcessorPaymentID string `json:"processor_payment_id"`
}

type TransitionDebtRequest struct {
	Status DebtStatus `json:"status" validate:"required"`
	Note   string     `json:"note"`
}
