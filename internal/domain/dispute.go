package domain

import (
	"time"
)

type DisputeType string

const (
	DisputeAmountIncorrect DisputeType = "amount_incorrect"
	DisputeNeverReceived   DisputeType = "never_received"
	DisputeQualityIssue    DisputeType = "quality_issue"
	DisputeAlreadyPaid     DisputeType = "already_paid"
	DisputeContractDispute DisputeType = "contract_dispute"
	DisputeFraudClaim      DisputeType = "fraud_claim"
	DisputeOther           DisputeType = "other"
)

func (t DisputeType) Valid() bool {
	switch t {
	case DisputeAmountIncorrect, DisputeNeverReceived, DisputeQualityIssue,
		DisputeAlreadyPaid, DisputeContractDispute, DisputeFraudClaim, DisputeOther:
		return true
	}
	return false
}

// DisputeOutcome is the staff decision on an open dispute.
type DisputeOutcome string

const (
	DisputeOutcomeUpheld   DisputeOutcome = "upheld"
	DisputeOutcomeRejected DisputeOutcome = "rejected"
	DisputeOutcomePartial  DisputeOutcome = "partial"
)

func (o DisputeOutcome) Valid() bool {
	return o == DisputeOutcomeUpheld || o == DisputeOutcomeRejected || o == DisputeOutcomePartial
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
)

// MinDisputeDescriptionLen is the minimum number of characters a debtor must
// provide when raising a dispute.
const MinDisputeDescriptionLen = 50

// Dispute pauses all automated collection activity on its debt while open.
type Dispute struct {
	ID              string         `json:"id" db:"id"`
	TenantID        string         `json:"tenant_id" db:"tenant_id"`
	DebtID          string         `json:"debt_id" db:"debt_id"`
	RaisedBy        string         `json:"raised_by" db:"raised_by"`
	DisputeType     DisputeType    `json:"dispute_type" db:"dispute_type"`
	Description     string         `json:"description" db:"description"`
	Status          DisputeStatus  `json:"status" db:"status"`
	Outcome         DisputeOutcome `json:"outcome,omitempty" db:"outcome"`
	ResolutionNotes string         `json:"resolution_notes,omitempty" db:"resolution_notes"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

type SubmitDisputeRequest struct {
	DisputeType DisputeType `json:"dispute_type" validate:"required"`
	Description string      `json:"description" validate:"required,min=50"`
}

type ResolveDisputeRequest struct {
	Outcome DisputeOutcome `json:"outcome" validate:"required"`
	// NewAmount is the adjusted balance for a partial outcome, minor units.
	NewAmount int64 `json:"new_amount" validate:"gte=0"`
	// RestoreStatus is the working status the debt returns to for rejected
	// and partial outcomes. Defaults to verified.
	RestoreStatus   DebtStatus `json:"restore_status"`
	ResolutionNotes string     `json:"resolution_notes"`
}
