package domain

import (
	"time"
)

type CommunicationType string

const (
	CommunicationEmail         CommunicationType = "email"
	CommunicationLetter        CommunicationType = "letter"
	CommunicationPortalMessage CommunicationType = "portal_message"
)

type CommunicationDirection string

const (
	DirectionOutbound CommunicationDirection = "outbound"
	DirectionInbound  CommunicationDirection = "inbound"
)

type CommunicationStatus string

const (
	CommunicationStatusPending CommunicationStatus = "pending"
	CommunicationStatusSent    CommunicationStatus = "sent"
	CommunicationStatusFailed  CommunicationStatus = "failed"
)

// Communication is an immutable audit record of a notice sent or received for
// a debt. Every lifecycle transition that produces a debtor- or client-facing
// message creates one, whether or not delivery succeeds.
type Communication struct {
	ID        string                 `json:"id" db:"id"`
	TenantID  string                 `json:"tenant_id" db:"tenant_id"`
	DebtID    string                 `json:"debt_id" db:"debt_id"`
	Type      CommunicationType      `json:"type" db:"type"`
	Direction CommunicationDirection `json:"direction" db:"direction"`
	Subject   string                 `json:"subject" db:"subject"`
	Content   string                 `json:"content" db:"content"`
	ToEmail   string                 `json:"to_email" db:"to_email"`
	Status    CommunicationStatus    `json:"status" db:"status"`
	SentAt    *time.Time             `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}
