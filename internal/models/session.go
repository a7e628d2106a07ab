package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SessionStatusPending   = "PENDING"
	SessionStatusReserved  = "RESERVED"
	SessionStatusAccepted  = "ACCEPTED"
	SessionStatusFinished  = "FINISHED"
	SessionStatusCancelled = "CANCELLED"
)

const (
	PaymentTypeSession          = "SESSION"
	PaymentTypeCancelledSession = "CANCELLED_SESSION"

	PaymentStatusPaid     = "PAID"
	PaymentStatusFinished = "FINISHED"
)

type Session struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	CoachID   int64     `json:"coach_id"`
	Date      time.Time `json:"date"`
	TimeSlot  int       `json:"time_slot"`
	Status    string    `json:"status"`
	Link      *string   `json:"link,omitempty"`
	Review    *string   `json:"review,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Payment struct {
	ID                int64           `json:"id"`
	SessionID         int64           `json:"session_id"`
	Amount            decimal.Decimal `json:"amount"`
	Fee               decimal.Decimal `json:"fee"`
	Remaining         decimal.Decimal `json:"remaining"`
	Type              string          `json:"type"`
	Status            string          `json:"status"`
	ExternalPaymentID string          `json:"external_payment_id"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type SessionDetail struct {
	Session
	Payment *Payment `json:"payment,omitempty"`
}
