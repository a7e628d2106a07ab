package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CoachProfile struct {
	ID                     int64           `json:"id"`
	UserID                 int64           `json:"user_id"`
	FullName               *string         `json:"full_name"`
	SessionFee             decimal.Decimal `json:"session_fee"`
	Rating                 *float64        `json:"rating"`
	AvailableForWithdrawal decimal.Decimal `json:"available_for_withdrawal"`
	IsVerified             bool            `json:"is_verified"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// Coach joins the account with its profile; bookings address coaches by username.
type Coach struct {
	User
	Profile CoachProfile `json:"profile"`
}
