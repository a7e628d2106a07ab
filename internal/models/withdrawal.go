package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const WithdrawalStatusFinished = "FINISHED"

// Withdrawal is an immutable receipt written by a balance sweep.
type Withdrawal struct {
	ID        int64           `json:"id"`
	CoachID   int64           `json:"coach_id"`
	BatchID   uuid.UUID       `json:"batch_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type WithdrawalBatch struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	Withdrawals []Withdrawal    `json:"withdrawals"`
	Total       decimal.Decimal `json:"total"`
}
