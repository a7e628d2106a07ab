package services

import (
	"context"

	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
)

type paymentReclassifier interface {
	Reclassify(ctx context.Context, paymentID int64, paymentType string, status string) (*models.Payment, error)
}

// Refunder settles the payment of a cancelled session. It runs inside the
// cancellation transaction.
type Refunder interface {
	Refund(ctx context.Context, payments paymentReclassifier, payment *models.Payment) (*models.Payment, error)
}

// LedgerRefunder moves no money. The gateway has no refund API in this
// deployment, so the payment is only reclassified as a cancelled session.
type LedgerRefunder struct{}

func (LedgerRefunder) Refund(ctx context.Context, payments paymentReclassifier, payment *models.Payment) (*models.Payment, error) {
	return payments.Reclassify(ctx, payment.ID, models.PaymentTypeCancelledSession, models.PaymentStatusFinished)
}
