package services

import (
	"context"
	"testing"

	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/shopspring/decimal"
)

type stubReclassifier struct {
	lastID     int64
	lastType   string
	lastStatus string
}

func (s *stubReclassifier) Reclassify(_ context.Context, paymentID int64, paymentType string, status string) (*models.Payment, error) {
	s.lastID, s.lastType, s.lastStatus = paymentID, paymentType, status
	return &models.Payment{ID: paymentID, Type: paymentType, Status: status, Amount: decimal.NewFromInt(1000)}, nil
}

func TestLedgerRefunderReclassifiesWithoutMovingMoney(t *testing.T) {
	repo := &stubReclassifier{}
	payment := &models.Payment{
		ID:        12,
		Amount:    decimal.NewFromInt(1000),
		Fee:       decimal.NewFromInt(100),
		Remaining: decimal.NewFromInt(900),
		Type:      models.PaymentTypeSession,
		Status:    models.PaymentStatusPaid,
	}

	refunded, err := LedgerRefunder{}.Refund(context.Background(), repo, payment)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if repo.lastID != 12 {
		t.Fatalf("expected payment 12 to be reclassified, got %d", repo.lastID)
	}
	if refunded.Type != models.PaymentTypeCancelledSession || refunded.Status != models.PaymentStatusFinished {
		t.Fatalf("unexpected reclassification %+v", refunded)
	}
	if !refunded.Amount.Equal(payment.Amount) {
		t.Fatalf("expected amount to be untouched, got %s", refunded.Amount)
	}
}
