package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, session_id, amount, fee, remaining, type, status, external_payment_id, created_at, updated_at`

type CreatePaymentInput struct {
	SessionID         int64
	Amount            decimal.Decimal
	Fee               decimal.Decimal
	Remaining         decimal.Decimal
	ExternalPaymentID string
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create records a cleared payment. session_id and external_payment_id are
// both unique, so a replayed gateway callback fails with a unique violation.
func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (session_id, amount, fee, remaining, type, status, external_payment_id)
		VALUES ($1, $2, $3, $4, 'SESSION', 'PAID', $5)
		RETURNING ` + paymentColumns
	return scanPayment(r.db.QueryRow(
		ctx,
		query,
		input.SessionID,
		input.Amount,
		input.Fee,
		input.Remaining,
		input.ExternalPaymentID,
	))
}

func (r *PaymentRepository) GetBySessionID(ctx context.Context, sessionID int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE session_id = $1`
	return scanPayment(r.db.QueryRow(ctx, query, sessionID))
}

func (r *PaymentRepository) GetBySessionIDForUpdate(ctx context.Context, sessionID int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE session_id = $1 FOR UPDATE`
	return scanPayment(r.db.QueryRow(ctx, query, sessionID))
}

func (r *PaymentRepository) GetByExternalID(ctx context.Context, externalPaymentID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_payment_id = $1`
	return scanPayment(r.db.QueryRow(ctx, query, externalPaymentID))
}

func (r *PaymentRepository) ListBySessionIDs(ctx context.Context, sessionIDs []int64) (map[int64]models.Payment, error) {
	payments := make(map[int64]models.Payment, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return payments, nil
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE session_id = ANY($1)`
	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments[payment.SessionID] = *payment
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// Reclassify rewrites type and status only. Amounts are immutable.
func (r *PaymentRepository) Reclassify(
	ctx context.Context,
	paymentID int64,
	paymentType string,
	status string,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET type = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + paymentColumns
	return scanPayment(r.db.QueryRow(ctx, query, paymentID, paymentType, status))
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.SessionID,
		&payment.Amount,
		&payment.Fee,
		&payment.Remaining,
		&payment.Type,
		&payment.Status,
		&payment.ExternalPaymentID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
