package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
)

const withdrawalColumns = `id, coach_id, batch_id, amount, status, created_at`

type WithdrawalRepository struct {
	db DBTX
}

func NewWithdrawalRepository(db DBTX) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// SweepVerifiedBalances snapshots every verified coach's positive balance into
// a receipt and zeroes the balance in the same statement. The locking read on
// coach_profiles keeps concurrent credits from landing between the two.
func (r *WithdrawalRepository) SweepVerifiedBalances(ctx context.Context, batchID uuid.UUID) ([]models.Withdrawal, error) {
	query := `
		WITH due AS (
			SELECT user_id, available_for_withdrawal AS amount
			FROM coach_profiles
			WHERE is_verified = TRUE
			  AND available_for_withdrawal > 0
			ORDER BY user_id
			FOR UPDATE
		),
		zeroed AS (
			UPDATE coach_profiles cp
			SET available_for_withdrawal = 0, updated_at = NOW()
			FROM due
			WHERE cp.user_id = due.user_id
			RETURNING due.user_id, due.amount
		)
		INSERT INTO withdrawals (coach_id, batch_id, amount, status)
		SELECT user_id, $1, amount, 'FINISHED'
		FROM zeroed
		RETURNING ` + withdrawalColumns

	rows, err := r.db.Query(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	return collectWithdrawals(rows)
}

func (r *WithdrawalRepository) ListByCoachID(ctx context.Context, coachID int64) ([]models.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE coach_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, coachID)
	if err != nil {
		return nil, err
	}
	return collectWithdrawals(rows)
}

func collectWithdrawals(rows pgx.Rows) ([]models.Withdrawal, error) {
	defer rows.Close()

	withdrawals := make([]models.Withdrawal, 0)
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.CoachID, &w.BatchID, &w.Amount, &w.Status, &w.CreatedAt); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return withdrawals, nil
}
