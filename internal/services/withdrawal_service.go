package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type WithdrawalService struct {
	db             *pgxpool.Pool
	withdrawalRepo *repository.WithdrawalRepository
	logger         zerolog.Logger
}

func NewWithdrawalService(
	db *pgxpool.Pool,
	withdrawalRepo *repository.WithdrawalRepository,
	logger zerolog.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		db:             db,
		withdrawalRepo: withdrawalRepo,
		logger:         logger,
	}
}

// SweepWithdrawals pays out every verified coach's balance: one receipt per
// coach with a positive balance, and the balance reset to zero.
func (s *WithdrawalService) SweepWithdrawals(ctx context.Context) (*models.WithdrawalBatch, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batchID := uuid.New()
	withdrawals, err := repository.NewWithdrawalRepository(tx).SweepVerifiedBalances(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, w := range withdrawals {
		total = total.Add(w.Amount)
	}
	withdrawalsTotal.Add(float64(len(withdrawals)))
	s.logger.Info().
		Str("batch_id", batchID.String()).
		Int("coaches", len(withdrawals)).
		Str("total", total.StringFixed(2)).
		Msg("withdrawal sweep finished")

	return &models.WithdrawalBatch{
		BatchID:     batchID,
		Withdrawals: withdrawals,
		Total:       total,
	}, nil
}

func (s *WithdrawalService) ListWithdrawals(ctx context.Context, coachID int64, role string) ([]models.Withdrawal, error) {
	if role != models.RoleCoach {
		return nil, ErrForbidden
	}
	return s.withdrawalRepo.ListByCoachID(ctx, coachID)
}
