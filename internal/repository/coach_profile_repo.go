package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/shopspring/decimal"
)

const coachProfileColumns = `cp.id, cp.user_id, cp.full_name, cp.session_fee, cp.rating,
	cp.available_for_withdrawal, cp.is_verified, cp.created_at, cp.updated_at`

type CoachProfileRepository struct {
	db DBTX
}

func NewCoachProfileRepository(db DBTX) *CoachProfileRepository {
	return &CoachProfileRepository{db: db}
}

type CreateCoachProfileInput struct {
	UserID     int64
	FullName   *string
	SessionFee decimal.Decimal
	IsVerified bool
}

func (r *CoachProfileRepository) Create(ctx context.Context, input CreateCoachProfileInput) (*models.CoachProfile, error) {
	query := `
		INSERT INTO coach_profiles AS cp (user_id, full_name, session_fee, is_verified)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + coachProfileColumns
	return scanCoachProfile(r.db.QueryRow(ctx, query, input.UserID, input.FullName, input.SessionFee, input.IsVerified))
}

func (r *CoachProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error) {
	query := `SELECT ` + coachProfileColumns + ` FROM coach_profiles cp WHERE cp.user_id = $1`
	return scanCoachProfile(r.db.QueryRow(ctx, query, userID))
}

// GetByUsername resolves a coach account and its profile. Accounts without the
// coach role never match.
func (r *CoachProfileRepository) GetByUsername(ctx context.Context, username string) (*models.Coach, error) {
	query := `
		SELECT u.id, u.username, u.email, u.role, u.created_at, u.updated_at, ` + coachProfileColumns + `
		FROM users u
		JOIN coach_profiles cp ON cp.user_id = u.id
		WHERE u.username = $1 AND u.role = 'coach'
	`
	var coach models.Coach
	p := &coach.Profile
	err := r.db.QueryRow(ctx, query, username).Scan(
		&coach.ID,
		&coach.Username,
		&coach.Email,
		&coach.Role,
		&coach.CreatedAt,
		&coach.UpdatedAt,
		&p.ID,
		&p.UserID,
		&p.FullName,
		&p.SessionFee,
		&p.Rating,
		&p.AvailableForWithdrawal,
		&p.IsVerified,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &coach, nil
}

// LockByUserID takes the row lock that serializes aggregate updates for one coach.
func (r *CoachProfileRepository) LockByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error) {
	query := `SELECT ` + coachProfileColumns + ` FROM coach_profiles cp WHERE cp.user_id = $1 FOR UPDATE`
	return scanCoachProfile(r.db.QueryRow(ctx, query, userID))
}

// ApplyFinishedSession recomputes the running rating from every finished
// session of the coach and credits amount to the withdrawable balance.
// Callers must hold the row lock from LockByUserID in the same transaction.
func (r *CoachProfileRepository) ApplyFinishedSession(
	ctx context.Context,
	userID int64,
	amount decimal.Decimal,
) (*models.CoachProfile, error) {
	query := `
		UPDATE coach_profiles AS cp
		SET rating = (
				SELECT AVG(s.rating)::DOUBLE PRECISION
				FROM sessions s
				WHERE s.coach_id = cp.user_id
				  AND s.status = 'FINISHED'
				  AND s.rating IS NOT NULL
			),
			available_for_withdrawal = cp.available_for_withdrawal + $2,
			updated_at = NOW()
		WHERE cp.user_id = $1
		RETURNING ` + coachProfileColumns
	return scanCoachProfile(r.db.QueryRow(ctx, query, userID, amount))
}

func scanCoachProfile(row pgx.Row) (*models.CoachProfile, error) {
	var profile models.CoachProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.SessionFee,
		&profile.Rating,
		&profile.AvailableForWithdrawal,
		&profile.IsVerified,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
