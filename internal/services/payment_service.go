package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/notify"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type expiryCanceller interface {
	Disarm(sessionID int64)
	Delay() time.Duration
}

type PaymentService struct {
	db       *pgxpool.Pool
	reaper   expiryCanceller
	feeRate  decimal.Decimal
	notifier *sessionNotifier
	logger   zerolog.Logger
}

func NewPaymentService(
	db *pgxpool.Pool,
	userRepo userReader,
	reaper expiryCanceller,
	feeRate decimal.Decimal,
	sender notify.Sender,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		db:       db,
		reaper:   reaper,
		feeRate:  feeRate,
		notifier: newSessionNotifier(sender, userRepo, logger),
		logger:   logger,
	}
}

type SettlePaymentInput struct {
	SessionID         int64
	GrossAmount       decimal.Decimal
	ExternalPaymentID string
}

// SettlePayment records the cleared payment for a PENDING session and moves
// it to RESERVED. The gross amount must equal the coach's session fee. A
// session whose payment window already closed is expired here instead of
// settled. Replaying the same external payment id returns the stored payment
// without side effects. A NotificationError means the settlement is durable
// but an email failed.
func (s *PaymentService) SettlePayment(ctx context.Context, input SettlePaymentInput) (*models.SessionDetail, error) {
	externalID := strings.TrimSpace(input.ExternalPaymentID)
	if input.SessionID <= 0 || externalID == "" || !input.GrossAmount.IsPositive() {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)
	txCoachRepo := repository.NewCoachProfileRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			settlementsTotal.WithLabelValues("session_missing").Inc()
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	existing, err := txPaymentRepo.GetBySessionIDForUpdate(ctx, session.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		if existing.ExternalPaymentID != externalID {
			settlementsTotal.WithLabelValues("conflict").Inc()
			return nil, ErrAlreadySettled
		}
		settlementsTotal.WithLabelValues("replayed").Inc()
		s.logger.Info().
			Int64("session_id", session.ID).
			Str("external_payment_id", externalID).
			Msg("duplicate payment notification ignored")
		return &models.SessionDetail{Session: *session, Payment: existing}, nil
	}

	if session.Status != models.SessionStatusPending {
		settlementsTotal.WithLabelValues("invalid_state").Inc()
		return nil, ErrInvalidStateTransition
	}

	expired, err := txSessionRepo.DeleteIfExpired(ctx, session.ID, s.reaper.Delay())
	if err != nil {
		return nil, err
	}
	if expired {
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		s.reaper.Disarm(session.ID)
		settlementsTotal.WithLabelValues("expired").Inc()
		expiredSessionsTotal.WithLabelValues("settlement").Inc()
		s.logger.Warn().
			Int64("session_id", session.ID).
			Str("external_payment_id", externalID).
			Msg("payment arrived after the pending window, session expired")
		return nil, ErrSessionNotFound
	}

	coach, err := txCoachRepo.GetByUserID(ctx, session.CoachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	gross := input.GrossAmount.Round(2)
	if !gross.Equal(coach.SessionFee.Round(2)) {
		settlementsTotal.WithLabelValues("amount_mismatch").Inc()
		s.logger.Warn().
			Int64("session_id", session.ID).
			Str("amount", gross.StringFixed(2)).
			Str("session_fee", coach.SessionFee.StringFixed(2)).
			Msg("payment amount does not match session fee")
		return nil, ErrAmountMismatch
	}

	fee, remaining := SplitPayment(gross, s.feeRate)

	payment, err := txPaymentRepo.Create(ctx, repository.CreatePaymentInput{
		SessionID:         session.ID,
		Amount:            gross,
		Fee:               fee,
		Remaining:         remaining,
		ExternalPaymentID: externalID,
	})
	if err != nil {
		if isUniqueViolation(err) {
			settlementsTotal.WithLabelValues("conflict").Inc()
			return nil, ErrDuplicatePaymentReference
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}

	reserved, err := txSessionRepo.UpdateStatusIfCurrent(
		ctx, session.ID, models.SessionStatusPending, models.SessionStatusReserved,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.reaper.Disarm(reserved.ID)
	settlementsTotal.WithLabelValues("settled").Inc()
	sessionTransitionsTotal.WithLabelValues(models.SessionStatusReserved).Inc()
	s.logger.Info().
		Int64("session_id", reserved.ID).
		Int64("payment_id", payment.ID).
		Str("external_payment_id", externalID).
		Str("amount", payment.Amount.StringFixed(2)).
		Str("fee", payment.Fee.StringFixed(2)).
		Str("remaining", payment.Remaining.StringFixed(2)).
		Msg("payment settled")

	detail := &models.SessionDetail{Session: *reserved, Payment: payment}
	return detail, s.notifier.notify(ctx, notify.KindReserved, reserved, payment, toBoth)
}
