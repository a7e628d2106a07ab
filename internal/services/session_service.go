package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/gateway"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/notify"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/repository"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/slotclock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type coachReader interface {
	GetByUsername(ctx context.Context, username string) (*models.Coach, error)
	GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error)
}

type expiryScheduler interface {
	Arm(sessionID int64)
	Disarm(sessionID int64)
	Delay() time.Duration
}

type orderSigner interface {
	NewOrder(sessionID int64, amount decimal.Decimal, items string) gateway.Order
}

type SessionService struct {
	db          *pgxpool.Pool
	sessionRepo *repository.SessionRepository
	paymentRepo *repository.PaymentRepository
	coachRepo   coachReader
	reaper      expiryScheduler
	signer      orderSigner
	refunder    Refunder
	notifier    *sessionNotifier
	logger      zerolog.Logger
	now         func() time.Time
}

func NewSessionService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	paymentRepo *repository.PaymentRepository,
	userRepo userReader,
	coachRepo coachReader,
	reaper expiryScheduler,
	signer orderSigner,
	refunder Refunder,
	sender notify.Sender,
	logger zerolog.Logger,
) *SessionService {
	if refunder == nil {
		refunder = LedgerRefunder{}
	}
	return &SessionService{
		db:          db,
		sessionRepo: sessionRepo,
		paymentRepo: paymentRepo,
		coachRepo:   coachRepo,
		reaper:      reaper,
		signer:      signer,
		refunder:    refunder,
		notifier:    newSessionNotifier(sender, userRepo, logger),
		logger:      logger,
		now:         time.Now,
	}
}

// Reservation is a freshly booked session and the signed order the client
// takes to the hosted checkout page.
type Reservation struct {
	Session  models.Session `json:"session"`
	Checkout gateway.Order  `json:"checkout"`
}

type CoachSlots struct {
	Coach     string    `json:"coach"`
	Date      time.Time `json:"date"`
	Blocked   []int     `json:"blocked"`
	Available []int     `json:"available"`
}

type FinishSessionInput struct {
	Review *string
	Rating *int
}

func (s *SessionService) today() time.Time {
	return s.now().UTC()
}

// ReserveSlot books tomorrow's timeSlot with the coach for the client. The
// session starts PENDING and is deleted unless payment settles within the
// expiry window.
func (s *SessionService) ReserveSlot(
	ctx context.Context,
	clientID int64,
	coachUsername string,
	timeSlot int,
) (*Reservation, error) {
	if err := slotclock.ValidateTimeSlot(timeSlot); err != nil {
		return nil, ErrInvalidTimeSlot
	}

	coach, err := s.coachRepo.GetByUsername(ctx, strings.TrimSpace(coachUsername))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	if coach.ID == clientID {
		return nil, fmt.Errorf("%w: cannot book yourself", ErrInvalidInput)
	}
	if !coach.Profile.SessionFee.IsPositive() {
		return nil, ErrCoachNotBookable
	}

	now := s.today()
	date := slotclock.NormalizedBookingDate(now)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)

	if _, err := txSessionRepo.DeleteExpiredPendingForSlot(
		ctx, coach.ID, date, timeSlot, s.reaper.Delay(), 0,
	); err != nil {
		return nil, err
	}

	session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
		ClientID: clientID,
		CoachID:  coach.ID,
		Date:     date,
		TimeSlot: timeSlot,
	})
	if err != nil {
		if isUniqueViolation(err) {
			reservationsTotal.WithLabelValues("slot_taken").Inc()
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			reservationsTotal.WithLabelValues("slot_taken").Inc()
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	s.reaper.Arm(session.ID)
	reservationsTotal.WithLabelValues("reserved").Inc()
	s.logger.Info().
		Int64("session_id", session.ID).
		Int64("client_id", clientID).
		Int64("coach_id", coach.ID).
		Time("date", date).
		Int("time_slot", timeSlot).
		Msg("slot reserved")

	return &Reservation{
		Session:  *session,
		Checkout: s.signer.NewOrder(session.ID, coach.Profile.SessionFee, "Coaching session with "+coach.Username),
	}, nil
}

// RescheduleSlot moves the client's session to newTimeSlot tomorrow. A
// returned NotificationError means the move committed but an email failed.
func (s *SessionService) RescheduleSlot(
	ctx context.Context,
	sessionID int64,
	clientID int64,
	newTimeSlot int,
) (*models.SessionDetail, error) {
	if err := slotclock.ValidateTimeSlot(newTimeSlot); err != nil {
		return nil, ErrInvalidTimeSlot
	}

	now := s.today()
	date := slotclock.NormalizedBookingDate(now)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	session, err := txSessionRepo.GetForClientForUpdate(ctx, sessionID, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !blocksSlot(session.Status) {
		return nil, ErrInvalidStateTransition
	}

	if _, err := txSessionRepo.DeleteExpiredPendingForSlot(
		ctx, session.CoachID, date, newTimeSlot, s.reaper.Delay(), session.ID,
	); err != nil {
		return nil, err
	}

	updated, err := txSessionRepo.Reslot(ctx, session.ID, date, newTimeSlot)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	payment, err := getOptionalPayment(ctx, txPaymentRepo, session.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("session_id", updated.ID).
		Int("from_slot", session.TimeSlot).
		Int("to_slot", updated.TimeSlot).
		Msg("session rescheduled")

	detail := &models.SessionDetail{Session: *updated, Payment: payment}
	return detail, s.notifier.notify(ctx, notify.KindRescheduled, updated, payment, toBoth)
}

// AcceptSession binds the delivery link to a paid session of the coach.
func (s *SessionService) AcceptSession(
	ctx context.Context,
	sessionID int64,
	coachUserID int64,
	role string,
	deliveryURL string,
) (*models.SessionDetail, error) {
	if role != models.RoleCoach {
		return nil, ErrForbidden
	}
	if _, err := s.coachRepo.GetByUserID(ctx, coachUserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if strings.TrimSpace(deliveryURL) == "" {
		return nil, fmt.Errorf("%w: link is required", ErrInvalidInput)
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

	session, err := txSessionRepo.GetForCoachForUpdate(ctx, sessionID, coachUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status != models.SessionStatusReserved {
		return nil, ErrInvalidStateTransition
	}

	accepted, err := txSessionRepo.Accept(ctx, session.ID, strings.TrimSpace(deliveryURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	payment, err := getOptionalPayment(ctx, txPaymentRepo, session.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	sessionTransitionsTotal.WithLabelValues(models.SessionStatusAccepted).Inc()
	s.logger.Info().Int64("session_id", accepted.ID).Int64("coach_id", coachUserID).Msg("session accepted")

	detail := &models.SessionDetail{Session: *accepted, Payment: payment}
	return detail, s.notifier.notify(ctx, notify.KindAccepted, accepted, payment, toClient)
}

// FinishSession closes the client's accepted session, recomputes the coach's
// rating over all finished sessions and credits the payment remainder to the
// coach's balance. All three changes commit together.
func (s *SessionService) FinishSession(
	ctx context.Context,
	sessionID int64,
	clientUserID int64,
	input FinishSessionInput,
) (*models.SessionDetail, error) {
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

	session, err := txSessionRepo.GetForClientForUpdate(ctx, sessionID, clientUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status != models.SessionStatusAccepted {
		return nil, ErrInvalidStateTransition
	}

	payment, err := getOptionalPayment(ctx, txPaymentRepo, session.ID)
	if err != nil {
		return nil, err
	}
	credit := decimal.Zero
	if payment != nil {
		credit = payment.Remaining
	} else {
		s.logger.Warn().Int64("session_id", session.ID).Msg("finishing session without payment")
	}

	if _, err := txCoachRepo.LockByUserID(ctx, session.CoachID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	finished, err := txSessionRepo.Finish(ctx, session.ID, input.Review, input.Rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	profile, err := txCoachRepo.ApplyFinishedSession(ctx, session.CoachID, credit)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	sessionTransitionsTotal.WithLabelValues(models.SessionStatusFinished).Inc()
	event := s.logger.Info().
		Int64("session_id", finished.ID).
		Int64("coach_id", finished.CoachID).
		Str("credited", credit.StringFixed(2)).
		Str("balance", profile.AvailableForWithdrawal.StringFixed(2))
	if profile.Rating != nil {
		event = event.Float64("rating", *profile.Rating)
	}
	event.Msg("session finished")

	return &models.SessionDetail{Session: *finished, Payment: payment}, nil
}

// CancelSession cancels a session dated after today on behalf of its client,
// its coach or an admin, and settles its payment through the refunder.
func (s *SessionService) CancelSession(
	ctx context.Context,
	sessionID int64,
	callerID int64,
	callerRole string,
) (*models.SessionDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !slotclock.IsFutureDay(session.Date, s.today()) {
		return nil, ErrTooLate
	}
	if !canCancelSession(callerRole, callerID, session) {
		return nil, ErrForbidden
	}
	if session.Status == models.SessionStatusFinished || session.Status == models.SessionStatusCancelled {
		return nil, ErrInvalidStateTransition
	}

	payment, err := txPaymentRepo.GetBySessionIDForUpdate(ctx, session.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPayment
		}
		return nil, err
	}

	cancelled, err := txSessionRepo.UpdateStatusIfCurrent(ctx, session.ID, session.Status, models.SessionStatusCancelled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	refunded, err := s.refunder.Refund(ctx, txPaymentRepo, payment)
	if err != nil {
		return nil, fmt.Errorf("refund payment %d: %w", payment.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	sessionTransitionsTotal.WithLabelValues(models.SessionStatusCancelled).Inc()
	s.logger.Info().
		Int64("session_id", cancelled.ID).
		Int64("caller_id", callerID).
		Str("caller_role", callerRole).
		Str("previous_status", session.Status).
		Msg("session cancelled")

	detail := &models.SessionDetail{Session: *cancelled, Payment: refunded}
	return detail, s.notifier.notify(ctx, notify.KindCancelled, cancelled, refunded, toBoth)
}

func (s *SessionService) GetSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}

	payment, err := getOptionalPayment(ctx, s.paymentRepo, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{Session: *session, Payment: payment}, nil
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID int64,
	role string,
	status string,
) ([]models.SessionDetail, error) {
	if role != models.RoleClient && role != models.RoleCoach && role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	sessions, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		ActorID: actorID,
		Role:    role,
		Status:  status,
	})
	if err != nil {
		return nil, err
	}

	sessionIDs := make([]int64, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}

	paymentsBySession, err := s.paymentRepo.ListBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.SessionDetail, 0, len(sessions))
	for _, session := range sessions {
		detail := models.SessionDetail{Session: session}
		if payment, ok := paymentsBySession[session.ID]; ok {
			paymentCopy := payment
			detail.Payment = &paymentCopy
		}
		details = append(details, detail)
	}
	return details, nil
}

// ListCoachSlots reports which of tomorrow's hours the coach still has free.
func (s *SessionService) ListCoachSlots(ctx context.Context, coachUsername string) (*CoachSlots, error) {
	coach, err := s.coachRepo.GetByUsername(ctx, strings.TrimSpace(coachUsername))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	date := slotclock.NormalizedBookingDate(s.today())
	blocked, err := s.sessionRepo.BlockedSlots(ctx, coach.ID, date)
	if err != nil {
		return nil, err
	}

	taken := make(map[int]struct{}, len(blocked))
	for _, slot := range blocked {
		taken[slot] = struct{}{}
	}
	available := make([]int, 0, slotclock.LastSlot+1-len(blocked))
	for slot := slotclock.FirstSlot; slot <= slotclock.LastSlot; slot++ {
		if _, ok := taken[slot]; !ok {
			available = append(available, slot)
		}
	}

	return &CoachSlots{
		Coach:     coach.Username,
		Date:      date,
		Blocked:   blocked,
		Available: available,
	}, nil
}

type paymentBySessionReader interface {
	GetBySessionID(ctx context.Context, sessionID int64) (*models.Payment, error)
}

func getOptionalPayment(ctx context.Context, repo paymentBySessionReader, sessionID int64) (*models.Payment, error) {
	payment, err := repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// blocksSlot reports whether a session in status holds its slot.
func blocksSlot(status string) bool {
	switch status {
	case models.SessionStatusPending, models.SessionStatusReserved, models.SessionStatusAccepted:
		return true
	default:
		return false
	}
}

func canAccessSession(role string, actorID int64, session *models.Session) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleClient:
		return session.ClientID == actorID
	case models.RoleCoach:
		return session.CoachID == actorID
	default:
		return false
	}
}

func canCancelSession(role string, actorID int64, session *models.Session) bool {
	return canAccessSession(role, actorID, session)
}
