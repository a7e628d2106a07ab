package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
)

const sessionColumns = `id, client_id, coach_id, session_date, time_slot, status, link, review, rating, created_at, updated_at`

type CreateSessionInput struct {
	ClientID int64
	CoachID  int64
	Date     time.Time
	TimeSlot int
}

type SessionListFilter struct {
	ActorID int64
	Role    string
	Status  string
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a PENDING session. A live session on the same slot makes the
// insert fail with a unique violation on sessions_active_slot_key.
func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := `
		INSERT INTO sessions (client_id, coach_id, session_date, time_slot, status)
		VALUES ($1, $2, $3, $4, 'PENDING')
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, input.ClientID, input.CoachID, input.Date, input.TimeSlot))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 FOR UPDATE`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetForClientForUpdate(ctx context.Context, sessionID, clientID int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND client_id = $2 FOR UPDATE`
	return scanSession(r.db.QueryRow(ctx, query, sessionID, clientID))
}

func (r *SessionRepository) GetForCoachForUpdate(ctx context.Context, sessionID, coachID int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND coach_id = $2 FOR UPDATE`
	return scanSession(r.db.QueryRow(ctx, query, sessionID, coachID))
}

func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.Session, error) {
	args := []any{}
	whereParts := []string{}

	switch filter.Role {
	case models.RoleCoach:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, "coach_id = $1")
	case models.RoleClient:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, "client_id = $1")
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, strings.ToUpper(status))
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(whereParts) > 0 {
		where = "WHERE " + strings.Join(whereParts, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		%s
		ORDER BY session_date DESC, time_slot ASC, id ASC
	`, sessionColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// BlockedSlots lists the hours of a coach's day held by live sessions.
func (r *SessionRepository) BlockedSlots(ctx context.Context, coachID int64, date time.Time) ([]int, error) {
	query := `
		SELECT time_slot
		FROM sessions
		WHERE coach_id = $1
		  AND session_date = $2
		  AND status IN ('PENDING', 'RESERVED', 'ACCEPTED')
		ORDER BY time_slot
	`
	rows, err := r.db.Query(ctx, query, coachID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]int, 0)
	for rows.Next() {
		var slot int
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

func (r *SessionRepository) Accept(ctx context.Context, sessionID int64, link string) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = 'ACCEPTED', link = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'RESERVED'
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, link))
}

func (r *SessionRepository) Finish(ctx context.Context, sessionID int64, review *string, rating *int) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = 'FINISHED', review = $2, rating = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'ACCEPTED'
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, review, rating))
}

// Reslot moves a session to another slot on date. The unique slot index
// rejects the move when the target is held by another live session.
func (r *SessionRepository) Reslot(ctx context.Context, sessionID int64, date time.Time, timeSlot int) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET session_date = $2, time_slot = $3, updated_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'RESERVED', 'ACCEPTED')
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, date, timeSlot))
}

// DeleteIfPending removes the session only while it is still PENDING.
func (r *SessionRepository) DeleteIfPending(ctx context.Context, sessionID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND status = 'PENDING'`, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// pendingExpiredPredicate matches PENDING rows whose payment window closed on
// the database clock. The window is passed in seconds.
const pendingExpiredPredicate = `status = 'PENDING' AND created_at < NOW() - make_interval(secs => %s)`

// DeleteExpiredPending removes every PENDING session older than window.
func (r *SessionRepository) DeleteExpiredPending(ctx context.Context, window time.Duration) (int64, error) {
	query := `DELETE FROM sessions WHERE ` + fmt.Sprintf(pendingExpiredPredicate, "$1")
	tag, err := r.db.Exec(ctx, query, window.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteIfExpired removes one session when it is PENDING and older than window.
func (r *SessionRepository) DeleteIfExpired(ctx context.Context, sessionID int64, window time.Duration) (bool, error) {
	query := `DELETE FROM sessions WHERE id = $1 AND ` + fmt.Sprintf(pendingExpiredPredicate, "$2")
	tag, err := r.db.Exec(ctx, query, sessionID, window.Seconds())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteExpiredPendingForSlot frees one slot from a PENDING session older
// than window. excludedSessionID is never deleted.
func (r *SessionRepository) DeleteExpiredPendingForSlot(
	ctx context.Context,
	coachID int64,
	date time.Time,
	timeSlot int,
	window time.Duration,
	excludedSessionID int64,
) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE coach_id = $1
		  AND session_date = $2
		  AND time_slot = $3
		  AND id <> $5
		  AND ` + fmt.Sprintf(pendingExpiredPredicate, "$4")
	tag, err := r.db.Exec(ctx, query, coachID, date, timeSlot, window.Seconds(), excludedSessionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.ClientID,
		&session.CoachID,
		&session.Date,
		&session.TimeSlot,
		&session.Status,
		&session.Link,
		&session.Review,
		&session.Rating,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
