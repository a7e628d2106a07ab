package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrNotification           = errors.New("notification failed")
)

var (
	ErrInvalidTimeSlot           = fmt.Errorf("%w: time slot must be between 0 and 23", ErrInvalidInput)
	ErrTooLate                   = fmt.Errorf("%w: too-late", ErrInvalidInput)
	ErrNoPayment                 = fmt.Errorf("%w: no-payment", ErrInvalidInput)
	ErrCoachNotBookable          = fmt.Errorf("%w: coach has no session fee", ErrInvalidInput)
	ErrAmountMismatch            = fmt.Errorf("%w: amount does not match the session fee", ErrInvalidInput)
	ErrCoachNotFound             = fmt.Errorf("%w: coach", ErrNotFound)
	ErrSessionNotFound           = fmt.Errorf("%w: session", ErrNotFound)
	ErrSlotTaken                 = fmt.Errorf("%w: slot-taken", ErrConflict)
	ErrAlreadySettled            = fmt.Errorf("%w: already-settled", ErrConflict)
	ErrDuplicatePaymentReference = fmt.Errorf("%w: payment reference already used", ErrConflict)
)

// NotificationError reports recipients that could not be told about a state
// change. The change itself is already committed when this is returned.
type NotificationError struct {
	Recipients []string
	Err        error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", strings.Join(e.Recipients, ", "), e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

func (e *NotificationError) Is(target error) bool {
	return target == ErrNotification
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
