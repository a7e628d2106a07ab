package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/notify"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/slotclock"
	"github.com/rs/zerolog"
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type recipient int

const (
	toClient recipient = 1 << iota
	toCoach
	toBoth = toClient | toCoach
)

type sessionNotifier struct {
	sender notify.Sender
	users  userReader
	logger zerolog.Logger
}

func newSessionNotifier(sender notify.Sender, users userReader, logger zerolog.Logger) *sessionNotifier {
	return &sessionNotifier{sender: sender, users: users, logger: logger}
}

// notify emails the chosen parties of a session. Failures are collected into
// a NotificationError and never undo the change being announced.
func (n *sessionNotifier) notify(
	ctx context.Context,
	kind notify.Kind,
	session *models.Session,
	payment *models.Payment,
	who recipient,
) error {
	if n == nil || n.sender == nil {
		return nil
	}

	client, clientErr := n.users.GetByID(ctx, session.ClientID)
	coach, coachErr := n.users.GetByID(ctx, session.CoachID)
	if clientErr != nil || coachErr != nil {
		notificationFailuresTotal.WithLabelValues(string(kind)).Inc()
		return &NotificationError{
			Recipients: []string{fmt.Sprintf("session %d parties", session.ID)},
			Err:        errors.Join(clientErr, coachErr),
		}
	}

	notice := notify.SessionNotice{
		SessionID: session.ID,
		StartsAt:  slotclock.SlotStart(session.Date, session.TimeSlot),
	}
	if session.Link != nil {
		notice.Link = *session.Link
	}
	if payment != nil {
		notice.Amount = payment.Amount.StringFixed(2)
	}

	type delivery struct {
		to      *models.User
		counter *models.User
	}
	deliveries := make([]delivery, 0, 2)
	if who&toClient != 0 {
		deliveries = append(deliveries, delivery{to: client, counter: coach})
	}
	if who&toCoach != 0 {
		deliveries = append(deliveries, delivery{to: coach, counter: client})
	}

	var failed []string
	var errs []error
	for _, d := range deliveries {
		notice.Recipient = d.to.Username
		notice.Counter = d.counter.Username
		subject, body, err := notify.Render(kind, notice)
		if err == nil {
			err = n.sender.Send(ctx, d.to.Email, subject, body)
		}
		if err != nil {
			n.logger.Warn().Err(err).
				Int64("session_id", session.ID).
				Str("kind", string(kind)).
				Str("to", d.to.Email).
				Msg("session notification failed")
			notificationFailuresTotal.WithLabelValues(string(kind)).Inc()
			failed = append(failed, d.to.Email)
			errs = append(errs, err)
		}
	}

	if len(failed) == 0 {
		return nil
	}
	return &NotificationError{Recipients: failed, Err: errors.Join(errs...)}
}
