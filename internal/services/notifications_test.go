package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/notify"
	"github.com/rs/zerolog"
)

type stubUsers map[int64]*models.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if user, ok := s[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type stubSender struct {
	sent    []sentMail
	failFor map[string]error
}

func (s *stubSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if err, ok := s.failFor[to]; ok {
		return err
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func testParties() stubUsers {
	return stubUsers{
		1: {ID: 1, Username: "sam", Email: "sam@example.com", Role: models.RoleClient},
		2: {ID: 2, Username: "jane", Email: "jane@example.com", Role: models.RoleCoach},
	}
}

func testSession() *models.Session {
	link := "https://meet.example.com/xyz"
	return &models.Session{
		ID:       30,
		ClientID: 1,
		CoachID:  2,
		Date:     time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
		TimeSlot: 14,
		Link:     &link,
	}
}

func TestSessionNotifierSendsToBothParties(t *testing.T) {
	sender := &stubSender{}
	n := newSessionNotifier(sender, testParties(), zerolog.Nop())

	if err := n.notify(context.Background(), notify.KindCancelled, testSession(), nil, toBoth); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected two emails, got %d", len(sender.sent))
	}
	if sender.sent[0].to != "sam@example.com" || sender.sent[1].to != "jane@example.com" {
		t.Fatalf("unexpected recipients %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].body, "jane") {
		t.Fatalf("expected client email to name the coach, got %q", sender.sent[0].body)
	}
}

func TestSessionNotifierAcceptedGoesToClientOnly(t *testing.T) {
	sender := &stubSender{}
	n := newSessionNotifier(sender, testParties(), zerolog.Nop())

	if err := n.notify(context.Background(), notify.KindAccepted, testSession(), nil, toClient); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].to != "sam@example.com" {
		t.Fatalf("expected one email to the client, got %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].body, "https://meet.example.com/xyz") {
		t.Fatalf("expected delivery link in body, got %q", sender.sent[0].body)
	}
}

func TestSessionNotifierReportsFailedRecipient(t *testing.T) {
	boom := errors.New("smtp timeout")
	sender := &stubSender{failFor: map[string]error{"jane@example.com": boom}}
	n := newSessionNotifier(sender, testParties(), zerolog.Nop())

	err := n.notify(context.Background(), notify.KindReserved, testSession(), nil, toBoth)
	if !errors.Is(err, ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error to be wrapped, got %v", err)
	}
	var notifErr *NotificationError
	if !errors.As(err, &notifErr) || len(notifErr.Recipients) != 1 || notifErr.Recipients[0] != "jane@example.com" {
		t.Fatalf("expected jane to be the failed recipient, got %+v", notifErr)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected the client email to still be sent, got %d", len(sender.sent))
	}
}

func TestSessionNotifierMissingPartyIsNotificationError(t *testing.T) {
	n := newSessionNotifier(&stubSender{}, stubUsers{}, zerolog.Nop())

	err := n.notify(context.Background(), notify.KindReserved, testSession(), nil, toBoth)
	if !errors.Is(err, ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
}

func TestSessionNotifierWithoutSenderIsSilent(t *testing.T) {
	n := newSessionNotifier(nil, testParties(), zerolog.Nop())
	if err := n.notify(context.Background(), notify.KindReserved, testSession(), nil, toBoth); err != nil {
		t.Fatalf("expected nil error without sender, got %v", err)
	}
}
