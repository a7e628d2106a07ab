package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
)

func TestBlocksSlot(t *testing.T) {
	cases := map[string]bool{
		models.SessionStatusPending:   true,
		models.SessionStatusReserved:  true,
		models.SessionStatusAccepted:  true,
		models.SessionStatusFinished:  false,
		models.SessionStatusCancelled: false,
	}
	for status, want := range cases {
		if got := blocksSlot(status); got != want {
			t.Fatalf("blocksSlot(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestCanAccessSession(t *testing.T) {
	session := &models.Session{ClientID: 1, CoachID: 2}

	cases := []struct {
		name    string
		role    string
		actorID int64
		want    bool
	}{
		{name: "owner client", role: models.RoleClient, actorID: 1, want: true},
		{name: "other client", role: models.RoleClient, actorID: 3, want: false},
		{name: "assigned coach", role: models.RoleCoach, actorID: 2, want: true},
		{name: "client id as coach", role: models.RoleCoach, actorID: 1, want: false},
		{name: "admin", role: models.RoleAdmin, actorID: 99, want: true},
		{name: "unknown role", role: "guest", actorID: 1, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canAccessSession(tc.role, tc.actorID, session); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSessionServiceRejectsBeforeTouchingStorage(t *testing.T) {
	service := &SessionService{}
	ctx := context.Background()

	if _, err := service.ReserveSlot(ctx, 1, "jane", 24); !errors.Is(err, ErrInvalidTimeSlot) {
		t.Fatalf("expected invalid time slot, got %v", err)
	}
	if _, err := service.ReserveSlot(ctx, 1, "jane", -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := service.RescheduleSlot(ctx, 1, 1, 99); !errors.Is(err, ErrInvalidTimeSlot) {
		t.Fatalf("expected invalid time slot, got %v", err)
	}
	if _, err := service.AcceptSession(ctx, 1, 1, models.RoleClient, "https://x.example.com"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := service.ListSessions(ctx, 1, "guest", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPaymentServiceRejectsIncompleteInput(t *testing.T) {
	service := &PaymentService{}
	cases := []SettlePaymentInput{
		{SessionID: 0, ExternalPaymentID: "x"},
		{SessionID: 1, ExternalPaymentID: "  "},
		{SessionID: 1, ExternalPaymentID: "x"},
	}
	for _, input := range cases {
		if _, err := service.SettlePayment(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", input, err)
		}
	}
}

func TestListWithdrawalsIsCoachOnly(t *testing.T) {
	service := &WithdrawalService{}
	if _, err := service.ListWithdrawals(context.Background(), 1, models.RoleClient); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
