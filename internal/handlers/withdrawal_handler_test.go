package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/services"
	"github.com/shopspring/decimal"
)

type stubWithdrawalService struct {
	batch       *models.WithdrawalBatch
	withdrawals []models.Withdrawal
	sweeps      int
	lastCoachID int64
	lastRole    string
}

func (s *stubWithdrawalService) SweepWithdrawals(_ context.Context) (*models.WithdrawalBatch, error) {
	s.sweeps++
	return s.batch, nil
}

func (s *stubWithdrawalService) ListWithdrawals(_ context.Context, coachID int64, role string) ([]models.Withdrawal, error) {
	s.lastCoachID, s.lastRole = coachID, role
	if role != models.RoleCoach {
		return nil, services.ErrForbidden
	}
	return s.withdrawals, nil
}

func newWithdrawalTestApp(service *stubWithdrawalService, role, userID string) *fiber.App {
	handler := &WithdrawalHandler{service: service}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/v1/withdrawals", handler.ListWithdrawals)
	app.Post("/api/v1/admin/withdrawals/sweep", handler.SweepWithdrawals)
	return app
}

func TestSweepWithdrawalsReturnsBatch(t *testing.T) {
	batchID := uuid.New()
	service := &stubWithdrawalService{batch: &models.WithdrawalBatch{
		BatchID: batchID,
		Withdrawals: []models.Withdrawal{
			{CoachID: 7, BatchID: batchID, Amount: decimal.NewFromInt(900), Status: models.WithdrawalStatusFinished},
		},
		Total: decimal.NewFromInt(900),
	}}
	app := newWithdrawalTestApp(service, models.RoleAdmin, "1")

	resp, payload := doJSON(t, app, http.MethodPost, "/api/v1/admin/withdrawals/sweep", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	batch, ok := payload["batch"].(map[string]any)
	if !ok || batch["batch_id"] != batchID.String() || batch["total"] != "900" {
		t.Fatalf("unexpected batch %v", payload)
	}
}

func TestSweepWithdrawalsIsAdminOnly(t *testing.T) {
	service := &stubWithdrawalService{}
	app := newWithdrawalTestApp(service, models.RoleCoach, "7")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/admin/withdrawals/sweep", "")

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.sweeps != 0 {
		t.Fatalf("expected no sweep")
	}
}

func TestListWithdrawalsForCoach(t *testing.T) {
	service := &stubWithdrawalService{withdrawals: []models.Withdrawal{{ID: 1, CoachID: 7}}}
	app := newWithdrawalTestApp(service, models.RoleCoach, "7")

	resp, payload := doJSON(t, app, http.MethodGet, "/api/v1/withdrawals", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastCoachID != 7 {
		t.Fatalf("expected coach 7, got %d", service.lastCoachID)
	}
	if list, ok := payload["withdrawals"].([]any); !ok || len(list) != 1 {
		t.Fatalf("unexpected withdrawals %v", payload)
	}
}

func TestListWithdrawalsForClientIsForbidden(t *testing.T) {
	app := newWithdrawalTestApp(&stubWithdrawalService{}, models.RoleClient, "42")

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/withdrawals", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
