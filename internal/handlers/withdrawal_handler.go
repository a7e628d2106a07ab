package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/services"
)

type withdrawalApplicationService interface {
	SweepWithdrawals(ctx context.Context) (*models.WithdrawalBatch, error)
	ListWithdrawals(ctx context.Context, coachID int64, role string) ([]models.Withdrawal, error)
}

type WithdrawalHandler struct {
	service withdrawalApplicationService
}

func NewWithdrawalHandler(service *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{service: service}
}

func (h *WithdrawalHandler) ListWithdrawals(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	withdrawals, err := h.service.ListWithdrawals(c.Context(), userID, role)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"withdrawals": withdrawals})
}

func (h *WithdrawalHandler) SweepWithdrawals(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	batch, err := h.service.SweepWithdrawals(c.Context())
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"batch": batch})
}
