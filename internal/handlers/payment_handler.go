package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/gateway"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/services"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type paymentSettler interface {
	SettlePayment(ctx context.Context, input services.SettlePaymentInput) (*models.SessionDetail, error)
}

type notificationVerifier interface {
	Verify(n gateway.Notification) error
}

// PaymentHandler receives the gateway's server-to-server payment callback.
type PaymentHandler struct {
	service  paymentSettler
	verifier notificationVerifier
	logger   zerolog.Logger
}

func NewPaymentHandler(service *services.PaymentService, verifier *gateway.Signer, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, verifier: verifier, logger: logger}
}

func (h *PaymentHandler) Notify(c *fiber.Ctx) error {
	statusCode, err := strconv.Atoi(strings.TrimSpace(c.FormValue("status_code")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status_code"})
	}

	notification := gateway.Notification{
		MerchantID: strings.TrimSpace(c.FormValue("merchant_id")),
		OrderID:    strings.TrimSpace(c.FormValue("order_id")),
		PaymentID:  strings.TrimSpace(c.FormValue("payment_id")),
		Amount:     strings.TrimSpace(c.FormValue("payhere_amount")),
		Currency:   strings.TrimSpace(c.FormValue("payhere_currency")),
		StatusCode: statusCode,
		Signature:  strings.TrimSpace(c.FormValue("md5sig")),
	}

	if err := h.verifier.Verify(notification); err != nil {
		if errors.Is(err, gateway.ErrNotConfigured) {
			h.logger.Error().
				Str("order_id", notification.OrderID).
				Msg("payment notification refused, merchant credentials missing")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Payments are not configured"})
		}
		h.logger.Warn().
			Str("order_id", notification.OrderID).
			Str("payment_id", notification.PaymentID).
			Msg("rejected payment notification with bad signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
	}

	if notification.StatusCode != gateway.StatusSuccess {
		h.logger.Info().
			Str("order_id", notification.OrderID).
			Int("status_code", notification.StatusCode).
			Msg("ignoring non-success payment notification")
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	sessionID, err := strconv.ParseInt(notification.OrderID, 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order_id"})
	}
	amount, err := decimal.NewFromString(notification.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payhere_amount"})
	}

	session, err := h.service.SettlePayment(c.Context(), services.SettlePaymentInput{
		SessionID:         sessionID,
		GrossAmount:       amount,
		ExternalPaymentID: notification.PaymentID,
	})
	if err != nil && !errors.Is(err, services.ErrNotification) {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.logger.Warn().
				Int64("session_id", sessionID).
				Str("payment_id", notification.PaymentID).
				Msg("payment arrived for a missing or expired session")
		}
		return mapSessionError(c, err)
	}

	body := fiber.Map{"status": "settled", "session": session}
	if err != nil {
		h.logger.Warn().Err(err).Int64("session_id", sessionID).Msg("payment settled but notification failed")
		body["warning"] = "Payment settled but some notifications could not be delivered"
	}
	return c.JSON(body)
}
