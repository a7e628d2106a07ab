package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/services"
	"github.com/rs/zerolog"
)

type SessionHandler struct {
	service sessionApplicationService
	logger  zerolog.Logger
}

type sessionApplicationService interface {
	ReserveSlot(ctx context.Context, clientID int64, coachUsername string, timeSlot int) (*services.Reservation, error)
	RescheduleSlot(ctx context.Context, sessionID, clientID int64, newTimeSlot int) (*models.SessionDetail, error)
	AcceptSession(ctx context.Context, sessionID, coachUserID int64, role, deliveryURL string) (*models.SessionDetail, error)
	FinishSession(ctx context.Context, sessionID, clientUserID int64, input services.FinishSessionInput) (*models.SessionDetail, error)
	CancelSession(ctx context.Context, sessionID, callerID int64, callerRole string) (*models.SessionDetail, error)
	GetSession(ctx context.Context, actorID int64, role string, sessionID int64) (*models.SessionDetail, error)
	ListSessions(ctx context.Context, actorID int64, role string, status string) ([]models.SessionDetail, error)
	ListCoachSlots(ctx context.Context, coachUsername string) (*services.CoachSlots, error)
}

func NewSessionHandler(service *services.SessionService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: logger}
}

type reserveSlotRequest struct {
	CoachUsername string `json:"coach_username"`
	TimeSlot      *int   `json:"time_slot"`
}

type rescheduleSlotRequest struct {
	TimeSlot *int `json:"time_slot"`
}

type acceptSessionRequest struct {
	Link string `json:"link"`
}

type finishSessionRequest struct {
	Review *string `json:"review"`
	Rating *int    `json:"rating"`
}

func (h *SessionHandler) ReserveSlot(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req reserveSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.CoachUsername = strings.TrimSpace(req.CoachUsername)
	if req.CoachUsername == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "coach_username is required"})
	}
	if msg := validateTimeSlotField(req.TimeSlot); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	reservation, err := h.service.ReserveSlot(c.Context(), userID, req.CoachUsername, *req.TimeSlot)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session":  reservation.Session,
		"checkout": reservation.Checkout,
	})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	if !validSessionStatus(status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
	}

	sessions, err := h.service.ListSessions(c.Context(), userID, role, status)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.Context(), userID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) RescheduleSlot(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req rescheduleSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if msg := validateTimeSlotField(req.TimeSlot); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	session, err := h.service.RescheduleSlot(c.Context(), sessionID, userID, *req.TimeSlot)
	return h.respondWithSession(c, fiber.StatusOK, session, err)
}

func (h *SessionHandler) AcceptSession(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || role != models.RoleCoach {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req acceptSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if msg := validateDeliveryLink(req.Link); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	session, err := h.service.AcceptSession(c.Context(), sessionID, userID, role, strings.TrimSpace(req.Link))
	return h.respondWithSession(c, fiber.StatusOK, session, err)
}

func (h *SessionHandler) FinishSession(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req finishSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}
	if msg := validateRating(req.Rating); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	if msg := validateReview(req.Review); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	session, err := h.service.FinishSession(c.Context(), sessionID, userID, services.FinishSessionInput{
		Review: req.Review,
		Rating: req.Rating,
	})
	return h.respondWithSession(c, fiber.StatusOK, session, err)
}

func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	role, ok := parseRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.CancelSession(c.Context(), sessionID, userID, role)
	return h.respondWithSession(c, fiber.StatusOK, session, err)
}

func (h *SessionHandler) ListCoachSlots(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach username"})
	}

	slots, err := h.service.ListCoachSlots(c.Context(), username)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

// respondWithSession writes a committed session. A notification failure is
// still a success for the caller and is surfaced as a warning.
func (h *SessionHandler) respondWithSession(c *fiber.Ctx, status int, session *models.SessionDetail, err error) error {
	if err != nil && !errors.Is(err, services.ErrNotification) {
		return mapSessionError(c, err)
	}

	body := fiber.Map{"session": session}
	if err != nil {
		h.logger.Warn().Err(err).Int64("session_id", session.ID).Msg("session updated but notification failed")
		body["warning"] = "Session updated but some notifications could not be delivered"
	}
	return c.Status(status).JSON(body)
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
