package handlers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
)

const maxReviewLength = 500

func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

func parseRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("role").(string)
	if !ok {
		return "", false
	}
	switch role {
	case models.RoleClient, models.RoleCoach, models.RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

func parseSessionID(c *fiber.Ctx) (int64, error) {
	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return 0, errors.New("invalid session id")
	}
	return sessionID, nil
}

func validateTimeSlotField(slot *int) string {
	if slot == nil {
		return "time_slot is required"
	}
	if *slot < 0 || *slot > 23 {
		return "time_slot must be between 0 and 23"
	}
	return ""
}

func validateDeliveryLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return "link is required"
	}
	parsed, err := url.ParseRequestURI(link)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "link must be a valid http(s) URL"
	}
	return ""
}

func validateReview(review *string) string {
	if review == nil {
		return ""
	}
	if utf8.RuneCountInString(*review) > maxReviewLength {
		return "review must be at most 500 characters"
	}
	return ""
}

func validateRating(rating *int) string {
	if rating == nil {
		return ""
	}
	if *rating < 1 || *rating > 5 {
		return "rating must be between 1 and 5"
	}
	return ""
}

func validSessionStatus(status string) bool {
	switch status {
	case "",
		models.SessionStatusPending,
		models.SessionStatusReserved,
		models.SessionStatusAccepted,
		models.SessionStatusFinished,
		models.SessionStatusCancelled:
		return true
	default:
		return false
	}
}
