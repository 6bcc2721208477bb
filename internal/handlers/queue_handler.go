package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mroshb/matchday/internal/middleware"
	"github.com/mroshb/matchday/internal/security"
	"github.com/mroshb/matchday/internal/services"
	"github.com/mroshb/matchday/pkg/utils"
)

type matchRequestBody struct {
	GroupCode string `json:"group_code"`
	Sport     string `json:"sport"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// SubmitMatchRequest queues the caller, or the caller's group when a group
// code is given.
func (h *Handler) SubmitMatchRequest(c *fiber.Ctx) error {
	var body matchRequestBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest("invalid request body")
	}

	matchTime, err := parseMatchTime(body.Date, body.Time)
	if err != nil {
		return err
	}

	req := services.MatchRequest{
		UserID:    middleware.UserID(c),
		GroupCode: security.SanitizeCode(body.GroupCode),
		Sport:     security.SanitizeString(body.Sport),
		MatchTime: matchTime,
	}

	result, err := h.admission.SubmitMatchRequest(c.UserContext(), req)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if result.Throttled || len(result.Entries) == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(newAdmissionResponse(result))
}

func (h *Handler) CancelMatchRequest(c *fiber.Ctx) error {
	if err := h.admission.CancelMatchRequest(c.UserContext(), middleware.UserID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) QueueSize(c *fiber.Ctx) error {
	size, err := h.admission.QueueSize(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"queue_size": size})
}

// parseMatchTime joins a "2006-01-02" date and an optional "15:04" time in
// UTC. Both empty means no preference.
func parseMatchTime(date, clock string) (time.Time, error) {
	date, clock = utils.NormalizeDigits(date), utils.NormalizeDigits(clock)
	if date == "" && clock == "" {
		return time.Time{}, nil
	}
	if date == "" {
		return time.Time{}, badRequest("date is required when time is set")
	}
	if clock == "" {
		clock = "00:00"
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, badRequest("date must be YYYY-MM-DD and time HH:MM")
	}
	return t, nil
}
