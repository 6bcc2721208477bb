package handlers

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mroshb/matchday/pkg/errors"
	"github.com/mroshb/matchday/pkg/logger"
)

var statusByCode = map[string]int{
	errors.ErrCodeValidation:       fiber.StatusBadRequest,
	errors.ErrCodeValidationFailed: fiber.StatusBadRequest,
	errors.ErrCodeInvalidGroup:     fiber.StatusBadRequest,
	errors.ErrCodeInvalidUser:      fiber.StatusBadRequest,
	errors.ErrCodeInvalidSport:     fiber.StatusBadRequest,
	errors.ErrCodeInvalidCandidate: fiber.StatusBadRequest,
	errors.ErrCodeInvalidScore:     fiber.StatusBadRequest,

	errors.ErrCodeNotFound:            fiber.StatusNotFound,
	errors.ErrCodeParticipantNotFound: fiber.StatusNotFound,
	errors.ErrCodeQueueEntryNotFound:  fiber.StatusNotFound,
	errors.ErrCodeGameNotFound:        fiber.StatusNotFound,

	errors.ErrCodeAlreadyExists:   fiber.StatusConflict,
	errors.ErrCodeMatchInProgress: fiber.StatusConflict,
	errors.ErrCodeVotingOpen:      fiber.StatusConflict,
	errors.ErrCodeVotingClosed:    fiber.StatusConflict,
	errors.ErrCodeResultFinalized: fiber.StatusConflict,
	errors.ErrCodeReportLimit:     fiber.StatusConflict,

	errors.ErrCodeUnauthorized:      fiber.StatusUnauthorized,
	errors.ErrCodeForbidden:         fiber.StatusForbidden,
	errors.ErrCodeNotParticipant:    fiber.StatusForbidden,
	errors.ErrCodeNotGroupMember:    fiber.StatusForbidden,
	errors.ErrCodeRateLimitExceeded: fiber.StatusTooManyRequests,
}

// StatusFor maps an error code to its HTTP status; unknown codes are 500.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error as {"error": {"code", "message"}}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if stderrors.As(err, &fiberErr) {
		code := errors.ErrCodeValidation
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			code = errors.ErrCodeNotFound
		case fiberErr.Code >= fiber.StatusInternalServerError:
			code = errors.ErrCodeInternalError
		}
		return c.Status(fiberErr.Code).JSON(errorBody(code, fiberErr.Message))
	}

	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		appErr = errors.Wrap(err, errors.ErrCodeInternalError, "internal error")
	}

	status := StatusFor(appErr.Code)
	message := appErr.Message
	if status == fiber.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "method", c.Method(), "path", c.Path())
		message = "internal error"
	}

	return c.Status(status).JSON(errorBody(appErr.Code, message))
}

func errorBody(code, message string) fiber.Map {
	return fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	}
}

func badRequest(message string) error {
	return errors.New(errors.ErrCodeValidation, message)
}

func gameID(c *fiber.Ctx) (uint, error) {
	return pathID(c, "game id")
}

func pathID(c *fiber.Ctx, what string) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + what)
	}
	return uint(id), nil
}
