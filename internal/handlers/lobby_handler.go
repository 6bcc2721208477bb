package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mroshb/matchday/internal/middleware"
)

func (h *Handler) MarkReady(c *fiber.Ctx) error {
	match, err := h.readiness.MarkReady(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(newMatchResponse(match))
}

func (h *Handler) MarkWaiting(c *fiber.Ctx) error {
	match, err := h.readiness.MarkWaiting(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(newMatchResponse(match))
}

func (h *Handler) Leave(c *fiber.Ctx) error {
	match, err := h.readiness.Leave(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(newMatchResponse(match))
}

func (h *Handler) Lobby(c *fiber.Ctx) error {
	matchID, err := pathID(c, "match id")
	if err != nil {
		return err
	}
	view, err := h.readiness.Lobby(c.UserContext(), matchID)
	if err != nil {
		return err
	}
	return c.JSON(newLobbyResponse(view))
}
