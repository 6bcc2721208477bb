package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mroshb/matchday/internal/middleware"
)

type scoreBody struct {
	TeamA *int `json:"team_a"`
	TeamB *int `json:"team_b"`
}

func (b scoreBody) pair() (int, int, error) {
	if b.TeamA == nil || b.TeamB == nil {
		return 0, 0, badRequest("team_a and team_b are required")
	}
	return *b.TeamA, *b.TeamB, nil
}

func parseScore(c *fiber.Ctx) (int, int, error) {
	var body scoreBody
	if err := c.BodyParser(&body); err != nil {
		return 0, 0, badRequest("invalid request body")
	}
	return body.pair()
}

func (h *Handler) SubmitScore(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	teamA, teamB, err := parseScore(c)
	if err != nil {
		return err
	}

	report, err := h.consensus.SubmitScore(c.UserContext(), id, middleware.UserID(c), teamA, teamB)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newScoreReportResponse(report))
}

func (h *Handler) EvaluateVotingReadiness(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	status, err := h.consensus.EvaluateVotingReadiness(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"game_id": id, "voting_status": status})
}

func (h *Handler) ListCandidates(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	candidates, err := h.consensus.ListCandidates(c.UserContext(), id)
	if err != nil {
		return err
	}

	resp := make([]candidateResponse, 0, len(candidates))
	for _, cand := range candidates {
		resp = append(resp, newCandidateResponse(cand))
	}
	return c.JSON(fiber.Map{"game_id": id, "candidates": resp})
}

func (h *Handler) CastVote(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	teamA, teamB, err := parseScore(c)
	if err != nil {
		return err
	}

	candidate, err := h.consensus.CastVote(c.UserContext(), id, teamA, teamB)
	if err != nil {
		return err
	}
	return c.JSON(newCandidateResponse(*candidate))
}

func (h *Handler) FinalizeResult(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	game, err := h.consensus.FinalizeResult(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(newGameResponse(game))
}

func (h *Handler) GameStatus(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	view, err := h.consensus.GameStatus(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(gameStatusResponse{
		GameID:       view.GameID,
		Status:       string(view.Status),
		VotingStatus: string(view.VotingStatus),
		ResultTeamA:  view.ResultTeamA,
		ResultTeamB:  view.ResultTeamB,
		Reports:      view.Reports,
	})
}

func (h *Handler) EvaluatePostEligibility(c *fiber.Ctx) error {
	id, err := gameID(c)
	if err != nil {
		return err
	}
	eligibility, err := h.consensus.EvaluatePostEligibility(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"game_id": id, "post_eligibility": eligibility})
}

func (h *Handler) GamesForUser(c *fiber.Ctx) error {
	games, err := h.consensus.GamesForUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}

	resp := make([]gameResponse, 0, len(games))
	for i := range games {
		resp = append(resp, newGameResponse(&games[i]))
	}
	return c.JSON(fiber.Map{"games": resp})
}
