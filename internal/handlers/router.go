package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mroshb/matchday/internal/middleware"
	"github.com/mroshb/matchday/internal/services"
)

// Handler exposes the matchmaking services over HTTP.
type Handler struct {
	admission *services.AdmissionService
	readiness *services.ReadinessService
	consensus *services.ConsensusService
}

func NewHandler(admission *services.AdmissionService, readiness *services.ReadinessService, consensus *services.ConsensusService) *Handler {
	return &Handler{
		admission: admission,
		readiness: readiness,
		consensus: consensus,
	}
}

// NewApp builds the fiber app with the shared error handler.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "matchday",
		ErrorHandler: ErrorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
}

// SetupRoutes registers every route. limiter may be nil.
func SetupRoutes(app *fiber.App, h *Handler, jwtSecret string, limiter *middleware.RateLimiter) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	chain := []fiber.Handler{middleware.RequireAuth(jwtSecret)}
	if limiter != nil {
		chain = append(chain, middleware.RateLimit(limiter))
	}
	api := app.Group("/api/v1", chain...)

	// Queue admission
	api.Post("/queue", h.SubmitMatchRequest)
	api.Delete("/queue", h.CancelMatchRequest)
	api.Get("/queue/size", h.QueueSize)

	// Lobby readiness
	api.Post("/lobby/ready", h.MarkReady)
	api.Post("/lobby/waiting", h.MarkWaiting)
	api.Post("/lobby/leave", h.Leave)
	api.Get("/matches/:id/lobby", h.Lobby)

	// Result consensus
	api.Post("/games/:id/scores", h.SubmitScore)
	api.Post("/games/:id/voting/evaluate", h.EvaluateVotingReadiness)
	api.Get("/games/:id/candidates", h.ListCandidates)
	api.Post("/games/:id/votes", h.CastVote)
	api.Post("/games/:id/finalize", h.FinalizeResult)
	api.Get("/games/:id/status", h.GameStatus)
	api.Get("/games/:id/post-eligibility", h.EvaluatePostEligibility)
	api.Get("/me/games", h.GamesForUser)
}
