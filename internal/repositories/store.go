package repositories

import (
	"context"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/pkg/errors"
)

// ErrRecordNotFound matches every NOT_FOUND error returned by a store.
var ErrRecordNotFound = errors.New(errors.ErrCodeNotFound, "record not found")

type UserStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

type GroupStore interface {
	GetGroupByCode(ctx context.Context, code string) (*models.UserGroup, error)
	// GetGroupMembers returns members ordered by their position in the group.
	GetGroupMembers(ctx context.Context, groupID uint) ([]models.User, error)
}

type QueueStore interface {
	CountQueueEntries(ctx context.Context) (int64, error)
	CreateQueueEntry(ctx context.Context, entry *models.QueueEntry) error
	GetQueueEntryByUser(ctx context.Context, userID uint) (*models.QueueEntry, error)
	DeleteQueueEntry(ctx context.Context, id uint) error
	ListQueuedUserIDs(ctx context.Context) ([]uint, error)
}

type MatchStore interface {
	CreateMatch(ctx context.Context, match *models.Match) error
	GetMatchByID(ctx context.Context, id uint) (*models.Match, error)
	// GetMatchForUpdate locks the match row until the surrounding transaction ends.
	GetMatchForUpdate(ctx context.Context, id uint) (*models.Match, error)
	SaveMatch(ctx context.Context, match *models.Match) error
}

type ParticipantStore interface {
	CreateParticipant(ctx context.Context, participant *models.MatchParticipant) error
	GetParticipant(ctx context.Context, matchID, userID uint) (*models.MatchParticipant, error)
	// GetParticipantByUser returns the user's lobby in a match that has not
	// finished, the newest one when there are several.
	GetParticipantByUser(ctx context.Context, userID uint) (*models.MatchParticipant, error)
	SaveParticipant(ctx context.Context, participant *models.MatchParticipant) error
	DeleteParticipant(ctx context.Context, id uint) error
	ListParticipants(ctx context.Context, matchID uint) ([]models.MatchParticipant, error)
	CountParticipantsByReadiness(ctx context.Context, matchID uint, readiness models.Readiness) (int64, error)
	// ListMatchedUserIDs returns users sitting in a match that has not finished.
	ListMatchedUserIDs(ctx context.Context) ([]uint, error)
}

type GameStore interface {
	CreateGame(ctx context.Context, game *models.Game) error
	GetGameByID(ctx context.Context, id uint) (*models.Game, error)
	GetGameForUpdate(ctx context.Context, id uint) (*models.Game, error)
	SaveGame(ctx context.Context, game *models.Game) error
	ListGamesByVotingStatus(ctx context.Context, status models.VotingStatus) ([]models.Game, error)
	ListGamesForUser(ctx context.Context, userID uint) ([]models.Game, error)
	ListFinalizedGames(ctx context.Context) ([]models.Game, error)
	// ListGamesAwaitingFinalize returns closed games without a committed result.
	ListGamesAwaitingFinalize(ctx context.Context) ([]models.Game, error)
}

type ScoreReportStore interface {
	CreateScoreReport(ctx context.Context, report *models.ScoreReport) error
	// ListScoreReports returns reports in submission (id) order.
	ListScoreReports(ctx context.Context, gameID uint) ([]models.ScoreReport, error)
	SaveScoreReports(ctx context.Context, reports []models.ScoreReport) error
}

// Store is the unit of work the services run against. Stores handed to the
// WithinTransaction callback commit together or not at all.
type Store interface {
	UserStore
	GroupStore
	QueueStore
	MatchStore
	ParticipantStore
	GameStore
	ScoreReportStore

	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}
