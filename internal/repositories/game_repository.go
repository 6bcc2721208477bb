package repositories

import (
	"context"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

// CreateGame creates the game played out of a match
func (r *GameRepository) CreateGame(ctx context.Context, game *models.Game) error {
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create game")
	}
	return nil
}

// GetGameByID retrieves a game by ID
func (r *GameRepository) GetGameByID(ctx context.Context, id uint) (*models.Game, error) {
	return r.getGame(r.db.WithContext(ctx), id)
}

// GetGameForUpdate retrieves a game holding a row lock until commit
func (r *GameRepository) GetGameForUpdate(ctx context.Context, id uint) (*models.Game, error) {
	return r.getGame(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GameRepository) getGame(db *gorm.DB, id uint) (*models.Game, error) {
	var game models.Game
	result := db.First(&game, id)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "game not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get game")
	}
	return &game, nil
}

// SaveGame persists every field of game
func (r *GameRepository) SaveGame(ctx context.Context, game *models.Game) error {
	if err := r.db.WithContext(ctx).Save(game).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save game")
	}
	return nil
}

// ListGamesByVotingStatus retrieves games in one voting state, oldest first
func (r *GameRepository) ListGamesByVotingStatus(ctx context.Context, status models.VotingStatus) ([]models.Game, error) {
	var games []models.Game
	result := r.db.WithContext(ctx).Where("voting_status = ?", status).Order("id ASC").Find(&games)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list games")
	}
	return games, nil
}

// ListGamesForUser retrieves the games of every match the user sits in
func (r *GameRepository) ListGamesForUser(ctx context.Context, userID uint) ([]models.Game, error) {
	var games []models.Game
	result := r.db.WithContext(ctx).Table("games").
		Select("games.*").
		Joins("JOIN match_participants ON match_participants.match_id = games.match_id").
		Where("match_participants.user_id = ?", userID).
		Order("games.created_at DESC").
		Find(&games)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get user games")
	}

	return games, nil
}

// ListGamesAwaitingFinalize retrieves closed games with no committed result
func (r *GameRepository) ListGamesAwaitingFinalize(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	result := r.db.WithContext(ctx).
		Where("voting_status = ? AND finalized_at IS NULL", models.VotingClosed).
		Order("id ASC").
		Find(&games)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list games awaiting finalize")
	}
	return games, nil
}

// ListFinalizedGames retrieves every game with a committed result
func (r *GameRepository) ListFinalizedGames(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	result := r.db.WithContext(ctx).Where("finalized_at IS NOT NULL").Order("finalized_at ASC").Find(&games)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list finalized games")
	}
	return games, nil
}
