package repositories

import (
	"context"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateMatch creates a new match lobby
func (r *MatchRepository) CreateMatch(ctx context.Context, match *models.Match) error {
	if err := r.db.WithContext(ctx).Create(match).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create match")
	}
	return nil
}

// GetMatchByID retrieves a match by ID
func (r *MatchRepository) GetMatchByID(ctx context.Context, id uint) (*models.Match, error) {
	return r.getMatch(r.db.WithContext(ctx), id)
}

// GetMatchForUpdate retrieves a match holding a row lock until commit
func (r *MatchRepository) GetMatchForUpdate(ctx context.Context, id uint) (*models.Match, error) {
	return r.getMatch(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *MatchRepository) getMatch(db *gorm.DB, id uint) (*models.Match, error) {
	var match models.Match
	result := db.First(&match, id)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "match not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get match from db")
	}
	return &match, nil
}

// SaveMatch persists every field of match
func (r *MatchRepository) SaveMatch(ctx context.Context, match *models.Match) error {
	if err := r.db.WithContext(ctx).Save(match).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save match")
	}
	return nil
}

// CreateParticipant adds a user to a match lobby
func (r *MatchRepository) CreateParticipant(ctx context.Context, participant *models.MatchParticipant) error {
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to add participant")
	}
	return nil
}

// GetParticipant retrieves one user's row in one match
func (r *MatchRepository) GetParticipant(ctx context.Context, matchID, userID uint) (*models.MatchParticipant, error) {
	var participant models.MatchParticipant
	result := r.db.WithContext(ctx).Where("match_id = ? AND user_id = ?", matchID, userID).First(&participant)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "participant not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get participant")
	}

	return &participant, nil
}

// GetParticipantByUser retrieves the current lobby membership of a user
func (r *MatchRepository) GetParticipantByUser(ctx context.Context, userID uint) (*models.MatchParticipant, error) {
	var participant models.MatchParticipant
	result := r.db.WithContext(ctx).
		Select("match_participants.*").
		Joins("JOIN matches ON matches.id = match_participants.match_id").
		Where("match_participants.user_id = ? AND matches.status <> ?", userID, models.MatchStatusFinished).
		Order("match_participants.id DESC").
		Take(&participant)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "participant not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get participant")
	}

	return &participant, nil
}

// SaveParticipant persists every field of participant
func (r *MatchRepository) SaveParticipant(ctx context.Context, participant *models.MatchParticipant) error {
	if err := r.db.WithContext(ctx).Save(participant).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save participant")
	}
	return nil
}

// DeleteParticipant removes a user from a match lobby
func (r *MatchRepository) DeleteParticipant(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.MatchParticipant{}, id)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to remove participant")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "participant not found")
	}
	return nil
}

// ListParticipants retrieves every participant of a match in join order
func (r *MatchRepository) ListParticipants(ctx context.Context, matchID uint) ([]models.MatchParticipant, error) {
	var participants []models.MatchParticipant
	result := r.db.WithContext(ctx).Where("match_id = ?", matchID).Order("id ASC").Find(&participants)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list participants")
	}
	return participants, nil
}

// CountParticipantsByReadiness counts participants of a match in one readiness state
func (r *MatchRepository) CountParticipantsByReadiness(ctx context.Context, matchID uint, readiness models.Readiness) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.MatchParticipant{}).
		Where("match_id = ? AND readiness = ?", matchID, readiness).
		Count(&count)

	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to count participants")
	}

	return count, nil
}

// ListMatchedUserIDs returns the ids of every user sitting in an unfinished match
func (r *MatchRepository) ListMatchedUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	result := r.db.WithContext(ctx).Model(&models.MatchParticipant{}).
		Joins("JOIN matches ON matches.id = match_participants.match_id").
		Where("matches.status <> ?", models.MatchStatusFinished).
		Distinct().
		Pluck("match_participants.user_id", &ids)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list matched users")
	}
	return ids, nil
}
