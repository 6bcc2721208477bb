package repositories

import (
	"context"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/pkg/errors"
	"gorm.io/gorm"
)

type ScoreReportRepository struct {
	db *gorm.DB
}

func NewScoreReportRepository(db *gorm.DB) *ScoreReportRepository {
	return &ScoreReportRepository{db: db}
}

// CreateScoreReport stores one user's submitted score
func (r *ScoreReportRepository) CreateScoreReport(ctx context.Context, report *models.ScoreReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save score report")
	}
	return nil
}

// ListScoreReports retrieves every report of a game in submission order
func (r *ScoreReportRepository) ListScoreReports(ctx context.Context, gameID uint) ([]models.ScoreReport, error) {
	var reports []models.ScoreReport
	result := r.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id ASC").Find(&reports)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list score reports")
	}
	return reports, nil
}

// SaveScoreReports persists a batch of reports
func (r *ScoreReportRepository) SaveScoreReports(ctx context.Context, reports []models.ScoreReport) error {
	if len(reports) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Save(&reports).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save score reports")
	}
	return nil
}
