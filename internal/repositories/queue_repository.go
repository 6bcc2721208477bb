package repositories

import (
	"context"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/pkg/errors"
	"gorm.io/gorm"
)

type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// CountQueueEntries returns the current queue length
func (r *QueueRepository) CountQueueEntries(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.QueueEntry{}).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to count queue")
	}
	return count, nil
}

// CreateQueueEntry adds an entry to the matchmaking queue
func (r *QueueRepository) CreateQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to add to queue")
	}
	return nil
}

// GetQueueEntryByUser retrieves user's queue entry
func (r *QueueRepository) GetQueueEntryByUser(ctx context.Context, userID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&entry)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "queue entry not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get queue entry")
	}

	return &entry, nil
}

// DeleteQueueEntry removes an entry from the matchmaking queue
func (r *QueueRepository) DeleteQueueEntry(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.QueueEntry{}, id)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to remove from queue")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "queue entry not found")
	}
	return nil
}

// ListQueuedUserIDs returns the ids of every queued user
func (r *QueueRepository) ListQueuedUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	result := r.db.WithContext(ctx).Model(&models.QueueEntry{}).Pluck("user_id", &ids)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list queued users")
	}
	return ids, nil
}
