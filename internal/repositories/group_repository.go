package repositories

import (
	"context"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/pkg/errors"
	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateGroup creates a group and its ordered member rows in one transaction
func (r *GroupRepository) CreateGroup(ctx context.Context, group *models.UserGroup, memberIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create group")
		}

		for i, userID := range memberIDs {
			member := &models.GroupMember{
				GroupID:  group.ID,
				UserID:   userID,
				Position: i,
			}
			if err := tx.Create(member).Error; err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, "failed to add group member")
			}
		}

		return nil
	})
}

// GetGroupByCode retrieves a group by its join code
func (r *GroupRepository) GetGroupByCode(ctx context.Context, code string) (*models.UserGroup, error) {
	var group models.UserGroup
	result := r.db.WithContext(ctx).Where("code = ?", code).First(&group)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "group not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get group")
	}

	return &group, nil
}

// GetGroupMembers retrieves all members of a group in join order
func (r *GroupRepository) GetGroupMembers(ctx context.Context, groupID uint) ([]models.User, error) {
	var members []models.User
	result := r.db.WithContext(ctx).Table("users").
		Select("users.*").
		Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", groupID).
		Order("group_members.position ASC, group_members.id ASC").
		Find(&members)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get group members")
	}

	return members, nil
}
