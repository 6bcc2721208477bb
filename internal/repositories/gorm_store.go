package repositories

import (
	"context"

	"gorm.io/gorm"
)

// GormStore backs Store with the gorm repositories sharing one handle.
type GormStore struct {
	db *gorm.DB

	*UserRepository
	*GroupRepository
	*QueueRepository
	*MatchRepository
	*GameRepository
	*ScoreReportRepository
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:                    db,
		UserRepository:        NewUserRepository(db),
		GroupRepository:       NewGroupRepository(db),
		QueueRepository:       NewQueueRepository(db),
		MatchRepository:       NewMatchRepository(db),
		GameRepository:        NewGameRepository(db),
		ScoreReportRepository: NewScoreReportRepository(db),
	}
}

// WithinTransaction runs fn against repositories bound to one database
// transaction. Returning an error rolls everything back.
func (s *GormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
