package models

import (
	"time"
)

type FullStatus string

// Match fullness constants
const (
	FullStatusEmpty   FullStatus = "EMPTY"
	FullStatusNotFull FullStatus = "NOT_FULL"
	FullStatusFull    FullStatus = "FULL"
)

type MatchStatus string

// Match lifecycle constants
const (
	MatchStatusNotStarted MatchStatus = "NOT_STARTED"
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusFinished   MatchStatus = "FINISHED"
)

type Readiness string

// Participant readiness constants
const (
	ReadinessWaiting Readiness = "WAITING"
	ReadinessReady   Readiness = "READY"
)

type Match struct {
	ID          uint        `gorm:"primaryKey"`
	Sport       Sport       `gorm:"type:varchar(20);index"`
	MaxSize     int         `gorm:"not null"`
	CurrentSize int         `gorm:"not null;default:0"`
	FullStatus  FullStatus  `gorm:"type:varchar(20);default:'EMPTY'"`
	Status      MatchStatus `gorm:"type:varchar(20);default:'NOT_STARTED';index"`
	ScheduledAt time.Time   `gorm:"index"`
	CreatedAt   time.Time   `gorm:"autoCreateTime"`
}

func (Match) TableName() string {
	return "matches"
}

// FullStatusFor derives fullness from occupancy. Zero is EMPTY even when
// maxSize is zero.
func FullStatusFor(currentSize, maxSize int) FullStatus {
	switch {
	case currentSize <= 0:
		return FullStatusEmpty
	case currentSize < maxSize:
		return FullStatusNotFull
	default:
		return FullStatusFull
	}
}

// MatchParticipant links one user to one match lobby. Rows of finished
// matches stay behind as the user's game history.
type MatchParticipant struct {
	ID        uint      `gorm:"primaryKey"`
	MatchID   uint      `gorm:"not null;uniqueIndex:idx_match_participant"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_match_participant;index"`
	Readiness Readiness `gorm:"type:varchar(20);default:'WAITING';index"`
	JoinedAt  time.Time `gorm:"autoCreateTime"`
}

func (MatchParticipant) TableName() string {
	return "match_participants"
}
