package models

import (
	"time"
)

type MatchType string

// Match type constants
const (
	MatchTypeIndividual MatchType = "INDIVIDUAL"
	MatchTypeGroup      MatchType = "GROUP"
)

type QueueStatus string

// Queue status constants
const (
	QueueStatusPending QueueStatus = "PENDING"
	QueueStatusMatched QueueStatus = "MATCHED"
	QueueStatusExpired QueueStatus = "EXPIRED"
)

// QueueEntry is one pending match request. The external match-formation
// process consumes and deletes entries.
type QueueEntry struct {
	ID         uint        `gorm:"primaryKey"`
	Ticket     string      `gorm:"type:varchar(36);uniqueIndex;not null"`
	UserID     uint        `gorm:"uniqueIndex;not null"`
	Sport      Sport       `gorm:"type:varchar(20);not null;index"`
	City       string      `gorm:"type:varchar(100);index"`
	District   string      `gorm:"type:varchar(100)"`
	GroupCode  string      `gorm:"type:varchar(32);index"`
	MatchTime  time.Time   `gorm:"index"`
	MatchType  MatchType   `gorm:"type:varchar(20);not null"`
	Status     QueueStatus `gorm:"type:varchar(20);default:'PENDING';index"`
	EnqueuedAt time.Time   `gorm:"index"`
}

func (QueueEntry) TableName() string {
	return "queue_entries"
}
