package models

import (
	"time"

	"gorm.io/gorm"
)

type UserMatchStatus string

// User match status constants
const (
	UserUnmatched UserMatchStatus = "UNMATCHED"
	UserMatched   UserMatchStatus = "MATCHED"
)

// User is owned by the identity subsystem; matchmaking only flips MatchStatus.
type User struct {
	ID          uint            `gorm:"primaryKey"`
	Nickname    string          `gorm:"type:varchar(100);not null"`
	City        string          `gorm:"type:varchar(100);index"`
	District    string          `gorm:"type:varchar(100)"`
	MatchStatus UserMatchStatus `gorm:"type:varchar(20);default:'UNMATCHED';not null;index"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

// BeforeSave hook for validation
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Nickname == "" {
		return gorm.ErrInvalidData
	}

	switch u.MatchStatus {
	case "":
		u.MatchStatus = UserUnmatched
	case UserUnmatched, UserMatched:
	default:
		return gorm.ErrInvalidData
	}

	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// UserGroup is a pre-formed party that queues together under one code.
type UserGroup struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string    `gorm:"type:varchar(100)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (UserGroup) TableName() string {
	return "user_groups"
}

type GroupMember struct {
	ID       uint `gorm:"primaryKey"`
	GroupID  uint `gorm:"not null;index:idx_group_member,unique"`
	UserID   uint `gorm:"not null;index:idx_group_member,unique"`
	Position int  `gorm:"default:0"` // member order within the group
}

func (GroupMember) TableName() string {
	return "group_members"
}
