package models

import (
	"time"
)

type GameStatus string

// Game lifecycle constants
const (
	GameStatusScheduled  GameStatus = "SCHEDULED"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusEnded      GameStatus = "ENDED"
)

type VotingStatus string

// Voting readiness constants
const (
	VotingOpen   VotingStatus = "VOTING_OPEN"
	VotingClosed VotingStatus = "VOTING_CLOSED"
)

type PostEligibility string

// Post eligibility constants
const (
	PostNotReady    PostEligibility = "NOT_READY"
	PostReadyToPost PostEligibility = "READY_TO_POST"
)

type ReportStage string

// Score report stage constants
const (
	ReportProvisional ReportStage = "PROVISIONAL"
	ReportFinal       ReportStage = "FINAL"
)

type Game struct {
	ID             uint         `gorm:"primaryKey"`
	MatchID        uint         `gorm:"uniqueIndex;not null"`
	Status         GameStatus   `gorm:"type:varchar(20);default:'SCHEDULED';index"`
	VotingStatus   VotingStatus `gorm:"type:varchar(20);default:'VOTING_OPEN';index"`
	ResultTeamA    int          `gorm:"default:0"`
	ResultTeamB    int          `gorm:"default:0"`
	VotingClosedAt *time.Time
	FinalizedAt    *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (Game) TableName() string {
	return "games"
}

// HasResult reports whether a non-zero result has been recorded.
func (g *Game) HasResult() bool {
	return g.ResultTeamA != 0 || g.ResultTeamB != 0
}

// ScoreReport is one user's claimed final score and a voting candidate.
type ScoreReport struct {
	ID         uint        `gorm:"primaryKey"`
	GameID     uint        `gorm:"not null;index"`
	UserID     uint        `gorm:"not null;index"`
	TeamAScore int         `gorm:"not null"`
	TeamBScore int         `gorm:"not null"`
	Votes      int         `gorm:"default:0"`
	Stage      ReportStage `gorm:"type:varchar(20);default:'PROVISIONAL'"`
	CreatedAt  time.Time   `gorm:"autoCreateTime"`
}

func (ScoreReport) TableName() string {
	return "score_reports"
}

// Matches reports whether the report carries the given score pair.
func (r *ScoreReport) Matches(teamA, teamB int) bool {
	return r.TeamAScore == teamA && r.TeamBScore == teamB
}

// Candidate aggregates identical score pairs submitted for one game.
type Candidate struct {
	TeamAScore int
	TeamBScore int
	Reports    int
	Votes      int
}
