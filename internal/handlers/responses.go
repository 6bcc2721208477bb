package handlers

import (
	"time"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/services"
)

type queueEntryResponse struct {
	Ticket     string    `json:"ticket"`
	UserID     uint      `json:"user_id"`
	Sport      string    `json:"sport"`
	GroupCode  string    `json:"group_code,omitempty"`
	MatchType  string    `json:"match_type"`
	Status     string    `json:"status"`
	MatchTime  time.Time `json:"match_time"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type admissionResponse struct {
	Throttled bool                 `json:"throttled"`
	QueueSize int64                `json:"queue_size"`
	Entries   []queueEntryResponse `json:"entries"`
	Skipped   []uint               `json:"skipped"`
}

func newAdmissionResponse(r *services.AdmissionResult) admissionResponse {
	resp := admissionResponse{
		Throttled: r.Throttled,
		QueueSize: r.QueueSize,
		Entries:   make([]queueEntryResponse, 0, len(r.Entries)),
		Skipped:   r.Skipped,
	}
	if resp.Skipped == nil {
		resp.Skipped = []uint{}
	}
	for _, e := range r.Entries {
		resp.Entries = append(resp.Entries, queueEntryResponse{
			Ticket:     e.Ticket,
			UserID:     e.UserID,
			Sport:      string(e.Sport),
			GroupCode:  e.GroupCode,
			MatchType:  string(e.MatchType),
			Status:     string(e.Status),
			MatchTime:  e.MatchTime,
			EnqueuedAt: e.EnqueuedAt,
		})
	}
	return resp
}

type matchResponse struct {
	ID          uint      `json:"id"`
	Sport       string    `json:"sport"`
	MaxSize     int       `json:"max_size"`
	CurrentSize int       `json:"current_size"`
	FullStatus  string    `json:"full_status"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func newMatchResponse(m *models.Match) matchResponse {
	return matchResponse{
		ID:          m.ID,
		Sport:       string(m.Sport),
		MaxSize:     m.MaxSize,
		CurrentSize: m.CurrentSize,
		FullStatus:  string(m.FullStatus),
		Status:      string(m.Status),
		ScheduledAt: m.ScheduledAt,
	}
}

type participantResponse struct {
	UserID    uint      `json:"user_id"`
	Readiness string    `json:"readiness"`
	JoinedAt  time.Time `json:"joined_at"`
}

type lobbyResponse struct {
	Match        matchResponse         `json:"match"`
	Participants []participantResponse `json:"participants"`
}

func newLobbyResponse(v *services.LobbyView) lobbyResponse {
	resp := lobbyResponse{
		Match:        newMatchResponse(v.Match),
		Participants: make([]participantResponse, 0, len(v.Participants)),
	}
	for _, p := range v.Participants {
		resp.Participants = append(resp.Participants, participantResponse{
			UserID:    p.UserID,
			Readiness: string(p.Readiness),
			JoinedAt:  p.JoinedAt,
		})
	}
	return resp
}

type scoreReportResponse struct {
	ID         uint   `json:"id"`
	GameID     uint   `json:"game_id"`
	UserID     uint   `json:"user_id"`
	TeamAScore int    `json:"team_a"`
	TeamBScore int    `json:"team_b"`
	Votes      int    `json:"votes"`
	Stage      string `json:"stage"`
}

func newScoreReportResponse(r *models.ScoreReport) scoreReportResponse {
	return scoreReportResponse{
		ID:         r.ID,
		GameID:     r.GameID,
		UserID:     r.UserID,
		TeamAScore: r.TeamAScore,
		TeamBScore: r.TeamBScore,
		Votes:      r.Votes,
		Stage:      string(r.Stage),
	}
}

type candidateResponse struct {
	TeamAScore int `json:"team_a"`
	TeamBScore int `json:"team_b"`
	Reports    int `json:"reports"`
	Votes      int `json:"votes"`
}

func newCandidateResponse(c models.Candidate) candidateResponse {
	return candidateResponse{
		TeamAScore: c.TeamAScore,
		TeamBScore: c.TeamBScore,
		Reports:    c.Reports,
		Votes:      c.Votes,
	}
}

type gameResponse struct {
	ID             uint       `json:"id"`
	MatchID        uint       `json:"match_id"`
	Status         string     `json:"status"`
	VotingStatus   string     `json:"voting_status"`
	ResultTeamA    int        `json:"result_team_a"`
	ResultTeamB    int        `json:"result_team_b"`
	VotingClosedAt *time.Time `json:"voting_closed_at,omitempty"`
	FinalizedAt    *time.Time `json:"finalized_at,omitempty"`
}

func newGameResponse(g *models.Game) gameResponse {
	return gameResponse{
		ID:             g.ID,
		MatchID:        g.MatchID,
		Status:         string(g.Status),
		VotingStatus:   string(g.VotingStatus),
		ResultTeamA:    g.ResultTeamA,
		ResultTeamB:    g.ResultTeamB,
		VotingClosedAt: g.VotingClosedAt,
		FinalizedAt:    g.FinalizedAt,
	}
}

type gameStatusResponse struct {
	GameID       uint   `json:"game_id"`
	Status       string `json:"status"`
	VotingStatus string `json:"voting_status"`
	ResultTeamA  int    `json:"result_team_a"`
	ResultTeamB  int    `json:"result_team_b"`
	Reports      int    `json:"reports"`
}
