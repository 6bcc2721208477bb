package services

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/pkg/logger"
)

// ConsensusService turns independently submitted score reports into one
// official game result.
type ConsensusService struct {
	store          repositories.Store
	clock          clockwork.Clock
	grace          time.Duration
	reportsPerUser int
	games          *keyedMutex
}

// NewConsensusService builds the engine. Each participant may file up to
// reportsPerUser reports, and voting closes early once every slot of the
// match has filed all of them.
func NewConsensusService(store repositories.Store, clock clockwork.Clock, grace time.Duration, reportsPerUser int) *ConsensusService {
	if reportsPerUser < 1 {
		reportsPerUser = 1
	}
	return &ConsensusService{
		store:          store,
		clock:          clock,
		grace:          grace,
		reportsPerUser: reportsPerUser,
		games:          newKeyedMutex(),
	}
}

// SubmitScore appends a PROVISIONAL report. Only participants of the game's
// match may report, each at most reportsPerUser times. Identical pairs from
// different users stay separate reports.
func (s *ConsensusService) SubmitScore(ctx context.Context, gameID, userID uint, teamA, teamB int) (*models.ScoreReport, error) {
	if teamA < 0 || teamB < 0 {
		return nil, ErrInvalidScore
	}

	unlock := s.games.Lock(gameID)
	defer unlock()

	report := &models.ScoreReport{
		GameID:     gameID,
		UserID:     userID,
		TeamAScore: teamA,
		TeamBScore: teamB,
		Stage:      models.ReportProvisional,
		CreatedAt:  s.clock.Now(),
	}

	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		game, err := s.game(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if game.VotingStatus == models.VotingClosed {
			return ErrVotingClosed
		}

		_, err = tx.GetParticipant(ctx, game.MatchID, userID)
		if isNotFound(err) {
			return ErrNotParticipant
		}
		if err != nil {
			return err
		}

		reports, err := tx.ListScoreReports(ctx, gameID)
		if err != nil {
			return err
		}
		filed := 0
		for _, r := range reports {
			if r.UserID == userID {
				filed++
			}
		}
		if filed >= s.reportsPerUser {
			return ErrReportLimit
		}

		if err := tx.CreateScoreReport(ctx, report); err != nil {
			return err
		}

		if game.Status == models.GameStatusScheduled {
			game.Status = models.GameStatusInProgress
			return tx.SaveGame(ctx, game)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Score submitted", "game_id", gameID, "user_id", userID, "team_a", teamA, "team_b", teamB)
	return report, nil
}

// EvaluateVotingReadiness closes voting once every slot has filed its reports
// or the grace window since the scheduled start has passed. Closing marks
// every report FINAL. A closed game stays closed.
func (s *ConsensusService) EvaluateVotingReadiness(ctx context.Context, gameID uint) (models.VotingStatus, error) {
	unlock := s.games.Lock(gameID)
	defer unlock()

	status := models.VotingOpen
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		game, err := s.game(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if game.VotingStatus == models.VotingClosed {
			status = models.VotingClosed
			return nil
		}

		match, err := tx.GetMatchByID(ctx, game.MatchID)
		if err != nil {
			return err
		}
		reports, err := tx.ListScoreReports(ctx, gameID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		// Reporters are capped per participant, so the count only fills up
		// once every slot has reported.
		allIn := len(reports) >= s.reportsPerUser*match.MaxSize
		expired := now.Sub(match.ScheduledAt) > s.grace
		if !allIn && !expired {
			return nil
		}

		for i := range reports {
			reports[i].Stage = models.ReportFinal
		}
		if err := tx.SaveScoreReports(ctx, reports); err != nil {
			return err
		}

		game.VotingStatus = models.VotingClosed
		game.VotingClosedAt = &now
		if err := tx.SaveGame(ctx, game); err != nil {
			return err
		}

		status = models.VotingClosed
		logger.Info("Voting closed", "game_id", gameID, "reports", len(reports), "expired", expired)
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// CastVote adds one vote to every report carrying the pair. When no report
// carries it nothing changes and ErrInvalidCandidate is returned.
func (s *ConsensusService) CastVote(ctx context.Context, gameID uint, teamA, teamB int) (*models.Candidate, error) {
	unlock := s.games.Lock(gameID)
	defer unlock()

	var candidate *models.Candidate
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		game, err := s.game(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if game.FinalizedAt != nil {
			return ErrResultFinalized
		}

		reports, err := tx.ListScoreReports(ctx, gameID)
		if err != nil {
			return err
		}

		var matching []models.ScoreReport
		for _, r := range reports {
			if r.Matches(teamA, teamB) {
				r.Votes++
				matching = append(matching, r)
			}
		}
		if len(matching) == 0 {
			return ErrInvalidCandidate
		}
		if err := tx.SaveScoreReports(ctx, matching); err != nil {
			return err
		}

		candidate = &models.Candidate{TeamAScore: teamA, TeamBScore: teamB}
		for _, r := range matching {
			candidate.Reports++
			candidate.Votes += r.Votes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Vote cast", "game_id", gameID, "team_a", teamA, "team_b", teamB, "votes", candidate.Votes)
	return candidate, nil
}

// FinalizeResult commits the report with the strictly highest vote count.
// The earliest report wins a tie and a game whose reports have no votes
// keeps 0:0. The match is marked FINISHED and its players UNMATCHED.
// Finalizing twice returns the stored game unchanged.
func (s *ConsensusService) FinalizeResult(ctx context.Context, gameID uint) (*models.Game, error) {
	unlock := s.games.Lock(gameID)
	defer unlock()

	var game *models.Game
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		var err error
		game, err = s.game(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if game.FinalizedAt != nil {
			return nil
		}
		if game.VotingStatus != models.VotingClosed {
			return ErrVotingOpen
		}

		reports, err := tx.ListScoreReports(ctx, gameID)
		if err != nil {
			return err
		}

		maxVotes := 0
		for _, r := range reports {
			if r.Votes > maxVotes {
				maxVotes = r.Votes
				game.ResultTeamA = r.TeamAScore
				game.ResultTeamB = r.TeamBScore
			}
		}

		now := s.clock.Now()
		game.Status = models.GameStatusEnded
		game.FinalizedAt = &now
		if err := tx.SaveGame(ctx, game); err != nil {
			return err
		}
		if err := s.finishMatch(ctx, tx, game.MatchID); err != nil {
			return err
		}

		logger.Info("Game result finalized", "game_id", gameID, "team_a", game.ResultTeamA, "team_b", game.ResultTeamB, "votes", maxVotes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// EvaluatePostEligibility is polled by publishers before posting about a game.
func (s *ConsensusService) EvaluatePostEligibility(ctx context.Context, gameID uint) (models.PostEligibility, error) {
	game, err := s.lookupGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	if !game.HasResult() {
		return models.PostNotReady, nil
	}
	return models.PostReadyToPost, nil
}

// GameStatusView summarizes where one game is in its lifecycle.
type GameStatusView struct {
	GameID       uint
	Status       models.GameStatus
	VotingStatus models.VotingStatus
	ResultTeamA  int
	ResultTeamB  int
	Reports      int
}

func (s *ConsensusService) GameStatus(ctx context.Context, gameID uint) (*GameStatusView, error) {
	game, err := s.lookupGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	reports, err := s.store.ListScoreReports(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return &GameStatusView{
		GameID:       game.ID,
		Status:       game.Status,
		VotingStatus: game.VotingStatus,
		ResultTeamA:  game.ResultTeamA,
		ResultTeamB:  game.ResultTeamB,
		Reports:      len(reports),
	}, nil
}

// ListCandidates groups a game's reports by score pair in first-seen order.
func (s *ConsensusService) ListCandidates(ctx context.Context, gameID uint) ([]models.Candidate, error) {
	if _, err := s.lookupGame(ctx, gameID); err != nil {
		return nil, err
	}
	reports, err := s.store.ListScoreReports(ctx, gameID)
	if err != nil {
		return nil, err
	}

	index := make(map[[2]int]int)
	var candidates []models.Candidate
	for _, r := range reports {
		key := [2]int{r.TeamAScore, r.TeamBScore}
		i, ok := index[key]
		if !ok {
			i = len(candidates)
			index[key] = i
			candidates = append(candidates, models.Candidate{TeamAScore: r.TeamAScore, TeamBScore: r.TeamBScore})
		}
		candidates[i].Reports++
		candidates[i].Votes += r.Votes
	}
	return candidates, nil
}

func (s *ConsensusService) GamesForUser(ctx context.Context, userID uint) ([]models.Game, error) {
	return s.store.ListGamesForUser(ctx, userID)
}

// FinalizeStale evaluates every game still open and finalizes those that
// close, along with closed games nobody finalized. It returns the ids it
// finalized.
func (s *ConsensusService) FinalizeStale(ctx context.Context) ([]uint, error) {
	open, err := s.store.ListGamesByVotingStatus(ctx, models.VotingOpen)
	if err != nil {
		return nil, err
	}
	closed, err := s.store.ListGamesAwaitingFinalize(ctx)
	if err != nil {
		return nil, err
	}

	var finalized []uint
	for _, g := range append(open, closed...) {
		if err := ctx.Err(); err != nil {
			return finalized, err
		}

		status, err := s.EvaluateVotingReadiness(ctx, g.ID)
		if err != nil {
			logger.Error("Failed to evaluate voting", "error", err, "game_id", g.ID)
			continue
		}
		if status != models.VotingClosed {
			continue
		}
		if _, err := s.FinalizeResult(ctx, g.ID); err != nil {
			logger.Error("Failed to finalize game", "error", err, "game_id", g.ID)
			continue
		}
		finalized = append(finalized, g.ID)
	}
	return finalized, nil
}

// finishMatch closes the lobby behind a finalized game and frees its players
// for a new request. Participant rows stay as history.
func (s *ConsensusService) finishMatch(ctx context.Context, tx repositories.Store, matchID uint) error {
	match, err := tx.GetMatchForUpdate(ctx, matchID)
	if err != nil {
		return err
	}
	match.Status = models.MatchStatusFinished
	if err := tx.SaveMatch(ctx, match); err != nil {
		return err
	}

	participants, err := tx.ListParticipants(ctx, matchID)
	if err != nil {
		return err
	}
	for _, p := range participants {
		if err := releaseUser(ctx, tx, p.UserID); err != nil {
			return err
		}
	}
	return nil
}

// game loads and row-locks a game inside a transaction.
func (s *ConsensusService) game(ctx context.Context, tx repositories.GameStore, gameID uint) (*models.Game, error) {
	game, err := tx.GetGameForUpdate(ctx, gameID)
	if isNotFound(err) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (s *ConsensusService) lookupGame(ctx context.Context, gameID uint) (*models.Game, error) {
	game, err := s.store.GetGameByID(ctx, gameID)
	if isNotFound(err) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}
