package services

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories/memory"
	"github.com/stretchr/testify/require"
)

func newConsensus(store *memory.Store, clock clockwork.Clock) *ConsensusService {
	return NewConsensusService(store, clock, 24*time.Hour, 1)
}

func submit(t *testing.T, svc *ConsensusService, gameID uint, userIDs []uint, pairs ...[2]int) {
	t.Helper()
	for i, pair := range pairs {
		_, err := svc.SubmitScore(context.Background(), gameID, userIDs[i%len(userIDs)], pair[0], pair[1])
		require.NoError(t, err)
	}
}

func TestEvaluateVotingReadiness_GraceWindow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := newFakeClock()
	ids := seedUsers(t, store, 12)
	game := seedGame(t, store, 12, ids)
	svc := newConsensus(store, clock)

	for _, id := range ids[:11] {
		_, err := svc.SubmitScore(ctx, game.ID, id, 2, 1)
		require.NoError(t, err)
	}

	clock.Advance(23 * time.Hour)
	status, err := svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingOpen, status)

	reports, err := store.ListScoreReports(ctx, game.ID)
	require.NoError(t, err)
	for _, r := range reports {
		require.Equal(t, models.ReportProvisional, r.Stage)
	}

	clock.Advance(2 * time.Hour)
	status, err = svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingClosed, status)

	reports, err = store.ListScoreReports(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, reports, 11)
	for _, r := range reports {
		require.Equal(t, models.ReportFinal, r.Stage)
	}

	stored, err := store.GetGameByID(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingClosed, stored.VotingStatus)
	require.NotNil(t, stored.VotingClosedAt)

	_, err = svc.SubmitScore(ctx, game.ID, ids[11], 2, 1)
	require.ErrorIs(t, err, ErrVotingClosed)

	// closure is monotonic
	status, err = svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingClosed, status)
}

func TestEvaluateVotingReadiness_AllReportsIn(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 2)
	game := seedGame(t, store, 2, ids)
	svc := newConsensus(store, newFakeClock())

	submit(t, svc, game.ID, ids, [2]int{1, 0})
	status, err := svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingOpen, status)

	submit(t, svc, game.ID, ids[1:], [2]int{1, 0})
	status, err = svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingClosed, status)
}

func TestEvaluateVotingReadiness_ReportsPerUserFollowsConfig(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 2)
	game := seedGame(t, store, 2, ids)
	svc := NewConsensusService(store, newFakeClock(), 24*time.Hour, 2)

	submit(t, svc, game.ID, ids, [2]int{1, 0}, [2]int{1, 0}, [2]int{1, 0})
	status, err := svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingOpen, status)

	submit(t, svc, game.ID, ids[1:], [2]int{1, 0})
	status, err = svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingClosed, status)
}

func TestFinalizeResult_MajorityWins(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 3)
	game := seedGame(t, store, 3, ids)
	svc := newConsensus(store, newFakeClock())

	submit(t, svc, game.ID, ids, [2]int{3, 1}, [2]int{3, 1}, [2]int{2, 2})

	_, err := svc.FinalizeResult(ctx, game.ID)
	require.ErrorIs(t, err, ErrVotingOpen)

	status, err := svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingClosed, status)

	for _, pair := range [][2]int{{3, 1}, {3, 1}, {2, 2}} {
		_, err := svc.CastVote(ctx, game.ID, pair[0], pair[1])
		require.NoError(t, err)
	}

	finalized, err := svc.FinalizeResult(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, 3, finalized.ResultTeamA)
	require.Equal(t, 1, finalized.ResultTeamB)
	require.Equal(t, models.GameStatusEnded, finalized.Status)
	require.NotNil(t, finalized.FinalizedAt)

	eligibility, err := svc.EvaluatePostEligibility(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.PostReadyToPost, eligibility)

	again, err := svc.FinalizeResult(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, finalized.FinalizedAt, again.FinalizedAt)
	require.Equal(t, 3, again.ResultTeamA)

	_, err = svc.CastVote(ctx, game.ID, 2, 2)
	require.ErrorIs(t, err, ErrResultFinalized)
}

func TestCastVote_IncrementsEveryMatchingReport(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 3)
	game := seedGame(t, store, 3, ids)
	svc := newConsensus(store, newFakeClock())

	// a non-matching report comes first and must not abort the scan
	submit(t, svc, game.ID, ids, [2]int{2, 2}, [2]int{3, 1}, [2]int{3, 1})

	candidate, err := svc.CastVote(ctx, game.ID, 3, 1)
	require.NoError(t, err)
	require.Equal(t, 2, candidate.Reports)
	require.Equal(t, 2, candidate.Votes)

	reports, err := store.ListScoreReports(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, 0, reports[0].Votes)
	require.Equal(t, 1, reports[1].Votes)
	require.Equal(t, 1, reports[2].Votes)
}

func TestCastVote_UnknownPairChangesNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 2)
	game := seedGame(t, store, 2, ids)
	svc := newConsensus(store, newFakeClock())

	submit(t, svc, game.ID, ids, [2]int{1, 1}, [2]int{4, 0})
	_, err := svc.CastVote(ctx, game.ID, 1, 1)
	require.NoError(t, err)

	_, err = svc.CastVote(ctx, game.ID, 9, 9)
	require.ErrorIs(t, err, ErrInvalidCandidate)

	reports, err := store.ListScoreReports(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reports[0].Votes)
	require.Equal(t, 0, reports[1].Votes)
}

func TestFinalizeResult_TieGoesToFirstSeen(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 2)
	game := seedGame(t, store, 2, ids)
	svc := newConsensus(store, newFakeClock())

	submit(t, svc, game.ID, ids, [2]int{0, 1}, [2]int{1, 0})
	_, err := svc.CastVote(ctx, game.ID, 1, 0)
	require.NoError(t, err)
	_, err = svc.CastVote(ctx, game.ID, 0, 1)
	require.NoError(t, err)

	_, err = svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result, err := svc.FinalizeResult(ctx, game.ID)
		require.NoError(t, err)
		require.Equal(t, 0, result.ResultTeamA)
		require.Equal(t, 1, result.ResultTeamB)
	}
}

func TestFinalizeResult_NoVotesKeepsZeroZero(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := newFakeClock()
	ids := seedUsers(t, store, 4)
	game := seedGame(t, store, 4, ids)
	svc := newConsensus(store, clock)

	clock.Advance(25 * time.Hour)
	status, err := svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingClosed, status)

	finalized, err := svc.FinalizeResult(ctx, game.ID)
	require.NoError(t, err)
	require.False(t, finalized.HasResult())
	require.Equal(t, models.GameStatusEnded, finalized.Status)

	eligibility, err := svc.EvaluatePostEligibility(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.PostNotReady, eligibility)
}

func TestSubmitScore_Validation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 2)
	game := seedGame(t, store, 2, ids)
	svc := newConsensus(store, newFakeClock())

	_, err := svc.SubmitScore(ctx, game.ID, ids[0], -1, 0)
	require.ErrorIs(t, err, ErrInvalidScore)

	_, err = svc.SubmitScore(ctx, 999, ids[0], 1, 0)
	require.ErrorIs(t, err, ErrGameNotFound)

	_, err = svc.EvaluateVotingReadiness(ctx, 999)
	require.ErrorIs(t, err, ErrGameNotFound)
	_, err = svc.CastVote(ctx, 999, 1, 0)
	require.ErrorIs(t, err, ErrGameNotFound)
	_, err = svc.FinalizeResult(ctx, 999)
	require.ErrorIs(t, err, ErrGameNotFound)
	_, err = svc.EvaluatePostEligibility(ctx, 999)
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameQueries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 3)
	game := seedGame(t, store, 3, ids)
	svc := newConsensus(store, newFakeClock())

	view, err := svc.GameStatus(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusScheduled, view.Status)
	require.Zero(t, view.Reports)

	submit(t, svc, game.ID, ids, [2]int{2, 0}, [2]int{1, 1}, [2]int{2, 0})
	_, err = svc.CastVote(ctx, game.ID, 2, 0)
	require.NoError(t, err)

	view, err = svc.GameStatus(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusInProgress, view.Status)
	require.Equal(t, models.VotingOpen, view.VotingStatus)
	require.Equal(t, 3, view.Reports)

	candidates, err := svc.ListCandidates(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, []models.Candidate{
		{TeamAScore: 2, TeamBScore: 0, Reports: 2, Votes: 2},
		{TeamAScore: 1, TeamBScore: 1, Reports: 1, Votes: 0},
	}, candidates)

	games, err := svc.GamesForUser(ctx, ids[1])
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, game.ID, games[0].ID)

	games, err = svc.GamesForUser(ctx, 4242)
	require.NoError(t, err)
	require.Empty(t, games)
}

func TestFinalizeStale(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := newFakeClock()
	svc := newConsensus(store, clock)

	staleIDs := seedUsers(t, store, 2)
	stale := seedGame(t, store, 2, staleIDs)
	submit(t, svc, stale.ID, staleIDs, [2]int{5, 3})
	_, err := svc.CastVote(ctx, stale.ID, 5, 3)
	require.NoError(t, err)

	freshIDs := seedUsers(t, store, 2)
	fresh := seedGame(t, store, 2, freshIDs)
	freshMatch, err := store.GetMatchByID(ctx, fresh.MatchID)
	require.NoError(t, err)
	freshMatch.ScheduledAt = kickoff.Add(20 * time.Hour)
	require.NoError(t, store.SaveMatch(ctx, freshMatch))

	clock.Advance(25 * time.Hour)
	finalized, err := svc.FinalizeStale(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{stale.ID}, finalized)

	game, err := store.GetGameByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, 5, game.ResultTeamA)
	require.Equal(t, 3, game.ResultTeamB)

	game, err = store.GetGameByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingOpen, game.VotingStatus)

	finalized, err = svc.FinalizeStale(ctx)
	require.NoError(t, err)
	require.Empty(t, finalized)
}

func TestSubmitScore_OnlyParticipantsReport(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 3)
	game := seedGame(t, store, 2, ids[:2])
	svc := newConsensus(store, newFakeClock())

	_, err := svc.SubmitScore(ctx, game.ID, ids[2], 1, 0)
	require.ErrorIs(t, err, ErrNotParticipant)

	_, err = svc.SubmitScore(ctx, game.ID, 999, 1, 0)
	require.ErrorIs(t, err, ErrNotParticipant)

	reports, err := store.ListScoreReports(ctx, game.ID)
	require.NoError(t, err)
	require.Empty(t, reports)

	stored, err := store.GetGameByID(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusScheduled, stored.Status)
}

func TestSubmitScore_RepeatReportCannotCloseVoting(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 2)
	game := seedGame(t, store, 2, ids)
	svc := newConsensus(store, newFakeClock())

	_, err := svc.SubmitScore(ctx, game.ID, ids[0], 2, 1)
	require.NoError(t, err)
	_, err = svc.SubmitScore(ctx, game.ID, ids[0], 2, 1)
	require.ErrorIs(t, err, ErrReportLimit)

	status, err := svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingOpen, status)

	_, err = svc.SubmitScore(ctx, game.ID, ids[1], 2, 1)
	require.NoError(t, err)

	status, err = svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingClosed, status)
}

func TestFinalizeResult_FinishesMatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ids := seedUsers(t, store, 2)
	game := seedGame(t, store, 2, ids)
	svc := newConsensus(store, newFakeClock())

	for _, id := range ids {
		u, err := store.GetUserByID(ctx, id)
		require.NoError(t, err)
		u.MatchStatus = models.UserMatched
		require.NoError(t, store.SaveUser(ctx, u))
	}

	submit(t, svc, game.ID, ids, [2]int{1, 0}, [2]int{1, 0})
	_, err := svc.EvaluateVotingReadiness(ctx, game.ID)
	require.NoError(t, err)
	_, err = svc.FinalizeResult(ctx, game.ID)
	require.NoError(t, err)

	match, err := store.GetMatchByID(ctx, game.MatchID)
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusFinished, match.Status)

	for _, id := range ids {
		u, err := store.GetUserByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, models.UserUnmatched, u.MatchStatus)

		_, err = store.GetParticipantByUser(ctx, id)
		require.Error(t, err)

		games, err := svc.GamesForUser(ctx, id)
		require.NoError(t, err)
		require.Len(t, games, 1)
	}

	matched, err := store.ListMatchedUserIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, matched)
}

func TestFinalizeStale_PicksUpClosedGames(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newConsensus(store, newFakeClock())

	ids := seedUsers(t, store, 2)
	closed := seedGame(t, store, 2, ids)
	submit(t, svc, closed.ID, ids, [2]int{2, 0}, [2]int{2, 0})
	status, err := svc.EvaluateVotingReadiness(ctx, closed.ID)
	require.NoError(t, err)
	require.Equal(t, models.VotingClosed, status)

	finalized, err := svc.FinalizeStale(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{closed.ID}, finalized)

	waiting, err := store.ListGamesAwaitingFinalize(ctx)
	require.NoError(t, err)
	require.Empty(t, waiting)
}
