package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestStore_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	user := &models.User{Nickname: "rollback"}
	require.NoError(t, store.CreateUser(ctx, user))

	boom := errors.New(errors.ErrCodeInternalError, "boom")
	err := store.WithinTransaction(ctx, func(tx repositories.Store) error {
		require.NoError(t, tx.CreateQueueEntry(ctx, &models.QueueEntry{
			Ticket: "t-1", UserID: user.ID, Sport: models.SportSoccer, MatchType: models.MatchTypeIndividual,
		}))
		user.MatchStatus = models.UserMatched
		require.NoError(t, tx.SaveUser(ctx, user))
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := store.CountQueueEntries(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	stored, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, models.UserUnmatched, stored.MatchStatus)
}

func TestStore_TransactionCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	match := &models.Match{Sport: models.SportFutsal, MaxSize: 2}
	require.NoError(t, store.CreateMatch(ctx, match))

	err := store.WithinTransaction(ctx, func(tx repositories.Store) error {
		// nested transactions join the outer one
		return tx.WithinTransaction(ctx, func(inner repositories.Store) error {
			m, err := inner.GetMatchForUpdate(ctx, match.ID)
			if err != nil {
				return err
			}
			m.Status = models.MatchStatusInProgress
			return inner.SaveMatch(ctx, m)
		})
	})
	require.NoError(t, err)

	stored, err := store.GetMatchByID(ctx, match.ID)
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusInProgress, stored.Status)
	require.Equal(t, models.FullStatusEmpty, stored.FullStatus)
}

func TestStore_UniqueUserPerQueueAndLobby(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.CreateQueueEntry(ctx, &models.QueueEntry{Ticket: "a", UserID: 1}))
	err := store.CreateQueueEntry(ctx, &models.QueueEntry{Ticket: "b", UserID: 1})
	require.Equal(t, errors.ErrCodeAlreadyExists, errors.CodeOf(err))

	require.NoError(t, store.CreateParticipant(ctx, &models.MatchParticipant{MatchID: 1, UserID: 1}))
	err = store.CreateParticipant(ctx, &models.MatchParticipant{MatchID: 1, UserID: 1})
	require.Equal(t, errors.ErrCodeAlreadyExists, errors.CodeOf(err))
	require.NoError(t, store.CreateParticipant(ctx, &models.MatchParticipant{MatchID: 2, UserID: 1}))
}

func TestStore_FinishedMatchesKeepHistory(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	finished := &models.Match{MaxSize: 2, Status: models.MatchStatusFinished}
	require.NoError(t, store.CreateMatch(ctx, finished))
	require.NoError(t, store.CreateParticipant(ctx, &models.MatchParticipant{MatchID: finished.ID, UserID: 5}))
	require.NoError(t, store.CreateGame(ctx, &models.Game{MatchID: finished.ID}))

	_, err := store.GetParticipantByUser(ctx, 5)
	require.ErrorIs(t, err, repositories.ErrRecordNotFound)

	matched, err := store.ListMatchedUserIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, matched)

	current := &models.Match{MaxSize: 2}
	require.NoError(t, store.CreateMatch(ctx, current))
	require.NoError(t, store.CreateParticipant(ctx, &models.MatchParticipant{MatchID: current.ID, UserID: 5}))
	require.NoError(t, store.CreateGame(ctx, &models.Game{MatchID: current.ID}))

	p, err := store.GetParticipantByUser(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, current.ID, p.MatchID)

	p, err = store.GetParticipant(ctx, finished.ID, 5)
	require.NoError(t, err)
	require.Equal(t, finished.ID, p.MatchID)

	matched, err = store.ListMatchedUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{5}, matched)

	games, err := store.ListGamesForUser(ctx, 5)
	require.NoError(t, err)
	require.Len(t, games, 2)
}

func TestStore_ListGamesAwaitingFinalize(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	now := time.Now()
	var ids []uint
	for i, g := range []models.Game{
		{VotingStatus: models.VotingOpen},
		{VotingStatus: models.VotingClosed, VotingClosedAt: &now},
		{VotingStatus: models.VotingClosed, VotingClosedAt: &now, FinalizedAt: &now},
	} {
		g := g
		g.MatchID = uint(100 + i)
		require.NoError(t, store.CreateGame(ctx, &g))
		ids = append(ids, g.ID)
	}

	waiting, err := store.ListGamesAwaitingFinalize(ctx)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	require.Equal(t, ids[1], waiting[0].ID)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.GetUserByID(ctx, 42)
	require.ErrorIs(t, err, repositories.ErrRecordNotFound)

	_, err = store.GetGameByID(ctx, 42)
	require.ErrorIs(t, err, repositories.ErrRecordNotFound)

	require.ErrorIs(t, store.DeleteQueueEntry(ctx, 42), repositories.ErrRecordNotFound)
}

func TestStore_GroupMembersOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var ids []uint
	for _, name := range []string{"c", "a", "b"} {
		u := &models.User{Nickname: name}
		require.NoError(t, store.CreateUser(ctx, u))
		ids = append(ids, u.ID)
	}

	group := &models.UserGroup{Code: "G1"}
	require.NoError(t, store.CreateGroup(ctx, group, ids))

	found, err := store.GetGroupByCode(ctx, "G1")
	require.NoError(t, err)

	members, err := store.GetGroupMembers(ctx, found.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	for i, m := range members {
		require.Equal(t, ids[i], m.ID)
	}
}

func TestStore_ReadinessCountAndReports(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	match := &models.Match{MaxSize: 3, CurrentSize: 3}
	require.NoError(t, store.CreateMatch(ctx, match))
	require.Equal(t, models.FullStatusFull, match.FullStatus)

	for userID := uint(100); userID < 103; userID++ {
		p := &models.MatchParticipant{MatchID: match.ID, UserID: userID}
		if userID != 102 {
			p.Readiness = models.ReadinessReady
		}
		require.NoError(t, store.CreateParticipant(ctx, p))
	}

	ready, err := store.CountParticipantsByReadiness(ctx, match.ID, models.ReadinessReady)
	require.NoError(t, err)
	require.EqualValues(t, 2, ready)

	game := &models.Game{MatchID: match.ID}
	require.NoError(t, store.CreateGame(ctx, game))

	games, err := store.ListGamesForUser(ctx, 101)
	require.NoError(t, err)
	require.Len(t, games, 1)

	require.NoError(t, store.CreateScoreReport(ctx, &models.ScoreReport{GameID: game.ID, UserID: 100, TeamAScore: 1}))
	require.NoError(t, store.CreateScoreReport(ctx, &models.ScoreReport{GameID: game.ID, UserID: 101, TeamAScore: 2}))

	reports, err := store.ListScoreReports(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.Equal(t, 1, reports[0].TeamAScore)
	require.Equal(t, models.ReportProvisional, reports[0].Stage)

	reports[0].Votes = 5
	require.NoError(t, store.SaveScoreReports(ctx, reports))

	reports, err = store.ListScoreReports(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, 5, reports[0].Votes)
}
