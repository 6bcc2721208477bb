package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserGroup{},
		&models.GroupMember{},
		&models.QueueEntry{},
		&models.Match{},
		&models.MatchParticipant{},
		&models.Game{},
		&models.ScoreReport{},
	))

	return NewGormStore(db)
}

func TestGormStore_QueueLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &models.User{Nickname: "kim", City: "Seoul"}
	require.NoError(t, store.CreateUser(ctx, user))
	require.Equal(t, models.UserUnmatched, user.MatchStatus)

	entry := &models.QueueEntry{
		Ticket:     "8a4c1e9c-0000-4000-8000-000000000001",
		UserID:     user.ID,
		Sport:      models.SportSoccer,
		MatchType:  models.MatchTypeIndividual,
		Status:     models.QueueStatusPending,
		EnqueuedAt: time.Now(),
	}
	require.NoError(t, store.CreateQueueEntry(ctx, entry))

	count, err := store.CountQueueEntries(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	ids, err := store.ListQueuedUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{user.ID}, ids)

	found, err := store.GetQueueEntryByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, entry.Ticket, found.Ticket)

	require.NoError(t, store.DeleteQueueEntry(ctx, found.ID))
	_, err = store.GetQueueEntryByUser(ctx, user.ID)
	require.ErrorIs(t, err, ErrRecordNotFound)
	require.ErrorIs(t, store.DeleteQueueEntry(ctx, found.ID), ErrRecordNotFound)
}

func TestGormStore_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &models.User{Nickname: "lee"}
	require.NoError(t, store.CreateUser(ctx, user))

	boom := errors.New(errors.ErrCodeInternalError, "boom")
	err := store.WithinTransaction(ctx, func(tx Store) error {
		if err := tx.CreateQueueEntry(ctx, &models.QueueEntry{
			Ticket: "t-1", UserID: user.ID, Sport: models.SportFutsal, MatchType: models.MatchTypeIndividual,
		}); err != nil {
			return err
		}
		user.MatchStatus = models.UserMatched
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
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

func TestGormStore_GroupMembersOrdered(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var ids []uint
	for _, name := range []string{"park", "choi", "jung"} {
		u := &models.User{Nickname: name}
		require.NoError(t, store.CreateUser(ctx, u))
		ids = append(ids, u.ID)
	}
	// reverse so position order differs from id order
	ids[0], ids[2] = ids[2], ids[0]

	group := &models.UserGroup{Code: "G1", Name: "Sunday League"}
	require.NoError(t, store.CreateGroup(ctx, group, ids))

	found, err := store.GetGroupByCode(ctx, "G1")
	require.NoError(t, err)

	members, err := store.GetGroupMembers(ctx, found.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	for i, m := range members {
		require.Equal(t, ids[i], m.ID)
	}

	_, err = store.GetGroupByCode(ctx, "missing")
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGormStore_MatchAndParticipants(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	match := &models.Match{
		Sport:       models.SportBasketball,
		MaxSize:     2,
		CurrentSize: 2,
		FullStatus:  models.FullStatusFull,
		Status:      models.MatchStatusNotStarted,
		ScheduledAt: time.Now(),
	}
	require.NoError(t, store.CreateMatch(ctx, match))

	for _, userID := range []uint{11, 12} {
		require.NoError(t, store.CreateParticipant(ctx, &models.MatchParticipant{
			MatchID: match.ID, UserID: userID, Readiness: models.ReadinessWaiting,
		}))
	}

	p, err := store.GetParticipantByUser(ctx, 11)
	require.NoError(t, err)
	p.Readiness = models.ReadinessReady
	require.NoError(t, store.SaveParticipant(ctx, p))

	ready, err := store.CountParticipantsByReadiness(ctx, match.ID, models.ReadinessReady)
	require.NoError(t, err)
	require.EqualValues(t, 1, ready)

	err = store.WithinTransaction(ctx, func(tx Store) error {
		m, err := tx.GetMatchForUpdate(ctx, match.ID)
		if err != nil {
			return err
		}
		m.CurrentSize--
		m.FullStatus = models.FullStatusFor(m.CurrentSize, m.MaxSize)
		if err := tx.SaveMatch(ctx, m); err != nil {
			return err
		}
		return tx.DeleteParticipant(ctx, p.ID)
	})
	require.NoError(t, err)

	stored, err := store.GetMatchByID(ctx, match.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.CurrentSize)
	require.Equal(t, models.FullStatusNotFull, stored.FullStatus)

	participants, err := store.ListParticipants(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	require.EqualValues(t, 12, participants[0].UserID)

	matched, err := store.ListMatchedUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{12}, matched)
}

func TestGormStore_ParticipantHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	finished := &models.Match{Sport: models.SportFutsal, MaxSize: 2, Status: models.MatchStatusFinished, ScheduledAt: time.Now()}
	require.NoError(t, store.CreateMatch(ctx, finished))
	require.NoError(t, store.CreateParticipant(ctx, &models.MatchParticipant{MatchID: finished.ID, UserID: 21}))
	require.NoError(t, store.CreateGame(ctx, &models.Game{MatchID: finished.ID}))

	err := store.CreateParticipant(ctx, &models.MatchParticipant{MatchID: finished.ID, UserID: 21})
	require.Error(t, err)

	_, err = store.GetParticipantByUser(ctx, 21)
	require.ErrorIs(t, err, ErrRecordNotFound)

	matched, err := store.ListMatchedUserIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, matched)

	current := &models.Match{Sport: models.SportFutsal, MaxSize: 2, ScheduledAt: time.Now()}
	require.NoError(t, store.CreateMatch(ctx, current))
	require.NoError(t, store.CreateParticipant(ctx, &models.MatchParticipant{MatchID: current.ID, UserID: 21}))
	require.NoError(t, store.CreateGame(ctx, &models.Game{MatchID: current.ID}))

	p, err := store.GetParticipantByUser(ctx, 21)
	require.NoError(t, err)
	require.Equal(t, current.ID, p.MatchID)

	p, err = store.GetParticipant(ctx, finished.ID, 21)
	require.NoError(t, err)
	require.Equal(t, finished.ID, p.MatchID)

	_, err = store.GetParticipant(ctx, current.ID, 99)
	require.ErrorIs(t, err, ErrRecordNotFound)

	matched, err = store.ListMatchedUserIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{21}, matched)

	games, err := store.ListGamesForUser(ctx, 21)
	require.NoError(t, err)
	require.Len(t, games, 2)
}

func TestGormStore_GamesAndReports(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	match := &models.Match{Sport: models.SportVolleyball, MaxSize: 2, ScheduledAt: time.Now()}
	require.NoError(t, store.CreateMatch(ctx, match))
	require.NoError(t, store.CreateParticipant(ctx, &models.MatchParticipant{MatchID: match.ID, UserID: 7}))

	game := &models.Game{MatchID: match.ID}
	require.NoError(t, store.CreateGame(ctx, game))

	loaded, err := store.GetGameForUpdate(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusScheduled, loaded.Status)
	require.Equal(t, models.VotingOpen, loaded.VotingStatus)

	for _, pair := range [][2]int{{3, 1}, {2, 2}} {
		require.NoError(t, store.CreateScoreReport(ctx, &models.ScoreReport{
			GameID: game.ID, UserID: 7, TeamAScore: pair[0], TeamBScore: pair[1], Stage: models.ReportProvisional,
		}))
	}

	reports, err := store.ListScoreReports(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.True(t, reports[0].Matches(3, 1))

	for i := range reports {
		reports[i].Stage = models.ReportFinal
	}
	reports[0].Votes = 2
	require.NoError(t, store.SaveScoreReports(ctx, reports))

	reports, err = store.ListScoreReports(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reports[0].Votes)
	require.Equal(t, models.ReportFinal, reports[1].Stage)

	open, err := store.ListGamesByVotingStatus(ctx, models.VotingOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)

	now := time.Now()
	loaded.VotingStatus = models.VotingClosed
	loaded.VotingClosedAt = &now
	require.NoError(t, store.SaveGame(ctx, loaded))

	waiting, err := store.ListGamesAwaitingFinalize(ctx)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	require.Equal(t, game.ID, waiting[0].ID)

	loaded.FinalizedAt = &now
	loaded.ResultTeamA = 3
	loaded.ResultTeamB = 1
	require.NoError(t, store.SaveGame(ctx, loaded))

	waiting, err = store.ListGamesAwaitingFinalize(ctx)
	require.NoError(t, err)
	require.Empty(t, waiting)

	finalized, err := store.ListFinalizedGames(ctx)
	require.NoError(t, err)
	require.Len(t, finalized, 1)
	require.True(t, finalized[0].HasResult())

	mine, err := store.ListGamesForUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, game.ID, mine[0].ID)

	_, err = store.GetGameByID(ctx, 999)
	require.ErrorIs(t, err, ErrRecordNotFound)
}
