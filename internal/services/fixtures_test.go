package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/internal/repositories/memory"
	"github.com/mroshb/matchday/pkg/errors"
	"github.com/stretchr/testify/require"
)

var kickoff = time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

func newFakeClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(kickoff)
}

func seedUsers(t *testing.T, store *memory.Store, n int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		u := &models.User{Nickname: fmt.Sprintf("player-%d", i), City: "Seoul", District: "Mapo"}
		require.NoError(t, store.CreateUser(context.Background(), u))
		ids = append(ids, u.ID)
	}
	return ids
}

// seedLobby creates a match holding userIDs, all WAITING.
func seedLobby(t *testing.T, store *memory.Store, maxSize int, userIDs []uint) *models.Match {
	t.Helper()
	ctx := context.Background()

	match := &models.Match{
		Sport:       models.SportSoccer,
		MaxSize:     maxSize,
		CurrentSize: len(userIDs),
		FullStatus:  models.FullStatusFor(len(userIDs), maxSize),
		Status:      models.MatchStatusNotStarted,
		ScheduledAt: kickoff,
	}
	require.NoError(t, store.CreateMatch(ctx, match))

	for _, id := range userIDs {
		require.NoError(t, store.CreateParticipant(ctx, &models.MatchParticipant{
			MatchID:   match.ID,
			UserID:    id,
			Readiness: models.ReadinessWaiting,
		}))
	}
	return match
}

func seedGame(t *testing.T, store *memory.Store, maxSize int, userIDs []uint) *models.Game {
	t.Helper()
	match := seedLobby(t, store, maxSize, userIDs)
	game := &models.Game{MatchID: match.ID}
	require.NoError(t, store.CreateGame(context.Background(), game))
	return game
}

// failingStore fails SaveUser inside transactions.
type failingStore struct {
	repositories.Store
}

func (f *failingStore) WithinTransaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return f.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		return fn(&failingTx{Store: tx})
	})
}

type failingTx struct {
	repositories.Store
}

func (f *failingTx) SaveUser(ctx context.Context, user *models.User) error {
	return errors.New(errors.ErrCodeInternalError, "disk full")
}
