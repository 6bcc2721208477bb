package services

import (
	"context"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/pkg/logger"
)

// ReadinessService moves lobby participants between WAITING and READY and
// starts a match once every slot is filled and ready.
type ReadinessService struct {
	store   repositories.Store
	matches *keyedMutex
}

func NewReadinessService(store repositories.Store) *ReadinessService {
	return &ReadinessService{
		store:   store,
		matches: newKeyedMutex(),
	}
}

// LobbyView is a read-only snapshot of one match lobby.
type LobbyView struct {
	Match        *models.Match
	Participants []models.MatchParticipant
}

// MarkReady sets the user READY and promotes the match to IN_PROGRESS when
// the READY count equals MaxSize. It returns the match as stored afterwards.
func (s *ReadinessService) MarkReady(ctx context.Context, userID uint) (*models.Match, error) {
	return s.setReadiness(ctx, userID, models.ReadinessReady)
}

// MarkWaiting sets the user back to WAITING. A started match stays started.
func (s *ReadinessService) MarkWaiting(ctx context.Context, userID uint) (*models.Match, error) {
	return s.setReadiness(ctx, userID, models.ReadinessWaiting)
}

func (s *ReadinessService) setReadiness(ctx context.Context, userID uint, readiness models.Readiness) (*models.Match, error) {
	participant, err := s.participant(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	unlock := s.matches.Lock(participant.MatchID)
	defer unlock()

	var match *models.Match
	err = s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		// Re-read under the lock; the user may have left meanwhile.
		p, err := s.participant(ctx, tx, userID)
		if err != nil {
			return err
		}
		match, err = tx.GetMatchForUpdate(ctx, p.MatchID)
		if err != nil {
			return err
		}

		p.Readiness = readiness
		if err := tx.SaveParticipant(ctx, p); err != nil {
			return err
		}

		if readiness != models.ReadinessReady || match.Status == models.MatchStatusInProgress {
			return nil
		}

		ready, err := tx.CountParticipantsByReadiness(ctx, match.ID, models.ReadinessReady)
		if err != nil {
			return err
		}
		if ready != int64(match.MaxSize) {
			return nil
		}

		match.Status = models.MatchStatusInProgress
		if err := tx.SaveMatch(ctx, match); err != nil {
			return err
		}
		logger.Info("Match started", "match_id", match.ID, "ready", ready)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Readiness updated", "user_id", userID, "match_id", match.ID, "readiness", readiness)
	return match, nil
}

// Leave removes the user from their lobby, shrinks the match and marks the
// user UNMATCHED. A match that has started cannot be left this way.
func (s *ReadinessService) Leave(ctx context.Context, userID uint) (*models.Match, error) {
	participant, err := s.participant(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	unlock := s.matches.Lock(participant.MatchID)
	defer unlock()

	var match *models.Match
	err = s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		p, err := s.participant(ctx, tx, userID)
		if err != nil {
			return err
		}
		match, err = tx.GetMatchForUpdate(ctx, p.MatchID)
		if err != nil {
			return err
		}
		if match.Status == models.MatchStatusInProgress {
			return ErrMatchInProgress
		}

		if err := tx.DeleteParticipant(ctx, p.ID); err != nil {
			return err
		}
		if err := releaseUser(ctx, tx, userID); err != nil {
			return err
		}

		if match.CurrentSize > 0 {
			match.CurrentSize--
		}
		// EMPTY overrides NOT_FULL at zero
		if match.CurrentSize < match.MaxSize {
			match.FullStatus = models.FullStatusNotFull
		}
		if match.CurrentSize == 0 {
			match.FullStatus = models.FullStatusEmpty
		}
		return tx.SaveMatch(ctx, match)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Participant left match", "user_id", userID, "match_id", match.ID, "current_size", match.CurrentSize, "full_status", match.FullStatus)
	return match, nil
}

func (s *ReadinessService) Lobby(ctx context.Context, matchID uint) (*LobbyView, error) {
	match, err := s.store.GetMatchByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return &LobbyView{Match: match, Participants: participants}, nil
}

func (s *ReadinessService) participant(ctx context.Context, store repositories.ParticipantStore, userID uint) (*models.MatchParticipant, error) {
	p, err := store.GetParticipantByUser(ctx, userID)
	if isNotFound(err) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
