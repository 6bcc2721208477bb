package services

import (
	"context"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/pkg/errors"
)

// Sentinels compare by code, so errors.Is matches them against any AppError
// carrying the same code.
var (
	ErrInvalidGroup         = errors.New(errors.ErrCodeInvalidGroup, "group code does not resolve")
	ErrInvalidUser          = errors.New(errors.ErrCodeInvalidUser, "user does not exist")
	ErrInvalidSport         = errors.New(errors.ErrCodeInvalidSport, "unknown sport")
	ErrInvalidCandidate     = errors.New(errors.ErrCodeInvalidCandidate, "no report carries that score")
	ErrInvalidScore         = errors.New(errors.ErrCodeInvalidScore, "scores must not be negative")
	ErrParticipantNotFound  = errors.New(errors.ErrCodeParticipantNotFound, "user is not in a match lobby")
	ErrQueueEntryNotFound   = errors.New(errors.ErrCodeQueueEntryNotFound, "user is not queued")
	ErrGameNotFound         = errors.New(errors.ErrCodeGameNotFound, "game not found")
	ErrMatchInProgress      = errors.New(errors.ErrCodeMatchInProgress, "match already in progress")
	ErrVotingOpen           = errors.New(errors.ErrCodeVotingOpen, "voting is still open")
	ErrVotingClosed         = errors.New(errors.ErrCodeVotingClosed, "voting is closed")
	ErrResultFinalized      = errors.New(errors.ErrCodeResultFinalized, "result already finalized")
	ErrAdmissionPersistence = errors.New(errors.ErrCodeAdmissionPersistence, "failed to persist admission")
	ErrNotParticipant       = errors.New(errors.ErrCodeNotParticipant, "user is not a participant of this game")
	ErrReportLimit          = errors.New(errors.ErrCodeReportLimit, "user has already reported this game")
	ErrNotGroupMember       = errors.New(errors.ErrCodeNotGroupMember, "user is not a member of the group")
)

func isNotFound(err error) bool {
	return errors.CodeOf(err) == errors.ErrCodeNotFound
}

// releaseUser sets a user back to UNMATCHED. Users the identity subsystem no
// longer knows are skipped.
func releaseUser(ctx context.Context, tx repositories.UserStore, userID uint) error {
	user, err := tx.GetUserByID(ctx, userID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.MatchStatus == models.UserUnmatched {
		return nil
	}
	user.MatchStatus = models.UserUnmatched
	return tx.SaveUser(ctx, user)
}
