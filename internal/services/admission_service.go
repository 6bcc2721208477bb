package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/pkg/errors"
	"github.com/mroshb/matchday/pkg/logger"
)

// MatchRequest asks to queue either one user or every member of a group.
// GroupCode wins when both are set, and a non-zero UserID must then be one of
// the group's members.
type MatchRequest struct {
	UserID    uint
	GroupCode string
	Sport     string
	MatchTime time.Time
}

// AdmissionResult describes what one SubmitMatchRequest call did. Throttled
// means the queue was at capacity and nothing was written.
type AdmissionResult struct {
	Throttled bool
	QueueSize int64
	Entries   []models.QueueEntry
	Skipped   []uint
}

// AdmissionService gatekeeps the matchmaking queue. All admissions and
// cancellations on one instance run one at a time.
type AdmissionService struct {
	mu         sync.Mutex
	store      repositories.Store
	clock      clockwork.Clock
	queueLimit int64
}

func NewAdmissionService(store repositories.Store, clock clockwork.Clock, queueLimit int) *AdmissionService {
	return &AdmissionService{
		store:      store,
		clock:      clock,
		queueLimit: int64(queueLimit),
	}
}

func (s *AdmissionService) SubmitMatchRequest(ctx context.Context, req MatchRequest) (*AdmissionResult, error) {
	sport, ok := models.ParseSport(req.Sport)
	if !ok {
		return nil, ErrInvalidSport
	}
	groupCode := strings.TrimSpace(req.GroupCode)
	if groupCode == "" && req.UserID == 0 {
		return nil, ErrInvalidUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Backpressure: a full queue is a no-op, not an error
	size, err := s.store.CountQueueEntries(ctx)
	if err != nil {
		return nil, err
	}
	if size >= s.queueLimit {
		logger.Warn("Queue at capacity, request dropped", "queue_size", size, "user_id", req.UserID, "group_code", groupCode)
		return &AdmissionResult{Throttled: true, QueueSize: size}, nil
	}

	// 2. Resolve who the request is for
	var candidates []models.User
	matchType := models.MatchTypeIndividual
	if groupCode != "" {
		matchType = models.MatchTypeGroup
		candidates, err = s.groupMembers(ctx, groupCode)
	} else {
		candidates, err = s.individual(ctx, req.UserID)
	}
	if err != nil {
		return nil, err
	}
	if groupCode != "" && req.UserID != 0 && !containsUser(candidates, req.UserID) {
		logger.Warn("Group request from non-member rejected", "user_id", req.UserID, "group_code", groupCode)
		return nil, ErrNotGroupMember
	}

	// 3. Drop everyone already queued or sitting in a lobby
	excluded, err := s.exclusionSet(ctx)
	if err != nil {
		return nil, err
	}

	result := &AdmissionResult{QueueSize: size}
	var admit []models.User
	for _, u := range candidates {
		if excluded[u.ID] {
			result.Skipped = append(result.Skipped, u.ID)
			continue
		}
		admit = append(admit, u)
	}

	if len(admit) == 0 {
		logger.Info("Nothing to enqueue", "skipped", result.Skipped, "group_code", groupCode)
		return result, nil
	}
	if size+int64(len(admit)) > s.queueLimit {
		logger.Warn("Queue cannot fit request, request dropped", "queue_size", size, "requested", len(admit), "group_code", groupCode)
		result.Throttled = true
		return result, nil
	}

	// 4. Enqueue and flip statuses in one transaction
	now := s.clock.Now()
	entries := make([]models.QueueEntry, 0, len(admit))
	err = s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		for _, u := range admit {
			entry := models.QueueEntry{
				Ticket:     uuid.NewString(),
				UserID:     u.ID,
				Sport:      sport,
				City:       u.City,
				District:   u.District,
				GroupCode:  groupCode,
				MatchTime:  req.MatchTime,
				MatchType:  matchType,
				Status:     models.QueueStatusPending,
				EnqueuedAt: now,
			}
			if err := tx.CreateQueueEntry(ctx, &entry); err != nil {
				return err
			}

			user, err := tx.GetUserByID(ctx, u.ID)
			if err != nil {
				return err
			}
			user.MatchStatus = models.UserMatched
			if err := tx.SaveUser(ctx, user); err != nil {
				return err
			}

			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to persist admission", "error", err, "user_id", req.UserID, "group_code", groupCode)
		return nil, errors.Wrap(err, errors.ErrCodeAdmissionPersistence, "failed to persist admission")
	}

	result.Entries = entries
	result.QueueSize = size + int64(len(entries))
	logger.Info("Match request admitted", "match_type", matchType, "sport", sport, "enqueued", len(entries), "skipped", len(result.Skipped))
	return result, nil
}

// CancelMatchRequest withdraws a queued user and frees them for a new request.
func (s *AdmissionService) CancelMatchRequest(ctx context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		entry, err := tx.GetQueueEntryByUser(ctx, userID)
		if isNotFound(err) {
			return ErrQueueEntryNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.DeleteQueueEntry(ctx, entry.ID); err != nil {
			return err
		}

		user, err := tx.GetUserByID(ctx, userID)
		if isNotFound(err) {
			return ErrInvalidUser
		}
		if err != nil {
			return err
		}
		user.MatchStatus = models.UserUnmatched
		return tx.SaveUser(ctx, user)
	})
	if err != nil {
		return err
	}

	logger.Info("Match request cancelled", "user_id", userID)
	return nil
}

func (s *AdmissionService) QueueSize(ctx context.Context) (int64, error) {
	return s.store.CountQueueEntries(ctx)
}

func (s *AdmissionService) groupMembers(ctx context.Context, code string) ([]models.User, error) {
	group, err := s.store.GetGroupByCode(ctx, code)
	if isNotFound(err) {
		return nil, ErrInvalidGroup
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetGroupMembers(ctx, group.ID)
}

func (s *AdmissionService) individual(ctx context.Context, userID uint) ([]models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if isNotFound(err) {
		return nil, ErrInvalidUser
	}
	if err != nil {
		return nil, err
	}
	return []models.User{*user}, nil
}

// exclusionSet is rebuilt on every call from the queue and every lobby.
func (s *AdmissionService) exclusionSet(ctx context.Context) (map[uint]bool, error) {
	queued, err := s.store.ListQueuedUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	matched, err := s.store.ListMatchedUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	excluded := make(map[uint]bool, len(queued)+len(matched))
	for _, id := range queued {
		excluded[id] = true
	}
	for _, id := range matched {
		excluded[id] = true
	}
	return excluded, nil
}

func containsUser(users []models.User, id uint) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
