// Package memory implements repositories.Store on process memory. It backs
// the service tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/pkg/errors"
)

type dataset struct {
	nextID       uint
	users        map[uint]models.User
	groups       map[uint]models.UserGroup
	members      []models.GroupMember
	queue        map[uint]models.QueueEntry
	matches      map[uint]models.Match
	participants map[uint]models.MatchParticipant
	games        map[uint]models.Game
	reports      map[uint]models.ScoreReport
}

func newDataset() *dataset {
	return &dataset{
		users:        make(map[uint]models.User),
		groups:       make(map[uint]models.UserGroup),
		queue:        make(map[uint]models.QueueEntry),
		matches:      make(map[uint]models.Match),
		participants: make(map[uint]models.MatchParticipant),
		games:        make(map[uint]models.Game),
		reports:      make(map[uint]models.ScoreReport),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	c.nextID = d.nextID
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.groups {
		c.groups[k] = v
	}
	c.members = append(c.members, d.members...)
	for k, v := range d.queue {
		c.queue[k] = v
	}
	for k, v := range d.matches {
		c.matches[k] = v
	}
	for k, v := range d.participants {
		c.participants[k] = v
	}
	for k, v := range d.games {
		c.games[k] = v
	}
	for k, v := range d.reports {
		c.reports[k] = v
	}
	return c
}

func (d *dataset) id() uint {
	d.nextID++
	return d.nextID
}

type core struct {
	mu   sync.Mutex
	data *dataset
}

// Store keeps every entity in maps guarded by one mutex. A transaction holds
// the mutex for its whole callback and restores a snapshot on error.
type Store struct {
	core *core
	inTx bool
}

var _ repositories.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{core: &core{data: newDataset()}}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.core.mu.Lock()
	return s.core.mu.Unlock
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.core.mu.Lock()
	defer s.core.mu.Unlock()

	snapshot := s.core.data.clone()
	if err := fn(&Store{core: s.core, inTx: true}); err != nil {
		s.core.data = snapshot
		return err
	}
	return nil
}

func notFound(what string) error {
	return errors.New(errors.ErrCodeNotFound, what+" not found")
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	if user.Nickname == "" {
		return errors.New(errors.ErrCodeValidation, "nickname is required")
	}
	if user.MatchStatus == "" {
		user.MatchStatus = models.UserUnmatched
	}
	if user.ID == 0 {
		user.ID = s.core.data.id()
	}
	stamp(&user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	s.core.data.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	defer s.lock()()
	user, ok := s.core.data.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &user, nil
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	if _, ok := s.core.data.users[user.ID]; !ok {
		return notFound("user")
	}
	user.UpdatedAt = time.Now()
	s.core.data.users[user.ID] = *user
	return nil
}

// Groups

func (s *Store) CreateGroup(ctx context.Context, group *models.UserGroup, memberIDs []uint) error {
	defer s.lock()()
	for _, g := range s.core.data.groups {
		if g.Code == group.Code {
			return errors.New(errors.ErrCodeAlreadyExists, "group code already exists")
		}
	}
	group.ID = s.core.data.id()
	stamp(&group.CreatedAt)
	s.core.data.groups[group.ID] = *group
	for i, userID := range memberIDs {
		s.core.data.members = append(s.core.data.members, models.GroupMember{
			ID:       s.core.data.id(),
			GroupID:  group.ID,
			UserID:   userID,
			Position: i,
		})
	}
	return nil
}

func (s *Store) GetGroupByCode(ctx context.Context, code string) (*models.UserGroup, error) {
	defer s.lock()()
	for _, g := range s.core.data.groups {
		if g.Code == code {
			return &g, nil
		}
	}
	return nil, notFound("group")
}

func (s *Store) GetGroupMembers(ctx context.Context, groupID uint) ([]models.User, error) {
	defer s.lock()()
	var members []models.GroupMember
	for _, m := range s.core.data.members {
		if m.GroupID == groupID {
			members = append(members, m)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Position < members[j].Position
	})

	users := make([]models.User, 0, len(members))
	for _, m := range members {
		if u, ok := s.core.data.users[m.UserID]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// Queue

func (s *Store) CountQueueEntries(ctx context.Context) (int64, error) {
	defer s.lock()()
	return int64(len(s.core.data.queue)), nil
}

func (s *Store) CreateQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	defer s.lock()()
	for _, e := range s.core.data.queue {
		if e.UserID == entry.UserID || e.Ticket == entry.Ticket {
			return errors.New(errors.ErrCodeAlreadyExists, "queue entry already exists")
		}
	}
	entry.ID = s.core.data.id()
	if entry.Status == "" {
		entry.Status = models.QueueStatusPending
	}
	s.core.data.queue[entry.ID] = *entry
	return nil
}

func (s *Store) GetQueueEntryByUser(ctx context.Context, userID uint) (*models.QueueEntry, error) {
	defer s.lock()()
	for _, e := range s.core.data.queue {
		if e.UserID == userID {
			return &e, nil
		}
	}
	return nil, notFound("queue entry")
}

func (s *Store) DeleteQueueEntry(ctx context.Context, id uint) error {
	defer s.lock()()
	if _, ok := s.core.data.queue[id]; !ok {
		return notFound("queue entry")
	}
	delete(s.core.data.queue, id)
	return nil
}

func (s *Store) ListQueuedUserIDs(ctx context.Context) ([]uint, error) {
	defer s.lock()()
	ids := make([]uint, 0, len(s.core.data.queue))
	for _, e := range s.core.data.queue {
		ids = append(ids, e.UserID)
	}
	return ids, nil
}

// Matches

func (s *Store) CreateMatch(ctx context.Context, match *models.Match) error {
	defer s.lock()()
	match.ID = s.core.data.id()
	if match.Status == "" {
		match.Status = models.MatchStatusNotStarted
	}
	if match.FullStatus == "" {
		match.FullStatus = models.FullStatusFor(match.CurrentSize, match.MaxSize)
	}
	stamp(&match.CreatedAt)
	s.core.data.matches[match.ID] = *match
	return nil
}

func (s *Store) GetMatchByID(ctx context.Context, id uint) (*models.Match, error) {
	defer s.lock()()
	match, ok := s.core.data.matches[id]
	if !ok {
		return nil, notFound("match")
	}
	return &match, nil
}

// GetMatchForUpdate needs no row lock: transactions already hold the store mutex.
func (s *Store) GetMatchForUpdate(ctx context.Context, id uint) (*models.Match, error) {
	return s.GetMatchByID(ctx, id)
}

func (s *Store) SaveMatch(ctx context.Context, match *models.Match) error {
	defer s.lock()()
	if _, ok := s.core.data.matches[match.ID]; !ok {
		return notFound("match")
	}
	s.core.data.matches[match.ID] = *match
	return nil
}

// Participants

func (s *Store) CreateParticipant(ctx context.Context, participant *models.MatchParticipant) error {
	defer s.lock()()
	for _, p := range s.core.data.participants {
		if p.UserID == participant.UserID && p.MatchID == participant.MatchID {
			return errors.New(errors.ErrCodeAlreadyExists, "user already in this match")
		}
	}
	participant.ID = s.core.data.id()
	if participant.Readiness == "" {
		participant.Readiness = models.ReadinessWaiting
	}
	stamp(&participant.JoinedAt)
	s.core.data.participants[participant.ID] = *participant
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, matchID, userID uint) (*models.MatchParticipant, error) {
	defer s.lock()()
	for _, p := range s.core.data.participants {
		if p.MatchID == matchID && p.UserID == userID {
			return &p, nil
		}
	}
	return nil, notFound("participant")
}

func (s *Store) GetParticipantByUser(ctx context.Context, userID uint) (*models.MatchParticipant, error) {
	defer s.lock()()
	var found *models.MatchParticipant
	for _, p := range s.core.data.participants {
		if p.UserID != userID || !s.active(p.MatchID) {
			continue
		}
		if found == nil || p.ID > found.ID {
			p := p
			found = &p
		}
	}
	if found == nil {
		return nil, notFound("participant")
	}
	return found, nil
}

// active reports whether the match exists and has not finished. Callers hold the lock.
func (s *Store) active(matchID uint) bool {
	m, ok := s.core.data.matches[matchID]
	return ok && m.Status != models.MatchStatusFinished
}

func (s *Store) SaveParticipant(ctx context.Context, participant *models.MatchParticipant) error {
	defer s.lock()()
	if _, ok := s.core.data.participants[participant.ID]; !ok {
		return notFound("participant")
	}
	s.core.data.participants[participant.ID] = *participant
	return nil
}

func (s *Store) DeleteParticipant(ctx context.Context, id uint) error {
	defer s.lock()()
	if _, ok := s.core.data.participants[id]; !ok {
		return notFound("participant")
	}
	delete(s.core.data.participants, id)
	return nil
}

func (s *Store) ListParticipants(ctx context.Context, matchID uint) ([]models.MatchParticipant, error) {
	defer s.lock()()
	var out []models.MatchParticipant
	for _, p := range s.core.data.participants {
		if p.MatchID == matchID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountParticipantsByReadiness(ctx context.Context, matchID uint, readiness models.Readiness) (int64, error) {
	defer s.lock()()
	var count int64
	for _, p := range s.core.data.participants {
		if p.MatchID == matchID && p.Readiness == readiness {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListMatchedUserIDs(ctx context.Context) ([]uint, error) {
	defer s.lock()()
	seen := make(map[uint]bool)
	ids := make([]uint, 0, len(s.core.data.participants))
	for _, p := range s.core.data.participants {
		if seen[p.UserID] || !s.active(p.MatchID) {
			continue
		}
		seen[p.UserID] = true
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

// Games

func (s *Store) CreateGame(ctx context.Context, game *models.Game) error {
	defer s.lock()()
	for _, g := range s.core.data.games {
		if g.MatchID == game.MatchID {
			return errors.New(errors.ErrCodeAlreadyExists, "match already has a game")
		}
	}
	game.ID = s.core.data.id()
	if game.Status == "" {
		game.Status = models.GameStatusScheduled
	}
	if game.VotingStatus == "" {
		game.VotingStatus = models.VotingOpen
	}
	stamp(&game.CreatedAt)
	s.core.data.games[game.ID] = *game
	return nil
}

func (s *Store) GetGameByID(ctx context.Context, id uint) (*models.Game, error) {
	defer s.lock()()
	game, ok := s.core.data.games[id]
	if !ok {
		return nil, notFound("game")
	}
	return &game, nil
}

func (s *Store) GetGameForUpdate(ctx context.Context, id uint) (*models.Game, error) {
	return s.GetGameByID(ctx, id)
}

func (s *Store) SaveGame(ctx context.Context, game *models.Game) error {
	defer s.lock()()
	if _, ok := s.core.data.games[game.ID]; !ok {
		return notFound("game")
	}
	s.core.data.games[game.ID] = *game
	return nil
}

func (s *Store) ListGamesByVotingStatus(ctx context.Context, status models.VotingStatus) ([]models.Game, error) {
	defer s.lock()()
	var out []models.Game
	for _, g := range s.core.data.games {
		if g.VotingStatus == status {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListGamesForUser(ctx context.Context, userID uint) ([]models.Game, error) {
	defer s.lock()()
	matchIDs := make(map[uint]bool)
	for _, p := range s.core.data.participants {
		if p.UserID == userID {
			matchIDs[p.MatchID] = true
		}
	}

	var out []models.Game
	for _, g := range s.core.data.games {
		if matchIDs[g.MatchID] {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ListGamesAwaitingFinalize(ctx context.Context) ([]models.Game, error) {
	defer s.lock()()
	var out []models.Game
	for _, g := range s.core.data.games {
		if g.VotingStatus == models.VotingClosed && g.FinalizedAt == nil {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListFinalizedGames(ctx context.Context) ([]models.Game, error) {
	defer s.lock()()
	var out []models.Game
	for _, g := range s.core.data.games {
		if g.FinalizedAt != nil {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FinalizedAt.Equal(*out[j].FinalizedAt) {
			return out[i].FinalizedAt.Before(*out[j].FinalizedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Score reports

func (s *Store) CreateScoreReport(ctx context.Context, report *models.ScoreReport) error {
	defer s.lock()()
	if _, ok := s.core.data.games[report.GameID]; !ok {
		return notFound("game")
	}
	report.ID = s.core.data.id()
	if report.Stage == "" {
		report.Stage = models.ReportProvisional
	}
	stamp(&report.CreatedAt)
	s.core.data.reports[report.ID] = *report
	return nil
}

func (s *Store) ListScoreReports(ctx context.Context, gameID uint) ([]models.ScoreReport, error) {
	defer s.lock()()
	var out []models.ScoreReport
	for _, r := range s.core.data.reports {
		if r.GameID == gameID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveScoreReports(ctx context.Context, reports []models.ScoreReport) error {
	defer s.lock()()
	for _, r := range reports {
		if _, ok := s.core.data.reports[r.ID]; !ok {
			return notFound("score report")
		}
	}
	for _, r := range reports {
		s.core.data.reports[r.ID] = r
	}
	return nil
}
