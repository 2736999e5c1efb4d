package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
	"github.com/willcagas/goose-trials-sub001/internal/domain/scoring"
)

// MemoryStore keeps everything in process memory. It ranks exactly like the
// Postgres functions do and is used for local runs and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	scores       map[string][]model.Score // game id -> append-only rows
	profiles     map[string]model.Profile
	usernames    map[string]string // lower(username) -> user id
	universities []model.University
	now          func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store seeded with DefaultUniversities.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		scores:       make(map[string][]model.Score),
		profiles:     make(map[string]model.Profile),
		usernames:    make(map[string]string),
		universities: DefaultUniversities(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) InsertScore(_ context.Context, sc model.Score) (model.Score, error) {
	defer observe("insert_score", time.Now())
	if err := sc.Subject.Validate(); err != nil {
		return model.Score{}, err
	}
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.RecordedAt.IsZero() {
		sc.RecordedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[sc.GameID] = append(s.scores[sc.GameID], sc)
	return sc, nil
}

func (s *MemoryStore) BestScore(_ context.Context, subject model.Subject, gameID string, lowerIsBetter bool) (*float64, error) {
	defer observe("best_score", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, ok := scoring.Best(scoring.DirectionOf(lowerIsBetter), s.subjectValuesLocked(subject, gameID))
	if !ok {
		return nil, nil
	}
	return &best, nil
}

func (s *MemoryStore) SubjectScores(_ context.Context, subject model.Subject, gameID string) ([]float64, error) {
	defer observe("subject_scores", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjectValuesLocked(subject, gameID), nil
}

func (s *MemoryStore) subjectValuesLocked(subject model.Subject, gameID string) []float64 {
	key := subject.Key()
	var out []float64
	for _, sc := range s.scores[gameID] {
		if sc.Subject.Key() == key {
			out = append(out, sc.Value)
		}
	}
	return out
}

func (s *MemoryStore) GameScores(_ context.Context, gameID string) ([]float64, error) {
	defer observe("game_scores", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.scores[gameID]
	out := make([]float64, 0, len(rows))
	for _, sc := range rows {
		out = append(out, sc.Value)
	}
	return out, nil
}

// userBestsLocked returns each user's best row for a game, ties keeping the earliest record.
func (s *MemoryStore) userBestsLocked(gameID string, d scoring.Direction) []scoring.Ranked {
	byUser := make(map[string]scoring.Ranked)
	for _, sc := range s.scores[gameID] {
		if sc.Subject.UserID == "" {
			continue
		}
		cur, seen := byUser[sc.Subject.UserID]
		if !seen || scoring.IsBetter(d, sc.Value, cur.Value) ||
			(sc.Value == cur.Value && sc.RecordedAt.Before(cur.RecordedAt)) {
			byUser[sc.Subject.UserID] = scoring.Ranked{
				SubjectID:  sc.Subject.UserID,
				Value:      sc.Value,
				RecordedAt: sc.RecordedAt,
			}
		}
	}
	out := make([]scoring.Ranked, 0, len(byUser))
	for _, r := range byUser {
		out = append(out, r)
	}
	return out
}

func (s *MemoryStore) inScopeLocked(userID string, q LeaderboardQuery) bool {
	switch q.Scope {
	case ScopeCountry:
		p, ok := s.profiles[userID]
		return ok && strings.EqualFold(p.CountryCode, q.ScopeValue)
	case ScopeUniversity:
		p, ok := s.profiles[userID]
		return ok && p.UniversityID != "" && p.UniversityID == q.ScopeValue
	default:
		return true
	}
}

func (s *MemoryStore) Leaderboard(_ context.Context, q LeaderboardQuery) ([]Entry, error) {
	defer observe("leaderboard", time.Now())
	if err := q.validate(true); err != nil {
		return nil, err
	}
	d := scoring.DirectionOf(q.LowerIsBetter)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := s.userBestsLocked(q.GameID, d)
	scoped := ranked[:0]
	for _, r := range ranked {
		if s.inScopeLocked(r.SubjectID, q) {
			scoped = append(scoped, r)
		}
	}
	scoring.Sort(d, scoped)
	scoring.AssignRanks(scoped)
	if len(scoped) > q.Limit {
		scoped = scoped[:q.Limit]
	}

	out := make([]Entry, 0, len(scoped))
	for _, r := range scoped {
		e := Entry{Rank: r.Rank, UserID: r.SubjectID, BestScore: r.Value, AchievedAt: r.RecordedAt}
		if p, ok := s.profiles[r.SubjectID]; ok {
			e.Username = p.Username
			e.CountryCode = p.CountryCode
			e.UniversityID = p.UniversityID
			if u, ok := s.universityLocked(p.UniversityID); ok {
				e.UniversityName = u.Name
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryStore) CountBetter(_ context.Context, q LeaderboardQuery, value float64) (int, error) {
	defer observe("count_better", time.Now())
	if err := q.validate(false); err != nil {
		return 0, err
	}
	d := scoring.DirectionOf(q.LowerIsBetter)

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.userBestsLocked(q.GameID, d) {
		if scoring.IsBetter(d, r.Value, value) && s.inScopeLocked(r.SubjectID, q) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) TopUniversities(_ context.Context, gameID string, lowerIsBetter bool, limit int) ([]UniversityEntry, error) {
	defer observe("top_universities", time.Now())
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	d := scoring.DirectionOf(lowerIsBetter)

	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		players int
		sum     float64
		top     float64
	}
	byUni := make(map[string]*agg)
	for _, r := range s.userBestsLocked(gameID, d) {
		p, ok := s.profiles[r.SubjectID]
		if !ok || p.UniversityID == "" {
			continue
		}
		a := byUni[p.UniversityID]
		if a == nil {
			a = &agg{top: r.Value}
			byUni[p.UniversityID] = a
		}
		a.players++
		a.sum += r.Value
		if scoring.IsBetter(d, r.Value, a.top) {
			a.top = r.Value
		}
	}

	ranked := make([]scoring.Ranked, 0, len(byUni))
	for id, a := range byUni {
		ranked = append(ranked, scoring.Ranked{SubjectID: id, Value: a.sum / float64(a.players)})
	}
	scoring.Sort(d, ranked)
	scoring.AssignRanks(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]UniversityEntry, 0, len(ranked))
	for _, r := range ranked {
		u, _ := s.universityLocked(r.SubjectID)
		a := byUni[r.SubjectID]
		out = append(out, UniversityEntry{
			Rank:         r.Rank,
			UniversityID: r.SubjectID,
			Name:         u.Name,
			CountryCode:  u.CountryCode,
			Players:      a.players,
			AverageBest:  r.Value,
			TopScore:     a.top,
		})
	}
	return out, nil
}

func (s *MemoryStore) MigrateGuestScores(_ context.Context, guestID, userID string) (int, error) {
	defer observe("migrate_guest_scores", time.Now())
	if guestID == "" || userID == "" {
		return 0, model.ErrInvalidSubject
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	moved := 0
	for game, rows := range s.scores {
		for i := range rows {
			if rows[i].Subject.GuestID == guestID {
				rows[i].Subject = model.User(userID)
				moved++
			}
		}
		s.scores[game] = rows
	}
	return moved, nil
}

func (s *MemoryStore) FindUniversityByDomain(_ context.Context, domain string) (model.University, error) {
	defer observe("find_university_by_domain", time.Now())
	domain = strings.ToLower(strings.TrimSpace(domain))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		match   model.University
		longest int
	)
	for _, u := range s.universities {
		for _, d := range u.Domains {
			if (domain == d || strings.HasSuffix(domain, "."+d)) && len(d) > longest {
				match, longest = u, len(d)
			}
		}
	}
	if longest == 0 {
		return model.University{}, fmt.Errorf("%w: university for %q", ErrNotFound, domain)
	}
	return match, nil
}

func (s *MemoryStore) University(_ context.Context, id string) (model.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.universityLocked(id)
	if !ok {
		return model.University{}, fmt.Errorf("%w: university %q", ErrNotFound, id)
	}
	return u, nil
}

func (s *MemoryStore) universityLocked(id string) (model.University, bool) {
	if id == "" {
		return model.University{}, false
	}
	for _, u := range s.universities {
		if u.ID == id {
			return u, true
		}
	}
	return model.University{}, false
}

func (s *MemoryStore) UpsertProfile(_ context.Context, p model.Profile) (model.Profile, error) {
	defer observe("upsert_profile", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(p.Username)
	if owner, ok := s.usernames[key]; ok && owner != p.UserID {
		return model.Profile{}, ErrUsernameTaken
	}
	if prev, ok := s.profiles[p.UserID]; ok {
		delete(s.usernames, strings.ToLower(prev.Username))
	}
	p.CountryCode = strings.ToUpper(p.CountryCode)
	p.UpdatedAt = s.now()
	s.profiles[p.UserID] = p
	s.usernames[key] = p.UserID
	return p, nil
}

func (s *MemoryStore) Profile(_ context.Context, userID string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, fmt.Errorf("%w: profile %q", ErrNotFound, userID)
	}
	return p, nil
}

func (s *MemoryStore) Count(_ context.Context, gameID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if gameID != "" {
		return len(s.scores[gameID]), nil
	}
	n := 0
	for _, rows := range s.scores {
		n += len(rows)
	}
	return n, nil
}
