package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/database"
	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
)

const uniqueViolation = "23505"

// queryable is satisfied by both the pool and a transaction.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists scores in Postgres and delegates ranking to stored functions.
type PostgresStore struct {
	db *database.DB
	q  queryable
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store on the pool.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db.Pool}
}

func newPostgresStoreWithTx(tx queryable) *PostgresStore {
	return &PostgresStore{q: tx}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scopeArgs(q LeaderboardQuery) (string, string) {
	if q.Scope == "" {
		return string(ScopeGlobal), ""
	}
	return string(q.Scope), q.ScopeValue
}

func (s *PostgresStore) InsertScore(ctx context.Context, sc model.Score) (model.Score, error) {
	defer observe("insert_score", time.Now())
	if err := sc.Subject.Validate(); err != nil {
		return model.Score{}, err
	}
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}

	query := `
		INSERT INTO scores (id, game_id, user_id, guest_id, value, recorded_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		RETURNING recorded_at
	`
	var recordedAt *time.Time
	if !sc.RecordedAt.IsZero() {
		recordedAt = &sc.RecordedAt
	}
	err := s.q.QueryRow(ctx, query,
		sc.ID, sc.GameID, nullable(sc.Subject.UserID), nullable(sc.Subject.GuestID), sc.Value, recordedAt,
	).Scan(&sc.RecordedAt)
	if err != nil {
		return model.Score{}, fmt.Errorf("insert score for %s: %w", sc.GameID, err)
	}
	return sc, nil
}

func subjectFilter(subject model.Subject) (string, string) {
	if subject.UserID != "" {
		return "user_id = $2", subject.UserID
	}
	return "guest_id = $2", subject.GuestID
}

func (s *PostgresStore) BestScore(ctx context.Context, subject model.Subject, gameID string, lowerIsBetter bool) (*float64, error) {
	defer observe("best_score", time.Now())
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	agg := "max"
	if lowerIsBetter {
		agg = "min"
	}
	filter, id := subjectFilter(subject)
	query := fmt.Sprintf(`SELECT %s(value) FROM scores WHERE game_id = $1 AND %s`, agg, filter)

	var best *float64
	if err := s.q.QueryRow(ctx, query, gameID, id).Scan(&best); err != nil {
		return nil, fmt.Errorf("best score for %s: %w", gameID, err)
	}
	return best, nil
}

func (s *PostgresStore) SubjectScores(ctx context.Context, subject model.Subject, gameID string) ([]float64, error) {
	defer observe("subject_scores", time.Now())
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	filter, id := subjectFilter(subject)
	query := fmt.Sprintf(`SELECT value FROM scores WHERE game_id = $1 AND %s ORDER BY recorded_at`, filter)
	return s.values(ctx, query, gameID, id)
}

func (s *PostgresStore) GameScores(ctx context.Context, gameID string) ([]float64, error) {
	defer observe("game_scores", time.Now())
	return s.values(ctx, `SELECT value FROM scores WHERE game_id = $1`, gameID)
}

func (s *PostgresStore) values(ctx context.Context, query string, args ...any) ([]float64, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[float64])
	if err != nil {
		return nil, fmt.Errorf("scan scores: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]Entry, error) {
	defer observe("leaderboard", time.Now())
	if err := q.validate(true); err != nil {
		return nil, err
	}
	scope, value := scopeArgs(q)

	rows, err := s.q.Query(ctx,
		`SELECT rank, user_id, username, university_id, university_name, country_code, best_score, achieved_at
		 FROM get_leaderboard($1, $2, $3, $4, $5)`,
		q.GameID, q.LowerIsBetter, scope, value, q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard %s: %w", q.GameID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                              Entry
			rank                           int64
			username, uniName, countryCode *string
			uniID                          pgtype.UUID
		)
		if err := rows.Scan(&rank, &e.UserID, &username, &uniID, &uniName, &countryCode, &e.BestScore, &e.AchievedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		e.Rank = int(rank)
		e.Username = deref(username)
		e.UniversityName = deref(uniName)
		e.CountryCode = strings.TrimSpace(deref(countryCode))
		e.UniversityID = uuidString(uniID)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountBetter(ctx context.Context, q LeaderboardQuery, value float64) (int, error) {
	defer observe("count_better", time.Now())
	if err := q.validate(false); err != nil {
		return 0, err
	}
	scope, scopeValue := scopeArgs(q)

	var n int64
	err := s.q.QueryRow(ctx, `SELECT count_users_with_better_score($1, $2, $3, $4, $5)`,
		q.GameID, q.LowerIsBetter, value, scope, scopeValue,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count_users_with_better_score %s: %w", q.GameID, err)
	}
	return int(n), nil
}

func (s *PostgresStore) TopUniversities(ctx context.Context, gameID string, lowerIsBetter bool, limit int) ([]UniversityEntry, error) {
	defer observe("top_universities", time.Now())
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.q.Query(ctx,
		`SELECT rank, university_id, name, country_code, players, average_best, top_score
		 FROM get_top_universities($1, $2, $3)`,
		gameID, lowerIsBetter, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get_top_universities %s: %w", gameID, err)
	}
	defer rows.Close()

	var out []UniversityEntry
	for rows.Next() {
		var (
			e             UniversityEntry
			rank, players int64
			id            pgtype.UUID
		)
		if err := rows.Scan(&rank, &id, &e.Name, &e.CountryCode, &players, &e.AverageBest, &e.TopScore); err != nil {
			return nil, fmt.Errorf("scan university row: %w", err)
		}
		e.Rank, e.Players, e.UniversityID = int(rank), int(players), uuidString(id)
		e.CountryCode = strings.TrimSpace(e.CountryCode)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MigrateGuestScores(ctx context.Context, guestID, userID string) (int, error) {
	defer observe("migrate_guest_scores", time.Now())
	if guestID == "" || userID == "" {
		return 0, model.ErrInvalidSubject
	}
	var moved int
	if err := s.q.QueryRow(ctx, `SELECT migrate_guest_scores($1, $2)`, guestID, userID).Scan(&moved); err != nil {
		return 0, fmt.Errorf("migrate_guest_scores: %w", err)
	}
	return moved, nil
}

func (s *PostgresStore) FindUniversityByDomain(ctx context.Context, domain string) (model.University, error) {
	defer observe("find_university_by_domain", time.Now())
	return s.university(ctx,
		`SELECT id, name, country_code, domains FROM find_university_by_domain($1)`,
		strings.ToLower(strings.TrimSpace(domain)))
}

func (s *PostgresStore) University(ctx context.Context, id string) (model.University, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.University{}, fmt.Errorf("%w: university %q", ErrNotFound, id)
	}
	return s.university(ctx, `SELECT id, name, country_code::TEXT, domains FROM universities WHERE id = $1`, id)
}

func (s *PostgresStore) university(ctx context.Context, query string, arg string) (model.University, error) {
	var (
		u  model.University
		id pgtype.UUID
	)
	err := s.q.QueryRow(ctx, query, arg).Scan(&id, &u.Name, &u.CountryCode, &u.Domains)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.University{}, fmt.Errorf("%w: university for %q", ErrNotFound, arg)
	}
	if err != nil {
		return model.University{}, fmt.Errorf("query university: %w", err)
	}
	u.ID = uuidString(id)
	u.CountryCode = strings.TrimSpace(u.CountryCode)
	return u, nil
}

// UpsertProfile writes the profile inside a transaction so the username check and the write agree.
func (s *PostgresStore) UpsertProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	defer observe("upsert_profile", time.Now())
	if s.db == nil {
		return s.upsertProfile(ctx, p)
	}
	var out model.Profile
	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = newPostgresStoreWithTx(tx).upsertProfile(ctx, p)
		return err
	})
	return out, err
}

func (s *PostgresStore) upsertProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	var owner string
	err := s.q.QueryRow(ctx,
		`SELECT user_id FROM profiles WHERE lower(username) = lower($1) AND user_id <> $2 FOR UPDATE`,
		p.Username, p.UserID,
	).Scan(&owner)
	if err == nil {
		return model.Profile{}, ErrUsernameTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("check username: %w", err)
	}

	query := `
		INSERT INTO profiles (user_id, username, country_code, university_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    country_code = EXCLUDED.country_code,
		    university_id = EXCLUDED.university_id,
		    updated_at = now()
		RETURNING updated_at
	`
	p.CountryCode = strings.ToUpper(p.CountryCode)
	err = s.q.QueryRow(ctx, query, p.UserID, p.Username, nullable(p.CountryCode), nullable(p.UniversityID)).Scan(&p.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.Profile{}, ErrUsernameTaken
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("upsert profile %s: %w", p.UserID, err)
	}
	return p, nil
}

func (s *PostgresStore) Profile(ctx context.Context, userID string) (model.Profile, error) {
	var (
		p           model.Profile
		countryCode *string
		uniID       pgtype.UUID
	)
	err := s.q.QueryRow(ctx,
		`SELECT user_id, username, country_code, university_id, updated_at FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Username, &countryCode, &uniID, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("%w: profile %q", ErrNotFound, userID)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	p.CountryCode = strings.TrimSpace(deref(countryCode))
	p.UniversityID = uuidString(uniID)
	return p, nil
}

func (s *PostgresStore) Count(ctx context.Context, gameID string) (int, error) {
	var (
		n   int64
		err error
	)
	if gameID == "" {
		err = s.q.QueryRow(ctx, `SELECT count(*) FROM scores`).Scan(&n)
	} else {
		err = s.q.QueryRow(ctx, `SELECT count(*) FROM scores WHERE game_id = $1`, gameID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return int(n), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}
