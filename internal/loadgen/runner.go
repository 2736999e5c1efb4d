package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/auth"
	"github.com/willcagas/goose-trials-sub001/internal/domain/games"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
)

// Defaults applied by Run when a Config field is unset.
const (
	DefaultPlayers         = 50
	DefaultScoresPerPlayer = 3
	DefaultWorkers         = 8
	DefaultTimeout         = 10 * time.Second

	maxRetries   = 3
	retryBackoff = 100 * time.Millisecond
)

// ErrVerification is returned when a leaderboard read back after seeding is out of order.
var ErrVerification = errors.New("leaderboard verification failed")

func (c *Config) withDefaults() {
	if c.Players <= 0 {
		c.Players = DefaultPlayers
	}
	if c.ScoresPerPlayer <= 0 {
		c.ScoresPerPlayer = DefaultScoresPerPlayer
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Run seeds the service at cfg.BaseURL and verifies every seeded leaderboard.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg.withDefaults()
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("loadgen")

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("scoresPerPlayer", cfg.ScoresPerPlayer),
		logger.Int("workers", cfg.Workers),
		logger.Bool("signedIn", cfg.JWTSecret != ""))

	var verifier *auth.Verifier
	if cfg.JWTSecret != "" {
		var opts []auth.Option
		if cfg.JWTAudience != "" {
			opts = append(opts, auth.WithAudience(cfg.JWTAudience))
		}
		verifier = auth.NewVerifier(cfg.JWTSecret, opts...)
	}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout, verifier)

	if err := client.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	gameList, err := resolveGames(ctx, client, cfg.Games)
	if err != nil {
		return stats, err
	}

	gen := newGenerator(cfg.Seed)
	players := gen.players(cfg.Players, verifier != nil)
	stats.PlayersCreated = len(players)

	if verifier != nil {
		createProfiles(ctx, client, cfg.Workers, players, stats)
	}

	attempts := gen.attempts(players, gameList, cfg.ScoresPerPlayer)
	submitAttempts(ctx, client, cfg.Workers, attempts, stats)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	for _, g := range gameList {
		if err := verifyGame(ctx, client, g, verifier != nil, cfg.Verbose, stats); err != nil {
			return stats, err
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "seed run completed",
		logger.Int("players", stats.PlayersCreated),
		logger.Any("profiles", stats.ProfilesCreated.Load()),
		logger.Any("submitted", stats.ScoresSubmitted.Load()),
		logger.Any("accepted", stats.ScoresAccepted.Load()),
		logger.Any("newHighScores", stats.NewHighScores.Load()),
		logger.Any("failed", stats.ScoresFailed.Load()),
		logger.Any("rateLimited", stats.RateLimited.Load()),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

// resolveGames intersects the requested ids with what the service offers.
func resolveGames(ctx context.Context, client *HTTPClient, requested []string) ([]games.Game, error) {
	offered, err := client.games(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	want := make(map[string]bool, len(requested))
	for _, id := range requested {
		want[id] = true
	}

	var out []games.Game
	for _, o := range offered {
		if len(want) > 0 && !want[o.ID] {
			continue
		}
		g, err := games.Default().Lookup(o.ID)
		if err != nil {
			// Served but unknown locally: fall back to the advertised bounds.
			g = games.Game{ID: o.ID, Unit: o.Unit, LowerIsBetter: o.LowerIsBetter,
				Submit: games.Range{Min: o.MinScore, Max: o.MaxScore}}
		}
		out = append(out, g)
		delete(want, o.ID)
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for id := range want {
			missing = append(missing, id)
		}
		return nil, fmt.Errorf("%w: %v", games.ErrUnknownGame, missing)
	}
	return out, nil
}

// fanOut runs fn over items with n workers, stopping early when ctx is done.
func fanOut[T any](ctx context.Context, n int, items []T, fn func(T)) {
	ch := make(chan T, n*2)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range ch {
				if ctx.Err() != nil {
					continue
				}
				fn(it)
			}
		}()
	}
	for _, it := range items {
		select {
		case ch <- it:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(ch)
	wg.Wait()
}

func createProfiles(ctx context.Context, client *HTTPClient, workers int, players []*Player, stats *Stats) {
	log := logger.Named("loadgen")
	fanOut(ctx, workers, players, func(p *Player) {
		err := withRetry(ctx, stats, func() error { return client.putProfile(ctx, p) })
		if err != nil {
			stats.ProfilesFailed.Add(1)
			log.Warn(ctx, "profile upsert failed", logger.String("username", p.Username), logger.Error(err))
			return
		}
		stats.ProfilesCreated.Add(1)
	})
}

func submitAttempts(ctx context.Context, client *HTTPClient, workers int, attempts []Attempt, stats *Stats) {
	log := logger.Named("loadgen")
	fanOut(ctx, workers, attempts, func(a Attempt) {
		stats.ScoresSubmitted.Add(1)
		err := withRetry(ctx, stats, func() error {
			resp, err := client.submit(ctx, a)
			if err == nil && resp.IsNewHighScore {
				stats.NewHighScores.Add(1)
			}
			return err
		})
		if err != nil {
			stats.ScoresFailed.Add(1)
			log.Debug(ctx, "score submission failed", logger.String("game", a.GameID), logger.Error(err))
			return
		}
		stats.ScoresAccepted.Add(1)
	})
}

// withRetry retries fn on 429 with linear backoff.
func withRetry(ctx context.Context, stats *Stats, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = fn()
		var se *statusError
		if !errors.As(err, &se) || se.Status != http.StatusTooManyRequests {
			return err
		}
		stats.RateLimited.Add(1)
		select {
		case <-time.After(time.Duration(attempt) * retryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
