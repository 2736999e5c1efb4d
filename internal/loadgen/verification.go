package loadgen

import (
	"context"
	"fmt"

	"github.com/willcagas/goose-trials-sub001/internal/domain/games"
	"github.com/willcagas/goose-trials-sub001/internal/domain/scoring"
	"github.com/willcagas/goose-trials-sub001/internal/domain/types"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
)

const verifyLimit = 100

func verifyGame(ctx context.Context, client *HTTPClient, g games.Game, signedIn, verbose bool, stats *Stats) error {
	log := logger.Named("loadgen")

	lb, err := client.leaderboard(ctx, g.ID, verifyLimit)
	if err != nil {
		return fmt.Errorf("leaderboard %s: %w", g.ID, err)
	}
	stats.LeaderboardsRead++
	if err := verifyLeaderboard(scoring.ForGame(g), lb); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrVerification, g.ID, err)
	}
	if signedIn && len(lb.Entries) == 0 {
		log.Warn(ctx, "leaderboard empty after seeding; cache may still be warm", logger.String("game", g.ID))
	}

	dist, err := client.distribution(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("distribution %s: %w", g.ID, err)
	}
	if verbose {
		log.Info(ctx, "game verified",
			logger.String("game", g.ID),
			logger.Int("entries", len(lb.Entries)),
			logger.Int("totalEntrants", lb.TotalEntrants),
			logger.Int("distributionScores", dist.TotalScores),
			logger.Float64("mean", dist.Mean))
	}
	return nil
}

// verifyLeaderboard checks ordering and competition ranks of a leaderboard page.
func verifyLeaderboard(d scoring.Direction, lb types.LeaderboardResponse) error {
	if lb.TotalEntrants < len(lb.Entries) {
		return fmt.Errorf("totalEntrants %d below %d listed entries", lb.TotalEntrants, len(lb.Entries))
	}
	for i, e := range lb.Entries {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("first entry has rank %d", e.Rank)
			}
			continue
		}
		prev := lb.Entries[i-1]
		switch {
		case scoring.IsBetter(d, e.BestScore, prev.BestScore):
			return fmt.Errorf("entry %d (%v) beats entry %d (%v)", i, e.BestScore, i-1, prev.BestScore)
		case e.BestScore == prev.BestScore && e.Rank != prev.Rank:
			return fmt.Errorf("tied entries %d and %d have ranks %d and %d", i-1, i, prev.Rank, e.Rank)
		case e.BestScore != prev.BestScore && e.Rank != i+1:
			return fmt.Errorf("entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
	}
	return nil
}
