// Package scoring decides which of two scores is better for a game.
package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/willcagas/goose-trials-sub001/internal/domain/games"
)

// Direction says which way a game's scores improve.
type Direction int

// Directions.
const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// DirectionOf maps a registry flag to a Direction.
func DirectionOf(lowerIsBetter bool) Direction {
	if lowerIsBetter {
		return LowerIsBetter
	}
	return HigherIsBetter
}

// ForGame returns the direction of g.
func ForGame(g games.Game) Direction { return DirectionOf(g.LowerIsBetter) }

func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower_is_better"
	}
	return "higher_is_better"
}

// IsBetter reports whether candidate is strictly better than reference. Ties are never better.
func IsBetter(d Direction, candidate, reference float64) bool {
	if d == LowerIsBetter {
		return candidate < reference
	}
	return candidate > reference
}

// IsNewHighScore reports whether candidate improves on reference.
// A nil reference means there is no prior score, so the candidate always wins.
func IsNewHighScore(d Direction, candidate float64, reference *float64) bool {
	if reference == nil {
		return true
	}
	return IsBetter(d, candidate, *reference)
}

// Best returns the best of values. ok is false when values is empty.
func Best(d Direction, values []float64) (best float64, ok bool) {
	for i, v := range values {
		if i == 0 || IsBetter(d, v, best) {
			best = v
		}
	}
	return best, len(values) > 0
}

// Representative returns the score that stands for a subject in a game's distribution:
// the mean of the best RepresentativeTopN values when that is above 1, else the single best.
func Representative(g games.Game, values []float64) (float64, bool) {
	d := ForGame(g)
	if len(values) == 0 {
		return 0, false
	}
	if g.RepresentativeTopN <= 1 {
		return Best(d, values)
	}
	sorted := append([]float64(nil), values...)
	SortValues(d, sorted)
	n := min(g.RepresentativeTopN, len(sorted))
	var sum float64
	for _, v := range sorted[:n] {
		sum += v
	}
	return sum / float64(n), true
}

// SortValues orders values best first.
func SortValues(d Direction, values []float64) {
	sort.SliceStable(values, func(i, j int) bool { return IsBetter(d, values[i], values[j]) })
}

// Ranked is one subject's best score as it appears on a leaderboard.
type Ranked struct {
	Rank       int
	SubjectID  string
	Value      float64
	RecordedAt time.Time
}

// Sort orders entries best first. Equal values keep the earlier record first, then the lower subject id.
func Sort(d Direction, entries []Ranked) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if IsBetter(d, a.Value, b.Value) {
			return true
		}
		if IsBetter(d, b.Value, a.Value) {
			return false
		}
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.Before(b.RecordedAt)
		}
		return a.SubjectID < b.SubjectID
	})
}

// AssignRanks sets Rank on entries already ordered by Sort.
// Equal values share a rank and the next distinct value skips past them (1, 1, 3),
// so an entry's rank is always one more than the number of strictly better entries.
func AssignRanks(entries []Ranked) {
	for i := range entries {
		if i > 0 && entries[i].Value == entries[i-1].Value {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// Comparator resolves a game's direction through a registry before comparing.
type Comparator struct {
	registry *games.Registry
}

// NewComparator returns a comparator backed by reg, or the default registry when reg is nil.
func NewComparator(reg *games.Registry) *Comparator {
	if reg == nil {
		reg = games.Default()
	}
	return &Comparator{registry: reg}
}

// Direction returns the direction of gameID.
func (c *Comparator) Direction(gameID string) (Direction, error) {
	g, err := c.registry.Lookup(gameID)
	if err != nil {
		return HigherIsBetter, err
	}
	return ForGame(g), nil
}

// IsBetter reports whether candidate is a new high score against reference for gameID.
// A nil reference is a first submission.
func (c *Comparator) IsBetter(gameID string, candidate float64, reference *float64) (bool, error) {
	d, err := c.Direction(gameID)
	if err != nil {
		return false, fmt.Errorf("compare %s: %w", gameID, err)
	}
	return IsNewHighScore(d, candidate, reference), nil
}
