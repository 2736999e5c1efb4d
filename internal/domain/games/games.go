// Package games holds the static per-game metadata registry.
package games

import (
	"fmt"
	"math"
)

// Game ids.
const (
	ReactionTime = "reaction-time"
	NumberMemory = "number-memory"
	AimTrainer   = "aim-trainer"
	ChimpTest    = "chimp-test"
	Pathfinding  = "pathfinding"
	TowerOfHanoi = "tower-of-hanoi"
)

// Range is an inclusive numeric interval. The zero Range is unbounded.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// IsZero reports whether the range carries no bounds.
func (r Range) IsZero() bool { return r.Min == 0 && r.Max == 0 }

// Contains reports whether v lies within the range. A zero range contains every value.
func (r Range) Contains(v float64) bool {
	if r.IsZero() {
		return true
	}
	return v >= r.Min && v <= r.Max
}

// Chart describes game-specific charting overrides.
type Chart struct {
	// AnchorZero pins the lower bound of the chart domain to 0.
	AnchorZero bool `json:"anchorZero"`
	// Ceiling is the minimum upper bound of an anchored domain.
	Ceiling float64 `json:"ceiling,omitempty"`
}

// Game is one immutable registry entry.
type Game struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	LowerIsBetter bool   `json:"lowerIsBetter"`
	// Plausible bounds filter the population used for distributions.
	Plausible Range `json:"plausible"`
	// Submit bounds reject submissions outright.
	Submit Range `json:"submit"`
	Chart  Chart `json:"chart"`
	// RepresentativeTopN > 1 makes a subject's representative score the mean of their best N.
	RepresentativeTopN int `json:"representativeTopN,omitempty"`
}

func (g Game) validate() error {
	if g.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidGame)
	}
	for _, r := range []Range{g.Plausible, g.Submit} {
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min > r.Max {
			return fmt.Errorf("%w: %s has bad range [%v, %v]", ErrInvalidGame, g.ID, r.Min, r.Max)
		}
	}
	if g.Chart.Ceiling < 0 || g.RepresentativeTopN < 0 {
		return fmt.Errorf("%w: %s has negative chart ceiling or top-n", ErrInvalidGame, g.ID)
	}
	return nil
}

// Registry is a read-only lookup table of games. It is never mutated after construction.
type Registry struct {
	byID  map[string]Game
	order []string
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(games ...Game) (*Registry, error) {
	r := &Registry{byID: make(map[string]Game, len(games)), order: make([]string, 0, len(games))}
	for _, g := range games {
		if err := g.validate(); err != nil {
			return nil, err
		}
		if _, exists := r.byID[g.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGame, g.ID)
		}
		r.byID[g.ID] = g
		r.order = append(r.order, g.ID)
	}
	return r, nil
}

// Lookup returns the game with the given id.
func (r *Registry) Lookup(id string) (Game, error) {
	g, ok := r.byID[id]
	if !ok {
		return Game{}, fmt.Errorf("%w: %q", ErrUnknownGame, id)
	}
	return g, nil
}

// All returns a copy of every game in registration order.
func (r *Registry) All() []Game {
	out := make([]Game, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns the registered ids in order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of games.
func (r *Registry) Len() int { return len(r.order) }

// Catalog returns the built-in game definitions.
func Catalog() []Game {
	return []Game{
		{
			ID: ReactionTime, Name: "Reaction Time", Unit: "ms", LowerIsBetter: true,
			Plausible:          Range{Min: 100, Max: 1000},
			Submit:             Range{Min: 1, Max: 10000},
			RepresentativeTopN: 5,
		},
		{
			ID: NumberMemory, Name: "Number Memory", Unit: "digits",
			Plausible: Range{Min: 1, Max: 40},
			Submit:    Range{Min: 0, Max: 100},
		},
		{
			ID: AimTrainer, Name: "Aim Trainer", Unit: "targets",
			Plausible: Range{Min: 1, Max: 300},
			Submit:    Range{Min: 0, Max: 1000},
		},
		{
			ID: ChimpTest, Name: "Chimp Test", Unit: "numbers",
			Plausible: Range{Min: 4, Max: 41},
			Submit:    Range{Min: 0, Max: 100},
		},
		{
			ID: Pathfinding, Name: "Pathfinding", Unit: "levels",
			Plausible: Range{Min: 1, Max: 200},
			Submit:    Range{Min: 0, Max: 1000},
		},
		{
			ID: TowerOfHanoi, Name: "Tower of Hanoi", Unit: "s", LowerIsBetter: true,
			Plausible: Range{Min: 1, Max: 600},
			Submit:    Range{Min: 0, Max: 86400},
			Chart:     Chart{AnchorZero: true, Ceiling: 120},
		},
	}
}

var defaultRegistry = mustRegistry(Catalog()...) //nolint:gochecknoglobals // immutable lookup table

func mustRegistry(games ...Game) *Registry {
	r, err := NewRegistry(games...)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the registry built from Catalog at process start.
func Default() *Registry { return defaultRegistry }
