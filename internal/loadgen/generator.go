package loadgen

import (
	"fmt"
	"math"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/repository"
	"github.com/willcagas/goose-trials-sub001/internal/domain/games"
	"github.com/willcagas/goose-trials-sub001/internal/domain/moderation"
)

// Player is one synthetic participant.
type Player struct {
	UserID   string // empty for guests
	GuestID  string
	Username string
	Email    string
	Country  string
	// Skill in [0,1] shifts every score toward the good end of a game's range.
	Skill float64
}

// Attempt is one score a player will submit.
type Attempt struct {
	Player       *Player
	GameID       string
	Value        float64
	SubmissionID string
}

type generator struct {
	faker *gofakeit.Faker
	unis  []string
}

func newGenerator(seed uint64) *generator {
	if seed == 0 {
		seed = gofakeit.Uint64()
	}
	g := &generator{faker: gofakeit.New(seed)}
	for _, u := range repository.DefaultUniversities() {
		g.unis = append(g.unis, u.Domains[0])
	}
	return g
}

func (g *generator) players(n int, signedIn bool) []*Player {
	out := make([]*Player, n)
	for i := range out {
		p := &Player{
			GuestID:  uuid.NewString(),
			Username: g.username(i),
			Skill:    g.faker.Float64Range(0, 1),
		}
		if signedIn {
			p.UserID = "seed-" + uuid.NewString()
			p.Email = fmt.Sprintf("%s@%s", strings.ToLower(p.Username), g.faker.RandomString(g.unis))
			p.Country = g.faker.CountryAbr()
		}
		out[i] = p
	}
	return out
}

// username returns a name that passes moderation's length and charset rules.
func (g *generator) username(i int) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return -1
	}, g.faker.Username())
	suffix := fmt.Sprintf("%d", i)
	if room := moderation.MaxUsernameLength - len(suffix); len(base) > room {
		base = base[:room]
	}
	name := base + suffix
	for len(name) < moderation.MinUsernameLength {
		name += "x"
	}
	return name
}

// attempts builds every submission for the run, each with a unique submission id.
func (g *generator) attempts(players []*Player, gameList []games.Game, perPlayer int) []Attempt {
	out := make([]Attempt, 0, len(players)*len(gameList)*perPlayer)
	for _, p := range players {
		for _, game := range gameList {
			for range perPlayer {
				out = append(out, Attempt{
					Player:       p,
					GameID:       game.ID,
					Value:        g.score(game, p.Skill),
					SubmissionID: uuid.NewString(),
				})
			}
		}
	}
	g.faker.ShuffleAnySlice(out)
	return out
}

// score draws a plausible value for game around the player's skill.
func (g *generator) score(game games.Game, skill float64) float64 {
	r := game.Plausible
	if r.IsZero() {
		r = game.Submit
	}
	quality := math.Min(1, math.Max(0, skill+g.faker.Float64Range(-0.15, 0.15)))
	if game.LowerIsBetter {
		quality = 1 - quality
	}
	v := r.Min + quality*(r.Max-r.Min)
	if game.Unit == "ms" || game.Unit == "s" {
		return math.Round(v*10) / 10
	}
	return math.Round(v)
}
