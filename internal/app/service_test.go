package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/repository"
	"github.com/willcagas/goose-trials-sub001/internal/domain/games"
	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
	"github.com/willcagas/goose-trials-sub001/internal/domain/moderation"
	"github.com/willcagas/goose-trials-sub001/internal/domain/types"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

const guestID = "5b0d6c1e-8f4a-4b7e-9a61-2f7f3c2d9e10"

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// mapCache is a JSON-encoding cache that records invalidations.
type mapCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	invalidated map[string]int
}

func newMapCache() *mapCache {
	return &mapCache{items: map[string][]byte{}, invalidated: map[string]int{}}
}

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *mapCache) Set(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = b
	return nil
}

func (c *mapCache) InvalidateGame(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := "goose:" + gameID + ":"
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.invalidated[gameID]++
	return nil
}

func (c *mapCache) Close() error { return nil }

func (c *mapCache) invalidations(gameID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated[gameID]
}

func ptr(v float64) *float64 { return &v }

func submit(ctx context.Context, s *Service, game string, subject model.Subject, values ...float64) {
	for _, v := range values {
		_, err := s.SubmitScore(ctx, Submission{GameID: game, Subject: subject, Value: v})
		So(err, ShouldBeNil)
	}
}

func TestSubmitScore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over an empty store", t, func() {
		store := repository.NewMemoryStore()
		s := New(WithStore(store), WithWorkerCount(1))
		defer s.Stop(ctx)

		Convey("When a subject submits reaction times", func() {
			first, err1 := s.SubmitScore(ctx, Submission{GameID: games.ReactionTime, Subject: model.Guest(guestID), Value: 250})
			worse, err2 := s.SubmitScore(ctx, Submission{GameID: games.ReactionTime, Subject: model.Guest(guestID), Value: 300})
			better, err3 := s.SubmitScore(ctx, Submission{GameID: games.ReactionTime, Subject: model.Guest(guestID), Value: 210})

			Convey("Then only the first score and real improvements are new high scores", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(first.IsNewHighScore, ShouldBeTrue)
				So(first.PreviousBest, ShouldBeNil)
				So(first.ScoreID, ShouldNotBeEmpty)
				So(worse.IsNewHighScore, ShouldBeFalse)
				So(*worse.PreviousBest, ShouldEqual, 250)
				So(better.IsNewHighScore, ShouldBeTrue)
				So(*better.PreviousBest, ShouldEqual, 250)
			})
		})

		Convey("When a higher-is-better score ties the best", func() {
			submit(ctx, s, games.ChimpTest, model.User("u-1"), 12)
			tie, err := s.SubmitScore(ctx, Submission{GameID: games.ChimpTest, Subject: model.User("u-1"), Value: 12})

			Convey("Then it is not a new high score", func() {
				So(err, ShouldBeNil)
				So(tie.IsNewHighScore, ShouldBeFalse)
			})
		})

		Convey("When the client supplies its previous best", func() {
			resp, err := s.SubmitScore(ctx, Submission{
				GameID: games.ReactionTime, Subject: model.User("u-2"), Value: 200, PreviousBest: ptr(180),
			})

			Convey("Then the comparison uses it", func() {
				So(err, ShouldBeNil)
				So(resp.IsNewHighScore, ShouldBeFalse)
				So(*resp.PreviousBest, ShouldEqual, 180)
			})
		})

		Convey("When the same submission id is sent twice", func() {
			sub := Submission{GameID: games.AimTrainer, Subject: model.User("u-3"), Value: 40, SubmissionID: "attempt-1"}
			first, _ := s.SubmitScore(ctx, sub)
			second, err := s.SubmitScore(ctx, sub)
			other, _ := s.SubmitScore(ctx, Submission{GameID: games.AimTrainer, Subject: model.User("u-4"), Value: 40, SubmissionID: "attempt-1"})

			Convey("Then the retry is acknowledged without storing twice", func() {
				So(err, ShouldBeNil)
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(other.Duplicate, ShouldBeFalse)
				n, _ := store.Count(ctx, games.AimTrainer)
				So(n, ShouldEqual, 2)
			})

			Convey("Then the retry repeats the original outcome", func() {
				So(first.IsNewHighScore, ShouldBeTrue)
				So(second.IsNewHighScore, ShouldEqual, first.IsNewHighScore)
				So(second.ScoreID, ShouldEqual, first.ScoreID)
				So(second.PreviousBest, ShouldBeNil)
				So(second.RecordedAt.Equal(first.RecordedAt), ShouldBeTrue)
			})
		})

		Convey("When a retry arrives after a better score was stored", func() {
			sub := Submission{GameID: games.ReactionTime, Subject: model.User("u-5"), Value: 240, SubmissionID: "attempt-1"}
			first, _ := s.SubmitScore(ctx, sub)
			submit(ctx, s, games.ReactionTime, model.User("u-5"), 200)
			retry, err := s.SubmitScore(ctx, sub)

			Convey("Then it still reports the first attempt as a new high score", func() {
				So(err, ShouldBeNil)
				So(retry.Duplicate, ShouldBeTrue)
				So(retry.IsNewHighScore, ShouldBeTrue)
				So(retry.ScoreID, ShouldEqual, first.ScoreID)
			})
		})

		Convey("When the submission is invalid", func() {
			_, errGame := s.SubmitScore(ctx, Submission{GameID: "tetris", Subject: model.User("u-1"), Value: 1})
			_, errNaN := s.SubmitScore(ctx, Submission{GameID: games.ChimpTest, Subject: model.User("u-1"), Value: math.NaN()})
			_, errInf := s.SubmitScore(ctx, Submission{GameID: games.ChimpTest, Subject: model.User("u-1"), Value: math.Inf(1)})
			_, errNeg := s.SubmitScore(ctx, Submission{GameID: games.ChimpTest, Subject: model.User("u-1"), Value: -1})
			_, errRange := s.SubmitScore(ctx, Submission{GameID: games.ReactionTime, Subject: model.User("u-1"), Value: 20000})
			_, errNobody := s.SubmitScore(ctx, Submission{GameID: games.ChimpTest, Value: 5})
			_, errBoth := s.SubmitScore(ctx, Submission{GameID: games.ChimpTest, Subject: model.Subject{UserID: "u-1", GuestID: guestID}, Value: 5})

			Convey("Then each is rejected with its sentinel and nothing is stored", func() {
				So(errors.Is(errGame, games.ErrUnknownGame), ShouldBeTrue)
				So(errors.Is(errNaN, ErrInvalidScore), ShouldBeTrue)
				So(errors.Is(errInf, ErrInvalidScore), ShouldBeTrue)
				So(errors.Is(errNeg, ErrInvalidScore), ShouldBeTrue)
				So(errors.Is(errRange, ErrInvalidScore), ShouldBeTrue)
				So(errors.Is(errNobody, ErrInvalidSubject), ShouldBeTrue)
				So(errors.Is(errBoth, ErrInvalidSubject), ShouldBeTrue)
				n, _ := store.Count(ctx, "")
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When reading a personal best", func() {
			submit(ctx, s, games.NumberMemory, model.User("u-5"), 7, 11, 9)
			best, err := s.BestScore(ctx, model.User("u-5"), games.NumberMemory)
			none, _ := s.BestScore(ctx, model.User("u-6"), games.NumberMemory)

			Convey("Then the direction picks the best and unknown subjects get nil", func() {
				So(err, ShouldBeNil)
				So(*best.BestScore, ShouldEqual, 11)
				So(none.BestScore, ShouldBeNil)
			})
		})
	})
}

// gatedStore holds InsertScore until release is closed and can fail it once.
type gatedStore struct {
	*repository.MemoryStore
	entered chan struct{}
	release chan struct{}
	failing bool
	once    sync.Once
}

func newGatedStore(failing bool) *gatedStore {
	return &gatedStore{
		MemoryStore: repository.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
		failing:     failing,
	}
}

var errStoreDown = errors.New("store down")

func (g *gatedStore) InsertScore(ctx context.Context, sc model.Score) (model.Score, error) {
	first := false
	g.once.Do(func() {
		first = true
		close(g.entered)
		<-g.release
	})
	if first && g.failing {
		return model.Score{}, errStoreDown
	}
	return g.MemoryStore.InsertScore(ctx, sc)
}

func TestSubmitScoreRetriesInFlight(t *testing.T) {
	ctx := context.Background()
	sub := Submission{GameID: games.AimTrainer, Subject: model.Guest(guestID), Value: 55, SubmissionID: "attempt-9"}

	type result struct {
		resp types.SubmitScoreResponse
		err  error
	}
	race := func(store *gatedStore) (result, result) {
		s := New(WithStore(store))
		firstCh := make(chan result, 1)
		go func() {
			r, err := s.SubmitScore(ctx, sub)
			firstCh <- result{r, err}
		}()
		<-store.entered

		retryCh := make(chan result, 1)
		go func() {
			r, err := s.SubmitScore(ctx, sub)
			retryCh <- result{r, err}
		}()
		time.Sleep(20 * time.Millisecond)
		close(store.release)
		return <-firstCh, <-retryCh
	}

	Convey("Given a retry sent while the original is still being stored", t, func() {
		Convey("When the original commits", func() {
			store := newGatedStore(false)
			first, retry := race(store)

			Convey("Then the retry waits and returns the same outcome", func() {
				So(first.err, ShouldBeNil)
				So(retry.err, ShouldBeNil)
				So(retry.resp.Duplicate, ShouldBeTrue)
				So(retry.resp.ScoreID, ShouldEqual, first.resp.ScoreID)
				So(retry.resp.IsNewHighScore, ShouldEqual, first.resp.IsNewHighScore)
				n, _ := store.Count(ctx, games.AimTrainer)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When the original fails", func() {
			store := newGatedStore(true)
			first, retry := race(store)

			Convey("Then the retry is stored itself instead of being acknowledged", func() {
				So(errors.Is(first.err, errStoreDown), ShouldBeTrue)
				So(retry.err, ShouldBeNil)
				So(retry.resp.Duplicate, ShouldBeFalse)
				So(retry.resp.ScoreID, ShouldNotBeEmpty)
				So(retry.resp.IsNewHighScore, ShouldBeTrue)
				n, _ := store.Count(ctx, games.AimTrainer)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()

	Convey("Given users with profiles and scores", t, func() {
		store := repository.NewMemoryStore()
		c := newMapCache()
		s := New(
			WithStore(store),
			WithCache(c),
			WithLeaderboardLimits(2, 3),
			WithUserTags(map[string]string{"u-a": "dev"}),
		)
		defer s.Stop(ctx)

		_, err := s.UpsertProfile(ctx, "u-a", types.ProfileRequest{Username: "alpha", Email: "a@uwaterloo.ca"})
		So(err, ShouldBeNil)
		_, err = s.UpsertProfile(ctx, "u-b", types.ProfileRequest{Username: "bravo", CountryCode: "us"})
		So(err, ShouldBeNil)
		submit(ctx, s, games.ReactionTime, model.User("u-a"), 220, 190)
		submit(ctx, s, games.ReactionTime, model.User("u-b"), 190)
		submit(ctx, s, games.ReactionTime, model.User("u-c"), 260)
		submit(ctx, s, games.ReactionTime, model.User("u-d"), 300)
		submit(ctx, s, games.ReactionTime, model.Guest(guestID), 150)

		Convey("When the default page is read by a user below the cut", func() {
			viewer := model.User("u-d")
			resp, err := s.Leaderboard(ctx, LeaderboardRequest{GameID: games.ReactionTime, Viewer: &viewer})

			Convey("Then ties share a rank and the viewer still learns their place", func() {
				So(err, ShouldBeNil)
				So(len(resp.Entries), ShouldEqual, 2)
				So(resp.Entries[0].Rank, ShouldEqual, 1)
				So(resp.Entries[1].Rank, ShouldEqual, 1)
				So(resp.TotalEntrants, ShouldEqual, 4)
				So(*resp.ViewerRank, ShouldEqual, 4)
				So(*resp.ViewerScore, ShouldEqual, 300)
			})

			Convey("Then tags and university names decorate the rows", func() {
				var alpha types.LeaderboardEntry
				for _, e := range resp.Entries {
					if e.UserID == "u-a" {
						alpha = e
					}
				}
				So(alpha.Tag, ShouldEqual, "dev")
				So(alpha.UniversityName, ShouldEqual, "University of Waterloo")
				So(alpha.CountryCode, ShouldEqual, "CA")
			})
		})

		Convey("When a guest views the leaderboard", func() {
			viewer := model.Guest(guestID)
			resp, _ := s.Leaderboard(ctx, LeaderboardRequest{GameID: games.ReactionTime, Limit: 50, Viewer: &viewer})

			Convey("Then guests are not listed but are told where they would rank", func() {
				So(len(resp.Entries), ShouldEqual, 3)
				for _, e := range resp.Entries {
					So(e.UserID, ShouldNotBeEmpty)
				}
				So(*resp.ViewerRank, ShouldEqual, 1)
			})
		})

		Convey("When a user asks for their own university without naming it", func() {
			viewer := model.User("u-a")
			resp, err := s.Leaderboard(ctx, LeaderboardRequest{GameID: games.ReactionTime, Scope: "university", Viewer: &viewer})

			Convey("Then the scope comes from their profile", func() {
				So(err, ShouldBeNil)
				So(len(resp.Entries), ShouldEqual, 1)
				So(resp.Entries[0].UserID, ShouldEqual, "u-a")
				So(resp.TotalEntrants, ShouldEqual, 1)
			})
		})

		Convey("When the scope is unusable", func() {
			_, errScope := s.Leaderboard(ctx, LeaderboardRequest{GameID: games.ReactionTime, Scope: "galaxy"})
			_, errValue := s.Leaderboard(ctx, LeaderboardRequest{GameID: games.ReactionTime, Scope: "country"})

			Convey("Then ErrInvalidScope is returned", func() {
				So(errors.Is(errScope, repository.ErrInvalidScope), ShouldBeTrue)
				So(errors.Is(errValue, repository.ErrInvalidScope), ShouldBeTrue)
			})
		})

		Convey("When the page is cached and a score event arrives", func() {
			first, _ := s.Leaderboard(ctx, LeaderboardRequest{GameID: games.ReactionTime, Limit: 3})
			_, _ = store.InsertScore(ctx, model.Score{GameID: games.ReactionTime, Subject: model.User("u-e"), Value: 100})
			stale, _ := s.Leaderboard(ctx, LeaderboardRequest{GameID: games.ReactionTime, Limit: 3})
			So(s.HandleScoreEvent(ctx, model.ScoreEvent{GameID: games.ReactionTime}), ShouldBeNil)
			fresh, _ := s.Leaderboard(ctx, LeaderboardRequest{GameID: games.ReactionTime, Limit: 3})

			Convey("Then reads are served from cache until the game is invalidated", func() {
				So(len(stale.Entries), ShouldEqual, len(first.Entries))
				So(stale.Entries[0].UserID, ShouldEqual, first.Entries[0].UserID)
				So(stale.TotalEntrants, ShouldEqual, 4)
				So(fresh.Entries[0].UserID, ShouldEqual, "u-e")
				So(fresh.TotalEntrants, ShouldEqual, 5)
			})
		})

		Convey("When ranking universities", func() {
			_, err := s.UpsertProfile(ctx, "u-c", types.ProfileRequest{Username: "charlie", Email: "c@mit.edu"})
			So(err, ShouldBeNil)
			rows, err := s.TopUniversities(ctx, games.ReactionTime, 0)

			Convey("Then each university is ranked by its players' bests", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0].Name, ShouldEqual, "University of Waterloo")
				So(rows[0].AverageBest, ShouldEqual, 190)
				So(rows[1].CountryCode, ShouldEqual, "US")
			})
		})
	})
}

func TestDistribution(t *testing.T) {
	ctx := context.Background()

	Convey("Given a game with no scores", t, func() {
		s := New(WithStore(repository.NewMemoryStore()))
		defer s.Stop(ctx)
		viewer := model.User("u-1")
		resp, err := s.Distribution(ctx, games.NumberMemory, &viewer)

		Convey("Then the distribution is empty but well formed", func() {
			So(err, ShouldBeNil)
			So(resp.Distribution, ShouldNotBeNil)
			So(len(resp.Distribution), ShouldEqual, 0)
			So(resp.UserPercentile, ShouldBeNil)
			So(resp.UserScore, ShouldBeNil)
			So(resp.MaxLeaderboardScore, ShouldBeNil)
		})
	})

	Convey("Given reaction times from users and a guest", t, func() {
		s := New(WithStore(repository.NewMemoryStore()), WithCurvePoints(50))
		defer s.Stop(ctx)
		submit(ctx, s, games.ReactionTime, model.User("u-1"), 200, 210, 220, 230, 240, 500)
		submit(ctx, s, games.ReactionTime, model.User("u-2"), 300, 400)
		submit(ctx, s, games.ReactionTime, model.Guest(guestID), 150)

		Convey("When the first user asks for their place", func() {
			viewer := model.User("u-1")
			resp, err := s.Distribution(ctx, games.ReactionTime, &viewer)

			Convey("Then their score is the mean of their best five", func() {
				So(err, ShouldBeNil)
				So(*resp.UserScore, ShouldEqual, 220)
				So(*resp.UserPercentile, ShouldAlmostEqual, 100*5.0/9, 1e-9)
				So(resp.TotalScores, ShouldEqual, 9)
				So(len(resp.Distribution), ShouldEqual, 51)
				So(*resp.MaxLeaderboardScore, ShouldEqual, 200)
			})
		})

		Convey("When nobody is signed in", func() {
			resp, err := s.Distribution(ctx, games.ReactionTime, nil)

			Convey("Then only the curve is returned", func() {
				So(err, ShouldBeNil)
				So(resp.UserScore, ShouldBeNil)
				So(resp.UserPercentile, ShouldBeNil)
				So(resp.Mean, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given identical scores", t, func() {
		s := New(WithStore(repository.NewMemoryStore()))
		defer s.Stop(ctx)
		submit(ctx, s, games.ChimpTest, model.User("u-1"), 9, 9, 9)
		viewer := model.User("u-1")
		resp, err := s.Distribution(ctx, games.ChimpTest, &viewer)

		Convey("Then no curve is drawn and no percentile reported", func() {
			So(err, ShouldBeNil)
			So(len(resp.Distribution), ShouldEqual, 0)
			So(resp.UserPercentile, ShouldBeNil)
			So(resp.StdDev, ShouldEqual, 0)
		})
	})
}

func TestGuestsAndProfiles(t *testing.T) {
	ctx := context.Background()

	Convey("Given a guest with scores", t, func() {
		c := newMapCache()
		s := New(WithStore(repository.NewMemoryStore()), WithCache(c))
		defer s.Stop(ctx)
		submit(ctx, s, games.ChimpTest, model.Guest(guestID), 8, 10)

		Convey("When the guest signs up", func() {
			first, err := s.MigrateGuest(ctx, guestID, "u-1")
			again, err2 := s.MigrateGuest(ctx, guestID, "u-1")
			best, _ := s.BestScore(ctx, model.User("u-1"), games.ChimpTest)

			Convey("Then their scores move once and caches are dropped", func() {
				So(err, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Migrated, ShouldEqual, 2)
				So(again.Migrated, ShouldEqual, 0)
				So(*best.BestScore, ShouldEqual, 10)
				So(c.invalidations(games.ChimpTest), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When the guest id is malformed", func() {
			_, err := s.MigrateGuest(ctx, "not-a-uuid", "u-1")
			_, errUser := s.MigrateGuest(ctx, guestID, " ")

			Convey("Then the migration is refused", func() {
				So(errors.Is(err, ErrInvalidGuestID), ShouldBeTrue)
				So(errors.Is(errUser, ErrInvalidSubject), ShouldBeTrue)
			})
		})
	})

	Convey("Given profile updates", t, func() {
		s := New(WithStore(repository.NewMemoryStore()), WithUserTags(map[string]string{"u-1": "founder"}))
		defer s.Stop(ctx)

		Convey("When a student registers with a university email", func() {
			p, err := s.UpsertProfile(ctx, "u-1", types.ProfileRequest{Username: "honk", Email: "h@mail.utoronto.ca"})
			read, _ := s.Profile(ctx, "u-1")

			Convey("Then the university and its country are bound", func() {
				So(err, ShouldBeNil)
				So(p.UniversityName, ShouldEqual, "University of Toronto")
				So(p.CountryCode, ShouldEqual, "CA")
				So(p.Tag, ShouldEqual, "founder")
				So(read.Username, ShouldEqual, "honk")
			})
		})

		Convey("When the username or country is not acceptable", func() {
			_, errShort := s.UpsertProfile(ctx, "u-1", types.ProfileRequest{Username: "ab"})
			_, errCountry := s.UpsertProfile(ctx, "u-1", types.ProfileRequest{Username: "honk", CountryCode: "CAN"})
			_, _ = s.UpsertProfile(ctx, "u-2", types.ProfileRequest{Username: "taken"})
			_, errTaken := s.UpsertProfile(ctx, "u-1", types.ProfileRequest{Username: "TAKEN"})

			Convey("Then the matching error is returned", func() {
				So(errors.Is(errShort, moderation.ErrUsernameLength), ShouldBeTrue)
				So(errors.Is(errCountry, ErrInvalidCountry), ShouldBeTrue)
				So(errors.Is(errTaken, repository.ErrUsernameTaken), ShouldBeTrue)
			})
		})

		Convey("When an email has no known university", func() {
			p, err := s.UpsertProfile(ctx, "u-3", types.ProfileRequest{Username: "gander", Email: "g@gmail.com", CountryCode: "fr"})

			Convey("Then the profile is saved without one", func() {
				So(err, ShouldBeNil)
				So(p.UniversityID, ShouldBeEmpty)
				So(p.CountryCode, ShouldEqual, "FR")
			})
		})
	})
}

func TestLifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c := newMapCache()
		s := New(WithStore(repository.NewMemoryStore()), WithCache(c), WithWorkerCount(2), WithQueueSize(8))
		So(s.Start(ctx), ShouldBeNil)

		Convey("When a score is submitted", func() {
			_, err := s.SubmitScore(ctx, Submission{GameID: games.Pathfinding, Subject: model.User("u-1"), Value: 12})
			So(err, ShouldBeNil)

			Convey("Then a worker invalidates the game's cache", func() {
				deadline := time.Now().Add(2 * time.Second)
				for c.invalidations(games.Pathfinding) == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(c.invalidations(games.Pathfinding), ShouldEqual, 1)

				stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
				defer stop()
				So(s.Stop(stopCtx), ShouldBeNil)
				So(s.Stop(stopCtx), ShouldBeNil)
			})
		})

		Convey("When stats are requested", func() {
			st := s.GetStats(ctx)

			Convey("Then the snapshot describes the pipeline", func() {
				So(st["started"], ShouldEqual, true)
				So(st["workers"], ShouldEqual, 2)
				So(st["queue_size"], ShouldEqual, 8)
				So(st["total_scores"], ShouldEqual, 0)
				So(s.Stop(context.Background()), ShouldBeNil)
			})
		})
	})

	Convey("Given the game catalog", t, func() {
		s := New(WithStore(repository.NewMemoryStore()))
		defer s.Stop(context.Background())
		list := s.Games()

		Convey("Then every game is listed with its bounds", func() {
			So(len(list), ShouldEqual, games.Default().Len())
			So(list[0].ID, ShouldEqual, games.ReactionTime)
			So(list[0].LowerIsBetter, ShouldBeTrue)
			So(list[0].MaxScore, ShouldEqual, 10000)
		})
	})
}
