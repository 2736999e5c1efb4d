package dedupe_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dedupe "github.com/willcagas/goose-trials-sub001/internal/domain/dedupe"

	. "github.com/smartystreets/goconvey/convey"
)

// claimCommit claims id and commits v when the id is new.
func claimCommit(ctx context.Context, d *dedupe.InMemoryDeduper[string], id, v string) (string, bool) {
	t, prev, err := d.Claim(ctx, id)
	So(err, ShouldBeNil)
	if t == nil {
		return prev, true
	}
	t.Commit(v)
	return v, false
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper[string]()

		Convey("When a submission id is new", func() {
			ticket, _, err := d.Claim(ctx, "sub-1")

			Convey("Then the caller holds it", func() {
				So(err, ShouldBeNil)
				So(ticket, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a committed id is retried", func() {
			claimCommit(ctx, d, "sub-1", "score-a")
			got, dup := claimCommit(ctx, d, "sub-1", "score-b")

			Convey("Then the original result comes back", func() {
				So(dup, ShouldBeTrue)
				So(got, ShouldEqual, "score-a")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a claim is released", func() {
			ticket, _, _ := d.Claim(ctx, "sub-1")
			ticket.Release()
			ticket.Commit("late")

			Convey("Then the id can be claimed again and the stale commit is ignored", func() {
				So(d.Size(), ShouldEqual, 0)
				again, _, err := d.Claim(ctx, "sub-1")
				So(err, ShouldBeNil)
				So(again, ShouldNotBeNil)
			})
		})

		Convey("When release follows commit", func() {
			ticket, _, _ := d.Claim(ctx, "sub-1")
			ticket.Commit("score-a")
			ticket.Release()

			Convey("Then the commit stands", func() {
				got, dup := claimCommit(ctx, d, "sub-1", "score-b")
				So(dup, ShouldBeTrue)
				So(got, ShouldEqual, "score-a")
			})
		})
	})

	Convey("Given an id held in flight", t, func() {
		d := dedupe.NewInMemoryDeduper[string]()
		holder, _, err := d.Claim(ctx, "sub-1")
		So(err, ShouldBeNil)

		type outcome struct {
			ticket *dedupe.Ticket[string]
			prev   string
			err    error
		}
		wait := func() chan outcome {
			ch := make(chan outcome, 1)
			go func() {
				t, prev, err := d.Claim(ctx, "sub-1")
				ch <- outcome{t, prev, err}
			}()
			return ch
		}

		Convey("When the holder commits", func() {
			ch := wait()
			time.Sleep(20 * time.Millisecond)
			holder.Commit("score-a")
			got := <-ch

			Convey("Then the waiting duplicate receives the committed value", func() {
				So(got.err, ShouldBeNil)
				So(got.ticket, ShouldBeNil)
				So(got.prev, ShouldEqual, "score-a")
			})
		})

		Convey("When the holder releases", func() {
			ch := wait()
			time.Sleep(20 * time.Millisecond)
			holder.Release()
			got := <-ch

			Convey("Then the waiter takes over the id", func() {
				So(got.err, ShouldBeNil)
				So(got.ticket, ShouldNotBeNil)
			})
		})

		Convey("When the waiter gives up", func() {
			cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, _, err := d.Claim(cctx, "sub-1")

			Convey("Then it gets the context error", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper[string](dedupe.WithMaxSize(3))
		for _, id := range []string{"a", "b", "c"} {
			claimCommit(ctx, d, id, id)
		}

		Convey("When a fourth id is committed", func() {
			claimCommit(ctx, d, "d", "d")

			Convey("Then the oldest id is evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				for _, id := range []string{"b", "c", "d"} {
					_, dup := claimCommit(ctx, d, id, "x")
					So(dup, ShouldBeTrue)
				}
				_, dup := claimCommit(ctx, d, "a", "x")
				So(dup, ShouldBeFalse)
			})
		})

		Convey("When ids are only in flight", func() {
			ticket, _, _ := d.Claim(ctx, "e")

			Convey("Then nothing is evicted for them", func() {
				So(ticket, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 4)
				_, dup := claimCommit(ctx, d, "a", "x")
				So(dup, ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper[string](dedupe.WithMaxSize(0))

		Convey("When many ids are committed", func() {
			for i := range 1000 {
				claimCommit(ctx, d, fmt.Sprintf("sub-%d", i), "v")
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				_, dup := claimCommit(ctx, d, "sub-0", "v")
				So(dup, ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given a deduper shared by many goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper[int]()
		ctx := context.Background()

		Convey("When every goroutine retries the same ids", func() {
			var (
				wg      sync.WaitGroup
				firsts  atomic.Int64
				badDups atomic.Int64
			)
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range 100 {
						ticket, prev, err := d.Claim(ctx, fmt.Sprintf("sub-%d", i))
						switch {
						case err != nil:
							badDups.Add(1)
						case ticket != nil:
							firsts.Add(1)
							ticket.Commit(i)
						case prev != i:
							badDups.Add(1)
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id is claimed once and every duplicate sees its value", func() {
				So(firsts.Load(), ShouldEqual, 100)
				So(badDups.Load(), ShouldEqual, 0)
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})
}
