package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/api"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/repository"
	service "github.com/willcagas/goose-trials-sub001/internal/app"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestGoosectl(t *testing.T) {
	ctx := context.Background()

	Convey("Given the goosectl app", t, func() {
		var out bytes.Buffer
		app := newApp(&out)

		Convey("When migrating without a database url", func() {
			t.Setenv("GOOSE_DATABASE_URL", "")
			err := app.RunContext(ctx, []string{"goosectl", "migrate", "status"})

			Convey("Then it refuses to run", func() {
				So(errors.Is(err, errMissingDatabaseURL), ShouldBeTrue)
			})
		})

		Convey("When seeding a running API", func() {
			svc := service.New(service.WithStore(repository.NewMemoryStore()))
			So(svc.Start(ctx), ShouldBeNil)
			Reset(func() { _ = svc.Stop(ctx) })
			ts := httptest.NewServer(api.NewServer(svc, svc).Handler())
			Reset(ts.Close)

			err := app.RunContext(ctx, []string{"goosectl", "seed",
				"--url", ts.URL, "--players", "3", "--scores", "1",
				"--game", "aim-trainer", "--workers", "2", "--seed", "5"})

			Convey("Then a summary is printed", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "accepted=3/3")
			})
		})
	})
}
