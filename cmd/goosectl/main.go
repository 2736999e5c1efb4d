// Command goosectl runs database migrations and seeds a running API with synthetic players.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/database"
	"github.com/willcagas/goose-trials-sub001/internal/loadgen"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
)

var errMissingDatabaseURL = errors.New("database url is required")

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		logger.Get().Error(ctx, "goosectl failed", logger.Error(err))
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "goosectl",
		Usage:     "Goose Trials operations tool",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"GOOSE_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			return logger.SetLevelString(c.String("log-level"))
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
		},
	}
}

func databaseURL(c *cli.Context) (string, error) {
	url := c.String("database-url")
	if url == "" {
		return "", errMissingDatabaseURL
	}
	return url, nil
}

func migrateCommand() *cli.Command {
	dbFlag := &cli.StringFlag{
		Name:    "database-url",
		Usage:   "Postgres connection string",
		EnvVars: []string{"GOOSE_DATABASE_URL"},
	}
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Flags: []cli.Flag{dbFlag},
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply every pending migration",
				Action: func(c *cli.Context) error {
					url, err := databaseURL(c)
					if err != nil {
						return err
					}
					return database.MigrateUp(c.Context, url)
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					url, err := databaseURL(c)
					if err != nil {
						return err
					}
					return database.MigrateDown(c.Context, url, c.Int("steps"))
				},
			},
			{
				Name:  "status",
				Usage: "print the current schema version",
				Action: func(c *cli.Context) error {
					url, err := databaseURL(c)
					if err != nil {
						return err
					}
					st, err := database.MigrateStatus(c.Context, url)
					if err != nil {
						return err
					}
					if !st.Applied {
						_, err = fmt.Fprintln(c.App.Writer, "no migrations applied")
						return err
					}
					_, err = fmt.Fprintf(c.App.Writer, "version %d (dirty: %t)\n", st.Version, st.Dirty)
					return err
				},
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "submit synthetic players and scores, then verify leaderboards",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "base URL of the service"},
			&cli.IntFlag{Name: "players", Value: loadgen.DefaultPlayers},
			&cli.IntFlag{Name: "scores", Value: loadgen.DefaultScoresPerPlayer, Usage: "scores per player per game"},
			&cli.StringSliceFlag{Name: "game", Usage: "game id to seed (repeatable); default all"},
			&cli.IntFlag{Name: "workers", Value: loadgen.DefaultWorkers},
			&cli.DurationFlag{Name: "timeout", Value: loadgen.DefaultTimeout},
			&cli.StringFlag{
				Name:    "jwt-secret",
				Usage:   "sign player tokens so they get profiles; guests otherwise",
				EnvVars: []string{"GOOSE_JWT_SECRET"},
			},
			&cli.StringFlag{Name: "jwt-audience", EnvVars: []string{"GOOSE_JWT_AUDIENCE"}},
			&cli.Uint64Flag{Name: "seed", Usage: "faker seed; 0 is random"},
			&cli.BoolFlag{Name: "verbose"},
		},
		Action: func(c *cli.Context) error {
			stats, err := loadgen.Run(c.Context, loadgen.Config{
				BaseURL:         c.String("url"),
				Players:         c.Int("players"),
				ScoresPerPlayer: c.Int("scores"),
				Games:           c.StringSlice("game"),
				Workers:         c.Int("workers"),
				Timeout:         c.Duration("timeout"),
				JWTSecret:       c.String("jwt-secret"),
				JWTAudience:     c.String("jwt-audience"),
				Seed:            c.Uint64("seed"),
				Verbose:         c.Bool("verbose"),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.App.Writer,
				"players=%d accepted=%d/%d new_high_scores=%d failed=%d rate_limited=%d took=%s\n",
				stats.PlayersCreated,
				stats.ScoresAccepted.Load(), stats.ScoresSubmitted.Load(),
				stats.NewHighScores.Load(), stats.ScoresFailed.Load(), stats.RateLimited.Load(),
				stats.Duration.Round(time.Millisecond))
			return err
		},
	}
}
