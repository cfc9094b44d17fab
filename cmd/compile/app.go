package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/okian/tribescore/internal/adapters/repository"
	"github.com/okian/tribescore/internal/adapters/seasonfile"
	app "github.com/okian/tribescore/internal/app"
	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/internal/domain/scoring"
	"github.com/okian/tribescore/internal/seasongen"
	"github.com/okian/tribescore/pkg/logger"
	"github.com/urfave/cli/v2"
)

var errUsage = errors.New("usage")

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "compile",
		Usage:  "score survivor fantasy leagues",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
			&cli.IntFlag{Name: "survival-cap", Value: 5, Usage: "per-episode survival bonus cap, 0 disables"},
			&cli.BoolFlag{Name: "preserve-streak", Value: true, Usage: "keep streaks across pick changes"},
			&cli.BoolFlag{Name: "tribe-points-to-castaways", Value: true, Usage: "credit tribe points to tribe members"},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
		},
		Before: func(c *cli.Context) error {
			return logger.SetLevelString(c.String("log-level"))
		},
		Commands: []*cli.Command{
			scoresCommand(),
			standingsCommand(),
			statsCommand(),
			wagerCommand(),
			simulateCommand(),
		},
	}
}

func compilerOptions(c *cli.Context) []scoring.Option {
	return []scoring.Option{
		scoring.WithSurvivalCap(c.Int("survival-cap")),
		scoring.WithPreserveStreak(c.Bool("preserve-streak")),
		scoring.WithTribePointsToCastaways(c.Bool("tribe-points-to-castaways")),
	}
}

func loadArg(c *cli.Context) (model.Input, error) {
	if c.NArg() != 1 {
		return model.Input{}, fmt.Errorf("%w: %s %s", errUsage, c.Command.Name, c.Command.ArgsUsage)
	}
	return seasonfile.Load(c.Args().First())
}

func compileArg(c *cli.Context) (model.Input, model.Result, error) {
	in, err := loadArg(c)
	if err != nil {
		return model.Input{}, model.Result{}, err
	}
	res, err := scoring.NewCompiler(compilerOptions(c)...).Compile(in)
	if err != nil {
		return model.Input{}, model.Result{}, err
	}
	return in, res, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func scoresCommand() *cli.Command {
	return &cli.Command{
		Name:      "scores",
		Usage:     "print running totals per episode",
		ArgsUsage: "<season.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bucket", Value: string(model.BucketMember), Usage: "Castaway, Tribe or Member"},
		},
		Action: func(c *cli.Context) error {
			_, res, err := compileArg(c)
			if err != nil {
				return err
			}
			bucket := model.Bucket(c.String("bucket"))
			if !slices.Contains(model.Buckets(), bucket) {
				return fmt.Errorf("%w: unknown bucket %q", errUsage, bucket)
			}
			if c.Bool("json") {
				return writeJSON(c.App.Writer, res.Scores[bucket])
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', tabwriter.AlignRight)
			_, _ = fmt.Fprint(tw, "name\t")
			for ep := 0; ep <= res.Scores.MaxEpisode(); ep++ {
				_, _ = fmt.Fprintf(tw, "%d\t", ep)
			}
			_, _ = fmt.Fprintln(tw)
			for _, name := range res.Scores.Names(bucket) {
				_, _ = fmt.Fprintf(tw, "%s\t", name)
				for _, v := range res.Scores[bucket][name] {
					_, _ = fmt.Fprintf(tw, "%d\t", v)
				}
				_, _ = fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
}

func standingsCommand() *cli.Command {
	return &cli.Command{
		Name:      "standings",
		Usage:     "rank league members",
		ArgsUsage: "<season.yaml>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "episode", Value: repository.LatestEpisode, Usage: "rank as of episode, -1 for the latest"},
			&cli.IntFlag{Name: "limit", Value: 10, Usage: "entries to print"},
		},
		Action: func(c *cli.Context) error {
			in, res, err := compileArg(c)
			if err != nil {
				return err
			}
			store := repository.NewStandingsStore()
			if err := store.Put(c.Context, in.LeagueID, res); err != nil {
				return err
			}
			standing, err := store.Standings(c.Context, in.LeagueID, c.Int("episode"), c.Int("limit"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return writeJSON(c.App.Writer, standing)
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "%s after episode %d\n", standing.LeagueID, standing.Episode)
			_, _ = fmt.Fprintln(tw, "rank\tmember\tscore\tstreak")
			for _, e := range standing.Entries {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", e.Rank, e.Member, e.Score, e.Streak)
			}
			return tw.Flush()
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "count events per castaway and list the boot order",
		ArgsUsage: "<season.yaml>",
		Action: func(c *cli.Context) error {
			in, err := loadArg(c)
			if err != nil {
				return err
			}
			st, err := scoring.CompileStats(in)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return writeJSON(c.App.Writer, st)
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "castaway\tevent\tcount")
			for _, name := range sortedKeys(st.CastawayEvents) {
				for _, ev := range sortedKeys(st.CastawayEvents[name]) {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", name, ev, st.CastawayEvents[name][ev])
				}
			}
			_, _ = fmt.Fprintln(tw)
			_, _ = fmt.Fprintln(tw, "boot\tcastaway\tepisode")
			for i, name := range st.EliminationOrder {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, name, st.EliminatedIn[name])
			}
			return tw.Flush()
		},
	}
}

func wagerCommand() *cli.Command {
	return &cli.Command{
		Name:      "wager",
		Usage:     "check whether a member can place a bet",
		ArgsUsage: "<season.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "member", Required: true},
			&cli.IntFlag{Name: "episode", Required: true},
			&cli.IntFlag{Name: "bet", Required: true},
		},
		Action: func(c *cli.Context) error {
			in, res, err := compileArg(c)
			if err != nil {
				return err
			}
			member, ep, bet := c.String("member"), c.Int("episode"), c.Int("bet")
			outstanding := scoring.OutstandingWagers(in.BasePredictions, member, ep) +
				scoring.OutstandingWagers(in.LeaguePredictions, member, ep)
			if err := scoring.CheckWager(res.Scores, member, ep, outstanding, bet); err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.App.Writer, "ok: %s may bet %d on episode %d (balance %d, outstanding %d)\n",
				member, bet, ep, res.Scores.At(model.BucketMember, member, ep-1), outstanding)
			return err
		},
	}
}

func simulateCommand() *cli.Command {
	def := seasongen.DefaultConfig()
	return &cli.Command{
		Name:  "simulate",
		Usage: "generate synthetic leagues and compile them through the worker pool",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "leagues", Value: 100},
			&cli.Uint64Flag{Name: "seed", Value: def.Seed},
			&cli.IntFlag{Name: "episodes", Value: def.Episodes},
			&cli.IntFlag{Name: "tribes", Value: def.Tribes},
			&cli.IntFlag{Name: "castaways-per-tribe", Value: def.CastawaysPerTribe},
			&cli.IntFlag{Name: "members", Value: def.Members},
			&cli.IntFlag{Name: "workers", Value: def.Workers, Usage: "compile workers"},
			&cli.StringFlag{Name: "out", Usage: "directory to write generated season files to"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Minute},
		},
		Action: func(c *cli.Context) error {
			cfg := def
			cfg.Leagues = c.Int("leagues")
			cfg.Seed = c.Uint64("seed")
			cfg.Episodes = c.Int("episodes")
			cfg.Tribes = c.Int("tribes")
			cfg.CastawaysPerTribe = c.Int("castaways-per-tribe")
			cfg.Members = c.Int("members")
			cfg.Workers = c.Int("workers")

			svc := app.New(
				app.WithWorkerCount(cfg.Workers),
				app.WithQueueSize(max(cfg.Leagues, 1)),
				app.WithCompilerOptions(compilerOptions(c)...),
			)
			if err := svc.Start(c.Context); err != nil {
				return err
			}
			defer func() { _ = svc.Stop(c.Context) }()

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()
			rep, err := seasongen.Run(ctx, cfg, svc, c.String("out"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return writeJSON(c.App.Writer, rep)
			}
			_, err = fmt.Fprintf(c.App.Writer, "compiled %d/%d leagues in %s (%d failed)\n",
				rep.Succeeded, rep.Leagues, rep.Duration.Round(time.Millisecond), rep.Failed)
			return err
		},
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
