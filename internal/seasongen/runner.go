package seasongen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/tribescore/internal/adapters/repository"
	"github.com/okian/tribescore/internal/adapters/seasonfile"
	service "github.com/okian/tribescore/internal/app"
	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/internal/domain/types"
	"github.com/okian/tribescore/pkg/logger"
)

const directoryPermission = 0o750

// Compiler is the part of the compile service a simulation drives.
type Compiler interface {
	Submit(ctx context.Context, requestKey string, in model.Input) (string, error)
	Wait(ctx context.Context, id string) (service.JobStatus, error)
	Standings(ctx context.Context, leagueID string, episode, limit int) (types.Standing, error)
}

// Report summarizes a simulation run.
type Report struct {
	Leagues   int
	Succeeded int
	Failed    int
	Duration  time.Duration
	Standings []types.Standing
}

// Run generates cfg.Leagues seasons, compiles them through c, and verifies
// the standings. When outputDir is set each season is also written there
// as a season file.
func Run(ctx context.Context, cfg Config, c Compiler, outputDir string) (Report, error) {
	start := time.Now()
	log := logger.Get().Named("simulate")

	leagues, err := GenerateLeagues(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("league generation failed: %w", err)
	}
	if outputDir != "" {
		if err := save(outputDir, leagues); err != nil {
			log.Warn(ctx, "failed to save seasons", logger.Error(err))
		}
	}

	ids := make([]string, len(leagues))
	for i := range leagues {
		id, err := c.Submit(ctx, leagues[i].LeagueID, leagues[i])
		if err != nil {
			return Report{}, fmt.Errorf("submit league %s: %w", leagues[i].LeagueID, err)
		}
		ids[i] = id
	}

	rep := Report{Leagues: len(leagues)}
	for i, id := range ids {
		st, err := c.Wait(ctx, id)
		if err != nil {
			return rep, fmt.Errorf("wait for league %s: %w", leagues[i].LeagueID, err)
		}
		if st.State != service.JobDone {
			rep.Failed++
			log.Warn(ctx, "league failed to compile",
				logger.String("league_id", st.LeagueID),
				logger.String("error", st.Error),
			)
			continue
		}
		standing, err := c.Standings(ctx, st.LeagueID, repository.LatestEpisode, cfg.Members)
		if err != nil {
			return rep, fmt.Errorf("standings for league %s: %w", st.LeagueID, err)
		}
		if err := VerifyStanding(standing); err != nil {
			return rep, err
		}
		rep.Succeeded++
		rep.Standings = append(rep.Standings, standing)
	}

	rep.Duration = time.Since(start)
	log.Info(ctx, "simulation finished",
		logger.Int("leagues", rep.Leagues),
		logger.Int("succeeded", rep.Succeeded),
		logger.Int("failed", rep.Failed),
		logger.Duration("took", rep.Duration),
	)
	return rep, nil
}

func save(dir string, leagues []model.Input) error {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for i := range leagues {
		path := filepath.Join(dir, leagues[i].LeagueID+".yaml")
		f, err := os.Create(path) //nolint:gosec // path is built from a generated id
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		err = seasonfile.Encode(f, leagues[i])
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
