// Package seasongen builds synthetic seasons and leagues for load runs and
// property tests. Output is fully determined by the seed.
package seasongen

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned for configurations that cannot produce a
// playable season.
var ErrInvalidConfig = errors.New("invalid generator config")

// Config describes the shape of generated seasons.
type Config struct {
	Seed              uint64  // base seed, non-zero; league i uses Seed+i
	Leagues           int     // number of leagues to generate
	Episodes          int     // episodes per season
	Tribes            int     // starting tribes
	CastawaysPerTribe int     // starting castaways per tribe
	Members           int     // league members
	MergeEpisode      int     // episode of the merge, 0 for Episodes/2+1
	SwitchChance      float64 // chance a member changes pick in an episode
	BetChance         float64 // chance a weekly prediction carries a bet
	Workers           int     // generator goroutines
}

// DefaultConfig returns a 13 episode, 18 castaway season with 6 members.
func DefaultConfig() Config {
	return Config{
		Seed:              1,
		Leagues:           1,
		Episodes:          13,
		Tribes:            3,
		CastawaysPerTribe: 6,
		Members:           6,
		SwitchChance:      0.1,
		BetChance:         0.3,
		Workers:           4,
	}
}

// Validate checks the config can produce a season: every episode but the
// finale eliminates one castaway, and at least two castaways reach it.
func (c *Config) Validate() error {
	switch {
	case c.Seed == 0:
		return fmt.Errorf("%w: seed must be non-zero", ErrInvalidConfig)
	case c.Leagues < 1:
		return fmt.Errorf("%w: leagues must be positive", ErrInvalidConfig)
	case c.Episodes < 2:
		return fmt.Errorf("%w: need at least 2 episodes", ErrInvalidConfig)
	case c.Tribes < 1 || c.Tribes > len(tribeNames):
		return fmt.Errorf("%w: tribes must be in 1..%d", ErrInvalidConfig, len(tribeNames))
	case c.CastawaysPerTribe < 1:
		return fmt.Errorf("%w: castaways per tribe must be positive", ErrInvalidConfig)
	case c.Tribes*c.CastawaysPerTribe < c.Episodes+1:
		return fmt.Errorf("%w: %d castaways cannot last %d episodes", ErrInvalidConfig, c.Tribes*c.CastawaysPerTribe, c.Episodes)
	case c.Members < 1:
		return fmt.Errorf("%w: members must be positive", ErrInvalidConfig)
	case c.MergeEpisode < 0 || c.MergeEpisode > c.Episodes:
		return fmt.Errorf("%w: merge episode out of range", ErrInvalidConfig)
	case c.SwitchChance < 0 || c.SwitchChance > 1, c.BetChance < 0 || c.BetChance > 1:
		return fmt.Errorf("%w: chances must be in [0,1]", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) mergeEpisode() int {
	if c.MergeEpisode > 0 {
		return c.MergeEpisode
	}
	return c.Episodes/2 + 1
}
