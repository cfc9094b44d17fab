// Package scoring compiles a season's event timeline, a league's rules and
// its pick history into per-episode running totals for castaways, tribes
// and league members.
//
// Compilation is a pure function of its input: it performs no I/O, keeps
// no state between calls and may run concurrently for different leagues.
package scoring

import (
	"fmt"

	"github.com/okian/tribescore/internal/domain/model"
)

// Default compilation settings.
const (
	defaultSurvivalCap = 5
)

// Option applies a configuration option to the Compiler.
type Option func(*Compiler)

// WithSurvivalCap caps the per-episode survival bonus. 0 disables it.
func WithSurvivalCap(limit int) Option {
	return func(c *Compiler) {
		if limit >= 0 {
			c.survivalCap = limit
		}
	}
}

// WithPreserveStreak keeps survival streaks alive across voluntary pick
// changes.
func WithPreserveStreak(preserve bool) Option {
	return func(c *Compiler) {
		c.preserveStreak = preserve
	}
}

// WithTribePointsToCastaways controls whether tribe-referenced points are
// also credited to every castaway on the tribe and to their owners.
func WithTribePointsToCastaways(flow bool) Option {
	return func(c *Compiler) {
		c.tribePointsToCastaways = flow
	}
}

// Compiler turns an Input into a finalized score table.
type Compiler struct {
	survivalCap            int
	preserveStreak         bool
	tribePointsToCastaways bool
}

// NewCompiler creates a compiler with configuration options.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		survivalCap:            defaultSurvivalCap,
		preserveStreak:         true,
		tribePointsToCastaways: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SurvivalCap returns the configured survival bonus cap.
func (c *Compiler) SurvivalCap() int { return c.survivalCap }

// Compile scores base events, league events, predictions and survival
// streaks, then finalizes the deltas into running totals.
func (c *Compiler) Compile(in model.Input) (model.Result, error) {
	if err := checkTimelines(&in); err != nil {
		return model.Result{}, err
	}

	b := newTableBuilder()
	if err := c.scoreBaseEvents(b, &in); err != nil {
		return model.Result{}, fmt.Errorf("base events: %w", err)
	}
	if err := c.scoreLeagueEvents(b, &in); err != nil {
		return model.Result{}, fmt.Errorf("league events: %w", err)
	}
	if err := scoreBasePredictions(b, &in); err != nil {
		return model.Result{}, fmt.Errorf("base predictions: %w", err)
	}
	if err := scoreLeaguePredictions(b, &in); err != nil {
		return model.Result{}, fmt.Errorf("league predictions: %w", err)
	}

	streaks := AccumulateStreaks(in.Selections.MemberCastaways, in.Eliminations, c.survivalCap, c.preserveStreak)
	for member, bonuses := range streaks.Bonuses {
		for ep, bonus := range bonuses {
			b.add(model.BucketMember, member, ep, bonus)
		}
	}

	return model.Result{
		Scores:  Finalize(b.deltas),
		Streaks: streaks.Final,
	}, nil
}

// checkTimelines rejects negative episode keys in the tribe timeline.
func checkTimelines(in *model.Input) error {
	for ep := range in.Tribes {
		if err := checkEpisode(ep); err != nil {
			return fmt.Errorf("tribe timeline: %w", err)
		}
	}
	return nil
}
