// Package repository keeps the latest compiled result of each league and
// serves standings from it.
package repository

import (
	"context"

	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/internal/domain/types"
)

// LatestEpisode asks for standings as of the last compiled episode.
const LatestEpisode = -1

// Store provides read/write access to compiled league results.
type Store interface {
	// Put replaces the stored result of a league.
	Put(ctx context.Context, leagueID string, res model.Result) error

	// Standings returns up to limit entries ranked by score as of episode.
	// LatestEpisode ranks by final totals. Returns ErrNotFound for unknown
	// leagues.
	Standings(ctx context.Context, leagueID string, episode, limit int) (types.Standing, error)

	// Rank returns a member's final standing. Returns ErrNotFound if the
	// league or member is unknown.
	Rank(ctx context.Context, leagueID, member string) (types.Entry, error)

	// Result returns the stored result. Callers must not modify it.
	Result(ctx context.Context, leagueID string) (model.Result, error)

	// Leagues lists stored league ids, sorted.
	Leagues(ctx context.Context) []string
}
