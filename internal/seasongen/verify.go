package seasongen

import (
	"errors"
	"fmt"

	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/internal/domain/types"
)

// ErrVerification is returned when compiled output breaks a table or
// standings invariant.
var ErrVerification = errors.New("verification failed")

// VerifyResult checks that every row of the table covers the same episodes
// and that streaks are never negative.
func VerifyResult(res model.Result) error {
	want := res.Scores.MaxEpisode() + 1
	for _, b := range model.Buckets() {
		for name, row := range res.Scores[b] {
			if len(row) != want {
				return fmt.Errorf("%w: %s %q has %d episodes, want %d", ErrVerification, b, name, len(row), want)
			}
		}
	}
	for member, n := range res.Streaks {
		if n < 0 {
			return fmt.Errorf("%w: member %q has streak %d", ErrVerification, member, n)
		}
	}
	return nil
}

// VerifyStanding checks that entries are ordered by score then name and
// carry dense ranks.
func VerifyStanding(s types.Standing) error {
	for i := 1; i < len(s.Entries); i++ {
		prev, cur := s.Entries[i-1], s.Entries[i]
		switch {
		case cur.Score > prev.Score:
			return fmt.Errorf("%w: %s: entry %d outscores entry %d", ErrVerification, s.LeagueID, i, i-1)
		case cur.Score == prev.Score && cur.Member < prev.Member:
			return fmt.Errorf("%w: %s: tie at %d not ordered by name", ErrVerification, s.LeagueID, i)
		case cur.Score == prev.Score && cur.Rank != prev.Rank:
			return fmt.Errorf("%w: %s: tie at %d has ranks %d and %d", ErrVerification, s.LeagueID, i, prev.Rank, cur.Rank)
		case cur.Score < prev.Score && cur.Rank != prev.Rank+1:
			return fmt.Errorf("%w: %s: rank gap at %d", ErrVerification, s.LeagueID, i)
		}
	}
	if len(s.Entries) > 0 && s.Entries[0].Rank != 1 {
		return fmt.Errorf("%w: %s: leader has rank %d", ErrVerification, s.LeagueID, s.Entries[0].Rank)
	}
	return nil
}
