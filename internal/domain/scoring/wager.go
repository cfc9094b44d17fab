package scoring

import (
	"fmt"

	"github.com/okian/tribescore/internal/domain/model"
)

// CheckWager is the admission check run before a new bet is recorded. A
// member may not have more staked on an unresolved episode than their
// running total as of the episode before it.
func CheckWager(table model.ScoreTable, member string, episode, outstanding, bet int) error {
	if err := checkEpisode(episode); err != nil {
		return err
	}
	if bet < 0 || outstanding < 0 {
		return fmt.Errorf("%w: bet %d, outstanding %d", ErrNegativeBet, bet, outstanding)
	}
	balance := table.At(model.BucketMember, member, episode-1)
	if outstanding+bet > balance {
		return fmt.Errorf("%w: member %q has %d, staking %d", ErrInsufficientBalance, member, balance, outstanding+bet)
	}
	return nil
}

// OutstandingWagers sums member's bets on unresolved predictions for episode.
func OutstandingWagers(predictions []model.Prediction, member string, episode int) int {
	total := 0
	for _, p := range predictions {
		if p.Maker == member && p.Episode == episode && p.Hit == nil {
			total += p.Wager()
		}
	}
	return total
}
