package scoring

import (
	"errors"

	"github.com/okian/tribescore/internal/domain/model"
)

// Sentinel kinds for compilation errors. All of them describe input the
// caller must fix; recompiling the same input fails the same way.
var (
	ErrNegativeEpisode     = errors.New("negative episode")
	ErrUnknownEvent        = model.ErrUnknownEvent
	ErrUnknownReference    = model.ErrUnknownReference
	ErrMissingRule         = errors.New("no rule for event")
	ErrRuleKind            = errors.New("league rule kind mismatch")
	ErrNegativeBet         = errors.New("negative bet")
	ErrMissingMaker        = errors.New("prediction without maker")
	ErrInsufficientBalance = errors.New("wager exceeds balance")
)
