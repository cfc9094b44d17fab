package scoring

import (
	"fmt"
	"strings"

	"github.com/okian/tribescore/internal/domain/model"
)

func checkPrediction(p *model.Prediction) error {
	if err := checkEpisode(p.Episode); err != nil {
		return err
	}
	if strings.TrimSpace(p.Maker) == "" {
		return fmt.Errorf("episode %d: %w", p.Episode, ErrMissingMaker)
	}
	if p.Wager() < 0 {
		return fmt.Errorf("episode %d member %q: %w: %d", p.Episode, p.Maker, ErrNegativeBet, p.Wager())
	}
	return nil
}

// settle credits a resolved prediction to its maker. A hit earns the rule's
// points plus the wager; a miss loses the wager.
func settle(b *tableBuilder, p *model.Prediction, points int) {
	if *p.Hit {
		b.add(model.BucketMember, p.Maker, p.Episode, points+p.Wager())
		return
	}
	b.add(model.BucketMember, p.Maker, p.Episode, -p.Wager())
}

// scoreBasePredictions settles predictions on base events. Unresolved
// predictions and predictions on disabled rules are skipped.
func scoreBasePredictions(b *tableBuilder, in *model.Input) error {
	for i := range in.BasePredictions {
		p := &in.BasePredictions[i]
		if err := checkPrediction(p); err != nil {
			return err
		}
		if !p.EventName.Known() {
			return fmt.Errorf("episode %d prediction: %w: %q", p.Episode, ErrUnknownEvent, p.EventName)
		}
		rule, ok := in.PredictionRules[p.EventName]
		if !ok {
			return fmt.Errorf("episode %d prediction: %w %q", p.Episode, ErrMissingRule, p.EventName)
		}
		if p.Hit == nil || !rule.Enabled {
			continue
		}
		settle(b, p, rule.Points)
	}
	return nil
}

// scoreLeaguePredictions settles predictions on league prediction rules.
func scoreLeaguePredictions(b *tableBuilder, in *model.Input) error {
	for i := range in.LeaguePredictions {
		p := &in.LeaguePredictions[i]
		if err := checkPrediction(p); err != nil {
			return err
		}
		rule, ok := in.LeagueRules[p.RuleID]
		if !ok {
			return fmt.Errorf("episode %d prediction: %w %q", p.Episode, ErrMissingRule, p.RuleID)
		}
		if rule.Kind != model.KindPrediction {
			return fmt.Errorf("episode %d prediction rule %q: %w: want %s, got %s", p.Episode, p.RuleID, ErrRuleKind, model.KindPrediction, rule.Kind)
		}
		if p.Hit == nil {
			continue
		}
		settle(b, p, rule.Points)
	}
	return nil
}
