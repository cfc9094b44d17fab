package scoring

import (
	"fmt"

	"github.com/okian/tribescore/internal/domain/model"
)

func checkEpisode(ep int) error {
	if ep < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeEpisode, ep)
	}
	return nil
}

func checkBaseEvent(ev *model.BaseEvent) error {
	if err := checkEpisode(ev.Episode); err != nil {
		return err
	}
	if !ev.Name.Known() {
		return fmt.Errorf("episode %d: %w: %q", ev.Episode, ErrUnknownEvent, ev.Name)
	}
	if !ev.ReferenceType.Valid() {
		return fmt.Errorf("episode %d %s: %w: %q", ev.Episode, ev.Name, ErrUnknownReference, ev.ReferenceType)
	}
	return nil
}

// ExpandTribeEvents returns a copy of events where every tribe-referenced
// event also lists the castaways on its tribes at that episode. Scoring
// and non-scoring events are expanded alike.
func ExpandTribeEvents(events []model.BaseEvent, timeline model.TribeTimeline, elims model.Eliminations) ([]model.BaseEvent, error) {
	out := make([]model.BaseEvent, len(events))
	for i := range events {
		ev := events[i]
		if err := checkBaseEvent(&ev); err != nil {
			return nil, err
		}
		if ev.ReferenceType == model.RefTribe {
			ev.Castaways = expandCastaways(ev.Castaways, ev.Tribes, timeline, elims, ev.Episode)
		} else {
			ev.Castaways = append([]string(nil), ev.Castaways...)
		}
		out[i] = ev
	}
	return out, nil
}

// scoreBaseEvents applies the base rule table. Points go to every listed
// tribe and castaway, and from each castaway to its owner at the event's
// episode.
func (c *Compiler) scoreBaseEvents(b *tableBuilder, in *model.Input) error {
	for i := range in.Events {
		ev := in.Events[i]
		if err := checkBaseEvent(&ev); err != nil {
			return err
		}
		targets := ev.Castaways
		if ev.ReferenceType == model.RefTribe && c.tribePointsToCastaways {
			targets = expandCastaways(ev.Castaways, ev.Tribes, in.Tribes, in.Eliminations, ev.Episode)
		}
		if !ev.Name.Scoring() {
			continue
		}
		points, ok := in.BaseRules[ev.Name]
		if !ok {
			return fmt.Errorf("episode %d: %w %q", ev.Episode, ErrMissingRule, ev.Name)
		}
		for _, tribe := range ev.Tribes {
			b.add(model.BucketTribe, tribe, ev.Episode, points)
		}
		for _, castaway := range dedupeNames(targets) {
			b.add(model.BucketCastaway, castaway, ev.Episode, points)
			if owner, ok := OwnerAt(in.Selections.CastawayMembers, castaway, ev.Episode); ok {
				b.add(model.BucketMember, owner, ev.Episode, points)
			}
		}
	}
	return nil
}

// scoreLeagueEvents applies league direct rules. Owners are resolved as of
// the previous episode.
func (c *Compiler) scoreLeagueEvents(b *tableBuilder, in *model.Input) error {
	for _, ev := range in.LeagueEvents {
		if err := checkEpisode(ev.Episode); err != nil {
			return err
		}
		rule, ok := in.LeagueRules[ev.RuleID]
		if !ok {
			return fmt.Errorf("episode %d: %w %q", ev.Episode, ErrMissingRule, ev.RuleID)
		}
		if rule.Kind != model.KindDirect {
			return fmt.Errorf("episode %d rule %q: %w: want %s, got %s", ev.Episode, ev.RuleID, ErrRuleKind, model.KindDirect, rule.Kind)
		}
		ref := ev.ReferenceType
		if ref == "" {
			ref = rule.ReferenceType
		}
		var targets []string
		switch ref {
		case model.RefTribe:
			for _, tribe := range ev.References {
				b.add(model.BucketTribe, tribe, ev.Episode, rule.Points)
			}
			if c.tribePointsToCastaways {
				targets = expandCastaways(nil, ev.References, in.Tribes, in.Eliminations, ev.Episode)
			}
		case model.RefCastaway:
			targets = ev.References
		default:
			return fmt.Errorf("episode %d rule %q: %w: %q", ev.Episode, ev.RuleID, ErrUnknownReference, ref)
		}
		for _, castaway := range dedupeNames(targets) {
			b.add(model.BucketCastaway, castaway, ev.Episode, rule.Points)
			if owner, ok := OwnerBefore(in.Selections.CastawayMembers, castaway, ev.Episode); ok {
				b.add(model.BucketMember, owner, ev.Episode, rule.Points)
			}
		}
	}
	return nil
}

// dedupeNames drops repeated names, keeping first occurrences.
func dedupeNames(names []string) []string {
	if len(names) < 2 {
		return names
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
