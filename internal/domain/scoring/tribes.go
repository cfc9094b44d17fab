package scoring

import (
	"sort"

	"github.com/okian/tribescore/internal/domain/model"
)

// ResolveTribeCastaways returns the castaways on tribe as of episode.
//
// Membership starts from the episode 1 roster. Each later episode first
// drops castaways eliminated in the episode before it, then applies that
// episode's tribe update if one was recorded: castaways listed under tribe
// join it, castaways listed under any other tribe leave it.
func ResolveTribeCastaways(timeline model.TribeTimeline, elims model.Eliminations, tribe string, episode int) map[string]struct{} {
	members := make(map[string]struct{})
	if episode < 1 {
		return members
	}
	for _, c := range timeline[1][tribe].Castaways {
		members[c] = struct{}{}
	}
	for ep := 2; ep <= episode; ep++ {
		for _, c := range elims.At(ep - 1) {
			delete(members, c)
		}
		update, ok := timeline[ep]
		if !ok {
			continue
		}
		// removals before additions so a malformed update stays deterministic
		for name, roster := range update {
			if name == tribe {
				continue
			}
			for _, c := range roster.Castaways {
				delete(members, c)
			}
		}
		for _, c := range update[tribe].Castaways {
			members[c] = struct{}{}
		}
	}
	return members
}

// sortedNames flattens a name set in lexical order.
func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// expandCastaways merges the rosters of tribes at episode into listed.
// Listed castaways keep their position; roster additions follow in
// lexical order.
func expandCastaways(listed, tribes []string, timeline model.TribeTimeline, elims model.Eliminations, episode int) []string {
	seen := make(map[string]struct{}, len(listed))
	out := make([]string, 0, len(listed))
	for _, c := range listed {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	extra := make(map[string]struct{})
	for _, tribe := range tribes {
		for c := range ResolveTribeCastaways(timeline, elims, tribe, episode) {
			if _, ok := seen[c]; !ok {
				extra[c] = struct{}{}
			}
		}
	}
	return append(out, sortedNames(extra)...)
}
