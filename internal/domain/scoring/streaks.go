package scoring

import "github.com/okian/tribescore/internal/domain/model"

// StreakResult holds survival bonuses per member and episode, and each
// member's streak after the last tracked episode.
type StreakResult struct {
	Bonuses map[string][]int
	Final   map[string]int
}

// AccumulateStreaks awards escalating bonuses while a member's current pick
// survives. Each tracked episode from the member's first pick on either
// extends the streak and pays min(streak, survivalCap), or resets it to 0
// without a bonus: a reset happens when the pick has been eliminated by that
// episode, or, unless preserveStreak is set, when the pick differs from the
// previous episode's. A cap of 0 disables bonuses but streaks still count.
func AccumulateStreaks(memberCastaways map[string][]string, elims model.Eliminations, survivalCap int, preserveStreak bool) StreakResult {
	res := StreakResult{
		Bonuses: make(map[string][]int),
		Final:   make(map[string]int),
	}
	if survivalCap < 0 {
		survivalCap = 0
	}
	lastEp := elims.LastEpisode()
	eliminatedAt := eliminationEpisodes(elims)

	for member, picks := range memberCastaways {
		first := firstPick(picks)
		if first < 0 {
			continue
		}
		start := max(first, 1)
		prev, _ := clampedAt(picks, start-1)
		streak := 0
		var bonuses []int
		for ep := start; ep <= lastEp; ep++ {
			if bonuses == nil {
				bonuses = make([]int, lastEp+1)
			}
			cur, held := clampedAt(picks, ep)
			out, gone := eliminatedAt[cur]
			switched := prev != "" && cur != prev
			prev = cur
			if !held || (gone && out <= ep) || (!preserveStreak && switched) {
				streak = 0
				continue
			}
			streak++
			bonuses[ep] = min(streak, survivalCap)
		}
		res.Final[member] = streak
		if bonuses != nil {
			res.Bonuses[member] = bonuses
		}
	}
	return res
}

// firstPick is the index of the first non-empty pick, or -1.
func firstPick(picks []string) int {
	for i, p := range picks {
		if p != "" {
			return i
		}
	}
	return -1
}

// eliminationEpisodes maps each castaway to the first episode it was
// eliminated in.
func eliminationEpisodes(elims model.Eliminations) map[string]int {
	out := make(map[string]int)
	for ep := 1; ep < len(elims); ep++ {
		for _, c := range elims[ep] {
			if _, ok := out[c]; !ok {
				out[c] = ep
			}
		}
	}
	return out
}
