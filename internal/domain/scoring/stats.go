package scoring

import (
	"github.com/okian/tribescore/internal/domain/model"
)

// Stats summarizes a season's timeline per castaway and tribe.
type Stats struct {
	CastawayEvents map[string]map[model.EventName]int
	TribeEvents    map[string]map[model.EventName]int
	// EliminationOrder lists castaways in the order they left the game.
	EliminationOrder []string
	// EliminatedIn maps castaway to the episode it was eliminated in.
	EliminatedIn map[string]int
}

// CompileStats counts events per castaway and tribe. Tribe-referenced
// events count for every castaway on the tribe, scoring or not.
func CompileStats(in model.Input) (Stats, error) {
	events, err := ExpandTribeEvents(in.Events, in.Tribes, in.Eliminations)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		CastawayEvents: make(map[string]map[model.EventName]int),
		TribeEvents:    make(map[string]map[model.EventName]int),
		EliminatedIn:   make(map[string]int),
	}
	for _, ev := range events {
		for _, c := range dedupeNames(ev.Castaways) {
			bump(st.CastawayEvents, c, ev.Name)
		}
		for _, t := range dedupeNames(ev.Tribes) {
			bump(st.TribeEvents, t, ev.Name)
		}
	}
	for ep := 1; ep < len(in.Eliminations); ep++ {
		for _, c := range in.Eliminations[ep] {
			if _, seen := st.EliminatedIn[c]; seen {
				continue
			}
			st.EliminatedIn[c] = ep
			st.EliminationOrder = append(st.EliminationOrder, c)
		}
	}
	return st, nil
}

func bump(counts map[string]map[model.EventName]int, name string, ev model.EventName) {
	if counts[name] == nil {
		counts[name] = make(map[model.EventName]int)
	}
	counts[name][ev]++
}
