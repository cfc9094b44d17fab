package model

// TribeRoster is the recorded membership of one tribe at one episode.
type TribeRoster struct {
	Color     string
	Castaways []string
}

// TribeTimeline maps episode -> tribe name -> roster. Only episodes with a
// roster change are present.
type TribeTimeline map[int]map[string]TribeRoster

// Eliminations lists castaways eliminated per episode. The slice is indexed
// by episode number directly; index 0 is reserved and never read.
type Eliminations [][]string

// LastEpisode is the highest episode with elimination tracking, or 0.
func (e Eliminations) LastEpisode() int {
	if len(e) == 0 {
		return 0
	}
	return len(e) - 1
}

// At returns the castaways eliminated during episode ep.
func (e Eliminations) At(ep int) []string {
	if ep < 1 || ep >= len(e) {
		return nil
	}
	return e[ep]
}

// EliminatedEpisode reports the episode in which castaway was eliminated.
func (e Eliminations) EliminatedEpisode(castaway string) (int, bool) {
	for ep := 1; ep < len(e); ep++ {
		for _, name := range e[ep] {
			if name == castaway {
				return ep, true
			}
		}
	}
	return 0, false
}

// SelectionTimeline records which member has which castaway selected at
// each episode. Both maps are indexed by episode; index 0 is the initial
// draft. Arrays may be shorter than the season: the last entry stays
// current. An empty string means no selection at that index.
type SelectionTimeline struct {
	CastawayMembers map[string][]string
	MemberCastaways map[string][]string
}
