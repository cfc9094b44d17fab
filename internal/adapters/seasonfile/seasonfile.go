// Package seasonfile reads a season and one league's rules, picks and
// predictions from YAML into compile input.
package seasonfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/okian/tribescore/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a season file.
type File struct {
	LeagueID     string           `yaml:"league_id"`
	Season       string           `yaml:"season"`
	Episodes     int              `yaml:"episodes"`
	Rules        Rules            `yaml:"rules"`
	Tribes       []TribeUpdate    `yaml:"tribes"`
	Eliminations map[int][]string `yaml:"eliminations"`
	Events       []Event          `yaml:"events"`
	LeagueEvents []LeagueEvent    `yaml:"league_events"`
	Selections   Selections       `yaml:"selections"`
	Predictions  []Prediction     `yaml:"predictions"`
}

// Rules holds base, prediction and league rule tables.
type Rules struct {
	Base        map[string]int            `yaml:"base"`
	Predictions map[string]PredictionRule `yaml:"predictions"`
	League      []LeagueRule              `yaml:"league"`
}

// PredictionRule configures predictions on one base event.
type PredictionRule struct {
	Enabled bool     `yaml:"enabled"`
	Points  int      `yaml:"points"`
	Timing  []string `yaml:"timing"`
}

// LeagueRule is a league-defined event.
type LeagueRule struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Points        int      `yaml:"points"`
	ReferenceType string   `yaml:"reference_type"`
	Kind          string   `yaml:"kind"`
	Timing        []string `yaml:"timing"`
}

// TribeUpdate lists the rosters recorded at one episode.
type TribeUpdate struct {
	Episode int               `yaml:"episode"`
	Rosters map[string]Roster `yaml:"rosters"`
}

// Roster is one tribe's membership.
type Roster struct {
	Color     string   `yaml:"color"`
	Castaways []string `yaml:"castaways"`
}

// Event is a base event.
type Event struct {
	Episode       int      `yaml:"episode"`
	Name          string   `yaml:"name"`
	ReferenceType string   `yaml:"reference_type"`
	Castaways     []string `yaml:"castaways"`
	Tribes        []string `yaml:"tribes"`
	Notes         []string `yaml:"notes"`
}

// LeagueEvent is a league-defined direct event.
type LeagueEvent struct {
	Episode       int      `yaml:"episode"`
	RuleID        string   `yaml:"rule_id"`
	ReferenceType string   `yaml:"reference_type"`
	References    []string `yaml:"references"`
	Notes         []string `yaml:"notes"`
}

// Selections holds both pick indexes. When Members is omitted it is
// derived from Castaways.
type Selections struct {
	Castaways map[string][]string `yaml:"castaways"`
	Members   map[string][]string `yaml:"members"`
}

// Prediction targets a base event (Event) or a league rule (RuleID).
type Prediction struct {
	Episode       int    `yaml:"episode"`
	Event         string `yaml:"event"`
	RuleID        string `yaml:"rule_id"`
	ReferenceType string `yaml:"reference_type"`
	Reference     string `yaml:"reference"`
	Maker         string `yaml:"maker"`
	Hit           *bool  `yaml:"hit"`
	Bet           *int   `yaml:"bet"`
}

// Load reads and converts the season file at path.
func Load(path string) (model.Input, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return model.Input{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode reads a season file from r. Unknown keys are rejected.
func Decode(r io.Reader) (model.Input, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return model.Input{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return file.Input()
}

// Encode writes in as a season file.
func Encode(w io.Writer, in model.Input) error { //nolint:gocritic // hugeParam: input is read once
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromInput(in)); err != nil {
		return fmt.Errorf("encode season file: %w", err)
	}
	return enc.Close()
}

// Input converts the file into compile input, validating every enum.
func (f *File) Input() (model.Input, error) {
	in := model.Input{
		LeagueID:        f.LeagueID,
		Season:          f.Season,
		Tribes:          make(model.TribeTimeline, len(f.Tribes)),
		BaseRules:       make(model.BaseEventRules, len(f.Rules.Base)),
		PredictionRules: make(model.BasePredictionRules, len(f.Rules.Predictions)),
		LeagueRules:     make(model.LeagueRules, len(f.Rules.League)),
	}

	for name, pts := range f.Rules.Base {
		ev, err := model.ParseEventName(name)
		if err != nil {
			return model.Input{}, invalid("rules.base", err)
		}
		in.BaseRules[ev] = pts
	}
	for name, r := range f.Rules.Predictions {
		ev, err := model.ParseEventName(name)
		if err != nil {
			return model.Input{}, invalid("rules.predictions", err)
		}
		timing, err := parseTimings(r.Timing)
		if err != nil {
			return model.Input{}, invalid("rules.predictions."+name, err)
		}
		in.PredictionRules[ev] = model.PredictionRule{Enabled: r.Enabled, Points: r.Points, Timing: timing}
	}
	for _, r := range f.Rules.League {
		rule, err := r.rule()
		if err != nil {
			return model.Input{}, invalid("rules.league."+r.ID, err)
		}
		if _, dup := in.LeagueRules[r.ID]; dup {
			return model.Input{}, fmt.Errorf("%w: duplicate league rule %q", ErrInvalid, r.ID)
		}
		in.LeagueRules[r.ID] = rule
	}

	for _, u := range f.Tribes {
		if in.Tribes[u.Episode] == nil {
			in.Tribes[u.Episode] = make(map[string]model.TribeRoster, len(u.Rosters))
		}
		for name, r := range u.Rosters {
			in.Tribes[u.Episode][name] = model.TribeRoster{Color: r.Color, Castaways: r.Castaways}
		}
	}

	elims, err := eliminations(f.Eliminations, f.Episodes)
	if err != nil {
		return model.Input{}, err
	}
	in.Eliminations = elims

	for i, e := range f.Events {
		ev, err := e.event()
		if err != nil {
			return model.Input{}, invalid(fmt.Sprintf("events[%d]", i), err)
		}
		in.Events = append(in.Events, ev)
	}
	for i, e := range f.LeagueEvents {
		ref, err := model.ParseReferenceType(e.ReferenceType)
		if err != nil {
			return model.Input{}, invalid(fmt.Sprintf("league_events[%d]", i), err)
		}
		in.LeagueEvents = append(in.LeagueEvents, model.LeagueEvent{
			Episode: e.Episode, RuleID: e.RuleID, ReferenceType: ref,
			References: e.References, Notes: e.Notes,
		})
	}

	in.Selections = model.SelectionTimeline{
		CastawayMembers: f.Selections.Castaways,
		MemberCastaways: f.Selections.Members,
	}
	if len(in.Selections.MemberCastaways) == 0 {
		in.Selections.MemberCastaways = Invert(f.Selections.Castaways)
	}

	for i, p := range f.Predictions {
		pred, err := p.prediction()
		if err != nil {
			return model.Input{}, invalid(fmt.Sprintf("predictions[%d]", i), err)
		}
		if pred.RuleID != "" {
			in.LeaguePredictions = append(in.LeaguePredictions, pred)
		} else {
			in.BasePredictions = append(in.BasePredictions, pred)
		}
	}
	return in, nil
}

func (r LeagueRule) rule() (model.LeagueEventRule, error) { //nolint:gocritic // hugeParam: decoded once
	if r.ID == "" {
		return model.LeagueEventRule{}, fmt.Errorf("%w: league rule without id", ErrInvalid)
	}
	ref, err := model.ParseReferenceType(r.ReferenceType)
	if err != nil {
		return model.LeagueEventRule{}, err
	}
	kind, err := model.ParseRuleKind(r.Kind)
	if err != nil {
		return model.LeagueEventRule{}, err
	}
	timing, err := parseTimings(r.Timing)
	if err != nil {
		return model.LeagueEventRule{}, err
	}
	return model.LeagueEventRule{
		ID: r.ID, Name: r.Name, Description: r.Description, Points: r.Points,
		ReferenceType: ref, Kind: kind, Timing: timing,
	}, nil
}

func (e Event) event() (model.BaseEvent, error) { //nolint:gocritic // hugeParam: decoded once
	name, err := model.ParseEventName(e.Name)
	if err != nil {
		return model.BaseEvent{}, err
	}
	ref, err := model.ParseReferenceType(e.ReferenceType)
	if err != nil {
		return model.BaseEvent{}, err
	}
	return model.BaseEvent{
		Episode: e.Episode, Name: name, ReferenceType: ref,
		Castaways: e.Castaways, Tribes: e.Tribes, Notes: e.Notes,
	}, nil
}

func (p Prediction) prediction() (model.Prediction, error) { //nolint:gocritic // hugeParam: decoded once
	if (p.Event == "") == (p.RuleID == "") {
		return model.Prediction{}, fmt.Errorf("%w: exactly one of event or rule_id is required", ErrInvalid)
	}
	ref, err := model.ParseReferenceType(p.ReferenceType)
	if err != nil {
		return model.Prediction{}, err
	}
	out := model.Prediction{
		Episode: p.Episode, RuleID: p.RuleID, ReferenceType: ref,
		Reference: p.Reference, Maker: p.Maker, Hit: p.Hit, Bet: p.Bet,
	}
	if p.Event != "" {
		if out.EventName, err = model.ParseEventName(p.Event); err != nil {
			return model.Prediction{}, err
		}
	}
	return out, nil
}

func parseTimings(in []string) ([]model.PredictionTiming, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]model.PredictionTiming, 0, len(in))
	for _, s := range in {
		t, err := model.ParsePredictionTiming(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// eliminations lays the per-episode map out as a slice indexed by episode,
// long enough to cover both the last elimination and episodes.
func eliminations(byEpisode map[int][]string, episodes int) (model.Eliminations, error) {
	last := episodes
	for ep := range byEpisode {
		if ep < 1 {
			return nil, fmt.Errorf("%w: elimination episode %d", ErrInvalid, ep)
		}
		last = max(last, ep)
	}
	if last < 1 {
		return nil, nil
	}
	out := make(model.Eliminations, last+1)
	for ep, names := range byEpisode {
		out[ep] = names
	}
	return out, nil
}

// Invert derives the member→castaway index from the castaway→member one.
// When two castaways name the same member for one episode, the later name
// in sort order wins.
func Invert(castawayMembers map[string][]string) map[string][]string {
	width := 0
	names := make([]string, 0, len(castawayMembers))
	for c, row := range castawayMembers {
		names = append(names, c)
		width = max(width, len(row))
	}
	sort.Strings(names)

	out := make(map[string][]string)
	for ep := 0; ep < width; ep++ {
		for _, c := range names {
			row := castawayMembers[c]
			if len(row) == 0 {
				continue
			}
			m := row[min(ep, len(row)-1)]
			if m == "" {
				continue
			}
			if out[m] == nil {
				out[m] = make([]string, width)
			}
			out[m][ep] = c
		}
	}
	return out
}

// FromInput converts compile input back into the file layout.
func FromInput(in model.Input) *File { //nolint:gocritic // hugeParam: input is read once
	f := &File{
		LeagueID: in.LeagueID,
		Season:   in.Season,
		Episodes: in.Eliminations.LastEpisode(),
		Rules: Rules{
			Base:        make(map[string]int, len(in.BaseRules)),
			Predictions: make(map[string]PredictionRule, len(in.PredictionRules)),
		},
		Eliminations: make(map[int][]string),
		Selections:   Selections{Castaways: in.Selections.CastawayMembers, Members: in.Selections.MemberCastaways},
	}
	for ev, pts := range in.BaseRules {
		f.Rules.Base[string(ev)] = pts
	}
	for ev, r := range in.PredictionRules {
		f.Rules.Predictions[string(ev)] = PredictionRule{Enabled: r.Enabled, Points: r.Points, Timing: timingStrings(r.Timing)}
	}

	ids := make([]string, 0, len(in.LeagueRules))
	for id := range in.LeagueRules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := in.LeagueRules[id]
		f.Rules.League = append(f.Rules.League, LeagueRule{
			ID: r.ID, Name: r.Name, Description: r.Description, Points: r.Points,
			ReferenceType: string(r.ReferenceType), Kind: string(r.Kind), Timing: timingStrings(r.Timing),
		})
	}

	eps := make([]int, 0, len(in.Tribes))
	for ep := range in.Tribes {
		eps = append(eps, ep)
	}
	sort.Ints(eps)
	for _, ep := range eps {
		u := TribeUpdate{Episode: ep, Rosters: make(map[string]Roster, len(in.Tribes[ep]))}
		for name, r := range in.Tribes[ep] {
			u.Rosters[name] = Roster{Color: r.Color, Castaways: r.Castaways}
		}
		f.Tribes = append(f.Tribes, u)
	}

	for ep := 1; ep < len(in.Eliminations); ep++ {
		if len(in.Eliminations[ep]) > 0 {
			f.Eliminations[ep] = in.Eliminations[ep]
		}
	}
	for _, e := range in.Events {
		f.Events = append(f.Events, Event{
			Episode: e.Episode, Name: string(e.Name), ReferenceType: string(e.ReferenceType),
			Castaways: e.Castaways, Tribes: e.Tribes, Notes: e.Notes,
		})
	}
	for _, e := range in.LeagueEvents {
		f.LeagueEvents = append(f.LeagueEvents, LeagueEvent{
			Episode: e.Episode, RuleID: e.RuleID, ReferenceType: string(e.ReferenceType),
			References: e.References, Notes: e.Notes,
		})
	}
	for _, p := range append(append([]model.Prediction{}, in.BasePredictions...), in.LeaguePredictions...) {
		f.Predictions = append(f.Predictions, Prediction{
			Episode: p.Episode, Event: string(p.EventName), RuleID: p.RuleID,
			ReferenceType: string(p.ReferenceType), Reference: p.Reference,
			Maker: p.Maker, Hit: p.Hit, Bet: p.Bet,
		})
	}
	return f
}

func timingStrings(in []model.PredictionTiming) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, t := range in {
		out[i] = string(t)
	}
	return out
}

func invalid(where string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalid, where, err)
}
