package seasongen

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/pkg/logger"
)

var tribeNames = []string{"Luvu", "Yase", "Gata", "Lavo", "Tuku", "Civa"} //nolint:gochecknoglobals // fixed name pool

const (
	mergeTribe   = "Merge"
	confessional = "confessional"
	maxBet       = 3
)

// Rules used by every generated league.
func defaultRules() (model.BaseEventRules, model.BasePredictionRules, model.LeagueRules) {
	base := model.BaseEventRules{
		model.EventAdvFound:     2,
		model.EventTribe1st:     2,
		model.EventTribe2nd:     1,
		model.EventIndivWin:     4,
		model.EventIndivReward:  2,
		model.EventElim:         -2,
		model.EventFinalists:    3,
		model.EventSoleSurvivor: 10,
	}
	preds := model.BasePredictionRules{
		model.EventElim:         {Enabled: true, Points: 3, Timing: []model.PredictionTiming{model.TimingWeekly}},
		model.EventSoleSurvivor: {Enabled: true, Points: 15, Timing: []model.PredictionTiming{model.TimingDraft}},
	}
	league := model.LeagueRules{
		confessional: {
			ID: confessional, Name: "Confessional", Points: 1,
			ReferenceType: model.RefCastaway, Kind: model.KindDirect,
		},
	}
	return base, preds, league
}

// Generate builds one league's season from cfg.Seed.
func Generate(cfg Config) (model.Input, error) {
	if err := cfg.Validate(); err != nil {
		return model.Input{}, err
	}
	return newGen(cfg.Seed).season(&cfg)
}

// GenerateLeagues builds cfg.Leagues independent seasons concurrently.
// League i is identical to Generate with seed cfg.Seed+i.
func GenerateLeagues(ctx context.Context, cfg Config) ([]model.Input, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Get().Info(ctx, "generating leagues",
		logger.Int("leagues", cfg.Leagues),
		logger.Int("episodes", cfg.Episodes),
		logger.Int("members", cfg.Members),
	)

	type result struct {
		index int
		input model.Input
		err   error
	}
	out := make([]model.Input, cfg.Leagues)
	results := make(chan result, cfg.Leagues)
	workers := max(1, min(cfg.Workers, cfg.Leagues))
	per := cfg.Leagues / workers

	for w := 0; w < workers; w++ {
		start, end := w*per, (w+1)*per
		if w == workers-1 {
			end = cfg.Leagues
		}
		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					results <- result{index: i, err: ctx.Err()}
					return
				default:
				}
				in, err := newGen(cfg.Seed + uint64(i)).season(&cfg) //nolint:gosec // i is non-negative
				results <- result{index: i, input: in, err: err}
			}
		}(start, end)
	}

	for range cfg.Leagues {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("league generation cancelled: %w", ctx.Err())
		case r := <-results:
			if r.err != nil {
				return nil, fmt.Errorf("generate league %d: %w", r.index, r.err)
			}
			out[r.index] = r.input
		}
	}
	logger.Get().Info(ctx, "generated leagues", logger.Int("count", len(out)))
	return out, nil
}

type gen struct {
	faker *gofakeit.Faker
}

func newGen(seed uint64) *gen {
	return &gen{faker: gofakeit.New(seed)}
}

func (g *gen) pick(names []string) string { return g.faker.RandomString(names) }

func (g *gen) chance(p float64) bool { return g.faker.Float64Range(0, 1) < p }

// Read lets the faker feed uuid generation so league ids follow the seed.
func (g *gen) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = g.faker.Uint8()
	}
	return len(p), nil
}

// memberNames draws n distinct first names. Repeats get a numeric suffix.
func (g *gen) memberNames(n int) []string {
	seen := make(map[string]int, n)
	out := make([]string, n)
	for i := range out {
		name := g.faker.FirstName()
		seen[name]++
		if seen[name] > 1 {
			name = fmt.Sprintf("%s-%d", name, seen[name])
		}
		out[i] = name
	}
	return out
}

func (g *gen) season(cfg *Config) (model.Input, error) {
	leagueID, err := uuid.NewRandomFromReader(g)
	if err != nil {
		return model.Input{}, fmt.Errorf("league id: %w", err)
	}
	base, preds, league := defaultRules()
	in := model.Input{
		LeagueID:        leagueID.String(),
		Season:          fmt.Sprintf("Synthetic %d", cfg.Seed),
		Tribes:          model.TribeTimeline{1: {}},
		Eliminations:    make(model.Eliminations, cfg.Episodes+1),
		BaseRules:       base,
		PredictionRules: preds,
		LeagueRules:     league,
	}

	var alive []string
	for t := 0; t < cfg.Tribes; t++ {
		roster := make([]string, cfg.CastawaysPerTribe)
		for i := range roster {
			roster[i] = fmt.Sprintf("%s-%02d", tribeNames[t], i+1)
		}
		in.Tribes[1][tribeNames[t]] = model.TribeRoster{Castaways: roster}
		alive = append(alive, roster...)
	}
	castaways := slices.Sorted(slices.Values(alive))

	merge := cfg.mergeEpisode()
	for ep := 1; ep <= cfg.Episodes; ep++ {
		if ep == merge && cfg.Tribes > 1 {
			in.Tribes[ep] = map[string]model.TribeRoster{mergeTribe: {Castaways: slices.Clone(alive)}}
			in.Events = append(in.Events, model.BaseEvent{
				Episode: ep, Name: model.EventTribeUpdate, ReferenceType: model.RefTribe, Tribes: []string{mergeTribe},
			})
		}
		merged := ep >= merge || cfg.Tribes == 1

		if ep == cfg.Episodes {
			in.Events = append(in.Events,
				model.BaseEvent{Episode: ep, Name: model.EventFinalists, ReferenceType: model.RefCastaway, Castaways: slices.Clone(alive)},
				model.BaseEvent{Episode: ep, Name: model.EventSoleSurvivor, ReferenceType: model.RefCastaway, Castaways: []string{g.pick(alive)}},
			)
			break
		}

		if merged {
			in.Events = append(in.Events, model.BaseEvent{
				Episode: ep, Name: model.EventIndivWin, ReferenceType: model.RefCastaway, Castaways: []string{g.pick(alive)},
			})
		} else {
			order := slices.Clone(tribeNames[:cfg.Tribes])
			g.faker.ShuffleAnySlice(order)
			in.Events = append(in.Events, model.BaseEvent{
				Episode: ep, Name: model.EventTribe1st, ReferenceType: model.RefTribe, Tribes: []string{order[0]},
			})
			if cfg.Tribes > 2 {
				in.Events = append(in.Events, model.BaseEvent{
					Episode: ep, Name: model.EventTribe2nd, ReferenceType: model.RefTribe, Tribes: []string{order[1]},
				})
			}
		}
		if g.chance(0.3) {
			in.Events = append(in.Events, model.BaseEvent{
				Episode: ep, Name: model.EventAdvFound, ReferenceType: model.RefCastaway, Castaways: []string{g.pick(alive)},
			})
		}
		in.LeagueEvents = append(in.LeagueEvents, model.LeagueEvent{
			Episode: ep, RuleID: confessional, ReferenceType: model.RefCastaway, References: []string{g.pick(alive)},
		})

		out := g.pick(alive)
		alive = slices.DeleteFunc(alive, func(c string) bool { return c == out })
		in.Eliminations[ep] = []string{out}
		in.Events = append(in.Events, model.BaseEvent{
			Episode: ep, Name: model.EventElim, ReferenceType: model.RefCastaway, Castaways: []string{out},
		})
	}

	g.picks(cfg, &in, castaways)
	g.predictions(cfg, &in, castaways)
	return in, nil
}

// picks drafts one castaway per member at episode 0 and walks the season,
// switching on elimination or by chance. A castaway has at most one owner.
func (g *gen) picks(cfg *Config, in *model.Input, castaways []string) {
	width := cfg.Episodes + 1
	members := g.memberNames(cfg.Members)

	byMember := make(map[string][]string, len(members))
	byCastaway := make(map[string][]string, len(castaways))
	owner := make(map[string]string)
	out := make(map[string]bool)

	for ep := 0; ep < width; ep++ {
		for _, c := range in.Eliminations.At(ep - 1) {
			out[c] = true
		}
		for _, m := range members {
			row := byMember[m]
			cur := ""
			if len(row) > 0 {
				cur = row[len(row)-1]
			}
			if cur == "" || out[cur] || g.chance(cfg.SwitchChance) {
				if next := g.free(castaways, owner, out); next != "" {
					delete(owner, cur)
					owner[next] = m
					cur = next
				}
			}
			if out[cur] {
				delete(owner, cur)
				cur = ""
			}
			byMember[m] = append(row, cur)
		}
		for _, c := range castaways {
			byCastaway[c] = append(byCastaway[c], owner[c])
		}
	}
	in.Selections = model.SelectionTimeline{CastawayMembers: byCastaway, MemberCastaways: byMember}
}

func (g *gen) free(castaways []string, owner map[string]string, out map[string]bool) string {
	var open []string
	for _, c := range castaways {
		if owner[c] == "" && !out[c] {
			open = append(open, c)
		}
	}
	if len(open) == 0 {
		return ""
	}
	return g.pick(open)
}

// predictions adds a draft sole survivor call and weekly boot calls for
// every member. Weekly bets stay small so balances rarely go negative.
func (g *gen) predictions(cfg *Config, in *model.Input, all []string) {
	var winner string
	for _, ev := range in.Events {
		if ev.Name == model.EventSoleSurvivor {
			winner = ev.Castaways[0]
		}
	}

	members := slices.Sorted(maps.Keys(in.Selections.MemberCastaways))
	for _, m := range members {
		call := g.pick(all)
		hit := call == winner
		in.BasePredictions = append(in.BasePredictions, model.Prediction{
			Episode: 1, EventName: model.EventSoleSurvivor, ReferenceType: model.RefCastaway,
			Reference: call, Maker: m, Hit: &hit,
		})
		for ep := 1; ep < cfg.Episodes; ep++ {
			call := g.pick(all)
			hit := slices.Contains(in.Eliminations.At(ep), call)
			p := model.Prediction{
				Episode: ep, EventName: model.EventElim, ReferenceType: model.RefCastaway,
				Reference: call, Maker: m, Hit: &hit,
			}
			if g.chance(cfg.BetChance) {
				bet := g.faker.Number(1, maxBet)
				p.Bet = &bet
			}
			in.BasePredictions = append(in.BasePredictions, p)
		}
	}
	sort.SliceStable(in.BasePredictions, func(i, j int) bool {
		a, b := in.BasePredictions[i], in.BasePredictions[j]
		if a.Episode != b.Episode {
			return a.Episode < b.Episode
		}
		return a.Maker < b.Maker
	})
}
