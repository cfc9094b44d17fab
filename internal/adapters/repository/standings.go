package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/internal/domain/types"
	"github.com/okian/tribescore/pkg/metrics"
)

// Ordering: score DESC, then member name ASC. Equal scores share a rank
// and the next distinct score takes the following rank (1, 1, 2).

// snapshot is the immutable per-league state built on Put.
type snapshot struct {
	result  model.Result
	episode int
	final   []types.Entry  // ranked by final total
	byName  map[string]int // member -> index into final
}

// StandingsStore is an in-memory Store. Each Put swaps the league's
// snapshot; readers never see a half-built one.
type StandingsStore struct {
	mu       sync.RWMutex
	leagues  map[string]*snapshot
	maxLimit int
}

// NewStandingsStore constructs a store with configuration options.
func NewStandingsStore(opts ...Option) *StandingsStore {
	s := &StandingsStore{
		leagues:  make(map[string]*snapshot),
		maxLimit: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put implements Store.Put.
func (s *StandingsStore) Put(_ context.Context, leagueID string, res model.Result) error {
	if leagueID == "" {
		return fmt.Errorf("%w: empty league id", ErrInvalidInput)
	}
	snap := buildSnapshot(res)

	s.mu.Lock()
	s.leagues[leagueID] = snap
	n := len(s.leagues)
	s.mu.Unlock()

	metrics.RecordStandingsUpdate()
	metrics.UpdateLeaguesTracked(n)
	return nil
}

func buildSnapshot(res model.Result) *snapshot {
	snap := &snapshot{
		result:  res,
		episode: max(res.Scores.MaxEpisode(), 0),
		byName:  make(map[string]int),
	}
	snap.final = rankAt(res, LatestEpisode)
	for i, e := range snap.final {
		snap.byName[e.Member] = i
	}
	return snap
}

// rankAt ranks every member by their running total at episode. Streaks are
// only known for the final episode, so past standings carry none.
func rankAt(res model.Result, episode int) []types.Entry {
	members := res.Scores[model.BucketMember]
	out := make([]types.Entry, 0, len(members))
	for name := range members {
		e := types.Entry{Member: name, Score: res.Scores.Total(model.BucketMember, name), Streak: res.Streaks[name]}
		if episode != LatestEpisode {
			e.Score = res.Scores.At(model.BucketMember, name, episode)
			e.Streak = 0
		}
		out = append(out, e)
	}
	sortEntries(out)
	assignRanksWithTies(out)
	return out
}

// Standings implements Store.Standings.
func (s *StandingsStore) Standings(_ context.Context, leagueID string, episode, limit int) (types.Standing, error) {
	start := time.Now()
	defer func() { metrics.RecordStandingsQueryLatency(time.Since(start)) }()

	if limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return types.Standing{}, ErrInvalidLimit
	}
	limit = min(limit, s.maxLimit)

	snap, err := s.get(leagueID)
	if err != nil {
		return types.Standing{}, err
	}
	entries := snap.final
	at := snap.episode
	if episode != LatestEpisode && episode < snap.episode {
		if episode < 0 {
			return types.Standing{}, fmt.Errorf("%w: episode %d", ErrInvalidInput, episode)
		}
		entries = rankAt(snap.result, episode)
		at = episode
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return types.Standing{
		LeagueID: leagueID,
		Episode:  at,
		Entries:  append([]types.Entry(nil), entries...),
	}, nil
}

// Rank implements Store.Rank.
func (s *StandingsStore) Rank(_ context.Context, leagueID, member string) (types.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordStandingsQueryLatency(time.Since(start)) }()

	snap, err := s.get(leagueID)
	if err != nil {
		return types.Entry{}, err
	}
	i, ok := snap.byName[member]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("%w: member %q in league %q", ErrNotFound, member, leagueID)
	}
	return snap.final[i], nil
}

// Result implements Store.Result.
func (s *StandingsStore) Result(_ context.Context, leagueID string) (model.Result, error) {
	snap, err := s.get(leagueID)
	if err != nil {
		return model.Result{}, err
	}
	return snap.result, nil
}

// Leagues implements Store.Leagues.
func (s *StandingsStore) Leagues(_ context.Context) []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.leagues))
	for id := range s.leagues {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (s *StandingsStore) get(leagueID string) (*snapshot, error) {
	s.mu.RLock()
	snap, ok := s.leagues[leagueID]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%w: league %q", ErrNotFound, leagueID)
	}
	return snap, nil
}

func sortEntries(entries []types.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Member < entries[j].Member
	})
}

// assignRanksWithTies expects entries sorted by score DESC.
func assignRanksWithTies(entries []types.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}
