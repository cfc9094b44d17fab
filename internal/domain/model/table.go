package model

import "sort"

// Bucket groups score rows by entity kind.
type Bucket string

// Score buckets.
const (
	BucketCastaway Bucket = "Castaway"
	BucketTribe    Bucket = "Tribe"
	BucketMember   Bucket = "Member"
)

// Buckets lists every bucket in a stable order.
func Buckets() []Bucket {
	return []Bucket{BucketCastaway, BucketTribe, BucketMember}
}

// ScoreTable holds one episode-indexed running total per entity.
type ScoreTable map[Bucket]map[string][]int

// NewScoreTable returns a table with all buckets present and empty.
func NewScoreTable() ScoreTable {
	t := make(ScoreTable, len(Buckets()))
	for _, b := range Buckets() {
		t[b] = make(map[string][]int)
	}
	return t
}

// At returns the running total of name through episode ep. Episodes past
// the end report the final total; unknown names report 0.
func (t ScoreTable) At(b Bucket, name string, ep int) int {
	row := t[b][name]
	if len(row) == 0 || ep < 0 {
		return 0
	}
	if ep >= len(row) {
		ep = len(row) - 1
	}
	return row[ep]
}

// Total returns the final running total of name.
func (t ScoreTable) Total(b Bucket, name string) int {
	row := t[b][name]
	if len(row) == 0 {
		return 0
	}
	return row[len(row)-1]
}

// MaxEpisode is the last episode covered by the table, -1 when empty.
func (t ScoreTable) MaxEpisode() int {
	maxEp := -1
	for _, rows := range t {
		for _, row := range rows {
			if len(row)-1 > maxEp {
				maxEp = len(row) - 1
			}
		}
	}
	return maxEp
}

// Names returns the entity names of a bucket, sorted.
func (t ScoreTable) Names(b Bucket) []string {
	names := make([]string, 0, len(t[b]))
	for name := range t[b] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result is the output of one compilation.
type Result struct {
	Scores  ScoreTable
	Streaks map[string]int
}
