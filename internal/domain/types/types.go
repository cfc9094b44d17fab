// Package types contains common types used across the application
package types

// Entry represents a league standings row.
type Entry struct {
	Rank   int    `json:"rank"`
	Member string `json:"member"`
	Score  int    `json:"score"`
	Streak int    `json:"streak"`
}

// Standing is a league's full standings as of its last compiled episode.
type Standing struct {
	LeagueID string  `json:"league_id"`
	Episode  int     `json:"episode"`
	Entries  []Entry `json:"entries"`
}
