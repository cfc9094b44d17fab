package model

import "time"

// Input is everything a compilation needs, fully materialized.
type Input struct {
	LeagueID string
	Season   string

	Events       []BaseEvent
	LeagueEvents []LeagueEvent
	Tribes       TribeTimeline
	Eliminations Eliminations
	Selections   SelectionTimeline

	BaseRules       BaseEventRules
	PredictionRules BasePredictionRules
	LeagueRules     LeagueRules

	BasePredictions   []Prediction
	LeaguePredictions []Prediction
}

// CompileJob is a queued compilation request.
type CompileJob struct {
	ID          string    // unique id for idempotency
	Input       Input     // league/season data to compile
	SubmittedAt time.Time // enqueue time, used for latency metrics
}
