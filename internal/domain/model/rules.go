package model

import (
	"fmt"
	"strings"
)

// PredictionTiming is a window in which a prediction may be made.
type PredictionTiming string

// Prediction timings.
const (
	TimingDraft           PredictionTiming = "Draft"
	TimingWeekly          PredictionTiming = "Weekly"
	TimingAfterMerge      PredictionTiming = "After Merge"
	TimingBeforeMerge     PredictionTiming = "Before Merge"
	TimingWeeklyPremerge  PredictionTiming = "Weekly (Premerge only)"
	TimingWeeklyPostmerge PredictionTiming = "Weekly (Postmerge only)"
)

// ParsePredictionTiming validates a timing label.
func ParsePredictionTiming(s string) (PredictionTiming, error) {
	t := PredictionTiming(strings.TrimSpace(s))
	switch t {
	case TimingDraft, TimingWeekly, TimingAfterMerge, TimingBeforeMerge,
		TimingWeeklyPremerge, TimingWeeklyPostmerge:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTiming, s)
}

// BaseEventRules assigns points to each scoring base event.
type BaseEventRules map[EventName]int

// PredictionRule configures predictions on one event.
type PredictionRule struct {
	Enabled bool
	Points  int
	Timing  []PredictionTiming
}

// BasePredictionRules configures predictions on base events.
type BasePredictionRules map[EventName]PredictionRule

// RuleKind tells whether a league rule is scored directly or predicted.
type RuleKind string

// League rule kinds.
const (
	KindDirect     RuleKind = "Direct"
	KindPrediction RuleKind = "Prediction"
)

// ParseRuleKind validates a rule kind. Matching is case-insensitive.
func ParseRuleKind(s string) (RuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct":
		return KindDirect, nil
	case "prediction":
		return KindPrediction, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRuleKind, s)
}

// LeagueEventRule is a custom event defined by a league commissioner.
type LeagueEventRule struct {
	ID            string
	Name          string
	Description   string
	Points        int
	ReferenceType ReferenceType
	Kind          RuleKind
	Timing        []PredictionTiming
}

// LeagueRules maps rule id to rule.
type LeagueRules map[string]LeagueEventRule

// Prediction is a member's call on an event. Base predictions set
// EventName; league predictions set RuleID. A nil Hit means the event has
// not resolved yet.
type Prediction struct {
	Episode       int
	EventName     EventName
	RuleID        string
	ReferenceType ReferenceType
	Reference     string
	Maker         string
	Hit           *bool
	Bet           *int
}

// Wager returns the staked amount, 0 when no bet was placed.
func (p Prediction) Wager() int {
	if p.Bet == nil {
		return 0
	}
	return *p.Bet
}
