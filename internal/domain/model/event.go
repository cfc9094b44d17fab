// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// ReferenceType names what an event or prediction points at.
type ReferenceType string

// Reference types.
const (
	RefCastaway ReferenceType = "Castaway"
	RefTribe    ReferenceType = "Tribe"
)

// ParseReferenceType validates a reference type. Matching is case-insensitive.
func ParseReferenceType(s string) (ReferenceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "castaway":
		return RefCastaway, nil
	case "tribe":
		return RefTribe, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReference, s)
}

// Valid reports whether r is one of the known reference types.
func (r ReferenceType) Valid() bool {
	return r == RefCastaway || r == RefTribe
}

// EventName identifies a base event. The set is closed; see ParseEventName.
type EventName string

// Base event names.
const (
	EventAdvFound     EventName = "advFound"
	EventAdvPlay      EventName = "advPlay"
	EventBadAdvPlay   EventName = "badAdvPlay"
	EventAdvElim      EventName = "advElim"
	EventSpokeEpTitle EventName = "spokeEpTitle"
	EventTribe1st     EventName = "tribe1st"
	EventTribe2nd     EventName = "tribe2nd"
	EventIndivWin     EventName = "indivWin"
	EventIndivReward  EventName = "indivReward"
	EventFinalists    EventName = "finalists"
	EventFireWin      EventName = "fireWin"
	EventSoleSurvivor EventName = "soleSurvivor"
	EventElim         EventName = "elim"
	EventNoVoteExit   EventName = "noVoteExit"

	// informational, never scored
	EventTribeUpdate EventName = "tribeUpdate"
	EventOtherNotes  EventName = "otherNotes"
)

var scoringEvents = map[EventName]bool{ //nolint:gochecknoglobals // closed event catalogue
	EventAdvFound:     true,
	EventAdvPlay:      true,
	EventBadAdvPlay:   true,
	EventAdvElim:      true,
	EventSpokeEpTitle: true,
	EventTribe1st:     true,
	EventTribe2nd:     true,
	EventIndivWin:     true,
	EventIndivReward:  true,
	EventFinalists:    true,
	EventFireWin:      true,
	EventSoleSurvivor: true,
	EventElim:         true,
	EventNoVoteExit:   true,
	EventTribeUpdate:  false,
	EventOtherNotes:   false,
}

// ParseEventName returns the event name for s or ErrUnknownEvent.
func ParseEventName(s string) (EventName, error) {
	n := EventName(strings.TrimSpace(s))
	if _, ok := scoringEvents[n]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
	}
	return n, nil
}

// Known reports whether n belongs to the event catalogue.
func (n EventName) Known() bool {
	_, ok := scoringEvents[n]
	return ok
}

// Scoring reports whether events of this name carry points.
func (n EventName) Scoring() bool {
	return scoringEvents[n]
}

// EventNames lists the catalogue in declaration order.
func EventNames() []EventName {
	return []EventName{
		EventAdvFound, EventAdvPlay, EventBadAdvPlay, EventAdvElim,
		EventSpokeEpTitle, EventTribe1st, EventTribe2nd, EventIndivWin,
		EventIndivReward, EventFinalists, EventFireWin, EventSoleSurvivor,
		EventElim, EventNoVoteExit, EventTribeUpdate, EventOtherNotes,
	}
}

// BaseEvent is a season-level occurrence recorded for one episode.
type BaseEvent struct {
	Episode       int
	Name          EventName
	ReferenceType ReferenceType
	Castaways     []string
	Tribes        []string
	Notes         []string
}

// LeagueEvent is a direct-scoring event defined by a league rule.
type LeagueEvent struct {
	Episode       int
	RuleID        string
	ReferenceType ReferenceType
	References    []string
	Notes         []string
}
