package state

import (
	"errors"
	"time"
)

type EventKind int

const (
	EventAttack EventKind = iota + 1
	EventDeath
	EventEndFight
	EventBulkCorrection
)

func (k EventKind) String() string {
	switch k {
	case EventAttack:
		return "attack"
	case EventDeath:
		return "death"
	case EventEndFight:
		return "end_fight"
	case EventBulkCorrection:
		return "bulk_correction"
	default:
		return "unknown"
	}
}

// Event is one classified fight input.
type Event struct {
	Kind         EventKind
	ActorName    string // attack and death
	Success      bool   // attack
	SuccessCount int    // bulk correction
	TotalCount   int    // bulk correction
	ReceivedAt   time.Time
}

var (
	// ErrUnmatchedActor reports an attack or death naming neither combatant. The record is unchanged.
	ErrUnmatchedActor = errors.New("actor is neither combatant")
	ErrFightEnded     = errors.New("fight has ended")
	ErrUnknownEvent   = errors.New("unknown event kind")
)
