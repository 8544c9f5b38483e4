package state

import (
	"fmt"

	"github.com/wfunc/duelstats/logger"
)

const (
	IDWaiting  = "waiting"
	IDFighting = "fighting"
	IDEnded    = "ended"
)

// FightStateBase applies events to the record. Concrete states decide what
// happens next.
type FightStateBase struct {
	ID    string
	Fight FightContext
}

func (s *FightStateBase) GetID() string {
	return s.ID
}

func (s *FightStateBase) OnEnter() {}

func (s *FightStateBase) OnExit() {}

// apply mutates the record and reports whether the event should end the fight.
func (s *FightStateBase) apply(ev Event) (ended bool, err error) {
	r := s.Fight.Record()

	switch ev.Kind {
	case EventAttack:
		if !r.RecordAttack(ev.ActorName, ev.Success) {
			return false, fmt.Errorf("attack by %q: %w", ev.ActorName, ErrUnmatchedActor)
		}
	case EventBulkCorrection:
		r.RecordAttacks(ev.SuccessCount, ev.TotalCount)
	case EventDeath:
		switch ev.ActorName {
		case r.PlayerName():
			r.MarkPlayerDied()
		case r.OpponentName():
			r.MarkOpponentDied()
		default:
			return false, fmt.Errorf("death of %q: %w", ev.ActorName, ErrUnmatchedActor)
		}
		return true, nil
	case EventEndFight:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownEvent, ev.Kind)
	}
	return false, nil
}

func (s *FightStateBase) end() error {
	return s.Fight.ChangeState(NewEndedState(s.Fight))
}

// WaitingState holds a fight whose player has not attacked yet.
type WaitingState struct {
	FightStateBase
}

func NewWaitingState(f FightContext) *WaitingState {
	return &WaitingState{FightStateBase{ID: IDWaiting, Fight: f}}
}

func (s *WaitingState) HandleEvent(ev Event) error {
	ended, err := s.apply(ev)
	if err != nil {
		return err
	}
	if ended {
		return s.end()
	}
	if s.Fight.Record().HasStarted() {
		return s.Fight.ChangeState(NewFightingState(s.Fight))
	}
	return nil
}

// FightingState holds a started fight until a death or end signal.
type FightingState struct {
	FightStateBase
}

func NewFightingState(f FightContext) *FightingState {
	return &FightingState{FightStateBase{ID: IDFighting, Fight: f}}
}

func (s *FightingState) OnEnter() {
	r := s.Fight.Record()
	logger.Log.Infof("Fight %s started: %s vs %s", s.Fight.GetID(), r.PlayerName(), r.OpponentName())
}

func (s *FightingState) HandleEvent(ev Event) error {
	ended, err := s.apply(ev)
	if err != nil {
		return err
	}
	if ended {
		return s.end()
	}
	return nil
}

// EndedState stamps the end time and hands the final stats to the arena.
// Events after the end are rejected.
type EndedState struct {
	FightStateBase
}

func NewEndedState(f FightContext) *EndedState {
	return &EndedState{FightStateBase{ID: IDEnded, Fight: f}}
}

func (s *EndedState) OnEnter() {
	r := s.Fight.Record()
	r.EndFight()
	stats := r.Snapshot()
	logger.Log.Infof("Fight %s ended: %s %s, %s %s",
		s.Fight.GetID(), r.PlayerName(), r.PlayerStatsText(), r.OpponentName(), r.OpponentStatsText())
	s.Fight.FightEnded(stats)
}

func (s *EndedState) HandleEvent(ev Event) error {
	return ErrFightEnded
}
