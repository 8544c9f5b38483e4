package state

import (
	"errors"
	"testing"

	"github.com/wfunc/duelstats/fight"
)

// MockFight is a test double for FightContext backed by a real record.
type MockFight struct {
	record  *fight.Record
	machine *BaseStateMachine
	ended   []fight.Stats
}

func newMockFight() *MockFight {
	f := &MockFight{record: fight.NewRecord("A", "B", nil)}
	f.machine = NewBaseStateMachine(NewWaitingState(f))
	return f
}

func (f *MockFight) GetID() string                    { return "fight-1" }
func (f *MockFight) Record() *fight.Record            { return f.record }
func (f *MockFight) ChangeState(newState State) error { return f.machine.ChangeState(newState) }
func (f *MockFight) FightEnded(stats fight.Stats)     { f.ended = append(f.ended, stats) }

func (f *MockFight) handle(t *testing.T, ev Event) error {
	t.Helper()
	return f.machine.GetCurrentState().HandleEvent(ev)
}

func (f *MockFight) stateID() string {
	return f.machine.GetCurrentState().GetID()
}

func TestWaiting_OpponentAttackDoesNotStart(t *testing.T) {
	f := newMockFight()

	if err := f.handle(t, Event{Kind: EventAttack, ActorName: "B", Success: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.stateID() != IDWaiting {
		t.Errorf("Expected to stay waiting, got %s", f.stateID())
	}
	if f.record.OpponentAttackCount() != 1 {
		t.Errorf("Expected opponent attack recorded, got %d", f.record.OpponentAttackCount())
	}
}

func TestWaiting_PlayerAttackStarts(t *testing.T) {
	f := newMockFight()

	if err := f.handle(t, Event{Kind: EventAttack, ActorName: "A"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.stateID() != IDFighting {
		t.Errorf("Expected fighting, got %s", f.stateID())
	}
}

func TestWaiting_BulkCorrectionStarts(t *testing.T) {
	f := newMockFight()

	if err := f.handle(t, Event{Kind: EventBulkCorrection, SuccessCount: 5, TotalCount: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.stateID() != IDFighting {
		t.Errorf("Expected fighting, got %s", f.stateID())
	}
	if f.record.PlayerStatsText() != "5/10 (50%)" {
		t.Errorf("Expected 5/10 (50%%), got %s", f.record.PlayerStatsText())
	}
}

func TestUnmatchedActor(t *testing.T) {
	f := newMockFight()

	err := f.handle(t, Event{Kind: EventAttack, ActorName: "C", Success: true})
	if !errors.Is(err, ErrUnmatchedActor) {
		t.Fatalf("Expected ErrUnmatchedActor, got %v", err)
	}
	if f.record.HasStarted() || f.record.OpponentAttackCount() != 0 {
		t.Error("Expected record untouched")
	}

	err = f.handle(t, Event{Kind: EventDeath, ActorName: "C"})
	if !errors.Is(err, ErrUnmatchedActor) {
		t.Fatalf("Expected ErrUnmatchedActor for death, got %v", err)
	}
	if f.stateID() != IDWaiting {
		t.Errorf("Expected unmatched death not to end the fight, got %s", f.stateID())
	}
}

func TestDeathEndsFight(t *testing.T) {
	f := newMockFight()
	f.handle(t, Event{Kind: EventAttack, ActorName: "A", Success: true})

	if err := f.handle(t, Event{Kind: EventDeath, ActorName: "B"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.stateID() != IDEnded {
		t.Fatalf("Expected ended, got %s", f.stateID())
	}
	if !f.record.OpponentDied() || f.record.PlayerDied() {
		t.Error("Expected only the opponent to be dead")
	}
	if _, ok := f.record.FightEndedAt(); !ok {
		t.Error("Expected end time to be stamped")
	}
	if len(f.ended) != 1 || f.ended[0].Outcome() != fight.OutcomeWin {
		t.Errorf("Expected one win notification, got %+v", f.ended)
	}
}

func TestEndFightBeforeAnyAttack(t *testing.T) {
	f := newMockFight()

	if err := f.handle(t, Event{Kind: EventEndFight}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.stateID() != IDEnded {
		t.Fatalf("Expected ended, got %s", f.stateID())
	}
	if len(f.ended) != 1 || f.ended[0].Outcome() != fight.OutcomeDraw {
		t.Errorf("Expected one draw notification, got %+v", f.ended)
	}
}

func TestEndedRejectsEvents(t *testing.T) {
	f := newMockFight()
	f.handle(t, Event{Kind: EventEndFight})

	if err := f.handle(t, Event{Kind: EventAttack, ActorName: "A"}); err != ErrFightEnded {
		t.Errorf("Expected ErrFightEnded, got %v", err)
	}
	if f.record.HasStarted() {
		t.Error("Expected attack after the end not to be recorded")
	}
	if len(f.ended) != 1 {
		t.Errorf("Expected a single end notification, got %d", len(f.ended))
	}
}

func TestUnknownEvent(t *testing.T) {
	f := newMockFight()
	if err := f.handle(t, Event{Kind: EventKind(99)}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Expected ErrUnknownEvent, got %v", err)
	}
}
