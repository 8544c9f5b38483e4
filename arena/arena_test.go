package arena

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/duelstats/fight"
	"github.com/wfunc/duelstats/monitor"
	"github.com/wfunc/duelstats/network"
	"github.com/wfunc/duelstats/state"
	"github.com/wfunc/duelstats/timer"
)

type sentMessage struct {
	fightID string
	msgID   uint16
	stats   fight.Stats
}

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct {
	mutex sync.Mutex
	sent  []sentMessage
}

func (m *MockBroadcaster) BroadcastToFight(fightID string, msgID uint16, data []byte) error {
	var stats fight.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sent = append(m.sent, sentMessage{fightID, msgID, stats})
	return nil
}

func (m *MockBroadcaster) messages() []sentMessage {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// MockRecorder is a test double for the Recorder interface.
type MockRecorder struct {
	mutex     sync.Mutex
	attacks   map[string]int
	unmatched map[string]int
	outcomes  []string
	latencies int
}

func newMockRecorder() *MockRecorder {
	return &MockRecorder{attacks: make(map[string]int), unmatched: make(map[string]int)}
}

func (m *MockRecorder) AttackRecorded(role string, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.attacks[role]++
}

func (m *MockRecorder) EventUnmatched(kind string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.unmatched[kind]++
}

func (m *MockRecorder) FightEnded(outcome string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *MockRecorder) ObserveEventLatency(time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.latencies++
}

func TestArena_StatsAfterEachSide(t *testing.T) {
	b := &MockBroadcaster{}
	rec := newMockRecorder()
	a := NewArena("fight-1", "A", "B", Options{Broadcaster: b, Recorder: rec})

	for i := 0; i < 3; i++ {
		a.Attack("A", true)
	}
	for i := 0; i < 2; i++ {
		a.Attack("A", false)
	}
	for i := 0; i < 4; i++ {
		a.Attack("B", true)
	}
	for i := 0; i < 6; i++ {
		a.Attack("B", false)
	}
	a.Close()

	stats := a.Stats()
	if stats.Player.StatsText != "3/5 (60%)" {
		t.Errorf("Expected 3/5 (60%%), got %s", stats.Player.StatsText)
	}
	if stats.Opponent.StatsText != "4/10 (40%)" {
		t.Errorf("Expected 4/10 (40%%), got %s", stats.Opponent.StatsText)
	}
	if !stats.Player.Leading || stats.Opponent.Leading {
		t.Error("Expected the player to lead")
	}
	if a.StateID() != state.IDFighting {
		t.Errorf("Expected fighting, got %s", a.StateID())
	}

	msgs := b.messages()
	if len(msgs) != 15 {
		t.Fatalf("Expected 15 stats updates, got %d", len(msgs))
	}
	if msgs[0].msgID != network.MsgTypeStatsUpdate || msgs[0].fightID != "fight-1" {
		t.Errorf("Unexpected first message: %+v", msgs[0])
	}
	if rec.attacks[monitor.RolePlayer] != 5 || rec.attacks[monitor.RoleOpponent] != 10 {
		t.Errorf("Unexpected attack metrics: %v", rec.attacks)
	}
	if rec.latencies != 15 {
		t.Errorf("Expected 15 latency observations, got %d", rec.latencies)
	}
}

func TestArena_UnmatchedAttackDropped(t *testing.T) {
	b := &MockBroadcaster{}
	rec := newMockRecorder()
	a := NewArena("fight-2", "A", "B", Options{Broadcaster: b, Recorder: rec})

	a.Attack("Nobody", true)
	a.Close()

	if len(b.messages()) != 0 {
		t.Error("Expected no broadcast for an unmatched attack")
	}
	if rec.unmatched["attack"] != 1 {
		t.Errorf("Expected 1 unmatched attack, got %v", rec.unmatched)
	}
	if a.Stats().Started {
		t.Error("Expected fight not started")
	}
}

func TestArena_UnmatchedDeathCountedByKind(t *testing.T) {
	b := &MockBroadcaster{}
	rec := newMockRecorder()
	a := NewArena("fight-2b", "A", "B", Options{Broadcaster: b, Recorder: rec})

	a.Death("Nobody")
	a.Close()

	if rec.unmatched["death"] != 1 || rec.unmatched["attack"] != 0 {
		t.Errorf("Expected the death counted under its own kind, got %v", rec.unmatched)
	}
	if a.StateID() == state.IDEnded {
		t.Error("Expected an unmatched death not to end the fight")
	}
	if len(b.messages()) != 0 {
		t.Error("Expected no broadcast for an unmatched death")
	}
}

func TestArena_DeathEndsAndNotifies(t *testing.T) {
	b := &MockBroadcaster{}
	rec := newMockRecorder()
	end := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	var ended []fight.Stats
	var endedID string
	a := NewArena("fight-3", "A", "B", Options{
		Broadcaster: b,
		Recorder:    rec,
		Clock:       func() time.Time { return end },
		OnEnded: func(id string, stats fight.Stats) {
			endedID = id
			ended = append(ended, stats)
		},
	})

	a.Attack("A", true)
	a.Death("B")
	a.Attack("A", true)
	a.Close()

	if len(ended) != 1 || endedID != "fight-3" {
		t.Fatalf("Expected one end callback for fight-3, got %d (%s)", len(ended), endedID)
	}
	final := ended[0]
	if !final.Opponent.Died || final.EndedAt == nil || !final.EndedAt.Equal(end) {
		t.Errorf("Unexpected final stats: %+v", final)
	}
	if final.Player.AttackCount != 1 {
		t.Errorf("Expected the attack after death to be rejected, got %d attacks", final.Player.AttackCount)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != fight.OutcomeWin {
		t.Errorf("Expected one win outcome, got %v", rec.outcomes)
	}

	msgs := b.messages()
	last := msgs[len(msgs)-1]
	if last.msgID != network.MsgTypeFightEnded {
		t.Errorf("Expected the last message to be fight ended, got %d", last.msgID)
	}
	if a.StateID() != state.IDEnded {
		t.Errorf("Expected ended, got %s", a.StateID())
	}
}

func TestArena_BulkCorrection(t *testing.T) {
	a := NewArena("fight-4", "A", "B", Options{})

	a.BulkCorrection(5, 10)
	a.BulkCorrection(2, 4)
	a.Close()

	stats := a.Stats()
	if stats.Player.SuccessCount != 7 || stats.Player.AttackCount != 14 {
		t.Errorf("Expected 7/14, got %d/%d", stats.Player.SuccessCount, stats.Player.AttackCount)
	}
	if stats.Opponent.AttackCount != 0 {
		t.Error("Expected the opponent untouched by bulk correction")
	}
}

func TestArena_SubmitAfterClose(t *testing.T) {
	a := NewArena("fight-5", "A", "B", Options{})
	a.Close()

	if err := a.Attack("A", true); err != ErrArenaClosed {
		t.Errorf("Expected ErrArenaClosed, got %v", err)
	}
}

func TestArena_IdleTimeoutEndsFight(t *testing.T) {
	timers := timer.NewManager(5 * time.Millisecond)
	defer timers.Stop()

	done := make(chan fight.Stats, 1)
	a := NewArena("fight-6", "A", "B", Options{
		Timers:      timers,
		IdleTimeout: 30 * time.Millisecond,
		OnEnded:     func(_ string, stats fight.Stats) { done <- stats },
	})
	defer a.Close()

	a.Attack("A", true)

	select {
	case stats := <-done:
		if stats.EndedAt == nil {
			t.Error("Expected the idle end to stamp an end time")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the idle timeout to end the fight")
	}
}

func TestManager_CreateGetRemove(t *testing.T) {
	m := NewManager()

	a := m.CreateArena("fight-7", "A", "B", Options{})
	if a == nil {
		t.Fatal("CreateArena should not return nil")
	}

	got, exists := m.GetArena("fight-7")
	if !exists || got != a {
		t.Fatal("GetArena should return the created arena")
	}

	m.CreateArena("fight-8", "C", "D", Options{})
	if m.Count() != 2 || len(m.List()) != 2 {
		t.Errorf("Expected 2 arenas, got %d", m.Count())
	}

	m.RemoveArena("fight-7")
	if _, exists := m.GetArena("fight-7"); exists {
		t.Error("Expected removed arena to be gone")
	}
	if err := a.Attack("A", true); err != ErrArenaClosed {
		t.Errorf("Expected removed arena to be closed, got %v", err)
	}

	m.CloseAll()
	if m.Count() != 0 {
		t.Errorf("Expected no arenas after CloseAll, got %d", m.Count())
	}
}
