// arena/arena.go
package arena

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/duelstats/fight"
	"github.com/wfunc/duelstats/logger"
	"github.com/wfunc/duelstats/monitor"
	"github.com/wfunc/duelstats/network"
	"github.com/wfunc/duelstats/state"
	"github.com/wfunc/duelstats/timer"
)

var (
	ErrArenaClosed = errors.New("arena closed")
)

const eventBuffer = 64

// Options carries an arena's collaborators. Zero values are safe.
type Options struct {
	Broadcaster Broadcaster
	Recorder    Recorder
	OnEnded     EndedFunc
	Clock       fight.Clock
	// Timers and IdleTimeout end the fight after a quiet period. Both must be set.
	Timers      *timer.Manager
	IdleTimeout time.Duration
}

// Arena owns one fight record and is its only writer: events are queued and
// applied one at a time by the arena goroutine.
type Arena struct {
	ID           string
	CreatedAt    time.Time
	StateMachine state.StateMachine

	record      *fight.Record
	broadcaster Broadcaster
	recorder    Recorder
	onEnded     EndedFunc
	timers      *timer.Manager
	idleTimeout time.Duration
	idleTimerID int64

	stats      fight.Stats
	statsMutex sync.RWMutex

	events    chan state.Event
	closeChan chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// NewArena starts tracking a fight between playerName and opponentName.
func NewArena(id, playerName, opponentName string, opts Options) *Arena {
	a := &Arena{
		ID:          id,
		CreatedAt:   time.Now(),
		record:      fight.NewRecord(playerName, opponentName, opts.Clock),
		broadcaster: opts.Broadcaster,
		recorder:    opts.Recorder,
		onEnded:     opts.OnEnded,
		timers:      opts.Timers,
		idleTimeout: opts.IdleTimeout,
		events:      make(chan state.Event, eventBuffer),
		closeChan:   make(chan struct{}),
		done:        make(chan struct{}),
	}
	if a.broadcaster == nil {
		a.broadcaster = nopBroadcaster{}
	}
	if a.recorder == nil {
		a.recorder = nopRecorder{}
	}
	a.stats = a.record.Snapshot()

	waiting := state.NewWaitingState(a)
	fighting := state.NewFightingState(a)
	ended := state.NewEndedState(a)
	sm := state.NewBaseStateMachine(waiting)
	sm.AddTransition(waiting, fighting, a.record.HasStarted)
	sm.AddTransition(ended, waiting, func() bool { return false })
	sm.AddTransition(ended, fighting, func() bool { return false })
	a.StateMachine = sm

	if a.timers != nil && a.idleTimeout > 0 {
		a.idleTimerID = a.timers.AddTimer(a.idleTimeout, 0, a.idleExpired)
	}

	go a.loop()
	return a
}

// --- state.FightContext ---

func (a *Arena) GetID() string {
	return a.ID
}

// Record is only for states running on the arena goroutine.
func (a *Arena) Record() *fight.Record {
	return a.record
}

func (a *Arena) ChangeState(newState state.State) error {
	return a.StateMachine.ChangeState(newState)
}

func (a *Arena) FightEnded(stats fight.Stats) {
	a.stopIdleTimer()
	a.setStats(stats)
	a.recorder.FightEnded(stats.Outcome())
	if a.onEnded != nil {
		a.onEnded(a.ID, stats)
	}
	a.broadcast(network.MsgTypeFightEnded, stats)
}

// --- event intake ---

// Submit queues an event. It blocks while the queue is full.
func (a *Arena) Submit(ev state.Event) error {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	select {
	case <-a.closeChan:
		return ErrArenaClosed
	default:
	}
	select {
	case a.events <- ev:
		return nil
	case <-a.closeChan:
		return ErrArenaClosed
	}
}

func (a *Arena) Attack(actorName string, success bool) error {
	return a.Submit(state.Event{Kind: state.EventAttack, ActorName: actorName, Success: success})
}

func (a *Arena) Death(actorName string) error {
	return a.Submit(state.Event{Kind: state.EventDeath, ActorName: actorName})
}

func (a *Arena) EndFight() error {
	return a.Submit(state.Event{Kind: state.EventEndFight})
}

func (a *Arena) BulkCorrection(successCount, totalCount int) error {
	return a.Submit(state.Event{Kind: state.EventBulkCorrection, SuccessCount: successCount, TotalCount: totalCount})
}

// Stats returns the snapshot taken after the last applied event.
func (a *Arena) Stats() fight.Stats {
	a.statsMutex.RLock()
	defer a.statsMutex.RUnlock()
	return a.stats
}

func (a *Arena) StateID() string {
	return a.StateMachine.GetCurrentState().GetID()
}

// Close stops the arena goroutine after the events already queued are applied.
// It must not be called from OnEnded, which runs on that goroutine.
func (a *Arena) Close() {
	a.closeOnce.Do(func() {
		a.stopIdleTimer()
		close(a.closeChan)
	})
	<-a.done
}

// loop is the only goroutine that touches the record.
func (a *Arena) loop() {
	defer close(a.done)
	for {
		select {
		case ev := <-a.events:
			a.handle(ev)
		case <-a.closeChan:
			for {
				select {
				case ev := <-a.events:
					a.handle(ev)
				default:
					return
				}
			}
		}
	}
}

func (a *Arena) handle(ev state.Event) {
	current := a.StateMachine.GetCurrentState()
	err := current.HandleEvent(ev)
	a.recorder.ObserveEventLatency(time.Since(ev.ReceivedAt))

	switch {
	case errors.Is(err, state.ErrUnmatchedActor):
		a.recorder.EventUnmatched(ev.Kind.String())
		logger.Log.Debugf("Fight %s dropped %s event: %v", a.ID, ev.Kind, err)
		return
	case errors.Is(err, state.ErrFightEnded):
		logger.Log.Debugf("Fight %s ignored %s event after the end", a.ID, ev.Kind)
		return
	case err != nil:
		logger.Log.Errorf("Fight %s failed to handle %s event: %v", a.ID, ev.Kind, err)
		return
	}

	if ev.Kind == state.EventAttack {
		role := monitor.RoleOpponent
		if ev.ActorName == a.record.PlayerName() {
			role = monitor.RolePlayer
		}
		a.recorder.AttackRecorded(role, ev.Success)
	}

	if a.StateMachine.GetCurrentState().GetID() == state.IDEnded {
		return
	}
	a.resetIdleTimer()
	stats := a.record.Snapshot()
	a.setStats(stats)
	a.broadcast(network.MsgTypeStatsUpdate, stats)
}

func (a *Arena) setStats(stats fight.Stats) {
	a.statsMutex.Lock()
	a.stats = stats
	a.statsMutex.Unlock()
}

func (a *Arena) broadcast(msgID uint16, stats fight.Stats) {
	data, err := json.Marshal(stats)
	if err != nil {
		logger.Log.Errorf("Error marshalling stats for fight %s: %v", a.ID, err)
		return
	}
	if err := a.broadcaster.BroadcastToFight(a.ID, msgID, data); err != nil {
		logger.Log.Warnf("Broadcast to fight %s failed: %v", a.ID, err)
	}
}

func (a *Arena) idleExpired() {
	logger.Log.Infof("Fight %s idle for %v, ending it", a.ID, a.idleTimeout)
	if err := a.EndFight(); err != nil && !errors.Is(err, ErrArenaClosed) {
		logger.Log.Warnf("Failed to end idle fight %s: %v", a.ID, err)
	}
}

func (a *Arena) resetIdleTimer() {
	if a.idleTimerID != 0 {
		a.timers.ResetTimer(a.idleTimerID, a.idleTimeout)
	}
}

func (a *Arena) stopIdleTimer() {
	if a.idleTimerID != 0 {
		a.timers.RemoveTimer(a.idleTimerID)
	}
}
