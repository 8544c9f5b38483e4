package arena

import (
	"time"

	"github.com/wfunc/duelstats/fight"
)

// Broadcaster delivers a message to every session watching a fight.
// This is defined here to break the import cycle between arena and broadcast.
type Broadcaster interface {
	BroadcastToFight(fightID string, msgID uint16, data []byte) error
}

// Recorder receives fight metrics. *monitor.Monitor implements it.
type Recorder interface {
	AttackRecorded(role string, success bool)
	EventUnmatched(kind string)
	FightEnded(outcome string)
	ObserveEventLatency(d time.Duration)
}

// EndedFunc is called with the final stats once a fight ends.
type EndedFunc func(fightID string, stats fight.Stats)

type nopRecorder struct{}

func (nopRecorder) AttackRecorded(string, bool)       {}
func (nopRecorder) EventUnmatched(string)             {}
func (nopRecorder) FightEnded(string)                 {}
func (nopRecorder) ObserveEventLatency(time.Duration) {}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToFight(string, uint16, []byte) error { return nil }
