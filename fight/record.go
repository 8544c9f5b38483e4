// fight/record.go
package fight

import (
	"fmt"
	"math"
	"time"
)

// Clock returns the current time. Records use it to stamp the end of a fight.
type Clock func() time.Time

// side holds the running tally for one combatant.
type side struct {
	name         string
	attackCount  int
	successCount int
	successRate  float64 // percentage, 0..100
	died         bool
}

func (s *side) addAttack(success bool) {
	s.attackCount++
	if success {
		s.successCount++
	}
	s.updateRate()
}

func (s *side) updateRate() {
	if s.attackCount == 0 {
		s.successRate = 0
		return
	}
	s.successRate = float64(s.successCount) / float64(s.attackCount) * 100.0
}

// statsText renders "success/attacks (rate%)", e.g. "42/59 (71%)".
func (s *side) statsText() string {
	return fmt.Sprintf("%d/%d (%d%%)", s.successCount, s.attackCount, int64(math.Round(s.successRate)))
}

// Record is the live tally of a one-on-one fight.
//
// A successful attack is one made with a style the opponent's defence does not
// counter. Record is not safe for concurrent use; the owner serializes access.
type Record struct {
	player   side
	opponent side
	endedAt  time.Time
	ended    bool
	clock    Clock
}

// NewRecord creates a zeroed record for the two combatants. A nil clock uses time.Now.
func NewRecord(playerName, opponentName string, clock Clock) *Record {
	if clock == nil {
		clock = time.Now
	}
	return &Record{
		player:   side{name: playerName},
		opponent: side{name: opponentName},
		clock:    clock,
	}
}

// RecordAttack counts an attack by actorName. The player name is matched first.
// It reports false and leaves the record untouched when actorName is neither combatant.
func (r *Record) RecordAttack(actorName string, success bool) bool {
	switch actorName {
	case r.player.name:
		r.player.addAttack(success)
	case r.opponent.name:
		r.opponent.addAttack(success)
	default:
		return false
	}
	return true
}

// RecordAttacks adds bulk counts to the player side only. Callers keep
// totalCount >= successCount; if the player still has no attacks the rate stays 0.
func (r *Record) RecordAttacks(successCount, totalCount int) {
	r.player.successCount += successCount
	r.player.attackCount += totalCount
	r.player.updateRate()
}

// IsActor reports whether name is one of the two combatants.
func (r *Record) IsActor(name string) bool {
	return name == r.player.name || name == r.opponent.name
}

func (r *Record) MarkPlayerDied() {
	r.player.died = true
}

func (r *Record) MarkOpponentDied() {
	r.opponent.died = true
}

// EndFight stamps the fight end with the current time. Later calls overwrite it.
func (r *Record) EndFight() {
	r.endedAt = r.clock()
	r.ended = true
}

func (r *Record) PlayerName() string         { return r.player.name }
func (r *Record) PlayerAttackCount() int     { return r.player.attackCount }
func (r *Record) PlayerSuccessCount() int    { return r.player.successCount }
func (r *Record) PlayerSuccessRate() float64 { return r.player.successRate }
func (r *Record) PlayerDied() bool           { return r.player.died }

func (r *Record) OpponentName() string         { return r.opponent.name }
func (r *Record) OpponentAttackCount() int     { return r.opponent.attackCount }
func (r *Record) OpponentSuccessCount() int    { return r.opponent.successCount }
func (r *Record) OpponentSuccessRate() float64 { return r.opponent.successRate }
func (r *Record) OpponentDied() bool           { return r.opponent.died }

// FightEndedAt returns the time of the latest EndFight call, and false if it was never called.
func (r *Record) FightEndedAt() (time.Time, bool) {
	return r.endedAt, r.ended
}

// PlayerStatsText returns the player's tally for display, without the name.
func (r *Record) PlayerStatsText() string {
	return r.player.statsText()
}

// OpponentStatsText returns the opponent's tally for display, without the name.
func (r *Record) OpponentStatsText() string {
	return r.opponent.statsText()
}

// IsPlayerLeading reports whether the player's success rate is strictly higher.
// Someone who eats a lot and rarely attacks can lead while clearly losing.
func (r *Record) IsPlayerLeading() bool {
	return r.player.successRate > r.opponent.successRate
}

// IsOpponentLeading reports whether the opponent's success rate is strictly higher.
func (r *Record) IsOpponentLeading() bool {
	return r.opponent.successRate > r.player.successRate
}

// HasStarted reports whether the player has attacked at least once.
func (r *Record) HasStarted() bool {
	return r.player.attackCount > 0
}
