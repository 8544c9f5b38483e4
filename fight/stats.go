package fight

import "time"

// SideStats is a value copy of one combatant's tally.
type SideStats struct {
	Name         string  `json:"name"`
	AttackCount  int     `json:"attack_count"`
	SuccessCount int     `json:"success_count"`
	SuccessRate  float64 `json:"success_rate"`
	Died         bool    `json:"died"`
	StatsText    string  `json:"stats_text"`
	Leading      bool    `json:"leading"`
}

// Stats is an immutable snapshot of a Record, handed to display and storage.
type Stats struct {
	Player   SideStats  `json:"player"`
	Opponent SideStats  `json:"opponent"`
	Started  bool       `json:"started"`
	EndedAt  *time.Time `json:"ended_at,omitempty"`
}

func (s *side) stats(leading bool) SideStats {
	return SideStats{
		Name:         s.name,
		AttackCount:  s.attackCount,
		SuccessCount: s.successCount,
		SuccessRate:  s.successRate,
		Died:         s.died,
		StatsText:    s.statsText(),
		Leading:      leading,
	}
}

// Snapshot copies the current state of the record.
func (r *Record) Snapshot() Stats {
	st := Stats{
		Player:   r.player.stats(r.IsPlayerLeading()),
		Opponent: r.opponent.stats(r.IsOpponentLeading()),
		Started:  r.HasStarted(),
	}
	if endedAt, ok := r.FightEndedAt(); ok {
		st.EndedAt = &endedAt
	}
	return st
}

// Outcomes from the player's point of view.
const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
	OutcomeDraw = "draw"
)

// Outcome decides the fight for the player: a single death settles it,
// otherwise the leader by success rate wins.
func (s Stats) Outcome() string {
	switch {
	case s.Opponent.Died && !s.Player.Died:
		return OutcomeWin
	case s.Player.Died && !s.Opponent.Died:
		return OutcomeLose
	case s.Player.Leading:
		return OutcomeWin
	case s.Opponent.Leading:
		return OutcomeLose
	default:
		return OutcomeDraw
	}
}
