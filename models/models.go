// models/models.go
package models

import (
	"time"

	"github.com/wfunc/duelstats/fight"
)

// FightResult is the stored outcome of one finished fight.
type FightResult struct {
	FightID              string    `json:"fight_id"`
	PlayerName           string    `json:"player_name"`
	OpponentName         string    `json:"opponent_name"`
	PlayerAttackCount    int       `json:"player_attack_count"`
	PlayerSuccessCount   int       `json:"player_success_count"`
	PlayerSuccessRate    float64   `json:"player_success_rate"`
	PlayerDied           bool      `json:"player_died"`
	OpponentAttackCount  int       `json:"opponent_attack_count"`
	OpponentSuccessCount int       `json:"opponent_success_count"`
	OpponentSuccessRate  float64   `json:"opponent_success_rate"`
	OpponentDied         bool      `json:"opponent_died"`
	Outcome              string    `json:"outcome"` // win/lose/draw for the player
	EndedAt              time.Time `json:"ended_at"`
}

// NewFightResult flattens a final snapshot. A snapshot without an end time uses now.
func NewFightResult(fightID string, stats fight.Stats) FightResult {
	endedAt := time.Now()
	if stats.EndedAt != nil {
		endedAt = *stats.EndedAt
	}
	return FightResult{
		FightID:              fightID,
		PlayerName:           stats.Player.Name,
		OpponentName:         stats.Opponent.Name,
		PlayerAttackCount:    stats.Player.AttackCount,
		PlayerSuccessCount:   stats.Player.SuccessCount,
		PlayerSuccessRate:    stats.Player.SuccessRate,
		PlayerDied:           stats.Player.Died,
		OpponentAttackCount:  stats.Opponent.AttackCount,
		OpponentSuccessCount: stats.Opponent.SuccessCount,
		OpponentSuccessRate:  stats.Opponent.SuccessRate,
		OpponentDied:         stats.Opponent.Died,
		Outcome:              stats.Outcome(),
		EndedAt:              endedAt,
	}
}

// PlayerSummary aggregates every stored fight a player took part in, on either side.
type PlayerSummary struct {
	PlayerName         string  `json:"player_name"`
	Fights             int     `json:"fights"`
	Wins               int     `json:"wins"`
	Losses             int     `json:"losses"`
	Draws              int     `json:"draws"`
	AverageSuccessRate float64 `json:"average_success_rate"`
}

// Summarize builds name's summary from results. Outcomes are flipped for
// fights where name was the opponent.
func Summarize(name string, results []FightResult) PlayerSummary {
	summary := PlayerSummary{PlayerName: name}
	var rateSum float64

	for _, r := range results {
		var outcome string
		var rate float64
		switch name {
		case r.PlayerName:
			outcome, rate = r.Outcome, r.PlayerSuccessRate
		case r.OpponentName:
			outcome, rate = flip(r.Outcome), r.OpponentSuccessRate
		default:
			continue
		}

		summary.Fights++
		rateSum += rate
		switch outcome {
		case fight.OutcomeWin:
			summary.Wins++
		case fight.OutcomeLose:
			summary.Losses++
		default:
			summary.Draws++
		}
	}

	if summary.Fights > 0 {
		summary.AverageSuccessRate = rateSum / float64(summary.Fights)
	}
	return summary
}

func flip(outcome string) string {
	switch outcome {
	case fight.OutcomeWin:
		return fight.OutcomeLose
	case fight.OutcomeLose:
		return fight.OutcomeWin
	default:
		return outcome
	}
}
