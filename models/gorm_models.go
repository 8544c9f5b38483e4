// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormFight is the fights table.
type GormFight struct {
	gorm.Model
	FightID              string    `gorm:"uniqueIndex;not null"`
	PlayerName           string    `gorm:"index;not null"`
	OpponentName         string    `gorm:"index;not null"`
	PlayerAttackCount    int       `gorm:"default:0"`
	PlayerSuccessCount   int       `gorm:"default:0"`
	PlayerSuccessRate    float64   `gorm:"default:0"`
	PlayerDied           bool      `gorm:"default:false"`
	OpponentAttackCount  int       `gorm:"default:0"`
	OpponentSuccessCount int       `gorm:"default:0"`
	OpponentSuccessRate  float64   `gorm:"default:0"`
	OpponentDied         bool      `gorm:"default:false"`
	Outcome              string    `gorm:"not null"`
	EndedAt              time.Time `gorm:"index;not null"`
}

func (GormFight) TableName() string {
	return "fights"
}

func NewGormFight(r FightResult) GormFight {
	return GormFight{
		FightID:              r.FightID,
		PlayerName:           r.PlayerName,
		OpponentName:         r.OpponentName,
		PlayerAttackCount:    r.PlayerAttackCount,
		PlayerSuccessCount:   r.PlayerSuccessCount,
		PlayerSuccessRate:    r.PlayerSuccessRate,
		PlayerDied:           r.PlayerDied,
		OpponentAttackCount:  r.OpponentAttackCount,
		OpponentSuccessCount: r.OpponentSuccessCount,
		OpponentSuccessRate:  r.OpponentSuccessRate,
		OpponentDied:         r.OpponentDied,
		Outcome:              r.Outcome,
		EndedAt:              r.EndedAt,
	}
}

func (g GormFight) Result() FightResult {
	return FightResult{
		FightID:              g.FightID,
		PlayerName:           g.PlayerName,
		OpponentName:         g.OpponentName,
		PlayerAttackCount:    g.PlayerAttackCount,
		PlayerSuccessCount:   g.PlayerSuccessCount,
		PlayerSuccessRate:    g.PlayerSuccessRate,
		PlayerDied:           g.PlayerDied,
		OpponentAttackCount:  g.OpponentAttackCount,
		OpponentSuccessCount: g.OpponentSuccessCount,
		OpponentSuccessRate:  g.OpponentSuccessRate,
		OpponentDied:         g.OpponentDied,
		Outcome:              g.Outcome,
		EndedAt:              g.EndedAt,
	}
}
