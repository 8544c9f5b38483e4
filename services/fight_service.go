// services/fight_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wfunc/duelstats/fight"
	"github.com/wfunc/duelstats/logger"
	"github.com/wfunc/duelstats/models"
	"github.com/wfunc/duelstats/persistence"
)

const saveTimeout = 5 * time.Second

var ErrEmptyPlayerName = errors.New("player name is required")

// FightService records finished fights and answers history queries.
type FightService struct {
	db           persistence.Database
	historyLimit int
}

func NewFightService(db persistence.Database, historyLimit int) *FightService {
	return &FightService{db: db, historyLimit: historyLimit}
}

// RecordFight stores a finished fight.
func (s *FightService) RecordFight(ctx context.Context, fightID string, stats fight.Stats) error {
	result := models.NewFightResult(fightID, stats)
	if err := s.db.SaveFight(ctx, result); err != nil {
		return fmt.Errorf("save fight %s: %w", fightID, err)
	}
	logger.Log.Infof("Saved fight %s: %s %s vs %s", fightID, result.PlayerName, result.Outcome, result.OpponentName)
	return nil
}

// OnFightEnded matches arena.EndedFunc. Failures are logged; the fight is already over.
func (s *FightService) OnFightEnded(fightID string, stats fight.Stats) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := s.RecordFight(ctx, fightID, stats); err != nil {
		logger.Log.Errorf("Failed to record fight: %v", err)
	}
}

func (s *FightService) GetFight(ctx context.Context, fightID string) (models.FightResult, error) {
	return s.db.GetFight(ctx, fightID)
}

// ListFights returns up to limit fights for the player, capped by the configured history limit.
func (s *FightService) ListFights(ctx context.Context, playerName string, limit int) ([]models.FightResult, error) {
	if playerName == "" {
		return nil, ErrEmptyPlayerName
	}
	if limit <= 0 || (s.historyLimit > 0 && limit > s.historyLimit) {
		limit = s.historyLimit
	}
	return s.db.ListFights(ctx, playerName, limit)
}

func (s *FightService) GetPlayerSummary(ctx context.Context, playerName string) (models.PlayerSummary, error) {
	if playerName == "" {
		return models.PlayerSummary{}, ErrEmptyPlayerName
	}
	return s.db.GetPlayerSummary(ctx, playerName)
}
