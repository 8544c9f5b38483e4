package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/wfunc/duelstats/models"
)

// Memory keeps fights in process. It backs the "memory" driver and tests.
type Memory struct {
	fights map[string]models.FightResult
	mutex  sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{fights: make(map[string]models.FightResult)}
}

func (m *Memory) SaveFight(_ context.Context, result models.FightResult) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.fights[result.FightID] = result
	return nil
}

func (m *Memory) GetFight(_ context.Context, fightID string) (models.FightResult, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	r, ok := m.fights[fightID]
	if !ok {
		return models.FightResult{}, ErrRecordNotFound
	}
	return r, nil
}

func (m *Memory) ListFights(_ context.Context, playerName string, limit int) ([]models.FightResult, error) {
	m.mutex.RLock()
	var results []models.FightResult
	for _, r := range m.fights {
		if r.PlayerName == playerName || r.OpponentName == playerName {
			results = append(results, r)
		}
	}
	m.mutex.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].EndedAt.After(results[j].EndedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *Memory) GetPlayerSummary(ctx context.Context, playerName string) (models.PlayerSummary, error) {
	results, err := m.ListFights(ctx, playerName, 0)
	if err != nil {
		return models.PlayerSummary{}, err
	}
	return models.Summarize(playerName, results), nil
}

func (m *Memory) Close() error {
	return nil
}
