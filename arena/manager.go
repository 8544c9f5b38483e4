package arena

import (
	"sort"
	"sync"
)

// Manager tracks every open arena by fight ID.
type Manager struct {
	arenas map[string]*Arena
	mutex  sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		arenas: make(map[string]*Arena),
	}
}

// CreateArena starts a new arena and adds it to the manager.
func (m *Manager) CreateArena(id, playerName, opponentName string, opts Options) *Arena {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	a := NewArena(id, playerName, opponentName, opts)
	m.arenas[id] = a
	return a
}

// RemoveArena closes the arena and forgets it.
func (m *Manager) RemoveArena(id string) {
	m.mutex.Lock()
	a, exists := m.arenas[id]
	delete(m.arenas, id)
	m.mutex.Unlock()

	if exists {
		a.Close()
	}
}

func (m *Manager) GetArena(id string) (*Arena, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	a, exists := m.arenas[id]
	return a, exists
}

// List returns the open arenas, oldest first.
func (m *Manager) List() []*Arena {
	m.mutex.RLock()
	list := make([]*Arena, 0, len(m.arenas))
	for _, a := range m.arenas {
		list = append(list, a)
	}
	m.mutex.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.arenas)
}

// CloseAll closes every arena, applying whatever events are still queued.
func (m *Manager) CloseAll() {
	m.mutex.Lock()
	arenas := m.arenas
	m.arenas = make(map[string]*Arena)
	m.mutex.Unlock()

	for _, a := range arenas {
		a.Close()
	}
}
