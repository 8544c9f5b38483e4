// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/duelstats/network"
)

// Session is one connected client: an event feeder, an overlay, or both.
// Only the session that created a fight feeds it; watching is read-only.
type Session struct {
	ID             string
	Conn           network.Connection
	CreatedAt      time.Time
	playerName     string // combatant this client reports for, if any
	lastActive     time.Time
	fightID        string
	feedingFightID string
	mutex          sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

// Touch marks the session as active now.
func (s *Session) Touch() {
	s.mutex.Lock()
	s.lastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

// FightID is the fight this session watches, or "".
func (s *Session) FightID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.fightID
}

func (s *Session) SetFightID(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fightID = id
}

// FeedingFightID is the fight this session created and may send events to, or "".
func (s *Session) FeedingFightID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.feedingFightID
}

// Feed binds the session to a fight it created, as its player, and watches it.
func (s *Session) Feed(fightID, playerName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.feedingFightID = fightID
	s.fightID = fightID
	s.playerName = playerName
}

func (s *Session) PlayerName() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.playerName
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// GetByFightID returns every session watching the fight.
func (m *Manager) GetByFightID(fightID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.FightID() == fightID {
			result = append(result, session)
		}
	}
	return result
}

// GetByPlayerName returns every session that fed a fight as name.
func (m *Manager) GetByPlayerName(name string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if name != "" && session.PlayerName() == name {
			result = append(result, session)
		}
	}
	return result
}
