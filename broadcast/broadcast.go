// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/duelstats/logger"
	"github.com/wfunc/duelstats/session"
)

type Broadcaster interface {
	BroadcastToFight(fightID string, msgID uint16, data []byte) error
	BroadcastToPlayers(fightID string, names []string, msgID uint16, data []byte) error
}

// FightBroadcaster sends to the sessions watching a fight.
type FightBroadcaster struct {
	sessionManager *session.Manager
}

func NewFightBroadcaster(sessionManager *session.Manager) *FightBroadcaster {
	return &FightBroadcaster{sessionManager: sessionManager}
}

// BroadcastToFight delivers to every watcher. A failing session is logged and skipped.
func (b *FightBroadcaster) BroadcastToFight(fightID string, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByFightID(fightID) {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Warnf("Send to session %s failed: %v", s.GetID(), err)
		}
	}
	return nil
}

// BroadcastToPlayers delivers to the sessions reporting for any of names, skipping
// those already watching fightID so nobody gets the message twice.
func (b *FightBroadcaster) BroadcastToPlayers(fightID string, names []string, msgID uint16, data []byte) error {
	seen := make(map[string]bool)
	for _, name := range names {
		for _, s := range b.sessionManager.GetByPlayerName(name) {
			if seen[s.GetID()] || s.FightID() == fightID {
				continue
			}
			seen[s.GetID()] = true
			if err := s.Send(msgID, data); err != nil {
				logger.Log.Warnf("Send to session %s failed: %v", s.GetID(), err)
			}
		}
	}
	return nil
}
