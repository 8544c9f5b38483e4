// state/interfaces.go
package state

import "github.com/wfunc/duelstats/fight"

// FightContext is what a fight state needs from the arena that owns it.
// It breaks the import cycle between arena and state.
type FightContext interface {
	GetID() string
	Record() *fight.Record
	ChangeState(newState State) error
	// FightEnded is called once, when the fight enters the ended state.
	FightEnded(stats fight.Stats)
}
