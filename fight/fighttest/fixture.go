// Package fighttest builds fight records for tests and debugging overlays.
package fighttest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/wfunc/duelstats/fight"
)

// FixedTime is the end time stamped on every fixture.
var FixedTime = time.Date(2020, time.January, 2, 15, 4, 5, 0, time.UTC)

// Fixed returns the same finished record every time.
func Fixed() *fight.Record {
	return Build("qwerty123", "0123456789@#", 55, 32, 57, 43)
}

// Random returns a finished record with 20..54 attacks per side and a success
// count between a third of the attacks and a third plus half.
func Random(rng *rand.Rand) *fight.Record {
	attacks := rng.Intn(35) + 20
	successful := attacks/3 + rng.Intn(attacks/2)
	oAttacks := rng.Intn(35) + 20
	oSuccessful := oAttacks/3 + rng.Intn(oAttacks/2)

	return Build(
		fmt.Sprintf("qwerty%d", rng.Intn(99)),
		fmt.Sprintf("asdf%d", rng.Intn(99)),
		attacks, successful, oAttacks, oSuccessful,
	)
}

// Build replays the given tallies through the record's public operations and ends the fight at FixedTime.
func Build(playerName, opponentName string, attacks, successful, oAttacks, oSuccessful int) *fight.Record {
	r := fight.NewRecord(playerName, opponentName, func() time.Time { return FixedTime })
	replay(r, playerName, attacks, successful)
	replay(r, opponentName, oAttacks, oSuccessful)
	r.EndFight()
	return r
}

func replay(r *fight.Record, actor string, attacks, successful int) {
	for i := 0; i < attacks; i++ {
		r.RecordAttack(actor, i < successful)
	}
}
