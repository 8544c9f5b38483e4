package network

const (
	MsgTypeHeartbeat = 1

	// client -> server
	MsgTypeCreateFight    = 101
	MsgTypeWatchFight     = 102
	MsgTypeLeaveFight     = 103
	MsgTypeAttack         = 201
	MsgTypeDeath          = 202
	MsgTypeEndFight       = 203
	MsgTypeBulkCorrection = 204

	// server -> client
	MsgTypeFightCreated = 301
	MsgTypeStatsUpdate  = 302
	MsgTypeFightEnded   = 303
	MsgTypeError        = 399
)

// CreateFightRequest opens a fight between two named combatants.
type CreateFightRequest struct {
	PlayerName   string `json:"player_name"`
	OpponentName string `json:"opponent_name"`
}

type CreateFightResponse struct {
	FightID string `json:"fight_id"`
}

type WatchFightRequest struct {
	FightID string `json:"fight_id"`
}

// AttackEvent is an attack already classified as successful or not.
type AttackEvent struct {
	ActorName string `json:"actor_name"`
	Success   bool   `json:"success"`
}

type DeathEvent struct {
	ActorName string `json:"actor_name"`
}

// BulkCorrection imports player-side counts retroactively.
type BulkCorrection struct {
	SuccessCount int `json:"success_count"`
	TotalCount   int `json:"total_count"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}
