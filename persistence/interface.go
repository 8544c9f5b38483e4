// persistence/interface.go
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/duelstats/config"
	"github.com/wfunc/duelstats/models"
)

// Database stores finished fights.
type Database interface {
	// SaveFight inserts the result, replacing any earlier result with the same fight ID.
	SaveFight(ctx context.Context, result models.FightResult) error
	GetFight(ctx context.Context, fightID string) (models.FightResult, error)
	// ListFights returns the player's fights on either side, newest first. limit <= 0 means no limit.
	ListFights(ctx context.Context, playerName string, limit int) ([]models.FightResult, error)
	GetPlayerSummary(ctx context.Context, playerName string) (models.PlayerSummary, error)
	Close() error
}

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownDriver  = errors.New("unknown database driver")
)

// Open connects the store named by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "gorm", "":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "postgres":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func dsn(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// summaryQuery aggregates a player's fights on either side. $1 is the player name.
// A fight against a namesake counts from the player side only.
const summaryQuery = `
        SELECT
            COUNT(*) AS fights,
            COALESCE(SUM(CASE WHEN (player_name = $1 AND outcome = 'win') OR (opponent_name = $1 AND player_name <> $1 AND outcome = 'lose') THEN 1 ELSE 0 END), 0) AS wins,
            COALESCE(SUM(CASE WHEN (player_name = $1 AND outcome = 'lose') OR (opponent_name = $1 AND player_name <> $1 AND outcome = 'win') THEN 1 ELSE 0 END), 0) AS losses,
            COALESCE(SUM(CASE WHEN outcome = 'draw' THEN 1 ELSE 0 END), 0) AS draws,
            COALESCE(AVG(CASE WHEN player_name = $1 THEN player_success_rate ELSE opponent_success_rate END), 0) AS average_success_rate
        FROM fights
        WHERE player_name = $1 OR opponent_name = $1`
