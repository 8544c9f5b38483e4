// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/duelstats/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL is the database/sql implementation on lib/pq.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn(host, port, user, password, dbname))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS fights (
            id SERIAL PRIMARY KEY,
            fight_id VARCHAR(64) UNIQUE NOT NULL,
            player_name VARCHAR(64) NOT NULL,
            opponent_name VARCHAR(64) NOT NULL,
            player_attack_count INTEGER NOT NULL DEFAULT 0,
            player_success_count INTEGER NOT NULL DEFAULT 0,
            player_success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
            player_died BOOLEAN NOT NULL DEFAULT FALSE,
            opponent_attack_count INTEGER NOT NULL DEFAULT 0,
            opponent_success_count INTEGER NOT NULL DEFAULT 0,
            opponent_success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
            opponent_died BOOLEAN NOT NULL DEFAULT FALSE,
            outcome VARCHAR(8) NOT NULL,
            ended_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_fights_player_name ON fights(player_name);
        CREATE INDEX IF NOT EXISTS idx_fights_opponent_name ON fights(opponent_name);
        CREATE INDEX IF NOT EXISTS idx_fights_ended_at ON fights(ended_at);
    `)
	return err
}

const fightColumns = `fight_id, player_name, opponent_name,
            player_attack_count, player_success_count, player_success_rate, player_died,
            opponent_attack_count, opponent_success_count, opponent_success_rate, opponent_died,
            outcome, ended_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFight(row scanner) (models.FightResult, error) {
	var r models.FightResult
	err := row.Scan(
		&r.FightID, &r.PlayerName, &r.OpponentName,
		&r.PlayerAttackCount, &r.PlayerSuccessCount, &r.PlayerSuccessRate, &r.PlayerDied,
		&r.OpponentAttackCount, &r.OpponentSuccessCount, &r.OpponentSuccessRate, &r.OpponentDied,
		&r.Outcome, &r.EndedAt,
	)
	return r, err
}

func (p *PostgreSQL) SaveFight(ctx context.Context, r models.FightResult) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
        INSERT INTO fights (` + fightColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (fight_id)
        DO UPDATE SET player_attack_count = $4, player_success_count = $5, player_success_rate = $6, player_died = $7,
            opponent_attack_count = $8, opponent_success_count = $9, opponent_success_rate = $10, opponent_died = $11,
            outcome = $12, ended_at = $13, updated_at = CURRENT_TIMESTAMP
    `

	_, err := p.db.ExecContext(ctx, query,
		r.FightID, r.PlayerName, r.OpponentName,
		r.PlayerAttackCount, r.PlayerSuccessCount, r.PlayerSuccessRate, r.PlayerDied,
		r.OpponentAttackCount, r.OpponentSuccessCount, r.OpponentSuccessRate, r.OpponentDied,
		r.Outcome, r.EndedAt,
	)
	return err
}

func (p *PostgreSQL) GetFight(ctx context.Context, fightID string) (models.FightResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `SELECT `+fightColumns+` FROM fights WHERE fight_id = $1`, fightID)
	r, err := scanFight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FightResult{}, ErrRecordNotFound
	}
	return r, err
}

func (p *PostgreSQL) ListFights(ctx context.Context, playerName string, limit int) ([]models.FightResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + fightColumns + ` FROM fights
        WHERE player_name = $1 OR opponent_name = $1
        ORDER BY ended_at DESC`
	args := []interface{}{playerName}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.FightResult
	for rows.Next() {
		r, err := scanFight(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (p *PostgreSQL) GetPlayerSummary(ctx context.Context, playerName string) (models.PlayerSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	summary := models.PlayerSummary{PlayerName: playerName}
	err := p.db.QueryRowContext(ctx, summaryQuery, playerName).Scan(
		&summary.Fights, &summary.Wins, &summary.Losses, &summary.Draws, &summary.AverageSuccessRate,
	)
	return summary, err
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
