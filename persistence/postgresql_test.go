package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/wfunc/duelstats/fight"
)

const epsilon = 1e-9

var fightColumnNames = []string{
	"fight_id", "player_name", "opponent_name",
	"player_attack_count", "player_success_count", "player_success_rate", "player_died",
	"opponent_attack_count", "opponent_success_count", "opponent_success_rate", "opponent_died",
	"outcome", "ended_at",
}

func newMockPostgreSQL(t *testing.T) (*PostgreSQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})
	return &PostgreSQL{db: db}, mock
}

func TestPostgreSQL_SaveFight(t *testing.T) {
	p, mock := newMockPostgreSQL(t)
	endedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := result("f1", "A", "B", fight.OutcomeWin, endedAt)

	mock.ExpectExec(`(?s)INSERT INTO fights .* ON CONFLICT \(fight_id\)`).
		WithArgs("f1", "A", "B", 0, 0, 0.0, false, 0, 0, 0.0, false, fight.OutcomeWin, endedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := p.SaveFight(context.Background(), r); err != nil {
		t.Fatalf("SaveFight failed: %v", err)
	}
}

func TestPostgreSQL_GetFight(t *testing.T) {
	p, mock := newMockPostgreSQL(t)
	endedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM fights WHERE fight_id = \$1`).WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(fightColumnNames).
			AddRow("f1", "A", "B", 5, 3, 60.0, false, 10, 4, 40.0, true, fight.OutcomeWin, endedAt))
	mock.ExpectQuery(`FROM fights WHERE fight_id = \$1`).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(fightColumnNames))

	got, err := p.GetFight(context.Background(), "f1")
	if err != nil {
		t.Fatalf("GetFight failed: %v", err)
	}
	if got.PlayerSuccessCount != 3 || got.OpponentAttackCount != 10 || !got.OpponentDied || !got.EndedAt.Equal(endedAt) {
		t.Errorf("Unexpected fight: %+v", got)
	}

	if _, err := p.GetFight(context.Background(), "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestPostgreSQL_ListFightsLimit(t *testing.T) {
	p, mock := newMockPostgreSQL(t)
	endedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`ORDER BY ended_at DESC LIMIT \$2`).WithArgs("A", 2).
		WillReturnRows(sqlmock.NewRows(fightColumnNames).
			AddRow("f2", "B", "A", 1, 1, 100.0, false, 1, 0, 0.0, false, fight.OutcomeWin, endedAt.Add(time.Hour)).
			AddRow("f1", "A", "B", 1, 0, 0.0, false, 1, 1, 100.0, false, fight.OutcomeLose, endedAt))

	fights, err := p.ListFights(context.Background(), "A", 2)
	if err != nil {
		t.Fatalf("ListFights failed: %v", err)
	}
	if len(fights) != 2 || fights[0].FightID != "f2" || fights[1].FightID != "f1" {
		t.Errorf("Expected f2, f1, got %+v", fights)
	}
}

func TestPostgreSQL_GetPlayerSummary(t *testing.T) {
	p, mock := newMockPostgreSQL(t)

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\) AS fights`).WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"fights", "wins", "losses", "draws", "average_success_rate"}).
			AddRow(4, 2, 1, 1, 55.0))

	summary, err := p.GetPlayerSummary(context.Background(), "A")
	if err != nil {
		t.Fatalf("GetPlayerSummary failed: %v", err)
	}
	if summary.PlayerName != "A" || summary.Fights != 4 || summary.Wins != 2 || summary.Losses != 1 || summary.Draws != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if summary.AverageSuccessRate != 55.0 {
		t.Errorf("Expected average 55, got %f", summary.AverageSuccessRate)
	}
}
