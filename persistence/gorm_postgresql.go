// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/wfunc/duelstats/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	return NewGorm(postgres.Open(dsn(host, port, user, password, dbname)))
}

// NewGorm opens any GORM dialector and migrates the fights table.
func NewGorm(dialector gorm.Dialector) (*GormPostgreSQL, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormFight{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveFight upserts on fight_id.
func (p *GormPostgreSQL) SaveFight(ctx context.Context, result models.FightResult) error {
	row := models.NewGormFight(result)
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fight_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (p *GormPostgreSQL) GetFight(ctx context.Context, fightID string) (models.FightResult, error) {
	var row models.GormFight
	if err := p.db.WithContext(ctx).Where("fight_id = ?", fightID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FightResult{}, ErrRecordNotFound
		}
		return models.FightResult{}, err
	}
	return row.Result(), nil
}

func (p *GormPostgreSQL) ListFights(ctx context.Context, playerName string, limit int) ([]models.FightResult, error) {
	query := p.db.WithContext(ctx).
		Where("player_name = ? OR opponent_name = ?", playerName, playerName).
		Order("ended_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.GormFight
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]models.FightResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.Result())
	}
	return results, nil
}

// GetPlayerSummary aggregates in SQL rather than loading every fight.
func (p *GormPostgreSQL) GetPlayerSummary(ctx context.Context, playerName string) (models.PlayerSummary, error) {
	var summary models.PlayerSummary
	err := p.db.WithContext(ctx).
		Raw(strings.ReplaceAll(summaryQuery, "$1", "@name"), sql.Named("name", playerName)).
		Scan(&summary).Error
	summary.PlayerName = playerName
	return summary, err
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
