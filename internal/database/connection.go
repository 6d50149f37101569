package database

import (
	"fmt"
	"time"

	"github.com/mroshb/economy_bot/internal/config"
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Every ledger write runs inside an explicit transaction
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

// indexes gorm tags cannot express
var indexes = []string{
	// At most one active character per user and guild
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_characters_one_active
		ON characters (guild_id, user_id) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_auctions_open
		ON auctions (guild_id, id) WHERE NOT is_sold AND NOT is_canceled`,
	`CREATE INDEX IF NOT EXISTS idx_auctions_bidder
		ON auctions (guild_id, bidder_user_id, bidder_char_name) WHERE bidder_user_id IS NOT NULL`,
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.GuildConfig{},
		&models.Character{},
		&models.Auction{},
		&models.DMReward{},
		&models.TransferLog{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
