package database

import (
	"fmt"
	"time"

	"github.com/mroshb/matchday/internal/config"
	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/pkg/logger"
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
		// Writes that must be atomic go through Store.WithinTransaction
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

	// Admission and readiness hold row locks for the length of a transaction,
	// so keep enough connections for concurrent lobbies.
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetMaxOpenConns(200)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected", "host", cfg.DBHost, "database", cfg.DBName)
	return db, nil
}

// Models lists every table the matchmaking store owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserGroup{},
		&models.GroupMember{},
		&models.QueueEntry{},
		&models.Match{},
		&models.MatchParticipant{},
		&models.Game{},
		&models.ScoreReport{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
