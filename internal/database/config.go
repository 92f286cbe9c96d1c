package database

import (
	"fmt"
	"time"

	"groops-notifier/internal/models"
	"groops-notifier/internal/utils"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// dueTaskQueryPattern matches the once-a-minute poll so it does not flood the SQL log
const dueTaskQueryPattern = `FROM "scheduled_notification_task" WHERE status =`

// GormConfig returns the gorm settings shared by the server and the tests
func GormConfig(l logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger: l,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true, // Use singular table names
		},
		TranslateError:                           true, // Surface unique violations as gorm.ErrDuplicatedKey
		SkipDefaultTransaction:                   false,
		DisableForeignKeyConstraintWhenMigrating: true, // group/user/post tables belong to the main app
	}
}

// NewGormLogger builds the SQL logger on top of zap, hiding the dispatch poll
func NewGormLogger(log *zap.Logger, level logger.LogLevel) logger.Interface {
	baseLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second, // Log queries slower than 1 second
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return utils.NewCustomGormLogger(baseLogger, dueTaskQueryPattern)
}

// InitDB opens the Postgres connection, retrying while the database comes up
func InitDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if log.Core().Enabled(zap.DebugLevel) {
		level = logger.Info
	}
	gormConfig := GormConfig(NewGormLogger(log, level))
	gormConfig.PrepareStmt = true

	var (
		db  *gorm.DB
		err error
	)
	maxRetries := 5
	retryDelay := time.Second * 5

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err == nil {
			break
		}
		log.Warn("database connection attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if i < maxRetries-1 {
			log.Info("retrying database connection", zap.Duration("delay", retryDelay))
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database connection established and migrations completed")
	return db, nil
}

// Migrate creates the tables the notifier owns. The group, user and post
// tables are migrated too so a fresh environment can run the full pipeline.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.ScheduledNotificationTask{},
		&models.PushDeliveryFailure{},
		&models.GroupMember{},
		&models.User{},
		&models.Post{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
