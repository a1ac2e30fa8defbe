package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func ConnectDB(log *zap.Logger) (*gorm.DB, error) {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
		dbConfig.TimeZone,
	)

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	if appConfig.Env == "production" {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Error)
	}
	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("database connected", zap.String("host", dbConfig.Host), zap.String("db", dbConfig.Name))
	return db, nil
}

// migrate creates the schema and seeds the default email templates.
func migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}
	err := db.AutoMigrate(
		&model.Applicant{},
		&model.Job{},
		&model.Application{},
		&model.KeywordCategory{},
		&model.MatchingRecord{},
		&model.MatchingCategory{},
		&model.JDKeyword{},
		&model.JDKeywordCategory{},
		&model.EmailTemplate{},
		&model.MailLog{},
		&model.QueueJob{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := repository.NewTemplateRepository(db).SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}
	log.Info("schema migrated")
	return nil
}
