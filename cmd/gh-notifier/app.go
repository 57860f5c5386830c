package main

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gh-notifier/gh-notifier/internal/config"
	"github.com/gh-notifier/gh-notifier/internal/db"
	"github.com/gh-notifier/gh-notifier/internal/logging"
	"github.com/gh-notifier/gh-notifier/internal/repositories"
)

// app is the bootstrapped common state every command needs: config, logger
// and the open notification store.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	gdb    *gorm.DB
	repo   repositories.NotificationRepository
}

// newApp loads configuration, builds the logger, and opens the store. The
// caller must invoke close when done.
func newApp(flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:    cfg.LogLevel,
		FilePath: cfg.LogFilePath,
	})
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}

	gormLevel := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		gormLevel = gormlogger.Info
	}
	gdb, err := db.New(db.Config{Path: dbPath, Logger: logger, LogLevel: gormLevel})
	if err != nil {
		return nil, fmt.Errorf("open notification store: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		gdb:    gdb,
		repo:   repositories.NewNotificationRepository(gdb),
	}, nil
}

func (a *app) close() {
	if err := db.Close(a.gdb); err != nil {
		a.logger.Warn("failed to close notification store", zap.Error(err))
	}
	_ = a.logger.Sync()
}
