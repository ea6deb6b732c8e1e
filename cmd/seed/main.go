package main

import (
	"context"
	"log"
	"time"

	"microfinance-backoffice/internal/adapter/repository/mysql"
	"microfinance-backoffice/internal/config"
	"microfinance-backoffice/internal/infrastructure/db"
	"microfinance-backoffice/internal/infrastructure/logging"

	"go.uber.org/zap"
)

// seed migrates the schema and loads the branch and loan product catalog.
func main() {
	cfg := config.Load()
	logger, err := logging.New(logging.ConfigFromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	if err := mysql.Migrate(gdb); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := mysql.Seed(ctx, gdb)
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	logger.Info("seeded catalog", zap.Int64("inserted", n), zap.String("db", cfg.DBDriver))
}
