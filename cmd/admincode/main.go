// Command admincode issues admin invitation codes straight against the
// accounts database, for bootstrapping the first admin.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/grievance-portal/internal/config"
	"github.com/civicdesk/grievance-portal/internal/observability"
	"github.com/civicdesk/grievance-portal/internal/persistence"
	"github.com/civicdesk/grievance-portal/internal/repository"
)

func main() {
	count := flag.Int("n", 1, "number of codes to issue")
	migrate := flag.Bool("migrate", false, "apply the accounts schema first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.Logger.Level = "warn"
	logger, err := observability.NewLogger(cfg.Logger, "admincode")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persistence.NewPostgres(ctx, "accounts", cfg.Accounts, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()
	if db.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN required")
	}
	if *migrate {
		if err := persistence.RunMigrations(ctx, db.PoolHandle(), cfg.Accounts.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	store := repository.NewCredentialStore(db.PoolHandle())
	for i := 0; i < *count; i++ {
		code, err := store.IssueAdminCode(ctx)
		if err != nil {
			logger.Fatal("failed to issue admin code", zap.Error(err))
		}
		fmt.Println(code)
	}
}
