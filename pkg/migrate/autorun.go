package migrate

import (
	"context"
	"fmt"

	"github.com/aasta/aasta-backend/pkg/config"
	"github.com/aasta/aasta-backend/pkg/db"
	"github.com/aasta/aasta-backend/pkg/db/models"
	"github.com/aasta/aasta-backend/pkg/logger"
)

// MaybeRunDev applies schema changes on start-up when running in dev mode with
// the auto-migrate flag. Postgres gets the goose migrations; sqlite (local
// demos) gets a gorm AutoMigrate of the ledger model.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	dialect, err := DialectFor(cfg.DB.Driver)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir, "dialect": dialect})

	if dialect == "sqlite3" {
		logg.Info(ctx, "running gorm automigrate (sqlite dev)")
		if err := client.DB().WithContext(ctx).AutoMigrate(&models.Investment{}); err != nil {
			return fmt.Errorf("automigrate investments: %w", err)
		}
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return err
	}

	logg.Info(ctx, "running Goose migrations (dev auto-run)")
	if err := RunDialect(ctx, sqlDB, dialect, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
