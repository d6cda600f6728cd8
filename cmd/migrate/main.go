package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/aasta/aasta-backend/pkg/config"
	"github.com/aasta/aasta-backend/pkg/db"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": opts.cmd, "dir": opts.dir})

	out, err := offline(opts)
	if err == nil && out == "" {
		out, err = online(opts)
	}
	if err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

// offline handles the commands that only touch the migrations directory.
// It returns an empty result for commands that need a database.
func offline(opts options) (string, error) {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return "", fmt.Errorf("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return "", err
		}
		return "created migration: " + path, nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return "", err
		}
		return "migration validation passed", nil
	}
	return "", nil
}

func online(opts options) (out string, err error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     strings.EqualFold(cfg.App.LogFormat, "console"),
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"driver": cfg.DB.Driver,
		"cmd":    opts.cmd,
		"dir":    opts.dir,
	})

	dialect, err := migrate.DialectFor(cfg.DB.Driver)
	if err != nil {
		return "", err
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return "", err
	}
	defer func() {
		err = multierr.Append(err, client.Close())
	}()

	sqlDB, err := client.SQL()
	if err != nil {
		return "", err
	}

	logg.Info(ctx, "running migrations")
	switch opts.cmd {
	case "up", "down", "status":
		err = migrate.RunDialect(ctx, sqlDB, dialect, opts.dir, opts.cmd)
	case "version":
		if opts.version == "" {
			return "", fmt.Errorf("-version is required for version")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, dialect, opts.dir, opts.version)
	default:
		return "", fmt.Errorf("unknown -cmd %q", opts.cmd)
	}
	if err != nil {
		return "", err
	}
	return "migrate " + opts.cmd + " complete", nil
}
