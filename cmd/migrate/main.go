package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/solecart/pkg/config"
	"github.com/angelmondragon/solecart/pkg/db"
	"github.com/angelmondragon/solecart/pkg/logger"
	"github.com/angelmondragon/solecart/pkg/migrate"
)

var errUsage = errors.New("usage")

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|redo|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "on-disk migrations directory used by create and validate")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	// create and validate work on files only and must run without a database.
	switch opts.cmd {
	case "create":
		exitOn(runCreate(opts))
		return
	case "validate":
		exitOn(runValidate(opts))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"driver": cfg.DB.Driver,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		logg.Error(ctx, "failed to open sql handle", err)
		os.Exit(1)
	}

	if err := runGoose(ctx, sqlDB, cfg.DB.Driver, opts); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration complete")
}

func runGoose(ctx context.Context, sqlDB *sql.DB, driver string, opts options) error {
	switch opts.cmd {
	case "up", "down", "redo", "status":
		return migrate.Run(ctx, sqlDB, driver, opts.cmd)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("%w: -version is required for -cmd=version", errUsage)
		}
		return migrate.MigrateToVersion(ctx, sqlDB, driver, opts.version)
	}
	return fmt.Errorf("%w: unknown -cmd %q", errUsage, opts.cmd)
}

func runCreate(opts options) error {
	if opts.name == "" {
		return fmt.Errorf("%w: -name is required for -cmd=create", errUsage)
	}
	path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
	if err != nil {
		return err
	}
	fmt.Println("created migration:", path)
	return nil
}

// runValidate checks the files on disk and the set compiled into the binary,
// which differ when a migration was added without rebuilding.
func runValidate(opts options) error {
	if err := migrate.ValidateDir(opts.dir); err != nil {
		return fmt.Errorf("on-disk migrations: %w", err)
	}
	if err := migrate.ValidateEmbedded(); err != nil {
		return fmt.Errorf("embedded migrations: %w", err)
	}
	fmt.Println("migration validation passed")
	return nil
}

func exitOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	os.Exit(1)
}
