// Command migrate manages the postgres schema outside the server process
// and can seed a starter catalog into a fresh database.
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/config"
	"github.com/smallbiznis/servicebay/internal/migration"
	"github.com/smallbiznis/servicebay/internal/seed"
	"github.com/smallbiznis/servicebay/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := newRootCmd(log).Execute(); err != nil {
		log.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}
}

func newRootCmd(log *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "servicebay schema management",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				return ignoreNoChange(m.Steps(-steps))
			}, log, "down")
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(func(m *migrate.Migrate) error {
					return ignoreNoChange(m.Up())
				}, log, "up")
			},
		},
		down,
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark the schema as clean at version",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return withMigrator(func(m *migrate.Migrate) error {
					return m.Force(version)
				}, log, "force")
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(func(m *migrate.Migrate) error {
					version, dirty, err := m.Version()
					if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
						return err
					}
					log.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
					return nil
				}, log, "version")
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert starter mechanics and parts into empty tables",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSeed(cmd, log)
			},
		},
	)
	return root
}

func withMigrator(fn func(*migrate.Migrate) error, log *zap.Logger, command string) error {
	cfg := db.ConfigFrom(config.Load())
	if cfg.Type != "postgres" {
		return fmt.Errorf("migrate only supports postgres, got %q", cfg.Type)
	}

	conn, err := sql.Open("postgres", db.PostgresDSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	src, err := migration.Source()
	if err != nil {
		return err
	}
	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := fn(migrator); err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	log.Info("migration complete", zap.String("command", command))
	return nil
}

func runSeed(cmd *cobra.Command, log *zap.Logger) error {
	appCfg := config.Load()
	dialector, err := db.Dialect(db.ConfigFrom(appCfg))
	if err != nil {
		return err
	}
	conn, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}

	node, err := snowflake.NewNode(appCfg.SnowflakeNode)
	if err != nil {
		return fmt.Errorf("snowflake node %d: %w", appCfg.SnowflakeNode, err)
	}

	created, err := seed.EnsureDemoCatalog(cmd.Context(), conn, node, clock.SystemClock{})
	if err != nil {
		return err
	}
	log.Info("demo catalog ready", zap.Int("created", created))
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
