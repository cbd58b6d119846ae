package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/storefront/example/migrations"
	"github.com/dmitrymomot/storefront/example/shop"
	"github.com/dmitrymomot/storefront/pkg/config"
	"github.com/dmitrymomot/storefront/pkg/container"
	"github.com/dmitrymomot/storefront/pkg/db"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront web shop",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply migrations and serve HTTP until interrupted",
	RunE:  serve,
}

var (
	migrateDown    bool
	migrateVersion bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Long:  "Apply pending migrations. --down reverts the latest one, --version prints the schema version.",
	RunE:  migrate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (STOREFRONT_* env vars override it)")
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "revert the most recent migration")
	migrateCmd.Flags().BoolVar(&migrateVersion, "version", false, "print the current schema version")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("storefront failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	s, err := shop.New(ctx, cfg)
	if err != nil {
		return err
	}
	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return s.Run(ctx)
}

func migrate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	s, err := shop.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(context.Background()) }()

	conn, err := container.Resolve[*sql.DB](s.Container)
	if err != nil {
		return err
	}

	switch {
	case migrateVersion:
		v, err := db.Version(ctx, conn, cfg.Database, s.Logger())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	case migrateDown:
		fsys, err := migrations.For(cfg.Database.Driver)
		if err != nil {
			return err
		}
		return db.Rollback(ctx, conn, cfg.Database, fsys, s.Logger())
	default:
		return s.Migrate(ctx)
	}
}
