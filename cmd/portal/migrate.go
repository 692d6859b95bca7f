package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/portal/pkg/db"
	"github.com/dmitrymomot/portal/pkg/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	conn, err := db.Open(cmd.Context(), cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := store.NewSQL(conn, cfg.DB.Driver).Migrate(cmd.Context(), cfg.DB.MigrationsTable, log); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	fmt.Println("Schema is up to date")
	return nil
}
