package main

import (
	"errors"

	"github.com/spf13/cobra"

	"resume-builder/internal/shared/storage/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		sqlDB, err := db.Connect(cmd.Context(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return db.RunMigrations(cmd.Context(), sqlDB)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
