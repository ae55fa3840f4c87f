package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"worshipsongs/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Postgres schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		if err := requirePostgres(cfg); err != nil {
			return err
		}
		db, err := openDatabase(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.MigrateUp(db); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every applied migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		if err := requirePostgres(cfg); err != nil {
			return err
		}
		db, err := openDatabase(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.MigrateDown(db); err != nil {
			return err
		}
		log.Info().Msg("migrations rolled back")
		return nil
	},
}
