package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"worshipsongs/internal/app/setlists"
	"worshipsongs/internal/auth"
)

var exportCmd = &cobra.Command{
	Use:   "export <setlist-id>",
	Short: "Print a setlist's running order as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid setlist id %q: %w", args[0], err)
		}

		cfg, _, err := setup()
		if err != nil {
			return err
		}
		store, closeStore, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		var out io.Writer = cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()
			out = f
		}
		return setlists.New(store).Export(cmd.Context(), id, out)
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for AUTH_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
