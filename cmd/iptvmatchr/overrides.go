package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/iptvmatchr/internal/app"
)

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Seed the match-overrides file from the not-found ledger",
	Long: `Overrides writes every show from the not-found ledger into
match-overrides.yaml with an empty TMDB id. Fill the ids in by hand;
the next run applies them before querying TMDB. Entries already filled
in are preserved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootPath := viper.GetString("root_path")

		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		if err := application.GenerateOverrides(rootPath); err != nil {
			return fmt.Errorf("generate overrides failed: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(overridesCmd)
}
