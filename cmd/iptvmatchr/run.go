package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/iptvmatchr/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one batch of shows",
	Long: `Run processes the next batch of shows:
1. Fetches categories and shows from the IPTV Editor
2. Resolves each show title against TMDB, cache first
3. Pushes matched TMDB ids back to the editor
4. Records unmatched shows in the not-found ledger

Processing resumes from where the previous run stopped; state is
persisted after every show. Use --batch-size to control how many
shows one invocation handles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootPath := viper.GetString("root_path")
		batchSize, _ := cmd.Flags().GetInt("batch-size")

		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		// Run one batch
		if err := application.Run(rootPath, batchSize); err != nil {
			return fmt.Errorf("run failed: %w", err)
		}

		return nil
	},
}

func init() {
	runCmd.Flags().Int("batch-size", 0, "number of shows to process in one run (default from config, 10)")
	rootCmd.AddCommand(runCmd)
}
