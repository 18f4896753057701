package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "iptvmatchr",
	Short: "Match IPTV Editor shows against TMDB",
	Long: `iptvmatchr reconciles the shows of an IPTV Editor playlist with TMDB:
it looks up every show title on TMDB and pushes the matched id back to
the editor so the playlist listing gets proper metadata.

Processing is batched and resumable; shows that could not be matched
land in a not-found ledger for manual follow-up.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.iptvmatchr.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().String("root-path", ".", "the path where cache, state and ledger files are kept")

	// Bind flags to viper
	viper.BindPFlag("root_path", rootCmd.PersistentFlags().Lookup("root-path"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory and current directory
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".iptvmatchr")
		viper.SetConfigName("config")
	}

	// Environment variables
	viper.SetEnvPrefix("IPTVMATCHR")
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
