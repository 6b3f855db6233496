package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "geolens",
	Short: "geolens - website GEO analysis",
	Long: `geolens crawls a website, asks a language model to score how well it is
prepared for generative search, and suggests competitors and improvements.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
