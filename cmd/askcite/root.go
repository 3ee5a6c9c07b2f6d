package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "askcite",
	Short: "Citation attribution for grounded answers",
	Long: `askcite turns generated answers and their citation spans into annotated
text with dense [n] markers and resolved source links.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
}
