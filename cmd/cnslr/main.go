package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lawguy81/cnslr-legal-platform/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "cnslr",
	Short: "CNSLR - guided legal paperwork",
	Long: `CNSLR walks you through common legal tasks (parking ticket appeals, small claims,
demand letters, name changes and landlord disputes), generates the finished document,
and relays parking ticket appeals to the agency.`,
	SilenceUsage: true,
}

var (
	configPath string
	apiAddr    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:7466", "API server address")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(efilingCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(credentialCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
