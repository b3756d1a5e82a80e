package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"dashboard-service/internal/platform/config"
	"dashboard-service/internal/platform/logger"
)

var (
	jsonOutput bool
	actor      string

	cfg config.Config
	log *slog.Logger
)

func defaultActor() string {
	if s := os.Getenv("DASHBOARD_ACTOR"); s != "" {
		return s
	}
	if s := os.Getenv("USER"); s != "" {
		return s
	}
	return "dashboardctl"
}

var rootCmd = &cobra.Command{
	Use:           "dashboardctl <command>",
	Short:         "Operate the dashboard configuration store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.FromEnv()
		if err != nil {
			return err
		}
		cfg = c
		log = logger.New(cfg.Server.LogLevel, cfg.Server.IsDevelopment())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor recorded on writes")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(effectiveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
