package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dashboard-service/internal/app"
	"dashboard-service/internal/dashboard/models"
)

var (
	baselineCompany  string
	baselineFile     string
	baselineExpected int
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage company baselines",
}

var baselineSetCmd = &cobra.Command{
	Use:   "set --company <id> --file <path>",
	Short: "Write a company baseline from a configData JSON file",
	Long: `Write a company baseline from a configData JSON file ("-" reads stdin).

Users with an override under the company are notified once the write commits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if baselineCompany == "" {
			return errors.New("--company is required")
		}
		data, err := readConfigFile(baselineFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app.App) error {
			companyWide := true
			req := models.WriteRequest{
				UserID:              actor,
				CompanyID:           baselineCompany,
				ConfigData:          data,
				IsCompanyWideUpdate: &companyWide,
				Actor:               actor,
			}
			if baselineExpected > 0 {
				req.ExpectedVersion = &baselineExpected
			}

			saved, err := a.Service.Save(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("saving baseline: %w", err)
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), saved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Company %s baseline at version %d\n", saved.ScopeKey, saved.Version)
			return nil
		})
	},
}

// withApp builds the service for one command and drains notifications
// before returning.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.Start(ctx)

	runErr := fn(a)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Close(shutdownCtx); err != nil {
		log.Warn("notifications may not have been delivered", "error", err)
	}
	return runErr
}

func init() {
	baselineSetCmd.Flags().StringVar(&baselineCompany, "company", "", "company id")
	baselineSetCmd.Flags().StringVar(&baselineFile, "file", "-", "configData JSON file, - for stdin")
	baselineSetCmd.Flags().IntVar(&baselineExpected, "expected-version", 0, "fail unless the current baseline is at this version")
	baselineCmd.AddCommand(baselineSetCmd)
}
