package main

import (
	"github.com/spf13/cobra"

	"dashboard-service/internal/app"
)

var (
	effectiveUser    string
	effectiveCompany string
)

var effectiveCmd = &cobra.Command{
	Use:   "effective --user <id> --company <id>",
	Short: "Show the merged dashboard a user would see",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			eff, err := a.Service.Effective(cmd.Context(), effectiveUser, effectiveCompany)
			if err != nil {
				return err
			}
			return printEffective(cmd.OutOrStdout(), eff)
		})
	},
}

func init() {
	effectiveCmd.Flags().StringVar(&effectiveUser, "user", "", "user id")
	effectiveCmd.Flags().StringVar(&effectiveCompany, "company", "", "company id")
	_ = effectiveCmd.MarkFlagRequired("user")
	_ = effectiveCmd.MarkFlagRequired("company")
}
