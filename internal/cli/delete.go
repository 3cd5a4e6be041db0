package cli

import (
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [PATH]",
		Short: "Make a DELETE request",
		Long: `Make a DELETE request. With --id the id is resolved against the base
URL and replaces PATH, so "peach delete --id 123" and "peach delete 123"
reach the same URL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			return runVerb(cmd, args, "DELETE", func(plan *requestPlan) error {
				plan.id = id
				return nil
			})
		},
	}

	addRequestFlags(cmd)
	cmd.Flags().String("id", "", "Resource id resolved against the base URL")
	return cmd
}
