package cli

import (
	"github.com/spf13/cobra"
)

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch [PATH]",
		Short: "Make a PATCH request",
		Long: `Make a PATCH request. With --id the id is resolved against the base
URL and replaces PATH.`,
		Example: `  peach patch --id heros/7 -d '{"name":"Batman"}'`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			body := withBody(cmd)
			return runVerb(cmd, args, "PATCH", func(plan *requestPlan) error {
				plan.id = id
				return body(plan)
			})
		},
	}

	addRequestFlags(cmd)
	addBodyFlag(cmd)
	cmd.Flags().String("id", "", "Resource id resolved against the base URL")
	return cmd
}
