package cli

import (
	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [PATH]",
		Short: "Make a GET request",
		Long: `Make a GET request to PATH resolved against the base URL, or to the
base URL itself when PATH is omitted. PATH may also be a full URL.`,
		Example: `  peach get https://api.example.com/heros -q limit=10 -x data.heros.0.name
  peach get heros --env dev --transform '.data.heros | map(.name)'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extract, _ := cmd.Flags().GetString("extract")
			return runVerb(cmd, args, "GET", func(plan *requestPlan) error {
				plan.extract = extract
				return nil
			})
		},
	}

	addRequestFlags(cmd)
	cmd.Flags().StringP("extract", "x", "", "Dotted key to extract from the response, e.g. data.items.0.name")
	return cmd
}
