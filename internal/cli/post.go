package cli

import (
	"github.com/spf13/cobra"
)

func newPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post [PATH]",
		Short: "Make a POST request",
		Example: `  peach post heros -d '{"name":"Flash"}'
  peach post heros -d @hero.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerb(cmd, args, "POST", withBody(cmd))
		},
	}

	addRequestFlags(cmd)
	addBodyFlag(cmd)
	return cmd
}
