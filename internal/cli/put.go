package cli

import (
	"github.com/spf13/cobra"
)

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put [PATH]",
		Short: "Make a PUT request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerb(cmd, args, "PUT", withBody(cmd))
		},
	}

	addRequestFlags(cmd)
	addBodyFlag(cmd)
	return cmd
}
