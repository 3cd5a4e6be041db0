package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/peach/internal/output"
)

var version = "0.1.0"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "peach",
		Short:   "A fluent HTTP client for JSON APIs",
		Version: version,
		Long: `Peach sends a single request to a JSON API and prints the decoded
response. Paths are resolved against a base URL, query parameters are
serialized in a stable order, and the result can be reduced with a dotted
key, transformed with a jq expression and checked against a JSON Schema.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// If no subcommand is provided, print help
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("base-url", "b", "", "Base URL paths are resolved against (default $PEACH_ORIGIN)")
	flags.StringP("env", "e", "", "Environment from the config file")
	flags.StringP("config", "c", "", "Config file (default peach.yaml when --env is set)")
	flags.StringArrayP("header", "H", []string{}, "HTTP headers to include, as 'Name: value' (can be used multiple times)")
	flags.DurationP("timeout", "T", 30*time.Second, "Request timeout")
	flags.StringP("output", "o", "text", "Output format: text, json or yaml")
	flags.Bool("no-color", false, "Disable colored output")
	flags.BoolP("verbose", "v", false, "Print the request line, headers and debug logs to stderr")
	flags.Bool("insecure", false, "Skip TLS certificate verification")

	root.AddCommand(
		newGetCmd(),
		newPostCmd(),
		newPutCmd(),
		newPatchCmd(),
		newDeleteCmd(),
		newRunCmd(),
	)

	return root
}

// Execute runs the command line, printing any error to stderr. An
// interrupt cancels the request in flight.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		noColor, _ := root.PersistentFlags().GetBool("no-color")
		formatter := output.NewFormatter(output.FormatText, false, !useColor(os.Stderr, noColor))
		fmt.Fprint(os.Stderr, formatter.FormatError(err))
	}
	return err
}
