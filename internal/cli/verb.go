package cli

import (
	"github.com/spf13/cobra"
)

// addRequestFlags adds the flags shared by every verb command.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("query", "q", []string{}, "Query parameter as key=value (can be used multiple times)")
	cmd.Flags().StringP("transform", "t", "", "jq expression applied to the response")
	cmd.Flags().String("schema", "", "JSON Schema file, or schema name from the config file, the result must match")
}

func addBodyFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("data", "d", "", "Request body; JSON is sent as JSON, @file reads a file, @- reads stdin")
}

// withBody returns a step reading the --data flag into the request body.
func withBody(cmd *cobra.Command) func(*requestPlan) error {
	return func(plan *requestPlan) error {
		data, _ := cmd.Flags().GetString("data")
		body, err := parseBody(data, cmd.InOrStdin())
		if err != nil {
			return err
		}
		plan.body = body
		return nil
	}
}

// runVerb builds a request from the command line and executes it.
func runVerb(cmd *cobra.Command, args []string, method string, customize func(*requestPlan) error) error {
	var target string
	if len(args) > 0 {
		target = args[0]
	}

	s, target, err := newSession(cmd, target, false)
	if err != nil {
		return err
	}

	rawQuery, _ := cmd.Flags().GetStringArray("query")
	params, err := parseQuery(rawQuery)
	if err != nil {
		return err
	}

	plan := requestPlan{
		method: method,
		path:   target,
		query:  params,
	}
	plan.transform, _ = cmd.Flags().GetString("transform")
	plan.schema, _ = cmd.Flags().GetString("schema")

	if customize != nil {
		if err := customize(&plan); err != nil {
			return err
		}
	}

	return s.execute(cmd.Context(), plan)
}
