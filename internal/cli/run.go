package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/peach/internal/config"
	"github.com/wesleyorama2/peach/pkg/query"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run REQUEST",
		Short: "Run a request saved in the config file",
		Long: `Run a request saved in the config file. Variables of the selected
environment are substituted in its path, id, query, headers and body.`,
		Example: `  peach run listHeroes --env dev
  peach run --config peach.yaml --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, _ := cmd.Flags().GetBool("list")
			configPath, _ := cmd.Flags().GetString("config")

			if list {
				profile, err := loadProfile(configPath, true)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(requestNames(profile), "\n"))
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("a request name is required")
			}

			s, _, err := newSession(cmd, "", true)
			if err != nil {
				return err
			}

			if err := config.ValidateRequest(s.profile, args[0]); err != nil {
				return err
			}

			return s.execute(cmd.Context(), savedPlan(s.profile.Requests[args[0]], s.env.Vars))
		},
	}

	cmd.Flags().Bool("list", false, "List the saved requests")
	return cmd
}

// savedPlan turns a saved request into a requestPlan, substituting vars.
func savedPlan(req config.Request, vars map[string]string) requestPlan {
	plan := requestPlan{
		method:    strings.ToUpper(req.Method),
		path:      config.ProcessEnvironment(req.Path, vars),
		id:        config.ProcessEnvironment(req.ID, vars),
		headers:   config.ProcessEnvironmentInMap(req.Headers, vars),
		body:      config.ProcessValue(req.Body, vars),
		extract:   req.Extract,
		transform: req.Transform,
		schema:    req.Schema,
		cancelKey: req.Cancel,
	}

	if len(req.Query) > 0 {
		plan.query = query.Params(config.ProcessValue(req.Query, vars).(map[string]interface{}))
	}

	return plan
}

func requestNames(profile *config.Config) []string {
	names := make([]string, 0, len(profile.Requests))
	for name := range profile.Requests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
