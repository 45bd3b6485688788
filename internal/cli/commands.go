package cli

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/ofxdriver/ofxdriver/application/schema"
	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/host"
)

func newRunCommand(a *app) *cobra.Command {
	var (
		sets       []string
		reportPath string
	)
	cmd := &cobra.Command{
		Use:   "run <commands.json>",
		Short: "Execute a command script",
		Long: heredoc.Doc(`
			Execute a JSON command script. The script is rendered as a Go template
			first, so {{.vars.name}} expands to a variable from the config file or
			--set, and {{json .vars.name}} to its JSON encoding.

			A fatal command error stops the script and exits 1. Recoverable errors
			are reported and the script continues. A script that cannot be read,
			rendered or validated exits 64.`),
		Example: heredoc.Doc(`
			ofxdriver run --plugin-path ./bundles invert.json
			ofxdriver run --set input=in.exr --set output=out.exr render.json`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds, err := a.loadScript(args[0], sets)
			if err != nil {
				return err
			}
			return a.execute(cmd.Context(), cmds, reportPath)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "template variable key=value (repeatable)")
	cmd.Flags().StringVar(&reportPath, "report", "", "write the run report as JSON to this file")
	return cmd
}

func newCheckCommand(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "check <commands.json>",
		Short: "Validate a command script without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cmds, err := a.loadScript(args[0], sets)
			if err != nil {
				return err
			}
			table := uitable.New()
			table.AddRow("INDEX", "TYPE")
			for i, c := range cmds {
				table.AddRow(i, c.CommandType())
			}
			fmt.Fprintln(a.out, table.String())
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "template variable key=value (repeatable)")
	return cmd
}

// loadScript reads, renders and validates a command script.
func (a *app) loadScript(path string, sets []string) ([]entities.Command, error) {
	cfg, err := loadConfig(a.v)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	vars, err := mergeVars(cfg.Vars, sets)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExitError{Code: ExitBadCommandFile, Err: fmt.Errorf("failed to read command file: %w", err)}
	}
	cmds, err := host.NewLoader().LoadCommands(raw, vars)
	if err != nil {
		return nil, &ExitError{Code: ExitBadCommandFile, Err: fmt.Errorf("%s: %w", path, err)}
	}
	return cmds, nil
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <bundle>",
		Short: "List the plugins of a bundle",
		Example: heredoc.Doc(`
			ofxdriver list builtin.ofx
			ofxdriver list --plugin-path ./bundles blur`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), []entities.Command{
				&entities.ListPlugins{Type: entities.CmdListPlugins, BundleName: args[0]},
			}, "")
		},
	}
}

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <bundle> <plugin>",
		Short: "Load a plugin and print its descriptor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), []entities.Command{
				&entities.Describe{Type: entities.CmdDescribe, BundleName: args[0], PluginName: args[1]},
			}, "")
		},
	}
}

func newDescribeFilterCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe-filter <bundle> <plugin>",
		Short: "Load a plugin and print its filter-context descriptor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), []entities.Command{
				&entities.DescribeFilter{Type: entities.CmdDescribeFilter, BundleName: args[0], PluginName: args[1]},
			}, "")
		},
	}
}

func newSchemaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the command script format",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			data, err := schema.NewCommandRegistry().CommandFileSchema()
			if err != nil {
				return &ExitError{Code: ExitFatal, Err: err}
			}
			fmt.Fprintln(a.out, string(data))
			return nil
		},
	}
}
