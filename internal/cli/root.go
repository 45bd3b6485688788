package cli

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/host"
	"github.com/ofxdriver/ofxdriver/infrastructure/bundle"
	ofxwazero "github.com/ofxdriver/ofxdriver/infrastructure/wazero"
	"github.com/ofxdriver/ofxdriver/log"
	"github.com/ofxdriver/ofxdriver/plugins/builtin"
)

// Version is reported as the host version. Overridden by ldflags.
var Version = host.DefaultVersion

// app carries what every subcommand needs.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the ofxdriver command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}
	root := &cobra.Command{
		Use:   "ofxdriver",
		Short: "Drive OpenFX-style image effect plugins from command scripts",
		Long: heredoc.Doc(`
			ofxdriver loads image effect plugin bundles, instantiates their filters
			and renders single frames through them, as directed by a JSON command
			script. It is meant for exercising plugins under dynamic-analysis tools.

			Bundles are looked up in the builtin catalog first, then as
			<name>.bundle directories on the plugin path.`),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	addGlobalFlags(root.PersistentFlags())
	root.PersistentPreRunE = func(*cobra.Command, []string) error {
		return bindFlags(a.v, root.PersistentFlags())
	}

	root.AddCommand(
		newRunCommand(a),
		newCheckCommand(a),
		newListCommand(a),
		newDescribeCommand(a),
		newDescribeFilterCommand(a),
		newSchemaCommand(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if stdErrors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(errOut, "Error:", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(errOut, "Error:", err)
	return ExitUsage
}

// setup resolves configuration and the logger.
func (a *app) setup() (*Config, *slog.Logger, error) {
	cfg, err := loadConfig(a.v)
	if err != nil {
		return nil, nil, &ExitError{Code: ExitUsage, Err: err}
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	logger, err := log.New(a.errOut, cfg.LogFormat, level)
	if err != nil {
		return nil, nil, &ExitError{Code: ExitUsage, Err: err}
	}
	return cfg, logger, nil
}

func (a *app) newHost(cfg *Config, logger *slog.Logger) *host.Host {
	opener := bundle.NewOpener(
		bundle.WithSearchPaths(cfg.PluginPaths...),
		bundle.WithCatalog(builtin.Catalog),
		bundle.WithRuntimeOptions(ofxwazero.WithMemoryLimitPages(cfg.MaxGuestMemory*16)),
	)
	return host.New(
		host.WithOpener(opener),
		host.WithLogger(logger),
		host.WithOutput(a.out),
		host.WithStrict(cfg.Strict),
		host.WithVersion(Version),
	)
}

// execute runs cmds on a fresh host. A fatal command error becomes
// ExitFatal; recoverable ones are only logged. With reportPath set, the
// run report is written there as JSON.
func (a *app) execute(ctx context.Context, cmds []entities.Command, reportPath string) error {
	cfg, logger, err := a.setup()
	if err != nil {
		return err
	}
	h := a.newHost(cfg, logger)
	report := h.Execute(ctx, cmds)
	if err := h.Close(ctx); err != nil {
		logger.WarnContext(ctx, "failed to shut down host", "error", err)
	}
	logger.DebugContext(ctx, "script finished",
		"executed", report.Executed,
		"total", len(cmds),
		"errors", len(report.Errors),
		"halted", report.Halted,
	)
	if reportPath != "" {
		if err := writeReport(reportPath, report); err != nil {
			return &ExitError{Code: ExitFatal, Err: err}
		}
	}
	if report.Fatal() {
		return &ExitError{Code: ExitFatal, Err: report.Err()}
	}
	return nil
}

func writeReport(path string, report *host.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}
