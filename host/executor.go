package host

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"

	"github.com/gosuri/uitable"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
)

// Report summarises one Execute call.
type Report struct {
	// Executed counts commands that ran, whether or not they failed.
	Executed int
	Errors   []*errors.CommandError
	// Halted is set when a fatal error stopped the script early.
	Halted bool
}

// Fatal reports whether any command failed fatally.
func (r *Report) Fatal() bool {
	for _, e := range r.Errors {
		if e.Fatal {
			return true
		}
	}
	return false
}

// Err joins every command error, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return stdErrors.Join(errs...)
}

// MarshalJSON encodes the report with each error in its structured form.
func (r *Report) MarshalJSON() ([]byte, error) {
	details := make([]*errors.ErrorDetail, len(r.Errors))
	for i, e := range r.Errors {
		details[i] = e.ToErrorDetail()
	}
	return json.Marshal(struct {
		Executed int                   `json:"executed"`
		Halted   bool                  `json:"halted"`
		Fatal    bool                  `json:"fatal"`
		Errors   []*errors.ErrorDetail `json:"errors"`
	}{r.Executed, r.Halted, r.Fatal(), details})
}

// Execute runs cmds in order. A recoverable failure is recorded and the
// next command runs; a fatal failure is recorded and stops the script.
func (h *Host) Execute(ctx context.Context, cmds []entities.Command) *Report {
	report := &Report{}
	for i, cmd := range cmds {
		err := h.runCommand(ctx, cmd)
		report.Executed++
		if err == nil {
			continue
		}
		ce := &errors.CommandError{Err: err, Type: cmd.CommandType(), Index: i, Fatal: h.isFatal(cmd, err)}
		report.Errors = append(report.Errors, ce)
		h.logger.ErrorContext(ctx, "command failed",
			"index", i, "type", cmd.CommandType(), "fatal", ce.Fatal, "error", err)
		if ce.Fatal {
			report.Halted = i < len(cmds)-1
			break
		}
	}
	return report
}

// isFatal classifies a command failure. Creation failures leave later
// commands without the state they depend on; a missing plugin or instance
// means the script itself is wrong.
func (h *Host) isFatal(cmd entities.Command, err error) bool {
	if h.config.strict {
		return true
	}
	switch cmd.CommandType() {
	case entities.CmdCreatePlugin, entities.CmdCreateFilter:
		return true
	}
	var nf *errors.NotFoundError
	if stdErrors.As(err, &nf) && (nf.Kind == "plugin" || nf.Kind == "instance") {
		return true
	}
	var de *errors.DefectError
	return stdErrors.As(err, &de)
}

func (h *Host) runCommand(ctx context.Context, cmd entities.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asDefect(r)
		}
	}()

	switch c := cmd.(type) {
	case *entities.CreatePlugin:
		_, err = h.CreatePlugin(ctx, c.BundleName, c.PluginName)
	case *entities.CreateFilter:
		_, err = h.CreateFilter(ctx, c.PluginName, c.InstanceName)
	case *entities.SetParams:
		err = h.SetParams(ctx, c.InstanceName, c.Values, c.CallInstanceChanged)
	case *entities.RenderFilter:
		err = h.RenderFilter(ctx, c.InstanceName, c.InputFile, c.OutputFile, c.Layout)
	case *entities.DestroyInstance:
		err = h.DestroyInstance(ctx, c.InstanceName)
	case *entities.UnloadPlugin:
		err = h.UnloadPlugin(ctx, c.PluginName)
	case *entities.ListPlugins:
		err = h.printPlugins(ctx, c.BundleName)
	case *entities.Describe:
		err = h.printDescriptor(ctx, c.BundleName, c.PluginName)
	case *entities.DescribeFilter:
		err = h.printFilterDescriptor(ctx, c.BundleName, c.PluginName)
	case *entities.PrintParams:
		err = h.printParams(c.InstanceName)
	case *entities.PrintRoIs:
		err = h.printRegionsOfInterest(ctx, c)
	case *entities.PrintRoD:
		err = h.printRegionOfDefinition(ctx, c)
	case *entities.ConfigureMessageSuiteResponses:
		err = h.ConfigureMessageSuiteResponses(c.InstanceName, c.Responses)
	case *entities.SetHostProperties:
		h.SetHostProperties(c.Props)
	default:
		err = fmt.Errorf("unsupported command %T", cmd)
	}
	return err
}

// ConfigureMessageSuiteResponses queues the replies to questions the
// instance posts. Names are OK, Yes, No and Failed.
func (h *Host) ConfigureMessageSuiteResponses(instanceName string, responses []string) error {
	inst, err := h.registry.Instance(instanceName)
	if err != nil {
		return err
	}
	replies := make([]entities.Status, len(responses))
	for i, name := range responses {
		st, ok := entities.MessageResponseStatus(name)
		if !ok {
			return &errors.ValidationError{Field: fmt.Sprintf("responses[%d]", i), Err: fmt.Errorf("unknown response %q", name)}
		}
		replies[i] = st
	}
	h.state.QueueResponses(inst.Handle, replies)
	return nil
}

// SetHostProperties replaces entries of the host property set. Plugins
// loaded afterwards see the new values.
func (h *Host) SetHostProperties(props map[string][]entities.HostPropertyValue) {
	for _, name := range sortedKeys(props) {
		vals := make([]entities.Value, len(props[name]))
		for i, v := range props[name] {
			vals[i] = v.Value
		}
		h.state.HostProps.Define(name, vals...)
	}
}

func (h *Host) printPlugins(ctx context.Context, bundleName string) error {
	plugins, err := h.ListPlugins(ctx, bundleName)
	if err != nil {
		return err
	}
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("INDEX", "IDENTIFIER", "VERSION", "API")
	for i, p := range plugins {
		major, minor := p.Version()
		table.AddRow(i, p.Identifier(), fmt.Sprintf("%d.%d", major, minor), fmt.Sprintf("%s v%d", p.API(), p.APIVersion()))
	}
	_, err = fmt.Fprintln(h.config.out, table)
	return err
}

// ensurePlugin returns a registered plugin, creating it from bundleName
// when needed.
func (h *Host) ensurePlugin(ctx context.Context, bundleName, pluginName string) (*LoadedPlugin, error) {
	if lp, err := h.registry.Plugin(pluginName); err == nil {
		return lp, nil
	}
	return h.CreatePlugin(ctx, bundleName, pluginName)
}

func (h *Host) printDescriptor(ctx context.Context, bundleName, pluginName string) error {
	lp, err := h.ensurePlugin(ctx, bundleName, pluginName)
	if err != nil {
		return err
	}
	return h.printJSON(lp.Descriptor.Props)
}

func (h *Host) printFilterDescriptor(ctx context.Context, bundleName, pluginName string) error {
	lp, err := h.ensurePlugin(ctx, bundleName, pluginName)
	if err != nil {
		return err
	}
	filter, err := h.describeFilter(ctx, lp)
	if err != nil {
		return err
	}
	return h.printJSON(filter)
}

func (h *Host) printParams(instanceName string) error {
	inst, err := h.registry.Instance(instanceName)
	if err != nil {
		return err
	}
	return h.printJSON(inst.Effect.Params)
}

func (h *Host) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(h.config.out, string(data))
	return err
}
