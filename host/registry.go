package host

import (
	"slices"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/hostfuncs"
)

// LoadedPlugin is a plugin that has been loaded and described.
type LoadedPlugin struct {
	Name   string
	Plugin ports.Plugin
	// Descriptor is the effect filled in by the Describe action.
	Descriptor *entities.Effect
	// Filter is the descriptor filled in by DescribeInContext, nil until
	// the first filter instance or DescribeFilter needs it.
	Filter *entities.Effect

	bundle           *loadedBundle
	descriptorHandle hostfuncs.Handle
	filterHandle     hostfuncs.Handle
}

// Instance is a live filter instance.
type Instance struct {
	Name   string
	Plugin *LoadedPlugin
	Effect *entities.Effect
	Handle hostfuncs.Handle
}

// Registry maps command-file names to loaded plugins and live instances.
type Registry struct {
	plugins   map[string]*LoadedPlugin
	instances map[string]*Instance
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:   make(map[string]*LoadedPlugin),
		instances: make(map[string]*Instance),
	}
}

// Plugin looks up a loaded plugin by name.
func (r *Registry) Plugin(name string) (*LoadedPlugin, error) {
	p, ok := r.plugins[name]
	if !ok {
		return nil, &errors.NotFoundError{Kind: "plugin", Name: name}
	}
	return p, nil
}

// Instance looks up a live instance by name.
func (r *Registry) Instance(name string) (*Instance, error) {
	inst, ok := r.instances[name]
	if !ok {
		return nil, &errors.NotFoundError{Kind: "instance", Name: name}
	}
	return inst, nil
}

// HasPlugin reports whether a plugin is registered under name.
func (r *Registry) HasPlugin(name string) bool {
	_, ok := r.plugins[name]
	return ok
}

// AddPlugin registers p under its name.
func (r *Registry) AddPlugin(p *LoadedPlugin) error {
	if _, ok := r.plugins[p.Name]; ok {
		return &errors.ExistsError{Kind: "plugin", Name: p.Name}
	}
	r.plugins[p.Name] = p
	return nil
}

// AddInstance registers inst under its name.
func (r *Registry) AddInstance(inst *Instance) error {
	if _, ok := r.instances[inst.Name]; ok {
		return &errors.ExistsError{Kind: "instance", Name: inst.Name}
	}
	r.instances[inst.Name] = inst
	return nil
}

// RemovePlugin deregisters a plugin.
func (r *Registry) RemovePlugin(name string) {
	delete(r.plugins, name)
}

// RemoveInstance deregisters an instance.
func (r *Registry) RemoveInstance(name string) {
	delete(r.instances, name)
}

// PluginNames returns registered plugin names, sorted.
func (r *Registry) PluginNames() []string {
	return sortedKeys(r.plugins)
}

// InstanceNames returns live instance names, sorted.
func (r *Registry) InstanceNames() []string {
	return sortedKeys(r.instances)
}

// LiveInstances returns the names of instances created from plugin, sorted.
func (r *Registry) LiveInstances(plugin string) []string {
	var out []string
	for name, inst := range r.instances {
		if inst.Plugin.Name == plugin {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
