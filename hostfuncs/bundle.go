package hostfuncs

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering a whole suite at once.
type HostFuncBundle interface {
	// Functions returns the functions of the bundle.
	Functions() []Function
}

// staticBundle implements HostFuncBundle with a fixed set of functions.
type staticBundle struct {
	functions []Function
}

func (b *staticBundle) Functions() []Function {
	return b.functions
}

// PropertyBundle returns the property suite.
func PropertyBundle() HostFuncBundle {
	return &staticBundle{functions: PropertySuiteFunctions()}
}

// ParameterBundle returns the parameter suite.
func ParameterBundle() HostFuncBundle {
	return &staticBundle{functions: ParameterSuiteFunctions()}
}

// ImageEffectBundle returns the image effect suite.
func ImageEffectBundle() HostFuncBundle {
	return &staticBundle{functions: ImageEffectSuiteFunctions()}
}

// MemoryBundle returns the memory suite.
func MemoryBundle() HostFuncBundle {
	return &staticBundle{functions: MemorySuiteFunctions()}
}

// MessageBundle returns the message suite.
func MessageBundle() HostFuncBundle {
	return &staticBundle{functions: MessageSuiteFunctions()}
}

// MultiThreadBundle returns the single-threaded multi-thread suite.
func MultiThreadBundle() HostFuncBundle {
	return &staticBundle{functions: MultiThreadSuiteFunctions()}
}

// compositeBundle combines multiple bundles into one.
type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Functions() []Function {
	var result []Function
	for _, bundle := range b.bundles {
		result = append(result, bundle.Functions()...)
	}
	return result
}

// AllBundles returns every v1 suite plus fetchSuite.
func AllBundles() HostFuncBundle {
	return &compositeBundle{
		bundles: []HostFuncBundle{
			&staticBundle{functions: HostFunctions()},
			PropertyBundle(),
			ParameterBundle(),
			ImageEffectBundle(),
			MemoryBundle(),
			MessageBundle(),
			MultiThreadBundle(),
		},
	}
}

// WithSuite registers all functions from a bundle.
func WithSuite(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for _, f := range bundle.Functions() {
			if err := b.addFunction(f); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}

// DefaultRegistry builds the registry served to wasm guests: every suite,
// wrapped in panic recovery and call logging.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(
		WithMiddleware(PanicRecoveryMiddleware(), LoggingMiddleware()),
		WithSuite(AllBundles()),
	)
}
