package entities

// BundleManifest is the Contents/Info.yaml of an on-disk bundle.
type BundleManifest struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Executable  string `json:"executable" yaml:"executable" validate:"required,endswith=.wasm"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// MemoryLimitPages caps the module's linear memory, in 64 KiB pages.
	MemoryLimitPages uint32 `json:"memory_limit_pages,omitempty" yaml:"memory_limit_pages,omitempty" validate:"omitempty,max=65536"`
}
