package ports

// SchemaRegistry holds the JSON schema of each command type.
type SchemaRegistry interface {
	// Register adds a schema generated from a Go struct.
	Register(kind string, model interface{}) error

	// GetSchema retrieves the JSON Schema for a command type.
	GetSchema(kind string) (string, bool)

	// List returns all registered command type names.
	List() []string
}
