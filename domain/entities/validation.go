package entities

// ValidationResult is the outcome of checking a whole command file.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError is one problem found in a command file. Field locates
// the entry, e.g. "[3]" or "[3].instance_name".
type ValidationError struct {
	Field   string
	Message string
}
