package ports

// TemplateEngine renders a command script with caller-supplied variables.
type TemplateEngine interface {
	// Render processes the raw script bytes with the provided variables.
	// Returns resolved bytes with all template placeholders replaced.
	Render(raw []byte, vars map[string]any) ([]byte, error)
}
