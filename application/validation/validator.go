package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	domainerrors "github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// CommandValidator checks command-file entries against the JSON schemas of
// a schema registry, then checks decoded values with struct tags.
type CommandValidator struct {
	registry ports.SchemaRegistry
	structs  *validator.Validate

	mu       sync.Mutex
	compiler *jsonschema.Compiler
	compiled map[entities.CommandType]*jsonschema.Schema
}

var _ ports.CommandValidator = (*CommandValidator)(nil)

// NewCommandValidator creates a validator over registry.
func NewCommandValidator(registry ports.SchemaRegistry) *CommandValidator {
	return &CommandValidator{
		registry: registry,
		structs:  validator.New(validator.WithRequiredStructEnabled()),
		compiler: jsonschema.NewCompiler(),
		compiled: make(map[entities.CommandType]*jsonschema.Schema),
	}
}

func (v *CommandValidator) schemaFor(t entities.CommandType) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if sch, ok := v.compiled[t]; ok {
		return sch, nil
	}

	kind := string(t)
	schemaStr, ok := v.registry.GetSchema(kind)
	if !ok {
		return nil, fmt.Errorf("no schema registered for command %s", kind)
	}
	url := "mem://commands/" + kind + ".json"
	if err := v.compiler.AddResource(url, strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource for %s: %w", kind, err)
	}
	sch, err := v.compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", kind, err)
	}
	v.compiled[t] = sch
	return sch, nil
}

// ValidateRaw checks one raw command object against the schema of its type.
func (v *CommandValidator) ValidateRaw(t entities.CommandType, raw []byte) error {
	sch, err := v.schemaFor(t)
	if err != nil {
		return &domainerrors.ValidationError{Field: "type", Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj interface{}
	if err := dec.Decode(&obj); err != nil {
		return &domainerrors.ValidationError{Err: fmt.Errorf("failed to prepare validation object: %w", err)}
	}

	if err := sch.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &domainerrors.ValidationError{Field: fieldOf(ve), Err: errors.New(leafMessage(ve))}
		}
		return &domainerrors.ValidationError{Err: err}
	}
	return nil
}

// Validate checks the struct tags of a decoded command.
func (v *CommandValidator) Validate(cmd entities.Command) error {
	if err := v.structs.Struct(cmd); err != nil {
		return structError(err)
	}
	if r, ok := cmd.(*entities.ConfigureMessageSuiteResponses); ok {
		for i, name := range r.Responses {
			if _, ok := entities.MessageResponseStatus(name); !ok {
				return &domainerrors.ValidationError{
					Field: fmt.Sprintf("responses[%d]", i),
					Err:   fmt.Errorf("unknown response %q", name),
				}
			}
		}
	}
	return nil
}

// ValidateManifest checks a bundle manifest.
func (v *CommandValidator) ValidateManifest(m *entities.BundleManifest) error {
	if err := v.structs.Struct(m); err != nil {
		return structError(err)
	}
	return nil
}

// CheckFile validates every entry of a command file without stopping at
// the first failure.
func (v *CommandValidator) CheckFile(data []byte) *entities.ValidationResult {
	result := &entities.ValidationResult{Valid: true}
	fail := func(field, msg string) {
		result.Valid = false
		result.Errors = append(result.Errors, entities.ValidationError{Field: field, Message: msg})
	}

	if !gjson.ValidBytes(data) {
		fail("", "command file is not valid JSON")
		return result
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		fail("", "command file must be a JSON array")
		return result
	}

	for i, entry := range root.Array() {
		field := fmt.Sprintf("[%d]", i)
		typ := entry.Get("type")
		if !entry.IsObject() || typ.Type != gjson.String {
			fail(field, "entry must be an object with a string \"type\"")
			continue
		}
		t := entities.CommandType(typ.String())
		cmd, ok := entities.NewCommand(t)
		if !ok {
			fail(field, fmt.Sprintf("unknown command type %q", typ.String()))
			continue
		}
		if err := v.ValidateRaw(t, []byte(entry.Raw)); err != nil {
			fail(field, err.Error())
			continue
		}
		if err := json.Unmarshal([]byte(entry.Raw), cmd); err != nil {
			fail(field, err.Error())
			continue
		}
		if err := v.Validate(cmd); err != nil {
			fail(field, err.Error())
		}
	}
	return result
}

func structError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &domainerrors.ValidationError{
			Field: fe.Namespace(),
			Err:   fmt.Errorf("failed on the '%s' rule", fe.Tag()),
		}
	}
	return &domainerrors.ValidationError{Err: err}
}

// leafMessage descends to the deepest cause, which names the failing
// keyword instead of the generic "doesn't validate" wrapper.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve.Message
}

func fieldOf(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return strings.TrimPrefix(ve.InstanceLocation, "/")
}
