// Package errors provides the host's domain error types.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is implemented by error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to a structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// CommandError is a failure of one command-file entry.
type CommandError struct {
	Err   error
	Type  entities.CommandType
	Index int
	Fatal bool
}

func (e *CommandError) Error() string {
	severity := "error"
	if e.Fatal {
		severity = "fatal error"
	}
	return fmt.Sprintf("command %d (%s): %s: %v", e.Index, e.Type, severity, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *CommandError) ToErrorDetail() *entities.ErrorDetail {
	inner := ToErrorDetail(e.Err)
	return &entities.ErrorDetail{
		Message: fmt.Sprintf("command %d (%s) failed", e.Index, e.Type),
		Type:    "command",
		Code:    string(e.Type),
		Fatal:   e.Fatal,
		Wrapped: inner,
		Details: map[string]any{"index": e.Index},
	}
}

// StatusError reports an action that returned a non-success status.
type StatusError struct {
	Action string
	Target string
	Status entities.Status
}

func (e *StatusError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("action %s on %s returned %s", e.Action, e.Target, e.Status)
	}
	return fmt.Sprintf("action %s returned %s", e.Action, e.Status)
}

// ToErrorDetail implements DetailedError.
func (e *StatusError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "status", Code: e.Status.String()}
}

// NotFoundError reports a reference to a plugin, instance, bundle or
// parameter that is not registered.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// ToErrorDetail implements DetailedError.
func (e *NotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "not_found", Code: e.Kind}
}

// ExistsError reports a name that is already registered.
type ExistsError struct {
	Kind string
	Name string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// ToErrorDetail implements DetailedError.
func (e *ExistsError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "state", Code: "exists"}
}

// StateError reports an operation attempted in the wrong lifecycle state.
type StateError struct {
	Operation string
	Instance  string
	State     entities.State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s instance %q in state %s", e.Operation, e.Instance, e.State)
}

// ToErrorDetail implements DetailedError.
func (e *StateError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "state", Code: e.State.String()}
}

// BundleError reports a bundle that could not be opened or is malformed.
type BundleError struct {
	Err    error
	Bundle string
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("bundle %q: %v", e.Bundle, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *BundleError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "bundle", Code: e.Bundle}
}

// CodecError reports an image that could not be decoded or encoded.
type CodecError struct {
	Err       error
	Path      string
	Operation string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *CodecError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "codec", Code: e.Operation}
}

// DefectError is a broken host invariant, such as a handle whose kind tag
// matches but whose object has the wrong type. It is always fatal.
type DefectError struct {
	Message string
}

func (e *DefectError) Error() string {
	return "host defect: " + e.Message
}

// ToErrorDetail implements DetailedError.
func (e *DefectError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "defect"}
}

// ValidationError reports a command or manifest that failed validation.
type ValidationError struct {
	Err   error
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ValidationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: e.Field}
}

// IsFatal reports whether err carries a fatal classification.
func IsFatal(err error) bool {
	var ce *CommandError
	if stdErrors.As(err, &ce) {
		return ce.Fatal
	}
	var de *DefectError
	return stdErrors.As(err, &de)
}
