package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Capability kinds.
const (
	KindTool     = "tool"
	KindPrompt   = "prompt"
	KindResource = "resource"
)

// Build errors. Build wraps each problem with one of these.
var (
	ErrEmptyName         = errors.New("name is required")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrMissingHandler    = errors.New("handler is required")
	ErrInvalidDefinition = errors.New("invalid definition")
)

// NotFoundError reports a lookup for an unregistered capability.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// MissingArgumentsError lists required arguments absent from a call, in
// declaration order.
type MissingArgumentsError struct {
	Names []string
}

func (e *MissingArgumentsError) Error() string {
	return "missing required arguments: " + strings.Join(e.Names, ", ")
}

// InvalidArgumentsError reports a call rejected before its handler ran.
type InvalidArgumentsError struct {
	Kind string
	Name string
	Err  error
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *InvalidArgumentsError) Unwrap() error { return e.Err }

// ExecutionFailedError reports a handler that returned an error or panicked.
// Err is nil for panics.
type ExecutionFailedError struct {
	Kind    string
	Name    string
	Message string
	Err     error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("%s %q failed: %s", e.Kind, e.Name, e.Message)
}

func (e *ExecutionFailedError) Unwrap() error { return e.Err }

// UnexpectedResultError reports a handler result the registry cannot render.
type UnexpectedResultError struct {
	Kind   string
	Name   string
	Reason string
}

func (e *UnexpectedResultError) Error() string {
	return fmt.Sprintf("%s %q returned an unexpected result: %s", e.Kind, e.Name, e.Reason)
}
