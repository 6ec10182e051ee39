package paraminject

import (
	"fmt"
	"strings"
)

type invalidInputError struct {
	message string
}

var _ error = &invalidInputError{}

func newInvalidInputError(msg string) *invalidInputError {
	return &invalidInputError{msg}
}

func (e *invalidInputError) Error() string { return e.message }

// UnknownParameterError is returned when no source provides a parameter name.
//
// EagerDispatch returns it as soon as the name is met, before invoking the callable.
// Under Dispatch it is returned only when a capability is invoked on the Unknown
// marker standing in for the parameter; Capability then holds the invoked capability.
type UnknownParameterError struct {
	Name       string
	Capability string
	lazy       bool
}

var _ error = &UnknownParameterError{}

func newUnknownParameterError(name string) *UnknownParameterError {
	return &UnknownParameterError{Name: name}
}

func newUninjectedCallError(name, capability string) *UnknownParameterError {
	return &UnknownParameterError{Name: name, Capability: capability, lazy: true}
}

func (e *UnknownParameterError) Error() string {
	if e.lazy {
		return "Tried to call capability on an uninjected parameter: " + e.Name
	}
	return e.Name
}

// CyclicDependencyError is returned when a name is requested again while its own
// resolution is still in progress within the same top-level dispatch, or when
// dispatches nest deeper than Limit.
type CyclicDependencyError struct {
	Path  []string
	Limit int // set when the nesting limit was reached
}

var _ error = &CyclicDependencyError{}

func newCyclicDependencyError(inProgress []string, name string) *CyclicDependencyError {
	path := make([]string, 0, len(inProgress)+1)
	path = append(path, inProgress...)
	return &CyclicDependencyError{Path: append(path, name)}
}

func newNestingLimitError(inProgress []string, limit int) *CyclicDependencyError {
	return &CyclicDependencyError{Path: append([]string(nil), inProgress...), Limit: limit}
}

func (e *CyclicDependencyError) Error() string {
	if e.Limit == 0 {
		return "cyclic dependency detected: " + strings.Join(e.Path, " -> ")
	}
	msg := fmt.Sprintf("cyclic dependency detected: more than %d nested dispatches", e.Limit)
	if len(e.Path) > 0 {
		msg += " while resolving " + strings.Join(e.Path, " -> ")
	}
	return msg
}

type argumentError struct {
	name  string
	cause error
}

var _ error = &argumentError{}

func newArgumentError(name string, cause error) *argumentError {
	return &argumentError{name, cause}
}

func (e *argumentError) Error() string {
	return fmt.Sprintf("Got error while binding parameter %q:\n%s", e.name, e.cause)
}

func (e *argumentError) Unwrap() error { return e.cause }

type injectorConfigurationError struct {
	message string
	cause   error
}

var _ error = &injectorConfigurationError{}

func newInjectorConfigurationError(message string, cause error) *injectorConfigurationError {
	return &injectorConfigurationError{message, cause}
}

func (e *injectorConfigurationError) Error() string {
	if e.cause == nil {
		return e.message
	} else {
		return fmt.Sprintf("%s:\n%s", e.message, e.cause)
	}
}

func (e *injectorConfigurationError) Unwrap() error { return e.cause }
