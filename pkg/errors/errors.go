// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Ergon.
package errors

import (
	stderrors "errors"
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Ergon errors for monitoring and caller branching.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeConfiguration indicates missing credentials or a missing required
	// resource detected at initialization. Fatal; surfaces immediately.
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// CodeNotFound indicates an unknown function id, registration token, or
	// other missing resource.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeRemoteService indicates a vector or LLM backend failure. The cause
	// is carried unmodified; the core never retries.
	CodeRemoteService ErrorCode = "REMOTE_SERVICE_ERROR"

	// CodeExecution indicates a function subprocess exited non-zero.
	CodeExecution ErrorCode = "EXECUTION_ERROR"

	// CodeParse indicates no balanced JSON region was found in subprocess
	// output.
	CodeParse ErrorCode = "PARSE_ERROR"

	// CodeShellBusy indicates a shell command was attempted while another
	// was still in flight.
	CodeShellBusy ErrorCode = "SHELL_BUSY"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// ErgonError is a typed error with structured context.
// It implements the error interface and can be unwrapped with errors.As().
type ErgonError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ErgonError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *ErgonError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured output surfaces.
func (e *ErgonError) MarshalJSON() ([]byte, error) {
	payload := struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Cause   string                 `json:"cause,omitempty"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	}
	if e.Err != nil {
		payload.Cause = e.Err.Error()
	}
	return json.Marshal(payload)
}

// New creates a new ErgonError with the given code and message.
func New(code ErrorCode, msg string) *ErgonError {
	return &ErgonError{
		Code:    code,
		Message: msg,
		Context: make(map[string]interface{}),
	}
}

// Wrap creates a new ErgonError carrying cause unmodified.
func Wrap(code ErrorCode, msg string, cause error) *ErgonError {
	return &ErgonError{
		Code:    code,
		Message: msg,
		Err:     cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *ErgonError) WithContext(key string, value interface{}) *ErgonError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// AsErgonError attempts to convert an error to an ErgonError.
// Returns the error as ErgonError if one is in the chain, or wraps it as
// CodeInternal otherwise.
func AsErgonError(err error) *ErgonError {
	if err == nil {
		return nil
	}
	var ee *ErgonError
	if stderrors.As(err, &ee) {
		return ee
	}
	return Wrap(CodeInternal, "wrapped error", err)
}

// IsErgonError reports whether any error in the chain is an ErgonError.
func IsErgonError(err error) bool {
	var ee *ErgonError
	return stderrors.As(err, &ee)
}

// CodeOf returns the code of the first ErgonError in the chain, or
// CodeInternal when none is present.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ee *ErgonError
	if stderrors.As(err, &ee) {
		return ee.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var ee *ErgonError
	if stderrors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}
