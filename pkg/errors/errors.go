// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed error handling for a2alite.
//
// Dispatch, coercion and auth failures are reported as *Error values carrying a
// Code discriminator; the dispatcher renders them to the structured wire shape
// with Response(). Plain errors are wrapped as CodeSkillFailure at the boundary.
package errors

import (
	"encoding/json"
	"fmt"
)

// Code classifies a2alite errors for dispatch and reporting.
type Code string

const (
	// CodeNoSkill indicates no skill name was given and more than one is registered.
	CodeNoSkill Code = "NO_SKILL"

	// CodeUnknownSkill indicates the requested skill is not registered.
	CodeUnknownSkill Code = "UNKNOWN_SKILL"

	// CodeInvalidParams indicates parameter coercion or validation failed.
	CodeInvalidParams Code = "INVALID_PARAMS"

	// CodeUnauthorized indicates authentication failed or was missing.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeRateLimited indicates the rate limit middleware rejected the call.
	CodeRateLimited Code = "RATE_LIMITED"

	// CodeSkillFailure indicates the skill handler itself returned an error.
	CodeSkillFailure Code = "SKILL_FAILURE"

	// CodeToolNotFound indicates a delegated MCP tool does not exist.
	CodeToolNotFound Code = "TOOL_NOT_FOUND"

	// CodeInternal indicates an internal system error.
	CodeInternal Code = "INTERNAL_ERROR"
)

// FieldError describes a single failed parameter during coercion.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a typed error with the context required to build a structured
// wire response. It implements the error interface and supports errors.As.
type Error struct {
	Code    Code
	Message string
	Err     error

	// AvailableSkills is populated for NO_SKILL and UNKNOWN_SKILL.
	AvailableSkills []string

	// Fields is populated for INVALID_PARAMS.
	Fields []FieldError

	// Scheme names the auth scheme for UNAUTHORIZED responses.
	Scheme string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the given code, message, and cause.
func New(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Err: cause}
}

// Newf creates a new Error with a formatted message and no cause.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSkills attaches the list of registered skill names.
// Returns the error for method chaining.
func (e *Error) WithSkills(names []string) *Error {
	e.AvailableSkills = names
	return e
}

// WithField appends a field-level validation error.
// Returns the error for method chaining.
func (e *Error) WithField(field, message string) *Error {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// WithScheme records the auth scheme the caller should have used.
func (e *Error) WithScheme(scheme string) *Error {
	e.Scheme = scheme
	return e
}

// Response renders the structured error mapping emitted on the wire.
// Every response carries at least "error" and "type".
func (e *Error) Response() map[string]any {
	resp := map[string]any{
		"error": e.Message,
		"type":  string(e.Code),
	}
	if e.Err != nil {
		resp["error"] = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if len(e.AvailableSkills) > 0 {
		resp["available_skills"] = e.AvailableSkills
	}
	if len(e.Fields) > 0 {
		resp["validation_errors"] = e.Fields
	}
	if e.Scheme != "" {
		resp["scheme"] = e.Scheme
	}
	return resp
}

// MarshalJSON implements json.Marshaler so an *Error serializes to its
// wire response shape.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Response())
}

// As attempts to convert an error to an *Error, wrapping unknown errors
// as CodeSkillFailure.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*Error); ok {
		return ae
	}
	return New(CodeSkillFailure, err.Error(), err)
}

// HTTPStatus maps error codes to HTTP status codes for transport glue.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeUnknownSkill, CodeToolNotFound:
		return 404
	case CodeUnauthorized:
		return 401
	case CodeInvalidParams, CodeNoSkill:
		return 400
	case CodeRateLimited:
		return 429
	default:
		return 500
	}
}
