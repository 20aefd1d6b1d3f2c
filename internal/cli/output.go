package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // store or domain failure: unknown question, unreachable backend
	ExitCommandError = 2 // the invocation itself is wrong: config, seed file
)

// Codes carried in error envelopes.
const (
	ErrCodeConfig   = "E001"
	ErrCodeStore    = "E002"
	ErrCodeNotFound = "E003" // chapter, question or topic
	ErrCodeInvalid  = "E004" // selection out of range or session transition
	ErrCodeData     = "E005" // document or seed file shape
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Exit builds an ExitError; err may be nil.
func Exit(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// GetExitCode maps a command error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}

// Envelope is the JSON shape of every command result.
type Envelope struct {
	Status string     `json:"status"` // ok | error
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed command in an Envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as JSON envelopes or plain text.
// Diagnostics go to Diag, or to Writer when Diag is nil.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Diag    io.Writer
	Verbose bool
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

// Success reports data. In text mode render draws it; without a render
// func the value is printed as is.
func (f *OutputFormatter) Success(data any, render func(w io.Writer)) error {
	switch {
	case f.json():
		return json.NewEncoder(f.Writer).Encode(Envelope{Status: "ok", Data: data})
	case render != nil:
		render(f.Writer)
	default:
		fmt.Fprintln(f.Writer, data)
	}
	return nil
}

// Error reports a failure. Details are shown in text mode only with --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.json() {
		body := &ErrorBody{Code: code, Message: message, Details: details}
		return json.NewEncoder(f.Writer).Encode(Envelope{Status: "error", Error: body})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Verbosef prints a diagnostic line when --verbose is set.
func (f *OutputFormatter) Verbosef(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.diag(), format+"\n", args...)
	}
}

func (f *OutputFormatter) diag() io.Writer {
	if f.Diag != nil {
		return f.Diag
	}
	return f.Writer
}
