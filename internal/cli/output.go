package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
	"github.com/roach88/factstore/internal/relation"
	"github.com/roach88/factstore/internal/seed"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query ran but found nothing (recent, endpoints, debug rm)
	ExitCommandError = 2 // Command error (bad arguments, store cannot open, write failed, etc.)
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeUsage       = "E002" // Invalid flag or argument
	ErrCodeConnection  = "E003" // Store could not be opened
	ErrCodeNotFound    = "E004" // No matching fact
	ErrCodeQueryShape  = "E005" // Unsupported query shape
	ErrCodeWriteFailed = "E006" // Insert rejected or failed
	ErrCodeSeed        = "E007" // Seed file could not be loaded
	ErrCodeCancelled   = "E008" // Interrupted
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// errorCode maps an error to its CLI error code and message.
func errorCode(err error) (string, string) {
	switch {
	case errors.Is(err, itemstore.ErrConnection):
		return ErrCodeConnection, err.Error()
	case errors.Is(err, itemstore.ErrNotFound):
		return ErrCodeNotFound, err.Error()
	case errors.Is(err, itemstore.ErrUnsupportedQueryShape), errors.Is(err, relation.ErrNoFilters):
		return ErrCodeQueryShape, err.Error()
	case errors.Is(err, itemstore.ErrWrite), errors.Is(err, relation.ErrInvalidEdge):
		return ErrCodeWriteFailed, err.Error()
	case errors.Is(err, seed.ErrInvalidRecord), errors.Is(err, seed.ErrDigestMismatch), errors.Is(err, seed.ErrUnknownFormat):
		return ErrCodeSeed, err.Error()
	case errors.Is(err, itemstore.ErrUnknownDrive), errors.Is(err, errUsage):
		return ErrCodeUsage, err.Error()
	case errors.Is(err, context.Canceled):
		return ErrCodeCancelled, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// errUsage marks argument errors found after cobra's own parsing.
var errUsage = errors.New("invalid argument")

func usageError(format string, args ...any) error {
	return WrapExitError(ExitCommandError, fmt.Sprintf(format, args...), errUsage)
}

// exitFor wraps err with the exit code its category implies.
func exitFor(message string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, itemstore.ErrNotFound) {
		return WrapExitError(ExitFailure, message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}

// FactsResult is the JSON payload of commands that list facts.
type FactsResult struct {
	Count int       `json:"count"`
	Facts []ir.Fact `json:"facts"`
}

// writeFacts prints a collection, one fact per line in text mode.
func (f *OutputFormatter) writeFacts(c *ir.FactsCollection) error {
	if f.Format == "json" {
		return f.Success(FactsResult{Count: c.Len(), Facts: c.Facts()})
	}
	if c.Empty() {
		fmt.Fprintln(f.Writer, "No facts")
		return nil
	}
	for _, fact := range c.Facts() {
		fmt.Fprintln(f.Writer, fact)
	}
	return nil
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
