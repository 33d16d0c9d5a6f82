package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/karmapos/internal/auth"
	"github.com/roach88/karmapos/internal/backup"
	"github.com/roach88/karmapos/internal/history"
	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/prompt"
	"github.com/roach88/karmapos/internal/sections"
	"github.com/roach88/karmapos/internal/session"
	"github.com/roach88/karmapos/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation refused (wrong password, declined prompt, bad backup file)
	ExitCommandError = 2 // Command error (database unavailable, unknown id, invalid input)
)

// Error codes printed with failures.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeStoreUnavailable = "E002" // Database could not be opened
	ErrCodeNotFound         = "E003" // Unknown section, item or invoice
	ErrCodeInvalidInput     = "E004" // Rejected argument or record
	ErrCodeWrongPassword    = "E005" // Password mismatch
	ErrCodeDeclined         = "E006" // Confirmation declined or another prompt pending
	ErrCodeImportParse      = "E007" // Backup document failed validation
	ErrCodePermission       = "E008" // Backup path not writable
	ErrCodeLocked           = "E009" // Screen is locked
)

// ExitError represents an error with a specific exit code.
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

// classify maps a domain error to its error code and exit code.
func classify(err error) (string, int) {
	var parseErr *backup.ParseError
	var invalid model.ValidationError
	switch {
	case errors.Is(err, store.ErrStoreUnavailable):
		return ErrCodeStoreUnavailable, ExitCommandError
	case errors.Is(err, store.ErrNotFound), errors.Is(err, sections.ErrUnknownSection), errors.Is(err, session.ErrNotActive):
		return ErrCodeNotFound, ExitCommandError
	case errors.Is(err, auth.ErrWrongPassword):
		return ErrCodeWrongPassword, ExitFailure
	case errors.Is(err, auth.ErrLocked):
		return ErrCodeLocked, ExitFailure
	case errors.Is(err, prompt.ErrDeclined), errors.Is(err, prompt.ErrPending):
		return ErrCodeDeclined, ExitFailure
	case errors.As(err, &parseErr):
		return ErrCodeImportParse, ExitFailure
	case errors.Is(err, backup.ErrPermissionDenied):
		return ErrCodePermission, ExitFailure
	case errors.As(err, &invalid),
		errors.Is(err, store.ErrExists),
		errors.Is(err, sections.ErrBuiltinSection),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, session.ErrEmptyInvoice),
		errors.Is(err, session.ErrWrongTemplate),
		errors.Is(err, session.ErrInvalidPrice),
		errors.Is(err, session.ErrInvalidTime),
		errors.Is(err, history.ErrInvalidRange),
		errors.Is(err, errInvalidArgument):
		return ErrCodeInvalidInput, ExitCommandError
	default:
		return ErrCodeGeneric, ExitFailure
	}
}

// errInvalidArgument marks a rejected command-line value.
var errInvalidArgument = errors.New("invalid argument")

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Emit writes data as a JSON envelope, or calls text for human output.
func (f *OutputFormatter) Emit(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	return text(f.Writer)
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
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

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail prints err with its error code and returns the matching ExitError.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := classify(err)

	var details any
	var parseErr *backup.ParseError
	if errors.As(err, &parseErr) {
		details = map[string]any{"path": parseErr.Path, "line": parseErr.Line, "column": parseErr.Column}
	}

	if outErr := f.Error(code, fmt.Sprintf("%s: %v", message, err), details); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, message, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
