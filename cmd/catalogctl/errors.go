package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/recordset"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "show", "validate", "apply")
	Cause       string   // The underlying cause (e.g., "source not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation string, underlying error) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       "configuration error",
		Details:     underlying.Error(),
		Suggestions: []string{CommonSuggestions.CheckConfig, CommonSuggestions.RunConfig},
		Underlying:  underlying,
	}
}

// NewValidationError reports sources whose records do not validate
func NewValidationError(operation string, invalid []string, errorCount int) *CLIError {
	return &CLIError{
		Operation: operation,
		Cause:     fmt.Sprintf("%d validation error(s) in %s", errorCount, strings.Join(invalid, ", ")),
		Suggestions: []string{
			"Run 'catalogctl show <source> --invalid' to list the failing records",
		},
	}
}

// WrapError wraps an existing error with CLI-friendly context, recognizing
// the catalog and controller error kinds
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}

	out := &CLIError{Operation: operation, Details: err.Error(), Underlying: err}
	var (
		loadErr   *recordset.LoadError
		submitErr *recordset.SubmitError
		failed    *recordset.ValidationFailedError
	)
	switch {
	case errors.Is(err, catalogapi.ErrSourceNotFound):
		out.Cause = "source not found"
		out.Suggestions = []string{CommonSuggestions.CheckSource, CommonSuggestions.ListSources}
	case errors.As(err, &failed):
		out.Cause = "records do not validate"
		out.Suggestions = []string{"Run 'catalogctl validate <source>' for details"}
	case errors.Is(err, recordset.ErrModeConflict):
		out.Cause = "operation not allowed in the current mode"
		out.Suggestions = []string{"Commit or cancel batch configuration before reordering or submitting"}
	case errors.As(err, &submitErr):
		out.Cause = "catalog rejected the submission"
		out.Suggestions = []string{CommonSuggestions.CheckBackend}
	case errors.As(err, &loadErr):
		out.Cause = "could not load records"
		out.Suggestions = []string{CommonSuggestions.CheckBackend}
	case errors.Is(err, recordset.ErrUnknownEvent):
		out.Cause = "unknown event in script"
		out.Suggestions = []string{"Event types: " + strings.Join(eventTypes, ", ")}
	default:
		out.Cause = "operation failed"
	}
	return out
}

// Common error messages and suggestions
var (
	CommonSuggestions = struct {
		CheckSource  string
		ListSources  string
		CheckConfig  string
		RunConfig    string
		CheckBackend string
	}{
		CheckSource:  "Verify the source id (business form or catalog id)",
		ListSources:  "Run 'catalogctl sources' to see stored sources",
		CheckConfig:  "Check dsg.yaml, DSG_CONFIG or DSG_* environment variables",
		RunConfig:    "Run 'catalogctl config' to print the resolved settings",
		CheckBackend: "Check that the catalog API or store file is reachable (--api-url, --store)",
	}
)
