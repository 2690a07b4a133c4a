package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors of the processing pipeline. Callers match them with
// errors.Is; the typed errors below carry the context.
var (
	// ErrMalformedDirectory is the configuration error raised while building
	// the store directory. It aborts the run before any document is read.
	ErrMalformedDirectory = errors.New("malformed store directory")

	// ErrUnresolvedKey is raised when rows stay unresolved after both passes.
	ErrUnresolvedKey = errors.New("store key unresolved after both passes")

	// ErrInvalidAmount is raised when an amount cell cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrMissingColumn is raised when a non-empty table lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// RowError reports a failure tied to one data row.
type RowError struct {
	// Row is the 1-based data row number (header excluded).
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	if e.Row <= 0 {
		return fmt.Sprintf("column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("row %d, column %q (value %q): %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// UnresolvedRow identifies a row whose store key could not be resolved.
type UnresolvedRow struct {
	Row           int
	InvoiceNumber string
	Key           string
	Outcome       Outcome
}

// ResolutionError lists every row left unresolved after the second pass.
type ResolutionError struct {
	Rows []UnresolvedRow
}

func (e *ResolutionError) Error() string {
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		parts = append(parts, fmt.Sprintf("row %d %q (key %s, %s)", r.Row, r.InvoiceNumber, r.Key, r.Outcome))
	}
	return fmt.Sprintf("%v: %s", ErrUnresolvedKey, strings.Join(parts, "; "))
}

func (e *ResolutionError) Unwrap() error {
	return ErrUnresolvedKey
}

// DocumentError wraps a fatal error with the identity of the document.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
