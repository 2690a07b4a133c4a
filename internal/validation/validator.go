// =============================================================================
// costco-tk - Table Validation
// =============================================================================
//
// This module checks the shape of a stitched table before resolution.
//
// VALIDATION STRATEGY:
//   1. Table-level: the columns the resolver needs must exist (fatal)
//   2. Row-level: ragged source rows and empty invoice references (warnings)
//
// Errors are collected, not returned one at a time, so a single run reports
// every problem of a document.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// RequiredColumns are needed by the resolver and the aggregator.
var RequiredColumns = []string{types.ColumnInvoiceNumber, types.ColumnAmount}

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	Severity string

	// Row is the 1-based data row, 0 for table-level findings.
	Row int

	Column  string
	Value   string
	Message string

	// Err is the sentinel a fatal finding maps to.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("[%s] column '%s': %s", strings.ToUpper(e.Severity), e.Column, e.Message)
	}
	return fmt.Sprintf("[%s] row %d, column '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity), e.Row, e.Column, e.Message, e.Value)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	Errors []*ValidationError

	ErrorCount   int
	WarningCount int
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// Err returns the first fatal finding as a *types.RowError, or nil.
func (r *ValidationResult) Err() error {
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			return &types.RowError{Row: e.Row, Column: e.Column, Value: e.Value, Err: e.Err}
		}
	}
	return nil
}

// Warnings returns the non-fatal findings.
func (r *ValidationResult) Warnings() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks a stitched table. raw are the rows as extracted, before
// padding; pass nil to skip the ragged-row check.
//
// A table without rows is valid whatever its columns: an empty document
// produces an empty report.
func Validate(t types.LogicalTable, raw []types.RawRow) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	if t.Len() == 0 {
		return result
	}

	for _, col := range RequiredColumns {
		if t.ColumnIndex(col) < 0 {
			result.add(&ValidationError{
				Severity: SeverityError,
				Column:   col,
				Message:  fmt.Sprintf("required column missing (have %s)", strings.Join(t.Columns, ", ")),
				Err:      types.ErrMissingColumn,
			})
		}
	}
	if !result.IsValid {
		return result
	}

	width := len(t.Columns)
	for i, row := range raw {
		if len(row) != width {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Row:      i + 1,
				Message:  fmt.Sprintf("row has %d cells, header has %d", len(row), width),
			})
		}
	}

	for i := range t.Rows {
		if v := t.Value(i, types.ColumnInvoiceNumber); v == "" {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Row:      i + 1,
				Column:   types.ColumnInvoiceNumber,
				Message:  "empty invoice reference",
			})
		}
	}

	return result
}

// FormatErrors formats validation findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))
	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}
