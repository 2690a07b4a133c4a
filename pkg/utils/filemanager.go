// =============================================================================
// costco-tk - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the processing run:
//   - Input document discovery
//   - Output workbook naming
//   - Error log and run summary generation
//
// OUTPUT NAMING:
//   Placeholders in the configured output file name:
//     {month}     - Month and year, e.g. "January 2026"
//     {date}      - Current date (YYYYMMDD)
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {uuid}      - A random UUID
//   The name always ends in .xlsx. An existing workbook is never overwritten
//   unless forced.
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

// ErrOutputExists is returned by OutputPath when the workbook already exists.
var ErrOutputExists = errors.New("output file already exists")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a processing run.
type FileManager struct {
	// InputDir is scanned for documents when none are named explicitly.
	InputDir string

	// OutputDir receives the workbook and the logs.
	OutputDir string

	// MaxDocuments caps the number of documents per run. Zero means no cap.
	MaxDocuments int
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir string, maxDocuments int) *FileManager {
	return &FileManager{
		InputDir:     inputDir,
		OutputDir:    outputDir,
		MaxDocuments: maxDocuments,
	}
}

// EnsureDirectories creates the output directory if it does not exist.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// SelectInputFiles returns the documents to process: args when given,
// otherwise every .pdf file in InputDir sorted by name. The list is capped at
// MaxDocuments; skipped reports how many documents were left out.
func (fm *FileManager) SelectInputFiles(args []string) (files []string, skipped int, err error) {
	if len(args) > 0 {
		for _, a := range args {
			info, err := os.Stat(a)
			if err != nil {
				return nil, 0, fmt.Errorf("input %s: %w", a, err)
			}
			if info.IsDir() {
				return nil, 0, fmt.Errorf("input %s is a directory", a)
			}
		}
		files = append(files, args...)
	} else {
		files, err = fm.DiscoverInputFiles()
		if err != nil {
			return nil, 0, err
		}
	}

	if fm.MaxDocuments > 0 && len(files) > fm.MaxDocuments {
		skipped = len(files) - fm.MaxDocuments
		files = files[:fm.MaxDocuments]
	}
	return files, skipped, nil
}

// DiscoverInputFiles lists the .pdf files directly inside InputDir, sorted by
// name. The extension match is case-insensitive.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		result = append(result, filepath.Join(fm.InputDir, e.Name()))
	}
	sort.Strings(result)

	return result, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands the placeholders of format at now.
//
// EXAMPLE:
//
//	format: "{month}_costco_output.xlsx"
//	output: "January 2026_costco_output.xlsx"
func GenerateOutputFileName(format string, now time.Time) string {
	replacements := []string{
		"{month}", now.Format("January 2006"),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{uuid}", uuid.New().String(),
	}
	result := strings.NewReplacer(replacements...).Replace(format)

	if !strings.HasSuffix(strings.ToLower(result), ".xlsx") {
		result += ".xlsx"
	}
	return result
}

// OutputPath joins name onto OutputDir. Absolute names and names with a
// directory part are used as given. Unless force is set, an existing file
// yields ErrOutputExists.
func (fm *FileManager) OutputPath(name string, force bool) (string, error) {
	path := name
	if !filepath.IsAbs(name) && filepath.Dir(name) == "." {
		path = filepath.Join(fm.OutputDir, name)
	}
	if !force && FileExists(path) {
		return path, fmt.Errorf("%w: %s", ErrOutputExists, path)
	}
	return path, nil
}

// NewRunID returns an identifier for one processing run.
func NewRunID() string {
	return uuid.New().String()
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp     time.Time
	FileName      string
	ErrorType     string
	ErrorMessage  string
	RowNumber     int
	FieldName     string
	FieldValue    string
	InvoiceNumber string
}

// ErrorEntries breaks a document failure into log entries, one per
// unresolved row when the failure is a resolution error.
func ErrorEntries(file string, err error, at time.Time) []ErrorLogEntry {
	if err == nil {
		return nil
	}

	var resErr *types.ResolutionError
	if errors.As(err, &resErr) {
		entries := make([]ErrorLogEntry, 0, len(resErr.Rows))
		for _, r := range resErr.Rows {
			entries = append(entries, ErrorLogEntry{
				Timestamp:     at,
				FileName:      file,
				ErrorType:     "unresolved store",
				ErrorMessage:  fmt.Sprintf("%s (key %s)", r.Outcome, r.Key),
				RowNumber:     r.Row,
				InvoiceNumber: r.InvoiceNumber,
			})
		}
		return entries
	}

	entry := ErrorLogEntry{
		Timestamp:    at,
		FileName:     file,
		ErrorType:    errorType(err),
		ErrorMessage: err.Error(),
	}
	var rowErr *types.RowError
	if errors.As(err, &rowErr) {
		entry.RowNumber = rowErr.Row
		entry.FieldName = rowErr.Column
		entry.FieldValue = rowErr.Value
	}
	return []ErrorLogEntry{entry}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, types.ErrInvalidAmount):
		return "invalid amount"
	case errors.Is(err, types.ErrMissingColumn):
		return "missing column"
	case errors.Is(err, types.ErrMalformedDirectory):
		return "store directory"
	default:
		return "processing"
	}
}

// WriteErrorLog writes error entries to a log file in outputDir and returns
// its path. Nothing is written when entries is empty.
func WriteErrorLog(entries []ErrorLogEntry, outputDir, runID string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "costco-tk - Error Log\n"+
		"Run:          %s\n"+
		"Generated:    %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		runID,
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  File:           %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.InvoiceNumber != "" {
			fmt.Fprintf(writer, "  Invoice:        %s\n", entry.InvoiceNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
