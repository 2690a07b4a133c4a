package directory

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

// EmbeddedSource is the Source of a directory built from the bundled table.
const EmbeddedSource = "embedded"

//go:embed data/stores.csv
var embeddedStores []byte

// Load builds the directory from path, or from the bundled table when path is
// empty. Files ending in .xlsx are read from their first sheet; anything else
// is read as CSV. Every failure wraps types.ErrMalformedDirectory.
func Load(path string, overrides map[string]string) (*Directory, error) {
	var (
		records [][]string
		err     error
	)

	switch {
	case path == "":
		records, err = ReadCSV(bytes.NewReader(embeddedStores))
		path = EmbeddedSource
	case strings.EqualFold(filepath.Ext(path), ".xlsx"):
		records, err = ReadXLSX(path)
	default:
		records, err = readCSVFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrMalformedDirectory, path, err)
	}

	d, err := Build(records, overrides)
	if err != nil {
		return nil, err
	}
	d.source = path
	return d, nil
}

// =============================================================================
// CSV SOURCE
// =============================================================================

func readCSVFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV reads a headerless directory table. Blank lines are skipped by the
// csv reader; rows may have differing widths.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

// =============================================================================
// XLSX SOURCE
// =============================================================================

// ReadXLSX reads the first sheet of a workbook. Empty rows are skipped and the
// remaining rows are padded to the widest row, since excelize drops trailing
// empty cells.
func ReadXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	width := 0
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if types.RawRow(row).IsEmpty() {
			continue
		}
		if len(row) > width {
			width = len(row)
		}
		records = append(records, row)
	}

	for i, row := range records {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			records[i] = padded
		}
	}

	return records, nil
}
