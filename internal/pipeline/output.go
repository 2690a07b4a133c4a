package pipeline

import (
	"fmt"

	"github.com/chaotic-justice/costco-tk/internal/xlsxwriter"
)

// WriteWorkbook renders every successful result as a sheet and saves the
// workbook at path. It returns the sheet names in result order.
func WriteWorkbook(results []Result, path string, opts xlsxwriter.Options) ([]string, error) {
	w, err := xlsxwriter.New(opts)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	for _, r := range results {
		if !r.Success {
			continue
		}
		if _, err := w.AddSheet(xlsxwriter.Sheet{Label: r.Label, Table: r.Table, Summary: r.Summary}); err != nil {
			return nil, fmt.Errorf("%s: %w", r.FilePath, err)
		}
	}

	if err := w.Save(path); err != nil {
		return nil, err
	}
	return w.Sheets(), nil
}

// Succeeded returns the number of successful results.
func Succeeded(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
