// =============================================================================
// costco-tk - Workbook Writer
// =============================================================================
//
// This module renders processed documents into one .xlsx workbook, one sheet
// per document, named after the document label.
//
// SHEET STRUCTURE:
//
//   | invoiceNumber | ... | amount   | storeKey | storeName     |   <- detail
//   | A0555XX1234   | ... | 600.00   | 0555     | Example Store |
//   | SHORT01       | ... | 10.00    | 0000     |               |   <- review
//   |               |     |          |          |               |
//   |               |     |          |          |               |
//   | storeName     | amount   |                                    <- summary
//   | Example Store | 1,000.00 |
//   |               |          |
//   | Total         | 1,010.00 |
//   | Date          | 03-15    |
//   | check number  | 778899   |
//
// Detail rows whose first cell is short (ReviewMarkerWidth characters or
// fewer) are written without a store name so they stand out for manual
// review.
//
// =============================================================================

package xlsxwriter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

// ErrNoSheets is returned by Save when nothing was added.
var ErrNoSheets = errors.New("workbook has no sheets")

const (
	maxSheetName = 31

	// builtin number format "#,##0.00"
	amountNumFmt = 4

	defaultSheet = "Sheet1"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls the sheet layout.
type Options struct {
	// ReviewMarkerWidth is the longest first cell whose store name is left
	// blank. Zero disables the rule.
	ReviewMarkerWidth int
}

// Sheet is everything rendered for one document.
type Sheet struct {
	Label   types.Label
	Table   types.ResolvedTable
	Summary types.Summary
}

// =============================================================================
// WRITER
// =============================================================================

// Writer accumulates sheets in memory until Save.
type Writer struct {
	file        *excelize.File
	opts        Options
	amountStyle int
	names       map[string]bool
	sheets      []string
}

// New creates an empty workbook.
func New(opts Options) (*Writer, error) {
	f := excelize.NewFile()

	style, err := f.NewStyle(&excelize.Style{NumFmt: amountNumFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	return &Writer{
		file:        f,
		opts:        opts,
		amountStyle: style,
		names:       make(map[string]bool),
	}, nil
}

// Sheets returns the names of the sheets added so far, in order.
func (w *Writer) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

// AddSheet renders s into a new sheet and returns the sheet name used.
func (w *Writer) AddSheet(s Sheet) (string, error) {
	name := w.uniqueName(s.Label.Text)

	if len(w.sheets) == 0 {
		if err := w.file.SetSheetName(defaultSheet, name); err != nil {
			return "", fmt.Errorf("failed to name sheet %q: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return "", fmt.Errorf("failed to create sheet %q: %w", name, err)
	}
	w.names[strings.ToLower(name)] = true
	w.sheets = append(w.sheets, name)

	sw := sheetWriter{file: w.file, sheet: name, amountStyle: w.amountStyle, row: 1}
	if err := sw.detail(s.Table, w.opts.ReviewMarkerWidth); err != nil {
		return "", err
	}
	sw.skip(2)
	if err := sw.summary(s.Summary); err != nil {
		return "", err
	}
	sw.skip(1)
	if err := sw.footer(s.Summary.Total, s.Label); err != nil {
		return "", err
	}

	return name, nil
}

// Save writes the workbook to path.
func (w *Writer) Save(path string) error {
	if len(w.sheets) == 0 {
		return ErrNoSheets
	}
	if idx, err := w.file.GetSheetIndex(w.sheets[0]); err == nil && idx >= 0 {
		w.file.SetActiveSheet(idx)
	}
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (w *Writer) Close() error {
	return w.file.Close()
}

// uniqueName turns a label into a valid sheet name not used yet. Excel sheet
// names are case-insensitive, at most 31 characters and cannot contain
// : \ / ? * [ ].
func (w *Writer) uniqueName(label string) string {
	base := SheetName(label)
	name := base
	for n := 2; w.names[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	return name
}

// SheetName sanitizes s for use as a sheet name.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, "'")
	if s == "" {
		s = "document"
	}
	return truncate(s, maxSheetName)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// =============================================================================
// SHEET RENDERING
// =============================================================================

type sheetWriter struct {
	file        *excelize.File
	sheet       string
	amountStyle int
	row         int
}

func (sw *sheetWriter) skip(n int) {
	sw.row += n
}

// put writes values starting at column A of the current row and styles the
// columns listed in amountCols.
func (sw *sheetWriter) put(values []interface{}, amountCols ...int) error {
	cell, err := excelize.CoordinatesToCellName(1, sw.row)
	if err != nil {
		return err
	}
	if err := sw.file.SetSheetRow(sw.sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", sw.row, err)
	}
	for _, col := range amountCols {
		ref, err := excelize.CoordinatesToCellName(col+1, sw.row)
		if err != nil {
			return err
		}
		if err := sw.file.SetCellStyle(sw.sheet, ref, ref, sw.amountStyle); err != nil {
			return fmt.Errorf("failed to style %s: %w", ref, err)
		}
	}
	sw.row++
	return nil
}

func (sw *sheetWriter) detail(t types.ResolvedTable, reviewWidth int) error {
	header := make([]interface{}, len(t.Columns))
	amountCol := -1
	for i, c := range t.Columns {
		header[i] = c
		if c == types.ColumnAmount {
			amountCol = i
		}
	}
	if err := sw.put(header); err != nil {
		return err
	}

	for _, r := range t.Rows {
		values := make([]interface{}, 0, len(r.Cells)+2)
		for i, c := range r.Cells {
			if i == amountCol {
				values = append(values, r.Amount.InexactFloat64())
				continue
			}
			values = append(values, c)
		}

		name := r.StoreName
		if reviewWidth > 0 && len(r.Cells) > 0 && utf8.RuneCountInString(r.Cells[0]) <= reviewWidth {
			name = ""
		}
		values = append(values, r.StoreKey, name)

		var styled []int
		if amountCol >= 0 {
			styled = append(styled, amountCol)
		}
		if err := sw.put(values, styled...); err != nil {
			return err
		}
	}
	return nil
}

func (sw *sheetWriter) summary(s types.Summary) error {
	if err := sw.put([]interface{}{types.ColumnStoreName, types.ColumnAmount}); err != nil {
		return err
	}
	for _, e := range s.Entries {
		if err := sw.put([]interface{}{e.StoreName, e.TotalAmount.InexactFloat64()}, 1); err != nil {
			return err
		}
	}
	return nil
}

func (sw *sheetWriter) footer(total decimal.Decimal, label types.Label) error {
	if err := sw.put([]interface{}{"Total", total.InexactFloat64()}, 1); err != nil {
		return err
	}
	if err := sw.put([]interface{}{"Date", label.Date}); err != nil {
		return err
	}
	return sw.put([]interface{}{"check number", label.Reference})
}
