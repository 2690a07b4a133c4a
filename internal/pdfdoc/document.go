// =============================================================================
// costco-tk - PDF Backend
// =============================================================================
//
// This package implements extract.Document on top of github.com/dslipak/pdf.
//
// The PDF text layer only knows glyphs and their positions. A page is turned
// into a table in three steps:
//   1. glyphs are grouped into rows by baseline (GetTextByRow)
//   2. glyphs of a row are merged into phrases using gaps relative to the
//      font size
//   3. the header line fixes the column spans and the lines below it are
//      split into those columns until a stop line or the page footer
//
// Continuation pages that do not repeat the header reuse the column spans of
// the previous page, so pages must be read in order.
//
// =============================================================================

package pdfdoc

import (
	"fmt"
	"os"

	"github.com/dslipak/pdf"

	"github.com/chaotic-justice/costco-tk/internal/config"
	"github.com/chaotic-justice/costco-tk/internal/extract"
)

// Opener opens PDF files as extract.Documents.
type Opener struct {
	layout Layout
}

// NewOpener creates an Opener using the table markers of cfg.
func NewOpener(cfg config.ExtractionConfig) *Opener {
	return &Opener{layout: Layout{
		HeaderMarkers: cfg.HeaderMarkers,
		StopMarkers:   cfg.StopMarkers,
	}}
}

// Open implements extract.Opener.
func (o *Opener) Open(path string) (extract.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	return &document{file: file, reader: reader, layout: o.layout}, nil
}

type document struct {
	file   *os.File
	reader *pdf.Reader
	layout Layout

	// cols are the columns of the last page that had a table.
	cols *Columns
}

func (d *document) NumPage() int {
	return d.reader.NumPage()
}

// Page reads the text rows of page n. The pdf package panics on some
// malformed content streams; those panics become errors.
func (d *document) Page(n int) (p extract.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("malformed page content: %v", r)
		}
	}()

	// Reader.Page does not return for n just past the last page.
	if n < 1 || n > d.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", n, d.NumPage())
	}

	pg := d.reader.Page(n)
	if pg.V.IsNull() {
		return &page{}, nil
	}

	rows, err := pg.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("failed to read text rows: %w", err)
	}

	grouped := make([]rowGlyphs, 0, len(rows))
	for _, row := range rows {
		grouped = append(grouped, rowGlyphs{
			y:     float64(row.Position),
			texts: append([]pdf.Text(nil), row.Content...),
		})
	}

	ls := lines(grouped)
	table, cols := d.layout.Table(ls, d.cols)
	if cols != nil {
		d.cols = cols
	}

	return &page{lines: ls, table: table}, nil
}

func (d *document) Close() error {
	return d.file.Close()
}

type page struct {
	lines []Line
	table [][]string
}

func (p *page) Lines() ([]string, error) {
	out := make([]string, len(p.lines))
	for i, l := range p.lines {
		out[i] = l.Text()
	}
	return out, nil
}

func (p *page) Table() ([][]string, error) {
	return p.table, nil
}
