// =============================================================================
// costco-tk - Page Text/Table Extractor
// =============================================================================
//
// The extractor walks the pages of one remittance document and collects:
//   - header metadata tokens (payment date, payment reference) from text lines
//   - the rows of every page table, with repeated page headers removed
//
// It does not know how a document is parsed. A backend (see internal/pdfdoc)
// provides Documents through an Opener; tests provide in-memory fakes.
//
// =============================================================================

package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chaotic-justice/costco-tk/internal/config"
	"github.com/chaotic-justice/costco-tk/internal/types"
)

// =============================================================================
// DOCUMENT ABSTRACTION
// =============================================================================

// Document is an opened, paged document.
type Document interface {
	// NumPage returns the number of pages.
	NumPage() int

	// Page returns page n, 1-based.
	Page(n int) (Page, error)

	Close() error
}

// Page is one page of a Document.
type Page interface {
	// Lines returns the text lines of the page, top to bottom.
	Lines() ([]string, error)

	// Table returns the table found on the page, row 0 being its header.
	// A page without a table returns nil.
	Table() ([][]string, error)
}

// Opener opens documents by path.
type Opener interface {
	Open(path string) (Document, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Document, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Document, error) {
	return f(path)
}

// =============================================================================
// EXTRACTION RESULT
// =============================================================================

// Extraction is everything collected from one document.
type Extraction struct {
	// Header is the table header of the first page that had a table.
	Header types.RawRow

	// Rows are the data rows of every page, in page order.
	Rows []types.RawRow

	Metadata types.DocumentMetadata

	// Pages is the number of pages read.
	Pages int
}

// =============================================================================
// EXTRACTOR
// =============================================================================

// Extractor reads documents through an Opener.
type Extractor struct {
	opener     Opener
	datePrefix string
	dateRe     *regexp.Regexp
	refRe      *regexp.Regexp
	log        logrus.FieldLogger
}

// New creates an Extractor. The date and reference patterns must carry one
// capture group.
func New(opener Opener, cfg config.ExtractionConfig, log logrus.FieldLogger) (*Extractor, error) {
	dateRe, err := regexp.Compile(cfg.DatePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid date pattern: %w", err)
	}
	refRe, err := regexp.Compile(cfg.ReferencePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid reference pattern: %w", err)
	}
	if dateRe.NumSubexp() < 1 || refRe.NumSubexp() < 1 {
		return nil, fmt.Errorf("date and reference patterns need a capture group")
	}

	return &Extractor{
		opener:     opener,
		datePrefix: cfg.DateLinePrefix,
		dateRe:     dateRe,
		refRe:      refRe,
		log:        log,
	}, nil
}

// Extract opens the document at path and collects its metadata and rows.
// The document is closed before Extract returns.
func (e *Extractor) Extract(path string) (ext *Extraction, err error) {
	doc, err := e.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close document: %w", cerr)
		}
	}()

	log := e.log.WithField("document", path)
	ext = &Extraction{Pages: doc.NumPage()}

	for n := 1; n <= ext.Pages; n++ {
		page, err := doc.Page(n)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}

		lines, err := page.Lines()
		if err != nil {
			return nil, fmt.Errorf("page %d: failed to read text: %w", n, err)
		}
		if found := e.scanMetadata(lines, n, &ext.Metadata); found == 0 {
			log.WithField("page", n).Warn("no date or payment reference on page")
		}

		table, err := page.Table()
		if err != nil {
			return nil, fmt.Errorf("page %d: failed to read table: %w", n, err)
		}
		e.appendTable(ext, table)
	}

	log.WithFields(logrus.Fields{
		"pages":  ext.Pages,
		"rows":   len(ext.Rows),
		"tokens": len(ext.Metadata.Tokens),
	}).Debug("document extracted")

	return ext, nil
}

// scanMetadata appends the tokens found in lines and returns how many were
// found. A reference line ends the scan of the page.
func (e *Extractor) scanMetadata(lines []string, page int, meta *types.DocumentMetadata) int {
	found := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, e.datePrefix) {
			if m := e.dateRe.FindStringSubmatch(line); m != nil {
				meta.Add(types.DateToken, strings.ReplaceAll(m[1], "/", "-"), page)
				found++
			}
			continue
		}

		if m := e.refRe.FindStringSubmatch(line); m != nil {
			meta.Add(types.ReferenceToken, m[1], page)
			found++
			break
		}
	}
	return found
}

// appendTable adds the rows of one page table. A trailing all-empty row is
// dropped; row 0 becomes the header the first time and is dropped afterwards.
func (e *Extractor) appendTable(ext *Extraction, table [][]string) {
	if len(table) == 0 {
		return
	}
	if types.RawRow(table[len(table)-1]).IsEmpty() {
		table = table[:len(table)-1]
	}
	if len(table) == 0 {
		return
	}

	if ext.Header == nil {
		ext.Header = types.RawRow(table[0]).Clone()
	}
	for _, row := range table[1:] {
		ext.Rows = append(ext.Rows, types.RawRow(row).Clone())
	}
}
