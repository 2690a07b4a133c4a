package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chaotic-justice/costco-tk/internal/config"
	"github.com/chaotic-justice/costco-tk/internal/directory"
	"github.com/chaotic-justice/costco-tk/internal/extract"
	"github.com/chaotic-justice/costco-tk/internal/pdfdoc"
	"github.com/chaotic-justice/costco-tk/internal/types"
	"github.com/chaotic-justice/costco-tk/internal/xlsxwriter"
)

type fakePage struct {
	lines []string
	table [][]string
}

func (p fakePage) Lines() ([]string, error)   { return p.lines, nil }
func (p fakePage) Table() ([][]string, error) { return p.table, nil }

type fakeDoc struct {
	pages []fakePage
}

func (d *fakeDoc) NumPage() int                     { return len(d.pages) }
func (d *fakeDoc) Page(n int) (extract.Page, error) { return d.pages[n-1], nil }
func (d *fakeDoc) Close() error                     { return nil }

// library maps a path to a fake document; unknown paths fail to open.
type library map[string]*fakeDoc

func (l library) Open(path string) (extract.Document, error) {
	doc, ok := l[path]
	if !ok {
		return nil, errors.New("no such document")
	}
	return doc, nil
}

func remittance(rows ...[]string) *fakeDoc {
	table := append([][]string{{"Invoice\nNumber", "Amount"}}, rows...)
	return &fakeDoc{pages: []fakePage{{
		lines: []string{"Date: 03/15/2025", "Payment #: 778899"},
		table: table,
	}}}
}

func newPipeline(t *testing.T, docs extract.Opener) *Pipeline {
	t.Helper()
	logger, _ := test.NewNullLogger()

	dir, err := directory.Build([][]string{
		{"Example Store", "Seattle WA", "#555"},
		{"Harbor Point Warehouse", "Tacoma WA", "#101"},
	}, map[string]string{"0000": "Unknown"})
	require.NoError(t, err)

	p, err := New(config.DefaultConfig(), dir, docs, logger)
	require.NoError(t, err)
	return p
}

func TestProcess_EndToEnd(t *testing.T) {
	p := newPipeline(t, library{"a.pdf": remittance(
		[]string{"A0555XX1234", "600.00"},
		[]string{"A0555XX5678", "400.00"},
		[]string{"B0101XX0001", "1,250.50"},
	)})

	r := p.Process("a.pdf")
	require.NoError(t, r.Error)
	require.True(t, r.Success)

	assert.Equal(t, "03-15 #778899", r.Label.Text)
	assert.True(t, r.Label.Complete)
	assert.Equal(t, []string{"invoiceNumber", "amount", "storeKey", "storeName"}, r.Table.Columns)
	require.Equal(t, 3, r.Table.Len())
	assert.Equal(t, "0555", r.Table.Rows[0].StoreKey)
	assert.Equal(t, "Example Store", r.Table.Rows[0].StoreName)
	assert.Equal(t, "Harbor Point Warehouse", r.Table.Rows[2].StoreName)

	require.Len(t, r.Summary.Entries, 2)
	assert.Equal(t, "Example Store", r.Summary.Entries[0].StoreName)
	assert.Equal(t, "1000.00", r.Summary.Entries[0].TotalAmount.StringFixed(2))
	assert.Equal(t, "2250.50", r.Summary.Total.StringFixed(2))

	assert.Equal(t, 1, r.Stats.Pages)
	assert.Equal(t, 3, r.Stats.RowsExtracted)
}

func TestProcess_MultiPagePDF(t *testing.T) {
	p := newPipeline(t, pdfdoc.NewOpener(config.DefaultConfig().Extraction))

	r := p.Process(filepath.Join("..", "pdfdoc", "testdata", "remittance.pdf"))
	require.NoError(t, r.Error)
	require.True(t, r.Success)

	assert.Equal(t, "03-15 #778899", r.Label.Text)
	assert.Equal(t, 2, r.Stats.Pages)
	require.Equal(t, 3, r.Table.Len())
	assert.Equal(t, "A0555XX9999", r.Table.Rows[2].InvoiceNumber)

	require.Len(t, r.Summary.Entries, 2)
	assert.Equal(t, "Example Store", r.Summary.Entries[0].StoreName)
	assert.Equal(t, "1000.00", r.Summary.Entries[0].TotalAmount.StringFixed(2))
	assert.Equal(t, "2400.00", r.Summary.Total.StringFixed(2))
}

func TestProcess_Unresolved(t *testing.T) {
	p := newPipeline(t, library{"a.pdf": remittance(
		[]string{"A0555XX1234", "600.00"},
		[]string{"A9876XX1234", "10.00"},
	)})

	r := p.Process("a.pdf")
	assert.False(t, r.Success)

	var docErr *types.DocumentError
	require.ErrorAs(t, r.Error, &docErr)
	assert.Equal(t, "a.pdf", docErr.Path)

	var resErr *types.ResolutionError
	require.ErrorAs(t, r.Error, &resErr)
	require.Len(t, resErr.Rows, 1)
	assert.Equal(t, "A9876XX1234", resErr.Rows[0].InvoiceNumber)
	assert.ErrorIs(t, r.Error, types.ErrUnresolvedKey)

	assert.Empty(t, r.Summary.Entries)
}

func TestProcess_NoDigitsUsesUnknown(t *testing.T) {
	p := newPipeline(t, library{"a.pdf": remittance(
		[]string{"CREDITMEMOXX", "-5.00"},
	)})

	r := p.Process("a.pdf")
	require.NoError(t, r.Error)
	assert.Equal(t, "Unknown", r.Table.Rows[0].StoreName)
	assert.Equal(t, 1, r.Stats.NoDigitRows)
}

func TestProcess_EmptyDocument(t *testing.T) {
	p := newPipeline(t, library{"empty.pdf": &fakeDoc{}})

	r := p.Process("empty.pdf")
	require.NoError(t, r.Error)
	assert.True(t, r.Success)
	assert.Zero(t, r.Table.Len())
	assert.Empty(t, r.Summary.Entries)
	assert.True(t, r.Summary.Total.IsZero())
	assert.Equal(t, "no-date #no-ref", r.Label.Text)
	assert.False(t, r.Label.Complete)
}

func TestProcess_MissingAmountColumn(t *testing.T) {
	doc := &fakeDoc{pages: []fakePage{{
		table: [][]string{{"Invoice\nNumber", "Total Due"}, {"A0555XX1234", "1.00"}},
	}}}
	p := newPipeline(t, library{"a.pdf": doc})

	r := p.Process("a.pdf")
	assert.False(t, r.Success)
	assert.ErrorIs(t, r.Error, types.ErrMissingColumn)
}

func TestProcessAll(t *testing.T) {
	docs := library{
		"a.pdf": remittance([]string{"A0555XX1234", "1.00"}),
		"c.pdf": remittance([]string{"A0101XX1234", "2.00"}),
	}

	t.Run("stops at first failure", func(t *testing.T) {
		p := newPipeline(t, docs)
		results, err := p.ProcessAll(context.Background(), []string{"a.pdf", "missing.pdf", "c.pdf"}, false)
		require.Error(t, err)
		assert.Len(t, results, 2)
		assert.Equal(t, 1, Succeeded(results))
	})

	t.Run("continue on error", func(t *testing.T) {
		p := newPipeline(t, docs)
		results, err := p.ProcessAll(context.Background(), []string{"a.pdf", "missing.pdf", "c.pdf"}, true)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, 2, Succeeded(results))
		assert.False(t, results[1].Success)
	})

	t.Run("cancelled", func(t *testing.T) {
		p := newPipeline(t, docs)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results, err := p.ProcessAll(ctx, []string{"a.pdf"}, true)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, results)
	})
}

func TestWriteWorkbook(t *testing.T) {
	p := newPipeline(t, library{
		"a.pdf": remittance([]string{"A0555XX1234", "600.00"}),
	})
	results, err := p.ProcessAll(context.Background(), []string{"a.pdf", "missing.pdf"}, true)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	sheets, err := WriteWorkbook(results, path, xlsxwriter.Options{ReviewMarkerWidth: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"03-15 #778899"}, sheets)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("03-15 #778899", "D2")
	require.NoError(t, err)
	assert.Equal(t, "Example Store", v)
}

func TestWriteWorkbook_NothingSucceeded(t *testing.T) {
	_, err := WriteWorkbook([]Result{{FilePath: "x.pdf"}}, filepath.Join(t.TempDir(), "x.xlsx"), xlsxwriter.Options{})
	assert.ErrorIs(t, err, xlsxwriter.ErrNoSheets)
}
