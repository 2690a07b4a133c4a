package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.pdf"))
	touch(t, filepath.Join(dir, "a.PDF"))
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0755))

	fm := NewFileManager(dir, t.TempDir(), 0)
	files, err := fm.DiscoverInputFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.pdf")}, files)
}

func TestDiscoverInputFiles_MissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "nope"), "", 0)
	_, err := fm.DiscoverInputFiles()
	assert.Error(t, err)
}

func TestSelectInputFiles_Cap(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		touch(t, filepath.Join(dir, fmt.Sprintf("doc%d.pdf", i)))
	}

	fm := NewFileManager(dir, "", 3)
	files, skipped, err := fm.SelectInputFiles(nil)
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, filepath.Join(dir, "doc0.pdf"), files[0])
}

func TestSelectInputFiles_Args(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "x.pdf")
	touch(t, doc)

	fm := NewFileManager("unused", "", 25)
	files, skipped, err := fm.SelectInputFiles([]string{doc})
	require.NoError(t, err)
	assert.Equal(t, []string{doc}, files)
	assert.Zero(t, skipped)

	_, _, err = fm.SelectInputFiles([]string{filepath.Join(dir, "missing.pdf")})
	assert.Error(t, err)

	_, _, err = fm.SelectInputFiles([]string{dir})
	assert.Error(t, err)
}

func TestGenerateOutputFileName(t *testing.T) {
	now := time.Date(2026, time.January, 5, 14, 30, 22, 0, time.UTC)

	tests := []struct {
		format string
		want   string
	}{
		{"{month}_costco_output.xlsx", "January 2026_costco_output.xlsx"},
		{"remit_{date}", "remit_20260105.xlsx"},
		{"remit_{timestamp}.XLSX", "remit_20260105_143022.XLSX"},
		{"plain.csv", "plain.csv.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputFileName(tt.format, now))
		})
	}

	t.Run("uuid", func(t *testing.T) {
		got := GenerateOutputFileName("{uuid}", now)
		assert.Len(t, strings.TrimSuffix(got, ".xlsx"), 36)
		assert.NotEqual(t, got, GenerateOutputFileName("{uuid}", now))
	})
}

func TestOutputPath(t *testing.T) {
	out := t.TempDir()
	fm := NewFileManager("", out, 0)

	path, err := fm.OutputPath("report.xlsx", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "report.xlsx"), path)

	touch(t, path)
	_, err = fm.OutputPath("report.xlsx", false)
	assert.ErrorIs(t, err, ErrOutputExists)

	forced, err := fm.OutputPath("report.xlsx", true)
	require.NoError(t, err)
	assert.Equal(t, path, forced)

	elsewhere := filepath.Join(t.TempDir(), "other.xlsx")
	got, err := fm.OutputPath(elsewhere, false)
	require.NoError(t, err)
	assert.Equal(t, elsewhere, got)
}

func TestErrorEntries(t *testing.T) {
	at := time.Now()

	t.Run("unresolved rows", func(t *testing.T) {
		err := &types.DocumentError{Path: "a.pdf", Err: &types.ResolutionError{Rows: []types.UnresolvedRow{
			{Row: 2, InvoiceNumber: "A9876XX1234", Key: "9876", Outcome: types.NotInDirectory},
			{Row: 5, InvoiceNumber: "B1111XX0000", Key: "1111", Outcome: types.NotInDirectory},
		}}}

		entries := ErrorEntries("a.pdf", err, at)
		require.Len(t, entries, 2)
		assert.Equal(t, 2, entries[0].RowNumber)
		assert.Equal(t, "A9876XX1234", entries[0].InvoiceNumber)
		assert.Equal(t, "unresolved store", entries[1].ErrorType)
	})

	t.Run("row error", func(t *testing.T) {
		err := &types.DocumentError{Path: "a.pdf", Err: &types.RowError{
			Row: 3, Column: types.ColumnAmount, Value: "abc", Err: types.ErrInvalidAmount,
		}}

		entries := ErrorEntries("a.pdf", err, at)
		require.Len(t, entries, 1)
		assert.Equal(t, "invalid amount", entries[0].ErrorType)
		assert.Equal(t, 3, entries[0].RowNumber)
		assert.Equal(t, "abc", entries[0].FieldValue)
	})

	t.Run("other", func(t *testing.T) {
		entries := ErrorEntries("a.pdf", errors.New("boom"), at)
		require.Len(t, entries, 1)
		assert.Equal(t, "processing", entries[0].ErrorType)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ErrorEntries("a.pdf", nil, at))
	})
}

func TestWriteErrorLog(t *testing.T) {
	out := t.TempDir()

	path, err := WriteErrorLog(nil, out, "run")
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp:     time.Now(),
		FileName:      "a.pdf",
		ErrorType:     "unresolved store",
		ErrorMessage:  "not in directory (key 9876)",
		RowNumber:     2,
		InvoiceNumber: "A9876XX1234",
	}}, out, "run-1")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Run:          run-1")
	assert.Contains(t, text, "Total Errors: 1")
	assert.Contains(t, text, "Invoice:        A9876XX1234")
	assert.Contains(t, text, "Row Number:     2")
}

func TestNewRunID(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}

func TestEnsureDirectories(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a", "b")
	fm := NewFileManager("", out, 0)

	require.NoError(t, fm.EnsureDirectories())
	assert.DirExists(t, out)
}
