package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaotic-justice/costco-tk/internal/types"
	"github.com/chaotic-justice/costco-tk/pkg/utils"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1000", "USD", "$1,000.00"},
		{"610.505", "USD", "$610.51"},
		{"12.5", "XYZ", "12.50 XYZ"},
	}

	for _, tt := range tests {
		t.Run(tt.amount+" "+tt.currency, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAmount(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestStoresResolve(t *testing.T) {
	out, err := execute(t, "stores", "resolve", "A0555XX1234")
	require.NoError(t, err)
	assert.Contains(t, out, "Example Store")
	assert.Contains(t, out, "0555")
}

func TestStoresResolve_Unresolved(t *testing.T) {
	out, err := execute(t, "stores", "resolve", "A0555XX1234", "Z9999XX0000")
	assert.ErrorIs(t, err, types.ErrUnresolvedKey)
	assert.Contains(t, out, "Z9999XX0000")
}

func TestStoresFind(t *testing.T) {
	out, err := execute(t, "stores", "find", "example")
	require.NoError(t, err)
	assert.Contains(t, out, "Example Store")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    "+Version)
}

// resetFlags restores every flag of c and its subcommands to its default, so
// one Execute does not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// processDirs returns an input directory holding the given PDFs and an empty
// output directory. "remittance.pdf" is the two-page fixture; any other name
// is written as a file that is not a PDF.
func processDirs(t *testing.T, names ...string) (string, string) {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	t.Setenv("COSTCO_TK_OUTPUT_DIR", out)
	t.Setenv("COSTCO_TK_LOG_LEVEL", "error")

	fixture, err := os.ReadFile(filepath.Join("..", "internal", "pdfdoc", "testdata", "remittance.pdf"))
	require.NoError(t, err)

	for _, name := range names {
		data := []byte("not a pdf")
		if name == "remittance.pdf" {
			data = fixture
		}
		require.NoError(t, os.WriteFile(filepath.Join(in, name), data, 0644))
	}
	return in, out
}

func TestProcess_NoFiles(t *testing.T) {
	in, out := processDirs(t)

	stdout, err := execute(t, "process", "--input-dir", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No PDF files to process.")
	assert.NoFileExists(t, filepath.Join(out, "remit.xlsx"))
}

func TestProcess_WritesWorkbook(t *testing.T) {
	in, out := processDirs(t, "remittance.pdf")

	stdout, err := execute(t, "process", "--input-dir", in, "--output", "remit")
	require.NoError(t, err)
	assert.Contains(t, stdout, "03-15 #778899")
	assert.Contains(t, stdout, "$2,400.00")
	assert.FileExists(t, filepath.Join(out, "remit.xlsx"))

	logs, err := filepath.Glob(filepath.Join(out, "error_log_*.txt"))
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestProcess_OverwriteRefused(t *testing.T) {
	in, out := processDirs(t, "remittance.pdf")
	require.NoError(t, os.WriteFile(filepath.Join(out, "remit.xlsx"), []byte("old"), 0644))

	_, err := execute(t, "process", "--input-dir", in, "--output", "remit.xlsx")
	assert.ErrorIs(t, err, utils.ErrOutputExists)

	data, err := os.ReadFile(filepath.Join(out, "remit.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	_, err = execute(t, "process", "--input-dir", in, "--output", "remit.xlsx", "--force")
	require.NoError(t, err)

	data, err = os.ReadFile(filepath.Join(out, "remit.xlsx"))
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(data))
}

func TestProcess_DryRun(t *testing.T) {
	in, out := processDirs(t, "remittance.pdf")

	stdout, err := execute(t, "process", "--input-dir", in, "--output", "remit", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Successful:")
	assert.NoFileExists(t, filepath.Join(out, "remit.xlsx"))
}

func TestProcess_FailedDocument(t *testing.T) {
	in, out := processDirs(t, "broken.pdf", "remittance.pdf")

	stdout, err := execute(t, "process", "--input-dir", in, "--output", "remit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 document(s) failed")
	assert.Contains(t, stdout, "broken.pdf")
	assert.FileExists(t, filepath.Join(out, "remit.xlsx"))

	logs, err := filepath.Glob(filepath.Join(out, "error_log_*.txt"))
	require.NoError(t, err)
	require.Len(t, logs, 1)

	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "broken.pdf")
}

func TestProcess_StopOnError(t *testing.T) {
	in, out := processDirs(t, "broken.pdf", "remittance.pdf")

	stdout, err := execute(t, "process", "--input-dir", in, "--output", "remit", "--continue-on-error=false")
	var docErr *types.DocumentError
	require.ErrorAs(t, err, &docErr)
	assert.Contains(t, stdout, "Not processed:")
	assert.NoFileExists(t, filepath.Join(out, "remit.xlsx"))
}
