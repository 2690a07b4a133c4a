package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

func row(store, amount string) types.ResolvedRow {
	return types.ResolvedRow{StoreName: store, Amount: decimal.RequireFromString(amount)}
}

func TestSummarize(t *testing.T) {
	rows := []types.ResolvedRow{
		row("Lakeside Warehouse", "10.10"),
		row("Example Store", "600.00"),
		row("Lakeside Warehouse", "0.20"),
		row("Example Store", "400.00"),
	}

	s := Summarize(rows)

	require.Len(t, s.Entries, 2)
	assert.Equal(t, "Example Store", s.Entries[0].StoreName)
	assert.True(t, decimal.RequireFromString("1000").Equal(s.Entries[0].TotalAmount))
	assert.Equal(t, "Lakeside Warehouse", s.Entries[1].StoreName)
	assert.True(t, decimal.RequireFromString("10.30").Equal(s.Entries[1].TotalAmount))
	assert.True(t, decimal.RequireFromString("1010.30").Equal(s.Total))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Empty(t, s.Entries)
	assert.True(t, s.Total.IsZero())
}

func TestSummarize_PreservesTotal(t *testing.T) {
	tests := []struct {
		name string
		rows []types.ResolvedRow
	}{
		{"single", []types.ResolvedRow{row("A", "1.01")}},
		{"negative credit", []types.ResolvedRow{row("A", "100.00"), row("B", "-25.75"), row("A", "0.33")}},
		{"many small", []types.ResolvedRow{row("A", "0.10"), row("A", "0.20"), row("B", "0.30"), row("C", "0.40")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.rows)

			sumRows := decimal.Zero
			for _, r := range tt.rows {
				sumRows = sumRows.Add(r.Amount)
			}
			sumEntries := decimal.Zero
			for _, e := range s.Entries {
				sumEntries = sumEntries.Add(e.TotalAmount)
			}

			assert.True(t, sumRows.Equal(sumEntries))
			assert.True(t, sumRows.Equal(s.Total))
		})
	}
}
