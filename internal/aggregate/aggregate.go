// Package aggregate sums resolved rows per store.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

// Summarize groups rows by store name and sums their amounts. Entries are
// ordered by store name; Total is the sum of every row.
func Summarize(rows []types.ResolvedRow) types.Summary {
	totals := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, r := range rows {
		totals[r.StoreName] = totals[r.StoreName].Add(r.Amount)
		total = total.Add(r.Amount)
	}

	entries := make([]types.SummaryEntry, 0, len(totals))
	for name, amount := range totals {
		entries = append(entries, types.SummaryEntry{StoreName: name, TotalAmount: amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StoreName < entries[j].StoreName
	})

	return types.Summary{Entries: entries, Total: total}
}
