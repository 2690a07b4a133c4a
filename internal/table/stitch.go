// Package table turns the raw header and rows collected from a document into
// a column-addressable LogicalTable.
package table

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

// CamelCase normalizes a header cell: newlines become spaces, the first word
// is lower-cased and every later word is capitalized.
//
//	"Invoice\nNumber"  -> "invoiceNumber"
//	"Net  Amount Paid" -> "netAmountPaid"
//	"AMOUNT"           -> "amount"
func CamelCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "\n", " "))
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

// Columns camel-cases a header. Empty cells become "column<N>" (1-based) and
// repeated names get a numeric suffix, so every column stays addressable.
func Columns(header types.RawRow) []string {
	cols := make([]string, len(header))
	seen := make(map[string]int, len(header))

	for i, cell := range header {
		name := CamelCase(cell)
		if name == "" {
			name = fmt.Sprintf("column%d", i+1)
		}
		if seen[name] > 0 {
			base := name
			for n := seen[base] + 1; ; n++ {
				name = fmt.Sprintf("%s%d", base, n)
				if seen[name] == 0 {
					seen[base] = n
					break
				}
			}
		}
		seen[name]++
		cols[i] = name
	}
	return cols
}

// Stitch builds the LogicalTable of a document. Rows are copied and padded or
// truncated to the header width; the inputs are left untouched.
func Stitch(header types.RawRow, rows []types.RawRow) types.LogicalTable {
	t := types.LogicalTable{Columns: Columns(header)}
	width := len(t.Columns)

	t.Rows = make([]types.RawRow, 0, len(rows))
	for _, r := range rows {
		out := make(types.RawRow, width)
		copy(out, r)
		for i := range out {
			out[i] = strings.TrimSpace(out[i])
		}
		t.Rows = append(t.Rows, out)
	}
	return t
}
