// =============================================================================
// costco-tk - Shared Types
// =============================================================================
//
// This package contains the domain types shared by the extraction, stitching,
// resolution, aggregation and reporting stages. Keeping them here avoids import
// cycles between:
//   - extract / pdfdoc
//   - table / transform / validation
//   - resolver / aggregate
//   - report / xlsxwriter / pipeline
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINELS
// =============================================================================

const (
	// InvalidKey marks a directory token that cannot be turned into a short key.
	// Entries carrying it never make it into the directory.
	InvalidKey = "-1"

	// ZeroKey is returned by the resolver when no digit run can be found in
	// the invoice reference.
	ZeroKey = "0000"

	// UnresolvedName is the store name of a row whose key is not in the
	// directory. It must never survive resolution.
	UnresolvedName = "-1"
)

// Column names the resolver and aggregator depend on, after camel-casing.
const (
	ColumnInvoiceNumber = "invoiceNumber"
	ColumnAmount        = "amount"
	ColumnStoreKey      = "storeKey"
	ColumnStoreName     = "storeName"
)

// =============================================================================
// DIRECTORY TYPES
// =============================================================================

// ReferenceEntry is one short key -> canonical store name pair.
type ReferenceEntry struct {
	// ShortKey is always four zero-padded digits.
	ShortKey string

	// CanonicalName is the long organizational name.
	CanonicalName string
}

// =============================================================================
// TABLE TYPES
// =============================================================================

// RawRow is one extracted table row. Cells are positional until a header is
// applied.
type RawRow []string

// IsEmpty reports whether every cell of the row is empty.
func (r RawRow) IsEmpty() bool {
	for _, cell := range r {
		if cell != "" {
			return false
		}
	}
	return true
}

// Clone returns a copy of the row that shares no backing array.
func (r RawRow) Clone() RawRow {
	if r == nil {
		return nil
	}
	out := make(RawRow, len(r))
	copy(out, r)
	return out
}

// LogicalTable is the stitched, column-addressable table of one document.
type LogicalTable struct {
	// Columns holds the camel-cased header.
	Columns []string

	// Rows holds the data rows, each padded to len(Columns).
	Rows []RawRow
}

// ColumnIndex returns the position of the named column or -1.
func (t LogicalTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell of row i in the named column, or "" when either the
// row or the column does not exist.
func (t LogicalTable) Value(i int, column string) string {
	col := t.ColumnIndex(column)
	if col < 0 || i < 0 || i >= len(t.Rows) || col >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][col]
}

// Len returns the number of data rows.
func (t LogicalTable) Len() int {
	return len(t.Rows)
}

// =============================================================================
// RESOLUTION TYPES
// =============================================================================

// Outcome describes how a short key was derived from an invoice reference.
type Outcome int

const (
	// Found means the key is present in the directory.
	Found Outcome = iota

	// NoDigitsFound means the reference held no digit run; the key is ZeroKey.
	NoDigitsFound

	// NotInDirectory means a candidate key was derived but no fallback of it
	// is present in the directory.
	NotInDirectory
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NoDigitsFound:
		return "no-digits"
	case NotInDirectory:
		return "not-in-directory"
	default:
		return "unknown"
	}
}

// ResolvedRow is a LogicalTable row augmented with its store identity and its
// parsed amount.
type ResolvedRow struct {
	// Cells are the original row cells.
	Cells RawRow

	// InvoiceNumber is a copy of the invoiceNumber cell.
	InvoiceNumber string

	// StoreKey is the short key the row resolved to.
	StoreKey string

	// StoreName is the canonical store name. Never UnresolvedName once the
	// resolver has returned without error.
	StoreName string

	// Outcome records which branch of the heuristic produced StoreKey.
	Outcome Outcome

	// Pass is 1 or 2, the resolution pass that settled the row.
	Pass int

	// Amount is the parsed monetary value.
	Amount decimal.Decimal
}

// ResolvedTable is the detail table handed to the presentation layer.
type ResolvedTable struct {
	// Columns are the LogicalTable columns followed by storeKey and storeName.
	Columns []string

	// Rows are the resolved rows in document order.
	Rows []ResolvedRow
}

// Len returns the number of resolved rows.
func (t ResolvedTable) Len() int {
	return len(t.Rows)
}

// =============================================================================
// SUMMARY TYPES
// =============================================================================

// SummaryEntry is the total amount of one store.
type SummaryEntry struct {
	StoreName   string
	TotalAmount decimal.Decimal
}

// Summary is the grouped view of a resolved table.
type Summary struct {
	// Entries holds one entry per distinct store name, ordered by name.
	Entries []SummaryEntry

	// Total is the grand total across all entries.
	Total decimal.Decimal
}

// =============================================================================
// METADATA TYPES
// =============================================================================

// TokenKind tells date tokens from reference tokens.
type TokenKind int

const (
	// DateToken holds a date formatted as MM-DD.
	DateToken TokenKind = iota

	// ReferenceToken holds the numeric payment reference.
	ReferenceToken
)

// String implements fmt.Stringer.
func (k TokenKind) String() string {
	if k == DateToken {
		return "date"
	}
	return "reference"
}

// MetadataToken is one header value found while scanning page text.
type MetadataToken struct {
	Kind  TokenKind
	Value string

	// Page is the 1-based page the token came from.
	Page int
}

// DocumentMetadata is the ordered list of header tokens of one document.
type DocumentMetadata struct {
	Tokens []MetadataToken
}

// Add appends a token.
func (m *DocumentMetadata) Add(kind TokenKind, value string, page int) {
	m.Tokens = append(m.Tokens, MetadataToken{Kind: kind, Value: value, Page: page})
}

// First returns the first token of the given kind.
func (m DocumentMetadata) First(kind TokenKind) (MetadataToken, bool) {
	for _, tok := range m.Tokens {
		if tok.Kind == kind {
			return tok, true
		}
	}
	return MetadataToken{}, false
}

// Values returns the token values in collection order.
func (m DocumentMetadata) Values() []string {
	out := make([]string, len(m.Tokens))
	for i, tok := range m.Tokens {
		out[i] = tok.Value
	}
	return out
}

// Label is the presentation name of a document, used as its sheet name.
type Label struct {
	// Text is "{date} #{reference}".
	Text string

	Date      string
	Reference string

	// Complete is false when the date or the reference was not found.
	Complete bool

	// Ambiguous is true when more than two metadata tokens were collected.
	Ambiguous bool
}
