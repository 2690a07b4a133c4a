// =============================================================================
// costco-tk - Store Key Resolver
// =============================================================================
//
// Every remittance row carries a free-text invoice reference such as
// "A0555XX1234". The store number is the first digit run of the reference
// once its trailing document-number part is cut off:
//
//   "A0555XX1234"  --trim 6-->  "A0555"  --digits-->  "0555"
//
// A candidate key is tried as is, then without leading zeros, then without
// trailing zeros (re-padded). Rows still unknown after the first pass are
// retried with a trim that depends on the reference length. Anything left
// after that fails the whole document.
//
// =============================================================================

package resolver

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/width"

	"github.com/chaotic-justice/costco-tk/internal/config"
	"github.com/chaotic-justice/costco-tk/internal/types"
)

// Lookup is the read side of the store directory.
type Lookup interface {
	Name(key string) (string, bool)
}

// Resolution is the outcome of ExtractKey.
type Resolution struct {
	// Key is the directory key when Outcome is Found, types.ZeroKey for
	// NoDigitsFound, and the last candidate tried for NotInDirectory.
	Key     string
	Outcome types.Outcome
}

const keyWidth = 4

// digitRun matches any decimal digits. Full-width runs are narrowed to ASCII
// before they are used as keys.
var digitRun = regexp.MustCompile(`\p{Nd}+`)

// ExtractKey derives the short key of reference s. trim is the number of
// trailing characters cut off before looking for digits.
func ExtractKey(s string, trim int, dir Lookup) Resolution {
	if s == "" {
		return Resolution{Key: types.ZeroKey, Outcome: types.NoDigitsFound}
	}

	run := digitRun.FindString(trimRunes(s, trim))
	if run == "" {
		return Resolution{Key: types.ZeroKey, Outcome: types.NoDigitsFound}
	}
	run = width.Narrow.String(run)

	key := pad(strings.TrimLeft(run, "0"))
	candidates := []string{
		key,
		strings.TrimLeft(key, "0"),
		pad(strings.TrimRight(key, "0")),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := dir.Name(c); ok {
			return Resolution{Key: c, Outcome: types.Found}
		}
	}

	return Resolution{Key: key, Outcome: types.NotInDirectory}
}

// trimRunes drops the last n runes of s. Nothing is left when s is not
// longer than n.
func trimRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := utf8.RuneCountInString(s)
	if count <= n {
		return ""
	}
	keep := count - n
	for i := range s {
		if keep == 0 {
			return s[:i]
		}
		keep--
	}
	return s
}

// pad left-pads digits with zeros to four characters. Longer runs are kept.
func pad(digits string) string {
	if len(digits) >= keyWidth {
		return digits
	}
	return strings.Repeat("0", keyWidth-len(digits)) + digits
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver assigns a store to every row of a table.
type Resolver struct {
	dir Lookup
	cfg config.ResolutionConfig
	log logrus.FieldLogger
}

// New creates a Resolver over dir.
func New(dir Lookup, cfg config.ResolutionConfig, log logrus.FieldLogger) *Resolver {
	return &Resolver{dir: dir, cfg: cfg, log: log}
}

// Resolve returns the resolved detail table of t. t is not modified.
//
// Errors:
//   - *types.RowError wrapping types.ErrMissingColumn when a required column
//     is absent from a non-empty table
//   - *types.ResolutionError listing every row unresolved after both passes
//   - *types.RowError wrapping types.ErrInvalidAmount for the first amount
//     that does not parse
func (r *Resolver) Resolve(t types.LogicalTable) (types.ResolvedTable, error) {
	out := types.ResolvedTable{
		Columns: append(append([]string(nil), t.Columns...), types.ColumnStoreKey, types.ColumnStoreName),
		Rows:    make([]types.ResolvedRow, 0, t.Len()),
	}
	if t.Len() == 0 {
		return out, nil
	}

	for _, col := range []string{types.ColumnInvoiceNumber, types.ColumnAmount} {
		if t.ColumnIndex(col) < 0 {
			return types.ResolvedTable{}, &types.RowError{Column: col, Err: types.ErrMissingColumn}
		}
	}

	var unresolved []types.UnresolvedRow
	for i, cells := range t.Rows {
		row := r.resolveRow(i+1, t.Value(i, types.ColumnInvoiceNumber))
		row.Cells = cells.Clone()
		if row.StoreName == types.UnresolvedName {
			unresolved = append(unresolved, types.UnresolvedRow{
				Row:           i + 1,
				InvoiceNumber: row.InvoiceNumber,
				Key:           row.StoreKey,
				Outcome:       row.Outcome,
			})
		}
		out.Rows = append(out.Rows, row)
	}
	if len(unresolved) > 0 {
		return types.ResolvedTable{}, &types.ResolutionError{Rows: unresolved}
	}

	for i := range out.Rows {
		raw := t.Value(i, types.ColumnAmount)
		amount, err := ParseAmount(raw)
		if err != nil {
			return types.ResolvedTable{}, &types.RowError{
				Row:    i + 1,
				Column: types.ColumnAmount,
				Value:  raw,
				Err:    fmt.Errorf("%w: %v", types.ErrInvalidAmount, err),
			}
		}
		out.Rows[i].Amount = amount
	}

	return out, nil
}

// resolveRow runs both passes for one invoice reference.
func (r *Resolver) resolveRow(n int, invoice string) types.ResolvedRow {
	log := r.log.WithFields(logrus.Fields{"row": n, "invoiceNumber": invoice})

	res := ExtractKey(invoice, r.cfg.DefaultTrim, r.dir)
	if name, ok := r.settle(res); ok {
		if res.Outcome == types.NoDigitsFound {
			log.WithField("key", res.Key).Warn("no digits in invoice reference")
		}
		return types.ResolvedRow{InvoiceNumber: invoice, StoreKey: res.Key, StoreName: name, Outcome: res.Outcome, Pass: 1}
	}

	trim := r.cfg.DefaultTrim
	if utf8.RuneCountInString(invoice) >= r.cfg.LongReferenceLength {
		trim = r.cfg.LongTrim
	}
	res = ExtractKey(invoice, trim, r.dir)
	if name, ok := r.settle(res); ok {
		log.WithFields(logrus.Fields{"key": res.Key, "trim": trim}).Debug("resolved on second pass")
		return types.ResolvedRow{InvoiceNumber: invoice, StoreKey: res.Key, StoreName: name, Outcome: res.Outcome, Pass: 2}
	}

	log.WithFields(logrus.Fields{"key": res.Key, "outcome": res.Outcome}).Error("store key unresolved")
	return types.ResolvedRow{InvoiceNumber: invoice, StoreKey: res.Key, StoreName: types.UnresolvedName, Outcome: res.Outcome, Pass: 2}
}

// settle maps a resolution to a store name. A reference without digits
// resolves to whatever the directory holds for types.ZeroKey.
func (r *Resolver) settle(res Resolution) (string, bool) {
	switch res.Outcome {
	case types.Found, types.NoDigitsFound:
		return r.dir.Name(res.Key)
	default:
		return "", false
	}
}
