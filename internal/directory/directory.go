// =============================================================================
// costco-tk - Store Directory
// =============================================================================
//
// The directory maps a four digit short key ("0555") to the canonical store
// name used in the report. It is built once per run from a headerless table:
//
//   | Column A        | Column B   | Column C |
//   |-----------------|------------|----------|
//   | Canonical Name  | (ignored)  | #Token   |
//   | Example Store   | Seattle WA | #555     |
//
// Tokens that do not look like "#<1-4 digits>" are dropped. Configured
// overrides are applied last and win over the table.
//
// The directory is immutable after Build and safe to share.
//
// =============================================================================

package directory

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

const (
	// MinColumns is the number of columns every directory record must carry.
	MinColumns = 3

	nameColumn  = 0
	tokenColumn = 2

	keyWidth       = 4
	maxTokenLength = 5
)

// Directory is the short key -> canonical name lookup.
type Directory struct {
	entries map[string]string
	source  string
	dropped int
}

// FormatKey converts a raw directory token into a short key.
//
// EXAMPLES:
//
//	"#123"   -> "0123"
//	"#4567"  -> "4567"
//	"#"      -> "0000"
//	"#12345" -> "-1"
//	"123"    -> "-1"
//	""       -> "-1"
func FormatKey(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || !strings.HasPrefix(token, "#") || utf8.RuneCountInString(token) > maxTokenLength {
		return types.InvalidKey
	}

	digits := strings.TrimLeft(token, "#")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return types.InvalidKey
		}
	}

	return padKey(digits)
}

func padKey(digits string) string {
	if len(digits) >= keyWidth {
		return digits
	}
	return strings.Repeat("0", keyWidth-len(digits)) + digits
}

// Build creates a directory from raw records and overrides.
//
// Every record must have at least MinColumns cells; a shorter record is a
// configuration error. Duplicate keys keep the last record.
func Build(records [][]string, overrides map[string]string) (*Directory, error) {
	d := &Directory{
		entries: make(map[string]string, len(records)+len(overrides)),
	}

	for i, rec := range records {
		if len(rec) < MinColumns {
			return nil, fmt.Errorf("%w: record %d has %d columns, need %d",
				types.ErrMalformedDirectory, i+1, len(rec), MinColumns)
		}

		key := FormatKey(rec[tokenColumn])
		if key == types.InvalidKey {
			d.dropped++
			continue
		}
		d.entries[key] = strings.TrimSpace(rec[nameColumn])
	}

	for key, name := range overrides {
		if len(key) != keyWidth || FormatKey("#"+key) != key {
			return nil, fmt.Errorf("%w: override key %q must be four digits",
				types.ErrMalformedDirectory, key)
		}
		d.entries[key] = name
	}

	return d, nil
}

// Name returns the canonical name of key.
func (d *Directory) Name(key string) (string, bool) {
	name, ok := d.entries[key]
	return name, ok
}

// NameOrSentinel returns the canonical name of key or types.UnresolvedName.
func (d *Directory) NameOrSentinel(key string) string {
	if name, ok := d.entries[key]; ok {
		return name
	}
	return types.UnresolvedName
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Dropped returns how many source records carried an invalid token.
func (d *Directory) Dropped() int {
	return d.dropped
}

// Source describes where the directory was loaded from.
func (d *Directory) Source() string {
	return d.source
}

// Entries returns every entry ordered by short key.
func (d *Directory) Entries() []types.ReferenceEntry {
	out := make([]types.ReferenceEntry, 0, len(d.entries))
	for key, name := range d.entries {
		out = append(out, types.ReferenceEntry{ShortKey: key, CanonicalName: name})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ShortKey < out[j].ShortKey
	})
	return out
}

// =============================================================================
// SEARCH
// =============================================================================

// Match is one result of Find.
type Match struct {
	types.ReferenceEntry

	// Distance is the fuzzy edit distance; 0 for an exact key match.
	Distance int
}

// Find returns the entries whose name fuzzily contains term, closest first.
// A term of one to four digits also matches the entry with that short key.
// A limit of 0 or less returns every match.
func (d *Directory) Find(term string, limit int) []Match {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	entries := d.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.CanonicalName
	}

	var matches []Match
	seen := make(map[string]bool)

	if key := FormatKey("#" + term); key != types.InvalidKey {
		if name, ok := d.entries[key]; ok {
			matches = append(matches, Match{ReferenceEntry: types.ReferenceEntry{ShortKey: key, CanonicalName: name}})
			seen[key] = true
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(term, names)
	sort.Stable(ranks)
	for _, r := range ranks {
		e := entries[r.OriginalIndex]
		if seen[e.ShortKey] {
			continue
		}
		seen[e.ShortKey] = true
		matches = append(matches, Match{ReferenceEntry: e, Distance: r.Distance})
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
