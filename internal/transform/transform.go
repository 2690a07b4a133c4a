// =============================================================================
// costco-tk - Cell Cleanup
// =============================================================================
//
// This module applies the configured per-column cleanup rules to a stitched
// table before resolution. Typical uses:
//   - removing currency symbols from the amount column
//   - collapsing stray spaces the PDF text layer leaves in invoice numbers
//   - replacing known bad values with a lookup table
//
// Rules are compiled once by New; applying them never modifies the input
// table.
//
// =============================================================================

package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chaotic-justice/costco-tk/internal/config"
	"github.com/chaotic-justice/costco-tk/internal/types"
)

var whitespace = regexp.MustCompile(`\s+`)

// action is one compiled cleanup step.
type action func(string) string

// Cleaner applies cleanup rules to tables.
type Cleaner struct {
	columns []string
	steps   map[string][]action
}

// New compiles the rules. Unknown action types and invalid regular
// expressions are reported here rather than per cell.
func New(rules []config.TransformationRule) (*Cleaner, error) {
	c := &Cleaner{steps: make(map[string][]action, len(rules))}

	for _, rule := range rules {
		if rule.Column == "" {
			return nil, fmt.Errorf("cleanup rule without column")
		}
		if _, ok := c.steps[rule.Column]; !ok {
			c.columns = append(c.columns, rule.Column)
		}
		for _, a := range rule.Actions {
			step, err := compile(a)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", rule.Column, err)
			}
			c.steps[rule.Column] = append(c.steps[rule.Column], step)
		}
	}
	return c, nil
}

// Apply returns a copy of t with the rules applied. Rules naming a column the
// table does not have are skipped.
func (c *Cleaner) Apply(t types.LogicalTable) types.LogicalTable {
	out := types.LogicalTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]types.RawRow, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = row.Clone()
	}

	for _, column := range c.columns {
		idx := out.ColumnIndex(column)
		if idx < 0 {
			continue
		}
		for _, row := range out.Rows {
			if idx >= len(row) {
				continue
			}
			for _, step := range c.steps[column] {
				row[idx] = step(row[idx])
			}
		}
	}
	return out
}

// Len returns the number of columns with rules.
func (c *Cleaner) Len() int {
	return len(c.columns)
}

// =============================================================================
// ACTIONS
// =============================================================================

func compile(a config.TransformationAction) (action, error) {
	switch a.Type {

	case "trim":
		return strings.TrimSpace, nil

	case "trim_left":
		if a.Value == "" {
			return func(s string) string { return strings.TrimLeft(s, " \t\n\r") }, nil
		}
		return func(s string) string { return strings.TrimLeft(s, a.Value) }, nil

	case "trim_right":
		if a.Value == "" {
			return func(s string) string { return strings.TrimRight(s, " \t\n\r") }, nil
		}
		return func(s string) string { return strings.TrimRight(s, a.Value) }, nil

	case "uppercase":
		return strings.ToUpper, nil

	case "lowercase":
		return strings.ToLower, nil

	case "replace":
		// "$1,200.00" with find "$" and value "" -> "1,200.00"
		if a.Find == "" {
			return nil, fmt.Errorf("replace needs find")
		}
		return func(s string) string { return strings.ReplaceAll(s, a.Find, a.Value) }, nil

	case "regex_replace":
		re, err := regexp.Compile(a.Find)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern: %w", err)
		}
		return func(s string) string { return re.ReplaceAllString(s, a.Value) }, nil

	case "remove_chars":
		// Every character of Value is removed.
		return func(s string) string {
			return strings.Map(func(r rune) rune {
				if strings.ContainsRune(a.Value, r) {
					return -1
				}
				return r
			}, s)
		}, nil

	case "collapse_spaces":
		return func(s string) string {
			return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
		}, nil

	case "remove_spaces":
		return func(s string) string { return whitespace.ReplaceAllString(s, "") }, nil

	case "default_if_empty":
		return func(s string) string {
			if strings.TrimSpace(s) == "" {
				return a.Value
			}
			return s
		}, nil

	case "lookup":
		table := a.LookupTable
		return func(s string) string {
			if v, ok := table[s]; ok {
				return v
			}
			return s
		}, nil

	default:
		return nil, fmt.Errorf("unknown transformation type: %s", a.Type)
	}
}
