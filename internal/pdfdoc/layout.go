package pdfdoc

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dslipak/pdf"
)

// Phrase is a run of glyphs close enough to read as one cell value.
type Phrase struct {
	Text   string
	X0, X1 float64
}

// Center returns the horizontal middle of the phrase.
func (p Phrase) Center() float64 {
	return (p.X0 + p.X1) / 2
}

// Line is one visual row of a page.
type Line struct {
	Y       float64
	Phrases []Phrase
}

// Text returns the phrases of the line joined by single spaces.
func (l Line) Text() string {
	parts := make([]string, len(l.Phrases))
	for i, p := range l.Phrases {
		parts[i] = p.Text
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// GLYPHS -> PHRASES
// =============================================================================

// Gap thresholds relative to the font size. A gap up to charSpace joins
// glyphs, up to wordSpace joins them with a space, anything wider starts a
// new phrase.
const (
	charSpaceRatio = 1.0 / 6
	wordSpaceRatio = 2.0 / 3
	defaultFont    = 10.0
)

// avgGlyphRatio estimates the advance of one rune when the text layer gives
// no width. GetTextByRow reports whole strings with W == 0.
const avgGlyphRatio = 0.5

// phrases merges the glyphs of one row into phrases, left to right.
func phrases(texts []pdf.Text) []Phrase {
	sorted := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	var (
		out     []Phrase
		cur     strings.Builder
		x0, x1  float64
		open    bool
		pending bool
	)
	flush := func() {
		if open {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, Phrase{Text: s, X0: x0, X1: x1})
			}
		}
		cur.Reset()
		open = false
		pending = false
	}

	for _, t := range sorted {
		if strings.TrimSpace(t.S) == "" {
			pending = open
			continue
		}

		size := t.FontSize
		if size <= 0 {
			size = defaultFont
		}

		w := t.W
		if w <= 0 {
			w = float64(utf8.RuneCountInString(t.S)) * size * avgGlyphRatio
		}

		if open {
			gap := t.X - x1
			switch {
			case gap > size*wordSpaceRatio:
				flush()
			case gap > size*charSpaceRatio || pending:
				cur.WriteByte(' ')
			}
		}

		if !open {
			x0, x1 = t.X, t.X+w
			open = true
		}
		cur.WriteString(t.S)
		x1 = math.Max(x1, t.X+w)
		pending = false
	}
	flush()

	return out
}

// lines converts grouped rows into lines ordered top to bottom. PDF y grows
// upwards, so higher positions come first.
func lines(rows []rowGlyphs) []Line {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].y > rows[j].y
	})

	out := make([]Line, 0, len(rows))
	for _, r := range rows {
		ph := phrases(r.texts)
		if len(ph) == 0 {
			continue
		}
		out = append(out, Line{Y: r.y, Phrases: ph})
	}
	return out
}

type rowGlyphs struct {
	y     float64
	texts []pdf.Text
}

// =============================================================================
// LINES -> TABLE
// =============================================================================

// Layout locates the table of a page in its lines.
type Layout struct {
	// HeaderMarkers must all appear in a line for it to be the table header.
	// The column titled with the last marker anchors the data rows.
	HeaderMarkers []string

	// StopMarkers end the table when a line starts with one of them.
	StopMarkers []string
}

type column struct {
	title  []string
	x0, x1 float64
}

func (c column) center() float64 {
	return (c.x0 + c.x1) / 2
}

// Columns are the column spans fixed by a header line. They carry over to
// continuation pages that do not repeat the header.
type Columns struct {
	cols   []column
	anchor int
}

// Header returns the column titles, multi-line titles joined by newlines.
func (c *Columns) Header() []string {
	header := make([]string, len(c.cols))
	for i, col := range c.cols {
		header[i] = strings.Join(col.title, "\n")
	}
	return header
}

func (c *Columns) row(line Line) []string {
	row := make([]string, len(c.cols))
	for _, p := range line.Phrases {
		i := assign(p, c.cols)
		if row[i] == "" {
			row[i] = p.Text
		} else {
			row[i] += " " + p.Text
		}
	}
	return row
}

// anchored reports whether line has a value with digits under the anchor
// column. Page furniture such as "Page 1 of 2" sits elsewhere.
func (c *Columns) anchored(line Line) bool {
	for _, p := range line.Phrases {
		if assign(p, c.cols) == c.anchor && strings.IndexFunc(p.Text, unicode.IsDigit) >= 0 {
			return true
		}
	}
	return false
}

// Table returns the table found in lines, header first, and the columns it
// was laid out with. A page without a header line is laid out with prev, the
// columns of the previous page. Table returns nil when there is neither.
//
// The table body runs from the header (or, on a continuation page, the first
// anchored line) to the last anchored line before a stop line. Lines past it
// are page footers.
func (l Layout) Table(ls []Line, prev *Columns) ([][]string, *Columns) {
	cols, next := l.columns(ls)
	continuation := cols == nil
	if continuation {
		if prev == nil {
			return nil, nil
		}
		cols, next = prev, 0
	}

	body := ls[next:]
	for i, line := range body {
		if l.isStop(line) {
			body = body[:i]
			break
		}
	}

	first, last := -1, -1
	for i, line := range body {
		if cols.anchored(line) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	table := [][]string{cols.Header()}
	if last < 0 {
		return table, cols
	}
	if !continuation {
		first = 0
	}
	for _, line := range body[first : last+1] {
		table = append(table, cols.row(line))
	}
	return table, cols
}

// columns finds the header line and returns its columns and the index of the
// first line after the header, or nil when ls has no header line.
func (l Layout) columns(ls []Line) (*Columns, int) {
	start := -1
	for i, line := range ls {
		if l.isHeader(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, 0
	}

	cols := make([]column, len(ls[start].Phrases))
	for i, p := range ls[start].Phrases {
		cols[i] = column{title: []string{p.Text}, x0: p.X0, x1: p.X1}
	}

	next := start + 1
	if next < len(ls) && isHeaderContinuation(ls[next], cols) {
		for _, p := range ls[next].Phrases {
			c := &cols[assign(p, cols)]
			c.title = append(c.title, p.Text)
			c.x0 = math.Min(c.x0, p.X0)
			c.x1 = math.Max(c.x1, p.X1)
		}
		next++
	}

	anchor := len(cols) - 1
	if n := len(l.HeaderMarkers); n > 0 {
		for i, c := range cols {
			if strings.Contains(strings.Join(c.title, " "), l.HeaderMarkers[n-1]) {
				anchor = i
				break
			}
		}
	}

	return &Columns{cols: cols, anchor: anchor}, next
}

func (l Layout) isHeader(line Line) bool {
	if len(l.HeaderMarkers) == 0 {
		return false
	}
	text := line.Text()
	for _, m := range l.HeaderMarkers {
		if !strings.Contains(text, m) {
			return false
		}
	}
	return true
}

func (l Layout) isStop(line Line) bool {
	text := line.Text()
	for _, m := range l.StopMarkers {
		if m != "" && strings.HasPrefix(text, m) {
			return true
		}
	}
	return false
}

// isHeaderContinuation reports whether line is the second line of a two-line
// header: no digits, and every phrase overlapping a header column.
func isHeaderContinuation(line Line, cols []column) bool {
	if len(line.Phrases) == 0 {
		return false
	}
	for _, p := range line.Phrases {
		if strings.IndexFunc(p.Text, unicode.IsDigit) >= 0 {
			return false
		}
		overlaps := false
		for _, c := range cols {
			if overlap(p.X0, p.X1, c.x0, c.x1) > 0 {
				overlaps = true
				break
			}
		}
		if !overlaps {
			return false
		}
	}
	return true
}

// assign returns the column with the largest horizontal overlap with p, or
// the column whose center is nearest when p overlaps none.
func assign(p Phrase, cols []column) int {
	best, bestOverlap := -1, 0.0
	for i, c := range cols {
		if o := overlap(p.X0, p.X1, c.x0, c.x1); o > bestOverlap {
			best, bestOverlap = i, o
		}
	}
	if best >= 0 {
		return best
	}

	best, bestDist := 0, math.Inf(1)
	for i, c := range cols {
		if d := math.Abs(p.Center() - c.center()); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func overlap(a0, a1, b0, b1 float64) float64 {
	return math.Min(a1, b1) - math.Max(a0, b0)
}
