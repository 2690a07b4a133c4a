// Package report derives the presentation name of a processed document.
package report

import (
	"fmt"

	"github.com/chaotic-justice/costco-tk/internal/types"
)

// Placeholders used when a document lacks a date or a reference.
const (
	MissingDate      = "no-date"
	MissingReference = "no-ref"
)

// DeriveLabel builds "{date} #{reference}" from the first date token and the
// first reference token of meta. A document normally carries exactly one of
// each; more than two tokens marks the label Ambiguous.
func DeriveLabel(meta types.DocumentMetadata) types.Label {
	label := types.Label{
		Date:      MissingDate,
		Reference: MissingReference,
		Complete:  true,
		Ambiguous: len(meta.Tokens) > 2,
	}

	if tok, ok := meta.First(types.DateToken); ok {
		label.Date = tok.Value
	} else {
		label.Complete = false
	}
	if tok, ok := meta.First(types.ReferenceToken); ok {
		label.Reference = tok.Value
	} else {
		label.Complete = false
	}

	label.Text = fmt.Sprintf("%s #%s", label.Date, label.Reference)
	return label
}
