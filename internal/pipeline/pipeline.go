// =============================================================================
// costco-tk - Processing Pipeline
// =============================================================================
//
// This module orchestrates the processing of remittance documents.
//
// PROCESSING PIPELINE (per document):
//   1. Extract page text and tables
//   2. Stitch the page tables into one logical table
//   3. Apply the configured cell cleanup rules
//   4. Validate the table shape
//   5. Resolve the store of every row and parse amounts
//   6. Sum amounts per store
//   7. Derive the document label
//
// CONCURRENCY:
//   Documents are processed one after another. The store directory is shared
//   read-only. Cancellation is checked between documents only.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chaotic-justice/costco-tk/internal/aggregate"
	"github.com/chaotic-justice/costco-tk/internal/config"
	"github.com/chaotic-justice/costco-tk/internal/extract"
	"github.com/chaotic-justice/costco-tk/internal/report"
	"github.com/chaotic-justice/costco-tk/internal/resolver"
	"github.com/chaotic-justice/costco-tk/internal/table"
	"github.com/chaotic-justice/costco-tk/internal/transform"
	"github.com/chaotic-justice/costco-tk/internal/types"
	"github.com/chaotic-justice/costco-tk/internal/validation"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single document.
type Result struct {
	// FilePath is the path of the processed document.
	FilePath string

	Label   types.Label
	Table   types.ResolvedTable
	Summary types.Summary

	// Warnings are the non-fatal validation findings.
	Warnings []*validation.ValidationError

	Success bool

	// Error is a *types.DocumentError when processing failed.
	Error error

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	Pages int

	// RowsExtracted counts data rows across all pages.
	RowsExtracted int

	// SecondPassRows counts rows settled by the second resolution pass.
	SecondPassRows int

	// NoDigitRows counts rows whose reference held no digits.
	NoDigitRows int

	ProcessingTime time.Duration
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline processes documents against one store directory.
type Pipeline struct {
	extractor *extract.Extractor
	cleaner   *transform.Cleaner
	resolver  *resolver.Resolver
	log       logrus.FieldLogger
}

// New wires the processing stages from cfg.
func New(cfg *config.MainConfig, dir resolver.Lookup, opener extract.Opener, log logrus.FieldLogger) (*Pipeline, error) {
	extractor, err := extract.New(opener, cfg.Extraction, log)
	if err != nil {
		return nil, err
	}
	cleaner, err := transform.New(cfg.Cleanup)
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup rules: %w", err)
	}

	return &Pipeline{
		extractor: extractor,
		cleaner:   cleaner,
		resolver:  resolver.New(dir, cfg.Resolution, log),
		log:       log,
	}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Process runs every stage for the document at path. Failures are reported
// in the Result, never panicked or returned.
func (p *Pipeline) Process(path string) Result {
	start := time.Now()
	result := Result{FilePath: path}
	log := p.log.WithField("document", path)

	fail := func(err error) Result {
		result.Error = &types.DocumentError{Path: path, Err: err}
		result.Stats.ProcessingTime = time.Since(start)
		return result
	}

	// =========================================================================
	// STEP 1: EXTRACT
	// =========================================================================

	ext, err := p.extractor.Extract(path)
	if err != nil {
		return fail(err)
	}
	result.Stats.Pages = ext.Pages
	result.Stats.RowsExtracted = len(ext.Rows)

	// =========================================================================
	// STEP 2-4: STITCH, CLEAN, VALIDATE
	// =========================================================================

	logical := p.cleaner.Apply(table.Stitch(ext.Header, ext.Rows))

	check := validation.Validate(logical, ext.Rows)
	for _, w := range check.Warnings() {
		log.Warn(w.Error())
	}
	result.Warnings = check.Warnings()
	if err := check.Err(); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 5: RESOLVE
	// =========================================================================

	resolved, err := p.resolver.Resolve(logical)
	if err != nil {
		return fail(err)
	}
	for _, r := range resolved.Rows {
		if r.Pass == 2 {
			result.Stats.SecondPassRows++
		}
		if r.Outcome == types.NoDigitsFound {
			result.Stats.NoDigitRows++
		}
	}
	result.Table = resolved

	// =========================================================================
	// STEP 6-7: AGGREGATE, LABEL
	// =========================================================================

	result.Summary = aggregate.Summarize(resolved.Rows)
	result.Label = report.DeriveLabel(ext.Metadata)

	if result.Label.Ambiguous {
		log.WithField("tokens", ext.Metadata.Values()).Warn("more than one date or reference found, using the first of each")
	}
	if !result.Label.Complete {
		log.WithField("label", result.Label.Text).Warn("document label is incomplete")
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)

	log.WithFields(logrus.Fields{
		"label":  result.Label.Text,
		"rows":   resolved.Len(),
		"stores": len(result.Summary.Entries),
		"total":  result.Summary.Total.StringFixed(2),
	}).Info("document processed")

	return result
}

// ProcessAll processes paths in order. It stops at the first failure unless
// continueOnError is set, and before the next document once ctx is done.
// The results of every document processed so far are always returned.
func (p *Pipeline) ProcessAll(ctx context.Context, paths []string, continueOnError bool) ([]Result, error) {
	results := make([]Result, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		r := p.Process(path)
		results = append(results, r)

		if !r.Success {
			p.log.WithError(r.Error).WithField("document", path).Error("document failed")
			if !continueOnError {
				return results, r.Error
			}
		}
	}

	return results, nil
}
