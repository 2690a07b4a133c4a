// =============================================================================
// costco-tk - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the whole pipeline
// over a batch of remittance documents.
//
// COMMAND USAGE:
//   costco-tk process [pdf...] [flags]
//
// FLAGS:
//   --input-dir         : Directory scanned when no documents are named
//   --output            : Output workbook name (placeholders allowed)
//   --dry-run           : Process documents without writing the workbook
//   --continue-on-error : Keep going after a failed document
//   --force             : Overwrite an existing workbook
//
// PROCESSING PIPELINE:
//   1. Load configuration and the store directory
//   2. Select the input documents
//   3. Process each document in order
//   4. Write the workbook and the error log
//   5. Print the summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chaotic-justice/costco-tk/internal/config"
	"github.com/chaotic-justice/costco-tk/internal/directory"
	"github.com/chaotic-justice/costco-tk/internal/pdfdoc"
	"github.com/chaotic-justice/costco-tk/internal/pipeline"
	"github.com/chaotic-justice/costco-tk/internal/validation"
	"github.com/chaotic-justice/costco-tk/internal/xlsxwriter"
	"github.com/chaotic-justice/costco-tk/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun          bool
	force           bool
	continueOnError bool
	inputDir        string
	outputFile      string
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process [pdf...]",
	Short: "Process remittance PDFs into one workbook",
	Long: `The process command reads the named remittance PDFs, or every PDF in the
input directory, resolves the store of each invoice line and writes one
workbook with a sheet per document.

A document with any line that cannot be matched to a store fails as a whole
and gets no sheet. Failures are written to an error log in the output
directory.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Process documents without writing the workbook")
	processCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing workbook")
	processCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "Keep processing after a failed document")
	processCmd.Flags().StringVar(&inputDir, "input-dir", "", "Directory scanned for PDFs when none are named")
	processCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output workbook name")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION AND DIRECTORY
	// =========================================================================

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyProcessFlags(cmd, cfg)

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	runID := utils.NewRunID()
	log := logger.WithField("run_id", runID)

	fmt.Fprintln(out, bold("=== costco-tk ==="))

	dir, err := directory.Load(cfg.Directory.File, cfg.Directory.Overrides)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"source":  dir.Source(),
		"stores":  dir.Len(),
		"dropped": dir.Dropped(),
	}).Info("store directory loaded")

	// =========================================================================
	// STEP 2: SELECT INPUT FILES
	// =========================================================================

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.MaxDocuments)
	files, skipped, err := fm.SelectInputFiles(args)
	if err != nil {
		return fmt.Errorf("failed to select input files: %w", err)
	}
	if skipped > 0 {
		fmt.Fprintln(out, yellow(fmt.Sprintf("Only the first %d documents are processed; %d skipped", len(files), skipped)))
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No PDF files to process.")
		return nil
	}
	fmt.Fprintf(out, "Found %d file(s) to process\n", len(files))

	var outPath string
	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		outPath, err = fm.OutputPath(utils.GenerateOutputFileName(cfg.OutputFile, startTime), force)
		if err != nil {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}
	}

	// =========================================================================
	// STEP 3: PROCESS DOCUMENTS
	// =========================================================================

	p, err := pipeline.New(cfg, dir, pdfdoc.NewOpener(cfg.Extraction), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	results, runErr := p.ProcessAll(ctx, files, cfg.ContinueOnError)

	var entries []utils.ErrorLogEntry
	for _, r := range results {
		name := filepath.Base(r.FilePath)
		if r.Success {
			fmt.Fprintf(out, "  %s %s -> %s (%d rows, %s)\n",
				green("✓"), name, r.Label.Text, r.Table.Len(), formatAmount(r.Summary.Total, cfg.Report.Currency))
			if verbose && len(r.Warnings) > 0 {
				fmt.Fprint(out, yellow(validation.FormatErrors(r.Warnings)))
			}
			continue
		}
		fmt.Fprintf(out, "  %s %s: %v\n", red("✗"), name, r.Error)
		entries = append(entries, utils.ErrorEntries(name, r.Error, time.Now())...)
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUT
	// =========================================================================

	succeeded := pipeline.Succeeded(results)
	if !dryRun && succeeded > 0 {
		sheets, err := pipeline.WriteWorkbook(results, outPath, xlsxwriter.Options{ReviewMarkerWidth: cfg.Report.ReviewMarkerWidth})
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"path": outPath, "sheets": len(sheets)}).Info("workbook written")
	}

	var errLog string
	if !dryRun {
		errLog, err = utils.WriteErrorLog(entries, cfg.OutputDir, runID)
		if err != nil {
			log.WithError(err).Error("failed to write error log")
		}
	}

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	printSummary(cmd, cfg, results, len(files), time.Since(startTime))
	if !dryRun && succeeded > 0 {
		fmt.Fprintf(out, "Workbook:        %s\n", outPath)
	}
	if errLog != "" {
		fmt.Fprintf(out, "Error log:       %s\n", errLog)
	}

	if runErr != nil {
		return runErr
	}
	if failed := len(results) - succeeded; failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failed, len(results))
	}
	return nil
}

// applyProcessFlags lets explicitly set flags win over the configuration.
func applyProcessFlags(cmd *cobra.Command, cfg *config.MainConfig) {
	if inputDir != "" {
		cfg.InputDir = inputDir
	}
	if outputFile != "" {
		cfg.OutputFile = outputFile
	}
	if cmd.Flags().Changed("continue-on-error") {
		cfg.ContinueOnError = continueOnError
	}
}

func printSummary(cmd *cobra.Command, cfg *config.MainConfig, results []pipeline.Result, total int, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	succeeded := pipeline.Succeeded(results)

	var rows int
	grand := decimal.Zero
	for _, r := range results {
		if r.Success {
			rows += r.Table.Len()
			grand = grand.Add(r.Summary.Total)
		}
	}

	fmt.Fprintln(out, bold("\n=== Processing Complete ==="))
	fmt.Fprintf(out, "Total files:     %d\n", total)
	fmt.Fprintf(out, "Successful:      %s\n", green(succeeded))
	if failed := len(results) - succeeded; failed > 0 {
		fmt.Fprintf(out, "Errors:          %s\n", red(failed))
	} else {
		fmt.Fprintf(out, "Errors:          %d\n", 0)
	}
	if len(results) < total {
		fmt.Fprintf(out, "Not processed:   %s\n", yellow(total-len(results)))
	}
	fmt.Fprintf(out, "Rows:            %d\n", rows)
	fmt.Fprintf(out, "Total amount:    %s\n", formatAmount(grand, cfg.Report.Currency))
	fmt.Fprintf(out, "Time elapsed:    %s\n", elapsed.Round(time.Millisecond))
}
