// =============================================================================
// costco-tk - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// SOURCES (later sources win):
//   1. Built-in defaults (DefaultConfig)
//   2. config.yaml (optional; a missing file is not an error)
//   3. A .env file in the working directory (optional)
//   4. COSTCO_TK_* environment variables
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "COSTCO_TK_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for *.pdf files when no file is given on the
	// command line.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the workbook and the error log.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputFile is the workbook name pattern.
	// Placeholders:
	//   {month}     - Current month and year ("January 2026")
	//   {date}      - Current date (YYYYMMDD)
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - A random UUID
	// Default: "{month}_costco_output.xlsx"
	OutputFile string `yaml:"output_file"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile receives a copy of the log when set.
	LogFile string `yaml:"log_file"`

	// LogLevel is any level understood by logrus.
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxDocuments caps the number of PDFs handled by one invocation.
	// Zero means no cap.
	// Default: 25
	MaxDocuments int `yaml:"max_documents"`

	// ContinueOnError keeps the batch going after a document fails.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`

	Directory  DirectoryConfig      `yaml:"directory"`
	Extraction ExtractionConfig     `yaml:"extraction"`
	Resolution ResolutionConfig     `yaml:"resolution"`
	Report     ReportConfig         `yaml:"report"`
	Cleanup    []TransformationRule `yaml:"cleanup"`
}

// DirectoryConfig selects the store directory source.
type DirectoryConfig struct {
	// File is an external .csv or .xlsx directory. Empty means the embedded
	// directory.
	File string `yaml:"file"`

	// Overrides are inserted after the primary pass and win over it.
	Overrides map[string]string `yaml:"overrides"`
}

// ExtractionConfig drives page scanning and table layout.
type ExtractionConfig struct {
	DateLinePrefix   string   `yaml:"date_line_prefix"`
	DatePattern      string   `yaml:"date_pattern"`
	ReferencePattern string   `yaml:"reference_pattern"`
	HeaderMarkers    []string `yaml:"header_markers"`
	StopMarkers      []string `yaml:"stop_markers"`
}

// ResolutionConfig holds the trim offsets of the two resolution passes.
type ResolutionConfig struct {
	DefaultTrim         int `yaml:"default_trim"`
	LongTrim            int `yaml:"long_trim"`
	LongReferenceLength int `yaml:"long_reference_length"`
}

// ReportConfig controls the workbook layout.
type ReportConfig struct {
	// ReviewMarkerWidth: detail rows whose first cell is at most this many
	// characters are written without a store name.
	ReviewMarkerWidth int `yaml:"review_marker_width"`

	// Currency is the ISO code used to display totals.
	Currency string `yaml:"currency"`
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines the cleanup applied to one column of the
// stitched table, before resolution.
type TransformationRule struct {
	// Column is the camel-cased column name ("invoiceNumber").
	Column string `yaml:"column"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single cleanup action.
type TransformationAction struct {
	// Type is one of:
	//   - "trim", "trim_left", "trim_right"
	//   - "uppercase", "lowercase"
	//   - "replace", "regex_replace"
	//   - "remove_chars"
	//   - "collapse_spaces", "remove_spaces"
	//   - "default_if_empty"
	//   - "lookup"
	Type string `yaml:"type"`

	// Value is the parameter of the action.
	Value string `yaml:"value"`

	// Find is used by "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable is used by "lookup".
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *MainConfig {
	return &MainConfig{
		InputDir:        "./input",
		OutputDir:       "./output",
		OutputFile:      "{month}_costco_output.xlsx",
		LogLevel:        "info",
		MaxDocuments:    25,
		ContinueOnError: true,
		Directory: DirectoryConfig{
			Overrides: map[string]string{
				"1997": "C991997",
				"0000": "Unknown",
			},
		},
		Extraction: ExtractionConfig{
			DateLinePrefix:   "Date",
			DatePattern:      `(\d{2}/\d{2})/\d{4}`,
			ReferencePattern: `Payment #:\s*(\d+)`,
			HeaderMarkers:    []string{"Invoice", "Amount"},
			StopMarkers:      []string{"Total"},
		},
		Resolution: ResolutionConfig{
			DefaultTrim:         6,
			LongTrim:            7,
			LongReferenceLength: 11,
		},
		Report: ReportConfig{
			ReviewMarkerWidth: 10,
			Currency:          "USD",
		},
	}
}

// LoadMainConfig loads the configuration from a YAML file.
//
// An empty path or a missing file yields the defaults. Environment overrides
// are applied in both cases.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyMainConfigDefaults(config)

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyMainConfigDefaults fills values a config file explicitly blanked.
// max_documents is left alone: an explicit 0 turns the cap off.
func applyMainConfigDefaults(config *MainConfig) {
	def := DefaultConfig()

	if config.InputDir == "" {
		config.InputDir = def.InputDir
	}
	if config.OutputDir == "" {
		config.OutputDir = def.OutputDir
	}
	if config.OutputFile == "" {
		config.OutputFile = def.OutputFile
	}
	if config.LogLevel == "" {
		config.LogLevel = def.LogLevel
	}
	if config.Directory.Overrides == nil {
		config.Directory.Overrides = map[string]string{}
	}

	ex := &config.Extraction
	if ex.DateLinePrefix == "" {
		ex.DateLinePrefix = def.Extraction.DateLinePrefix
	}
	if ex.DatePattern == "" {
		ex.DatePattern = def.Extraction.DatePattern
	}
	if ex.ReferencePattern == "" {
		ex.ReferencePattern = def.Extraction.ReferencePattern
	}
	if len(ex.HeaderMarkers) == 0 {
		ex.HeaderMarkers = def.Extraction.HeaderMarkers
	}
	if len(ex.StopMarkers) == 0 {
		ex.StopMarkers = def.Extraction.StopMarkers
	}

	res := &config.Resolution
	if res.DefaultTrim == 0 {
		res.DefaultTrim = def.Resolution.DefaultTrim
	}
	if res.LongTrim == 0 {
		res.LongTrim = def.Resolution.LongTrim
	}
	if res.LongReferenceLength == 0 {
		res.LongReferenceLength = def.Resolution.LongReferenceLength
	}

	if config.Report.ReviewMarkerWidth == 0 {
		config.Report.ReviewMarkerWidth = def.Report.ReviewMarkerWidth
	}
	if config.Report.Currency == "" {
		config.Report.Currency = def.Report.Currency
	}
}

// applyEnvOverrides loads .env (when present) and applies COSTCO_TK_*
// variables on top of the file configuration.
func applyEnvOverrides(config *MainConfig) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	strs := map[string]*string{
		"INPUT_DIR":      &config.InputDir,
		"OUTPUT_DIR":     &config.OutputDir,
		"OUTPUT_FILE":    &config.OutputFile,
		"LOG_LEVEL":      &config.LogLevel,
		"LOG_FILE":       &config.LogFile,
		"DIRECTORY_FILE": &config.Directory.File,
		"CURRENCY":       &config.Report.Currency,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "MAX_DOCUMENTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_DOCUMENTS: %w", EnvPrefix, err)
		}
		config.MaxDocuments = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CONTINUE_ON_ERROR"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCONTINUE_ON_ERROR: %w", EnvPrefix, err)
		}
		config.ContinueOnError = b
	}

	return nil
}

var shortKeyPattern = regexp.MustCompile(`^\d{4}$`)

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if _, err := logrus.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if config.MaxDocuments < 0 {
		return fmt.Errorf("max_documents must not be negative, got %d", config.MaxDocuments)
	}

	res := config.Resolution
	if res.DefaultTrim < 0 || res.LongTrim < 0 {
		return fmt.Errorf("resolution trims must not be negative")
	}
	if res.LongReferenceLength <= 0 {
		return fmt.Errorf("long_reference_length must be positive")
	}

	for _, p := range []string{config.Extraction.DatePattern, config.Extraction.ReferencePattern} {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("pattern %q needs a capture group", p)
		}
	}

	for key := range config.Directory.Overrides {
		if !shortKeyPattern.MatchString(key) {
			return fmt.Errorf("directory override key %q must be four digits", key)
		}
	}

	if !strings.HasSuffix(strings.ToLower(config.OutputFile), ".xlsx") {
		config.OutputFile += ".xlsx"
	}

	return nil
}
