// =============================================================================
// costco-tk - Main Entry Point
// =============================================================================
//
// USAGE:
//   costco-tk process       - Process remittance PDFs into one workbook
//   costco-tk stores        - Inspect the store directory
//   costco-tk version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core processing logic
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/chaotic-justice/costco-tk/cmd"
)

func main() {
	cmd.Execute()
}
