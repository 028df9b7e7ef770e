package cli

import (
	"fmt"

	"github.com/raphaelgruber/transdoc-go/internal/translate"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show translation state per document and locale",
	Long: `Status classifies every source document against its existing
translations without calling the LLM backend or writing any file.

Examples:
  transdoc status
  transdoc status --verbose`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	applyTranslateFlags()
	if err := cfg.Validate(); err != nil {
		return err
	}

	jobs, skips, err := classifyBatch()
	if err != nil {
		return err
	}

	var fresh, incremental int
	for _, job := range jobs {
		if job.Kind == translate.KindIncremental {
			incremental++
		} else {
			fresh++
		}
	}

	printClassification(jobs, skips)
	fmt.Printf("%d new, %d incremental\n", fresh, incremental)
	return nil
}
