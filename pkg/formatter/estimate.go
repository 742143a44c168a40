package formatter

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/cloudkeep/confsweep/pkg/pricing"
)

// PrintCleanupEstimate writes the business-value block derived from the
// inventory: manual-effort baseline vs the cleanup service price.
func PrintCleanupEstimate(writer io.Writer, est pricing.CleanupEstimate) {
	fmt.Fprintln(writer, "\n## Cleanup Value Estimate")

	fmt.Fprintf(writer, "Cleanable rules: %s (preserved: %s)\n",
		humanize.Comma(int64(est.CleanableRules)),
		humanize.Comma(int64(est.PreservedRules)),
	)
	fmt.Fprintf(writer, "Manual cleanup effort: %.1f hours (~$%s at $%.0f/hour)\n",
		est.ManualHours,
		humanize.Commaf(est.ManualCost),
		pricing.ManualHourlyRate,
	)
	fmt.Fprintf(writer, "Automated service price: $%s\n", humanize.Commaf(est.ServicePrice))

	if est.Savings > 0 {
		fmt.Fprintf(writer, "Estimated savings: $%s (%.0f%% reduction)\n",
			humanize.Commaf(est.Savings), est.SavingsPct)
	} else {
		fmt.Fprintln(writer, "Best value on accounts with 200+ cleanable rules.")
	}

	if est.MonthlyEvalSpend > 0 {
		fmt.Fprintf(writer, "Estimated monthly rule-evaluation spend avoided: $%.2f\n", est.MonthlyEvalSpend)
	}
}
