package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cloudkeep/confsweep/internal/models"
	"github.com/cloudkeep/confsweep/pkg/utils"
)

// FormatRulesTable writes every discovered Config rule with its
// classification and outcome in a table format
func FormatRulesTable(writer io.Writer, inv models.Inventory) {
	var rules []models.ConfigRuleInfo
	for _, region := range inv.Regions {
		rules = append(rules, region.Rules...)
	}

	if len(rules) == 0 {
		fmt.Fprintln(writer, "No AWS Config rules found.")
		return
	}

	// Sort rules: preserved first so the protected set is easy to audit,
	// then by name
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Classification != rules[j].Classification {
			return rules[i].Classification == models.ClassificationPreserve
		}
		return rules[i].Name < rules[j].Name
	})

	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', tabwriter.TabIndent)

	fmt.Fprintln(w, "RULE NAME\tCLASSIFICATION\tOUTCOME\tAGE\tNOTE\tREGION")

	for _, rule := range rules {
		ageStr := "-"
		if rule.CreationTime != nil {
			ageStr = fmt.Sprintf("%d days", utils.CalculateElapsedDays(*rule.CreationTime))
		}

		noteStr := "-"
		if rule.Note != "" {
			noteStr = rule.Note
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rule.Name,
			rule.Classification,
			rule.Outcome,
			ageStr,
			noteStr,
			rule.Region,
		)
	}

	w.Flush()

	preservedCount := 0
	for _, rule := range rules {
		if rule.Classification == models.ClassificationPreserve {
			preservedCount++
		}
	}

	fmt.Fprintf(writer, "\nSummary: %d AWS Config rules discovered (%d preserved for the security integration)\n",
		len(rules), preservedCount)
}

// FormatRecordersTable writes each region's configuration recorder state in
// a table format
func FormatRecordersTable(writer io.Writer, inv models.Inventory) {
	var rows []models.RegionResult
	for _, region := range inv.Regions {
		if region.Recorder != nil {
			rows = append(rows, region)
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(writer, "No AWS Config recorders found.")
		return
	}

	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', tabwriter.TabIndent)

	fmt.Fprintln(w, "RECORDER NAME\tRECORDING\tROLE\tOUTCOME\tNOTE\tREGION")

	for _, row := range rows {
		recorder := row.Recorder

		recordingStr := "No"
		if recorder.Recording {
			recordingStr = "Yes"
		}

		roleStr := recorder.RoleARN
		if roleStr == "" {
			roleStr = "-"
		} else if recorder.RoleMissing {
			roleStr += " (missing)"
		}

		noteStr := "-"
		if row.RecorderNote != "" {
			noteStr = row.RecorderNote
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			recorder.Name,
			recordingStr,
			roleStr,
			outcomeOrDash(row.RecorderOutcome),
			noteStr,
			row.Region,
		)
	}

	w.Flush()
}

// FormatChannelsTable writes each region's delivery channel state in a
// table format
func FormatChannelsTable(writer io.Writer, inv models.Inventory) {
	var rows []models.RegionResult
	for _, region := range inv.Regions {
		if region.Channel != nil {
			rows = append(rows, region)
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(writer, "No AWS Config delivery channels found.")
		return
	}

	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', tabwriter.TabIndent)

	fmt.Fprintln(w, "CHANNEL NAME\tS3 BUCKET\tSNS TOPIC\tOUTCOME\tNOTE\tREGION")

	for _, row := range rows {
		channel := row.Channel

		bucketStr := channel.S3BucketName
		if bucketStr == "" {
			bucketStr = "-"
		} else if channel.BucketMissing {
			bucketStr += " (missing)"
		}

		snsTopicStr := "-"
		if channel.SNSTopicARN != "" {
			snsTopicStr = channel.SNSTopicARN
		}

		noteStr := "-"
		if row.ChannelNote != "" {
			noteStr = row.ChannelNote
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			channel.Name,
			bucketStr,
			snsTopicStr,
			outcomeOrDash(row.ChannelOutcome),
			noteStr,
			row.Region,
		)
	}

	w.Flush()
}

// PrintRunSummary writes the run-level counters and any region-level errors
func PrintRunSummary(writer io.Writer, inv models.Inventory) {
	fmt.Fprintf(writer, "\nMode: %s\n", inv.Mode)
	if inv.Account != "" {
		fmt.Fprintf(writer, "Account: %s\n", inv.Account)
	}

	summary := inv.Summary
	fmt.Fprintf(writer, "Rules discovered: %s, preserved: %s, cleaned: %s, failed: %s, skipped: %s\n",
		humanize.Comma(int64(summary.Discovered)),
		humanize.Comma(int64(summary.Preserved)),
		humanize.Comma(int64(summary.Cleaned)),
		humanize.Comma(int64(summary.Failed)),
		humanize.Comma(int64(summary.Skipped)),
	)
	if summary.Simulated > 0 {
		fmt.Fprintf(writer, "All %s cleanups were simulated; re-run with --execute to apply them.\n",
			humanize.Comma(int64(summary.Simulated)))
	}

	for _, region := range inv.Regions {
		if region.ScanError != "" {
			fmt.Fprintf(writer, "Error in region %s: %s\n", region.Region, region.ScanError)
		}
		for _, planErr := range region.PlanErrors {
			fmt.Fprintf(writer, "Planning error in region %s: %s\n", region.Region, planErr)
		}
	}
}

// WriteInventory writes the inventory artifact consumed by reporting
// collaborators as indented JSON
func WriteInventory(path string, inv models.Inventory) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding inventory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing inventory to %s: %w", path, err)
	}
	return nil
}

// DefaultInventoryPath returns the artifact filename used when --output is
// not given
func DefaultInventoryPath(now time.Time) string {
	return fmt.Sprintf("confsweep_report_%d.json", now.Unix())
}

func outcomeOrDash(outcome models.Outcome) string {
	if outcome == "" {
		return "-"
	}
	return string(outcome)
}
