package cleaner

import (
	"sort"
	"time"

	"github.com/cloudkeep/confsweep/internal/models"
)

// BuildInventory merges every region's result into the one snapshot handed
// to reporting collaborators. Regions that failed to scan are included with
// zero resources and their error attached, so totals are never silently
// under-reported. Pure aggregation; no provider calls.
func BuildInventory(account string, mode models.Mode, results []models.RegionResult) models.Inventory {
	regions := make([]models.RegionResult, len(results))
	copy(regions, results)
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Region < regions[j].Region
	})

	var summary models.Summary
	for _, region := range regions {
		for _, rule := range region.Rules {
			summary.Discovered++
			if rule.Classification == models.ClassificationPreserve {
				summary.Preserved++
				continue
			}
			switch rule.Outcome {
			case models.OutcomeDeleted:
				summary.Cleaned++
			case models.OutcomeSimulated:
				// a simulated deletion still counts as cleanable work done
				summary.Cleaned++
				summary.Simulated++
			case models.OutcomeFailed:
				summary.Failed++
			case models.OutcomeSkipped:
				summary.Skipped++
			}
		}
	}

	return models.Inventory{
		GeneratedAt: time.Now().UTC(),
		Account:     account,
		Mode:        mode,
		Regions:     regions,
		Summary:     summary,
	}
}
