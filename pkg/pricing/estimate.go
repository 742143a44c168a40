package pricing

import (
	"github.com/cloudkeep/confsweep/internal/models"
)

// CleanupEstimate is the business-value summary derived from one Inventory.
// It only reads the Inventory; classification and outcomes come from the
// engine and are never re-derived here.
type CleanupEstimate struct {
	CleanableRules int
	PreservedRules int

	ManualHours  float64
	ManualCost   float64
	ServicePrice float64
	Savings      float64
	SavingsPct   float64

	// MonthlyEvalSpend is the estimated monthly Config evaluation spend
	// avoided by removing the cleanable rules.
	MonthlyEvalSpend float64
}

// EstimateCleanup computes the estimate using priceFn for the per-region
// evaluation price. Pass GetRuleEvaluationPrice for live prices, or a stub
// in tests.
func EstimateCleanup(inv models.Inventory, priceFn func(region string) float64) CleanupEstimate {
	est := CleanupEstimate{}

	for _, region := range inv.Regions {
		cleanableInRegion := 0
		for _, rule := range region.Rules {
			if rule.Classification == models.ClassificationPreserve {
				est.PreservedRules++
				continue
			}
			est.CleanableRules++
			cleanableInRegion++
		}
		if cleanableInRegion > 0 && priceFn != nil {
			est.MonthlyEvalSpend += float64(cleanableInRegion) * NominalMonthlyEvaluations * priceFn(region.Region)
		}
	}

	est.ManualHours = float64(est.CleanableRules) * ManualMinPerRule / 60.0
	est.ManualCost = est.ManualHours * ManualHourlyRate
	est.ServicePrice = clampServicePrice(float64(est.CleanableRules) * PerRulePrice)

	if est.ManualCost > est.ServicePrice {
		est.Savings = est.ManualCost - est.ServicePrice
		est.SavingsPct = est.Savings / est.ManualCost * 100.0
	}

	return est
}

func clampServicePrice(price float64) float64 {
	if price < MinServicePrice {
		return MinServicePrice
	}
	if price > MaxServicePrice {
		return MaxServicePrice
	}
	return price
}
