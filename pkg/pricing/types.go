package pricing

import (
	"sync"
)

// PricingSource represents the source of pricing information
type PricingSource string

const (
	// PricingSourceAPI indicates pricing data came from AWS API
	PricingSourceAPI PricingSource = "API"

	// PricingSourceCache indicates pricing data came from cache
	PricingSourceCache PricingSource = "Cache"

	// PricingSourceDefault indicates pricing data came from hardcoded defaults
	PricingSourceDefault PricingSource = "Default"
)

// Stats tracking for pricing API calls
var (
	// PricingAPIStats tracks API call statistics by service and region
	PricingAPIStats = make(map[string]map[string]map[string]int) // service -> region -> {success, failure, cache}

	// PricingAPIStatsLock protects the stats map from concurrent access
	PricingAPIStatsLock sync.RWMutex
)

// Config rule evaluation price cache
var (
	// RulePricingCache caches per-evaluation prices by region
	RulePricingCache = make(map[string]float64)

	// RulePricingCacheLock protects the rule price cache from concurrent access
	RulePricingCacheLock sync.RWMutex
)

// DefaultRuleEvaluationPrice is the fallback USD price per Config rule
// evaluation (first pricing tier) when the Pricing API is unavailable.
const DefaultRuleEvaluationPrice = 0.001

// NominalMonthlyEvaluations is the assumed evaluation volume of one active
// rule per month when estimating avoided spend.
const NominalMonthlyEvaluations = 1000

// Cleanup service economics, matching the published service terms:
// $3 per cleanable rule clamped to [$500, $2500], against a manual
// baseline of 2 minutes per rule at a $240/hour engineering rate.
const (
	PerRulePrice     = 3.0
	MinServicePrice  = 500.0
	MaxServicePrice  = 2500.0
	ManualMinPerRule = 2.0
	ManualHourlyRate = 240.0
)
