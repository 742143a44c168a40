package pricing

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

// GetRuleEvaluationPrice returns the USD price of one Config rule
// evaluation in the given region, falling back to the published first-tier
// price when the Pricing API cannot answer.
func GetRuleEvaluationPrice(region string) float64 {
	// Initialize pricing client if not already done
	PricingInitOnce.Do(InitPricingClient)

	cacheKey := fmt.Sprintf("config-rule:%s", region)

	RulePricingCacheLock.RLock()
	if price, found := RulePricingCache[cacheKey]; found {
		RulePricingCacheLock.RUnlock()

		UpdateCacheHitStats("Config", region)

		return price
	}
	RulePricingCacheLock.RUnlock()

	var price float64
	var err error

	if PricingClient != nil {
		price, err = getRulePriceFromAPI(region)
	} else {
		err = fmt.Errorf("pricing client not initialized")
	}

	if err != nil {
		log.Printf("Error getting Config rule price from API: %v. Using fallback pricing for %s.", err, region)

		UpdateAPIFailureStats("Config", region)

		price = DefaultRuleEvaluationPrice
	} else {
		UpdateAPISuccessStats("Config", region)
	}

	RulePricingCacheLock.Lock()
	RulePricingCache[cacheKey] = price
	RulePricingCacheLock.Unlock()

	return price
}

// getRulePriceFromAPI queries the AWS Pricing API for the per-evaluation
// price of a Config rule in the given region.
func getRulePriceFromAPI(region string) (float64, error) {
	filters := []types.Filter{
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("location"),
			Value: aws.String(GetRegionDescriptiveName(region)),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("productFamily"),
			Value: aws.String("Management Tools - AWS Config Rules"),
		},
	}

	priceJSON, err := GetPriceFromAPI(context.TODO(), "AWSConfig", filters, "Config", "Rule evaluations", region)
	if err != nil {
		return 0, err
	}

	return ExtractOnDemandPrice(priceJSON)
}
