package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/cloudkeep/confsweep/internal/models"
	"github.com/cloudkeep/confsweep/pkg/utils"
)

// ListRegions returns the sorted set of regions enabled for this account.
// A fleet-wide cleanup claim is meaningless over a partial region list, so
// any failure here is a DiscoveryError and aborts the run.
func ListRegions(ctx context.Context, api RegionsAPI) ([]models.Region, error) {
	resp, err := api.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, &models.DiscoveryError{Err: err}
	}

	var regions []models.Region
	for _, r := range resp.Regions {
		name := utils.SafeDeref(r.RegionName)
		if name == "" {
			continue
		}
		regions = append(regions, models.Region{
			Name:    name,
			Enabled: utils.SafeDeref(r.OptInStatus) != "not-opted-in",
		})
	}

	if len(regions) == 0 {
		return nil, &models.DiscoveryError{Err: fmt.Errorf("no enabled regions returned")}
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Name < regions[j].Name
	})
	return regions, nil
}
