package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkeep/confsweep/internal/models"
)

func TestBuildInventory_FoldsCounters(t *testing.T) {
	results := []models.RegionResult{
		{
			Region: "us-west-2",
			Rules: []models.ConfigRuleInfo{
				{Name: "a", Classification: models.ClassificationCleanable, Outcome: models.OutcomeDeleted},
				{Name: "b", Classification: models.ClassificationCleanable, Outcome: models.OutcomeFailed},
				{Name: "c", Classification: models.ClassificationPreserve, Outcome: models.OutcomeSkipped},
			},
		},
		{
			Region: "eu-central-1",
			Rules: []models.ConfigRuleInfo{
				{Name: "d", Classification: models.ClassificationCleanable, Outcome: models.OutcomeSimulated},
				{Name: "e", Classification: models.ClassificationCleanable, Outcome: models.OutcomeSkipped},
			},
		},
	}

	inv := BuildInventory("111122223333", models.ModeExecute, results)

	assert.Equal(t, models.Summary{
		Discovered: 5,
		Preserved:  1,
		Cleaned:    2,
		Failed:     1,
		Simulated:  1,
		Skipped:    1,
	}, inv.Summary)
}

func TestBuildInventory_SortsRegionsAndKeepsFailures(t *testing.T) {
	results := []models.RegionResult{
		{Region: "us-east-1"},
		{Region: "ap-northeast-2", ScanError: "scan failed in ap-northeast-2: throttled"},
		{Region: "eu-west-1"},
	}

	inv := BuildInventory("", models.ModeDryRun, results)

	require.Len(t, inv.Regions, 3)
	assert.Equal(t, "ap-northeast-2", inv.Regions[0].Region)
	assert.Equal(t, "eu-west-1", inv.Regions[1].Region)
	assert.Equal(t, "us-east-1", inv.Regions[2].Region)
	assert.NotEmpty(t, inv.Regions[0].ScanError)
}

func TestBuildInventory_StampsMetadata(t *testing.T) {
	before := time.Now().UTC()
	inv := BuildInventory("111122223333", models.ModeDryRun, nil)
	after := time.Now().UTC()

	assert.Equal(t, "111122223333", inv.Account)
	assert.Equal(t, models.ModeDryRun, inv.Mode)
	assert.False(t, inv.GeneratedAt.Before(before))
	assert.False(t, inv.GeneratedAt.After(after))
}
