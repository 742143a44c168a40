package plan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkeep/confsweep/internal/models"
)

func cleanableRule(name string) models.ConfigRuleInfo {
	return models.ConfigRuleInfo{
		Name:           name,
		ARN:            "arn:aws:config:us-east-1:111122223333:config-rule/" + name,
		Classification: models.ClassificationCleanable,
	}
}

func TestBuild_Ordering(t *testing.T) {
	recorder := &models.ConfigRecorderInfo{Name: "default", Recording: true, Region: "us-east-1"}
	channel := &models.ConfigDeliveryChannelInfo{Name: "default", Region: "us-east-1"}
	rules := []models.ConfigRuleInfo{
		cleanableRule("rule-a"),
		cleanableRule("rule-b"),
	}

	p, errs := Build("us-east-1", recorder, channel, rules)
	require.Empty(t, errs)

	require.NotNil(t, p.Stop)
	assert.Equal(t, StepStopRecorder, p.Stop.Kind)

	require.Len(t, p.Steps, 4)

	// every rule step strictly precedes the channel step, which strictly
	// precedes the recorder step
	var lastRule, channelIdx, recorderIdx int
	for i, step := range p.Steps {
		switch step.Kind {
		case StepDeleteRule:
			lastRule = i
		case StepDeleteChannel:
			channelIdx = i
		case StepDeleteRecorder:
			recorderIdx = i
		}
	}
	assert.Less(t, lastRule, channelIdx)
	assert.Less(t, channelIdx, recorderIdx)
}

func TestBuild_StoppedRecorderHasNoStopStep(t *testing.T) {
	recorder := &models.ConfigRecorderInfo{Name: "default", Recording: false}

	p, _ := Build("us-east-1", recorder, nil, nil)

	assert.Nil(t, p.Stop)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, StepDeleteRecorder, p.Steps[0].Kind)
}

func TestBuild_PreservedRulesOmitted(t *testing.T) {
	rules := []models.ConfigRuleInfo{
		cleanableRule("rule-a"),
		{
			Name:           "securityhub-iam-password-policy",
			ARN:            "arn:aws:config:us-east-1:111122223333:config-rule/x",
			Classification: models.ClassificationPreserve,
		},
	}

	p, errs := Build("us-east-1", nil, nil, rules)
	require.Empty(t, errs)

	require.Len(t, p.Steps, 1)
	assert.Equal(t, "rule-a", p.Steps[0].Name)
}

func TestBuild_EmptyRuleNameIsContained(t *testing.T) {
	rules := []models.ConfigRuleInfo{
		cleanableRule("rule-a"),
		{
			Name:           "",
			ARN:            "arn:aws:config:us-east-1:111122223333:config-rule/broken",
			Classification: models.ClassificationCleanable,
		},
		cleanableRule("rule-b"),
	}

	p, errs := Build("us-east-1", nil, nil, rules)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "empty rule name")

	// the rest of the plan proceeds
	require.Len(t, p.Steps, 2)
	assert.Equal(t, "rule-a", p.Steps[0].Name)
	assert.Equal(t, "rule-b", p.Steps[1].Name)
}

func TestBuild_FullRegionScenario(t *testing.T) {
	// 10 cleanable rules, 1 preserved, one enabled recorder, one channel:
	// 12 deletion steps with the recorder stop tracked separately
	recorder := &models.ConfigRecorderInfo{Name: "default", Recording: true}
	channel := &models.ConfigDeliveryChannelInfo{Name: "default"}

	var rules []models.ConfigRuleInfo
	for i := 0; i < 10; i++ {
		rules = append(rules, cleanableRule(fmt.Sprintf("rule-%02d", i)))
	}
	rules = append(rules, models.ConfigRuleInfo{
		Name:           "securityhub-root-mfa",
		ARN:            "arn:aws:config:us-east-1:111122223333:config-rule/sh",
		Classification: models.ClassificationPreserve,
	})

	p, errs := Build("us-east-1", recorder, channel, rules)

	require.Empty(t, errs)
	require.NotNil(t, p.Stop)
	assert.Equal(t, 12, p.Len())
}
