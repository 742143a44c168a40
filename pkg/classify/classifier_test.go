package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudkeep/confsweep/internal/models"
)

func TestClassify_SecurityHubCreatedBy(t *testing.T) {
	c := NewClassifier()

	got, reason := c.Classify(models.ConfigRuleInfo{
		Name:      "cis-check-3.1",
		ARN:       "arn:aws:config:us-east-1:111122223333:config-rule/config-rule-abc",
		CreatedBy: SecurityHubPrincipal,
	})

	assert.Equal(t, models.ClassificationPreserve, got)
	assert.Contains(t, reason, "Security Hub")
}

func TestClassify_SecurityHubSourceIdentifier(t *testing.T) {
	c := NewClassifier()

	got, _ := c.Classify(models.ConfigRuleInfo{
		Name:             "restricted-ssh",
		ARN:              "arn:aws:config:us-east-1:111122223333:config-rule/config-rule-def",
		SourceOwner:      "CUSTOM_LAMBDA",
		SourceIdentifier: "arn:aws:lambda:us-east-1:111122223333:function:SecurityHubConfigRule",
	})

	assert.Equal(t, models.ClassificationPreserve, got)
}

func TestClassify_DefaultPreservePatterns(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		rule string
		want models.Classification
	}{
		{"securityhub prefix", "securityhub-iam-password-policy-abc123", models.ClassificationPreserve},
		{"conformance pack member", "s3-bucket-logging-enabled-conformance-pack-rcn2awzbq", models.ClassificationPreserve},
		{"plain custom rule", "team-ec2-tag-audit", models.ClassificationCleanable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := c.Classify(models.ConfigRuleInfo{
				Name: tt.rule,
				ARN:  "arn:aws:config:us-east-1:111122223333:config-rule/" + tt.rule,
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_ExtraPattern(t *testing.T) {
	c := NewClassifier("audit-*")

	got, reason := c.Classify(models.ConfigRuleInfo{
		Name: "audit-root-mfa",
		ARN:  "arn:aws:config:us-east-1:111122223333:config-rule/config-rule-ghi",
	})

	assert.Equal(t, models.ClassificationPreserve, got)
	assert.Contains(t, reason, "audit-*")
}

func TestClassify_ServiceLinked(t *testing.T) {
	c := NewClassifier()

	got, _ := c.Classify(models.ConfigRuleInfo{
		Name:      "ssm-managed-rule",
		ARN:       "arn:aws:config:us-east-1:111122223333:config-rule/config-rule-jkl",
		CreatedBy: "ssm.amazonaws.com",
	})

	assert.Equal(t, models.ClassificationPreserve, got)
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier("audit-*")
	rule := models.ConfigRuleInfo{
		Name:             "team-rds-encryption",
		ARN:              "arn:aws:config:eu-west-1:111122223333:config-rule/config-rule-mno",
		SourceOwner:      "AWS",
		SourceIdentifier: "RDS_STORAGE_ENCRYPTED",
	}

	first, firstReason := c.Classify(rule)
	second, secondReason := c.Classify(rule)

	assert.Equal(t, first, second)
	assert.Equal(t, firstReason, secondReason)
	assert.Equal(t, models.ClassificationCleanable, first)
}

func TestValidPattern(t *testing.T) {
	assert.True(t, ValidPattern("securityhub-*"))
	assert.False(t, ValidPattern("bad[pattern"))
}
