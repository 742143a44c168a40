package aws

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkeep/confsweep/internal/models"
	"github.com/cloudkeep/confsweep/pkg/retry"
)

type fakeConfigScanAPI struct {
	rulePages []*configservice.DescribeConfigRulesOutput
	pageIdx   int
	rulesErr  error

	recorders    *configservice.DescribeConfigurationRecordersOutput
	recordersErr error
	status       *configservice.DescribeConfigurationRecorderStatusOutput

	channels    *configservice.DescribeDeliveryChannelsOutput
	channelsErr error

	evalStatus   *configservice.DescribeConfigRuleEvaluationStatusOutput
	evalFailures int
}

func (f *fakeConfigScanAPI) DescribeConfigRules(ctx context.Context, params *configservice.DescribeConfigRulesInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigRulesOutput, error) {
	if f.rulesErr != nil {
		return nil, f.rulesErr
	}
	if f.pageIdx >= len(f.rulePages) {
		return &configservice.DescribeConfigRulesOutput{}, nil
	}
	page := f.rulePages[f.pageIdx]
	f.pageIdx++
	return page, nil
}

func (f *fakeConfigScanAPI) DescribeConfigurationRecorders(ctx context.Context, params *configservice.DescribeConfigurationRecordersInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigurationRecordersOutput, error) {
	if f.recordersErr != nil {
		return nil, f.recordersErr
	}
	if f.recorders == nil {
		return &configservice.DescribeConfigurationRecordersOutput{}, nil
	}
	return f.recorders, nil
}

func (f *fakeConfigScanAPI) DescribeConfigurationRecorderStatus(ctx context.Context, params *configservice.DescribeConfigurationRecorderStatusInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigurationRecorderStatusOutput, error) {
	if f.status == nil {
		return &configservice.DescribeConfigurationRecorderStatusOutput{}, nil
	}
	return f.status, nil
}

func (f *fakeConfigScanAPI) DescribeDeliveryChannels(ctx context.Context, params *configservice.DescribeDeliveryChannelsInput, optFns ...func(*configservice.Options)) (*configservice.DescribeDeliveryChannelsOutput, error) {
	if f.channelsErr != nil {
		return nil, f.channelsErr
	}
	if f.channels == nil {
		return &configservice.DescribeDeliveryChannelsOutput{}, nil
	}
	return f.channels, nil
}

func (f *fakeConfigScanAPI) DescribeConfigRuleEvaluationStatus(ctx context.Context, params *configservice.DescribeConfigRuleEvaluationStatusInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigRuleEvaluationStatusOutput, error) {
	if f.evalFailures > 0 {
		f.evalFailures--
		return nil, &smithy.GenericAPIError{Code: "ThrottlingException"}
	}
	if f.evalStatus == nil {
		return &configservice.DescribeConfigRuleEvaluationStatusOutput{}, nil
	}
	return f.evalStatus, nil
}

type fakeBuckets struct{ err error }

func (f *fakeBuckets) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.HeadBucketOutput{}, nil
}

type fakeRoles struct{ err error }

func (f *fakeRoles) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &iam.GetRoleOutput{}, nil
}

func scanPolicy() *retry.Policy {
	return &retry.Policy{
		MaxAttempts: 1,
		Retryable:   func(error) bool { return false },
	}
}

func managedRule(name string) types.ConfigRule {
	return types.ConfigRule{
		ConfigRuleName: aws.String(name),
		ConfigRuleArn:  aws.String("arn:aws:config:us-east-1:111122223333:config-rule/" + name),
		ConfigRuleId:   aws.String("config-rule-" + name),
		Source: &types.Source{
			Owner:            types.OwnerAws,
			SourceIdentifier: aws.String("S3_BUCKET_LOGGING_ENABLED"),
		},
	}
}

func TestScanRegion_MergesPaginatedRules(t *testing.T) {
	api := &fakeConfigScanAPI{
		rulePages: []*configservice.DescribeConfigRulesOutput{
			{
				ConfigRules: []types.ConfigRule{managedRule("rule-a"), managedRule("rule-b")},
				NextToken:   aws.String("page-2"),
			},
			{
				ConfigRules: []types.ConfigRule{managedRule("rule-c")},
			},
		},
	}

	scanner := NewScannerWith(api, nil, nil, "us-east-1", scanPolicy())
	result, err := scanner.ScanRegion(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Rules, 3)
	assert.Equal(t, "rule-a", result.Rules[0].Name)
	assert.Equal(t, "rule-c", result.Rules[2].Name)
	assert.Equal(t, "AWS", result.Rules[0].SourceOwner)
	assert.Equal(t, "S3_BUCKET_LOGGING_ENABLED", result.Rules[0].SourceIdentifier)
	assert.Equal(t, models.OutcomePending, result.Rules[0].Outcome)
	assert.Zero(t, result.Quarantined)
}

func TestScanRegion_QuarantinesInvalidRules(t *testing.T) {
	noARN := types.ConfigRule{ConfigRuleName: aws.String("broken")}
	noName := types.ConfigRule{ConfigRuleArn: aws.String("arn:aws:config:us-east-1:111122223333:config-rule/x")}
	api := &fakeConfigScanAPI{
		rulePages: []*configservice.DescribeConfigRulesOutput{
			{ConfigRules: []types.ConfigRule{managedRule("rule-a"), noARN, noName}},
		},
	}

	scanner := NewScannerWith(api, nil, nil, "us-east-1", scanPolicy())
	result, err := scanner.ScanRegion(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Rules, 1)
	assert.Equal(t, "rule-a", result.Rules[0].Name)
	assert.Equal(t, 2, result.Quarantined)
}

func TestScanRegion_ServiceLinkedDetection(t *testing.T) {
	linked := managedRule("ssm-rule")
	linked.CreatedBy = aws.String("ssm.amazonaws.com")
	api := &fakeConfigScanAPI{
		rulePages: []*configservice.DescribeConfigRulesOutput{
			{ConfigRules: []types.ConfigRule{linked, managedRule("rule-a")}},
		},
	}

	scanner := NewScannerWith(api, nil, nil, "us-east-1", scanPolicy())
	result, err := scanner.ScanRegion(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Rules[0].ServiceLinked)
	assert.False(t, result.Rules[1].ServiceLinked)
}

func TestScanRegion_FillsCreationTimes(t *testing.T) {
	activated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeConfigScanAPI{
		rulePages: []*configservice.DescribeConfigRulesOutput{
			{ConfigRules: []types.ConfigRule{managedRule("rule-a")}},
		},
		evalStatus: &configservice.DescribeConfigRuleEvaluationStatusOutput{
			ConfigRulesEvaluationStatus: []types.ConfigRuleEvaluationStatus{
				{ConfigRuleName: aws.String("rule-a"), FirstActivatedTime: &activated},
			},
		},
	}

	scanner := NewScannerWith(api, nil, nil, "us-east-1", scanPolicy())
	result, err := scanner.ScanRegion(context.Background())

	require.NoError(t, err)
	require.NotNil(t, result.Rules[0].CreationTime)
	assert.Equal(t, activated, *result.Rules[0].CreationTime)
}

func TestScanRegion_RetriesThrottledEvaluationStatus(t *testing.T) {
	activated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeConfigScanAPI{
		rulePages: []*configservice.DescribeConfigRulesOutput{
			{ConfigRules: []types.ConfigRule{managedRule("rule-a")}},
		},
		evalStatus: &configservice.DescribeConfigRuleEvaluationStatusOutput{
			ConfigRulesEvaluationStatus: []types.ConfigRuleEvaluationStatus{
				{ConfigRuleName: aws.String("rule-a"), FirstActivatedTime: &activated},
			},
		},
		evalFailures: 1,
	}
	policy := &retry.Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
		Retryable:    retry.IsThrottle,
	}

	scanner := NewScannerWith(api, nil, nil, "us-east-1", policy)
	result, err := scanner.ScanRegion(context.Background())

	require.NoError(t, err)
	require.NotNil(t, result.Rules[0].CreationTime)
	assert.Equal(t, activated, *result.Rules[0].CreationTime)
}

func TestScanRegion_RecorderAndStatus(t *testing.T) {
	api := &fakeConfigScanAPI{
		recorders: &configservice.DescribeConfigurationRecordersOutput{
			ConfigurationRecorders: []types.ConfigurationRecorder{
				{
					Name:    aws.String("default"),
					RoleARN: aws.String("arn:aws:iam::111122223333:role/aws-config-role"),
				},
			},
		},
		status: &configservice.DescribeConfigurationRecorderStatusOutput{
			ConfigurationRecordersStatus: []types.ConfigurationRecorderStatus{
				{Name: aws.String("default"), Recording: true},
			},
		},
	}
	roles := &fakeRoles{err: &smithy.GenericAPIError{Code: "NoSuchEntity"}}

	scanner := NewScannerWith(api, nil, roles, "us-east-1", scanPolicy())
	result, err := scanner.ScanRegion(context.Background())

	require.NoError(t, err)
	require.NotNil(t, result.Recorder)
	assert.Equal(t, "default", result.Recorder.Name)
	assert.True(t, result.Recorder.Recording)
	assert.True(t, result.Recorder.RoleMissing)
}

func TestScanRegion_ChannelAndBucketCheck(t *testing.T) {
	api := &fakeConfigScanAPI{
		channels: &configservice.DescribeDeliveryChannelsOutput{
			DeliveryChannels: []types.DeliveryChannel{
				{
					Name:         aws.String("default"),
					S3BucketName: aws.String("config-bucket-111122223333"),
					S3KeyPrefix:  aws.String("config"),
				},
			},
		},
	}
	buckets := &fakeBuckets{err: &smithy.GenericAPIError{Code: "NotFound"}}

	scanner := NewScannerWith(api, buckets, nil, "us-east-1", scanPolicy())
	result, err := scanner.ScanRegion(context.Background())

	require.NoError(t, err)
	require.NotNil(t, result.Channel)
	assert.Equal(t, "config-bucket-111122223333", result.Channel.S3BucketName)
	assert.True(t, result.Channel.BucketMissing)
}

func TestScanRegion_EmptyRegion(t *testing.T) {
	scanner := NewScannerWith(&fakeConfigScanAPI{}, nil, nil, "ap-south-1", scanPolicy())
	result, err := scanner.ScanRegion(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Rules)
	assert.Nil(t, result.Recorder)
	assert.Nil(t, result.Channel)
}

func TestScanRegion_FailureAttachesScanError(t *testing.T) {
	api := &fakeConfigScanAPI{
		rulesErr: &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"},
	}

	scanner := NewScannerWith(api, nil, nil, "eu-west-1", scanPolicy())
	result, err := scanner.ScanRegion(context.Background())

	require.Error(t, err)
	var scanErr *models.RegionScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, "eu-west-1", scanErr.Region)

	assert.NotEmpty(t, result.ScanError)
	assert.Nil(t, result.Rules)
	assert.Nil(t, result.Recorder)
	assert.Nil(t, result.Channel)
}
