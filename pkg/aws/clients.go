package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ConfigScanAPI is the narrow, read-only AWS Config surface the scanner
// needs. Tests substitute a fake.
type ConfigScanAPI interface {
	DescribeConfigRules(ctx context.Context, params *configservice.DescribeConfigRulesInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigRulesOutput, error)
	DescribeConfigurationRecorders(ctx context.Context, params *configservice.DescribeConfigurationRecordersInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigurationRecordersOutput, error)
	DescribeConfigurationRecorderStatus(ctx context.Context, params *configservice.DescribeConfigurationRecorderStatusInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigurationRecorderStatusOutput, error)
	DescribeDeliveryChannels(ctx context.Context, params *configservice.DescribeDeliveryChannelsInput, optFns ...func(*configservice.Options)) (*configservice.DescribeDeliveryChannelsOutput, error)
	DescribeConfigRuleEvaluationStatus(ctx context.Context, params *configservice.DescribeConfigRuleEvaluationStatusInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigRuleEvaluationStatusOutput, error)
}

// BucketCheckAPI is the single S3 call used to verify a delivery channel's
// destination bucket still exists.
type BucketCheckAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// RoleCheckAPI is the single IAM call used to verify a recorder's role
// still exists.
type RoleCheckAPI interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
}

// RegionsAPI is the single EC2 call used to enumerate enabled regions.
type RegionsAPI interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// IdentityAPI is the single STS call used to stamp the account ID into the
// inventory.
type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// NewRegionsClient builds an EC2 client in the environment's default region.
func NewRegionsClient(ctx context.Context) (RegionsAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return ec2.NewFromConfig(cfg), nil
}

// NewIdentityClient builds an STS client in the environment's default region.
func NewIdentityClient(ctx context.Context) (IdentityAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sts.NewFromConfig(cfg), nil
}

// NewConfigClient builds an AWS Config client bound to region. The returned
// client serves both the scanner and the executor.
func NewConfigClient(ctx context.Context, region string) (*configservice.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return configservice.NewFromConfig(cfg), nil
}
