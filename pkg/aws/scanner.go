package aws

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/cloudkeep/confsweep/internal/models"
	"github.com/cloudkeep/confsweep/pkg/retry"
	"github.com/cloudkeep/confsweep/pkg/utils"
)

// evaluation status lookups accept at most 25 rule names per call
const ruleStatusBatchSize = 25

// Scanner reads one region's AWS Config resources. It is strictly
// read-only; deletions happen in pkg/cleaner.
type Scanner struct {
	api     ConfigScanAPI
	buckets BucketCheckAPI
	roles   RoleCheckAPI
	region  string
	policy  *retry.Policy
}

// NewScanner builds a Scanner bound to region using the environment's
// credentials.
func NewScanner(ctx context.Context, region string) (*Scanner, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &Scanner{
		api:     configservice.NewFromConfig(cfg),
		buckets: s3.NewFromConfig(cfg),
		roles:   iam.NewFromConfig(cfg),
		region:  region,
		policy:  retry.DefaultPolicy(),
	}, nil
}

// NewScannerWith wires a Scanner from explicit clients. Tests use it with
// fakes.
func NewScannerWith(api ConfigScanAPI, buckets BucketCheckAPI, roles RoleCheckAPI, region string, policy *retry.Policy) *Scanner {
	return &Scanner{api: api, buckets: buckets, roles: roles, region: region, policy: policy}
}

// ScanRegion returns the region's recorder, delivery channel, and full rule
// list. Pagination is handled here so callers never see a partial rule
// list. On failure the returned RegionResult carries the scan error and the
// error is a RegionScanError; the caller keeps going with other regions.
func (s *Scanner) ScanRegion(ctx context.Context) (*models.RegionResult, error) {
	result := &models.RegionResult{Region: s.region, Rules: []models.ConfigRuleInfo{}}

	rules, quarantined, err := s.scanRules(ctx)
	if err != nil {
		return s.failScan(result, err)
	}
	result.Rules = rules
	result.Quarantined = quarantined

	recorder, err := s.scanRecorder(ctx)
	if err != nil {
		return s.failScan(result, err)
	}
	result.Recorder = recorder

	channel, err := s.scanChannel(ctx)
	if err != nil {
		return s.failScan(result, err)
	}
	result.Channel = channel

	return result, nil
}

func (s *Scanner) failScan(result *models.RegionResult, err error) (*models.RegionResult, error) {
	scanErr := &models.RegionScanError{Region: s.region, Err: err}
	result.ScanError = scanErr.Error()
	result.Rules = nil
	result.Recorder = nil
	result.Channel = nil
	return result, scanErr
}

func (s *Scanner) scanRules(ctx context.Context) ([]models.ConfigRuleInfo, int, error) {
	var rules []models.ConfigRuleInfo
	quarantined := 0

	var token *string
	for {
		var resp *configservice.DescribeConfigRulesOutput
		err := retry.Do(ctx, s.policy, func() error {
			var callErr error
			resp, callErr = s.api.DescribeConfigRules(ctx, &configservice.DescribeConfigRulesInput{
				NextToken: token,
			})
			return callErr
		})
		if err != nil {
			return nil, 0, err
		}

		var pageNames []string
		for _, raw := range resp.ConfigRules {
			rule, ok := s.convertRule(raw)
			if !ok {
				quarantined++
				continue
			}
			rules = append(rules, rule)
			pageNames = append(pageNames, rule.Name)
		}

		s.fillCreationTimes(ctx, rules, pageNames)

		token = resp.NextToken
		if token == nil {
			break
		}
	}

	return rules, quarantined, nil
}

// convertRule validates the provider's loosely-shaped rule into the fixed
// schema. Name and ARN are required; anything missing them is quarantined.
func (s *Scanner) convertRule(raw types.ConfigRule) (models.ConfigRuleInfo, bool) {
	name := utils.SafeDeref(raw.ConfigRuleName)
	arn := utils.SafeDeref(raw.ConfigRuleArn)
	if name == "" || arn == "" {
		return models.ConfigRuleInfo{}, false
	}

	rule := models.ConfigRuleInfo{
		Name:      name,
		ARN:       arn,
		RuleID:    utils.SafeDeref(raw.ConfigRuleId),
		CreatedBy: utils.SafeDeref(raw.CreatedBy),
		Region:    s.region,
		Outcome:   models.OutcomePending,
	}
	if raw.Source != nil {
		rule.SourceOwner = string(raw.Source.Owner)
		rule.SourceIdentifier = utils.SafeDeref(raw.Source.SourceIdentifier)
	}
	rule.ServiceLinked = strings.HasSuffix(rule.CreatedBy, ".amazonaws.com")

	return rule, true
}

// fillCreationTimes backfills each rule's first-activated time for the
// rules named in pageNames. Best effort: rules stay scannable without
// timing data.
func (s *Scanner) fillCreationTimes(ctx context.Context, rules []models.ConfigRuleInfo, pageNames []string) {
	byName := make(map[string]int, len(rules))
	for i := range rules {
		byName[rules[i].Name] = i
	}

	for start := 0; start < len(pageNames); start += ruleStatusBatchSize {
		end := start + ruleStatusBatchSize
		if end > len(pageNames) {
			end = len(pageNames)
		}

		var resp *configservice.DescribeConfigRuleEvaluationStatusOutput
		err := retry.Do(ctx, s.policy, func() error {
			var callErr error
			resp, callErr = s.api.DescribeConfigRuleEvaluationStatus(ctx, &configservice.DescribeConfigRuleEvaluationStatusInput{
				ConfigRuleNames: pageNames[start:end],
			})
			return callErr
		})
		if err != nil {
			return
		}
		for _, status := range resp.ConfigRulesEvaluationStatus {
			idx, ok := byName[utils.SafeDeref(status.ConfigRuleName)]
			if !ok || status.FirstActivatedTime == nil {
				continue
			}
			created := *status.FirstActivatedTime
			rules[idx].CreationTime = &created
		}
	}
}

func (s *Scanner) scanRecorder(ctx context.Context) (*models.ConfigRecorderInfo, error) {
	var resp *configservice.DescribeConfigurationRecordersOutput
	err := retry.Do(ctx, s.policy, func() error {
		var callErr error
		resp, callErr = s.api.DescribeConfigurationRecorders(ctx, &configservice.DescribeConfigurationRecordersInput{})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(resp.ConfigurationRecorders) == 0 {
		return nil, nil
	}

	// per-region singleton: Config allows at most one recorder
	raw := resp.ConfigurationRecorders[0]
	recorder := &models.ConfigRecorderInfo{
		Name:    utils.SafeDeref(raw.Name),
		RoleARN: utils.SafeDeref(raw.RoleARN),
		Region:  s.region,
	}

	var statusResp *configservice.DescribeConfigurationRecorderStatusOutput
	err = retry.Do(ctx, s.policy, func() error {
		var callErr error
		statusResp, callErr = s.api.DescribeConfigurationRecorderStatus(ctx, &configservice.DescribeConfigurationRecorderStatusInput{})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	for _, status := range statusResp.ConfigurationRecordersStatus {
		if utils.SafeDeref(status.Name) == recorder.Name {
			recorder.Recording = status.Recording
		}
	}

	recorder.RoleMissing = s.roleMissing(ctx, recorder.RoleARN)
	return recorder, nil
}

func (s *Scanner) scanChannel(ctx context.Context) (*models.ConfigDeliveryChannelInfo, error) {
	var resp *configservice.DescribeDeliveryChannelsOutput
	err := retry.Do(ctx, s.policy, func() error {
		var callErr error
		resp, callErr = s.api.DescribeDeliveryChannels(ctx, &configservice.DescribeDeliveryChannelsInput{})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(resp.DeliveryChannels) == 0 {
		return nil, nil
	}

	raw := resp.DeliveryChannels[0]
	channel := &models.ConfigDeliveryChannelInfo{
		Name:         utils.SafeDeref(raw.Name),
		S3BucketName: utils.SafeDeref(raw.S3BucketName),
		S3KeyPrefix:  utils.SafeDeref(raw.S3KeyPrefix),
		SNSTopicARN:  utils.SafeDeref(raw.SnsTopicARN),
		Region:       s.region,
	}
	channel.BucketMissing = s.bucketMissing(ctx, channel.S3BucketName)
	return channel, nil
}

// bucketMissing reports whether the channel destination bucket is gone.
// Best effort: access-denied or transport errors do not flag the bucket.
func (s *Scanner) bucketMissing(ctx context.Context, bucket string) bool {
	if bucket == "" || s.buckets == nil {
		return false
	}
	_, err := s.buckets.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	return isAPIErrorCode(err, "NotFound", "NoSuchBucket")
}

// roleMissing reports whether the recorder's role is gone. Best effort.
func (s *Scanner) roleMissing(ctx context.Context, roleARN string) bool {
	if roleARN == "" || s.roles == nil {
		return false
	}
	slash := strings.LastIndex(roleARN, "/")
	if slash < 0 || slash == len(roleARN)-1 {
		return false
	}
	roleName := roleARN[slash+1:]
	_, err := s.roles.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	return isAPIErrorCode(err, "NoSuchEntity")
}

func isAPIErrorCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}
