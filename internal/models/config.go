package models

import (
	"time"
)

// Classification marks whether a discovered Config rule is protected from
// deletion or available for cleanup.
type Classification string

const (
	ClassificationPreserve  Classification = "PRESERVE"
	ClassificationCleanable Classification = "CLEANABLE"
)

// Outcome is the terminal state of a resource after a cleanup run.
type Outcome string

const (
	OutcomePending   Outcome = "PENDING"
	OutcomeSimulated Outcome = "SIMULATED"
	OutcomeDeleted   Outcome = "DELETED"
	OutcomeFailed    Outcome = "FAILED"
	OutcomeSkipped   Outcome = "SKIPPED"
)

// Mode selects between simulating and executing deletions. It is fixed at
// invocation time and threaded explicitly through every phase.
type Mode string

const (
	ModeDryRun  Mode = "dry-run"
	ModeExecute Mode = "execute"
)

// Region is one enabled region of the account.
type Region struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// ConfigRuleInfo holds the scanned attributes of an AWS Config rule plus its
// classification and final outcome.
type ConfigRuleInfo struct {
	Name             string     `json:"name"`
	ARN              string     `json:"arn"`
	RuleID           string     `json:"ruleId,omitempty"`
	SourceOwner      string     `json:"sourceOwner,omitempty"`
	SourceIdentifier string     `json:"sourceIdentifier,omitempty"`
	CreatedBy        string     `json:"createdBy,omitempty"`
	CreationTime     *time.Time `json:"creationTime,omitempty"`
	ServiceLinked    bool       `json:"serviceLinked"`
	Region           string     `json:"region"`

	Classification Classification `json:"classification"`
	Outcome        Outcome        `json:"outcome"`
	Note           string         `json:"note,omitempty"`
}

// ConfigRecorderInfo holds the scanned attributes of the per-region
// configuration recorder (zero or one per region).
type ConfigRecorderInfo struct {
	Name        string `json:"name"`
	RoleARN     string `json:"roleArn,omitempty"`
	Recording   bool   `json:"recording"`
	RoleMissing bool   `json:"roleMissing,omitempty"`
	Region      string `json:"region"`
}

// ConfigDeliveryChannelInfo holds the scanned attributes of the per-region
// delivery channel (zero or one per region).
type ConfigDeliveryChannelInfo struct {
	Name          string `json:"name"`
	S3BucketName  string `json:"s3BucketName,omitempty"`
	S3KeyPrefix   string `json:"s3KeyPrefix,omitempty"`
	SNSTopicARN   string `json:"snsTopicArn,omitempty"`
	BucketMissing bool   `json:"bucketMissing,omitempty"`
	Region        string `json:"region"`
}

// RegionResult owns everything discovered and decided for one region.
type RegionResult struct {
	Region string `json:"region"`

	Recorder *ConfigRecorderInfo        `json:"recorder,omitempty"`
	Channel  *ConfigDeliveryChannelInfo `json:"deliveryChannel,omitempty"`
	Rules    []ConfigRuleInfo           `json:"rules"`

	RecorderOutcome Outcome `json:"recorderOutcome,omitempty"`
	RecorderNote    string  `json:"recorderNote,omitempty"`
	ChannelOutcome  Outcome `json:"channelOutcome,omitempty"`
	ChannelNote     string  `json:"channelNote,omitempty"`

	// Quarantined counts scanned rules rejected for missing required
	// attributes; they are never classified or planned.
	Quarantined int `json:"quarantined,omitempty"`

	ScanError  string   `json:"scanError,omitempty"`
	PlanErrors []string `json:"planErrors,omitempty"`
}

// Summary holds the run-level counters folded over every rule's final outcome.
type Summary struct {
	Discovered int `json:"discovered"`
	Preserved  int `json:"preserved"`
	Cleaned    int `json:"cleaned"`
	Failed     int `json:"failed"`
	Simulated  int `json:"simulated"`
	Skipped    int `json:"skipped"`
}

// Inventory is the cross-region snapshot handed to reporting collaborators.
// It is the sole contract between the engine and report/pricing code and is
// immutable once emitted.
type Inventory struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Account     string         `json:"account,omitempty"`
	Mode        Mode           `json:"mode"`
	Regions     []RegionResult `json:"regions"`
	Summary     Summary        `json:"summary"`
}
