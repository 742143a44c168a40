package cleaner

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/smithy-go"

	"github.com/cloudkeep/confsweep/internal/models"
	"github.com/cloudkeep/confsweep/pkg/plan"
	"github.com/cloudkeep/confsweep/pkg/retry"
)

// ConfigMutateAPI is the narrow mutating AWS Config surface the executor
// needs. *configservice.Client satisfies it; tests substitute a fake.
type ConfigMutateAPI interface {
	StopConfigurationRecorder(ctx context.Context, params *configservice.StopConfigurationRecorderInput, optFns ...func(*configservice.Options)) (*configservice.StopConfigurationRecorderOutput, error)
	DeleteConfigRule(ctx context.Context, params *configservice.DeleteConfigRuleInput, optFns ...func(*configservice.Options)) (*configservice.DeleteConfigRuleOutput, error)
	DeleteDeliveryChannel(ctx context.Context, params *configservice.DeleteDeliveryChannelInput, optFns ...func(*configservice.Options)) (*configservice.DeleteDeliveryChannelOutput, error)
	DeleteConfigurationRecorder(ctx context.Context, params *configservice.DeleteConfigurationRecorderInput, optFns ...func(*configservice.Options)) (*configservice.DeleteConfigurationRecorderOutput, error)
}

// Executor applies one region's deletion plan in order. In dry-run mode it
// never touches the API; in execute mode each step issues the real call and
// later independent steps keep going when one fails.
type Executor struct {
	api    ConfigMutateAPI
	mode   models.Mode
	region string
	policy *retry.Policy
}

// NewExecutor builds an Executor. api may be nil in dry-run mode.
func NewExecutor(api ConfigMutateAPI, mode models.Mode, region string, policy *retry.Policy) *Executor {
	return &Executor{api: api, mode: mode, region: region, policy: policy}
}

// Apply walks the plan sequentially, recording every step's outcome on the
// RegionResult. Cancellation is only honored between steps, never mid-call;
// steps left behind get SKIPPED with reason "timeout".
func (e *Executor) Apply(ctx context.Context, result *models.RegionResult, p plan.Plan) {
	ruleIdx := make(map[string]int, len(result.Rules))
	for i := range result.Rules {
		ruleIdx[result.Rules[i].Name] = i
	}

	// the run deadline is honored between steps only; the call in flight
	// when it fires runs on an undeadlined child and always completes
	callCtx := context.WithoutCancel(ctx)

	if p.Stop != nil && ctx.Err() == nil {
		if err := e.stopRecorder(callCtx, p.Stop.Name); err != nil {
			// rule deletions may still go through; record and press on
			result.RecorderNote = "stop failed: " + errClass(err)
		}
	}

	channelFailed := false
	for _, step := range p.Steps {
		if ctx.Err() != nil {
			e.recordStep(result, ruleIdx, step, models.OutcomeSkipped, "timeout")
			continue
		}

		outcome, note := e.applyStep(callCtx, step)

		if step.Kind == plan.StepDeleteChannel && outcome == models.OutcomeFailed {
			channelFailed = true
		}
		if step.Kind == plan.StepDeleteRecorder && channelFailed && outcome != models.OutcomeFailed {
			// the recorder was already stopped, so its deletion is
			// attempted regardless of the channel's fate
			note = joinNote(note, "warning: delivery channel deletion failed")
		}

		e.recordStep(result, ruleIdx, step, outcome, note)
	}
}

func (e *Executor) stopRecorder(ctx context.Context, name string) error {
	if e.mode == models.ModeDryRun {
		return nil
	}
	err := retry.Do(ctx, e.policy, func() error {
		_, callErr := e.api.StopConfigurationRecorder(ctx, &configservice.StopConfigurationRecorderInput{
			ConfigurationRecorderName: aws.String(name),
		})
		return callErr
	})
	if isNotFound(err) {
		return nil
	}
	return err
}

// applyStep issues (or simulates) one deletion and classifies the result.
// "Not found" is reclassified as success: an already-cleaned region must
// re-run as a no-op, never as an error.
func (e *Executor) applyStep(ctx context.Context, step plan.Step) (models.Outcome, string) {
	if e.mode == models.ModeDryRun {
		return models.OutcomeSimulated, ""
	}

	err := retry.Do(ctx, e.policy, func() error {
		return e.deleteCall(ctx, step)
	})
	if err == nil {
		return models.OutcomeDeleted, ""
	}
	if isNotFound(err) {
		return models.OutcomeDeleted, "already absent"
	}

	delErr := &models.DeletionError{Region: e.region, Resource: string(step.Kind) + " " + step.Name, Err: err}
	return models.OutcomeFailed, fmt.Sprintf("%s: %v", errClass(err), delErr.Unwrap())
}

func (e *Executor) deleteCall(ctx context.Context, step plan.Step) error {
	switch step.Kind {
	case plan.StepDeleteRule:
		_, err := e.api.DeleteConfigRule(ctx, &configservice.DeleteConfigRuleInput{
			ConfigRuleName: aws.String(step.Name),
		})
		return err
	case plan.StepDeleteChannel:
		_, err := e.api.DeleteDeliveryChannel(ctx, &configservice.DeleteDeliveryChannelInput{
			DeliveryChannelName: aws.String(step.Name),
		})
		return err
	case plan.StepDeleteRecorder:
		_, err := e.api.DeleteConfigurationRecorder(ctx, &configservice.DeleteConfigurationRecorderInput{
			ConfigurationRecorderName: aws.String(step.Name),
		})
		return err
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (e *Executor) recordStep(result *models.RegionResult, ruleIdx map[string]int, step plan.Step, outcome models.Outcome, note string) {
	switch step.Kind {
	case plan.StepDeleteRule:
		if i, ok := ruleIdx[step.Name]; ok {
			result.Rules[i].Outcome = outcome
			result.Rules[i].Note = note
		}
	case plan.StepDeleteChannel:
		result.ChannelOutcome = outcome
		result.ChannelNote = note
	case plan.StepDeleteRecorder:
		result.RecorderOutcome = outcome
		result.RecorderNote = joinNote(result.RecorderNote, note)
	}
}

var notFoundCodes = map[string]bool{
	"NoSuchConfigRuleException":                 true,
	"NoSuchDeliveryChannelException":            true,
	"NoSuchConfigurationRecorderException":      true,
	"NoAvailableConfigurationRecorderException": true,
	"ResourceNotFoundException":                 true,
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && notFoundCodes[apiErr.ErrorCode()]
}

// errClass extracts the provider's error code when there is one.
func errClass(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return "Error"
}

func joinNote(existing, extra string) string {
	switch {
	case extra == "":
		return existing
	case existing == "":
		return extra
	default:
		return existing + "; " + extra
	}
}
