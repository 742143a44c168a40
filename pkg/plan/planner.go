package plan

import (
	"github.com/cloudkeep/confsweep/internal/models"
)

// StepKind identifies one kind of teardown action.
type StepKind string

const (
	StepStopRecorder   StepKind = "stop-recorder"
	StepDeleteRule     StepKind = "delete-rule"
	StepDeleteChannel  StepKind = "delete-channel"
	StepDeleteRecorder StepKind = "delete-recorder"
)

// Step is a single planned action against one named resource.
type Step struct {
	Kind StepKind
	Name string
}

// Plan is the ordered teardown for one region. Stop is tracked apart from
// the deletion steps: stopping the recorder unblocks rule deletion but does
// not remove anything.
type Plan struct {
	Region string
	Stop   *Step
	Steps  []Step
}

// Len returns the number of deletion steps (the stop step excluded).
func (p Plan) Len() int { return len(p.Steps) }

// Build computes the safe removal order for one region's discovered
// resources: CLEANABLE rules first, then the delivery channel, then the
// recorder. The recorder and channel are prerequisites for rules, so they
// must outlive them; a running recorder additionally blocks some rule
// deletions, which is why stopping it is step zero.
//
// PRESERVE rules are omitted entirely. A rule without a name cannot be
// deleted by the API and yields a PlanningError for that resource only.
func Build(region string, recorder *models.ConfigRecorderInfo, channel *models.ConfigDeliveryChannelInfo, rules []models.ConfigRuleInfo) (Plan, []*models.PlanningError) {
	p := Plan{Region: region}
	var errs []*models.PlanningError

	if recorder != nil && recorder.Recording {
		p.Stop = &Step{Kind: StepStopRecorder, Name: recorder.Name}
	}

	for _, rule := range rules {
		if rule.Classification != models.ClassificationCleanable {
			continue
		}
		if rule.Name == "" {
			errs = append(errs, &models.PlanningError{
				Region:   region,
				Resource: "rule " + rule.ARN,
				Reason:   "empty rule name",
			})
			continue
		}
		p.Steps = append(p.Steps, Step{Kind: StepDeleteRule, Name: rule.Name})
	}

	if channel != nil {
		p.Steps = append(p.Steps, Step{Kind: StepDeleteChannel, Name: channel.Name})
	}
	if recorder != nil {
		p.Steps = append(p.Steps, Step{Kind: StepDeleteRecorder, Name: recorder.Name})
	}

	return p, errs
}
