package cleaner

import (
	"context"
	"sync"
	"time"

	"github.com/cloudkeep/confsweep/internal/models"
	"github.com/cloudkeep/confsweep/pkg/aws"
	"github.com/cloudkeep/confsweep/pkg/classify"
	"github.com/cloudkeep/confsweep/pkg/plan"
	"github.com/cloudkeep/confsweep/pkg/retry"
)

// DefaultConcurrency bounds how many region pipelines run at once, keeping
// the Config API rate limits happy.
const DefaultConcurrency = 8

// RegionScanner is what the runner needs from pkg/aws.Scanner. Tests
// substitute a fake.
type RegionScanner interface {
	ScanRegion(ctx context.Context) (*models.RegionResult, error)
}

// Options fixes a run's shape at invocation time. Mode is immutable for the
// whole run.
type Options struct {
	Regions          []string
	Mode             models.Mode
	Concurrency      int
	Timeout          time.Duration
	PreservePatterns []string
}

// Runner drives the scan, classify, plan, execute pipeline for every
// region. Regions are independent units: each gets its own clients, no
// state is shared across them, and one region's failure never aborts the
// others.
type Runner struct {
	opts       Options
	classifier classify.Classifier
	policy     *retry.Policy

	newScanner func(ctx context.Context, region string) (RegionScanner, error)
	newMutator func(ctx context.Context, region string) (ConfigMutateAPI, error)
}

// NewRunner builds a Runner wired to the real AWS clients.
func NewRunner(opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Runner{
		opts:       opts,
		classifier: classify.NewClassifier(opts.PreservePatterns...),
		policy:     retry.DefaultPolicy(),
		newScanner: func(ctx context.Context, region string) (RegionScanner, error) {
			return aws.NewScanner(ctx, region)
		},
		newMutator: func(ctx context.Context, region string) (ConfigMutateAPI, error) {
			return aws.NewConfigClient(ctx, region)
		},
	}
}

// NewRunnerWith wires a Runner from explicit factories. Tests use it with
// fakes.
func NewRunnerWith(
	opts Options,
	newScanner func(ctx context.Context, region string) (RegionScanner, error),
	newMutator func(ctx context.Context, region string) (ConfigMutateAPI, error),
) *Runner {
	r := NewRunner(opts)
	r.newScanner = newScanner
	r.newMutator = newMutator
	return r
}

// Run executes the pipeline for every configured region and folds the
// results into one Inventory. The run timeout lets in-flight steps finish;
// whatever remains is marked SKIPPED.
func (r *Runner) Run(ctx context.Context, account string) models.Inventory {
	runCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	results := make([]models.RegionResult, len(r.opts.Regions))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.opts.Concurrency)
	for i, region := range r.opts.Regions {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = r.runRegion(runCtx, name)
		}(i, region)
	}
	wg.Wait()

	return BuildInventory(account, r.opts.Mode, results)
}

// runRegion is the strictly sequential per-region pipeline: execution never
// starts before planning is done, planning never before the scan, because
// each phase consumes the previous phase's complete attribute set.
func (r *Runner) runRegion(ctx context.Context, region string) models.RegionResult {
	scanner, err := r.newScanner(ctx, region)
	if err != nil {
		scanErr := &models.RegionScanError{Region: region, Err: err}
		return models.RegionResult{Region: region, ScanError: scanErr.Error()}
	}

	result, err := scanner.ScanRegion(ctx)
	if err != nil {
		// ScanError is already attached; the region ships with zero resources
		return *result
	}

	for i := range result.Rules {
		classification, reason := r.classifier.Classify(result.Rules[i])
		result.Rules[i].Classification = classification
		if classification == models.ClassificationPreserve {
			result.Rules[i].Outcome = models.OutcomeSkipped
			result.Rules[i].Note = reason
		}
	}

	p, planErrs := plan.Build(region, result.Recorder, result.Channel, result.Rules)
	for _, planErr := range planErrs {
		result.PlanErrors = append(result.PlanErrors, planErr.Error())
	}

	var api ConfigMutateAPI
	if r.opts.Mode == models.ModeExecute {
		api, err = r.newMutator(ctx, region)
		if err != nil {
			r.failPlanned(result, p, err)
			return *result
		}
	}

	executor := NewExecutor(api, r.opts.Mode, region, r.policy)
	executor.Apply(ctx, result, p)
	return *result
}

// failPlanned marks every planned step FAILED when the region's mutating
// client cannot be built at all.
func (r *Runner) failPlanned(result *models.RegionResult, p plan.Plan, err error) {
	note := "config client: " + err.Error()
	ruleIdx := make(map[string]int, len(result.Rules))
	for i := range result.Rules {
		ruleIdx[result.Rules[i].Name] = i
	}
	for _, step := range p.Steps {
		switch step.Kind {
		case plan.StepDeleteRule:
			if i, ok := ruleIdx[step.Name]; ok {
				result.Rules[i].Outcome = models.OutcomeFailed
				result.Rules[i].Note = note
			}
		case plan.StepDeleteChannel:
			result.ChannelOutcome = models.OutcomeFailed
			result.ChannelNote = note
		case plan.StepDeleteRecorder:
			result.RecorderOutcome = models.OutcomeFailed
			result.RecorderNote = note
		}
	}
}
