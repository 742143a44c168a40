package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/cloudkeep/confsweep/internal/models"
	"github.com/cloudkeep/confsweep/internal/version"
	"github.com/cloudkeep/confsweep/pkg/aws"
	"github.com/cloudkeep/confsweep/pkg/classify"
	"github.com/cloudkeep/confsweep/pkg/cleaner"
	"github.com/cloudkeep/confsweep/pkg/formatter"
	"github.com/cloudkeep/confsweep/pkg/pricing"
	"github.com/cloudkeep/confsweep/pkg/utils"
)

var (
	regions     []string
	allRegions  bool
	execute     bool
	preserve    []string
	concurrency int
	timeout     time.Duration
	output      string
	showVersion bool
)

// startRunSpinner creates and starts a spinner while the pipelines run
func startRunSpinner(mode models.Mode) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Cleaning up AWS Config resources (%s) ...", mode)
	s.Start()
	return s
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "confsweep",
		Short: "CLI tool to clean up AWS Config resources",
		Long: `confsweep discovers AWS Config recorders, delivery channels, and rules
across regions, preserves everything owned by the Security Hub integration,
and removes the rest. Dry-run is the default; pass --execute to apply.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				info := version.Get()
				fmt.Printf("confsweep version %s (built: %s, commit: %s, %s)\n",
					info.Version, info.BuildDate, info.GitCommit, info.GoVersion)
				return nil
			}
			return run(cmd.Context())
		},
	}

	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
	rootCmd.Flags().StringSliceVarP(&regions, "regions", "r", nil, "AWS regions to clean (comma separated)")
	rootCmd.Flags().BoolVarP(&allRegions, "all-regions", "A", false, "Clean every enabled region of the account")
	rootCmd.Flags().BoolVar(&execute, "execute", false, "Apply deletions (default is dry-run)")
	rootCmd.Flags().StringSliceVar(&preserve, "preserve", nil, "Extra glob patterns of rule names/ARNs to preserve")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", cleaner.DefaultConcurrency, "Max region pipelines running at once")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "Run-level timeout (0 = none)")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Path of the JSON inventory artifact (default: confsweep_report_<ts>.json)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	mode := models.ModeDryRun
	if execute {
		mode = models.ModeExecute
	}

	for _, pattern := range preserve {
		if !classify.ValidPattern(pattern) {
			return fmt.Errorf("invalid preserve pattern %q", pattern)
		}
	}

	targets, err := resolveRegions(ctx)
	if err != nil {
		return err
	}

	// best effort; the inventory is still valid without the account ID
	account := ""
	if identity, idErr := aws.NewIdentityClient(ctx); idErr == nil {
		account, _ = aws.GetAccountID(ctx, identity)
	}

	runStartTime := time.Now()
	s := startRunSpinner(mode)

	runner := cleaner.NewRunner(cleaner.Options{
		Regions:          targets,
		Mode:             mode,
		Concurrency:      concurrency,
		Timeout:          timeout,
		PreservePatterns: preserve,
	})
	inv := runner.Run(ctx, account)

	runDuration := time.Since(runStartTime)
	s.FinalMSG = fmt.Sprintf("✓ [%d rules found] AWS Config resources processed in %d regions - Completed in %.2f seconds\n",
		inv.Summary.Discovered, len(targets), runDuration.Seconds())
	s.Stop()

	fmt.Println("\nAWS Config Rules:")
	formatter.FormatRulesTable(os.Stdout, inv)

	fmt.Println("\nAWS Config Recorders:")
	formatter.FormatRecordersTable(os.Stdout, inv)

	fmt.Println("\nAWS Config Delivery Channels:")
	formatter.FormatChannelsTable(os.Stdout, inv)

	formatter.PrintRunSummary(os.Stdout, inv)

	est := pricing.EstimateCleanup(inv, pricing.GetRuleEvaluationPrice)
	formatter.PrintCleanupEstimate(os.Stdout, est)

	if msg := pricing.GetInitMessage(); msg != "" {
		fmt.Println(msg)
	}
	formatter.PrintPricingAPIStats()

	path := output
	if path == "" {
		path = formatter.DefaultInventoryPath(runStartTime)
	}
	if err := formatter.WriteInventory(path, inv); err != nil {
		fmt.Printf("Warning: %v\n", err)
	} else {
		fmt.Printf("\nInventory saved: %s\n", path)
	}

	fmt.Println()
	formatter.PrintTimestamp(runStartTime, runDuration)

	// per-resource failures live in the inventory; the exit code only says
	// whether the run itself completed
	return nil
}

// resolveRegions turns the flags into the region list to clean. Total
// discovery failure aborts the run: a fleet-wide cleanup claim needs the
// full region list.
func resolveRegions(ctx context.Context) ([]string, error) {
	if allRegions && len(regions) > 0 {
		return nil, fmt.Errorf("--all-regions and --regions are mutually exclusive")
	}

	if allRegions {
		api, err := aws.NewRegionsClient(ctx)
		if err != nil {
			return nil, &models.DiscoveryError{Err: err}
		}
		discovered, err := aws.ListRegions(ctx, api)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, region := range discovered {
			if region.Enabled {
				names = append(names, region.Name)
			}
		}
		fmt.Printf("Cleaning %d enabled regions\n", len(names))
		return names, nil
	}

	if len(regions) == 0 {
		regions = []string{utils.GetDefaultRegion()}
	}

	var valid []string
	for _, region := range regions {
		if utils.IsValidRegion(region) {
			valid = append(valid, region)
		} else {
			fmt.Printf("Warning: Skipping invalid region '%s'\n", region)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid regions specified")
	}
	return valid, nil
}
