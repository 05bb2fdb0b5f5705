package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/metricmancer/metricmancer/internal/config"
	"github.com/metricmancer/metricmancer/pkg/delta"
	"github.com/metricmancer/metricmancer/pkg/hotspot"
	"github.com/metricmancer/metricmancer/pkg/kpi"
	"github.com/metricmancer/metricmancer/pkg/languages"
	"github.com/metricmancer/metricmancer/pkg/languages/golang"
	"github.com/metricmancer/metricmancer/pkg/languages/python"
	"github.com/metricmancer/metricmancer/pkg/model"
	"github.com/metricmancer/metricmancer/pkg/orchestrator"
	"github.com/metricmancer/metricmancer/pkg/ownership"
)

var (
	analyzeRoots            []string
	analyzeThresholdLow     float64
	analyzeThresholdHigh    float64
	analyzeCognitiveMedium  int
	analyzeCognitiveHigh    int
	analyzeChurnPeriodDays  int
	analyzeHotspotThreshold float64
	analyzeSignificance     float64
	analyzeReviewBaseBranch string
	analyzeMaxWorkers       int
	analyzeGitTimeoutSecs   int
	analyzeCachePath        string

	deltaRoots          []string
	deltaBaseRef        string
	deltaHeadRef        string
	deltaCachePath      string
	deltaGitTimeoutSecs int
)

var rootCmd = &cobra.Command{
	Use:   "metricmancer",
	Short: "Code health analysis: complexity, churn, ownership, and hotspots",
	Long: `Metricmancer analyzes one or more repository roots to report:
  - Cyclomatic and cognitive complexity per function
  - Code churn from git history
  - Code ownership per file and directory
  - Hotspots (complexity combined with churn)

Results are aggregated bottom-up from files to directories to the
repository root, with scores reported relative to sibling directories.`,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one or more repository roots and print a summary",
	RunE:  runAnalyze,
}

var deltaCmd = &cobra.Command{
	Use:   "delta",
	Short: "Compare function-level complexity between two git refs",
	RunE:  runDelta,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(deltaCmd)

	defaults := config.DefaultConfig()

	analyzeCmd.Flags().StringSliceVarP(&analyzeRoots, "root", "r", []string{"."}, "Repository root(s) to analyze")
	analyzeCmd.Flags().Float64Var(&analyzeThresholdLow, "threshold-low", defaults.ThresholdLow, "Cyclomatic complexity low/medium boundary")
	analyzeCmd.Flags().Float64Var(&analyzeThresholdHigh, "threshold-high", defaults.ThresholdHigh, "Cyclomatic complexity medium/high boundary")
	analyzeCmd.Flags().IntVar(&analyzeCognitiveMedium, "cognitive-threshold-medium", defaults.CognitiveThresholdMedium, "Cognitive complexity low/medium boundary")
	analyzeCmd.Flags().IntVar(&analyzeCognitiveHigh, "cognitive-threshold-high", defaults.CognitiveThresholdHigh, "Cognitive complexity medium/high boundary")
	analyzeCmd.Flags().IntVar(&analyzeChurnPeriodDays, "churn-period-days", defaults.ChurnPeriodDays, "Window for churn analysis, in days")
	analyzeCmd.Flags().Float64Var(&analyzeHotspotThreshold, "hotspot-threshold", defaults.HotspotThreshold, "Hotspot score percentile considered notable")
	analyzeCmd.Flags().Float64Var(&analyzeSignificance, "significance-threshold", defaults.SignificanceThreshold, "Minimum ownership fraction counted as a significant owner")
	analyzeCmd.Flags().StringVar(&analyzeReviewBaseBranch, "review-base-branch", defaults.ReviewBaseBranch, "Ref ownership/blame is computed against")
	analyzeCmd.Flags().IntVar(&analyzeMaxWorkers, "max-workers", defaults.MaxWorkers, "Parallel file-analysis workers (0 = NumCPU)")
	analyzeCmd.Flags().IntVar(&analyzeGitTimeoutSecs, "git-timeout-seconds", defaults.GitTimeoutSeconds, "Timeout for each git subprocess call")
	analyzeCmd.Flags().StringVar(&analyzeCachePath, "cache-path", defaults.CachePath, "Path to a persistent git-operation cache (empty = in-memory only)")

	deltaCmd.Flags().StringSliceVarP(&deltaRoots, "root", "r", []string{"."}, "Repository root(s) to compare")
	deltaCmd.Flags().StringVar(&deltaBaseRef, "base", "HEAD~1", "Base ref")
	deltaCmd.Flags().StringVar(&deltaHeadRef, "head", "HEAD", "Head ref")
	deltaCmd.Flags().StringVar(&deltaCachePath, "cache-path", "", "Path to a persistent git-operation cache (empty = in-memory only)")
	deltaCmd.Flags().IntVar(&deltaGitTimeoutSecs, "git-timeout-seconds", defaults.GitTimeoutSeconds, "Timeout for each git subprocess call")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRegistry() *languages.Registry {
	return languages.NewRegistry(golang.NewParser(), python.NewParser())
}

// loadAndValidateConfig reads .metricmancer.yaml/.metricmancerignore from the
// first analyzed root, layers any cobra flags the user explicitly set on top
// of it, and fails fast (SPEC_FULL.md §7's Config error kind) before any
// analysis begins.
func loadAndValidateConfig(cmd *cobra.Command, configRoot string, apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadConfig(configRoot)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	apply(cfg)

	if violations := cfg.ValidateConfiguration(); len(violations) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(violations, "\n  "))
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Printf("Analyzing %d root(s)...\n", len(analyzeRoots))

	configRoot := "."
	if len(analyzeRoots) > 0 {
		configRoot = analyzeRoots[0]
	}

	cfg, err := loadAndValidateConfig(cmd, configRoot, func(cfg *config.Config) {
		if cmd.Flags().Changed("root") || len(cfg.Roots) == 0 {
			cfg.Roots = analyzeRoots
		}
		if cmd.Flags().Changed("threshold-low") {
			cfg.ThresholdLow = analyzeThresholdLow
		}
		if cmd.Flags().Changed("threshold-high") {
			cfg.ThresholdHigh = analyzeThresholdHigh
		}
		if cmd.Flags().Changed("cognitive-threshold-medium") {
			cfg.CognitiveThresholdMedium = analyzeCognitiveMedium
		}
		if cmd.Flags().Changed("cognitive-threshold-high") {
			cfg.CognitiveThresholdHigh = analyzeCognitiveHigh
		}
		if cmd.Flags().Changed("churn-period-days") {
			cfg.ChurnPeriodDays = analyzeChurnPeriodDays
		}
		if cmd.Flags().Changed("hotspot-threshold") {
			cfg.HotspotThreshold = analyzeHotspotThreshold
		}
		if cmd.Flags().Changed("significance-threshold") {
			cfg.SignificanceThreshold = analyzeSignificance
		}
		if cmd.Flags().Changed("review-base-branch") {
			cfg.ReviewBaseBranch = analyzeReviewBaseBranch
		}
		if cmd.Flags().Changed("max-workers") {
			cfg.MaxWorkers = analyzeMaxWorkers
		}
		if cmd.Flags().Changed("git-timeout-seconds") {
			cfg.GitTimeoutSeconds = analyzeGitTimeoutSecs
		}
		if cmd.Flags().Changed("cache-path") {
			cfg.CachePath = analyzeCachePath
		}
	})
	if err != nil {
		return err
	}

	runCtx := cfg.ToRunContext()
	runCtx.Now = time.Now

	orch := orchestrator.New(newRegistry(), cfg.GetExcludePatterns())
	repos, err := orch.Analyze(context.Background(), runCtx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	for _, repo := range repos {
		printRepoSummary(repo, runCtx)
	}

	return nil
}

func runDelta(cmd *cobra.Command, args []string) error {
	configRoot := "."
	if len(deltaRoots) > 0 {
		configRoot = deltaRoots[0]
	}

	cfg, err := loadAndValidateConfig(cmd, configRoot, func(cfg *config.Config) {
		if cmd.Flags().Changed("root") || len(cfg.Roots) == 0 {
			cfg.Roots = deltaRoots
		}
		if cmd.Flags().Changed("cache-path") {
			cfg.CachePath = deltaCachePath
		}
		if cmd.Flags().Changed("git-timeout-seconds") {
			cfg.GitTimeoutSeconds = deltaGitTimeoutSecs
		}
	})
	if err != nil {
		return err
	}

	runCtx := cfg.ToRunContext()
	runCtx.Now = time.Now

	orch := orchestrator.New(newRegistry(), cfg.GetExcludePatterns())
	changes, err := orch.Delta(context.Background(), runCtx, deltaBaseRef, deltaHeadRef)
	if err != nil {
		return fmt.Errorf("delta failed: %w", err)
	}

	printDelta(changes)
	return nil
}

func printRepoSummary(repo *model.Repository, runCtx *model.RunContext) {
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	fmt.Printf("\n%s (%s)\n", repo.RepoName, repo.AbsoluteRoot)
	if !repo.IsGitRepo {
		yellow.Println("  not a git repository: churn and ownership were skipped")
	}

	fileCount := repo.FileCount()
	cyclomatic := repo.KPIs[kpi.Cyclomatic].Value
	churn := repo.KPIs[kpi.Churn].Value
	hotspotScore := repo.KPIs[kpi.HotspotScore].Value

	fmt.Printf("  files: %d\n", fileCount)
	fmt.Printf("  avg cyclomatic complexity: %.2f\n", cyclomatic)
	fmt.Printf("  avg churn (commits/month): %.2f\n", churn)

	switch {
	case hotspotScore >= runCtx.HotspotThreshold:
		red.Printf("  hotspot score: %.1f (above threshold %.1f)\n", hotspotScore, runCtx.HotspotThreshold)
	default:
		green.Printf("  hotspot score: %.1f\n", hotspotScore)
	}

	if sharedKPI, ok := repo.KPIs[kpi.SharedOwnership]; ok && sharedKPI.Description == "shared" {
		yellow.Println("  ownership: shared across multiple authors")
	}

	if repo.IsGitRepo {
		printOwnerReport(ownership.Summarize(repo))
	}
}

func printOwnerReport(report ownership.Report) {
	if len(report.Owners) == 0 {
		return
	}
	fmt.Println("  top owners:")
	limit := len(report.Owners)
	if limit > 5 {
		limit = 5
	}
	for _, owner := range report.Owners[:limit] {
		fmt.Printf("    %-30s %5d files, %.1f weighted lines\n", owner.Author, owner.FileCount, owner.WeightedLines)
	}
}

func printDelta(changes []delta.FileChange) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	if len(changes) == 0 {
		fmt.Println("No changes detected.")
		return
	}

	for _, change := range changes {
		fmt.Printf("\n%s  %s\n", change.Status, change.Path)
		for _, fc := range change.FunctionChanges {
			grade := hotspot.GradeCognitive(fc.CognitiveAfter)
			line := fmt.Sprintf("  %-8s %-30s cyclomatic %d -> %d, cognitive %d -> %d",
				fc.Status, fc.Name, fc.CyclomaticBefore, fc.CyclomaticAfter, fc.CognitiveBefore, fc.CognitiveAfter)
			switch {
			case fc.Warning != "":
				red.Printf("%s  [%s]\n", line, fc.Warning)
			case grade == hotspot.High || grade == hotspot.Critical || grade == hotspot.Severe:
				yellow.Printf("%s  [cognitive grade: %s]\n", line, grade)
			default:
				fmt.Println(line)
			}
		}
	}
}
