// Package config loads the structured configuration SPEC_FULL.md §6
// describes: a YAML file plus a `.metricmancerignore` pattern file.
// Grounded on the teacher's internal/config/config.go, which used the same
// "YAML file + ignore file + gitignore-style pattern matching" shape; this
// package re-points the field set at SPEC_FULL.md §6's option table
// (roots, threshold_low/high, churn_period_days, ...) instead of the
// teacher's Kaizen-specific concern thresholds.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/metricmancer/metricmancer/pkg/model"
)

// Config is the recognized option set from SPEC_FULL.md §6's table.
type Config struct {
	Roots         []string `yaml:"roots"`
	OutputFormat  string   `yaml:"output_format"`
	OutputFormats []string `yaml:"output_formats"`
	ReportFolder  string   `yaml:"report_folder"`

	ThresholdLow             float64 `yaml:"threshold_low"`
	ThresholdHigh            float64 `yaml:"threshold_high"`
	CognitiveThresholdMedium int     `yaml:"cognitive_threshold_medium"`
	CognitiveThresholdHigh   int     `yaml:"cognitive_threshold_high"`
	ChurnPeriodDays          int     `yaml:"churn_period_days"`
	HotspotThreshold         float64 `yaml:"hotspot_threshold"`
	SignificanceThreshold    float64 `yaml:"significance_threshold"`

	ReviewBranchOnly bool   `yaml:"review_branch_only"`
	ReviewBaseBranch string `yaml:"review_base_branch"`

	MaxWorkers        int    `yaml:"max_workers"`
	GitTimeoutSeconds int    `yaml:"git_timeout_seconds"`
	CachePath         string `yaml:"cache_path"`

	ExcludePatterns []string `yaml:"exclude"`

	// IgnorePatterns comes from .metricmancerignore, never from YAML.
	IgnorePatterns []string `yaml:"-"`
}

// DefaultConfig returns the documented defaults from SPEC_FULL.md §6,
// sourced from model.DefaultRunContext so the two stay in lockstep.
func DefaultConfig() *Config {
	rc := model.DefaultRunContext()
	return &Config{
		ThresholdLow:             rc.ThresholdLow,
		ThresholdHigh:            rc.ThresholdHigh,
		CognitiveThresholdMedium: rc.CognitiveThresholdMedium,
		CognitiveThresholdHigh:   rc.CognitiveThresholdHigh,
		ChurnPeriodDays:          rc.ChurnPeriodDays,
		HotspotThreshold:         rc.HotspotThreshold,
		SignificanceThreshold:    rc.SignificanceThreshold,
		ReviewBaseBranch:         rc.ReviewBaseBranch,
		OutputFormat:             "text",
		MaxWorkers:               runtime.NumCPU(),
		GitTimeoutSeconds:        rc.GitTimeoutSeconds,
		ExcludePatterns:          []string{"vendor", "node_modules", ".git"},
	}
}

// LoadConfig loads configuration from .metricmancer.yaml and
// .metricmancerignore under rootPath, layered over DefaultConfig.
func LoadConfig(rootPath string) (*Config, error) {
	config := DefaultConfig()

	yamlPath := filepath.Join(rootPath, ".metricmancer.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		if err := config.loadYAML(yamlPath); err != nil {
			return nil, err
		}
	}

	ignorePath := filepath.Join(rootPath, ".metricmancerignore")
	if _, err := os.Stat(ignorePath); err == nil {
		if err := config.loadIgnoreFile(ignorePath); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// loadYAML loads configuration from a YAML file, overwriting any field the
// file sets and leaving DefaultConfig's values for every field it omits.
func (config *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

// loadIgnoreFile loads ignore patterns from .metricmancerignore.
func (config *Config) loadIgnoreFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		config.IgnorePatterns = append(config.IgnorePatterns, line)
	}
	return scanner.Err()
}

// ValidateConfiguration enforces SPEC_FULL.md §7's Config error kind:
// invalid thresholds, a non-positive churn window, or an out-of-range
// significance threshold fail fast before analysis begins, rather than
// surfacing as a per-file warning later. It returns every violation found,
// not just the first.
func (config *Config) ValidateConfiguration() []string {
	var errors []string

	if config.ThresholdLow > config.ThresholdHigh {
		errors = append(errors, fmt.Sprintf("threshold_low (%.1f) must be <= threshold_high (%.1f)", config.ThresholdLow, config.ThresholdHigh))
	}
	if config.CognitiveThresholdMedium > config.CognitiveThresholdHigh {
		errors = append(errors, fmt.Sprintf("cognitive_threshold_medium (%d) must be <= cognitive_threshold_high (%d)", config.CognitiveThresholdMedium, config.CognitiveThresholdHigh))
	}
	if config.ChurnPeriodDays <= 0 {
		errors = append(errors, fmt.Sprintf("churn_period_days must be positive, got %d", config.ChurnPeriodDays))
	}
	if config.SignificanceThreshold < 0 || config.SignificanceThreshold > 1 {
		errors = append(errors, fmt.Sprintf("significance_threshold must be in [0,1], got %.2f", config.SignificanceThreshold))
	}
	if config.HotspotThreshold < 0 || config.HotspotThreshold > 100 {
		errors = append(errors, fmt.Sprintf("hotspot_threshold must be in [0,100], got %.1f", config.HotspotThreshold))
	}
	if config.MaxWorkers < 0 {
		errors = append(errors, fmt.Sprintf("max_workers must be >= 0, got %d", config.MaxWorkers))
	}
	if config.GitTimeoutSeconds <= 0 {
		errors = append(errors, fmt.Sprintf("git_timeout_seconds must be positive, got %d", config.GitTimeoutSeconds))
	}

	switch config.OutputFormat {
	case "", "text", "json", "html":
	default:
		errors = append(errors, fmt.Sprintf("unsupported output_format %q", config.OutputFormat))
	}

	return errors
}

// IsValid reports whether ValidateConfiguration found no violations.
func (config *Config) IsValid() bool {
	return len(config.ValidateConfiguration()) == 0
}

// ToRunContext converts the loaded config into the model.RunContext the
// orchestrator consumes.
func (config *Config) ToRunContext() *model.RunContext {
	return &model.RunContext{
		Roots:                    config.Roots,
		ThresholdLow:             config.ThresholdLow,
		ThresholdHigh:            config.ThresholdHigh,
		CognitiveThresholdMedium: config.CognitiveThresholdMedium,
		CognitiveThresholdHigh:   config.CognitiveThresholdHigh,
		ChurnPeriodDays:          config.ChurnPeriodDays,
		HotspotThreshold:         config.HotspotThreshold,
		SignificanceThreshold:    config.SignificanceThreshold,
		ReviewBranchOnly:         config.ReviewBranchOnly,
		ReviewBaseBranch:         config.ReviewBaseBranch,
		MaxWorkers:               config.MaxWorkers,
		GitTimeoutSeconds:        config.GitTimeoutSeconds,
		CachePath:                config.CachePath,
	}
}

// GetExcludePatterns returns all exclude patterns from both the YAML
// `exclude` list and .metricmancerignore.
func (config *Config) GetExcludePatterns() []string {
	patterns := make([]string, 0, len(config.IgnorePatterns)+len(config.ExcludePatterns))
	patterns = append(patterns, config.ExcludePatterns...)
	patterns = append(patterns, config.IgnorePatterns...)
	return patterns
}

// ShouldIgnore checks if a path should be excluded by either pattern
// source, using the same gitignore-style matching the teacher used for its
// own exclude/ignore patterns.
func (config *Config) ShouldIgnore(path string) bool {
	for _, pattern := range config.IgnorePatterns {
		if matchesPattern(path, pattern) {
			return true
		}
	}
	for _, pattern := range config.ExcludePatterns {
		if matchesPattern(path, pattern) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a path matches a gitignore-style pattern.
func matchesPattern(path string, pattern string) bool {
	if strings.HasPrefix(pattern, "!") {
		pattern = pattern[1:]
		return !matchesPattern(path, pattern)
	}

	if strings.HasSuffix(pattern, "/") {
		pattern = pattern[:len(pattern)-1]
		return strings.HasPrefix(path, pattern+"/") || path == pattern
	}

	if strings.HasPrefix(pattern, "/") {
		pattern = pattern[1:]
		matched, _ := filepath.Match(pattern, path)
		return matched
	}

	if strings.Contains(pattern, "**") {
		parts := strings.Split(pattern, "**")
		if len(parts) == 2 {
			prefix, suffix := parts[0], parts[1]
			if strings.HasPrefix(path, prefix) && strings.HasSuffix(path, suffix) {
				return true
			}
		}
	}

	basename := filepath.Base(path)
	if matched, _ := filepath.Match(pattern, basename); matched {
		return true
	}

	if strings.Contains(path, pattern) {
		return true
	}

	matched, _ := filepath.Match(pattern, path)
	return matched
}
