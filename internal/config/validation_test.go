package config

import (
	"testing"
)

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name          string
		config        *Config
		expectedCount int
		shouldContain string
	}{
		{
			name:          "valid configuration",
			config:        DefaultConfig(),
			expectedCount: 0,
		},
		{
			name: "threshold_low greater than threshold_high",
			config: func() *Config {
				c := DefaultConfig()
				c.ThresholdLow = 25
				c.ThresholdHigh = 20
				return c
			}(),
			expectedCount: 1,
			shouldContain: "threshold_low",
		},
		{
			name: "cognitive thresholds out of order",
			config: func() *Config {
				c := DefaultConfig()
				c.CognitiveThresholdMedium = 20
				c.CognitiveThresholdHigh = 10
				return c
			}(),
			expectedCount: 1,
			shouldContain: "cognitive_threshold_medium",
		},
		{
			name: "non-positive churn_period_days",
			config: func() *Config {
				c := DefaultConfig()
				c.ChurnPeriodDays = 0
				return c
			}(),
			expectedCount: 1,
			shouldContain: "churn_period_days",
		},
		{
			name: "significance_threshold out of range",
			config: func() *Config {
				c := DefaultConfig()
				c.SignificanceThreshold = 1.5
				return c
			}(),
			expectedCount: 1,
			shouldContain: "significance_threshold",
		},
		{
			name: "hotspot_threshold out of range",
			config: func() *Config {
				c := DefaultConfig()
				c.HotspotThreshold = -10
				return c
			}(),
			expectedCount: 1,
			shouldContain: "hotspot_threshold",
		},
		{
			name: "negative max_workers",
			config: func() *Config {
				c := DefaultConfig()
				c.MaxWorkers = -1
				return c
			}(),
			expectedCount: 1,
			shouldContain: "max_workers",
		},
		{
			name: "unsupported output_format",
			config: func() *Config {
				c := DefaultConfig()
				c.OutputFormat = "pdf"
				return c
			}(),
			expectedCount: 1,
			shouldContain: "output_format",
		},
		{
			name: "multiple violations accumulate",
			config: func() *Config {
				c := DefaultConfig()
				c.ThresholdLow = 25
				c.ThresholdHigh = 20
				c.ChurnPeriodDays = -1
				return c
			}(),
			expectedCount: 2,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			errors := testCase.config.ValidateConfiguration()

			if len(errors) != testCase.expectedCount {
				t.Errorf("expected %d errors, got %d: %v", testCase.expectedCount, len(errors), errors)
			}

			if testCase.shouldContain != "" {
				found := false
				for _, err := range errors {
					if containsSubstring(err, testCase.shouldContain) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error containing '%s', got: %v", testCase.shouldContain, errors)
				}
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	validConfig := DefaultConfig()
	if !validConfig.IsValid() {
		errors := validConfig.ValidateConfiguration()
		t.Errorf("expected valid configuration to return true, but got errors: %v", errors)
	}

	invalidConfig := DefaultConfig()
	invalidConfig.ThresholdLow = 999
	invalidConfig.ThresholdHigh = 1

	if invalidConfig.IsValid() {
		t.Error("expected invalid configuration to return false")
	}
}

func containsSubstring(str, substr string) bool {
	return len(str) >= len(substr) && findSubstring(str, substr)
}

func findSubstring(str, substr string) bool {
	for index := 0; index <= len(str)-len(substr); index++ {
		if matchesAt(str, substr, index) {
			return true
		}
	}
	return false
}

func matchesAt(str, substr string, pos int) bool {
	for offset := 0; offset < len(substr); offset++ {
		if str[pos+offset] != substr[offset] {
			return false
		}
	}
	return true
}
