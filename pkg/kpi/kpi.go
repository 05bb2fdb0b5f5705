// Package kpi defines the tagged-variant measurement type shared by every
// node in the MetricMancer data model (Function, File, Directory,
// Repository).
package kpi

// Kind enumerates the measurements MetricMancer attaches to a node.
type Kind string

const (
	Cyclomatic      Kind = "cyclomatic"
	Cognitive       Kind = "cognitive"
	Churn           Kind = "churn"
	Hotspot         Kind = "hotspot"
	Ownership       Kind = "ownership"
	SharedOwnership Kind = "shared_ownership"
	FunctionCount   Kind = "function_count"
	LOC             Kind = "loc"

	// Percentile-rank scores attached to Directory/Repository nodes by the
	// Aggregator (SPEC_FULL.md §4.11), computed among sibling directories.
	ComplexityScore Kind = "complexity_score"
	ChurnScore      Kind = "churn_score"
	HotspotScore    Kind = "hotspot_score"
)

// OwnerFraction is one entry of a per-author blame breakdown.
type OwnerFraction struct {
	Author    string  `json:"author"`
	LineCount int     `json:"line_count"`
	Fraction  float64 `json:"fraction"`
}

// KPI is a named measurement. Value carries the primary numeric reading;
// CalculationValues carries an auxiliary breakdown (per-function values,
// per-author fractions) that report rendering may need but that never
// participates in arithmetic roll-ups by itself.
type KPI struct {
	Kind              Kind              `json:"kind"`
	Value             float64           `json:"value"`
	Unit              string            `json:"unit,omitempty"`
	CalculationValues []float64         `json:"calculation_values,omitempty"`
	Owners            []OwnerFraction   `json:"owners,omitempty"`
	Description       string            `json:"description,omitempty"`
	Max               float64           `json:"max,omitempty"`
	HasMax            bool              `json:"-"`
}

// WithMax returns a copy of the KPI carrying an additional `<kind>_max`
// value, as required by the Aggregator (SPEC_FULL.md §4.11).
func (k KPI) WithMax(max float64) KPI {
	k.Max = max
	k.HasMax = true
	return k
}

// New constructs a simple numeric KPI.
func New(kind Kind, value float64, unit string) KPI {
	return KPI{Kind: kind, Value: value, Unit: unit}
}
