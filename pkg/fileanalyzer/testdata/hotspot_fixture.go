package fixture

import "errors"

// CombineThresholds sums a low and high threshold pair, e.g. when merging
// two repositories' configs into one effective bound.
func CombineThresholds(a, b float64) float64 {
	return a + b
}

// SplitBudget returns the remaining worker budget after reserving some.
func SplitBudget(total, reserved int) int {
	return total - reserved
}

// SafeRatio divides a churn count by a cyclomatic total, guarding the
// zero-denominator case hotspot scoring would otherwise hit for a file with
// no recorded decision points.
func SafeRatio(churn, cyclomatic float64) (float64, error) {
	if cyclomatic == 0 {
		return 0, errors.New("cyclomatic total is zero")
	}
	return churn / cyclomatic, nil
}

// GradeHotspotScore maps a raw 0-100 hotspot score onto capitalized tier
// names modelled on pkg/hotspot's Grade values ("Invalid" outside 0-100),
// as a worked example of a flat decision ladder rather than nested branching.
func GradeHotspotScore(score int) string {
	if score < 0 || score > 100 {
		return "Invalid"
	}
	if score >= 90 {
		return "Critical"
	} else if score >= 80 {
		return "Severe"
	} else if score >= 70 {
		return "High"
	} else if score >= 60 {
		return "Medium"
	} else {
		return "Low"
	}
}

// FilterAndWeighFindings walks a batch of raw hotspot scores, optionally
// filtering by threshold and weighting survivors, worked as a deliberately
// deep decision tree to exercise nested if/for cognitive-complexity scoring.
func FilterAndWeighFindings(scores []int, threshold int, enableFilter bool, enableWeighting bool) []int {
	result := []int{}
	for _, score := range scores {
		if enableFilter {
			if score > threshold {
				if enableWeighting {
					weighted := score * 2
					if weighted < 1000 {
						result = append(result, weighted)
					} else {
						if score%2 == 0 {
							result = append(result, score)
						}
					}
				} else {
					result = append(result, score)
				}
			}
		} else {
			if enableWeighting {
				result = append(result, score*2)
			} else {
				result = append(result, score)
			}
		}
	}
	return result
}
