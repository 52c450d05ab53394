package scoring

import "math"

const (
	MinSeverity = 1
	MaxSeverity = 5

	severityScale    = 2.5
	severityMidpoint = 3
)

// Severity maps a compound sentiment score to a 1..5 urgency bucket.
// Strong polarity in either direction raises severity; near-neutral text
// lands on the midpoint. Scores outside [-1, 1] are clamped first.
func Severity(compound float64) int {
	if math.IsNaN(compound) {
		return severityMidpoint
	}
	compound = math.Max(-1, math.Min(1, compound))
	bucket := int(math.Abs(compound)*severityScale) + severityMidpoint
	if bucket < MinSeverity {
		return MinSeverity
	}
	if bucket > MaxSeverity {
		return MaxSeverity
	}
	return bucket
}
