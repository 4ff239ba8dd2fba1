package adherence

// Adherence scoring: pure arithmetic, never NaN, always clamped to [0,100].

// AdherenceRate is the percentage of scheduled doses taken. Zero scheduled
// doses score zero, not NaN.
func AdherenceRate(taken, scheduled int) float64 {
	if scheduled <= 0 {
		return 0
	}
	return clamp(100 * float64(taken) / float64(scheduled))
}

// OnTimeRate is the percentage of taken doses that were on time. Zero taken
// doses score zero.
func OnTimeRate(onTime, taken int) float64 {
	if taken <= 0 {
		return 0
	}
	return clamp(100 * float64(onTime) / float64(taken))
}

// ScoreLabel classifies a rate for the chart display.
func ScoreLabel(rate float64) string {
	switch {
	case rate >= 90:
		return "excellent"
	case rate >= 75:
		return "good"
	case rate >= 60:
		return "fair"
	default:
		return "needs_attention"
	}
}

// RiskLevel classifies a rate for the admin roster. Distinct thresholds from
// ScoreLabel: triage cares about who needs intervention, not who gets a
// gold star.
func RiskLevel(rate float64) string {
	switch {
	case rate >= 80:
		return "low"
	case rate >= 60:
		return "medium"
	default:
		return "high"
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
