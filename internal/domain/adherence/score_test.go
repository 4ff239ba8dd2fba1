package adherence

import (
	"math"
	"testing"
)

func TestAdherenceRateNeverNaN(t *testing.T) {
	cases := []struct {
		taken, scheduled int
		want             float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{6, 10, 60},
		{10, 10, 100},
		{7, 7, 100},
		{12, 10, 100}, // over-logged days still clamp
		{-1, 10, 0},
	}
	for _, tc := range cases {
		got := AdherenceRate(tc.taken, tc.scheduled)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("AdherenceRate(%d, %d) not finite: %v", tc.taken, tc.scheduled, got)
		}
		if got != tc.want {
			t.Errorf("AdherenceRate(%d, %d) = %v, want %v", tc.taken, tc.scheduled, got, tc.want)
		}
		if got < 0 || got > 100 {
			t.Errorf("AdherenceRate(%d, %d) = %v out of [0,100]", tc.taken, tc.scheduled, got)
		}
	}
}

func TestOnTimeRate(t *testing.T) {
	if got := OnTimeRate(0, 0); got != 0 {
		t.Errorf("zero taken = %v, want 0", got)
	}
	if got := OnTimeRate(3, 4); got != 75 {
		t.Errorf("3/4 = %v, want 75", got)
	}
	if got := OnTimeRate(7, 7); got != 100 {
		t.Errorf("7/7 = %v, want 100", got)
	}
}

func TestScoreLabel(t *testing.T) {
	cases := []struct {
		rate float64
		want string
	}{
		{100, "excellent"},
		{90, "excellent"},
		{89.9, "good"},
		{75, "good"},
		{74.9, "fair"},
		{60, "fair"},
		{59.9, "needs_attention"},
		{0, "needs_attention"},
	}
	for _, tc := range cases {
		if got := ScoreLabel(tc.rate); got != tc.want {
			t.Errorf("ScoreLabel(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestRiskLevel(t *testing.T) {
	// Distinct ladder from ScoreLabel: 80/60 cut points.
	cases := []struct {
		rate float64
		want string
	}{
		{100, "low"},
		{80, "low"},
		{79.9, "medium"},
		{60, "medium"},
		{59.9, "high"},
		{0, "high"},
	}
	for _, tc := range cases {
		if got := RiskLevel(tc.rate); got != tc.want {
			t.Errorf("RiskLevel(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}
