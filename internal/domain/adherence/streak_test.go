package adherence

import (
	"testing"
	"time"
)

func logOn(day time.Time, status LogStatus) *MedicationLog {
	return &MedicationLog{
		ScheduledTime: day.Add(8 * time.Hour),
		ScheduledDate: DayKey(day),
		Status:        status,
	}
}

func day(offset int) time.Time {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestStreaksEmpty(t *testing.T) {
	current, longest := Streaks(nil, day(0))
	if current != 0 || longest != 0 {
		t.Errorf("empty = %d/%d, want 0/0", current, longest)
	}
}

func TestStreaksPerfectWeek(t *testing.T) {
	var logs []*MedicationLog
	for i := -6; i <= 0; i++ {
		logs = append(logs, logOn(day(i), StatusTaken))
	}
	current, longest := Streaks(logs, day(0))
	if current != 7 || longest != 7 {
		t.Errorf("perfect week = %d/%d, want 7/7", current, longest)
	}
}

func TestStreaksPartialDayBreaks(t *testing.T) {
	// Two doses scheduled on day -2, only one taken: that day is not
	// adherent and breaks the run.
	logs := []*MedicationLog{
		logOn(day(-4), StatusTaken),
		logOn(day(-3), StatusTaken),
		logOn(day(-2), StatusTaken),
		logOn(day(-2), StatusMissed),
		logOn(day(-1), StatusTaken),
		logOn(day(0), StatusTaken),
	}
	current, longest := Streaks(logs, day(0))
	if current != 2 {
		t.Errorf("current = %d, want 2", current)
	}
	if longest != 2 {
		t.Errorf("longest = %d, want 2", longest)
	}
}

func TestStreaksZeroDoseDaysNeitherBreakNorExtend(t *testing.T) {
	// Gap at day -2 (no doses scheduled): the run continues across it but
	// the gap day itself is not counted.
	logs := []*MedicationLog{
		logOn(day(-4), StatusTaken),
		logOn(day(-3), StatusTaken),
		logOn(day(-1), StatusTaken),
		logOn(day(0), StatusTaken),
	}
	current, longest := Streaks(logs, day(0))
	if current != 4 {
		t.Errorf("current = %d, want 4", current)
	}
	if longest != 4 {
		t.Errorf("longest = %d, want 4", longest)
	}
}

func TestStreaksUnresolvedTodayDoesNotBreak(t *testing.T) {
	// No logs yet today: the run ending yesterday still counts.
	logs := []*MedicationLog{
		logOn(day(-2), StatusTaken),
		logOn(day(-1), StatusTaken),
	}
	current, _ := Streaks(logs, day(0))
	if current != 2 {
		t.Errorf("current = %d, want 2", current)
	}
}

func TestStreaksSkippedBreaks(t *testing.T) {
	logs := []*MedicationLog{
		logOn(day(-1), StatusTaken),
		logOn(day(0), StatusSkipped),
	}
	current, longest := Streaks(logs, day(0))
	if current != 0 {
		t.Errorf("current = %d, want 0", current)
	}
	if longest != 1 {
		t.Errorf("longest = %d, want 1", longest)
	}
}

func TestStreaksLongestInHistory(t *testing.T) {
	// A long adherent run in the past beats the shorter current one.
	var logs []*MedicationLog
	for i := -10; i <= -6; i++ {
		logs = append(logs, logOn(day(i), StatusTaken))
	}
	logs = append(logs, logOn(day(-5), StatusMissed))
	logs = append(logs, logOn(day(-1), StatusTaken))
	logs = append(logs, logOn(day(0), StatusTaken))

	current, longest := Streaks(logs, day(0))
	if current != 2 {
		t.Errorf("current = %d, want 2", current)
	}
	if longest != 5 {
		t.Errorf("longest = %d, want 5", longest)
	}
}

func TestStreaksCurrentNeverExceedsLongest(t *testing.T) {
	statuses := []LogStatus{StatusTaken, StatusMissed, StatusSkipped}
	// Walk a few deterministic mixes and assert the invariant.
	for seed := 0; seed < len(statuses); seed++ {
		var logs []*MedicationLog
		for i := -14; i <= 0; i++ {
			logs = append(logs, logOn(day(i), statuses[(i+14+seed)%len(statuses)]))
		}
		current, longest := Streaks(logs, day(0))
		if current > longest {
			t.Errorf("seed %d: current %d > longest %d", seed, current, longest)
		}
	}
}

func TestStreaksIgnoreFutureDays(t *testing.T) {
	logs := []*MedicationLog{
		logOn(day(-1), StatusTaken),
		logOn(day(0), StatusTaken),
		logOn(day(2), StatusMissed), // future-dated schedule entry
	}
	current, _ := Streaks(logs, day(0))
	if current != 2 {
		t.Errorf("current = %d, want 2", current)
	}
}
