package adherence

import (
	"sort"
	"time"
)

// Streaks computes the current and longest runs of adherent days from a
// patient's full log history. A day is adherent iff it has at least one
// scheduled dose and every dose that day was taken. Days with no scheduled
// doses neither break nor extend a run. An unresolved today (no logs yet)
// does not break the current run; it just isn't counted.
func Streaks(logs []*MedicationLog, now time.Time) (current, longest int) {
	if len(logs) == 0 {
		return 0, 0
	}

	adherent := make(map[time.Time]bool)
	for _, l := range logs {
		day := DayKey(l.ScheduledDate)
		if l.Status != StatusTaken {
			adherent[day] = false
		} else if _, seen := adherent[day]; !seen {
			adherent[day] = true
		}
	}

	days := make([]time.Time, 0, len(adherent))
	for d := range adherent {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	// Longest: a non-adherent day resets the run; dose-free gaps between
	// logged days do not.
	run := 0
	for _, d := range days {
		if adherent[d] {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	// Current: walk logged days backwards from today. A logged day after
	// today (future-dated schedule) is ignored.
	today := DayKey(now)
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].After(today) {
			continue
		}
		if !adherent[days[i]] {
			break
		}
		current++
	}

	if current > longest {
		longest = current
	}
	return current, longest
}
