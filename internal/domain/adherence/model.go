// Package adherence is the core of the service: the dose log store and the
// aggregation pipeline (period bucketing, streaks, scoring, dashboard
// composition) built on top of it.
package adherence

import (
	"time"

	"github.com/google/uuid"
)

// LogStatus is the terminal outcome of a scheduled dose.
type LogStatus string

const (
	StatusTaken   LogStatus = "taken"
	StatusSkipped LogStatus = "skipped"
	StatusMissed  LogStatus = "missed"
)

// Valid reports whether s is a known status.
func (s LogStatus) Valid() bool {
	switch s {
	case StatusTaken, StatusSkipped, StatusMissed:
		return true
	}
	return false
}

// MedicationLog records the outcome of one scheduled dose. ActualTime and
// OnTime are present iff Status is taken; MinutesLate only when the dose was
// taken after the scheduled time. MedicationName and Dosage are joined from
// the assignment on reads.
type MedicationLog struct {
	ID                  uuid.UUID  `json:"id"`
	PatientMedicationID uuid.UUID  `json:"patient_medication_id"`
	PatientID           uuid.UUID  `json:"patient_id"`
	ScheduledTime       time.Time  `json:"scheduled_time"`
	ScheduledDate       time.Time  `json:"scheduled_date"`
	Status              LogStatus  `json:"status"`
	ActualTime          *time.Time `json:"actual_time,omitempty"`
	OnTime              *bool      `json:"on_time,omitempty"`
	MinutesLate         *int       `json:"minutes_late,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	SkippedReason       string     `json:"skipped_reason,omitempty"`
	LoggedVia           string     `json:"logged_via,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	MedicationName string `json:"medication_name,omitempty"`
	Dosage         string `json:"dosage,omitempty"`
}

// CreateLogRequest is the payload for POST /adherence/logs.
type CreateLogRequest struct {
	PatientMedicationID uuid.UUID  `json:"patient_medication_id"`
	ScheduledTime       time.Time  `json:"scheduled_time"`
	Status              LogStatus  `json:"status"`
	ActualTime          *time.Time `json:"actual_time"`
	Notes               string     `json:"notes"`
	SkippedReason       string     `json:"skipped_reason"`
	LoggedVia           string     `json:"logged_via"`
}

// UpdateLogRequest is the partial payload for PUT /adherence/logs/:id.
type UpdateLogRequest struct {
	Status        *LogStatus `json:"status"`
	ActualTime    *time.Time `json:"actual_time"`
	Notes         *string    `json:"notes"`
	SkippedReason *string    `json:"skipped_reason"`
}

// Stats is the aggregate adherence picture for one period. PeriodStart and
// PeriodEnd are the half-open window the counts cover; for the overall
// period the start is the zero time.
type Stats struct {
	PeriodType     string    `json:"period_type"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	TotalScheduled int       `json:"total_scheduled"`
	TotalTaken     int       `json:"total_taken"`
	TotalSkipped   int       `json:"total_skipped"`
	TotalMissed    int       `json:"total_missed"`
	AdherenceScore float64   `json:"adherence_score"`
	OnTimeScore    float64   `json:"on_time_score"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
	CalculatedAt   time.Time `json:"calculated_at"`
}

// ChartPoint is one day of the adherence chart series. Status is the score
// classification label, empty on days with no scheduled doses.
type ChartPoint struct {
	Date      string  `json:"date"` // YYYY-MM-DD, UTC
	Score     float64 `json:"score"`
	Taken     int     `json:"taken"`
	Scheduled int     `json:"scheduled"`
	Status    string  `json:"status"`
}

// Dashboard is the composed self-service view: stats per period, the chart
// series, and the most recent logs.
type Dashboard struct {
	OverallStats Stats            `json:"overall_stats"`
	WeeklyStats  Stats            `json:"weekly_stats"`
	DailyStats   Stats            `json:"daily_stats"`
	ChartData    []ChartPoint     `json:"chart_data"`
	RecentLogs   []*MedicationLog `json:"recent_logs"`
}
