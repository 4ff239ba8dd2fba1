package adherence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrForbidden is returned when a patient touches a log or assignment that
// is not theirs.
var ErrForbidden = errors.New("forbidden")

const (
	DefaultChartDays = 7
	MaxChartDays     = 90
	DefaultRecentN   = 5
	MaxRecentN       = 100
)

type Service struct {
	logs        LogRepository
	assignments AssignmentRepository
	tolerance   time.Duration
	now         func() time.Time
}

// NewService builds the aggregation service. tolerance is the on-time window
// around the scheduled time (ON_TIME_TOLERANCE_MINUTES).
func NewService(logs LogRepository, assignments AssignmentRepository, tolerance time.Duration) *Service {
	return &Service{
		logs:        logs,
		assignments: assignments,
		tolerance:   tolerance,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// -- Log store operations --

// CreateLog records a dose outcome. callerPatientID guards ownership;
// uuid.Nil (admin) skips the check but the log still lands on the
// assignment's patient.
func (s *Service) CreateLog(ctx context.Context, callerPatientID uuid.UUID, req CreateLogRequest) (*MedicationLog, error) {
	if req.PatientMedicationID == uuid.Nil {
		return nil, fmt.Errorf("patient_medication_id is required")
	}
	if req.ScheduledTime.IsZero() {
		return nil, fmt.Errorf("scheduled_time is required")
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q, expected taken|skipped|missed", req.Status)
	}
	if req.Status == StatusTaken && req.ActualTime == nil {
		return nil, fmt.Errorf("actual_time is required when status is taken")
	}
	if req.Status != StatusTaken && req.ActualTime != nil {
		return nil, fmt.Errorf("actual_time is only valid when status is taken")
	}

	a, err := s.assignments.Get(ctx, req.PatientMedicationID)
	if err != nil {
		return nil, err
	}
	if callerPatientID != uuid.Nil && a.PatientID != callerPatientID {
		return nil, ErrForbidden
	}

	l := &MedicationLog{
		PatientMedicationID: req.PatientMedicationID,
		PatientID:           a.PatientID,
		ScheduledTime:       req.ScheduledTime.UTC(),
		ScheduledDate:       DayKey(req.ScheduledTime),
		Status:              req.Status,
		Notes:               req.Notes,
		SkippedReason:       req.SkippedReason,
		LoggedVia:           req.LoggedVia,
		MedicationName:      a.MedicationName,
		Dosage:              a.Dosage,
	}
	s.deriveTiming(l, req.ActualTime)

	if err := s.logs.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateLog applies a partial update, re-deriving the timing fields.
func (s *Service) UpdateLog(ctx context.Context, callerPatientID, id uuid.UUID, req UpdateLogRequest) (*MedicationLog, error) {
	l, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerPatientID != uuid.Nil && l.PatientID != callerPatientID {
		return nil, ErrForbidden
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("invalid status %q, expected taken|skipped|missed", *req.Status)
		}
		l.Status = *req.Status
	}
	if req.Notes != nil {
		l.Notes = *req.Notes
	}
	if req.SkippedReason != nil {
		l.SkippedReason = *req.SkippedReason
	}

	actual := l.ActualTime
	if req.ActualTime != nil {
		actual = req.ActualTime
	}
	if l.Status == StatusTaken && actual == nil {
		return nil, fmt.Errorf("actual_time is required when status is taken")
	}
	if l.Status != StatusTaken && req.ActualTime != nil {
		return nil, fmt.Errorf("actual_time is only valid when status is taken")
	}
	s.deriveTiming(l, actual)

	if err := s.logs.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteLog removes a log permanently. Subsequent queries and dashboards no
// longer see it.
func (s *Service) DeleteLog(ctx context.Context, callerPatientID, id uuid.UUID) error {
	l, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if callerPatientID != uuid.Nil && l.PatientID != callerPatientID {
		return ErrForbidden
	}
	return s.logs.Delete(ctx, id)
}

func (s *Service) GetLog(ctx context.Context, callerPatientID, id uuid.UUID) (*MedicationLog, error) {
	l, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerPatientID != uuid.Nil && l.PatientID != callerPatientID {
		return nil, ErrForbidden
	}
	return l, nil
}

func (s *Service) QueryLogs(ctx context.Context, f LogFilter) ([]*MedicationLog, int, error) {
	return s.logs.Query(ctx, f)
}

// deriveTiming maintains the invariant: actual_time and on_time exist iff
// status is taken, minutes_late only when the dose was actually late.
func (s *Service) deriveTiming(l *MedicationLog, actual *time.Time) {
	l.ActualTime = nil
	l.OnTime = nil
	l.MinutesLate = nil
	if l.Status != StatusTaken {
		return
	}
	at := actual.UTC()
	l.ActualTime = &at

	diff := at.Sub(l.ScheduledTime)
	onTime := diff <= s.tolerance && -diff <= s.tolerance
	l.OnTime = &onTime

	if diff > 0 {
		late := int(diff.Minutes())
		l.MinutesLate = &late
	}
}

// -- Aggregation --

// Stats computes adherence stats for one period. Counts cover the period's
// window; streaks are always computed over the full history so the numbers
// match across periods.
func (s *Service) Stats(ctx context.Context, patientID uuid.UUID, period PeriodType, medID *uuid.UUID) (*Stats, error) {
	logs, _, err := s.logs.Query(ctx, LogFilter{PatientID: patientID, PatientMedicationID: medID})
	if err != nil {
		return nil, err
	}
	st := s.computeStats(logs, period)
	return &st, nil
}

func (s *Service) computeStats(logs []*MedicationLog, period PeriodType) Stats {
	now := s.now()
	st := emptyStats(period, now)

	onTime := 0
	for _, l := range logs {
		if !period.Contains(now, l.ScheduledTime) {
			continue
		}
		st.TotalScheduled++
		switch l.Status {
		case StatusTaken:
			st.TotalTaken++
			if l.OnTime != nil && *l.OnTime {
				onTime++
			}
		case StatusMissed:
			st.TotalMissed++
		case StatusSkipped:
			st.TotalSkipped++
		}
	}
	st.AdherenceScore = AdherenceRate(st.TotalTaken, st.TotalScheduled)
	st.OnTimeScore = OnTimeRate(onTime, st.TotalTaken)
	st.CurrentStreak, st.LongestStreak = Streaks(logs, now)
	return st
}

// emptyStats is the zero-count stats frame for a period: type, window
// bounds and calculation time set, every counter zero.
func emptyStats(period PeriodType, now time.Time) Stats {
	start, end := period.Range(now)
	return Stats{
		PeriodType:   string(period),
		PeriodStart:  start,
		PeriodEnd:    end,
		CalculatedAt: now,
	}
}

// Chart builds the per-day series over the trailing window of `days` days
// ending today, chronological. Days outside [1, MaxChartDays] are clamped.
func (s *Service) Chart(ctx context.Context, patientID uuid.UUID, days int, medID *uuid.UUID) ([]ChartPoint, error) {
	if days <= 0 {
		days = DefaultChartDays
	}
	if days > MaxChartDays {
		days = MaxChartDays
	}

	now := s.now()
	end := DayKey(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	logs, _, err := s.logs.Query(ctx, LogFilter{
		PatientID:           patientID,
		PatientMedicationID: medID,
		Start:               &start,
		End:                 &end,
	})
	if err != nil {
		return nil, err
	}

	type dayCount struct{ scheduled, taken int }
	byDay := make(map[time.Time]*dayCount)
	for _, l := range logs {
		day := DayKey(l.ScheduledTime)
		c := byDay[day]
		if c == nil {
			c = &dayCount{}
			byDay[day] = c
		}
		c.scheduled++
		if l.Status == StatusTaken {
			c.taken++
		}
	}

	points := make([]ChartPoint, 0, days)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		p := ChartPoint{Date: d.Format("2006-01-02")}
		if c := byDay[d]; c != nil {
			p.Scheduled = c.scheduled
			p.Taken = c.taken
			p.Score = AdherenceRate(c.taken, c.scheduled)
			p.Status = ScoreLabel(p.Score)
		}
		points = append(points, p)
	}
	return points, nil
}

// Dashboard composes the self-service view. Each section is computed
// independently; a section that fails degrades to its zero value instead of
// failing the whole request.
func (s *Service) Dashboard(ctx context.Context, patientID uuid.UUID, chartDays, recentN int, medID *uuid.UUID) (*Dashboard, error) {
	if recentN <= 0 {
		recentN = DefaultRecentN
	}
	if recentN > MaxRecentN {
		recentN = MaxRecentN
	}

	d := &Dashboard{
		ChartData:  []ChartPoint{},
		RecentLogs: []*MedicationLog{},
	}

	for _, sec := range []struct {
		period PeriodType
		dest   *Stats
	}{
		{PeriodOverall, &d.OverallStats},
		{PeriodWeekly, &d.WeeklyStats},
		{PeriodDaily, &d.DailyStats},
	} {
		st, err := s.Stats(ctx, patientID, sec.period, medID)
		if err != nil {
			log.Warn().Err(err).Str("period", string(sec.period)).
				Str("patient_id", patientID.String()).Msg("dashboard stats section failed")
			*sec.dest = emptyStats(sec.period, s.now())
			continue
		}
		*sec.dest = *st
	}

	chart, err := s.Chart(ctx, patientID, chartDays, medID)
	if err != nil {
		log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("dashboard chart section failed")
	} else {
		d.ChartData = chart
	}

	recent, _, err := s.logs.Query(ctx, LogFilter{
		PatientID:           patientID,
		PatientMedicationID: medID,
		Limit:               recentN,
	})
	if err != nil {
		log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("dashboard recent logs section failed")
	} else if recent != nil {
		d.RecentLogs = recent
	}

	return d, nil
}

// OverallAdherence reports a patient's all-time adherence rate and risk
// level. Satisfies patient.AdherenceRater.
func (s *Service) OverallAdherence(ctx context.Context, patientID uuid.UUID) (float64, string, error) {
	st, err := s.Stats(ctx, patientID, PeriodOverall, nil)
	if err != nil {
		return 0, "", err
	}
	return st.AdherenceScore, RiskLevel(st.AdherenceScore), nil
}
