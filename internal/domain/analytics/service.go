package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/meditrack/meditrack/internal/domain/adherence"
)

// DefaultWindowDays is the trailing window used when the caller supplies no
// date range.
const DefaultWindowDays = 30

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// window resolves an optional [start, end] date pair into a half-open UTC
// range, defaulting to the trailing 30 days ending tomorrow midnight.
func (s *Service) window(start, end *time.Time) (time.Time, time.Time, error) {
	now := s.now()
	wEnd := adherence.DayKey(now).AddDate(0, 0, 1)
	wStart := wEnd.AddDate(0, 0, -DefaultWindowDays)

	if end != nil {
		wEnd = adherence.DayKey(*end).AddDate(0, 0, 1) // inclusive end date
	}
	if start != nil {
		wStart = adherence.DayKey(*start)
	}
	if !wStart.Before(wEnd) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before end_date")
	}
	return wStart, wEnd, nil
}

// Overview aggregates the population summary. Count failures degrade to
// zero values rather than failing the response.
func (s *Service) Overview(ctx context.Context, start, end *time.Time) (*Overview, error) {
	wStart, wEnd, err := s.window(start, end)
	if err != nil {
		return nil, err
	}

	o := &Overview{WindowStart: wStart, WindowEnd: wEnd}

	if o.TotalPatients, err = s.repo.TotalPatients(ctx); err != nil {
		log.Warn().Err(err).Msg("overview patient count failed")
	}
	if o.TotalMedications, err = s.repo.TotalMedications(ctx); err != nil {
		log.Warn().Err(err).Msg("overview medication count failed")
	}

	today := adherence.DayKey(s.now())
	if o.TotalDosesToday, err = s.repo.DosesInRange(ctx, today, today.AddDate(0, 0, 1)); err != nil {
		log.Warn().Err(err).Msg("overview today dose count failed")
	}

	patients, err := s.repo.PatientCounts(ctx, wStart, wEnd)
	if err != nil {
		log.Warn().Err(err).Msg("overview patient adherence failed")
		return o, nil
	}
	sum, n := 0.0, 0
	for _, p := range patients {
		if p.Scheduled == 0 {
			continue
		}
		sum += adherence.AdherenceRate(p.Taken, p.Scheduled)
		n++
	}
	if n > 0 {
		o.AverageAdherence = sum / float64(n)
	}
	return o, nil
}

// Trends returns the per-day series over the trailing `days` window,
// population-wide or for a single patient. Zero-dose days appear with zero
// values so the series is gapless.
func (s *Service) Trends(ctx context.Context, days int, patientID *uuid.UUID) ([]TrendPoint, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	if days > 365 {
		days = 365
	}

	end := adherence.DayKey(s.now()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	counts, err := s.repo.DailyCounts(ctx, start, end, patientID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]Counts, len(counts))
	for _, c := range counts {
		byDay[adherence.DayKey(c.Day)] = c.Counts
	}

	points := make([]TrendPoint, 0, days)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		c := byDay[d]
		points = append(points, TrendPoint{
			Date:           d.Format("2006-01-02"),
			AdherenceRate:  adherence.AdherenceRate(c.Taken, c.Scheduled),
			DosesScheduled: c.Scheduled,
			DosesTaken:     c.Taken,
		})
	}
	return points, nil
}

// PatientSummaries returns per-patient adherence over the default window,
// dropping patients below minAdherence and capping the result at limit.
func (s *Service) PatientSummaries(ctx context.Context, limit int, minAdherence float64) ([]PatientSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	wStart, wEnd, _ := s.window(nil, nil)

	counts, err := s.repo.PatientCounts(ctx, wStart, wEnd)
	if err != nil {
		return nil, err
	}

	summaries := make([]PatientSummary, 0, len(counts))
	for _, c := range counts {
		rate := adherence.AdherenceRate(c.Taken, c.Scheduled)
		if rate < minAdherence {
			continue
		}
		summaries = append(summaries, PatientSummary{
			PatientID:        c.PatientID,
			PatientName:      c.PatientName,
			AdherenceRate:    rate,
			TotalMedications: c.Medications,
		})
		if len(summaries) >= limit {
			break
		}
	}
	return summaries, nil
}

// MedicationSummaries returns per-medication adherence over the default
// window, optionally filtered to one medication.
func (s *Service) MedicationSummaries(ctx context.Context, medicationID *uuid.UUID, limit int) ([]MedicationSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	wStart, wEnd, _ := s.window(nil, nil)

	counts, err := s.repo.MedicationCounts(ctx, wStart, wEnd, medicationID)
	if err != nil {
		return nil, err
	}

	summaries := make([]MedicationSummary, 0, len(counts))
	for _, c := range counts {
		summaries = append(summaries, MedicationSummary{
			MedicationID:   c.MedicationID,
			MedicationName: c.MedicationName,
			AdherenceRate:  adherence.AdherenceRate(c.Taken, c.Scheduled),
			TotalPatients:  c.Patients,
			TotalDoses:     c.Scheduled,
			DosesTaken:     c.Taken,
		})
		if len(summaries) >= limit {
			break
		}
	}
	return summaries, nil
}

// ageBucket classifies an age in whole years into the distribution keys the
// dashboard charts.
func ageBucket(age int) string {
	switch {
	case age < 18:
		return "0-17"
	case age < 35:
		return "18-34"
	case age < 50:
		return "35-49"
	case age < 65:
		return "50-64"
	default:
		return "65+"
	}
}

// yearsSince is the age in whole years at `now`.
func yearsSince(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}

// Demographics builds the population age and gender breakdown from the
// profile table.
func (s *Service) Demographics(ctx context.Context) (*Demographics, error) {
	rows, err := s.repo.DemographicRows(ctx)
	if err != nil {
		return nil, err
	}

	d := &Demographics{
		AgeDistribution:    map[string]int{},
		GenderDistribution: map[string]int{},
	}
	now := s.now()
	ageSum, withDOB := 0, 0
	for _, r := range rows {
		d.TotalPatients++
		gender := r.Gender
		if gender == "" {
			gender = "unknown"
		}
		d.GenderDistribution[gender]++
		if r.DateOfBirth != nil {
			age := yearsSince(*r.DateOfBirth, now)
			d.AgeDistribution[ageBucket(age)]++
			ageSum += age
			withDOB++
		}
	}
	if withDOB > 0 {
		d.AverageAge = float64(ageSum) / float64(withDOB)
	}
	return d, nil
}

// MedicationUsage returns per-medication prescription figures over the
// default window, ordered most-prescribed first. The usage trend counts
// prescriptions started per day; only days with starts appear. A trend
// query failure degrades to empty trends rather than failing the response.
func (s *Service) MedicationUsage(ctx context.Context, limit int) ([]MedicationUsage, error) {
	if limit <= 0 {
		limit = 50
	}
	wStart, wEnd, _ := s.window(nil, nil)

	counts, err := s.repo.UsageCounts(ctx, wStart, wEnd)
	if err != nil {
		return nil, err
	}

	trendByMed := map[uuid.UUID][]UsageTrendPoint{}
	starts, err := s.repo.PrescriptionStarts(ctx, wStart, wEnd)
	if err != nil {
		log.Warn().Err(err).Msg("usage trend query failed")
	}
	for _, st := range starts {
		trendByMed[st.MedicationID] = append(trendByMed[st.MedicationID], UsageTrendPoint{
			Date:  adherence.DayKey(st.Day).Format("2006-01-02"),
			Count: st.Count,
		})
	}

	usage := make([]MedicationUsage, 0, len(counts))
	for _, c := range counts {
		trend := trendByMed[c.MedicationID]
		if trend == nil {
			trend = []UsageTrendPoint{}
		}
		usage = append(usage, MedicationUsage{
			MedicationID:       c.MedicationID,
			MedicationName:     c.MedicationName,
			TotalPatients:      c.Patients,
			TotalPrescriptions: c.Prescriptions,
			AverageAdherence:   adherence.AdherenceRate(c.Taken, c.Scheduled),
			UsageTrend:         trend,
		})
		if len(usage) >= limit {
			break
		}
	}
	return usage, nil
}
