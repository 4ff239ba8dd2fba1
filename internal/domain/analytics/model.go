// Package analytics provides the admin-facing population views: adherence
// overview, per-day trends, and per-patient / per-medication summaries.
// Rates come from the adherence scorer; the heavy lifting is SQL grouping.
package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Overview is the top-of-dashboard summary for admins.
type Overview struct {
	TotalPatients    int       `json:"total_patients"`
	TotalMedications int       `json:"total_medications"`
	AverageAdherence float64   `json:"average_adherence"`
	TotalDosesToday  int       `json:"total_doses_today"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
}

// TrendPoint is one day of the population (or single-patient) trend series.
type TrendPoint struct {
	Date           string  `json:"date"` // YYYY-MM-DD, UTC
	AdherenceRate  float64 `json:"adherence_rate"`
	DosesScheduled int     `json:"doses_scheduled"`
	DosesTaken     int     `json:"doses_taken"`
}

// PatientSummary is one row of the per-patient breakdown.
type PatientSummary struct {
	PatientID        uuid.UUID `json:"patient_id"`
	PatientName      string    `json:"patient_name"`
	AdherenceRate    float64   `json:"adherence_rate"`
	TotalMedications int       `json:"total_medications"`
}

// MedicationSummary is one row of the per-medication breakdown.
type MedicationSummary struct {
	MedicationID   uuid.UUID `json:"medication_id"`
	MedicationName string    `json:"medication_name"`
	AdherenceRate  float64   `json:"adherence_rate"`
	TotalPatients  int       `json:"total_patients"`
	TotalDoses     int       `json:"total_doses"`
	DosesTaken     int       `json:"doses_taken"`
}

// Demographics is the population breakdown for the admin dashboard. Patients
// without a recorded date of birth count toward total_patients and the
// gender figures but not the age ones.
type Demographics struct {
	TotalPatients      int            `json:"total_patients"`
	AgeDistribution    map[string]int `json:"age_distribution"`
	GenderDistribution map[string]int `json:"gender_distribution"`
	AverageAge         float64        `json:"average_age"`
}

// UsageTrendPoint is the number of prescriptions started on one day.
type UsageTrendPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD, UTC
	Count int    `json:"count"`
}

// MedicationUsage is one row of the prescription usage breakdown.
type MedicationUsage struct {
	MedicationID       uuid.UUID         `json:"medication_id"`
	MedicationName     string            `json:"medication_name"`
	TotalPatients      int               `json:"total_patients"`
	TotalPrescriptions int               `json:"total_prescriptions"`
	AverageAdherence   float64           `json:"average_adherence"`
	UsageTrend         []UsageTrendPoint `json:"usage_trend"`
}
