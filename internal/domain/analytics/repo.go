package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Counts is a raw scheduled/taken pair for one grouping key; the service
// turns it into a rate.
type Counts struct {
	Scheduled int
	Taken     int
}

// DayCounts is Counts bucketed by UTC calendar day.
type DayCounts struct {
	Day time.Time
	Counts
}

// PatientCounts is Counts per patient, with the joined display name and the
// patient's active medication count.
type PatientCounts struct {
	PatientID   uuid.UUID
	PatientName string
	Medications int
	Counts
}

// MedicationCounts is Counts per catalog medication, with the number of
// distinct patients assigned to it.
type MedicationCounts struct {
	MedicationID   uuid.UUID
	MedicationName string
	Patients       int
	Counts
}

// DemographicRow is one patient's raw demographic attributes.
type DemographicRow struct {
	DateOfBirth *time.Time
	Gender      string
}

// UsageCounts is the per-medication prescription aggregate: every assignment
// counts as a prescription, active or not.
type UsageCounts struct {
	MedicationID   uuid.UUID
	MedicationName string
	Patients       int
	Prescriptions  int
	Counts
}

// PrescriptionDayCount is the number of prescriptions of one medication
// started on one day.
type PrescriptionDayCount struct {
	MedicationID uuid.UUID
	Day          time.Time
	Count        int
}

type Repository interface {
	TotalPatients(ctx context.Context) (int, error)
	TotalMedications(ctx context.Context) (int, error)
	DosesInRange(ctx context.Context, start, end time.Time) (int, error)
	DailyCounts(ctx context.Context, start, end time.Time, patientID *uuid.UUID) ([]DayCounts, error)
	PatientCounts(ctx context.Context, start, end time.Time) ([]PatientCounts, error)
	MedicationCounts(ctx context.Context, start, end time.Time, medicationID *uuid.UUID) ([]MedicationCounts, error)
	DemographicRows(ctx context.Context) ([]DemographicRow, error)
	UsageCounts(ctx context.Context, start, end time.Time) ([]UsageCounts, error)
	PrescriptionStarts(ctx context.Context, start, end time.Time) ([]PrescriptionDayCount, error)
}
