package adherence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// LogFilter selects logs for queries. Nil fields are unconstrained.
// Start/End constrain scheduled_time as a half-open [Start, End) window.
type LogFilter struct {
	PatientID           uuid.UUID
	PatientMedicationID *uuid.UUID
	Status              *LogStatus
	Start               *time.Time
	End                 *time.Time
	Limit               int
	Offset              int
}

type LogRepository interface {
	Create(ctx context.Context, l *MedicationLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicationLog, error)
	Update(ctx context.Context, l *MedicationLog) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Query returns logs ordered scheduled_time DESC plus the total count
	// matching the filter ignoring limit/offset.
	Query(ctx context.Context, f LogFilter) ([]*MedicationLog, int, error)
}

// AssignmentInfo is the slice of the medication domain the aggregation needs:
// ownership and display fields. Resolved by SQL against the medication
// tables, not by importing that package.
type AssignmentInfo struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	Active         bool
	MedicationName string
	Dosage         string
}

type AssignmentRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*AssignmentInfo, error)
}
