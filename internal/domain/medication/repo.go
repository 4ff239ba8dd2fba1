package medication

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

type CatalogRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]*Medication, int, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	Update(ctx context.Context, a *Assignment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*Assignment, error)
}

type ReminderRepository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error)
	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*Reminder, error)
	// Due returns enabled reminders whose remind_at equals the given HH:MM
	// minute and that have not been sent today, joined with recipient info.
	Due(ctx context.Context, minute string) ([]*DueReminder, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
}
