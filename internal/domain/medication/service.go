package medication

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/meditrack/meditrack/internal/platform/notification"
)

// ErrForbidden is returned when a patient touches an assignment that is not
// theirs.
var ErrForbidden = fmt.Errorf("forbidden")

var scheduleTimeRE = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Sender delivers notifications. Satisfied by notification.NotificationManager.
type Sender interface {
	Send(ctx context.Context, n *notification.Notification) error
}

type Service struct {
	catalog     CatalogRepository
	assignments AssignmentRepository
	reminders   ReminderRepository
	templates   *notification.TemplateEngine
	sender      Sender
}

func NewService(catalog CatalogRepository, assignments AssignmentRepository, reminders ReminderRepository, templates *notification.TemplateEngine, sender Sender) *Service {
	return &Service{
		catalog:     catalog,
		assignments: assignments,
		reminders:   reminders,
		templates:   templates,
		sender:      sender,
	}
}

// -- Catalog --

func (s *Service) CreateMedication(ctx context.Context, m *Medication) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.catalog.Create(ctx, m)
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.catalog.GetByID(ctx, id)
}

func (s *Service) UpdateMedication(ctx context.Context, m *Medication) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.catalog.Update(ctx, m)
}

func (s *Service) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	return s.catalog.Delete(ctx, id)
}

func (s *Service) ListMedications(ctx context.Context, search string, limit, offset int) ([]*Medication, int, error) {
	return s.catalog.List(ctx, search, limit, offset)
}

// -- Assignments --

func (s *Service) Assign(ctx context.Context, a *Assignment) error {
	if a.PatientID == uuid.Nil || a.MedicationID == uuid.Nil {
		return fmt.Errorf("patient_id and medication_id are required")
	}
	if a.Dosage == "" || a.Frequency == "" {
		return fmt.Errorf("dosage and frequency are required")
	}
	if len(a.ScheduleTimes) == 0 {
		return fmt.Errorf("at least one schedule time is required")
	}
	for _, st := range a.ScheduleTimes {
		if !scheduleTimeRE.MatchString(st) {
			return fmt.Errorf("invalid schedule time %q, expected HH:MM", st)
		}
	}
	if _, err := s.catalog.GetByID(ctx, a.MedicationID); err != nil {
		return fmt.Errorf("medication %s: %w", a.MedicationID, err)
	}
	if a.StartDate.IsZero() {
		a.StartDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	a.Active = true
	return s.assignments.Create(ctx, a)
}

func (s *Service) GetAssignment(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return s.assignments.GetByID(ctx, id)
}

func (s *Service) UpdateAssignment(ctx context.Context, a *Assignment) error {
	for _, st := range a.ScheduleTimes {
		if !scheduleTimeRE.MatchString(st) {
			return fmt.Errorf("invalid schedule time %q, expected HH:MM", st)
		}
	}
	return s.assignments.Update(ctx, a)
}

// Deactivate ends an assignment without deleting its dose history.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	a.Active = false
	a.EndDate = &now
	return s.assignments.Update(ctx, a)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*Assignment, error) {
	return s.assignments.ListByPatient(ctx, patientID, activeOnly)
}

// -- Reminders --

// AddReminder creates a reminder for an assignment. callerPatientID guards
// ownership; uuid.Nil skips the check (admin callers).
func (s *Service) AddReminder(ctx context.Context, callerPatientID uuid.UUID, r *Reminder) error {
	if !scheduleTimeRE.MatchString(r.RemindAt) {
		return fmt.Errorf("invalid remind_at %q, expected HH:MM", r.RemindAt)
	}
	switch r.Channel {
	case ChannelEmail, ChannelSMS, ChannelPush:
	default:
		return fmt.Errorf("invalid channel %q", r.Channel)
	}

	a, err := s.assignments.GetByID(ctx, r.AssignmentID)
	if err != nil {
		return err
	}
	if callerPatientID != uuid.Nil && a.PatientID != callerPatientID {
		return ErrForbidden
	}
	r.Enabled = true
	return s.reminders.Create(ctx, r)
}

func (s *Service) RemoveReminder(ctx context.Context, callerPatientID, id uuid.UUID) error {
	r, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if callerPatientID != uuid.Nil {
		a, err := s.assignments.GetByID(ctx, r.AssignmentID)
		if err != nil {
			return err
		}
		if a.PatientID != callerPatientID {
			return ErrForbidden
		}
	}
	return s.reminders.Delete(ctx, id)
}

func (s *Service) ListReminders(ctx context.Context, callerPatientID, assignmentID uuid.UUID) ([]*Reminder, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if callerPatientID != uuid.Nil && a.PatientID != callerPatientID {
		return nil, ErrForbidden
	}
	return s.reminders.ListByAssignment(ctx, assignmentID)
}

// -- Reminder dispatch --

// DispatchDueReminders sends every reminder due at the given instant through
// the reminder's channel. Failures are logged and the reminder stays
// unmarked so the next matching tick can retry; delivery never blocks or
// fails an API request. Returns the number sent.
func (s *Service) DispatchDueReminders(ctx context.Context, now time.Time) (int, error) {
	minute := now.UTC().Format("15:04")
	due, err := s.reminders.Due(ctx, minute)
	if err != nil {
		return 0, fmt.Errorf("load due reminders: %w", err)
	}

	sent := 0
	for _, d := range due {
		if err := s.sendReminder(ctx, d); err != nil {
			log.Warn().Err(err).
				Str("reminder_id", d.ID.String()).
				Str("channel", d.Channel).
				Msg("reminder dispatch failed")
			continue
		}
		if err := s.reminders.MarkSent(ctx, d.ID, now.UTC()); err != nil {
			log.Warn().Err(err).Str("reminder_id", d.ID.String()).Msg("mark reminder sent failed")
		}
		sent++
	}
	return sent, nil
}

func (s *Service) sendReminder(ctx context.Context, d *DueReminder) error {
	subject, body, err := s.templates.Render("dose-reminder", map[string]string{
		"patient_name": d.PatientName,
		"medication":   d.MedicationName,
		"dosage":       d.Dosage,
		"time":         d.RemindAt,
	})
	if err != nil {
		return err
	}

	var recipient string
	switch d.Channel {
	case ChannelEmail:
		recipient = d.Email
	case ChannelSMS:
		recipient = d.Phone
	case ChannelPush:
		recipient = d.PatientUserID.String()
	default:
		return fmt.Errorf("unsupported channel %q", d.Channel)
	}
	if recipient == "" {
		return fmt.Errorf("no %s recipient for patient %s", d.Channel, d.PatientID)
	}

	return s.sender.Send(ctx, &notification.Notification{
		Type:       notification.NotificationType(d.Channel),
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		TemplateID: "dose-reminder",
		Priority:   "normal",
		Metadata: map[string]string{
			"reminder_id":           d.ID.String(),
			"patient_medication_id": d.AssignmentID.String(),
		},
	})
}
