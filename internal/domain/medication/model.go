// Package medication manages the medication catalog, per-patient medication
// assignments with their dose schedules, and the reminders that feed the
// notification dispatcher.
package medication

import (
	"time"

	"github.com/google/uuid"
)

// Medication is a catalog entry, admin-managed.
type Medication struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	GenericName string    `json:"generic_name,omitempty"`
	Form        string    `json:"form,omitempty"`
	Strength    string    `json:"strength,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Assignment prescribes a catalog medication to a patient with its dose
// schedule. ScheduleTimes are HH:MM wall-clock times, UTC. MedicationName
// and Strength are joined from the catalog on reads.
type Assignment struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	MedicationID  uuid.UUID  `json:"medication_id"`
	Dosage        string     `json:"dosage"`
	Frequency     string     `json:"frequency"`
	ScheduleTimes []string   `json:"schedule_times"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Instructions  string     `json:"instructions,omitempty"`
	Active        bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	MedicationName string `json:"medication_name,omitempty"`
	Strength       string `json:"strength,omitempty"`
}

// Reminder channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

// Reminder schedules a notification for one of an assignment's dose times.
type Reminder struct {
	ID           uuid.UUID  `json:"id"`
	AssignmentID uuid.UUID  `json:"patient_medication_id"`
	RemindAt     string     `json:"remind_at"` // HH:MM, UTC
	Channel      string     `json:"channel"`
	Enabled      bool       `json:"enabled"`
	LastSentAt   *time.Time `json:"last_sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DueReminder is a reminder joined with everything the dispatcher needs to
// render and address the notification.
type DueReminder struct {
	Reminder
	PatientID      uuid.UUID `json:"patient_id"`
	PatientUserID  uuid.UUID `json:"patient_user_id"`
	PatientName    string    `json:"patient_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	MedicationName string    `json:"medication_name"`
	Dosage         string    `json:"dosage"`
}
