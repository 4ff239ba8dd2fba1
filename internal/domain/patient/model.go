// Package patient manages patient profiles: the clinical/demographic record
// attached to a user account, the patient's own profile view, and the admin
// roster with adherence risk levels.
package patient

import (
	"time"

	"github.com/google/uuid"
)

// Profile status values.
const (
	StatusStable           = "stable"
	StatusCritical         = "critical"
	StatusUnderObservation = "under_observation"
)

// Profile is a patient's clinical record. FullName, Email and Phone are
// joined from the users table on reads.
type Profile struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Gender          string     `json:"gender,omitempty"`
	BloodType       string     `json:"blood_type,omitempty"`
	HeightCM        *float64   `json:"height,omitempty"`
	WeightKG        *float64   `json:"weight,omitempty"`
	Status          string     `json:"status"`
	MedicalHistory  string     `json:"medical_history,omitempty"`
	Allergies       string     `json:"allergies,omitempty"`
	AssignedAdminID *uuid.UUID `json:"assigned_admin_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// ProfileUpdate is the payload a patient may apply to their own profile.
// Status and admin assignment are admin-only and deliberately absent.
type ProfileUpdate struct {
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Gender         *string    `json:"gender"`
	BloodType      *string    `json:"blood_type"`
	HeightCM       *float64   `json:"height"`
	WeightKG       *float64   `json:"weight"`
	MedicalHistory *string    `json:"medical_history"`
	Allergies      *string    `json:"allergies"`
}

// AdminUpdate is the payload for PUT /patients/:id/admin-update.
type AdminUpdate struct {
	Status          *string    `json:"status"`
	AssignedAdminID *uuid.UUID `json:"assigned_admin_id"`
	MedicalHistory  *string    `json:"medical_history"`
	Allergies       *string    `json:"allergies"`
}

// RosterEntry is one row of the admin patient roster: the profile plus the
// adherence rate and risk level for triage.
type RosterEntry struct {
	Profile
	AdherenceRate float64 `json:"adherence_rate"`
	RiskLevel     string  `json:"risk_level"`
}
