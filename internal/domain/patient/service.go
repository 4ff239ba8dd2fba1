package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AdherenceRater resolves a patient's overall adherence rate and risk level.
// Wired to the adherence service in main; the roster uses it for triage.
type AdherenceRater interface {
	OverallAdherence(ctx context.Context, patientID uuid.UUID) (rate float64, risk string, err error)
}

type Service struct {
	profiles Repository
	rater    AdherenceRater
}

func NewService(profiles Repository, rater AdherenceRater) *Service {
	return &Service{profiles: profiles, rater: rater}
}

// CreateDefault creates the minimal profile a new account starts with.
// Satisfies identity.PatientProfiles.
func (s *Service) CreateDefault(ctx context.Context, userID uuid.UUID, _ string) (uuid.UUID, error) {
	p := &Profile{
		UserID: userID,
		Status: StatusStable,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// IDForUser resolves a user's profile id. Satisfies identity.PatientProfiles.
func (s *Service) IDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// UpdateOwn applies a patient's edits to their own profile. Status and admin
// assignment are not touchable here.
func (s *Service) UpdateOwn(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.DateOfBirth != nil {
		p.DateOfBirth = upd.DateOfBirth
	}
	if upd.Gender != nil {
		p.Gender = *upd.Gender
	}
	if upd.BloodType != nil {
		p.BloodType = *upd.BloodType
	}
	if upd.HeightCM != nil {
		p.HeightCM = upd.HeightCM
	}
	if upd.WeightKG != nil {
		p.WeightKG = upd.WeightKG
	}
	if upd.MedicalHistory != nil {
		p.MedicalHistory = *upd.MedicalHistory
	}
	if upd.Allergies != nil {
		p.Allergies = *upd.Allergies
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AdminUpdate applies an admin's edits: status, admin assignment, clinical
// notes.
func (s *Service) AdminUpdate(ctx context.Context, id uuid.UUID, upd AdminUpdate) (*Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil {
		if !validStatus(*upd.Status) {
			return nil, fmt.Errorf("invalid status %q", *upd.Status)
		}
		p.Status = *upd.Status
	}
	if upd.AssignedAdminID != nil {
		p.AssignedAdminID = upd.AssignedAdminID
	}
	if upd.MedicalHistory != nil {
		p.MedicalHistory = *upd.MedicalHistory
	}
	if upd.Allergies != nil {
		p.Allergies = *upd.Allergies
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Roster returns the admin patient list annotated with adherence rates and
// risk levels. A failed rating degrades that entry to zero/high rather than
// failing the roster.
func (s *Service) Roster(ctx context.Context, limit, offset int) ([]*RosterEntry, int, error) {
	profiles, total, err := s.profiles.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]*RosterEntry, 0, len(profiles))
	for _, p := range profiles {
		entry := &RosterEntry{Profile: *p}
		rate, risk, err := s.rater.OverallAdherence(ctx, p.ID)
		if err != nil {
			log.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("roster adherence rating failed")
			entry.AdherenceRate = 0
			entry.RiskLevel = "high"
		} else {
			entry.AdherenceRate = rate
			entry.RiskLevel = risk
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}

func validStatus(s string) bool {
	switch s {
	case StatusStable, StatusCritical, StatusUnderObservation:
		return true
	}
	return false
}
