package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meditrack/meditrack/internal/platform/auth"
)

// ErrInvalidCredentials is returned on login failure. It deliberately does
// not distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

// PatientProfiles is the slice of the patient domain identity needs:
// creating the default profile at registration and resolving a user's
// profile id for token claims. Wired to patient.Service in main.
type PatientProfiles interface {
	CreateDefault(ctx context.Context, userID uuid.UUID, fullName string) (uuid.UUID, error)
	IDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	users    UserRepository
	profiles PatientProfiles
	issuer   *auth.TokenIssuer
	runInTx  func(ctx context.Context, fn func(context.Context) error) error
}

func NewService(users UserRepository, profiles PatientProfiles, issuer *auth.TokenIssuer) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		issuer:   issuer,
		runInTx: func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	}
}

// SetTxRunner installs a transaction runner so registration creates the user
// and its patient profile atomically. Wired to db.RunInTx in main.
func (s *Service) SetTxRunner(run func(ctx context.Context, fn func(context.Context) error) error) {
	s.runInTx = run
}

// Register creates a patient account with its default profile and returns a
// token so the client is signed in immediately.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if req.FullName == "" {
		return nil, fmt.Errorf("full_name is required")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         auth.RolePatient,
		Active:       true,
	}
	var patientID uuid.UUID
	err = s.runInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		id, err := s.profiles.CreateDefault(ctx, u.ID, u.FullName)
		if err != nil {
			return fmt.Errorf("create patient profile: %w", err)
		}
		patientID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueToken(u, patientID)
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.Active {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	patientID := uuid.Nil
	if u.Role == auth.RolePatient {
		patientID, err = s.profiles.IDForUser(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve patient profile: %w", err)
		}
	}

	return s.issueToken(u, patientID)
}

func (s *Service) issueToken(u *User, patientID uuid.UUID) (*TokenResponse, error) {
	token, err := s.issuer.Issue(u.ID, u.Role, patientID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// CurrentUser returns the authenticated user's own record.
func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (*Me, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	me := &Me{User: *u}
	if u.Role == auth.RolePatient {
		if pid, err := s.profiles.IDForUser(ctx, u.ID); err == nil && pid != uuid.Nil {
			me.PatientID = &pid
		}
	}
	return me, nil
}

// CreateAdmin provisions an admin account. Used by the create-admin CLI
// command; admins have no patient profile.
func (s *Service) CreateAdmin(ctx context.Context, email, password, fullName string) (*User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         auth.RoleAdmin,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
